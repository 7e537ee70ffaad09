package mevo

// PacketLogger is an optional sink for raw wire frames, consulted (never
// required) by the receive buffer for diagnostics.
type PacketLogger interface {
	LogFrame(raw []byte, decoded *Frame, err error)
}

// Filter selects which frames nextMatching should accept. A nil field
// means "don't filter on this dimension".
type Filter struct {
	Dest     *Bus
	Src      *Bus
	Types    map[uint8]bool
	SkipText bool
}

func (f Filter) matches(fr Frame) bool {
	if f.Dest != nil && fr.Dest != *f.Dest {
		return false
	}
	if f.Src != nil && fr.Src != *f.Src {
		return false
	}
	if f.Types != nil && !f.Types[fr.Type] {
		return false
	}
	if f.SkipText && fr.Type == typeTEXT {
		return false
	}
	return true
}

// receiveBuffer accumulates raw bytes pushed by the caller and yields whole,
// checksum-valid frames. It resyncs on garbage by dropping bytes before the
// next 0xF0, and buffers frames that fail an active filter into an overflow
// queue drained in FIFO order (spec §4.4).
type receiveBuffer struct {
	buf      []byte
	overflow []Frame
	logger   PacketLogger

	onFramingError func(*Error)
}

func newReceiveBuffer() *receiveBuffer {
	return &receiveBuffer{}
}

func (r *receiveBuffer) push(b []byte) {
	r.buf = append(r.buf, b...)
}

// nextFrame returns the next fully-framed, checksum-valid frame, or
// (Frame{}, false, nil) if there isn't enough data buffered yet. A malformed
// frame is skipped (bytes through the offending 0xF1 are discarded) and
// reported via err; the call returns ok=false so the caller can decide
// whether to retry immediately.
func (r *receiveBuffer) nextFrame() (fr Frame, ok bool, err error) {
	for {
		start := indexByte(r.buf, delimStart)
		if start < 0 {
			r.buf = nil
			return Frame{}, false, nil
		}
		if start > 0 {
			// resync: drop garbage preceding the next 0xF0
			r.buf = r.buf[start:]
		}

		end := indexByte(r.buf[1:], delimEnd)
		if end < 0 {
			return Frame{}, false, nil
		}
		end++ // index relative to r.buf

		interior := r.buf[1:end]
		rest := r.buf[end+1:]

		fr, decErr := decodeFrame(interior)
		if r.logger != nil {
			raw := append([]byte(nil), r.buf[:end+1]...)
			if decErr != nil {
				r.logger.LogFrame(raw, nil, decErr)
			} else {
				r.logger.LogFrame(raw, &fr, nil)
			}
		}
		r.buf = rest

		if decErr != nil {
			if fe, ok := decErr.(*Error); ok {
				return Frame{}, false, fe
			}
			return Frame{}, false, decErr
		}
		return fr, true, nil
	}
}

// nextMatching drains frames via nextFrame until one matches filter or the
// buffer runs dry. Non-matching frames are appended to the overflow queue.
func (r *receiveBuffer) nextMatching(filter Filter) (Frame, bool, error) {
	// drain overflow first, in FIFO order, for any that now match
	for i := 0; i < len(r.overflow); i++ {
		if filter.matches(r.overflow[i]) {
			fr := r.overflow[i]
			r.overflow = append(r.overflow[:i], r.overflow[i+1:]...)
			return fr, true, nil
		}
	}

	for {
		fr, ok, err := r.nextFrame()
		if err != nil {
			return Frame{}, false, err
		}
		if !ok {
			return Frame{}, false, nil
		}
		if filter.matches(fr) {
			return fr, true, nil
		}
		r.overflow = append(r.overflow, fr)
	}
}

// drainOverflow pops the oldest buffered frame regardless of filter, or
// returns ok=false if the overflow queue is empty.
func (r *receiveBuffer) drainOverflow() (Frame, bool) {
	if len(r.overflow) == 0 {
		return Frame{}, false
	}
	fr := r.overflow[0]
	r.overflow = r.overflow[1:]
	return fr, true
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
