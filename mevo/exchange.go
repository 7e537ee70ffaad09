package mevo

import "time"

// step is one send-then-wait unit of a phase or post-shot sequence (spec
// §4.5). A step with a nil send is a pure wait (used for e.g. the final
// "ARMED DetectionMode" text wait). wantTypes lists every type that must
// be observed from filterSrc before the step is considered complete; most
// steps want exactly one type, but a couple (post-shot step 3) accept two
// types in either order.
type step struct {
	name      string
	dest      Bus // bus the request targets, and default response source
	filterSrc *Bus
	send      Builder
	wantTypes []uint8
	accept    func(msg Message) bool // when set, only messages accept() approves count toward completion
	onMsg     func(c *Client, msg Message)
	timeout   time.Duration
	backoffs  []time.Duration // len(backoffs) is the retry budget; the durations are not applied: a retry resends on the next advance call and waits the full timeout again
	optional  bool            // on exhausted timeout, proceed instead of failing
}

func (s step) responseSrc() Bus {
	if s.filterSrc != nil {
		return *s.filterSrc
	}
	return s.dest
}

func typeSet(types []uint8) map[uint8]bool {
	if len(types) == 0 {
		return nil
	}
	m := make(map[uint8]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// stepRunner advances a fixed, ordered sequence of steps one poll() call at
// a time, never blocking (spec §4.5, §5). Exactly one request is ever
// outstanding at a time, which trivially satisfies "never more than one
// outstanding request per bus".
type stepRunner struct {
	steps []step
	idx   int

	sent          bool
	sentAt        time.Time
	retry         int
	got           map[uint8]bool
	framingErrors int
}

func newStepRunner(steps []step) *stepRunner {
	return &stepRunner{steps: steps}
}

func (r *stepRunner) done() bool { return r.idx >= len(r.steps) }

// currentStepName reports the name of the step in progress, or "" once the
// runner is done. Used for diagnostics where a caller needs to tell which
// step a fatal error came from.
func (r *stepRunner) currentStepName() string {
	if r.done() {
		return ""
	}
	return r.steps[r.idx].name
}

// advance runs one unit of work for the current step. It returns
// stepAdvanced if the sequence moved to (or past) the next step this call,
// stepWaiting if there is nothing more to do until new bytes arrive, or a
// fatal error if the step's retry/backoff budget (or framing-error budget)
// is exhausted.
type stepResult int

const (
	stepWaiting stepResult = iota
	stepAdvanced
	stepFinished
)

func (r *stepRunner) advance(c *Client) (stepResult, error) {
	if r.done() {
		return stepFinished, nil
	}
	s := r.steps[r.idx]

	if !r.sent {
		if s.send != nil {
			frame := encodeFrame(s.dest, BusAPP, s.send.WireType(), s.send.Build())
			if err := c.stream.WriteAll(frame); err != nil {
				return stepWaiting, wrapErr(KindIO, err, "write during step %q", s.name)
			}
			if c.cfg.PacketLogger != nil {
				c.cfg.PacketLogger.LogFrame(frame, nil, nil)
			}
		}
		r.sentAt = c.cfg.Clock.Now()
		r.sent = true
		r.got = map[uint8]bool{}
	}

	if len(s.wantTypes) > 0 {
		src := s.responseSrc()
		filter := Filter{Src: &src, Types: typeSet(s.wantTypes), SkipText: !typeSet(s.wantTypes)[typeTEXT]}
		for {
			fr, ok, err := c.rb.nextMatching(filter)
			if err != nil {
				r.framingErrors++
				if fe, ok := err.(*Error); ok {
					c.emitProtocolErrorEvent(fe)
				}
				if r.framingErrors >= 3 {
					return stepWaiting, err
				}
				continue
			}
			if !ok {
				break
			}
			msg, perr := ParseMessage(fr)
			if perr != nil {
				return stepWaiting, perr
			}
			if s.onMsg != nil {
				s.onMsg(c, msg)
			}
			if s.accept == nil || s.accept(msg) {
				r.got[fr.Type] = true
			}
			if allWanted(r.got, s.wantTypes) {
				r.idx++
				r.sent = false
				r.retry = 0
				return stepAdvanced, nil
			}
		}
	} else {
		// pure send, no response expected (e.g. SHOT_DATA_ACK)
		r.idx++
		r.sent = false
		r.retry = 0
		return stepAdvanced, nil
	}

	elapsed := c.cfg.Clock.Now().Sub(r.sentAt)
	if elapsed > s.timeout {
		if r.retry < len(s.backoffs) {
			r.retry++
			r.sent = false // resend on the next advance() call
			return stepWaiting, nil
		}
		if s.optional {
			r.idx++
			r.sent = false
			r.retry = 0
			return stepAdvanced, nil
		}
		return stepWaiting, newProtocolError(KindProtocolTimeout, "step %q: no %v from %v within %s", s.name, s.wantTypes, s.responseSrc(), s.timeout)
	}

	return stepWaiting, nil
}

func allWanted(got map[uint8]bool, want []uint8) bool {
	for _, t := range want {
		if !got[t] {
			return false
		}
	}
	return true
}
