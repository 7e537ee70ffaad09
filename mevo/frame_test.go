package mevo

import "testing"

func TestEncodeFrameStatusPollWorkedExample(t *testing.T) {
	got := encodeFrame(BusDSP, BusAPP, typeSTATUS, []byte{0x01, 0x01})
	want := []byte{0xF0, 0x40, 0x10, 0xAA, 0x01, 0x01, 0x00, 0xFC, 0xF1}
	if !bytesEqual(got, want) {
		t.Fatalf("encodeFrame = % X, want % X", got, want)
	}

	fr, err := decodeFrame(got[1 : len(got)-1])
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if fr.Dest != BusDSP || fr.Src != BusAPP || fr.Type != typeSTATUS {
		t.Fatalf("decoded frame = %+v", fr)
	}
	if !bytesEqual(fr.Payload, []byte{0x01, 0x01}) {
		t.Fatalf("decoded payload = % X, want 01 01", fr.Payload)
	}
}

func TestFrameRoundTripWithEscapedPayload(t *testing.T) {
	payload := []byte{delimStart, escByte, reservedFA, delimEnd}
	raw := encodeFrame(BusPI, BusAPP, typeTEXT, payload)

	if raw[0] != delimStart || raw[len(raw)-1] != delimEnd {
		t.Fatalf("frame missing delimiters: % X", raw)
	}

	fr, err := decodeFrame(raw[1 : len(raw)-1])
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if fr.Dest != BusPI || fr.Src != BusAPP || fr.Type != typeTEXT {
		t.Fatalf("decoded frame = %+v", fr)
	}
	if !bytesEqual(fr.Payload, payload) {
		t.Fatalf("decoded payload = % X, want % X", fr.Payload, payload)
	}
}

func TestDecodeFrameTooShort(t *testing.T) {
	_, err := decodeFrame([]byte{0x40, 0x10})
	if err == nil {
		t.Fatal("want error for too-short interior")
	}
	if fe, ok := err.(*Error); !ok || fe.Kind != KindFramingTooShort {
		t.Fatalf("err = %v, want KindFramingTooShort", err)
	}
}

func TestDecodeFrameChecksumMismatch(t *testing.T) {
	raw := encodeFrame(BusDSP, BusAPP, typeSTATUS, []byte{0x01, 0x01})
	interior := append([]byte(nil), raw[1:len(raw)-1]...)
	interior[len(interior)-1] ^= 0xFF // corrupt cs_lo

	_, err := decodeFrame(interior)
	if err == nil {
		t.Fatal("want checksum mismatch error")
	}
	if fe, ok := err.(*Error); !ok || fe.Kind != KindFramingChecksumMismatch {
		t.Fatalf("err = %v, want KindFramingChecksumMismatch", err)
	}
}

func TestReceiveBufferResyncsOnGarbage(t *testing.T) {
	rb := newReceiveBuffer()
	good := encodeFrame(BusDSP, BusAPP, typeSTATUS, []byte{0x01, 0x01})
	rb.push([]byte{0x00, 0x11, 0x22}) // garbage before the first 0xF0
	rb.push(good)

	fr, ok, err := rb.nextFrame()
	if err != nil {
		t.Fatalf("nextFrame: %v", err)
	}
	if !ok {
		t.Fatal("expected a frame after resync")
	}
	if fr.Dest != BusDSP || fr.Type != typeSTATUS {
		t.Fatalf("fr = %+v", fr)
	}
}

func TestNextMatchingBuffersNonMatchingFramesInOverflow(t *testing.T) {
	rb := newReceiveBuffer()
	rb.push(encodeFrame(BusAPP, BusDSP, typeSTATUS, []byte{0x01, 0x01}))
	rb.push(encodeFrame(BusAPP, BusAVR, typeCONFIG_QUERY, nil))

	avr := BusAVR
	fr, ok, err := rb.nextMatching(Filter{Src: &avr})
	if err != nil || !ok {
		t.Fatalf("nextMatching: ok=%v err=%v", ok, err)
	}
	if fr.Src != BusAVR {
		t.Fatalf("fr.Src = %v, want AVR", fr.Src)
	}

	overflowed, ok := rb.drainOverflow()
	if !ok {
		t.Fatal("expected the DSP frame to have been buffered into overflow")
	}
	if overflowed.Src != BusDSP {
		t.Fatalf("overflowed.Src = %v, want DSP", overflowed.Src)
	}
}
