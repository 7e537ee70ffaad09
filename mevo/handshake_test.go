package mevo

import (
	"testing"
	"time"
)

// TestArmingStepsWaitsOnAvrNotPi is a regression test for the final Arming
// step: spec §4.5 Phase 6 requires the "ARMED DetectionMode" banner to come
// from AVR. A TEXT banner from PI must not satisfy the wait; the same
// banner from AVR must.
func TestArmingStepsWaitsOnAvrNotPi(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	stream := &fakeStream{}
	c := newTestClient(stream, clock)

	steps := []step{armingSteps(c)[3]}
	if steps[0].name != "arming.wait_armed_text" {
		t.Fatalf("armingSteps()[3] = %q, want arming.wait_armed_text", steps[0].name)
	}
	r := newStepRunner(steps)

	feedFrame(c, stream, encodeFrame(BusAPP, BusPI, typeTEXT, []byte("PI ARMED DetectionMode")))
	res, err := r.advance(c)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res != stepWaiting {
		t.Fatalf("res = %v, want stepWaiting (banner from PI must not satisfy the wait)", res)
	}

	feedFrame(c, stream, encodeFrame(BusAPP, BusAVR, typeTEXT, []byte("AVR ARMED DetectionMode")))
	res, err = r.advance(c)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res != stepAdvanced || !r.done() {
		t.Fatalf("res = %v, done = %v, want advanced+done on the AVR banner", res, r.done())
	}
}

// TestAvrPhaseConfigAckWaitIgnoresUnsolicitedDspStatus is the scenario from
// spec §8.3.6: an unsolicited DSP STATUS arriving while the driver is
// waiting on an AVR CONFIG_ACK must not consume the exchange's timeout, and
// the AVR response 30ms later must still complete the exchange.
func TestAvrPhaseConfigAckWaitIgnoresUnsolicitedDspStatus(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	stream := &fakeStream{}
	c := newTestClient(stream, clock)
	c.cfg.ExchangeTimeout = 1000 * time.Millisecond

	avr := BusAVR
	steps := []step{{
		name:      "avr.radarcal",
		dest:      BusAVR,
		filterSrc: &avr,
		send:      RadarCal{SensorToTeeMM: 200, SurfaceHeight: 10},
		wantTypes: []uint8{typeCONFIG_ACK},
		timeout:   c.cfg.ExchangeTimeout,
	}}
	r := newStepRunner(steps)

	if _, err := r.advance(c); err != nil {
		t.Fatalf("advance (send): %v", err)
	}

	// an unsolicited, oversized DSP STATUS arrives mid-wait; it must be
	// buffered rather than treated as the response or as a framing error.
	feedFrame(c, stream, encodeFrame(BusAPP, BusDSP, typeSTATUS, make([]byte, 129)))
	res, err := r.advance(c)
	if err != nil {
		t.Fatalf("advance (after unsolicited DSP status): %v", err)
	}
	if res != stepWaiting {
		t.Fatalf("res = %v, want stepWaiting (unsolicited DSP STATUS must not complete the step)", res)
	}

	clock.advance(30 * time.Millisecond)
	feedFrame(c, stream, encodeFrame(BusAPP, BusAVR, typeCONFIG_ACK, []byte{0x02, byte(BusAVR), 0x24}))
	res, err = r.advance(c)
	if err != nil {
		t.Fatalf("advance (after AVR response): %v", err)
	}
	if res != stepAdvanced || !r.done() {
		t.Fatalf("res = %v, done = %v, want advanced+done once the AVR CONFIG_ACK arrives", res, r.done())
	}

	overflowed, ok := c.rb.drainOverflow()
	if !ok {
		t.Fatal("expected the unsolicited DSP STATUS to have been buffered into overflow")
	}
	if overflowed.Src != BusDSP {
		t.Fatalf("overflowed.Src = %v, want DSP", overflowed.Src)
	}
}

// TestHandshakeDriverAdvancesPhaseOnCompletion exercises the phase-transition
// bookkeeping in handshakeDriver.advance: once a phase's runner finishes,
// the driver moves to the next phase's steps rather than re-running the
// same ones.
func TestHandshakeDriverAdvancesPhaseOnCompletion(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	stream := &fakeStream{}
	c := newTestClient(stream, clock)
	c.cfg.ExchangeTimeout = 1000 * time.Millisecond

	hd := newHandshakeDriver(c)
	if hd.phase != phaseDSP {
		t.Fatalf("phase = %v, want dsp", hd.phase)
	}

	// drain the DSP phase's 7 steps by feeding a matching response after
	// each send.
	dspResponses := []struct {
		typ     uint8
		payload []byte
	}{
		{typeSTATUS, []byte{0x00, 0x01, 0x02}},
		{typeDSP_QUERY_RESP, []byte{0x80}},
		{typeDEV_INFO, []byte{0x01}},
		{typePROD_INFO, []byte{}},
		{typePROD_INFO, []byte{}},
		{typePROD_INFO, []byte{}},
		{typeCONFIG_RESP, []byte{0x00}},
	}
	for _, want := range dspResponses {
		feedFrame(c, stream, encodeFrame(BusAPP, BusDSP, want.typ, want.payload))
		if _, _, err := hd.advance(c); err != nil {
			t.Fatalf("advance (dsp step %02X): %v", want.typ, err)
		}
	}

	if hd.phase != phaseAVR {
		t.Fatalf("phase = %v, want avr after the DSP phase completes", hd.phase)
	}
}
