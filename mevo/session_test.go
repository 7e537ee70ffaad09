package mevo

import (
	"testing"
	"time"
)

func feedFrame(c *Client, stream *fakeStream, frame []byte) {
	stream.push(frame)
	buf := make([]byte, len(frame)+16)
	rn, _ := stream.ReadSome(buf)
	c.rb.push(buf[:rn])
}

// TestSessionDriverFullShotCollectionFlow drives the recorded scenario from
// spec §8.3.5: BALL TRIGGER -> shot messages (in non-wire order, with a
// byte-identical duplicate CLUB_RESULT) -> PROCESSED -> the fixed post-shot
// sequence -> re-arm via the AVR "ARMED DetectionMode" banner. It must
// produce exactly one Shot event carrying the collected fields, with the
// duplicate CLUB_RESULT discarded rather than surfaced.
func TestSessionDriverFullShotCollectionFlow(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	stream := &fakeStream{}
	c := newTestClient(stream, clock)
	c.cfg.ExchangeTimeout = 20 * time.Millisecond
	c.phase = clientSessionRunning

	sd := newSessionDriver(c)
	c.sess = sd

	feedFrame(c, stream, encodeFrame(BusAPP, BusPI, typeTEXT, []byte("BALL TRIGGER")))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (trigger): %v", err)
	}
	if sd.state != sessionShotInFlight {
		t.Fatalf("state = %v, want ShotInFlight", sd.state)
	}

	frPayload := make([]byte, 1+flightResultDataLen)
	frPayload[0] = 0x9C
	feedFrame(c, stream, encodeFrame(BusAPP, BusDSP, typeFLIGHT_RESULT, frPayload))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (flight result): %v", err)
	}

	crPayload := make([]byte, 167)
	crPayload[0] = 0x01
	feedFrame(c, stream, encodeFrame(BusAPP, BusDSP, typeCLUB_RESULT, crPayload))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (club result): %v", err)
	}
	// byte-identical retransmission, expected per spec §4.7; must not replace
	// the first and must not surface as a second shot field.
	feedFrame(c, stream, encodeFrame(BusAPP, BusDSP, typeCLUB_RESULT, crPayload))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (duplicate club result): %v", err)
	}

	spPayload := make([]byte, spinResultLen)
	spPayload[0] = 0x89
	feedFrame(c, stream, encodeFrame(BusAPP, BusDSP, typeSPIN_RESULT, spPayload))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (spin result): %v", err)
	}

	feedFrame(c, stream, encodeFrame(BusAPP, BusPI, typeTEXT, []byte("PROCESSED")))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (processed): %v", err)
	}
	if sd.state != sessionPostShot {
		t.Fatalf("state = %v, want PostShot", sd.state)
	}

	// two SHOT_DATA_ACKs: pure sends, one step advances per call.
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (ack1): %v", err)
	}
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (ack2): %v", err)
	}

	feedFrame(c, stream, encodeFrame(BusAPP, BusPI, typeTEXT, []byte("IDLE")))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (idle): %v", err)
	}

	feedFrame(c, stream, encodeFrame(BusAPP, BusPI, typeMODE_ACK, []byte{0x02, 0x00, 0x01}))
	feedFrame(c, stream, encodeFrame(BusAPP, BusPI, typeCONFIG_RESP, []byte{0x00}))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (config query): %v", err)
	}

	// SHOT_RESULT_REQ is optional; send it, then let it time out with no
	// retransmission rather than wait for a reply.
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (shot result send): %v", err)
	}
	clock.advance(25 * time.Millisecond)
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (shot result timeout): %v", err)
	}

	feedFrame(c, stream, encodeFrame(BusAPP, BusPI, typeCONFIG_ACK, []byte{0x02, byte(BusPI), 0x01}))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (rearm config): %v", err)
	}

	// the "ARMED DetectionMode" banner comes from AVR, not PI.
	feedFrame(c, stream, encodeFrame(BusAPP, BusAVR, typeTEXT, []byte("device ARMED DetectionMode")))
	events, err := sd.advance(c)
	if err != nil {
		t.Fatalf("advance (rearm wait armed): %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %v, want none yet", events)
	}
	if sd.state != sessionPostShot {
		t.Fatalf("state = %v, want still PostShot (stepFinished detected on next call)", sd.state)
	}

	events, err = sd.advance(c)
	if err != nil {
		t.Fatalf("advance (shot emit): %v", err)
	}
	if sd.state != sessionArmed {
		t.Fatalf("state = %v, want Armed after re-arm", sd.state)
	}
	if len(events) != 1 || events[0].Kind != EventShot {
		t.Fatalf("events = %+v, want exactly one Shot event", events)
	}

	shot := events[0].Shot
	if shot.FlightResult == nil {
		t.Fatal("shot.FlightResult is nil")
	}
	if shot.ClubResult == nil {
		t.Fatal("shot.ClubResult is nil")
	}
	if shot.SpinResult == nil {
		t.Fatal("shot.SpinResult is nil")
	}
}

// TestSessionDriverKeepaliveDueSendsPollAndRecordsLatency exercises the
// ordinary Armed-state keepalive path and checks that a resolved keepalive
// is observed as a latency metric (SPEC_FULL.md §4.10).
func TestSessionDriverKeepaliveDueSendsPollAndRecordsLatency(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	stream := &fakeStream{}
	c := newTestClient(stream, clock)
	c.cfg.KeepaliveInterval = 10 * time.Millisecond
	rec := &recordingMetrics{}
	c.cfg.Metrics = rec
	c.phase = clientSessionRunning

	sd := newSessionDriver(c)
	c.sess = sd

	clock.advance(15 * time.Millisecond)
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (issue keepalive): %v", err)
	}
	if sd.keepaliveWait == nil {
		t.Fatal("expected an outstanding keepalive poll")
	}
	if len(stream.written) != 1 {
		t.Fatalf("expected 1 keepalive write, got %d", len(stream.written))
	}

	feedFrame(c, stream, encodeFrame(BusAPP, BusDSP, typeSTATUS, []byte{0x00, 0x01, 0x02}))
	if _, err := sd.advance(c); err != nil {
		t.Fatalf("advance (keepalive response): %v", err)
	}
	if sd.keepaliveWait != nil {
		t.Fatal("keepalive should have resolved")
	}
	if len(rec.keepaliveLatencies) != 1 {
		t.Fatalf("expected 1 recorded keepalive latency, got %d", len(rec.keepaliveLatencies))
	}
}

type recordingMetrics struct {
	keepaliveLatencies []time.Duration
}

func (r *recordingMetrics) ObserveHandshakePhase(phase string, d time.Duration) {}
func (r *recordingMetrics) ObserveKeepaliveLatency(bus string, d time.Duration) {
	r.keepaliveLatencies = append(r.keepaliveLatencies, d)
}
func (r *recordingMetrics) IncShots()                  {}
func (r *recordingMetrics) IncFramingError(kind string) {}
func (r *recordingMetrics) SetArmed(armed bool)         {}
