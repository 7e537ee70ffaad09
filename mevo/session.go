package mevo

import "time"

// sessionState enumerates the armed-session state machine (spec §4.6).
type sessionState int

const (
	sessionArmed sessionState = iota
	sessionShotInFlight
	sessionPostShot
	sessionModeChange
	sessionDisarmed
	sessionFaulted
)

// settingsChange carries a caller-requested RequestSettingsChange, applied
// as a small PARAM_VALUE write sequence the next time the session is Armed
// and idle.
type settingsChange struct {
	BallType        BallType
	TeeHeightM      float64
	MinTrackPercent float64
}

// sessionDriver runs the armed loop once the handshake has completed:
// keepalive polling while Armed, shot-message collection while a shot is
// in flight, and the fixed post-shot sequence that ends either back at
// Armed or at Disarmed/Faulted.
type sessionDriver struct {
	state sessionState

	lastKeepalive map[Bus]time.Time
	keepaliveWait *stepRunner // outstanding single-shot poll, nil when idle
	keepaliveBus  Bus
	keepaliveSent time.Time

	assembler *shotAssembler
	postShot  *stepRunner

	pendingModeChange *Mode
	pendingSettings   *settingsChange
	modeChange        *stepRunner

	reArmFailures int
}

func newSessionDriver(c *Client) *sessionDriver {
	now := c.cfg.Clock.Now()
	return &sessionDriver{
		state: sessionArmed,
		lastKeepalive: map[Bus]time.Time{
			BusDSP: now, BusAVR: now, BusPI: now,
		},
	}
}

// advance runs one unit of armed-session work, returning any events
// produced (at most one Shot event per call, per spec §4.8).
func (sd *sessionDriver) advance(c *Client) ([]Event, error) {
	switch sd.state {
	case sessionArmed:
		return sd.advanceArmed(c)
	case sessionShotInFlight:
		return sd.advanceShotInFlight(c)
	case sessionPostShot:
		return sd.advancePostShot(c)
	case sessionModeChange:
		return sd.advanceModeChange(c)
	case sessionDisarmed, sessionFaulted:
		return nil, nil
	}
	return nil, nil
}

// advanceArmed drains any buffered frame; a "BALL TRIGGER" TEXT starts shot
// collection, any other frame is inspected for keepalive bookkeeping, and
// otherwise keepalive polls are issued on their own cadence (spec §4.6).
func (sd *sessionDriver) advanceArmed(c *Client) ([]Event, error) {
	if sd.keepaliveWait == nil && (sd.pendingModeChange != nil || sd.pendingSettings != nil) {
		sd.state = sessionModeChange
		sd.modeChange = newStepRunner(pendingChangeSteps(c, sd))
		return nil, nil
	}

	if sd.keepaliveWait != nil {
		res, err := sd.keepaliveWait.advance(c)
		if err != nil {
			return nil, err
		}
		if res == stepAdvanced && sd.keepaliveWait.done() && c.cfg.Metrics != nil {
			c.cfg.Metrics.ObserveKeepaliveLatency(sd.keepaliveBus.String(), c.cfg.Clock.Now().Sub(sd.keepaliveSent))
		}
		if res != stepWaiting {
			sd.keepaliveWait = nil
			return nil, nil
		}
	}

	filter := Filter{SkipText: false}
	fr, ok, err := c.rb.nextMatching(filter)
	if err != nil {
		if fe, ok := err.(*Error); ok {
			c.emitProtocolErrorEvent(fe)
			return nil, nil
		}
		return nil, err
	}
	if ok {
		msg, perr := ParseMessage(fr)
		if perr != nil {
			return nil, perr
		}
		if t, isText := msg.(Text); isText && containsString(t.Value, "BALL TRIGGER") {
			sd.state = sessionShotInFlight
			sd.assembler = newShotAssembler(c.cfg.Logger)
			return nil, nil
		}
		if s, isStatus := msg.(*Status); isStatus {
			c.recordStatus(s)
			sd.lastKeepalive[fr.Src] = c.cfg.Clock.Now()
		}
		return nil, nil
	}

	if sd.keepaliveWait == nil {
		if bus, due := sd.dueKeepalive(c); due {
			sd.lastKeepalive[bus] = c.cfg.Clock.Now()
			sd.keepaliveBus = bus
			sd.keepaliveSent = c.cfg.Clock.Now()
			sd.keepaliveWait = newStepRunner([]step{{
				name: "keepalive", dest: bus,
				send:      StatusPoll{Arg1: 0x01, Arg2: keepaliveArg2(bus)},
				wantTypes: []uint8{typeSTATUS},
				timeout:   c.cfg.ExchangeTimeout,
				onMsg: func(c *Client, m Message) {
					if s, ok := m.(*Status); ok {
						c.recordStatus(s)
					}
				},
			}})
			if _, err := sd.keepaliveWait.advance(c); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

func keepaliveArg2(bus Bus) uint8 {
	switch bus {
	case BusDSP:
		return 0x01
	case BusAVR:
		return 0x02
	case BusPI:
		return 0x03
	default:
		return 0x01
	}
}

func (sd *sessionDriver) dueKeepalive(c *Client) (Bus, bool) {
	now := c.cfg.Clock.Now()
	for _, bus := range [...]Bus{BusDSP, BusAVR, BusPI} {
		if now.Sub(sd.lastKeepalive[bus]) >= c.cfg.KeepaliveInterval {
			return bus, true
		}
	}
	return 0, false
}

// advanceShotInFlight collects every per-shot message as it arrives;
// keepalive polling is suspended for the duration (spec §4.6, §4.7). Message
// ordering is not guaranteed, so collection ends only on the explicit
// "PROCESSED" TEXT marker rather than on any particular data message's
// contents.
func (sd *sessionDriver) advanceShotInFlight(c *Client) ([]Event, error) {
	filter := Filter{SkipText: false}
	fr, ok, err := c.rb.nextMatching(filter)
	if err != nil {
		if fe, ok := err.(*Error); ok {
			c.emitProtocolErrorEvent(fe)
			return nil, nil
		}
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	msg, perr := ParseMessage(fr)
	if perr != nil {
		return nil, perr
	}
	sd.assembler.handle(msg)

	if t, isText := msg.(Text); isText && containsString(t.Value, "PROCESSED") {
		sd.state = sessionPostShot
		sd.postShot = newStepRunner(postShotSteps(c, sd))
	}
	return nil, nil
}

// advancePostShot runs the fixed post-shot sequence (spec §4.6 step 4):
// double SHOT_DATA_ACK, drain-until-IDLE, CONFIG_QUERY waiting for both
// MODE_ACK and CONFIG_RESP, SHOT_RESULT_REQ (its CLUB_RESULT reply
// discarded, a timeout is not fatal), then re-arm. The ShotEvent is only
// emitted once re-arm succeeds, so a duplicate result from SHOT_RESULT_REQ
// can never surface as a second shot.
func (sd *sessionDriver) advancePostShot(c *Client) ([]Event, error) {
	stepName := sd.postShot.currentStepName()
	res, err := sd.postShot.advance(c)
	if err != nil {
		if fe, ok := err.(*Error); ok && fe.Kind == KindProtocolTimeout {
			// A timeout on either re-arm step means the device never
			// re-confirmed Armed; treat that as dormant rather than a bare
			// fault, since keepalive polling alone cannot bring a device
			// back from a failed re-arm (spec §4.6).
			if stepName == "postshot.rearm.config" || stepName == "postshot.rearm.wait_armed" {
				sd.reArmFailures++
				dormantErr := newProtocolError(KindProtocolDeviceDormant, "re-arm did not complete: %s", fe.Error())
				sd.state = sessionFaulted
				return nil, dormantErr
			}
			// optional steps already absorb their own timeouts; any other
			// timeout reaching here is from a required step and is not
			// recoverable within this shot cycle.
			sd.reArmFailures++
			sd.state = sessionFaulted
			return []Event{{Kind: EventProtocolError, Err: fe}}, nil
		}
		return nil, err
	}
	if res != stepFinished {
		return nil, nil
	}

	shot := sd.assembler.toEvent()
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.IncShots()
	}

	sd.state = sessionArmed
	sd.assembler = nil
	sd.postShot = nil
	now := c.cfg.Clock.Now()
	sd.lastKeepalive = map[Bus]time.Time{BusDSP: now, BusAVR: now, BusPI: now}

	return []Event{{Kind: EventShot, Shot: shot}}, nil
}

// advanceModeChange drives a caller-requested mode or settings change
// (RequestModeChange / RequestSettingsChange) back to completion, then
// returns to Armed. A failure before the cancel/re-arm sequence is reported
// but does not fault the session, since the device stays armed under its
// previous settings; a failure within the re-arm steps themselves means the
// device never re-confirmed Armed, the same dormant condition advancePostShot
// detects.
func (sd *sessionDriver) advanceModeChange(c *Client) ([]Event, error) {
	stepName := sd.modeChange.currentStepName()
	res, err := sd.modeChange.advance(c)
	if err != nil {
		sd.modeChange = nil
		if fe, ok := err.(*Error); ok && fe.Kind == KindProtocolTimeout &&
			(stepName == "modechange.rearm.config" || stepName == "modechange.rearm.wait_armed") {
			sd.reArmFailures++
			sd.state = sessionFaulted
			return nil, newProtocolError(KindProtocolDeviceDormant, "re-arm did not complete after mode/settings change: %s", fe.Error())
		}
		sd.state = sessionArmed
		if fe, ok := err.(*Error); ok {
			return []Event{{Kind: EventProtocolError, Err: fe}}, nil
		}
		return nil, err
	}
	if res != stepFinished {
		return nil, nil
	}
	sd.modeChange = nil
	sd.state = sessionArmed
	return []Event{{Kind: EventStatusUpdated}}, nil
}

// pendingChangeSteps builds the PARAM_VALUE write sequence for whichever of
// RequestModeChange / RequestSettingsChange is pending, followed by a
// cancel/re-arm sequence: wait for the "ARMED CANCELLED" banner the change
// itself provokes, push RadarCal, then the same two re-arm steps that end
// postShotSteps (re-send Config[0x01,0x01], wait for "ARMED DetectionMode")
// before the session is considered Armed again (spec §4.6).
func pendingChangeSteps(c *Client, sd *sessionDriver) []step {
	t := c.cfg.ExchangeTimeout
	backoff := []time.Duration{200 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond}
	var steps []step

	if sd.pendingModeChange != nil {
		mode := *sd.pendingModeChange
		sd.pendingModeChange = nil
		steps = append(steps, step{name: "modechange.modeset", dest: BusPI, send: ModeSet{Mode: mode}, wantTypes: []uint8{typeMODE_ACK}, timeout: t, backoffs: backoff})
	}
	if sd.pendingSettings != nil {
		s := *sd.pendingSettings
		sd.pendingSettings = nil
		steps = append(steps,
			step{name: "settingschange.ball_type", dest: BusPI, send: ParamValue{ParamID: 0x0001, Int24: int32(s.BallType)}, wantTypes: []uint8{typeCONFIG_ACK}, timeout: t, backoffs: backoff},
			step{name: "settingschange.tee_height", dest: BusPI, send: ParamValue{ParamID: 0x0003, IsFloat: true, Float40: s.TeeHeightM}, wantTypes: []uint8{typeCONFIG_ACK}, timeout: t, backoffs: backoff},
			step{name: "settingschange.min_track_pct", dest: BusPI, send: ParamValue{ParamID: 0x0004, IsFloat: true, Float40: s.MinTrackPercent}, wantTypes: []uint8{typeCONFIG_ACK}, timeout: t, backoffs: backoff},
		)
	}

	surfaceByte, _ := c.cfg.surfaceHeightByte()
	steps = append(steps,
		step{
			name: "modechange.wait_cancelled", dest: BusPI, filterSrc: busPtr(BusPI),
			wantTypes: []uint8{typeTEXT},
			accept:    textContains("ARMED CANCELLED"),
			timeout:   t,
		},
		step{
			name: "modechange.radarcal", dest: BusAVR,
			send:      RadarCal{SensorToTeeMM: c.cfg.SensorToTeeMM, SurfaceHeight: surfaceByte},
			wantTypes: []uint8{typeCONFIG_ACK},
			timeout:   t,
			backoffs:  backoff,
		},
		step{
			name: "modechange.rearm.config", dest: BusPI,
			send:      Config{Sub: 0x01, Value: 0x01},
			wantTypes: []uint8{typeCONFIG_ACK},
			timeout:   t,
			backoffs:  backoff,
		},
		step{
			name: "modechange.rearm.wait_armed", dest: BusAVR, filterSrc: busPtr(BusAVR),
			wantTypes: []uint8{typeTEXT},
			accept:    textContains("ARMED DetectionMode"),
			timeout:   5 * time.Second,
		},
	)
	return steps
}

// postShotSteps builds the fixed post-shot step sequence described above.
func postShotSteps(c *Client, sd *sessionDriver) []step {
	t := c.cfg.ExchangeTimeout
	return []step{
		{name: "postshot.ack1", dest: BusPI, send: ShotDataAck{}, timeout: t},
		{name: "postshot.ack2", dest: BusPI, send: ShotDataAck{}, timeout: t},
		{
			name: "postshot.wait_idle", dest: BusPI, filterSrc: busPtr(BusPI),
			wantTypes: []uint8{typeTEXT},
			accept:    textContains("IDLE"),
			timeout:   1 * time.Second,
			optional:  true, // a missing IDLE banner is not fatal; proceed on timeout
		},
		{
			name: "postshot.configquery", dest: BusPI,
			send:      ConfigQuery{},
			wantTypes: []uint8{typeMODE_ACK, typeCONFIG_RESP},
			timeout:   t,
		},
		{
			name: "postshot.shotresultreq", dest: BusPI,
			send:      ShotResultReq{},
			wantTypes: []uint8{typeCLUB_RESULT},
			timeout:   t,
			optional:  true, // device may not resend; proceeding is correct either way
			onMsg: func(c *Client, m Message) {
				if cr, ok := m.(*ClubResult); ok {
					sd.assembler.discardDuplicateClubResult(cr)
				}
			},
		},
		{name: "postshot.rearm.config", dest: BusPI, send: Config{Sub: 0x01, Value: 0x01}, wantTypes: []uint8{typeCONFIG_ACK}, timeout: t,
			backoffs: []time.Duration{200 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond}},
		{
			// the "ARMED DetectionMode" banner is emitted by AVR, not PI.
			name: "postshot.rearm.wait_armed", dest: BusAVR, filterSrc: busPtr(BusAVR),
			wantTypes: []uint8{typeTEXT},
			accept:    textContains("ARMED DetectionMode"),
			timeout:   5 * time.Second,
		},
	}
}
