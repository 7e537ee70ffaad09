package mevo

import "time"

// handshakePhase enumerates the six phases of the connect sequence (spec
// §4.5). Phases run strictly in order; a phase only begins once the
// previous one's steps have all completed.
type handshakePhase int

const (
	phaseDSP handshakePhase = iota
	phaseAVR
	phasePI
	phasePostSyncConfig
	phasePiPostConfig
	phaseArming
	phaseHandshakeDone
)

func (p handshakePhase) String() string {
	switch p {
	case phaseDSP:
		return "dsp"
	case phaseAVR:
		return "avr"
	case phasePI:
		return "pi"
	case phasePostSyncConfig:
		return "post_sync_config"
	case phasePiPostConfig:
		return "pi_post_config"
	case phaseArming:
		return "arming"
	default:
		return "done"
	}
}

// handshakeDriver walks the six handshake phases to completion, one
// stepRunner per phase, advancing at most one unit of work per poll().
type handshakeDriver struct {
	phase      handshakePhase
	runner     *stepRunner
	phaseStart time.Time
}

func newHandshakeDriver(c *Client) *handshakeDriver {
	hd := &handshakeDriver{phase: phaseDSP}
	hd.runner = newStepRunner(dspPhaseSteps(c))
	hd.phaseStart = c.cfg.Clock.Now()
	return hd
}

// advance runs one unit of handshake work. done is true once the Arming
// phase's final wait succeeds, at which point the caller should switch the
// Client into the armed-session state machine.
func (hd *handshakeDriver) advance(c *Client) (events []Event, done bool, err error) {
	res, err := hd.runner.advance(c)
	if err != nil {
		return nil, false, err
	}
	if res != stepAdvanced || !hd.runner.done() {
		return nil, false, nil
	}

	if c.cfg.Metrics != nil {
		c.cfg.Metrics.ObserveHandshakePhase(hd.phase.String(), c.cfg.Clock.Now().Sub(hd.phaseStart))
	}
	hd.phase++
	hd.phaseStart = c.cfg.Clock.Now()

	switch hd.phase {
	case phaseAVR:
		hd.runner = newStepRunner(avrPhaseSteps(c))
	case phasePI:
		hd.runner = newStepRunner(piPhaseSteps(c))
	case phasePostSyncConfig:
		hd.runner = newStepRunner(postSyncConfigSteps(c))
	case phasePiPostConfig:
		hd.runner = newStepRunner(piPostConfigSteps(c))
	case phaseArming:
		hd.runner = newStepRunner(armingSteps(c))
	case phaseHandshakeDone:
		c.armed = true
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.SetArmed(true)
		}
		return []Event{{Kind: EventArmed}}, true, nil
	}
	return nil, false, nil
}

func textContains(sub string) func(Message) bool {
	return func(msg Message) bool {
		t, ok := msg.(Text)
		return ok && containsString(t.Value, sub)
	}
}

func containsString(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func busPtr(b Bus) *Bus { return &b }

// dspPhaseSteps: DSP status poll, DSP_QUERY (device kind), DEV_INFO,
// PROD_INFO x{0x00,0x08,0x09}, CONFIG_QUERY (spec §4.5 Phase 1).
func dspPhaseSteps(c *Client) []step {
	t := c.cfg.ExchangeTimeout
	return []step{
		{name: "dsp.status", dest: BusDSP, send: StatusPoll{Arg1: 0x01, Arg2: 0x01}, wantTypes: []uint8{typeSTATUS}, timeout: t,
			onMsg: func(c *Client, m Message) {
				if s, ok := m.(*Status); ok {
					c.recordStatus(s)
				}
			}},
		{name: "dsp.query", dest: BusDSP, send: DspQuery{}, wantTypes: []uint8{typeDSP_QUERY_RESP}, timeout: t,
			onMsg: func(c *Client, m Message) {
				if r, ok := m.(*DspQueryResp); ok {
					c.deviceKind = r.DeviceKind()
				}
			}},
		{name: "dsp.devinfo", dest: BusDSP, send: DevInfoReq{}, wantTypes: []uint8{typeDEV_INFO}, timeout: t},
		{name: "dsp.prodinfo.0", dest: BusDSP, send: ProdInfoReq{Selector: 0x00}, wantTypes: []uint8{typePROD_INFO}, timeout: t},
		{name: "dsp.prodinfo.8", dest: BusDSP, send: ProdInfoReq{Selector: 0x08}, wantTypes: []uint8{typePROD_INFO}, timeout: t},
		{name: "dsp.prodinfo.9", dest: BusDSP, send: ProdInfoReq{Selector: 0x09}, wantTypes: []uint8{typePROD_INFO}, timeout: t},
		{name: "dsp.configquery", dest: BusDSP, send: ConfigQuery{}, wantTypes: []uint8{typeCONFIG_RESP}, timeout: t},
	}
}

// avrPhaseSteps: two status polls, two DEV_INFO reads, two PARAM_READs
// (0x0C, 0x0D), CONFIG_QUERY, CAL_DATA sub-command 0x03, CAL_PARAM,
// AVR_CONFIG_QUERY, PARAM_READ 0x64, TIME_SYNC (spec §4.5 Phase 2).
func avrPhaseSteps(c *Client) []step {
	t := c.cfg.ExchangeTimeout
	return []step{
		{name: "avr.status.1", dest: BusAVR, send: StatusPoll{Arg1: 0x01, Arg2: 0x02}, wantTypes: []uint8{typeSTATUS}, timeout: t,
			onMsg: statusRecorder},
		{name: "avr.status.2", dest: BusAVR, send: StatusPoll{Arg1: 0x01, Arg2: 0x02}, wantTypes: []uint8{typeSTATUS}, timeout: t,
			onMsg: statusRecorder},
		{name: "avr.devinfo.1", dest: BusAVR, send: DevInfoReq{}, wantTypes: []uint8{typeDEV_INFO}, timeout: t},
		{name: "avr.devinfo.2", dest: BusAVR, send: DevInfoReq{}, wantTypes: []uint8{typeDEV_INFO}, timeout: t},
		{name: "avr.param.0x0c", dest: BusAVR, send: ParamReadReq{ParamID: 0x0C}, wantTypes: []uint8{typePARAM_VALUE}, timeout: t},
		{name: "avr.param.0x0d", dest: BusAVR, send: ParamReadReq{ParamID: 0x0D}, wantTypes: []uint8{typePARAM_VALUE}, timeout: t},
		{name: "avr.configquery", dest: BusAVR, send: ConfigQuery{}, wantTypes: []uint8{typeCONFIG_RESP}, timeout: t},
		{name: "avr.caldata.0x03", dest: BusAVR, send: CalDataReq{SubCmd: 0x03}, wantTypes: []uint8{typeCAL_DATA_RESP}, timeout: t},
		{name: "avr.calparam", dest: BusAVR, send: CalParamReq{ParamID: 0x00}, wantTypes: []uint8{typeCAL_PARAM_RESP}, timeout: t},
		{name: "avr.avrconfigquery", dest: BusAVR, send: AvrConfigQuery{}, wantTypes: []uint8{typeAVR_CONFIG_RESP}, timeout: t},
		{name: "avr.param.0x64", dest: BusAVR, send: ParamReadReq{ParamID: 0x64}, wantTypes: []uint8{typePARAM_VALUE}, timeout: t},
		{name: "avr.timesync", dest: BusAVR, send: TimeSync{EpochSeconds: c.cfg.Clock.UnixSeconds()}, timeout: t},
	}
}

func statusRecorder(c *Client, m Message) {
	if s, ok := m.(*Status); ok {
		c.recordStatus(s)
	}
}

// piPhaseSteps: status poll (the first PI response can legitimately take
// ~120ms, well within the exchange timeout), DEV_INFO, PARAM_READ 0x0A, two CAM_CONFIG_REQ,
// NET_CONFIG SSID/password, optional licensing and wifi-scan exchanges, and
// the closing PARAM_READs (spec §4.5 Phase 3).
func piPhaseSteps(c *Client) []step {
	t := c.cfg.ExchangeTimeout
	steps := []step{
		{name: "pi.status", dest: BusPI, send: StatusPoll{Arg1: 0x01, Arg2: 0x03}, wantTypes: []uint8{typeSTATUS}, timeout: t,
			onMsg: statusRecorder},
		{name: "pi.devinfo", dest: BusPI, send: DevInfoReq{}, wantTypes: []uint8{typeDEV_INFO}, timeout: t},
		{name: "pi.param.0x0a", dest: BusPI, send: ParamReadReq{ParamID: 0x0A}, wantTypes: []uint8{typePARAM_VALUE}, timeout: t},
		{name: "pi.camconfigreq.1", dest: BusPI, send: CamConfigReq{}, wantTypes: []uint8{typeCAM_CONFIG}, timeout: t},
		{name: "pi.camconfigreq.2", dest: BusPI, send: CamConfigReq{}, wantTypes: []uint8{typeCAM_CONFIG}, timeout: t},
		{name: "pi.netconfig.ssid", dest: BusPI, send: NetConfigReq{Field: NetConfigSSID}, wantTypes: []uint8{typeNET_CONFIG}, timeout: t},
		{name: "pi.netconfig.password", dest: BusPI, send: NetConfigReq{Field: NetConfigPassword}, wantTypes: []uint8{typeNET_CONFIG}, timeout: t},
	}

	if !c.cfg.SkipSensorActivation {
		for i := uint8(0); i < 12; i++ {
			steps = append(steps, step{
				name: "pi.sensoract", dest: BusPI,
				send:      SensorAct{ChunkIndex: i, Data: make([]byte, 16)},
				wantTypes: []uint8{typeSENSOR_ACT_RESP}, timeout: t,
			})
		}
	}
	if !c.cfg.SkipWifiScan {
		for page := uint8(0); page < 3; page++ {
			steps = append(steps, step{
				name: "pi.wifiscan", dest: BusPI,
				send:      WifiScanReq{Page: page},
				wantTypes: []uint8{typeWIFI_SCAN}, timeout: t,
			})
		}
	}

	steps = append(steps,
		step{name: "pi.param.0x0b", dest: BusPI, send: ParamReadReq{ParamID: 0x0B}, wantTypes: []uint8{typePARAM_VALUE}, timeout: t},
		step{name: "pi.param.0x03", dest: BusPI, send: ParamReadReq{ParamID: 0x03}, wantTypes: []uint8{typePARAM_VALUE}, timeout: t},
		step{name: "pi.param.0x04", dest: BusPI, send: ParamReadReq{ParamID: 0x04}, wantTypes: []uint8{typePARAM_VALUE}, timeout: t},
		step{name: "pi.param.0x05", dest: BusPI, send: ParamReadReq{ParamID: 0x05}, wantTypes: []uint8{typePARAM_VALUE}, timeout: t},
	)
	return steps
}

// postSyncConfigSteps pushes the caller's Config as PARAM_VALUE writes,
// each requiring its matching CONFIG_ACK (spec §4.5 Phase 4); a CONFIG_ACK
// may arrive late, so each write is resent up to three times (one per entry
// of its 200/300/600ms backoff list) before being treated as a protocol
// failure. Every resend waits the full exchange timeout; the backoff
// durations themselves are not applied.
func postSyncConfigSteps(c *Client) []step {
	backoff := []time.Duration{200 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond}
	t := c.cfg.ExchangeTimeout

	paramWrite := func(name string, paramID uint16, isFloat bool, i24 int32, f40 float64) step {
		return step{
			name: name, dest: BusPI,
			send:      ParamValue{ParamID: paramID, IsFloat: isFloat, Int24: i24, Float40: f40},
			wantTypes: []uint8{typeCONFIG_ACK},
			timeout:   t,
			backoffs:  backoff,
		}
	}

	surfaceByte, _ := c.cfg.surfaceHeightByte()

	steps := []step{
		paramWrite("postsync.ball_type", 0x0001, false, int32(c.cfg.BallType), 0),
		paramWrite("postsync.tee_height", 0x0003, true, 0, c.cfg.TeeHeightM),
		paramWrite("postsync.min_track_pct", 0x0004, true, 0, c.cfg.MinTrackPercent),
		paramWrite("postsync.sensor_to_tee_mm", 0x0005, false, int32(c.cfg.SensorToTeeMM), 0),
		paramWrite("postsync.surface_height", 0x0006, false, int32(surfaceByte), 0),
		{name: "postsync.modeset", dest: BusPI, send: ModeSet{Mode: c.cfg.Mode}, wantTypes: []uint8{typeMODE_ACK}, timeout: t, backoffs: backoff},
	}

	radarCal := RadarCal{SensorToTeeMM: c.cfg.SensorToTeeMM, SurfaceHeight: surfaceByte}
	steps = append(steps, step{name: "postsync.radarcal", dest: BusAVR, send: radarCal, wantTypes: []uint8{typeCONFIG_ACK}, timeout: t, backoffs: backoff})
	return steps
}

// piPostConfigSteps pushes the camera-subsystem config twice (CAM_CONFIG
// followed by its CAM_CONFIG_REQ/CAM_STATE confirmation pair) and the
// final PI mode parameter (spec §4.5 Phase 5).
func piPostConfigSteps(c *Client) []step {
	t := c.cfg.ExchangeTimeout
	camPush := func(name string) []step {
		return []step{
			{name: name + ".camconfig", dest: BusPI, send: CamConfig{Raw: []byte{0x01}}, timeout: t},
			{name: name + ".camconfigreq", dest: BusPI, send: CamConfigReq{}, wantTypes: []uint8{typeCAM_CONFIG}, timeout: t},
			{name: name + ".camstate", dest: BusPI, send: CamState{Arg1: 0x01, Arg2: 0x01}, wantTypes: []uint8{typeCAM_STATE}, timeout: t},
		}
	}
	steps := append(camPush("pipostcfg.1"), camPush("pipostcfg.2")...)
	steps = append(steps, step{
		name: "pipostcfg.param", dest: BusPI,
		send:      ParamValue{ParamID: 0x0002, Int24: 10},
		wantTypes: []uint8{typeCONFIG_ACK},
		timeout:   t,
		backoffs:  []time.Duration{200 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond},
	})
	return steps
}

// armingSteps sends the final STATUS/CONFIG sequence and waits for the
// device's "ARMED DetectionMode" TEXT banner that marks the handshake as
// complete (spec §4.5 Phase 6). That banner is emitted by AVR, not PI.
func armingSteps(c *Client) []step {
	t := c.cfg.ExchangeTimeout
	return []step{
		{name: "arming.dsp.status", dest: BusDSP, send: StatusPoll{Arg1: 0x01, Arg2: 0x01}, wantTypes: []uint8{typeSTATUS}, timeout: t, onMsg: statusRecorder},
		{name: "arming.config", dest: BusPI, send: Config{Sub: 0x01, Value: 0x01}, wantTypes: []uint8{typeCONFIG_ACK}, timeout: t},
		{name: "arming.pi.status", dest: BusPI, send: StatusPoll{Arg1: 0x01, Arg2: 0x03}, wantTypes: []uint8{typeSTATUS}, timeout: t, onMsg: statusRecorder},
		{
			name: "arming.wait_armed_text", dest: BusAVR, filterSrc: busPtr(BusAVR),
			wantTypes: []uint8{typeTEXT},
			accept:    textContains("ARMED DetectionMode"),
			timeout:   5 * time.Second,
		},
	}
}
