package mevo

// StatusPoll is the APP-originated STATUS request (0xAA sent from BusAPP):
// `[01 01]` polls DSP, `[01 03]` polls PI, etc. Arg1/Arg2 are the two
// payload bytes verbatim.
type StatusPoll struct {
	Arg1, Arg2 uint8
}

func (StatusPoll) WireType() uint8 { return typeSTATUS }

func (s StatusPoll) Build() []byte { return []byte{s.Arg1, s.Arg2} }

// Status is the device-originated STATUS report (0xAA sent from DSP/AVR/
// PI). Its payload format is per-source and not broken out further by this
// codec; callers needing specific fields slice Raw themselves.
type Status struct {
	Bus Bus
	Raw []byte
}

func (Status) WireType() uint8 { return typeSTATUS }

// parseStatusLike distinguishes an outbound poll (src==APP) from an
// inbound device status report by source bus, since both share wire type
// 0xAA (spec §4.3, §4.5).
func parseStatusLike(fr Frame) (Message, error) {
	if fr.Src == BusAPP {
		if len(fr.Payload) != 2 {
			return nil, newDecodeError(KindDecodeInvalidPayload, "STATUS poll: payload length %d, want 2", len(fr.Payload))
		}
		return &StatusPoll{Arg1: fr.Payload[0], Arg2: fr.Payload[1]}, nil
	}
	return &Status{Bus: fr.Src, Raw: cloneBytes(fr.Payload)}, nil
}

// ConfigAck is CONFIG_ACK (0x95): `[0x02, bus_addr, acked_cmd & 0x7F]`.
type ConfigAck struct {
	Bus       Bus
	AckedCmd  uint8
}

func (ConfigAck) WireType() uint8 { return typeCONFIG_ACK }

func parseConfigAck(payload []byte) (*ConfigAck, error) {
	if len(payload) != 3 || payload[0] != 0x02 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "CONFIG_ACK: malformed payload % X", payload)
	}
	return &ConfigAck{Bus: Bus(payload[1]), AckedCmd: payload[2] & 0x7F}, nil
}

// Config is CONFIG (0xB0): two-byte directives such as `[01 00]` (apply
// pending config) or `[01 01]` (arm).
type Config struct {
	Sub, Value uint8
}

func (Config) WireType() uint8 { return typeCONFIG }

func (c Config) Build() []byte { return []byte{c.Sub, c.Value} }

func parseConfig(payload []byte) (*Config, error) {
	if len(payload) != 2 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "CONFIG: payload length %d, want 2", len(payload))
	}
	return &Config{Sub: payload[0], Value: payload[1]}, nil
}

// ModeSet is MODE_SET (0xA5): `[02 00 commsIndex]`.
type ModeSet struct {
	Mode Mode
}

func (ModeSet) WireType() uint8 { return typeMODE_SET }

func (m ModeSet) Build() []byte { return []byte{0x02, 0x00, byte(m.Mode)} }

func parseModeSet(payload []byte) (*ModeSet, error) {
	if len(payload) != 3 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "MODE_SET: payload length %d, want 3", len(payload))
	}
	return &ModeSet{Mode: Mode(payload[2])}, nil
}

// ModeAck is MODE_ACK (0xB1): the device's echo of a MODE_SET.
type ModeAck struct {
	Mode Mode
}

func (ModeAck) WireType() uint8 { return typeMODE_ACK }

func parseModeAck(payload []byte) (*ModeAck, error) {
	if len(payload) != 3 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "MODE_ACK: payload length %d, want 3", len(payload))
	}
	return &ModeAck{Mode: Mode(payload[2])}, nil
}

// ParamReadReq is PARAM_READ_REQ (0xBE): a single parameter ID byte. PI
// reads never include ID 0x02 (write-only on that bus); callers are
// responsible for respecting that, the codec does not enforce it.
type ParamReadReq struct {
	ParamID uint8
}

func (ParamReadReq) WireType() uint8 { return typePARAM_READ_REQ }

func (p ParamReadReq) Build() []byte { return []byte{p.ParamID} }

func parseParamReadReq(payload []byte) (*ParamReadReq, error) {
	if len(payload) != 1 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "PARAM_READ_REQ: payload length %d, want 1", len(payload))
	}
	return &ParamReadReq{ParamID: payload[0]}, nil
}

// ParamValue is PARAM_VALUE (0xBF): `[totalLen, paramID_hi, paramID_lo,
// value...]` where totalLen (== len(payload)) selects INT24 (0x06) or
// FLOAT40 (0x08) value encoding.
type ParamValue struct {
	ParamID uint16
	IsFloat bool
	Int24   int32
	Float40 float64
}

func (ParamValue) WireType() uint8 { return typePARAM_VALUE }

func (p ParamValue) Build() []byte {
	if p.IsFloat {
		f40, _ := float40Encode(p.Float40)
		out := make([]byte, 0, 8)
		out = append(out, 0x08)
		out = append(out, byte(p.ParamID>>8), byte(p.ParamID))
		out = append(out, f40[:]...)
		return out
	}
	out := make([]byte, 6)
	out[0] = 0x06
	putU16be(out[1:3], p.ParamID)
	putI24be(out[3:6], p.Int24)
	return out
}

func parseParamValue(payload []byte) (*ParamValue, error) {
	if len(payload) < 3 || int(payload[0]) != len(payload) {
		return nil, newDecodeError(KindDecodeInvalidPayload, "PARAM_VALUE: malformed length prefix")
	}
	paramID := u16be(payload[1:3])
	rest := payload[3:]
	switch payload[0] {
	case 0x06:
		if len(rest) != 3 {
			return nil, newDecodeError(KindDecodeInvalidPayload, "PARAM_VALUE: INT24 form has %d value bytes, want 3", len(rest))
		}
		return &ParamValue{ParamID: paramID, Int24: i24be(rest)}, nil
	case 0x08:
		if len(rest) != 5 {
			return nil, newDecodeError(KindDecodeInvalidPayload, "PARAM_VALUE: FLOAT40 form has %d value bytes, want 5", len(rest))
		}
		return &ParamValue{ParamID: paramID, IsFloat: true, Float40: float40Decode(rest)}, nil
	default:
		return nil, newDecodeError(KindDecodeInvalidPayload, "PARAM_VALUE: unknown length selector 0x%02X", payload[0])
	}
}

// RadarCal is RADAR_CAL (0xA4): `[06 RR RR 00 HH 00 00]`.
type RadarCal struct {
	SensorToTeeMM  uint16
	SurfaceHeight  uint8
}

func (RadarCal) WireType() uint8 { return typeRADAR_CAL }

func (r RadarCal) Build() []byte {
	out := make([]byte, 7)
	out[0] = 0x06
	putU16be(out[1:3], r.SensorToTeeMM)
	out[3] = 0x00
	out[4] = r.SurfaceHeight
	out[5] = 0x00
	out[6] = 0x00
	return out
}

func parseRadarCal(payload []byte) (*RadarCal, error) {
	if len(payload) != 7 || payload[0] != 0x06 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "RADAR_CAL: malformed payload % X", payload)
	}
	return &RadarCal{
		SensorToTeeMM: u16be(payload[1:3]),
		SurfaceHeight: payload[4],
	}, nil
}
