package mevo

// DspQuery is the empty-payload DSP_QUERY (0x48) request.
type DspQuery struct{}

func (DspQuery) WireType() uint8 { return typeDSP_QUERY }
func (DspQuery) Build() []byte   { return nil }

// DspQueryResp is DSP_QUERY_RESP (0xC8). DspType derives DeviceKind: 0x80
// is Mevo+, 0xC0 is Gen2.
type DspQueryResp struct {
	DspType uint8
	Raw     []byte
}

func (DspQueryResp) WireType() uint8 { return typeDSP_QUERY_RESP }

// DeviceKind derives the device family from DspType (spec §3.6).
func (d *DspQueryResp) DeviceKind() DeviceKind { return deviceKindFromDSPType(d.DspType) }

func parseDspQueryResp(payload []byte) (*DspQueryResp, error) {
	if len(payload) < 1 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "DSP_QUERY_RESP: empty payload")
	}
	return &DspQueryResp{DspType: payload[0], Raw: cloneBytes(payload)}, nil
}

// DevInfoReq is the empty-payload DEV_INFO request (0x67).
type DevInfoReq struct{}

func (DevInfoReq) WireType() uint8 { return typeDEV_INFO_REQ }
func (DevInfoReq) Build() []byte   { return nil }

// DevInfo is DEV_INFO (0xE7): an opaque device-info/version blob.
type DevInfo struct {
	Raw []byte
}

func (DevInfo) WireType() uint8 { return typeDEV_INFO }

// ProdInfoReq is the APP-originated PROD_INFO request (0xFD), sent with
// selector bytes 0x00, 0x08, and 0x09 during Phase 1.
type ProdInfoReq struct {
	Selector uint8
}

func (ProdInfoReq) WireType() uint8 { return typePROD_INFO }
func (p ProdInfoReq) Build() []byte { return []byte{p.Selector} }

// ProdInfoResp is the device's PROD_INFO reply, sharing wire type 0xFD
// with the request (distinguished by source bus, as with STATUS).
type ProdInfoResp struct {
	Raw []byte
}

func (ProdInfoResp) WireType() uint8 { return typePROD_INFO }

func parseProdInfoLike(fr Frame) (Message, error) {
	if fr.Src == BusAPP {
		if len(fr.Payload) != 1 {
			return nil, newDecodeError(KindDecodeInvalidPayload, "PROD_INFO request: payload length %d, want 1", len(fr.Payload))
		}
		return &ProdInfoReq{Selector: fr.Payload[0]}, nil
	}
	return &ProdInfoResp{Raw: cloneBytes(fr.Payload)}, nil
}

// NetConfigField selects which network setting a NET_CONFIG exchange
// addresses.
type NetConfigField uint8

const (
	NetConfigSSID     NetConfigField = 0
	NetConfigPassword NetConfigField = 1
)

// NetConfigReq is the APP-originated NET_CONFIG request (0xDE).
type NetConfigReq struct {
	Field NetConfigField
}

func (NetConfigReq) WireType() uint8 { return typeNET_CONFIG }
func (n NetConfigReq) Build() []byte { return []byte{byte(n.Field)} }

// NetConfigResp is the device's NET_CONFIG reply.
type NetConfigResp struct {
	Field NetConfigField
	Value string
}

func (NetConfigResp) WireType() uint8 { return typeNET_CONFIG }

func parseNetConfigLike(fr Frame) (Message, error) {
	if fr.Src == BusAPP {
		if len(fr.Payload) != 1 {
			return nil, newDecodeError(KindDecodeInvalidPayload, "NET_CONFIG request: payload length %d, want 1", len(fr.Payload))
		}
		return &NetConfigReq{Field: NetConfigField(fr.Payload[0])}, nil
	}
	if len(fr.Payload) < 1 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "NET_CONFIG response: empty payload")
	}
	return &NetConfigResp{Field: NetConfigField(fr.Payload[0]), Value: string(fr.Payload[1:])}, nil
}

// ConfigQuery is the empty-payload CONFIG_QUERY request (0x21).
type ConfigQuery struct{}

func (ConfigQuery) WireType() uint8 { return typeCONFIG_QUERY }
func (ConfigQuery) Build() []byte   { return nil }

// ConfigResp is CONFIG_RESP (0xA0): an opaque configuration blob.
type ConfigResp struct {
	Raw []byte
}

func (ConfigResp) WireType() uint8 { return typeCONFIG_RESP }

// AvrConfigQuery is the empty-payload AVR_CONFIG_QUERY request (0x23).
type AvrConfigQuery struct{}

func (AvrConfigQuery) WireType() uint8 { return typeAVR_CONFIG_REQ }
func (AvrConfigQuery) Build() []byte   { return nil }

// AvrConfigResp is AVR_CONFIG_RESP (0xA2): an opaque AVR configuration blob.
type AvrConfigResp struct {
	Raw []byte
}

func (AvrConfigResp) WireType() uint8 { return typeAVR_CONFIG_RESP }

// CalParamReq is CAL_PARAM request (0xD0).
type CalParamReq struct {
	ParamID uint8
}

func (CalParamReq) WireType() uint8 { return typeCAL_PARAM_REQ }
func (c CalParamReq) Build() []byte { return []byte{c.ParamID} }

func parseCalParamReq(payload []byte) (*CalParamReq, error) {
	if len(payload) != 1 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "CAL_PARAM request: payload length %d, want 1", len(payload))
	}
	return &CalParamReq{ParamID: payload[0]}, nil
}

// CalParamResp is CAL_PARAM_RESP (0xD1): an opaque calibration parameter
// blob.
type CalParamResp struct {
	Raw []byte
}

func (CalParamResp) WireType() uint8 { return typeCAL_PARAM_RESP }

// CalDataReq is CAL_DATA request (0xD2), e.g. sub-command 0x03 during
// Phase 2.
type CalDataReq struct {
	SubCmd uint8
}

func (CalDataReq) WireType() uint8 { return typeCAL_DATA_REQ }
func (c CalDataReq) Build() []byte { return []byte{c.SubCmd} }

func parseCalDataReq(payload []byte) (*CalDataReq, error) {
	if len(payload) != 1 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "CAL_DATA request: payload length %d, want 1", len(payload))
	}
	return &CalDataReq{SubCmd: payload[0]}, nil
}

// CalDataResp is CAL_DATA_RESP (0xD3): the sub-command echoed back plus an
// opaque calibration-data blob.
type CalDataResp struct {
	SubCmd uint8
	Raw    []byte
}

func (CalDataResp) WireType() uint8 { return typeCAL_DATA_RESP }

func parseCalDataResp(payload []byte) (*CalDataResp, error) {
	if len(payload) < 1 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "CAL_DATA response: empty payload")
	}
	return &CalDataResp{SubCmd: payload[0], Raw: cloneBytes(payload)}, nil
}

// TimeSync is TIME_SYNC (0x9B): the current Unix epoch seconds, pushed by
// the client during Phase 2.
type TimeSync struct {
	EpochSeconds uint32
}

func (TimeSync) WireType() uint8 { return typeTIME_SYNC }

func (t TimeSync) Build() []byte {
	out := make([]byte, 4)
	out[0] = byte(t.EpochSeconds >> 24)
	out[1] = byte(t.EpochSeconds >> 16)
	out[2] = byte(t.EpochSeconds >> 8)
	out[3] = byte(t.EpochSeconds)
	return out
}

func parseTimeSync(payload []byte) (*TimeSync, error) {
	if len(payload) != 4 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "TIME_SYNC: payload length %d, want 4", len(payload))
	}
	return &TimeSync{EpochSeconds: uint32(payload[0])<<24 | uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])}, nil
}
