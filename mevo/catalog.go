package mevo

// Message is implemented by every typed variant in the catalog. Types that
// the client only ever receives need not implement Builder; types the
// client sends implement it alongside Message.
type Message interface {
	WireType() uint8
}

// Builder is implemented by message variants the client constructs and
// sends; Build returns the wire payload (not including dest/src/type/cs).
type Builder interface {
	Message
	Build() []byte
}

// Unknown retains the raw payload of any recognised-but-unhandled or
// wholly unrecognised TYPE octet, per spec §3.5 / §9 ("retain raw bytes
// rather than drop").
type Unknown struct {
	Type    uint8
	Payload []byte
}

func (u Unknown) WireType() uint8 { return u.Type }

// ParseMessage dispatches a decoded Frame to its typed variant. An
// unrecognised type is not an error: it comes back as Unknown.
func ParseMessage(fr Frame) (Message, error) {
	switch fr.Type {
	case typeFLIGHT_RESULT:
		return parseFlightResult(fr.Payload)
	case typeFLIGHT_RESULT_V1:
		return parseFlightResultV1(fr.Payload)
	case typeCLUB_RESULT:
		return parseClubResult(fr.Payload)
	case typeSPIN_RESULT:
		return parseSpinResult(fr.Payload)
	case typeSPEED_PROFILE:
		return parseSpeedProfile(fr.Payload)
	case typeTRACKING_STATUS:
		return parseTrackingStatus(fr.Payload)
	case typePRC_DATA:
		return parsePrcData(fr.Payload)
	case typeCLUB_PRC:
		return parseClubPrc(fr.Payload)
	case typeSHOT_TEXT:
		return parseShotText(fr.Payload)

	case typeSTATUS:
		return parseStatusLike(fr)
	case typeCONFIG_ACK:
		return parseConfigAck(fr.Payload)
	case typeCONFIG:
		return parseConfig(fr.Payload)
	case typeMODE_SET:
		return parseModeSet(fr.Payload)
	case typeMODE_ACK:
		return parseModeAck(fr.Payload)
	case typePARAM_READ_REQ:
		return parseParamReadReq(fr.Payload)
	case typePARAM_VALUE:
		return parseParamValue(fr.Payload)
	case typeRADAR_CAL:
		return parseRadarCal(fr.Payload)

	case typeDSP_QUERY:
		return DspQuery{}, nil
	case typeDSP_QUERY_RESP:
		return parseDspQueryResp(fr.Payload)
	case typeDEV_INFO_REQ:
		return DevInfoReq{}, nil
	case typeDEV_INFO:
		return DevInfo{Raw: cloneBytes(fr.Payload)}, nil
	case typePROD_INFO:
		return parseProdInfoLike(fr)
	case typeNET_CONFIG:
		return parseNetConfigLike(fr)
	case typeCONFIG_QUERY:
		return ConfigQuery{}, nil
	case typeCONFIG_RESP:
		return ConfigResp{Raw: cloneBytes(fr.Payload)}, nil
	case typeAVR_CONFIG_REQ:
		return AvrConfigQuery{}, nil
	case typeAVR_CONFIG_RESP:
		return AvrConfigResp{Raw: cloneBytes(fr.Payload)}, nil
	case typeCAL_PARAM_REQ:
		return parseCalParamReq(fr.Payload)
	case typeCAL_PARAM_RESP:
		return CalParamResp{Raw: cloneBytes(fr.Payload)}, nil
	case typeCAL_DATA_REQ:
		return parseCalDataReq(fr.Payload)
	case typeCAL_DATA_RESP:
		return parseCalDataResp(fr.Payload)
	case typeTIME_SYNC:
		return parseTimeSync(fr.Payload)

	case typeCAM_STATE:
		return parseCamState(fr.Payload)
	case typeCAM_CONFIG:
		return CamConfig{Raw: cloneBytes(fr.Payload)}, nil
	case typeCAM_CONFIG_REQ:
		return CamConfigReq{}, nil
	case typeCAM_IMAGE_AVAIL:
		return &CamImageAvail{Raw: cloneBytes(fr.Payload)}, nil

	case typeSENSOR_ACT:
		return parseSensorAct(fr.Payload)
	case typeSENSOR_ACT_RESP:
		return SensorActResp{Raw: cloneBytes(fr.Payload)}, nil
	case typeWIFI_SCAN:
		return parseWifiScanLike(fr)

	case typeSHOT_DATA_ACK:
		return ShotDataAck{}, nil
	case typeSHOT_RESULT_REQ:
		return ShotResultReq{}, nil

	case typeTEXT:
		return Text{Value: string(fr.Payload)}, nil

	default:
		return Unknown{Type: fr.Type, Payload: cloneBytes(fr.Payload)}, nil
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
