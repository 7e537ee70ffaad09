package mevo

// Wire type octets for every message the catalog knows about (spec §3.5).
const (
	typeFLIGHT_RESULT    uint8 = 0xD4
	typeFLIGHT_RESULT_V1 uint8 = 0xE8
	typeCLUB_RESULT      uint8 = 0xED
	typeSPIN_RESULT      uint8 = 0xEF
	typeSPEED_PROFILE    uint8 = 0xD9
	typeTRACKING_STATUS  uint8 = 0xE9
	typePRC_DATA         uint8 = 0xEC
	typeCLUB_PRC         uint8 = 0xEE
	typeSHOT_TEXT        uint8 = 0xE5

	typeSTATUS         uint8 = 0xAA
	typeCONFIG_ACK     uint8 = 0x95
	typeCONFIG         uint8 = 0xB0
	typeMODE_SET       uint8 = 0xA5
	typeMODE_ACK       uint8 = 0xB1
	typePARAM_READ_REQ uint8 = 0xBE
	typePARAM_VALUE    uint8 = 0xBF
	typeRADAR_CAL      uint8 = 0xA4

	typeDSP_QUERY      uint8 = 0x48
	typeDSP_QUERY_RESP uint8 = 0xC8
	typeDEV_INFO_REQ   uint8 = 0x67
	typeDEV_INFO       uint8 = 0xE7
	typePROD_INFO      uint8 = 0xFD
	typeNET_CONFIG     uint8 = 0xDE
	typeCONFIG_QUERY   uint8 = 0x21
	typeCONFIG_RESP    uint8 = 0xA0
	typeAVR_CONFIG_REQ uint8 = 0x23
	typeAVR_CONFIG_RESP uint8 = 0xA2
	typeCAL_PARAM_REQ  uint8 = 0xD0
	typeCAL_PARAM_RESP uint8 = 0xD1
	typeCAL_DATA_REQ   uint8 = 0xD2
	typeCAL_DATA_RESP  uint8 = 0xD3
	typeTIME_SYNC      uint8 = 0x9B

	typeCAM_STATE      uint8 = 0x81
	typeCAM_CONFIG     uint8 = 0x82
	typeCAM_CONFIG_REQ uint8 = 0x83
	typeCAM_IMAGE_AVAIL uint8 = 0x84

	typeSENSOR_ACT      uint8 = 0x90
	typeSENSOR_ACT_RESP uint8 = 0x89
	typeWIFI_SCAN       uint8 = 0x87

	typeSHOT_DATA_ACK  uint8 = 0x69
	typeSHOT_RESULT_REQ uint8 = 0x6D

	typeTEXT uint8 = 0xE3
)

// PRC sub-record stride widths. Only these two are currently understood;
// older strides (26, 23) are rejected as UnsupportedPrcVersion.
const (
	prcStrideV4   = 60
	clubPrcStride = 76
)

// responsePair maps a request type to the response type the session/
// handshake drivers should wait for. Both derivation shapes observed on the
// wire (T|0x80, and (T&^0x01)|0x80) are captured explicitly here rather than
// computed, per spec §4.3.
var responsePair = map[uint8]uint8{
	typeDSP_QUERY:      typeDSP_QUERY_RESP,
	typeDEV_INFO_REQ:   typeDEV_INFO,
	typeCONFIG_QUERY:   typeCONFIG_RESP,
	typeAVR_CONFIG_REQ: typeAVR_CONFIG_RESP,
	typeCAL_PARAM_REQ:  typeCAL_PARAM_RESP,
	typeCAL_DATA_REQ:   typeCAL_DATA_RESP,
}
