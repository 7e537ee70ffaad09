package mevo

// FlightResult is FLIGHT_RESULT (0xD4): 52 INT24 fields behind a one-byte
// length prefix. Fields 37-51 are polynomial coefficients, scaled by the
// INT24 at field 36 (PolyScaleFactor). Fields 23-27 (wire offsets 70-84)
// are documented as not populated by the DSP; they are surfaced as-is,
// undivided and uninterpreted (spec §9 Open Question).
type FlightResult struct {
	Fields           [52]int32
	PolyScaleFactor  int32
	PolyCoefficients [15]float64
	Unreliable       [5]int32
}

func (FlightResult) WireType() uint8 { return typeFLIGHT_RESULT }

const flightResultFieldCount = 52
const flightResultDataLen = flightResultFieldCount * 3 // 156

func parseFlightResult(payload []byte) (*FlightResult, error) {
	if len(payload) != 1+flightResultDataLen {
		return nil, newDecodeError(KindDecodeInvalidPayload, "FLIGHT_RESULT: payload length %d, want %d", len(payload), 1+flightResultDataLen)
	}
	if payload[0] != 0x9C {
		return nil, newDecodeError(KindDecodeInvalidPayload, "FLIGHT_RESULT: length prefix 0x%02X, want 0x9C", payload[0])
	}

	var fr FlightResult
	for k := 0; k < flightResultFieldCount; k++ {
		off := 1 + 3*k
		fr.Fields[k] = i24be(payload[off : off+3])
	}
	fr.PolyScaleFactor = fr.Fields[36]
	for i := 0; i < 15; i++ {
		if fr.PolyScaleFactor != 0 {
			fr.PolyCoefficients[i] = float64(fr.Fields[37+i]) / float64(fr.PolyScaleFactor)
		}
	}
	copy(fr.Unreliable[:], fr.Fields[23:28])
	return &fr, nil
}

// FlightResultV1 is the legacy FLIGHT_RESULT_V1 (0xE8, 94 bytes). Its field
// layout was never recovered from captures beyond the fixed length; the raw
// payload is retained verbatim for callers who know how to interpret it.
type FlightResultV1 struct {
	Raw []byte
}

func (FlightResultV1) WireType() uint8 { return typeFLIGHT_RESULT_V1 }

const flightResultV1Len = 94

func parseFlightResultV1(payload []byte) (*FlightResultV1, error) {
	if len(payload) != flightResultV1Len {
		return nil, newDecodeError(KindDecodeInvalidPayload, "FLIGHT_RESULT_V1: payload length %d, want %d", len(payload), flightResultV1Len)
	}
	return &FlightResultV1{Raw: cloneBytes(payload)}, nil
}

// ClubResult is CLUB_RESULT (0xED, 167-172 bytes). Its internal layout is
// opaque to the codec; the shot assembler compares raw bytes to detect the
// expected duplicate delivery (spec §4.7).
type ClubResult struct {
	Raw []byte
}

func (ClubResult) WireType() uint8 { return typeCLUB_RESULT }

func parseClubResult(payload []byte) (*ClubResult, error) {
	if len(payload) < 167 || len(payload) > 172 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "CLUB_RESULT: payload length %d, want 167-172", len(payload))
	}
	return &ClubResult{Raw: cloneBytes(payload)}, nil
}

// SpinResult is SPIN_RESULT (0xEF, 138 bytes, version 0x89 only).
// PMSpinFinal is the authoritative total spin; SpinAxis is in tenths of a
// degree. Per spec §9, SpinAxisRaw is stored as the raw wire value: the
// documented display-sign convention is a consumer concern, not decoded
// here.
type SpinResult struct {
	Version      uint8
	PMSpinFinal  int16
	SpinAxisRaw  int16
	Raw          []byte
}

func (SpinResult) WireType() uint8 { return typeSPIN_RESULT }

const spinResultLen = 138

func parseSpinResult(payload []byte) (*SpinResult, error) {
	if len(payload) != spinResultLen {
		return nil, newDecodeError(KindDecodeInvalidPayload, "SPIN_RESULT: payload length %d, want %d", len(payload), spinResultLen)
	}
	if payload[0] != 0x89 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "SPIN_RESULT: version 0x%02X, want 0x89", payload[0])
	}
	return &SpinResult{
		Version:     payload[0],
		PMSpinFinal: i16be(payload[108:110]),
		SpinAxisRaw: i16be(payload[132:134]),
		Raw:         cloneBytes(payload),
	}, nil
}

// SpeedProfile is SPEED_PROFILE (0xD9). It arrives either as a 172-byte
// full form or a 2-byte stub carrying only the length byte, which parses
// to an empty sample set (spec §4.3).
type SpeedProfile struct {
	Full    bool
	Samples []byte // opaque sample bytes, present only when Full
}

func (SpeedProfile) WireType() uint8 { return typeSPEED_PROFILE }

const speedProfileStubLen = 2
const speedProfileFullLen = 172

func parseSpeedProfile(payload []byte) (*SpeedProfile, error) {
	switch len(payload) {
	case speedProfileStubLen:
		return &SpeedProfile{Full: false}, nil
	case speedProfileFullLen:
		return &SpeedProfile{Full: true, Samples: cloneBytes(payload[1:])}, nil
	default:
		return nil, newDecodeError(KindDecodeInvalidPayload, "SPEED_PROFILE: payload length %d, want %d or %d", len(payload), speedProfileStubLen, speedProfileFullLen)
	}
}

// TrackingStatus is TRACKING_STATUS (0xE9, 82 bytes), delivered multiple
// times per shot as tracking progresses through phases. ProcessingIteration
// is the byte at offset 47; fields at offsets 47-48, 54, 70-81 are only
// meaningful once ProcessingIteration == 2 ("processed").
type TrackingStatus struct {
	ProcessingIteration uint8
	Raw                 []byte
}

func (TrackingStatus) WireType() uint8 { return typeTRACKING_STATUS }

const trackingStatusLen = 82

func parseTrackingStatus(payload []byte) (*TrackingStatus, error) {
	if len(payload) != trackingStatusLen {
		return nil, newDecodeError(KindDecodeInvalidPayload, "TRACKING_STATUS: payload length %d, want %d", len(payload), trackingStatusLen)
	}
	return &TrackingStatus{
		ProcessingIteration: payload[47],
		Raw:                 cloneBytes(payload),
	}, nil
}

// IsProcessed reports whether this TrackingStatus carries the fields that
// are only meaningful in the "processed" phase.
func (t *TrackingStatus) IsProcessed() bool { return t.ProcessingIteration == 2 }

// PrcData is PRC_DATA (0xEC): ball-tracking cursor sub-records, stride 60
// (PRC v4). HeaderByte doubles as the retransmission page identifier used
// for dedup alongside SubRecordCount (spec §4.7).
type PrcData struct {
	HeaderByte     uint8
	SubRecordCount int
	SubRecords     [][]byte
}

func (PrcData) WireType() uint8 { return typePRC_DATA }

func parsePrcData(payload []byte) (*PrcData, error) {
	hb, subs, err := parsePrcSubRecords(payload, prcStrideV4, []int{26, 23})
	if err != nil {
		return nil, err
	}
	return &PrcData{HeaderByte: hb, SubRecordCount: len(subs), SubRecords: subs}, nil
}

// ClubPrc is CLUB_PRC (0xEE): club-tracking cursor sub-records, stride 76.
type ClubPrc struct {
	HeaderByte     uint8
	SubRecordCount int
	SubRecords     [][]byte
}

func (ClubPrc) WireType() uint8 { return typeCLUB_PRC }

func parseClubPrc(payload []byte) (*ClubPrc, error) {
	hb, subs, err := parsePrcSubRecords(payload, clubPrcStride, []int{26, 23})
	if err != nil {
		return nil, err
	}
	return &ClubPrc{HeaderByte: hb, SubRecordCount: len(subs), SubRecords: subs}, nil
}

// parsePrcSubRecords implements the shared PRC_DATA/CLUB_PRC stride-based
// decode: N = (header_byte-3)/stride, rejecting any remainder. A header
// byte that instead fits one of the legacy strides gets its own error
// message naming the legacy stride (UnsupportedPrcVersion); the error kind
// is still KindDecodeInvalidPayload (spec §4.3).
func parsePrcSubRecords(payload []byte, stride int, legacyStrides []int) (uint8, [][]byte, error) {
	if len(payload) < 1 {
		return 0, nil, newDecodeError(KindDecodeInvalidPayload, "PRC: empty payload")
	}
	hb := payload[0]
	if int(hb) < 3 {
		return 0, nil, newDecodeError(KindDecodeInvalidPayload, "PRC: header byte %d < 3", hb)
	}
	rem := int(hb) - 3
	if rem%stride == 0 {
		n := rem / stride
		body := payload[1:]
		if len(body) != n*stride {
			return 0, nil, newDecodeError(KindDecodeInvalidPayload, "PRC: body length %d does not match %d sub-records of stride %d", len(body), n, stride)
		}
		subs := make([][]byte, n)
		for i := 0; i < n; i++ {
			subs[i] = cloneBytes(body[i*stride : (i+1)*stride])
		}
		return hb, subs, nil
	}
	for _, legacy := range legacyStrides {
		if rem%legacy == 0 {
			return 0, nil, newDecodeError(KindDecodeInvalidPayload, "PRC: unsupported legacy stride %d (UnsupportedPrcVersion)", legacy)
		}
	}
	return 0, nil, newDecodeError(KindDecodeInvalidPayload, "PRC: header byte %d not aligned to stride %d", hb, stride)
}

// ShotText is SHOT_TEXT (0xE5): shot-scoped debug/status text, distinct
// from the general TEXT (0xE3) channel.
type ShotText struct {
	Value string
}

func (ShotText) WireType() uint8 { return typeSHOT_TEXT }

func parseShotText(payload []byte) (*ShotText, error) {
	return &ShotText{Value: string(payload)}, nil
}
