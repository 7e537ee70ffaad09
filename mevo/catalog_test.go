package mevo

import "testing"

func TestParseConfigAck(t *testing.T) {
	ack, err := parseConfigAck([]byte{0x02, byte(BusPI), 0x30 & 0x7F})
	if err != nil {
		t.Fatalf("parseConfigAck: %v", err)
	}
	if ack.Bus != BusPI || ack.AckedCmd != 0x30 {
		t.Fatalf("ack = %+v, want Bus=PI AckedCmd=0x30", ack)
	}
}

func TestParseConfigAckRejectsMalformed(t *testing.T) {
	if _, err := parseConfigAck([]byte{0x01, 0x12}); err == nil {
		t.Fatal("want error for wrong length/marker")
	}
}

func TestParamValueRoundTripInt24(t *testing.T) {
	pv := ParamValue{ParamID: 0x0001, Int24: -42}
	payload := pv.Build()

	got, err := parseParamValue(payload)
	if err != nil {
		t.Fatalf("parseParamValue: %v", err)
	}
	if got.ParamID != 0x0001 || got.IsFloat || got.Int24 != -42 {
		t.Fatalf("got = %+v", got)
	}
}

func TestParamValueRoundTripFloat40(t *testing.T) {
	pv := ParamValue{ParamID: 0x0003, IsFloat: true, Float40: 12.5}
	payload := pv.Build()

	got, err := parseParamValue(payload)
	if err != nil {
		t.Fatalf("parseParamValue: %v", err)
	}
	if got.ParamID != 0x0003 || !got.IsFloat || got.Float40 != 12.5 {
		t.Fatalf("got = %+v", got)
	}
}

func TestParamValueRejectsBadLengthPrefix(t *testing.T) {
	if _, err := parseParamValue([]byte{0x09, 0x00, 0x01, 0x02}); err == nil {
		t.Fatal("want error when length prefix does not match payload length")
	}
}

func TestPrcDataStride(t *testing.T) {
	const n = 3
	body := make([]byte, n*prcStrideV4)
	payload := append([]byte{byte(3 + n*prcStrideV4)}, body...)

	got, err := parsePrcData(payload)
	if err != nil {
		t.Fatalf("parsePrcData: %v", err)
	}
	if got.SubRecordCount != n || len(got.SubRecords) != n {
		t.Fatalf("got = %+v", got)
	}
}

func TestPrcDataRejectsLegacyStride(t *testing.T) {
	const legacyStride = 26
	const n = 2
	body := make([]byte, n*legacyStride)
	payload := append([]byte{byte(3 + n*legacyStride)}, body...)

	if _, err := parsePrcData(payload); err == nil {
		t.Fatal("want error for legacy-stride PRC payload")
	}
}

func TestParseStatusLikeDisambiguatesBySource(t *testing.T) {
	pollFrame := Frame{Dest: BusDSP, Src: BusAPP, Type: typeSTATUS, Payload: []byte{0x01, 0x01}}
	msg, err := ParseMessage(pollFrame)
	if err != nil {
		t.Fatalf("ParseMessage poll: %v", err)
	}
	if _, ok := msg.(*StatusPoll); !ok {
		t.Fatalf("msg = %T, want *StatusPoll", msg)
	}

	reportFrame := Frame{Dest: BusAPP, Src: BusDSP, Type: typeSTATUS, Payload: []byte{0x00, 0x01, 0x02}}
	msg, err = ParseMessage(reportFrame)
	if err != nil {
		t.Fatalf("ParseMessage status: %v", err)
	}
	status, ok := msg.(*Status)
	if !ok || status.Bus != BusDSP {
		t.Fatalf("msg = %+v, want *Status{Bus: DSP}", msg)
	}
}

func TestParseMessageUnknownTypeRetainsRawBytes(t *testing.T) {
	fr := Frame{Dest: BusAPP, Src: BusDSP, Type: 0xF5, Payload: []byte{1, 2, 3}}
	msg, err := ParseMessage(fr)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	u, ok := msg.(Unknown)
	if !ok {
		t.Fatalf("msg = %T, want Unknown", msg)
	}
	if !bytesEqual(u.Payload, fr.Payload) {
		t.Fatalf("u.Payload = % X, want % X", u.Payload, fr.Payload)
	}
}
