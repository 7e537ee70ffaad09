package mevo

// CamState is CAM_STATE (0x81), e.g. `[01 01]` to arm the camera pipeline.
type CamState struct {
	Arg1, Arg2 uint8
}

func (CamState) WireType() uint8 { return typeCAM_STATE }
func (c CamState) Build() []byte { return []byte{c.Arg1, c.Arg2} }

func parseCamState(payload []byte) (*CamState, error) {
	if len(payload) != 2 {
		return nil, newDecodeError(KindDecodeInvalidPayload, "CAM_STATE: payload length %d, want 2", len(payload))
	}
	return &CamState{Arg1: payload[0], Arg2: payload[1]}, nil
}

// CamConfig is CAM_CONFIG (0x82): an opaque camera configuration blob,
// pushed by the client during Phase 5.
type CamConfig struct {
	Raw []byte
}

func (CamConfig) WireType() uint8 { return typeCAM_CONFIG }
func (c CamConfig) Build() []byte { return cloneBytes(c.Raw) }

// CamConfigReq is the empty-payload CAM_CONFIG_REQ request (0x83).
type CamConfigReq struct{}

func (CamConfigReq) WireType() uint8 { return typeCAM_CONFIG_REQ }
func (CamConfigReq) Build() []byte   { return nil }

// CamImageAvail is CAM_IMAGE_AVAIL (0x84): notifies that a captured frame
// image is ready, collected once per shot by the assembler.
type CamImageAvail struct {
	Raw []byte
}

func (CamImageAvail) WireType() uint8 { return typeCAM_IMAGE_AVAIL }
