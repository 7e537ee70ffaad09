package mevo

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// BallType selects the ball construction the device should expect.
type BallType uint8

const (
	BallRCT      BallType = 0
	BallStandard BallType = 1
)

// Config configures a Client (spec §6.5). Zero value is not ready to use;
// call DefaultConfig and override individual fields.
type Config struct {
	Mode                 Mode
	BallType             BallType
	TeeHeightM           float64
	MinTrackPercent      float64
	SensorToTeeMM        uint16
	SurfaceHeightInches  float64
	SkipSensorActivation bool
	SkipWifiScan         bool
	KeepaliveInterval    time.Duration
	ExchangeTimeout      time.Duration

	// Ambient collaborators; all optional.
	Clock        Clock
	Logger       *logrus.Logger
	Metrics      MetricsRecorder
	PacketLogger PacketLogger
}

// DefaultConfig returns the library defaults named in spec §6.5.
func DefaultConfig() Config {
	return Config{
		Mode:                  ModeOutdoor,
		BallType:              BallStandard,
		TeeHeightM:            0,
		MinTrackPercent:       0.6,
		SensorToTeeMM:         0,
		SurfaceHeightInches:   0,
		SkipSensorActivation:  true,
		SkipWifiScan:          true,
		KeepaliveInterval:     1000 * time.Millisecond,
		ExchangeTimeout:       1000 * time.Millisecond,
		Clock:                 SystemClock{},
		Logger:                logrus.StandardLogger(),
	}
}

// Validate checks the caller-supplied fields that can fail to encode onto
// the wire (spec §7 Config.InvalidFloat / Config.OutOfRange).
func (c Config) Validate() error {
	if math.IsNaN(c.TeeHeightM) || math.IsInf(c.TeeHeightM, 0) {
		return newConfigError(KindConfigInvalidFloat, "tee_height_m is not finite")
	}
	if math.IsNaN(c.MinTrackPercent) || math.IsInf(c.MinTrackPercent, 0) {
		return newConfigError(KindConfigInvalidFloat, "min_track_percent is not finite")
	}
	if c.MinTrackPercent < 0.6 || c.MinTrackPercent > 1.0 {
		return newConfigError(KindConfigOutOfRange, "min_track_percent %v out of [0.6, 1.0]", c.MinTrackPercent)
	}
	if c.SurfaceHeightInches < 0 {
		return newConfigError(KindConfigOutOfRange, "surface_height_inches %v is negative", c.SurfaceHeightInches)
	}
	return nil
}

// surfaceHeightByte computes the wire byte for surface_height_inches:
// floor(value * 25.4) as a UINT8 (spec §6.5).
func (c Config) surfaceHeightByte() (uint8, error) {
	v := math.Floor(c.SurfaceHeightInches * 25.4)
	if v < 0 || v > 255 {
		return 0, newConfigError(KindConfigOutOfRange, "surface_height_inches %v out of UINT8 range after scaling", c.SurfaceHeightInches)
	}
	return uint8(v), nil
}
