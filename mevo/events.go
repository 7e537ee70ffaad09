package mevo

import "github.com/rs/xid"

// EventKind enumerates the outbound event surface returned by poll() (spec
// §4.8).
type EventKind int

const (
	EventStatusUpdated EventKind = iota
	EventArmed
	EventDisarmed
	EventShot
	EventProtocolError
	EventText
	EventDormant
)

func (k EventKind) String() string {
	switch k {
	case EventStatusUpdated:
		return "StatusUpdated"
	case EventArmed:
		return "Armed"
	case EventDisarmed:
		return "Disarmed"
	case EventShot:
		return "Shot"
	case EventProtocolError:
		return "ProtocolError"
	case EventText:
		return "Text"
	case EventDormant:
		return "Dormant"
	default:
		return "Unknown"
	}
}

// Event is one unit of output from poll(). Only the fields relevant to Kind
// are populated.
type Event struct {
	Kind   EventKind
	Bus    Bus
	Status *Status
	Shot   *ShotEvent
	Err    *Error
	Text   string
}

// ShotEvent carries whichever fields were actually received for one shot;
// missing ones are nil rather than synthesized (spec §4.6).
type ShotEvent struct {
	ID xid.ID

	FlightResult     *FlightResult
	FlightResultV1   *FlightResultV1
	ClubResult       *ClubResult
	SpinResult       *SpinResult
	SpeedProfile     *SpeedProfile
	CamImageAvail    *CamImageAvail
	TrackingStatuses []*TrackingStatus
	PrcData          []*PrcData
	ClubPrc          []*ClubPrc
	Texts            []string
}
