package mevo

import (
	"bytes"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// prcDedupTTL bounds how long a (header, sub-count) key from one shot's
// PRC retransmissions is remembered; comfortably longer than any plausible
// single shot-collection window so a re-arm can never see a stale hit.
const prcDedupTTL = 5 * time.Second

// shotAssembler owns a Shot record from "BALL TRIGGER" until it is handed
// to the caller as a ShotEvent (spec §3.6, §4.7).
type shotAssembler struct {
	id xid.ID

	flightResult   *FlightResult
	flightResultV1 *FlightResultV1
	clubResult     *ClubResult
	spinResult     *SpinResult
	speedProfile   *SpeedProfile
	camImageAvail  *CamImageAvail

	trackingStatuses []*TrackingStatus
	prcData          []*PrcData
	clubPrc          []*ClubPrc
	texts            []string

	dedup  *cache.Cache
	logger *logrus.Logger
}

func newShotAssembler(logger *logrus.Logger) *shotAssembler {
	return &shotAssembler{
		id:     xid.New(),
		dedup:  cache.New(prcDedupTTL, prcDedupTTL),
		logger: logger,
	}
}

// handle feeds one parsed message into the assembler, applying the
// catalog's per-shot invariants.
func (a *shotAssembler) handle(msg Message) {
	switch m := msg.(type) {
	case *FlightResult:
		if a.flightResult != nil {
			a.logDuplicate("FLIGHT_RESULT")
			return
		}
		a.flightResult = m
	case *FlightResultV1:
		if a.flightResultV1 != nil {
			a.logDuplicate("FLIGHT_RESULT_V1")
			return
		}
		a.flightResultV1 = m
	case *SpinResult:
		if a.spinResult != nil {
			a.logDuplicate("SPIN_RESULT")
			return
		}
		a.spinResult = m
	case *SpeedProfile:
		if a.speedProfile != nil {
			a.logDuplicate("SPEED_PROFILE")
			return
		}
		a.speedProfile = m
	case *CamImageAvail:
		if a.camImageAvail != nil {
			a.logDuplicate("CAM_IMAGE_AVAIL")
			return
		}
		a.camImageAvail = m
	case *ClubResult:
		a.handleClubResult(m)
	case *TrackingStatus:
		a.trackingStatuses = append(a.trackingStatuses, m)
	case *PrcData:
		if a.seenPrc("prc", m.HeaderByte, m.SubRecordCount) {
			return
		}
		a.prcData = append(a.prcData, m)
	case *ClubPrc:
		if a.seenPrc("clubprc", m.HeaderByte, m.SubRecordCount) {
			return
		}
		a.clubPrc = append(a.clubPrc, m)
	case *ShotText:
		a.texts = append(a.texts, m.Value)
	case Text:
		a.texts = append(a.texts, m.Value)
	}
}

// handleClubResult keeps the first CLUB_RESULT; a second is expected to be
// byte-identical and is discarded either way, but a mismatch is logged as
// a broken invariant rather than silently accepted.
func (a *shotAssembler) handleClubResult(m *ClubResult) {
	if a.clubResult == nil {
		a.clubResult = m
		return
	}
	if !bytes.Equal(a.clubResult.Raw, m.Raw) {
		a.logger.WithFields(logrus.Fields{
			"shot_id": a.id.String(),
			"msg_type": "CLUB_RESULT",
		}).Warn("duplicate CLUB_RESULT was not byte-identical to the first")
	}
}

func (a *shotAssembler) seenPrc(kind string, header uint8, subCount int) bool {
	key := fmt.Sprintf("%s:%d:%d", kind, header, subCount)
	if _, found := a.dedup.Get(key); found {
		return true
	}
	a.dedup.SetDefault(key, struct{}{})
	return false
}

func (a *shotAssembler) logDuplicate(msgType string) {
	a.logger.WithFields(logrus.Fields{
		"shot_id":  a.id.String(),
		"msg_type": msgType,
	}).Info("duplicate per-shot message discarded, first kept")
}

// discardDuplicateClubResult absorbs the CLUB_RESULT that arrives in
// response to SHOT_RESULT_REQ during post-shot (spec §4.6 step 4): it is
// compared against the assembled one but never appended anywhere.
func (a *shotAssembler) discardDuplicateClubResult(m *ClubResult) {
	if a.clubResult != nil && !bytes.Equal(a.clubResult.Raw, m.Raw) {
		a.logger.WithFields(logrus.Fields{
			"shot_id": a.id.String(),
		}).Warn("SHOT_RESULT_REQ reply CLUB_RESULT did not match the assembled one")
	}
}

func (a *shotAssembler) toEvent() *ShotEvent {
	return &ShotEvent{
		ID:               a.id,
		FlightResult:     a.flightResult,
		FlightResultV1:   a.flightResultV1,
		ClubResult:       a.clubResult,
		SpinResult:       a.spinResult,
		SpeedProfile:     a.speedProfile,
		CamImageAvail:    a.camImageAvail,
		TrackingStatuses: a.trackingStatuses,
		PrcData:          a.prcData,
		ClubPrc:          a.clubPrc,
		Texts:            a.texts,
	}
}
