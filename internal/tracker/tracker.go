// Package tracker maintains the live per-target surveillance state built
// from decoded UAT messages.
package tracker

import (
	"sync"
	"time"

	"github.com/unklstewy/uatfeed/pkg/uat"
)

// DefaultTimeout is how long a target survives without any message before
// PurgeOld drops it.
const DefaultTimeout = 300 * time.Second

// Tracker maps address keys to accumulated aircraft state. Writes come
// from the ingestion path; readers get value-copied snapshots, so no
// reader ever observes a partially applied update.
type Tracker struct {
	mu       sync.RWMutex
	aircraft map[uat.AddressKey]*uat.AircraftState
	timeout  time.Duration
}

// New creates a tracker. A zero timeout selects DefaultTimeout.
func New(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{
		aircraft: make(map[uat.AddressKey]*uat.AircraftState),
		timeout:  timeout,
	}
}

// Update merges one decoded message into the state for its address key,
// creating the target if this is the first message for it. Only fields
// present in the message are touched.
func (t *Tracker) Update(msg uat.Message, now time.Time) {
	key := msg.Key()

	t.mu.Lock()
	defer t.mu.Unlock()

	ac := t.aircraft[key]
	if ac == nil {
		ac = &uat.AircraftState{
			Address:   key.Address,
			Qualifier: key.Qualifier,
		}
		t.aircraft[key] = ac
	}

	ac.Messages++
	ac.LastMessageTime = now

	if msg.Callsign != nil {
		ac.Callsign.Set(*msg.Callsign, now)
	}
	if msg.Squawk != nil {
		ac.FlightPlanID.Set(*msg.Squawk, now)
	}
	if msg.Emergency != nil {
		ac.Emergency.Set(uat.ParseEmergencyStatus(*msg.Emergency), now)
	}
	if msg.AirGround != nil {
		ac.AirGround.Set(uat.ParseAirGroundState(*msg.AirGround), now)
	}
	if msg.PressureAltitude != nil {
		ac.PressureAltitude.Set(*msg.PressureAltitude, now)
	}
	if msg.GeometricAltitude != nil {
		ac.GeometricAltitude.Set(*msg.GeometricAltitude, now)
	}
	if msg.VerticalRateBaro != nil {
		ac.VerticalRateBaro.Set(*msg.VerticalRateBaro, now)
	}
	if msg.VerticalRateGeom != nil {
		ac.VerticalRateGeom.Set(*msg.VerticalRateGeom, now)
	}
	if msg.GroundSpeed != nil {
		ac.GroundSpeed.Set(*msg.GroundSpeed, now)
	}
	if msg.TrueTrack != nil {
		ac.TrueTrack.Set(*msg.TrueTrack, now)
	}
	if msg.TrueHeading != nil {
		ac.TrueHeading.Set(*msg.TrueHeading, now)
	}
	if msg.MagneticHeading != nil {
		ac.MagneticHeading.Set(*msg.MagneticHeading, now)
	}
	if msg.Position != nil {
		ac.Position.Set(uat.Position{Lat: msg.Position.Lat, Lon: msg.Position.Lon}, now)
	}
	if msg.NIC != nil {
		ac.NIC.Set(*msg.NIC, now)
	}
	if msg.HorizontalContainment != nil {
		ac.HorizontalContainment.Set(*msg.HorizontalContainment, now)
	}
	if msg.SelectedAltitudeMCP != nil {
		ac.SelectedAltitudeMCP.Set(*msg.SelectedAltitudeMCP, now)
	}
	if msg.SelectedAltitudeFMS != nil {
		ac.SelectedAltitudeFMS.Set(*msg.SelectedAltitudeFMS, now)
	}
	if msg.SelectedHeading != nil {
		ac.SelectedHeading.Set(*msg.SelectedHeading, now)
	}
	if msg.ModeIndicators != nil {
		ac.ModeIndicators.Set(uat.ModeIndicators{
			Autopilot:    msg.ModeIndicators.Autopilot,
			VNAV:         msg.ModeIndicators.VNAV,
			AltitudeHold: msg.ModeIndicators.AltitudeHold,
			Approach:     msg.ModeIndicators.Approach,
			LNAV:         msg.ModeIndicators.LNAV,
		}, now)
	}
	if msg.BaroSetting != nil {
		ac.BaroSetting.Set(*msg.BaroSetting, now)
	}
	if msg.NACp != nil {
		ac.NACp.Set(*msg.NACp, now)
	}
	if msg.NACv != nil {
		ac.NACv.Set(*msg.NACv, now)
	}
	if msg.SIL != nil {
		ac.SIL.Set(*msg.SIL, now)
	}
	if msg.SILSupplement != nil {
		ac.SILSupplement.Set(uat.ParseSILSupplement(*msg.SILSupplement), now)
	}
	if msg.NICBaro != nil {
		ac.NICBaro.Set(*msg.NICBaro, now)
	}
	if msg.EmitterCategory != nil {
		ac.EmitterCategory.Set(*msg.EmitterCategory, now)
	}
	if msg.MOPSVersion != nil {
		ac.MOPSVersion.Set(*msg.MOPSVersion, now)
	}
}

// Aircraft returns a value-copied snapshot of every tracked target.
func (t *Tracker) Aircraft() map[uat.AddressKey]uat.AircraftState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make(map[uat.AddressKey]uat.AircraftState, len(t.aircraft))
	for key, ac := range t.aircraft {
		snapshot[key] = *ac
	}
	return snapshot
}

// Get returns a snapshot of one target.
func (t *Tracker) Get(key uat.AddressKey) (uat.AircraftState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ac, ok := t.aircraft[key]
	if !ok {
		return uat.AircraftState{}, false
	}
	return *ac, true
}

// PurgeOld drops targets that have not produced a message within the
// tracker timeout.
func (t *Tracker) PurgeOld() {
	t.purgeOld(time.Now())
}

func (t *Tracker) purgeOld(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, ac := range t.aircraft {
		if now.Sub(ac.LastMessageTime) > t.timeout {
			delete(t.aircraft, key)
		}
	}
}

// Len returns the number of tracked targets.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.aircraft)
}
