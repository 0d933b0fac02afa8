package uat

import "time"

// AircraftState is the accumulated surveillance state of one target.
// Every mutable attribute is an AgedField so downstream consumers can
// reason about freshness and change independently per field.
//
// AircraftState is a plain value: copying the struct yields an
// independent snapshot, which is how the tracker hands state to readers.
type AircraftState struct {
	Address   uint32
	Qualifier AddressQualifier

	// LastMessageTime is when the most recent message for this target was
	// accepted; Messages counts them.
	LastMessageTime time.Time
	Messages        int

	Callsign     AgedField[string]
	FlightPlanID AgedField[string]
	Emergency    AgedField[EmergencyStatus]
	AirGround    AgedField[AirGroundState]

	PressureAltitude  AgedField[int] // feet
	GeometricAltitude AgedField[int] // feet
	VerticalRateBaro  AgedField[int] // feet/min
	VerticalRateGeom  AgedField[int] // feet/min
	GroundSpeed       AgedField[int] // knots
	TrueTrack         AgedField[float64]
	TrueHeading       AgedField[float64]
	MagneticHeading   AgedField[float64]

	Position              AgedField[Position]
	NIC                   AgedField[int]
	HorizontalContainment AgedField[float64] // meters

	SelectedAltitudeMCP AgedField[int]     // feet
	SelectedAltitudeFMS AgedField[int]     // feet
	SelectedHeading     AgedField[float64] // degrees
	ModeIndicators      AgedField[ModeIndicators]
	BaroSetting         AgedField[float64] // QNH, millibars

	NACp          AgedField[int]
	NACv          AgedField[int]
	SIL           AgedField[int]
	SILSupplement AgedField[SILSupplement]
	NICBaro       AgedField[int]

	EmitterCategory AgedField[int]
	MOPSVersion     AgedField[int]
}

// Key returns the address key this state belongs to.
func (s *AircraftState) Key() AddressKey {
	return AddressKey{Qualifier: s.Qualifier, Address: s.Address}
}
