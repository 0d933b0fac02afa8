// Package uat defines the data model for 978 MHz UAT surveillance state:
// address keys, the closed enumerations carried by decoded downlink
// messages, and the aged-field primitive used to track per-attribute
// freshness.
package uat

import "fmt"

// AddressQualifier classifies how a 24-bit address should be interpreted.
// Distinct qualifiers for the same numeric address identify distinct
// targets (an ICAO address can appear simultaneously as direct ADS-B and
// as ground-relayed TIS-B).
type AddressQualifier int

const (
	QualifierADSBICAO AddressQualifier = iota
	QualifierADSBOther
	QualifierTISBICAO
	QualifierTISBTrackfile
	QualifierVehicle
	QualifierFixedBeacon
	QualifierADSROther
	QualifierUnknown
)

// String returns the feed name of the qualifier (e.g. "adsb_icao").
func (q AddressQualifier) String() string {
	switch q {
	case QualifierADSBICAO:
		return "adsb_icao"
	case QualifierADSBOther:
		return "adsb_other"
	case QualifierTISBICAO:
		return "tisb_icao"
	case QualifierTISBTrackfile:
		return "tisb_trackfile"
	case QualifierVehicle:
		return "vehicle"
	case QualifierFixedBeacon:
		return "fixed_beacon"
	case QualifierADSROther:
		return "adsr_other"
	default:
		return "unknown"
	}
}

// ParseAddressQualifier maps a feed name back to a qualifier.
func ParseAddressQualifier(s string) AddressQualifier {
	switch s {
	case "adsb_icao":
		return QualifierADSBICAO
	case "adsb_other":
		return QualifierADSBOther
	case "tisb_icao":
		return QualifierTISBICAO
	case "tisb_trackfile":
		return QualifierTISBTrackfile
	case "vehicle":
		return QualifierVehicle
	case "fixed_beacon":
		return QualifierFixedBeacon
	case "adsr_other":
		return QualifierADSROther
	default:
		return QualifierUnknown
	}
}

// SourceLetter returns the single-letter data source tag appended to aged
// feed fields: "A" for the ADS-B/ADS-R family, "T" for the TIS-B family,
// "?" otherwise.
func (q AddressQualifier) SourceLetter() string {
	switch q {
	case QualifierADSBICAO, QualifierADSBOther, QualifierADSROther:
		return "A"
	case QualifierTISBICAO, QualifierTISBTrackfile:
		return "T"
	default:
		return "?"
	}
}

// ICAO reports whether the qualifier carries a real ICAO aircraft address.
func (q AddressQualifier) ICAO() bool {
	return q == QualifierADSBICAO || q == QualifierTISBICAO
}

// AddressKey identifies one broadcasting target: a 24-bit address plus the
// qualifier under which it was heard.
type AddressKey struct {
	Qualifier AddressQualifier
	Address   uint32
}

func (k AddressKey) String() string {
	return fmt.Sprintf("%06X/%s", k.Address, k.Qualifier)
}

// AirGroundState is the reported air/ground status of a target.
type AirGroundState int

const (
	AirborneSubsonic AirGroundState = iota
	AirborneSupersonic
	OnGround
	AirGroundReserved
)

// ParseAirGroundState maps the decoded JSON names to a state.
func ParseAirGroundState(s string) AirGroundState {
	switch s {
	case "airborne":
		return AirborneSubsonic
	case "supersonic":
		return AirborneSupersonic
	case "ground":
		return OnGround
	default:
		return AirGroundReserved
	}
}

// EmergencyStatus is the emergency/priority status of a target.
type EmergencyStatus int

const (
	EmergencyNone EmergencyStatus = iota
	EmergencyGeneral
	EmergencyMedical
	EmergencyMinFuel
	EmergencyNoComm
	EmergencyUnlawful
	EmergencyDowned
	EmergencyReserved
)

// ParseEmergencyStatus maps the decoded JSON names to a status.
func ParseEmergencyStatus(s string) EmergencyStatus {
	switch s {
	case "none":
		return EmergencyNone
	case "general":
		return EmergencyGeneral
	case "medical":
		return EmergencyMedical
	case "minfuel":
		return EmergencyMinFuel
	case "nordo":
		return EmergencyNoComm
	case "unlawful":
		return EmergencyUnlawful
	case "downed":
		return EmergencyDowned
	default:
		return EmergencyReserved
	}
}

// SILSupplement qualifies the SIL probability basis.
type SILSupplement int

const (
	SILPerHour SILSupplement = iota
	SILPerSample
	SILUnknown
)

// ParseSILSupplement maps the decoded JSON names to a supplement value.
func ParseSILSupplement(s string) SILSupplement {
	switch s {
	case "per_hour":
		return SILPerHour
	case "per_sample":
		return SILPerSample
	default:
		return SILUnknown
	}
}

// ModeIndicators is the set of autopilot mode flags from a target's
// mode-status message.
type ModeIndicators struct {
	Autopilot    bool
	VNAV         bool
	AltitudeHold bool
	Approach     bool
	LNAV         bool
}

// Position is a WGS84 latitude/longitude pair in decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}
