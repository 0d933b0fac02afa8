package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/unklstewy/uatfeed/pkg/uat"
)

const tsvVersion = "4U"

type fieldValue struct {
	key   string
	value string
}

// lineFields selects and formats the fields of one feed line. Slow fields
// (integrity, category, equipment version) go out only when changed or on
// the periodic full refresh; fast fields go out whenever they have been
// updated since the last report for this target.
type lineFields struct {
	kv         []fieldValue
	now        time.Time
	reportTime time.Time
	forceSlow  bool
	source     string
}

func (l *lineFields) addSlow(key string, f uat.Aged, format func() string) {
	if f.Valid() && (l.forceSlow || f.Changed().After(l.reportTime)) {
		l.kv = append(l.kv, fieldValue{key, format()})
	}
}

func (l *lineFields) addSlowAged(key string, f uat.Aged, format func() string) {
	if f.Valid() && (l.forceSlow || f.Changed().After(l.reportTime)) {
		l.kv = append(l.kv, fieldValue{key, l.withAge(f, format())})
	}
}

func (l *lineFields) addAged(key string, f uat.Aged, format func() string) {
	if f.Valid() && f.Updated().After(l.reportTime) {
		l.kv = append(l.kv, fieldValue{key, l.withAge(f, format())})
	}
}

// withAge appends the field's freshness in whole seconds and the data
// source letter.
func (l *lineFields) withAge(f uat.Aged, value string) string {
	age := int64(f.UpdateAge(l.now) / time.Second)
	return fmt.Sprintf("%s %d %s", value, age, l.source)
}

func (l *lineFields) collect(ac *uat.AircraftState) {
	l.addSlow("uat_version", &ac.MOPSVersion, func() string {
		return strconv.Itoa(ac.MOPSVersion.Value())
	})
	l.addSlow("category", &ac.EmitterCategory, func() string {
		return formatCategory(ac.EmitterCategory.Value())
	})
	l.addSlowAged("nac_p", &ac.NACp, func() string {
		return strconv.Itoa(ac.NACp.Value())
	})
	l.addSlowAged("nac_v", &ac.NACv, func() string {
		return strconv.Itoa(ac.NACv.Value())
	})
	l.addSlowAged("sil", &ac.SIL, func() string {
		return strconv.Itoa(ac.SIL.Value())
	})
	l.addSlowAged("sil_type", &ac.SILSupplement, func() string {
		return formatSILSupplement(ac.SILSupplement.Value())
	})
	l.addSlowAged("nic_baro", &ac.NICBaro, func() string {
		return strconv.Itoa(ac.NICBaro.Value())
	})

	l.addAged("airGround", &ac.AirGround, func() string {
		return formatAirGround(ac.AirGround.Value())
	})
	l.addAged("squawk", &ac.FlightPlanID, func() string {
		return "{" + ac.FlightPlanID.Value() + "}"
	})
	l.addAged("ident", &ac.Callsign, func() string {
		return "{" + ac.Callsign.Value() + "}"
	})
	l.addAged("alt", &ac.PressureAltitude, func() string {
		return strconv.Itoa(ac.PressureAltitude.Value())
	})
	l.addAged("position", &ac.Position, func() string {
		return formatPosition(ac)
	})
	l.addAged("alt_gnss", &ac.GeometricAltitude, func() string {
		return strconv.Itoa(ac.GeometricAltitude.Value())
	})
	l.addAged("vrate", &ac.VerticalRateBaro, func() string {
		return strconv.Itoa(ac.VerticalRateBaro.Value())
	})
	l.addAged("vrate_geom", &ac.VerticalRateGeom, func() string {
		return strconv.Itoa(ac.VerticalRateGeom.Value())
	})
	l.addAged("speed", &ac.GroundSpeed, func() string {
		return strconv.Itoa(ac.GroundSpeed.Value())
	})
	l.addAged("track", &ac.TrueTrack, func() string {
		return strconv.FormatFloat(ac.TrueTrack.Value(), 'f', 1, 64)
	})
	l.addAged("heading_magnetic", &ac.MagneticHeading, func() string {
		return strconv.FormatFloat(ac.MagneticHeading.Value(), 'f', 1, 64)
	})
	l.addAged("heading_true", &ac.TrueHeading, func() string {
		return strconv.FormatFloat(ac.TrueHeading.Value(), 'f', 1, 64)
	})
	l.addAged("nav_alt_mcp", &ac.SelectedAltitudeMCP, func() string {
		return strconv.Itoa(ac.SelectedAltitudeMCP.Value())
	})
	l.addAged("nav_alt_fms", &ac.SelectedAltitudeFMS, func() string {
		return strconv.Itoa(ac.SelectedAltitudeFMS.Value())
	})
	l.addAged("nav_heading", &ac.SelectedHeading, func() string {
		return strconv.FormatFloat(ac.SelectedHeading.Value(), 'f', 0, 64)
	})
	l.addAged("nav_modes", &ac.ModeIndicators, func() string {
		return formatModes(ac.ModeIndicators.Value())
	})
	l.addAged("nav_qnh", &ac.BaroSetting, func() string {
		return strconv.FormatFloat(ac.BaroSetting.Value(), 'f', 1, 64)
	})
	l.addAged("emergency", &ac.Emergency, func() string {
		return formatEmergency(ac.Emergency.Value())
	})
}

// formatCategory renders the emitter category as the conventional A0..D7
// hex byte used by 1090ES feeds.
func formatCategory(v int) string {
	return fmt.Sprintf("%02X", 0xA0+(v&7)+((v&0x18)<<1))
}

func formatSILSupplement(v uat.SILSupplement) string {
	switch v {
	case uat.SILPerHour:
		return "perhour"
	case uat.SILPerSample:
		return "persample"
	default:
		return "unknown"
	}
}

func formatAirGround(v uat.AirGroundState) string {
	switch v {
	case uat.AirborneSubsonic, uat.AirborneSupersonic, uat.OnGround:
		return "A+"
	default:
		return "?"
	}
}

func formatEmergency(v uat.EmergencyStatus) string {
	switch v {
	case uat.EmergencyNone:
		return "none"
	case uat.EmergencyGeneral:
		return "general"
	case uat.EmergencyMedical:
		return "lifeguard"
	case uat.EmergencyMinFuel:
		return "minfuel"
	case uat.EmergencyNoComm:
		return "nordo"
	case uat.EmergencyUnlawful:
		return "unlawful"
	case uat.EmergencyDowned:
		return "downed"
	default:
		return "unknown"
	}
}

// formatPosition bundles latitude, longitude, NIC, and the horizontal
// containment radius rounded up to a whole meter. NIC should always be
// valid when the position is; 0 is emitted if it is not.
func formatPosition(ac *uat.AircraftState) string {
	p := ac.Position.Value()
	nic := 0
	if ac.NIC.Valid() {
		nic = ac.NIC.Value()
	}
	rc := 0.0
	if ac.HorizontalContainment.Valid() {
		rc = ac.HorizontalContainment.Value()
	}
	return fmt.Sprintf("{%.5f %.5f %d %.0f}", p.Lat, p.Lon, nic, math.Ceil(rc))
}

func formatModes(m uat.ModeIndicators) string {
	var items []string
	if m.Autopilot {
		items = append(items, "autopilot")
	}
	if m.VNAV {
		items = append(items, "vnav")
	}
	if m.AltitudeHold {
		items = append(items, "althold")
	}
	if m.Approach {
		items = append(items, "approach")
	}
	if m.LNAV {
		items = append(items, "lnav")
	}
	return "{" + strings.Join(items, " ") + "}"
}

// formatLine renders one complete feed line for a target, or "" when no
// fields were selected (nothing new to say).
func formatLine(ac *uat.AircraftState, now, reportTime time.Time, forceSlow bool) string {
	l := lineFields{
		now:        now,
		reportTime: reportTime,
		forceSlow:  forceSlow,
		source:     ac.Qualifier.SourceLetter(),
	}
	l.collect(ac)
	if len(l.kv) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "_v\t%s\tclock\t%d", tsvVersion, now.Unix())

	idKey := "otherid"
	if ac.Qualifier.ICAO() {
		idKey = "hexid"
	}
	fmt.Fprintf(&b, "\t%s\t%06X", idKey, ac.Address)

	// The address type goes out on every full refresh, and always for
	// non-ICAO addresses.
	if forceSlow || !ac.Qualifier.ICAO() {
		fmt.Fprintf(&b, "\taddrtype\t%s", ac.Qualifier)
	}

	for _, f := range l.kv {
		fmt.Fprintf(&b, "\t%s\t%s", f.key, f.value)
	}
	return b.String()
}
