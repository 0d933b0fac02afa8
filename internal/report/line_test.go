package report

import (
	"strings"
	"testing"
	"time"

	"github.com/unklstewy/uatfeed/pkg/uat"
)

// fullState builds a state with every field populated at now.
func fullState(now time.Time) uat.AircraftState {
	ac := uat.AircraftState{
		Address:         0xA1B2C3,
		Qualifier:       uat.QualifierADSBICAO,
		LastMessageTime: now,
	}
	ac.MOPSVersion.Set(2, now)
	ac.EmitterCategory.Set(1, now)
	ac.NACp.Set(10, now)
	ac.NACv.Set(2, now)
	ac.SIL.Set(3, now)
	ac.SILSupplement.Set(uat.SILPerHour, now)
	ac.NICBaro.Set(1, now)
	ac.AirGround.Set(uat.AirborneSubsonic, now)
	ac.FlightPlanID.Set("1200", now)
	ac.Callsign.Set("N123AB", now)
	ac.PressureAltitude.Set(12025, now)
	ac.Position.Set(uat.Position{Lat: 42.123456, Lon: -71.654321}, now)
	ac.NIC.Set(8, now)
	ac.HorizontalContainment.Set(185.2, now)
	ac.GeometricAltitude.Set(12150, now)
	ac.VerticalRateBaro.Set(-640, now)
	ac.GroundSpeed.Set(385, now)
	ac.TrueTrack.Set(271.42, now)
	ac.SelectedAltitudeMCP.Set(13000, now)
	ac.SelectedHeading.Set(270.0, now)
	ac.ModeIndicators.Set(uat.ModeIndicators{Autopilot: true, AltitudeHold: true}, now)
	ac.BaroSetting.Set(1013.2, now)
	ac.Emergency.Set(uat.EmergencyNone, now)
	return ac
}

func TestFormatLine(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Header and identity", func(t *testing.T) {
		ac := fullState(now)
		line := formatLine(&ac, now, time.Time{}, false)

		wantPrefix := "_v\t4U\tclock\t1717243200\thexid\tA1B2C3"
		if !strings.HasPrefix(line, wantPrefix) {
			t.Errorf("Expected prefix %q, got %q", wantPrefix, line)
		}
	})

	t.Run("Non-ICAO uses otherid and always carries addrtype", func(t *testing.T) {
		ac := fullState(now)
		ac.Qualifier = uat.QualifierTISBTrackfile
		line := formatLine(&ac, now, time.Time{}, false)

		if !strings.Contains(line, "otherid\tA1B2C3") {
			t.Errorf("Expected otherid for trackfile address, got %q", line)
		}
		if !strings.Contains(line, "addrtype\ttisb_trackfile") {
			t.Errorf("Expected addrtype for non-ICAO address, got %q", line)
		}
	})

	t.Run("ICAO omits addrtype unless refreshing", func(t *testing.T) {
		ac := fullState(now)
		if line := formatLine(&ac, now, time.Time{}, false); strings.Contains(line, "addrtype") {
			t.Errorf("Expected no addrtype, got %q", line)
		}
		if line := formatLine(&ac, now, time.Time{}, true); !strings.Contains(line, "addrtype\tadsb_icao") {
			t.Errorf("Expected addrtype on full refresh, got %q", line)
		}
	})

	t.Run("Field formats", func(t *testing.T) {
		ac := fullState(now)
		line := formatLine(&ac, now, time.Time{}, true)

		wants := []string{
			"uat_version\t2",
			"category\tA1",
			"sil_type\tperhour 0 A",
			"airGround\tA+ 0 A",
			"squawk\t{1200} 0 A",
			"ident\t{N123AB} 0 A",
			"alt\t12025 0 A",
			"position\t{42.12346 -71.65432 8 186} 0 A",
			"alt_gnss\t12150 0 A",
			"vrate\t-640 0 A",
			"speed\t385 0 A",
			"track\t271.4 0 A",
			"nav_alt_mcp\t13000 0 A",
			"nav_heading\t270 0 A",
			"nav_modes\t{autopilot althold} 0 A",
			"nav_qnh\t1013.2 0 A",
			"emergency\tnone 0 A",
		}
		for _, w := range wants {
			if !strings.Contains(line, w) {
				t.Errorf("Expected line to contain %q, got %q", w, line)
			}
		}
	})

	t.Run("Aged values carry whole-second age and source letter", func(t *testing.T) {
		ac := fullState(now)
		line := formatLine(&ac, now.Add(7*time.Second), now.Add(-time.Second), false)

		if !strings.Contains(line, "alt\t12025 7 A") {
			t.Errorf("Expected 7s age suffix, got %q", line)
		}
	})

	t.Run("TIS-B source letter", func(t *testing.T) {
		ac := fullState(now)
		ac.Qualifier = uat.QualifierTISBICAO
		line := formatLine(&ac, now, time.Time{}, false)

		if !strings.Contains(line, "alt\t12025 0 T") {
			t.Errorf("Expected T source letter, got %q", line)
		}
	})

	t.Run("Stale fields are excluded", func(t *testing.T) {
		ac := fullState(now)
		// everything was reported at now already
		line := formatLine(&ac, now.Add(5*time.Second), now, false)
		if line != "" {
			t.Errorf("Expected empty line when nothing updated, got %q", line)
		}
	})

	t.Run("Slow fields need a change or a refresh", func(t *testing.T) {
		ac := fullState(now)
		later := now.Add(5 * time.Second)
		ac.PressureAltitude.Set(12100, later)

		line := formatLine(&ac, later, now, false)
		if strings.Contains(line, "category") {
			t.Errorf("Expected unchanged category to be withheld, got %q", line)
		}
		if !strings.Contains(line, "alt\t12100 0 A") {
			t.Errorf("Expected updated altitude, got %q", line)
		}

		ac.EmitterCategory.Set(2, later)
		line = formatLine(&ac, later, now, false)
		if !strings.Contains(line, "category\tA2") {
			t.Errorf("Expected changed category, got %q", line)
		}
	})
}

func TestFormatCategory(t *testing.T) {
	cases := []struct {
		value int
		want  string
	}{
		{0, "A0"},
		{1, "A1"},
		{7, "A7"},
		{8, "B0"},
		{15, "B7"},
		{16, "C0"},
		{21, "C5"},
	}
	for _, c := range cases {
		if got := formatCategory(c.value); got != c.want {
			t.Errorf("Expected category %q for %d, got %q", c.want, c.value, got)
		}
	}
}

func TestFormatEmergency(t *testing.T) {
	cases := []struct {
		value uat.EmergencyStatus
		want  string
	}{
		{uat.EmergencyNone, "none"},
		{uat.EmergencyGeneral, "general"},
		{uat.EmergencyMedical, "lifeguard"},
		{uat.EmergencyMinFuel, "minfuel"},
		{uat.EmergencyNoComm, "nordo"},
		{uat.EmergencyUnlawful, "unlawful"},
		{uat.EmergencyDowned, "downed"},
	}
	for _, c := range cases {
		if got := formatEmergency(c.value); got != c.want {
			t.Errorf("Expected emergency %q, got %q", c.want, got)
		}
	}
}

func TestFormatPosition(t *testing.T) {
	now := time.Now()
	var ac uat.AircraftState
	ac.Position.Set(uat.Position{Lat: 1.000001, Lon: 2.5}, now)

	t.Run("Missing NIC and containment render as zero", func(t *testing.T) {
		if got := formatPosition(&ac); got != "{1.00000 2.50000 0 0}" {
			t.Errorf("Expected zero NIC and containment, got %q", got)
		}
	})

	t.Run("Containment rounds up", func(t *testing.T) {
		ac.NIC.Set(9, now)
		ac.HorizontalContainment.Set(75.04, now)
		if got := formatPosition(&ac); got != "{1.00000 2.50000 9 76}" {
			t.Errorf("Expected ceiling of containment radius, got %q", got)
		}
	})
}

func TestFormatModes(t *testing.T) {
	t.Run("Empty set", func(t *testing.T) {
		if got := formatModes(uat.ModeIndicators{}); got != "{}" {
			t.Errorf("Expected empty braces, got %q", got)
		}
	})

	t.Run("Full set keeps canonical order", func(t *testing.T) {
		m := uat.ModeIndicators{Autopilot: true, VNAV: true, AltitudeHold: true, Approach: true, LNAV: true}
		want := "{autopilot vnav althold approach lnav}"
		if got := formatModes(m); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	})
}
