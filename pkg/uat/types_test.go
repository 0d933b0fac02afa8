package uat

import "testing"

// TestAddressQualifierNames verifies the name round trip for every
// qualifier.
func TestAddressQualifierNames(t *testing.T) {
	qualifiers := []AddressQualifier{
		QualifierADSBICAO, QualifierADSBOther, QualifierTISBICAO,
		QualifierTISBTrackfile, QualifierVehicle, QualifierFixedBeacon,
		QualifierADSROther,
	}
	for _, q := range qualifiers {
		if got := ParseAddressQualifier(q.String()); got != q {
			t.Errorf("Expected %v to round-trip, got %v", q, got)
		}
	}

	if got := ParseAddressQualifier("bogus"); got != QualifierUnknown {
		t.Errorf("Expected unknown qualifier for bogus name, got %v", got)
	}
	if got := QualifierUnknown.String(); got != "unknown" {
		t.Errorf("Expected name unknown, got %s", got)
	}
}

// TestSourceLetter verifies the data-source letter mapping.
func TestSourceLetter(t *testing.T) {
	cases := []struct {
		qualifier AddressQualifier
		letter    string
	}{
		{QualifierADSBICAO, "A"},
		{QualifierADSBOther, "A"},
		{QualifierADSROther, "A"},
		{QualifierTISBICAO, "T"},
		{QualifierTISBTrackfile, "T"},
		{QualifierVehicle, "?"},
		{QualifierFixedBeacon, "?"},
	}
	for _, c := range cases {
		if got := c.qualifier.SourceLetter(); got != c.letter {
			t.Errorf("Expected source letter %s for %v, got %s", c.letter, c.qualifier, got)
		}
	}
}

// TestICAO verifies which qualifiers carry a real ICAO address.
func TestICAO(t *testing.T) {
	if !QualifierADSBICAO.ICAO() || !QualifierTISBICAO.ICAO() {
		t.Error("Expected adsb_icao and tisb_icao to be ICAO-addressed")
	}
	if QualifierVehicle.ICAO() || QualifierTISBTrackfile.ICAO() {
		t.Error("Expected vehicle and tisb_trackfile to not be ICAO-addressed")
	}
}

// TestDistinctKeys verifies that the same address under different
// qualifiers yields distinct keys.
func TestDistinctKeys(t *testing.T) {
	a := AddressKey{Qualifier: QualifierADSBICAO, Address: 0xABCDEF}
	b := AddressKey{Qualifier: QualifierTISBICAO, Address: 0xABCDEF}
	if a == b {
		t.Error("Expected keys with different qualifiers to differ")
	}
	if a.String() == b.String() {
		t.Errorf("Expected distinct string forms, both %s", a.String())
	}
}

// TestParseEnums verifies the JSON-name parsers.
func TestParseEnums(t *testing.T) {
	if got := ParseAirGroundState("ground"); got != OnGround {
		t.Errorf("Expected OnGround, got %v", got)
	}
	if got := ParseAirGroundState("airborne"); got != AirborneSubsonic {
		t.Errorf("Expected AirborneSubsonic, got %v", got)
	}
	if got := ParseAirGroundState("???"); got != AirGroundReserved {
		t.Errorf("Expected AirGroundReserved, got %v", got)
	}

	if got := ParseEmergencyStatus("medical"); got != EmergencyMedical {
		t.Errorf("Expected EmergencyMedical, got %v", got)
	}
	if got := ParseEmergencyStatus("none"); got != EmergencyNone {
		t.Errorf("Expected EmergencyNone, got %v", got)
	}

	if got := ParseSILSupplement("per_sample"); got != SILPerSample {
		t.Errorf("Expected SILPerSample, got %v", got)
	}
}
