package uat

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Message is one decoded UAT downlink message as produced by a
// dump978-style json-port. Optional fields are pointers so the ingestion
// path can tell "absent" from "zero".
type Message struct {
	Address          string `json:"address"`
	AddressQualifier string `json:"address_qualifier"`

	Callsign  *string `json:"callsign,omitempty"`
	Squawk    *string `json:"squawk,omitempty"`
	Emergency *string `json:"emergency,omitempty"`
	AirGround *string `json:"airground_state,omitempty"`

	PressureAltitude  *int     `json:"pressure_altitude,omitempty"`
	GeometricAltitude *int     `json:"geometric_altitude,omitempty"`
	VerticalRateBaro  *int     `json:"vertical_velocity_barometric,omitempty"`
	VerticalRateGeom  *int     `json:"vertical_velocity_geometric,omitempty"`
	GroundSpeed       *int     `json:"ground_speed,omitempty"`
	TrueTrack         *float64 `json:"true_track,omitempty"`
	TrueHeading       *float64 `json:"true_heading,omitempty"`
	MagneticHeading   *float64 `json:"magnetic_heading,omitempty"`

	Position              *MessagePosition `json:"position,omitempty"`
	NIC                   *int             `json:"nic,omitempty"`
	HorizontalContainment *float64         `json:"horizontal_containment,omitempty"`

	SelectedAltitudeMCP *int            `json:"selected_altitude_mcp,omitempty"`
	SelectedAltitudeFMS *int            `json:"selected_altitude_fms,omitempty"`
	SelectedHeading     *float64        `json:"selected_heading,omitempty"`
	ModeIndicators      *MessageModes   `json:"mode_indicators,omitempty"`
	BaroSetting         *float64        `json:"barometric_pressure_setting,omitempty"`

	NACp          *int    `json:"nac_p,omitempty"`
	NACv          *int    `json:"nac_v,omitempty"`
	SIL           *int    `json:"sil,omitempty"`
	SILSupplement *string `json:"sil_supplement,omitempty"`
	NICBaro       *int    `json:"nic_baro,omitempty"`

	EmitterCategory *int `json:"emitter_category,omitempty"`
	MOPSVersion     *int `json:"uat_version,omitempty"`
}

// MessagePosition is the lat/lon pair inside a decoded message.
type MessagePosition struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MessageModes is the autopilot mode flag set inside a decoded message.
type MessageModes struct {
	Autopilot    bool `json:"autopilot"`
	VNAV         bool `json:"vnav"`
	AltitudeHold bool `json:"althold"`
	Approach     bool `json:"approach"`
	LNAV         bool `json:"lnav"`
}

// ParseMessage decodes one JSON line from the message feed.
func ParseMessage(line []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Address == "" {
		return Message{}, fmt.Errorf("message has no address")
	}
	if _, err := msg.AddressValue(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// AddressValue returns the numeric 24-bit address.
func (m *Message) AddressValue() (uint32, error) {
	addr, err := strconv.ParseUint(m.Address, 16, 32)
	if err != nil || addr > 0xFFFFFF {
		return 0, fmt.Errorf("invalid address %q", m.Address)
	}
	return uint32(addr), nil
}

// Key returns the address key this message belongs to. The address must
// have been validated by ParseMessage.
func (m *Message) Key() AddressKey {
	addr, _ := m.AddressValue()
	return AddressKey{
		Qualifier: ParseAddressQualifier(m.AddressQualifier),
		Address:   addr,
	}
}
