// Package vitals holds vital-sign readings and the threshold evaluator
// that classifies them against clinical danger bands.
package vitals

import (
	"time"

	"github.com/google/uuid"
)

// TemperatureUnit is the unit a temperature reading was captured in.
type TemperatureUnit string

const (
	Fahrenheit TemperatureUnit = "F"
	Celsius    TemperatureUnit = "C"
)

// Reading is a single timestamped set of vital-sign measurements taken
// during an encounter. Every measurement is optional; devices and manual
// entry both record partial sets. Immutable once stored.
type Reading struct {
	ID          uuid.UUID `json:"id"`
	EncounterID uuid.UUID `json:"encounter_id"`
	PatientID   uuid.UUID `json:"patient_id"`

	HeartRate        *int             `json:"heart_rate,omitempty"`
	SystolicBP       *int             `json:"systolic_bp,omitempty"`
	DiastolicBP      *int             `json:"diastolic_bp,omitempty"`
	Temperature      *float64         `json:"temperature,omitempty"`
	TemperatureUnit  TemperatureUnit  `json:"temperature_unit,omitempty"`
	RespiratoryRate  *int             `json:"respiratory_rate,omitempty"`
	OxygenSaturation *int             `json:"oxygen_saturation,omitempty"`
	Glucose          *float64         `json:"glucose,omitempty"`

	RecordedAt time.Time `json:"recorded_at"`
}

// Band is the clinical danger classification of one measurement.
type Band string

const (
	BandNormal Band = "green"
	BandOrange Band = "orange"
	BandRed    Band = "red"
	BandBlue   Band = "blue"
)

// Abnormal reports whether the band warrants an alert finding.
func (b Band) Abnormal() bool {
	return b == BandOrange || b == BandRed || b == BandBlue
}

// Finding is one abnormal measurement carried inside an alert session.
// ContactLevel is display text only; it never drives control flow.
type Finding struct {
	Metric       string `json:"metric"`
	Value        string `json:"value"`
	Band         Band   `json:"band"`
	ContactLevel string `json:"contact_level"`
}
