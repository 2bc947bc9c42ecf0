package vitals

import (
	"fmt"
	"strconv"
)

// contactLevel maps a band to the care guidance shown in notifications.
func contactLevel(b Band) string {
	switch b {
	case BandBlue:
		return "call emergency services immediately"
	case BandRed:
		return "notify doctor immediately"
	case BandOrange:
		return "notify nurse"
	default:
		return ""
	}
}

// bandRange classifies a value against low and high cutoffs ordered from
// most to least severe. A zero cutoff on either side means no bound there.
type bandRange struct {
	blueLow, redLow, orangeLow    float64
	orangeHigh, redHigh, blueHigh float64
}

func (r bandRange) classify(v float64) Band {
	switch {
	case r.blueLow != 0 && v < r.blueLow:
		return BandBlue
	case r.blueHigh != 0 && v > r.blueHigh:
		return BandBlue
	case r.redLow != 0 && v < r.redLow:
		return BandRed
	case r.redHigh != 0 && v > r.redHigh:
		return BandRed
	case r.orangeLow != 0 && v < r.orangeLow:
		return BandOrange
	case r.orangeHigh != 0 && v > r.orangeHigh:
		return BandOrange
	default:
		return BandNormal
	}
}

// Clinically reviewed adult cutoffs per metric. These are configuration,
// kept in one table so a clinical review can audit them in one place.
var (
	heartRateBands = bandRange{
		blueLow: 30, redLow: 40, orangeLow: 50,
		orangeHigh: 120, redHigh: 140, blueHigh: 180,
	}
	systolicBands = bandRange{
		blueLow: 70, redLow: 80, orangeLow: 90,
		orangeHigh: 160, redHigh: 180, blueHigh: 220,
	}
	diastolicBands = bandRange{
		blueLow: 40, redLow: 50, orangeLow: 60,
		orangeHigh: 100, redHigh: 120, blueHigh: 130,
	}
	temperatureBandsF = bandRange{
		blueLow: 93.2, redLow: 95.0, orangeLow: 96.8,
		orangeHigh: 100.4, redHigh: 104.0, blueHigh: 105.8,
	}
	respiratoryBands = bandRange{
		blueLow: 6, redLow: 8, orangeLow: 10,
		orangeHigh: 24, redHigh: 30, blueHigh: 36,
	}
	oxygenBands = bandRange{
		blueLow: 80, redLow: 85, orangeLow: 90,
	}
	glucoseBands = bandRange{
		blueLow: 40, redLow: 54, orangeLow: 70,
		orangeHigh: 250, redHigh: 400, blueHigh: 500,
	}
)

// Evaluate classifies every present measurement on the reading and returns
// the abnormal findings in fixed metric priority order. Pure function: no
// I/O, deterministic for a given reading.
func Evaluate(r Reading) []Finding {
	var findings []Finding

	add := func(metric, value string, band Band) {
		if !band.Abnormal() {
			return
		}
		findings = append(findings, Finding{
			Metric:       metric,
			Value:        value,
			Band:         band,
			ContactLevel: contactLevel(band),
		})
	}

	if r.HeartRate != nil {
		add("Heart Rate", strconv.Itoa(*r.HeartRate), heartRateBands.classify(float64(*r.HeartRate)))
	}
	if r.SystolicBP != nil {
		add("Systolic BP", strconv.Itoa(*r.SystolicBP), systolicBands.classify(float64(*r.SystolicBP)))
	}
	if r.DiastolicBP != nil {
		add("Diastolic BP", strconv.Itoa(*r.DiastolicBP), diastolicBands.classify(float64(*r.DiastolicBP)))
	}
	if r.Temperature != nil {
		f := *r.Temperature
		if r.TemperatureUnit == Celsius {
			f = f*9/5 + 32
		}
		display := fmt.Sprintf("%.1f°%s", *r.Temperature, unitOrDefault(r.TemperatureUnit))
		add("Temperature", display, temperatureBandsF.classify(f))
	}
	if r.RespiratoryRate != nil {
		add("Respiratory Rate", strconv.Itoa(*r.RespiratoryRate), respiratoryBands.classify(float64(*r.RespiratoryRate)))
	}
	if r.OxygenSaturation != nil {
		add("Oxygen Saturation", fmt.Sprintf("%d%%", *r.OxygenSaturation), oxygenBands.classify(float64(*r.OxygenSaturation)))
	}
	if r.Glucose != nil {
		add("Blood Glucose", fmt.Sprintf("%.0f mg/dL", *r.Glucose), glucoseBands.classify(*r.Glucose))
	}

	return findings
}

func unitOrDefault(u TemperatureUnit) TemperatureUnit {
	if u == "" {
		return Fahrenheit
	}
	return u
}
