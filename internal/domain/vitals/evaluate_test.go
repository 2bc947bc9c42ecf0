package vitals

import (
	"reflect"
	"testing"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestEvaluate_NormalReading(t *testing.T) {
	r := Reading{
		HeartRate:        intPtr(72),
		SystolicBP:       intPtr(118),
		DiastolicBP:      intPtr(76),
		Temperature:      floatPtr(98.6),
		TemperatureUnit:  Fahrenheit,
		RespiratoryRate:  intPtr(16),
		OxygenSaturation: intPtr(98),
		Glucose:          floatPtr(95),
	}
	if findings := Evaluate(r); len(findings) != 0 {
		t.Errorf("expected no findings, got %+v", findings)
	}
}

func TestEvaluate_EmptyReading(t *testing.T) {
	if findings := Evaluate(Reading{}); len(findings) != 0 {
		t.Errorf("expected no findings for empty reading, got %+v", findings)
	}
}

func TestEvaluate_HeartRateBands(t *testing.T) {
	tests := []struct {
		hr   int
		want Band
	}{
		{182, BandBlue},
		{25, BandBlue},
		{145, BandRed},
		{38, BandRed},
		{125, BandOrange},
		{48, BandOrange},
		{72, BandNormal},
		{120, BandNormal},
	}
	for _, tt := range tests {
		findings := Evaluate(Reading{HeartRate: intPtr(tt.hr)})
		if tt.want == BandNormal {
			if len(findings) != 0 {
				t.Errorf("HR %d: expected no findings, got %+v", tt.hr, findings)
			}
			continue
		}
		if len(findings) != 1 {
			t.Fatalf("HR %d: expected 1 finding, got %d", tt.hr, len(findings))
		}
		if findings[0].Band != tt.want {
			t.Errorf("HR %d: band = %s, want %s", tt.hr, findings[0].Band, tt.want)
		}
	}
}

func TestEvaluate_TachycardiaWithNormalBP(t *testing.T) {
	r := Reading{
		HeartRate:   intPtr(182),
		SystolicBP:  intPtr(118),
		DiastolicBP: intPtr(76),
	}
	findings := Evaluate(r)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	f := findings[0]
	if f.Metric != "Heart Rate" || f.Value != "182" || f.Band != BandBlue {
		t.Errorf("finding = %+v", f)
	}
	if f.ContactLevel == "" {
		t.Error("contact level must be populated for abnormal findings")
	}
}

func TestEvaluate_MetricOrder(t *testing.T) {
	r := Reading{
		HeartRate:        intPtr(145),
		SystolicBP:       intPtr(190),
		Temperature:      floatPtr(104.5),
		TemperatureUnit:  Fahrenheit,
		OxygenSaturation: intPtr(82),
		Glucose:          floatPtr(45),
	}
	findings := Evaluate(r)
	var order []string
	for _, f := range findings {
		order = append(order, f.Metric)
	}
	want := []string{"Heart Rate", "Systolic BP", "Temperature", "Oxygen Saturation", "Blood Glucose"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("metric order = %v, want %v", order, want)
	}
}

func TestEvaluate_ValueFormatting(t *testing.T) {
	r := Reading{
		Temperature:      floatPtr(101.3),
		TemperatureUnit:  Fahrenheit,
		OxygenSaturation: intPtr(88),
		Glucose:          floatPtr(55),
	}
	findings := Evaluate(r)
	byMetric := map[string]string{}
	for _, f := range findings {
		byMetric[f.Metric] = f.Value
	}
	if byMetric["Temperature"] != "101.3°F" {
		t.Errorf("temperature value = %q", byMetric["Temperature"])
	}
	if byMetric["Oxygen Saturation"] != "88%" {
		t.Errorf("spo2 value = %q", byMetric["Oxygen Saturation"])
	}
	if byMetric["Blood Glucose"] != "55 mg/dL" {
		t.Errorf("glucose value = %q", byMetric["Blood Glucose"])
	}
}

func TestEvaluate_CelsiusConversion(t *testing.T) {
	// 40.5°C is 104.9°F, a red-band fever.
	r := Reading{Temperature: floatPtr(40.5), TemperatureUnit: Celsius}
	findings := Evaluate(r)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	if findings[0].Band != BandRed {
		t.Errorf("band = %s, want red", findings[0].Band)
	}
	if findings[0].Value != "40.5°C" {
		t.Errorf("value = %q, want original unit preserved", findings[0].Value)
	}
}

func TestEvaluate_OxygenHasNoUpperBound(t *testing.T) {
	findings := Evaluate(Reading{OxygenSaturation: intPtr(100)})
	if len(findings) != 0 {
		t.Errorf("SpO2 100 must be normal, got %+v", findings)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	r := Reading{
		HeartRate: intPtr(145),
		Glucose:   floatPtr(460),
	}
	first := Evaluate(r)
	for i := 0; i < 10; i++ {
		if got := Evaluate(r); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}
