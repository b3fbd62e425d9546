package pricing

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SurchargePerExtraColor = 5
	return cfg
}

func TestPricePerPiece_WeightAndColors(t *testing.T) {
	nearlyEqual(t, "one color", PricePerPiece(134, 150, 1, 1, 5), 20.1)
	nearlyEqual(t, "three colors", PricePerPiece(134, 150, 3, 1, 5), 30.1)
	nearlyEqual(t, "zero colors clamps to one", PricePerPiece(134, 150, 0, 1, 5), 20.1)
	nearlyEqual(t, "negative colors clamps to one", PricePerPiece(134, 150, -4, 1, 5), 20.1)
}

func TestTotal_CopiesClampedToOne(t *testing.T) {
	nearlyEqual(t, "copies=0", Total(20.1, 0), 20.1)
	nearlyEqual(t, "copies=-3", Total(20.1, -3), 20.1)
	nearlyEqual(t, "copies=3", Total(20.1, 3), 60.3)
}

func TestWeight_LinearInVolumeAndUsage(t *testing.T) {
	base, err := Weight(100, 1.25, 0.4, 0)
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	doubleVolume, _ := Weight(200, 1.25, 0.4, 0)
	doubleUsage, _ := Weight(100, 1.25, 0.8, 0)

	nearlyEqual(t, "base", base, 50)
	nearlyEqual(t, "double volume", doubleVolume, 2*base)
	nearlyEqual(t, "double usage", doubleUsage, 2*base)
}

func TestWeight_Rounding(t *testing.T) {
	whole, _ := Weight(100, 1.24, 0.43, 1)
	nearlyEqual(t, "whole grams", whole, 53)

	fives, _ := Weight(100, 1.24, 0.43, 5)
	nearlyEqual(t, "5 g steps", fives, 55)

	exact, _ := Weight(100, 1.24, 0.43, 0)
	nearlyEqual(t, "no rounding", exact, 53.32)
}

func TestWeight_RejectsNonPositiveParameters(t *testing.T) {
	for name, args := range map[string][3]float64{
		"zero density":    {10, 0, 0.4},
		"negative usage":  {10, 1.2, -0.1},
		"negative volume": {-1, 1.2, 0.4},
	} {
		if _, err := Weight(args[0], args[1], args[2], 1); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("%s: expected ErrInvalidParameter, got %v", name, err)
		}
	}
}

func TestPrintHours_ZeroThroughputUnavailable(t *testing.T) {
	hours, err := PrintHours(46, 23)
	if err != nil {
		t.Fatalf("PrintHours: %v", err)
	}
	nearlyEqual(t, "hours", hours, 2)

	for _, throughput := range []float64{0, -5, math.NaN()} {
		if _, err := PrintHours(46, throughput); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("throughput %v: expected ErrUnavailable, got %v", throughput, err)
		}
	}
}

func TestEstimate_FromVolume(t *testing.T) {
	// 100 cm³ of PLA at 0.43 usage is 53.32 g, rounded to 53 g.
	res, err := Estimate(testConfig(), Input{Material: PLA, VolumeCM3: Known(100), Copies: 2, Colors: 2})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	nearlyEqual(t, "weight", res.WeightG.Value, 53)
	nearlyEqual(t, "hours", res.PrintHours.Value, 53.0/23.0)
	nearlyEqual(t, "per piece", res.PricePerPiece.Value, 7.95+5)
	nearlyEqual(t, "total", res.Total.Value, 25.9)
	if res.Copies != 2 || res.Colors != 2 || res.Currency != "PLN" {
		t.Fatalf("unexpected result metadata: %+v", res)
	}
}

func TestEstimate_WeightOverrideWins(t *testing.T) {
	res, err := Estimate(testConfig(), Input{Material: PETG, VolumeCM3: Known(1000), WeightG: Known(134), Colors: 3})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	nearlyEqual(t, "weight", res.WeightG.Value, 134)
	nearlyEqual(t, "per piece", res.PricePerPiece.Value, 30.1)
	nearlyEqual(t, "total", res.Total.Value, 30.1)
	nearlyEqual(t, "hours", res.PrintHours.Value, 134.0/22.0)
}

func TestEstimate_MissingVolumeAndWeightUnavailable(t *testing.T) {
	_, err := Estimate(testConfig(), Input{Material: ABS})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if KindOf(err) != KindUnavailable {
		t.Fatalf("expected kind %q, got %q", KindUnavailable, KindOf(err))
	}
}

func TestEstimate_ZeroThroughputLeavesPrice(t *testing.T) {
	res, err := Estimate(testConfig(), Input{Material: PLA, WeightG: Known(134), ThroughputGPerH: Known(0)})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if res.PrintHours.Valid {
		t.Fatalf("expected print time unavailable, got %v", res.PrintHours.Value)
	}
	nearlyEqual(t, "per piece", res.PricePerPiece.Value, 20.1)
}

func TestEstimate_PrintTimeOverrideWins(t *testing.T) {
	res, err := Estimate(testConfig(), Input{Material: PLA, VolumeCM3: Known(100), PrintHours: Known(7.5), ThroughputGPerH: Known(0)})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if !res.PrintHours.Valid {
		t.Fatal("expected manual print time to be available")
	}
	nearlyEqual(t, "hours", res.PrintHours.Value, 7.5)
	// 100 cm³ of PLA is 53 g; the time does not change the price.
	nearlyEqual(t, "weight", res.WeightG.Value, 53)
	nearlyEqual(t, "per piece", res.PricePerPiece.Value, 7.95)

	derived, err := Estimate(testConfig(), Input{Material: PLA, VolumeCM3: Known(100)})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	nearlyEqual(t, "derived hours", derived.PrintHours.Value, 53.0/23.0)
}

func TestEstimate_InvalidOverrides(t *testing.T) {
	cases := map[string]Input{
		"zero weight":         {Material: PLA, WeightG: Known(0)},
		"negative weight":     {Material: PLA, WeightG: Known(-10)},
		"zero usage":          {Material: PLA, VolumeCM3: Known(10), UsageFactor: Known(0)},
		"usage above one":     {Material: PLA, VolumeCM3: Known(10), UsageFactor: Known(1.5)},
		"unknown material":    {Material: Material(42), VolumeCM3: Known(10)},
		"zero print time":     {Material: PLA, WeightG: Known(10), PrintHours: Known(0)},
		"negative print time": {Material: PLA, WeightG: Known(10), PrintHours: Known(-2)},
	}
	for name, in := range cases {
		_, err := Estimate(testConfig(), in)
		if KindOf(err) != KindInvalidParameter {
			t.Fatalf("%s: expected invalid_parameter, got %v", name, err)
		}
	}
}

func TestEstimate_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Profiles[ABS].DensityGPerCM3 = 0
	cfg.Profiles[PLA].ThroughputGPerH = -1

	_, err := Estimate(cfg, Input{Material: PETG, WeightG: Known(10)})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestEstimate_Monotonic(t *testing.T) {
	cfg := testConfig()
	for _, usage := range []float64{0.1, 0.43, 0.8} {
		for _, copies := range []int{0, 1, 2, 10} {
			prev := Result{}
			for _, volume := range []float64{0, 1, 5, 10, 50, 100, 500} {
				res, err := Estimate(cfg, Input{Material: PLA, VolumeCM3: Known(volume), UsageFactor: Known(usage), Copies: copies})
				if err != nil {
					t.Fatalf("Estimate: %v", err)
				}
				if res.WeightG.Value < prev.WeightG.Value || res.Total.Value < prev.Total.Value {
					t.Fatalf("estimate decreased at volume=%v usage=%v copies=%d: %+v < %+v", volume, usage, copies, res, prev)
				}
				prev = res
			}
		}
	}

	low, _ := Estimate(cfg, Input{Material: PLA, VolumeCM3: Known(100), UsageFactor: Known(0.2), Copies: 1})
	high, _ := Estimate(cfg, Input{Material: PLA, VolumeCM3: Known(100), UsageFactor: Known(0.6), Copies: 3})
	if high.WeightG.Value < low.WeightG.Value || high.Total.Value < low.Total.Value {
		t.Fatalf("expected higher usage and copies to cost more: low=%+v high=%+v", low, high)
	}
}

func TestResultJSON_UnavailableIsNull(t *testing.T) {
	res, err := Estimate(testConfig(), Input{Material: PLA, WeightG: Known(134), ThroughputGPerH: Known(-1)})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["timeH"] != nil {
		t.Fatalf("expected timeH null, got %v", decoded["timeH"])
	}
	if decoded["volumeCm3"] != nil {
		t.Fatalf("expected volumeCm3 null, got %v", decoded["volumeCm3"])
	}
	if decoded["material"] != "PLA" || decoded["weightG"] != 134.0 {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestParseMaterial(t *testing.T) {
	m, err := ParseMaterial(" petg ")
	if err != nil || m != PETG {
		t.Fatalf("ParseMaterial(petg) = %v, %v", m, err)
	}
	if _, err := ParseMaterial("nylon"); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for nylon, got %v", err)
	}
}
