// Package pricing turns a mesh volume or a known weight into print weight,
// print time and price.
package pricing

import (
	"fmt"
	"math"
)

// Input is everything an estimate depends on. Zero-valued measures mean "not
// supplied"; the material profile then provides the default.
type Input struct {
	Material Material
	// VolumeCM3 is the solid volume derived from the mesh.
	VolumeCM3 Measure
	// WeightG overrides the weight derived from VolumeCM3.
	WeightG Measure
	// UsageFactor overrides the material's usage factor.
	UsageFactor Measure
	// ThroughputGPerH overrides the material's throughput.
	ThroughputGPerH Measure
	// PrintHours overrides the time derived from weight and throughput.
	PrintHours Measure
	Copies     int
	Colors          int
}

// Result is the estimate for one model.
type Result struct {
	Material      Material `json:"material"`
	VolumeCM3     Measure  `json:"volumeCm3"`
	WeightG       Measure  `json:"weightG"`
	PrintHours    Measure  `json:"timeH"`
	PricePerPiece Measure  `json:"pricePerPiece"`
	Total         Measure  `json:"total"`
	Copies        int      `json:"copies"`
	Colors        int      `json:"colors"`
	Currency      string   `json:"currency"`
}

// Weight computes volume × density × usage factor rounded to the nearest
// multiple of roundToG. A roundToG of zero disables rounding.
func Weight(volumeCM3, density, usageFactor, roundToG float64) (float64, error) {
	if !(volumeCM3 >= 0) || math.IsInf(volumeCM3, 0) {
		return 0, fmt.Errorf("%w: volume must be >= 0, got %v", ErrInvalidParameter, volumeCM3)
	}
	if !(density > 0) {
		return 0, fmt.Errorf("%w: density must be > 0, got %v", ErrInvalidParameter, density)
	}
	if !(usageFactor > 0) {
		return 0, fmt.Errorf("%w: usage factor must be > 0, got %v", ErrInvalidParameter, usageFactor)
	}
	return roundTo(volumeCM3*density*usageFactor, roundToG), nil
}

// PrintHours is weight divided by throughput.
func PrintHours(weightG, throughputGPerH float64) (float64, error) {
	if !(throughputGPerH > 0) || math.IsInf(throughputGPerH, 0) {
		return 0, fmt.Errorf("%w: throughput must be > 0, got %v", ErrUnavailable, throughputGPerH)
	}
	return weightG / throughputGPerH, nil
}

// PricePerPiece charges the weight at ratePerKg plus a surcharge for every
// color beyond freeColors. Colors below one count as one.
func PricePerPiece(weightG, ratePerKg float64, colors, freeColors int, surchargePerExtraColor float64) float64 {
	extra := max(0, max(1, colors)-freeColors)
	return roundCents(weightG/1000.0*ratePerKg + float64(extra)*surchargePerExtraColor)
}

// Total multiplies the piece price by the number of copies, never fewer than one.
func Total(pricePerPiece float64, copies int) float64 {
	return roundCents(pricePerPiece * float64(max(1, copies)))
}

// Estimate derives every output from in and cfg. It keeps no state: calling
// it again with the same arguments returns the same result.
//
// A manual weight takes precedence over the mesh volume. Without either the
// estimate is unavailable. A manual print time takes precedence over the
// throughput; otherwise a throughput of zero or less leaves only the print
// time unavailable.
func Estimate(cfg Config, in Input) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	profile, err := cfg.Profile(in.Material)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Material:  in.Material,
		VolumeCM3: in.VolumeCM3,
		Copies:    max(1, in.Copies),
		Colors:    max(1, in.Colors),
		Currency:  cfg.Currency,
	}

	usage := in.UsageFactor.Or(profile.UsageFactor)
	if !(usage > 0 && usage <= 1) {
		return Result{}, fmt.Errorf("%w: usage factor must be in (0, 1], got %v", ErrInvalidParameter, usage)
	}

	if in.PrintHours.Valid && (!(in.PrintHours.Value > 0) || math.IsInf(in.PrintHours.Value, 0)) {
		return Result{}, fmt.Errorf("%w: print time must be > 0, got %v", ErrInvalidParameter, in.PrintHours.Value)
	}

	var weight float64
	switch {
	case in.WeightG.Valid:
		if !(in.WeightG.Value > 0) || math.IsInf(in.WeightG.Value, 0) {
			return Result{}, fmt.Errorf("%w: weight must be > 0, got %v", ErrInvalidParameter, in.WeightG.Value)
		}
		weight = in.WeightG.Value
	case in.VolumeCM3.Valid:
		weight, err = Weight(in.VolumeCM3.Value, profile.DensityGPerCM3, usage, cfg.RoundToG)
		if err != nil {
			return Result{}, err
		}
	default:
		return Result{}, fmt.Errorf("%w: no volume or weight supplied", ErrUnavailable)
	}
	res.WeightG = Known(weight)

	if in.PrintHours.Valid {
		res.PrintHours = in.PrintHours
	} else if hours, err := PrintHours(weight, in.ThroughputGPerH.Or(profile.ThroughputGPerH)); err == nil {
		res.PrintHours = Known(hours)
	}

	perPiece := PricePerPiece(weight, cfg.RatePerKg, res.Colors, cfg.FreeColors, cfg.SurchargePerExtraColor)
	res.PricePerPiece = Known(perPiece)
	res.Total = Known(Total(perPiece, res.Copies))
	return res, nil
}

func roundTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
