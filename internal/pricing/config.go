package pricing

import (
	"errors"
	"fmt"
)

// CubicMMPerCM3 converts STL volumes, which are in millimetres, to cm³.
const CubicMMPerCM3 = 1000.0

// Profile holds the per-material constants.
type Profile struct {
	// DensityGPerCM3 is the filament density.
	DensityGPerCM3 float64
	// UsageFactor is the share of the solid volume actually printed
	// (walls, infill and waste).
	UsageFactor float64
	// ThroughputGPerH is the printer's deposition rate, used for print time.
	ThroughputGPerH float64
}

// Config holds every pricing constant. Estimates never read constants from
// anywhere else.
type Config struct {
	RatePerKg              float64
	Currency               string
	RoundToG               float64
	FreeColors             int
	SurchargePerExtraColor float64
	Profiles               [numMaterials]Profile
}

// DefaultConfig returns the shop's standard price list.
func DefaultConfig() Config {
	cfg := Config{
		RatePerKg:              150,
		Currency:               "PLN",
		RoundToG:               1,
		FreeColors:             1,
		SurchargePerExtraColor: 0,
	}
	cfg.Profiles[PLA] = Profile{DensityGPerCM3: 1.24, UsageFactor: 0.43, ThroughputGPerH: 23}
	cfg.Profiles[PETG] = Profile{DensityGPerCM3: 1.27, UsageFactor: 0.45, ThroughputGPerH: 22}
	cfg.Profiles[ABS] = Profile{DensityGPerCM3: 1.04, UsageFactor: 0.40, ThroughputGPerH: 22}
	return cfg
}

// Profile returns the constants for m.
func (c Config) Profile(m Material) (Profile, error) {
	if !m.Valid() {
		return Profile{}, fmt.Errorf("%w: unknown material %d", ErrInvalidParameter, uint8(m))
	}
	return c.Profiles[m], nil
}

// Validate checks that every constant can produce a meaningful estimate.
func (c Config) Validate() error {
	var errs []error
	if !(c.RatePerKg > 0) {
		errs = append(errs, fmt.Errorf("%w: ratePerKg must be > 0, got %v", ErrInvalidParameter, c.RatePerKg))
	}
	if !(c.RoundToG >= 0) {
		errs = append(errs, fmt.Errorf("%w: roundToG must be >= 0, got %v", ErrInvalidParameter, c.RoundToG))
	}
	if c.FreeColors < 0 {
		errs = append(errs, fmt.Errorf("%w: freeColors must be >= 0, got %d", ErrInvalidParameter, c.FreeColors))
	}
	if !(c.SurchargePerExtraColor >= 0) {
		errs = append(errs, fmt.Errorf("%w: surchargePerExtraColor must be >= 0, got %v", ErrInvalidParameter, c.SurchargePerExtraColor))
	}
	for _, m := range Materials() {
		p := c.Profiles[m]
		if !(p.DensityGPerCM3 > 0) {
			errs = append(errs, fmt.Errorf("%w: %s density must be > 0, got %v", ErrInvalidParameter, m, p.DensityGPerCM3))
		}
		if !(p.UsageFactor > 0 && p.UsageFactor <= 1) {
			errs = append(errs, fmt.Errorf("%w: %s usageFactor must be in (0, 1], got %v", ErrInvalidParameter, m, p.UsageFactor))
		}
		if !(p.ThroughputGPerH > 0) {
			errs = append(errs, fmt.Errorf("%w: %s throughputGPerH must be > 0, got %v", ErrInvalidParameter, m, p.ThroughputGPerH))
		}
	}
	return errors.Join(errs...)
}
