package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/printquote/internal/pricing"
)

// PricingFile is the YAML layout of a price list. Omitted fields keep the
// default value.
type PricingFile struct {
	RatePerKg              *float64                   `yaml:"ratePerKg"`
	Currency               string                     `yaml:"currency"`
	RoundToG               *float64                   `yaml:"roundToG"`
	FreeColors             *int                       `yaml:"freeColors"`
	SurchargePerExtraColor *float64                   `yaml:"surchargePerExtraColor"`
	Materials              map[string]MaterialProfile `yaml:"materials"`
}

// MaterialProfile overrides one material's constants.
type MaterialProfile struct {
	Density         *float64 `yaml:"density"`
	UsageFactor     *float64 `yaml:"usageFactor"`
	ThroughputGPerH *float64 `yaml:"throughputGPerH"`
}

// LoadPricing returns the default price list overlaid with the YAML file at
// path. An empty path returns the defaults.
func LoadPricing(path string) (pricing.Config, error) {
	cfg := pricing.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("read pricing file: %w", err)
	}
	return ParsePricing(data)
}

// ParsePricing overlays YAML data on the default price list and validates
// the result.
func ParsePricing(data []byte) (pricing.Config, error) {
	cfg := pricing.DefaultConfig()

	var file PricingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse pricing file: %w", err)
	}

	setFloat(&cfg.RatePerKg, file.RatePerKg)
	setFloat(&cfg.RoundToG, file.RoundToG)
	setFloat(&cfg.SurchargePerExtraColor, file.SurchargePerExtraColor)
	if file.FreeColors != nil {
		cfg.FreeColors = *file.FreeColors
	}
	if file.Currency != "" {
		cfg.Currency = file.Currency
	}

	for name, override := range file.Materials {
		m, err := pricing.ParseMaterial(name)
		if err != nil {
			return cfg, fmt.Errorf("pricing file: %w", err)
		}
		p := cfg.Profiles[m]
		setFloat(&p.DensityGPerCM3, override.Density)
		setFloat(&p.UsageFactor, override.UsageFactor)
		setFloat(&p.ThroughputGPerH, override.ThroughputGPerH)
		cfg.Profiles[m] = p
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("pricing file: %w", err)
	}
	return cfg, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
