package quotes

import (
	"fmt"
	"strings"

	"github.com/Simplici0/printquote/internal/pricing"
)

// Subject returns the one-line summary used as the mail subject.
func Subject(r Request) string {
	return fmt.Sprintf("[Quote] %s (%s, %s g, x%d)",
		r.Filename, r.Estimate.Material, formatMeasure(r.Estimate.WeightG, 0), max(1, r.Estimate.Copies))
}

// Text renders r as the plain-text body sent to the shop.
func Text(r Request) string {
	e := r.Estimate
	lines := []string{
		"Subject: " + Subject(r),
		"",
		"Name: " + orDash(r.Name),
		"E-mail: " + orDash(r.Email),
		"Phone: " + orDash(r.Phone),
		"",
		"Model:",
		fmt.Sprintf("  file: %s (%d B)", r.Filename, r.FileSize),
		"  material: " + e.Material.String(),
		fmt.Sprintf("  colors (AMS): %d", max(1, e.Colors)),
		fmt.Sprintf("  copies: %d", max(1, e.Copies)),
		"  volume: " + withUnit(formatMeasure(e.VolumeCM3, 1), "cm³"),
		"  weight: " + withUnit(formatMeasure(e.WeightG, 0), "g"),
		"  time: " + withUnit(formatMeasure(e.PrintHours, 1), "h"),
		"  price/piece: " + withUnit(formatMeasure(e.PricePerPiece, 2), e.Currency),
		"  total: " + withUnit(formatMeasure(e.Total, 2), e.Currency),
		"",
		"Notes: " + orDash(r.Notes),
	}
	return strings.Join(lines, "\n") + "\n"
}

func formatMeasure(m pricing.Measure, decimals int) string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, m.Value)
}

func withUnit(v, unit string) string {
	if v == "-" || unit == "" {
		return v
	}
	return v + " " + unit
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
