package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/printquote/internal/pricing"
)

type materialView struct {
	Name            string  `json:"name"`
	Density         float64 `json:"density"`
	UsageFactor     float64 `json:"usageFactor"`
	ThroughputGPerH float64 `json:"throughputGPerH"`
}

type pricingView struct {
	RatePerKg              float64        `json:"ratePerKg"`
	Currency               string         `json:"currency"`
	RoundToG               float64        `json:"roundToG"`
	FreeColors             int            `json:"freeColors"`
	SurchargePerExtraColor float64        `json:"surchargePerExtraColor"`
	Materials              []materialView `json:"materials"`
}

func newPricingView(cfg pricing.Config) pricingView {
	view := pricingView{
		RatePerKg:              cfg.RatePerKg,
		Currency:               cfg.Currency,
		RoundToG:               cfg.RoundToG,
		FreeColors:             cfg.FreeColors,
		SurchargePerExtraColor: cfg.SurchargePerExtraColor,
	}
	for _, m := range pricing.Materials() {
		p := cfg.Profiles[m]
		view.Materials = append(view.Materials, materialView{
			Name:            m.String(),
			Density:         p.DensityGPerCM3,
			UsageFactor:     p.UsageFactor,
			ThroughputGPerH: p.ThroughputGPerH,
		})
	}
	return view
}

var materialsJSON bool

var materialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "Print the active price list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadPricing()
		if err != nil {
			return err
		}
		view := newPricingView(cfg)

		out := cmd.OutOrStdout()
		if materialsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}

		fmt.Fprintf(out, "Rate: %.2f %s/kg, weight rounded to %g g, %d free color(s), %.2f %s per extra color\n\n",
			view.RatePerKg, view.Currency, view.RoundToG, view.FreeColors, view.SurchargePerExtraColor, view.Currency)

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MATERIAL\tDENSITY g/cm³\tUSAGE\tTHROUGHPUT g/h")
		for _, m := range view.Materials {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.1f\n", m.Name, m.Density, m.UsageFactor, m.ThroughputGPerH)
		}
		return tw.Flush()
	},
}

func init() {
	materialsCmd.Flags().BoolVar(&materialsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(materialsCmd)
}
