package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/printquote/internal/geometry"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/stl"
)

// meshReport describes a decoded model. Lengths are in millimetres.
type meshReport struct {
	stl.Info
	VolumeCM3      float64          `json:"volumeCm3"`
	SurfaceAreaMM2 float64          `json:"surfaceAreaMm2"`
	SizeMM         geometry.Vector3 `json:"sizeMm"`
}

func measureSTL(data []byte) (meshReport, error) {
	return reportMesh(stl.Decode(data))
}

func reportMesh(mesh geometry.Mesh, info stl.Info, err error) (meshReport, error) {
	if err != nil {
		return meshReport{Info: info}, err
	}
	volume, err := mesh.Volume()
	if err != nil {
		return meshReport{Info: info}, err
	}
	return meshReport{
		Info:           info,
		VolumeCM3:      volume / pricing.CubicMMPerCM3,
		SurfaceAreaMM2: mesh.SurfaceArea(),
		SizeMM:         mesh.BoundingBox().Size(),
	}, nil
}

// fileEstimate is the outcome for one file. Err is set instead of Estimate
// when the estimate is unavailable.
type fileEstimate struct {
	File     string          `json:"file"`
	Mesh     *meshReport     `json:"mesh,omitempty"`
	Estimate *pricing.Result `json:"estimate,omitempty"`
	Err      error           `json:"-"`
}

func (f fileEstimate) MarshalJSON() ([]byte, error) {
	type plain fileEstimate
	out := struct {
		plain
		Error string       `json:"error,omitempty"`
		Kind  pricing.Kind `json:"kind,omitempty"`
	}{plain: plain(f)}
	if f.Err != nil {
		out.Error = f.Err.Error()
		out.Kind = pricing.KindOf(f.Err)
	}
	return json.Marshal(out)
}

// estimateFlags mirrors the inputs a customer can change.
type estimateFlags struct {
	material   string
	usage      float64
	weight     float64
	throughput float64
	hours      float64
	copies     int
	colors     int
	json       bool
}

func (f estimateFlags) input(cmd *cobra.Command) (pricing.Input, error) {
	material, err := pricing.ParseMaterial(f.material)
	if err != nil {
		return pricing.Input{}, err
	}

	in := pricing.Input{Material: material, Copies: f.copies, Colors: f.colors}
	if cmd.Flags().Changed("usage") {
		in.UsageFactor = pricing.Known(f.usage)
	}
	if cmd.Flags().Changed("weight") {
		in.WeightG = pricing.Known(f.weight)
	}
	if cmd.Flags().Changed("throughput") {
		in.ThroughputGPerH = pricing.Known(f.throughput)
	}
	if cmd.Flags().Changed("time") {
		in.PrintHours = pricing.Known(f.hours)
	}
	return in, nil
}

func (f *estimateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.material, "material", "m", pricing.PLA.String(), "material: PLA, PETG or ABS")
	cmd.Flags().Float64Var(&f.usage, "usage", 0, "usage factor override (0-1]")
	cmd.Flags().Float64VarP(&f.weight, "weight", "w", 0, "weight override in grams")
	cmd.Flags().Float64Var(&f.throughput, "throughput", 0, "printer throughput override in g/h")
	cmd.Flags().Float64Var(&f.hours, "time", 0, "print time override in hours")
	cmd.Flags().IntVarP(&f.copies, "copies", "n", 1, "number of copies")
	cmd.Flags().IntVar(&f.colors, "colors", 1, "number of colors (AMS)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON")
}

var estimateOpts estimateFlags

var estimateCmd = &cobra.Command{
	Use:   "estimate [file.stl]...",
	Short: "Estimate weight, print time and price for STL files",
	Long: `Estimate weight, print time and price for each STL file. Files are
processed concurrently and reported in argument order. Without files, --weight
prices a model of known weight.`,
	RunE: runEstimate,
}

func init() {
	estimateOpts.register(estimateCmd)
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadPricing()
	if err != nil {
		return err
	}
	in, err := estimateOpts.input(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 && !in.WeightG.Valid {
		return errors.New("give at least one STL file or --weight")
	}

	var results []fileEstimate
	if len(args) == 0 {
		results = []fileEstimate{estimateInput(cfg, "-", in)}
	} else {
		results, err = estimateFiles(cmd.Context(), cfg, in, args)
		if err != nil {
			return err
		}
	}

	if err := printEstimates(cmd.OutOrStdout(), results, estimateOpts.json); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d estimates unavailable", failed, len(results))
	}
	return nil
}

// estimateFiles measures every file concurrently. A file that cannot be
// estimated records its error; only cancellation aborts the batch.
func estimateFiles(ctx context.Context, cfg pricing.Config, in pricing.Input, paths []string) ([]fileEstimate, error) {
	results := make([]fileEstimate, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = estimatePath(cfg, in, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func estimatePath(cfg pricing.Config, in pricing.Input, path string) fileEstimate {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fileEstimate{File: name, Err: fmt.Errorf("read %s: %w", path, err)}
	}

	report, err := measureSTL(data)
	if err != nil {
		logger.Debug("mesh unavailable", zap.String("file", path), zap.Error(err))
		if !in.WeightG.Valid {
			return fileEstimate{File: name, Err: err}
		}
	} else {
		in.VolumeCM3 = pricing.Known(report.VolumeCM3)
	}

	out := estimateInput(cfg, name, in)
	if err == nil {
		out.Mesh = &report
	}
	return out
}

func estimateInput(cfg pricing.Config, name string, in pricing.Input) fileEstimate {
	res, err := pricing.Estimate(cfg, in)
	if err != nil {
		return fileEstimate{File: name, Err: err}
	}
	return fileEstimate{File: name, Estimate: &res}
}

func printEstimates(w io.Writer, results []fileEstimate, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tMATERIAL\tVOLUME cm³\tWEIGHT g\tTIME h\tPER PIECE\tCOPIES\tTOTAL")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\tunavailable (%s): %v\n", r.File, pricing.KindOf(r.Err), r.Err)
			continue
		}
		e := r.Estimate
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s %s\t%d\t%s %s\n",
			r.File, e.Material,
			formatMeasure(e.VolumeCM3, 1),
			formatMeasure(e.WeightG, 0),
			formatMeasure(e.PrintHours, 1),
			formatMeasure(e.PricePerPiece, 2), e.Currency,
			e.Copies,
			formatMeasure(e.Total, 2), e.Currency)
	}
	return tw.Flush()
}

func formatMeasure(m pricing.Measure, decimals int) string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, m.Value)
}
