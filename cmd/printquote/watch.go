package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/session"
	"github.com/Simplici0/printquote/internal/watcher"
)

var (
	watchOpts     estimateFlags
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <file.stl>",
	Short: "Re-estimate a model every time it is saved",
	Long: `Watch an STL file and print a fresh estimate whenever it changes. A save
that arrives while an older version is still being parsed replaces it; the
older result is never printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchOpts.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "quiet period before re-reading the file")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadPricing()
	if err != nil {
		return err
	}
	in, err := watchOpts.input(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s := session.New(cfg, session.WithLogger(logger))
	s.Update(func(p *session.Params) {
		p.Material = in.Material
		p.UsageFactor = in.UsageFactor
		p.ThroughputGPerH = in.ThroughputGPerH
		p.Copies = in.Copies
		p.Colors = in.Colors
	})

	r := &reporter{session: s, out: cmd.OutOrStdout(), weight: in.WeightG, hours: in.PrintHours}

	fw, err := watcher.New(watchDebounce, logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	path := args[0]
	if err := fw.Watch([]string{path}, func(p string) { r.reload(ctx, p) }); err != nil {
		return err
	}

	r.reload(ctx, path)
	fw.Run(ctx)
	return s.Wait(context.Background())
}

// reporter prints one estimate per file selection, skipping selections that
// were superseded before their parse finished.
type reporter struct {
	session *session.Session
	out     io.Writer
	// weight and hours are the command-line overrides, reapplied after each
	// selection clears them.
	weight pricing.Measure
	hours  pricing.Measure

	mu sync.Mutex
}

func (r *reporter) reload(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("read model", zap.String("file", path), zap.Error(err))
		return
	}

	gen := r.session.Select(filepath.Base(path), data)
	r.session.Update(func(p *session.Params) {
		p.WeightG = r.weight
		p.PrintHours = r.hours
	})
	if err := r.session.Wait(ctx); err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sel, _ := r.session.Snapshot()
	if sel.Generation != gen {
		return
	}
	res, err := r.session.Estimate()
	stamp := time.Now().Format(time.TimeOnly)
	if err != nil {
		fmt.Fprintf(r.out, "%s  %s: unavailable (%s): %v\n", stamp, sel.Name, pricing.KindOf(err), err)
		return
	}
	fmt.Fprintf(r.out, "%s  %s: %s g, %s h, %s %s per piece, %s %s for %d\n",
		stamp, sel.Name,
		formatMeasure(res.WeightG, 0),
		formatMeasure(res.PrintHours, 1),
		formatMeasure(res.PricePerPiece, 2), res.Currency,
		formatMeasure(res.Total, 2), res.Currency,
		res.Copies)
}
