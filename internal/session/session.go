// Package session tracks the model a customer is currently pricing. A new
// file selection supersedes any parse still running for an older one.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Simplici0/printquote/internal/geometry"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/stl"
)

// Generation identifies one file selection. It only grows.
type Generation uint64

// Parser turns raw file bytes into a mesh.
type Parser func(data []byte) (geometry.Mesh, stl.Info, error)

// Params are the customer's choices, independent of the selected file.
type Params struct {
	Material        pricing.Material
	UsageFactor     pricing.Measure
	WeightG         pricing.Measure
	ThroughputGPerH pricing.Measure
	PrintHours      pricing.Measure
	Copies          int
	Colors          int
}

// Selection is the state of the active file.
type Selection struct {
	Name       string
	Size       int
	Generation Generation
	Pending    bool
	Info       stl.Info
	VolumeCM3  pricing.Measure
	Err        error
}

// Session holds one customer's selection and parameters.
type Session struct {
	cfg    pricing.Config
	parse  Parser
	logger *zap.Logger

	mu       sync.Mutex
	gen      Generation
	sel      Selection
	params   Params
	inflight int
	idle     chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithParser replaces stl.Decode as the mesh parser.
func WithParser(p Parser) Option {
	return func(s *Session) { s.parse = p }
}

// WithLogger sets the logger used for discarded and failed parses.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New returns a session with no file selected and default parameters.
func New(cfg pricing.Config, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		parse:  stl.Decode,
		logger: zap.NewNop(),
		params: Params{Material: pricing.PLA, Copies: 1, Colors: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select makes data the active file and parses it in the background. The
// volume is unavailable until the parse completes, and any manual weight or
// print time from the previous file is dropped.
func (s *Session) Select(name string, data []byte) Generation {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.sel = Selection{Name: name, Size: len(data), Generation: gen, Pending: true}
	s.params.WeightG = pricing.Unknown
	s.params.PrintHours = pricing.Unknown
	s.startLocked()
	s.mu.Unlock()

	go func() {
		info, volume, err := s.measure(data)
		s.complete(gen, info, volume, err)
	}()
	return gen
}

// Clear drops the active file. Parses still running are discarded when they
// finish.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.sel = Selection{Generation: s.gen}
	s.params.WeightG = pricing.Unknown
	s.params.PrintHours = pricing.Unknown
}

// Update applies fn to the parameters.
func (s *Session) Update(fn func(*Params)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.params)
}

// Snapshot returns copies of the current selection and parameters.
func (s *Session) Snapshot() (Selection, Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel, s.params
}

// Pending reports whether the active file is still being parsed.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Pending
}

// Estimate prices the current inputs from scratch. When no manual weight is
// set and the active file failed to parse, the parse error is returned.
func (s *Session) Estimate() (pricing.Result, error) {
	sel, params := s.Snapshot()
	if !params.WeightG.Valid && sel.Err != nil {
		return pricing.Result{}, fmt.Errorf("%s: %w", sel.Name, sel.Err)
	}

	return pricing.Estimate(s.cfg, pricing.Input{
		Material:        params.Material,
		VolumeCM3:       sel.VolumeCM3,
		WeightG:         params.WeightG,
		UsageFactor:     params.UsageFactor,
		ThroughputGPerH: params.ThroughputGPerH,
		PrintHours:      params.PrintHours,
		Copies:          params.Copies,
		Colors:          params.Colors,
	})
}

// Wait blocks until no parse is running or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) measure(data []byte) (stl.Info, pricing.Measure, error) {
	mesh, info, err := s.parse(data)
	if err != nil {
		return info, pricing.Unknown, err
	}
	volume, err := mesh.Volume()
	if err != nil {
		return info, pricing.Unknown, err
	}
	return info, pricing.Known(volume / pricing.CubicMMPerCM3), nil
}

func (s *Session) complete(gen Generation, info stl.Info, volume pricing.Measure, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.finishLocked()

	if gen != s.gen {
		s.logger.Debug("discarding superseded parse",
			zap.Uint64("generation", uint64(gen)),
			zap.Uint64("active", uint64(s.gen)))
		return
	}

	s.sel.Pending = false
	s.sel.Info = info
	s.sel.VolumeCM3 = volume
	s.sel.Err = err
	if err != nil {
		s.logger.Warn("model parse failed",
			zap.String("file", s.sel.Name),
			zap.String("kind", string(pricing.KindOf(err))),
			zap.Error(err))
		return
	}
	s.logger.Debug("model parsed",
		zap.String("file", s.sel.Name),
		zap.Int("triangles", info.Triangles),
		zap.Float64("volume_cm3", volume.Value))
}

func (s *Session) startLocked() {
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
}

func (s *Session) finishLocked() {
	s.inflight--
	if s.inflight == 0 {
		close(s.idle)
	}
}
