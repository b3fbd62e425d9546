package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Simplici0/printquote/internal/geometry"
	"github.com/Simplici0/printquote/internal/geometry/meshtest"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/session"
	"github.com/Simplici0/printquote/internal/stl"
)

// heldParser parses a 50 mm cube, but only after the file's content has been
// released. Each parse announces its content on started.
type heldParser struct {
	started chan string
	release map[string]chan struct{}
}

func newHeldParser(contents ...string) *heldParser {
	p := &heldParser{started: make(chan string, len(contents)), release: make(map[string]chan struct{})}
	for _, c := range contents {
		p.release[c] = make(chan struct{})
	}
	return p
}

func (p *heldParser) parse(data []byte) (geometry.Mesh, stl.Info, error) {
	content := string(data)
	p.started <- content
	<-p.release[content]
	return meshtest.Cube(geometry.Vector3{}, 50), stl.Info{Format: stl.FormatASCII, Triangles: 12}, nil
}

func awaitStart(t *testing.T, p *heldParser, want string) {
	t.Helper()
	select {
	case got := <-p.started:
		if got != want {
			t.Fatalf("expected parse of %q to start, got %q", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("parse of %q never started", want)
	}
}

func TestReporterPrintsOnlyLatestSelection(t *testing.T) {
	dir := t.TempDir()
	older := writeFile(t, dir, "older.stl", []byte("older"))
	newer := writeFile(t, dir, "newer.stl", []byte("newer"))

	parser := newHeldParser("older", "newer")
	var out bytes.Buffer
	r := &reporter{
		session: session.New(pricing.DefaultConfig(), session.WithParser(parser.parse)),
		out:     &out,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{}, 2)
	go func() { r.reload(ctx, older); done <- struct{}{} }()
	awaitStart(t, parser, "older")
	go func() { r.reload(ctx, newer); done <- struct{}{} }()
	awaitStart(t, parser, "newer")

	// The newer save finishes first; the older one must not overwrite it.
	close(parser.release["newer"])
	close(parser.release["older"])
	<-done
	<-done

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one estimate line, got %d:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "newer.stl: 67 g") {
		t.Fatalf("expected estimate for newer.stl, got %q", lines[0])
	}
}

func TestReporterReappliesOverridesAfterSelect(t *testing.T) {
	path := writeFile(t, t.TempDir(), "part.stl", []byte("part"))

	parser := newHeldParser("part")
	close(parser.release["part"])
	var out bytes.Buffer
	r := &reporter{
		session: session.New(pricing.DefaultConfig(), session.WithParser(parser.parse)),
		out:     &out,
		weight:  pricing.Known(134),
		hours:   pricing.Known(4),
	}

	r.reload(context.Background(), path)

	line := out.String()
	for _, expected := range []string{"part.stl: 134 g", "4.0 h", "20.10 PLN per piece"} {
		if !strings.Contains(line, expected) {
			t.Fatalf("expected output to contain %q, got %q", expected, line)
		}
	}
	if _, params := r.session.Snapshot(); params.WeightG != pricing.Known(134) || params.PrintHours != pricing.Known(4) {
		t.Fatalf("expected overrides to stay applied, got %+v", params)
	}
}
