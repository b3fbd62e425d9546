package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Simplici0/printquote/internal/geometry"
	"github.com/Simplici0/printquote/internal/geometry/meshtest"
	"github.com/Simplici0/printquote/internal/pricing"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestEstimateFilesKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "big.stl", cubeSTL()),
		writeFile(t, dir, "broken.stl", []byte("solid broken\nfacet\nendfacet\n")),
		writeFile(t, dir, "small.stl", asciiSTL("small", meshtest.Cube(geometry.NewVector3(0, 0, 0), 10))),
		filepath.Join(dir, "missing.stl"),
	}

	results, err := estimateFiles(context.Background(), pricing.DefaultConfig(), pricing.Input{Material: pricing.PLA}, paths)
	if err != nil {
		t.Fatalf("estimateFiles returned error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	for i, want := range []string{"big.stl", "broken.stl", "small.stl", "missing.stl"} {
		if results[i].File != want {
			t.Fatalf("result %d: expected %s, got %s", i, want, results[i].File)
		}
	}
	if results[0].Err != nil || results[0].Estimate.WeightG.Value != 67 {
		t.Fatalf("unexpected big.stl result: %+v", results[0])
	}
	if !errors.Is(results[1].Err, geometry.ErrMalformedMesh) {
		t.Fatalf("expected malformed mesh for broken.stl, got %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Estimate.WeightG.Value != 1 {
		t.Fatalf("unexpected small.stl result: %+v", results[2])
	}
	if results[3].Err == nil || pricing.KindOf(results[3].Err) != pricing.KindInternal {
		t.Fatalf("expected read error for missing.stl, got %v", results[3].Err)
	}
}

func TestEstimatePathFallsBackToWeight(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.stl", []byte("solid empty\nendsolid empty\n"))
	in := pricing.Input{Material: pricing.PLA, WeightG: pricing.Known(134)}

	got := estimatePath(pricing.DefaultConfig(), in, path)
	if got.Err != nil {
		t.Fatalf("expected weight-only estimate, got %v", got.Err)
	}
	if got.Mesh != nil {
		t.Fatalf("expected no mesh report, got %+v", got.Mesh)
	}
	if got.Estimate.Total.Value != 20.1 {
		t.Fatalf("expected total 20.10, got %v", got.Estimate.Total)
	}

	got = estimatePath(pricing.DefaultConfig(), pricing.Input{Material: pricing.PLA}, path)
	if !errors.Is(got.Err, geometry.ErrEmptyMesh) {
		t.Fatalf("expected empty mesh error, got %v", got.Err)
	}
}

func TestPrintEstimatesTable(t *testing.T) {
	results := []fileEstimate{
		estimateInput(pricing.DefaultConfig(), "part.stl", pricing.Input{Material: pricing.PETG, WeightG: pricing.Known(134), Copies: 3}),
		{File: "broken.stl", Err: geometry.ErrMalformedMesh},
	}

	var out bytes.Buffer
	if err := printEstimates(&out, results, false); err != nil {
		t.Fatalf("printEstimates returned error: %v", err)
	}

	text := out.String()
	for _, expected := range []string{"FILE", "part.stl", "PETG", "134", "20.10 PLN", "60.30 PLN", "broken.stl", "unavailable (malformed_mesh)"} {
		if !strings.Contains(text, expected) {
			t.Fatalf("expected output to contain %q, got:\n%s", expected, text)
		}
	}
}

func TestPrintEstimatesJSON(t *testing.T) {
	results := []fileEstimate{
		estimateInput(pricing.DefaultConfig(), "part.stl", pricing.Input{Material: pricing.ABS, WeightG: pricing.Known(100), ThroughputGPerH: pricing.Known(0)}),
		{File: "none.stl", Err: pricing.ErrUnavailable},
	}

	var out bytes.Buffer
	if err := printEstimates(&out, results, true); err != nil {
		t.Fatalf("printEstimates returned error: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}

	estimate, ok := decoded[0]["estimate"].(map[string]any)
	if !ok {
		t.Fatalf("expected estimate object, got %v", decoded[0])
	}
	if estimate["timeH"] != nil {
		t.Fatalf("expected null print time for zero throughput, got %v", estimate["timeH"])
	}
	if estimate["total"] != 15.0 {
		t.Fatalf("expected total 15, got %v", estimate["total"])
	}
	if decoded[1]["kind"] != string(pricing.KindUnavailable) || decoded[1]["error"] == "" {
		t.Fatalf("expected unavailable error entry, got %v", decoded[1])
	}
}
