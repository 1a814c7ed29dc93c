package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_TuningYAML(t *testing.T) {
	tu, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning.yaml: %v", err)
	}
	if tu.Gravity != [3]float64{0, -9.81, 0} {
		t.Fatalf("gravity: got %v", tu.Gravity)
	}
	if tu.ClusterWidth != 3 || !tu.ClusterLadder {
		t.Fatalf("cluster settings: got width=%d ladder=%v", tu.ClusterWidth, tu.ClusterLadder)
	}
	if tu.Ledger == "" {
		t.Fatalf("expected a ledger path")
	}
	cfg := tu.WorldConfig()
	if cfg.BlockSize.Validate() != nil {
		t.Fatalf("block size should be valid: %+v", cfg.BlockSize)
	}
	if cfg.Solver.G.Y != -9.81 || cfg.Solver.Precision != 0.001 {
		t.Fatalf("solver config: %+v", cfg.Solver)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	tu, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu != Defaults() {
		t.Fatalf("expected defaults, got %+v", tu)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("precision: 0.01\nmax_iterations: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.Precision != 0.01 {
		t.Fatalf("precision: got %v", tu.Precision)
	}
	if tu.MaxIterations != Defaults().MaxIterations {
		t.Fatalf("max_iterations should normalize to the default, got %d", tu.MaxIterations)
	}
	if tu.BlockSize != [3]float64{1, 1, 1} {
		t.Fatalf("block_size should keep its default, got %v", tu.BlockSize)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Tuning)
	}{
		{"zero block size", func(tu *Tuning) { tu.BlockSize[1] = 0 }},
		{"negative precision", func(tu *Tuning) { tu.Precision = -1 }},
		{"precision too large", func(tu *Tuning) { tu.Precision = 2 }},
		{"zero gravity", func(tu *Tuning) { tu.Gravity = [3]float64{} }},
		{"huge cluster width", func(tu *Tuning) { tu.ClusterWidth = 1000 }},
		{"no data dir", func(tu *Tuning) { tu.DataDir = "" }},
	}
	for _, tc := range cases {
		tu := Defaults()
		tc.edit(&tu)
		if err := tu.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("precision: [oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "tuning.yaml") {
		t.Fatalf("expected tuning.yaml error, got %v", err)
	}
}
