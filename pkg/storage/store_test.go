package storage

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore("", "out", "complex", 500); err == nil {
		t.Error("Expected error for empty directory")
	}
	if _, err := NewStore(t.TempDir(), "", "complex", 500); err == nil {
		t.Error("Expected error for empty prefix")
	}
	if _, err := NewStore(t.TempDir(), "out", "complex", 0); err == nil {
		t.Error("Expected error for zero checkpoint interval")
	}
}

func TestStorePaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lig0to1")
	store, err := NewStore(dir, "out", "complex", 500)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected trajectory directory to be created: %v", err)
	}

	if got := store.EqTrajectoryPath(3); got != filepath.Join(dir, "out-complex.eq.lambda_3.csv") {
		t.Errorf("Unexpected equilibrium trajectory path: %s", got)
	}
	if got := store.NeqTrajectoryPath("forward"); got != filepath.Join(dir, "out-complex.neq.forward.csv") {
		t.Errorf("Unexpected switching trajectory path: %s", got)
	}
	if got := store.CheckpointPath(); got != filepath.Join(dir, "out-complex.checkpoint.yaml") {
		t.Errorf("Unexpected checkpoint path: %s", got)
	}
	if got := store.ReportPath(); got != filepath.Join(dir, "out.report.yaml") {
		t.Errorf("Unexpected report path: %s", got)
	}
	if got := ReportPath(dir, "out"); got != store.ReportPath() {
		t.Errorf("Expected report path %s independent of the store, got %s", store.ReportPath(), got)
	}

	if store.RunID() == "" {
		t.Error("Expected a non-empty run ID")
	}
	if store.CheckpointInterval() != 500 {
		t.Errorf("Expected checkpoint interval 500, got %d", store.CheckpointInterval())
	}
}

func TestCheckpointRoundtrip(t *testing.T) {
	store, err := NewStore(t.TempDir(), "out", "solvent", 100)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	// No checkpoint yet
	cp, err := store.LoadCheckpoint()
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if cp != nil {
		t.Fatal("Expected nil checkpoint before any write")
	}

	written := &Checkpoint{
		FEType:       "repex",
		Cycle:        1500,
		FreeEnergies: []float64{0, 0.3, 0.7},
	}
	if err := store.WriteCheckpoint(written); err != nil {
		t.Fatalf("WriteCheckpoint failed: %v", err)
	}

	cp, err = store.LoadCheckpoint()
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if cp == nil {
		t.Fatal("Expected a checkpoint after writing")
	}
	if cp.RunID != store.RunID() {
		t.Errorf("Expected run ID %s, got %s", store.RunID(), cp.RunID)
	}
	if cp.Phase != "solvent" {
		t.Errorf("Expected phase solvent, got %s", cp.Phase)
	}
	if cp.FEType != "repex" {
		t.Errorf("Expected fe_type repex, got %s", cp.FEType)
	}
	if cp.Cycle != 1500 {
		t.Errorf("Expected cycle 1500, got %d", cp.Cycle)
	}
	if len(cp.FreeEnergies) != 3 || cp.FreeEnergies[2] != 0.7 {
		t.Errorf("Unexpected free energies: %v", cp.FreeEnergies)
	}
	if cp.UpdatedAt.IsZero() {
		t.Error("Expected a checkpoint timestamp")
	}
}

func TestWriteWorkSeries(t *testing.T) {
	store, err := NewStore(t.TempDir(), "out", "complex", 100)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	path := store.NeqTrajectoryPath("forward")
	if err := store.WriteWorkSeries(path, []float64{0.5, -1.25, 3.0}); err != nil {
		t.Fatalf("WriteWorkSeries failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open work series: %v", err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read work series: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d", len(records))
	}
	if records[0][0] != "index" || records[0][1] != "work" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if records[2][0] != "1" || records[2][1] != "-1.25" {
		t.Errorf("Unexpected row: %v", records[2])
	}
}

func TestReportBindingDeltaDeltaG(t *testing.T) {
	report := &Report{
		Phases: []PhaseResult{
			{Phase: "complex", FEType: "repex", DeltaF: 1.2, Cycles: 100},
			{Phase: "solvent", FEType: "repex", DeltaF: 0.5, Cycles: 100},
		},
	}

	ddg, ok := report.BindingDeltaDeltaG()
	if !ok {
		t.Fatal("Expected a binding free energy from both phases")
	}
	if math.Abs(ddg-0.7) > 1e-12 {
		t.Errorf("Expected ddG 0.7, got %f", ddg)
	}

	partial := &Report{Phases: []PhaseResult{{Phase: "solvent", DeltaF: 0.5}}}
	if _, ok := partial.BindingDeltaDeltaG(); ok {
		t.Error("Expected no binding free energy without the complex phase")
	}
}

func TestWriteReport(t *testing.T) {
	store, err := NewStore(t.TempDir(), "out", "complex", 100)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	report := &Report{
		SetupFile:   "examples/cdk2_repex.yaml",
		Temperature: 300,
		Phases: []PhaseResult{
			{Phase: "complex", FEType: "repex", RunID: store.RunID(), DeltaF: 1.2, Cycles: 100},
		},
	}
	if err := WriteReport(store.ReportPath(), report); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	if report.CompletedAt.IsZero() {
		t.Error("Expected a completion timestamp")
	}
	if _, err := os.Stat(store.ReportPath()); err != nil {
		t.Errorf("Expected report file to exist: %v", err)
	}
}
