// Package storage handles the on-disk layout of a calculation: trajectory
// and work series files, checkpoints and the final run report.
package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Store manages the output files of one phase of a calculation
type Store struct {
	dir      string
	prefix   string
	phase    string
	interval int
	runID    uuid.UUID
}

// NewStore creates the output directory and returns a store for the phase
func NewStore(dir, prefix, phase string, checkpointInterval int) (*Store, error) {
	if dir == "" || prefix == "" {
		return nil, fmt.Errorf("trajectory directory and prefix are required")
	}
	if checkpointInterval <= 0 {
		return nil, fmt.Errorf("checkpoint interval must be positive")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating trajectory directory: %w", err)
	}

	return &Store{
		dir:      dir,
		prefix:   prefix,
		phase:    phase,
		interval: checkpointInterval,
		runID:    uuid.New(),
	}, nil
}

// RunID returns the unique identifier of this run
func (s *Store) RunID() string { return s.runID.String() }

// CheckpointInterval returns the configured checkpoint interval
func (s *Store) CheckpointInterval() int { return s.interval }

// EqTrajectoryPath returns the work series file for an equilibrium end state
func (s *Store) EqTrajectoryPath(lambdaState int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.eq.lambda_%d.csv", s.prefix, s.phase, lambdaState))
}

// NeqTrajectoryPath returns the work series file for a switching direction
func (s *Store) NeqTrajectoryPath(direction string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.neq.%s.csv", s.prefix, s.phase, direction))
}

// CheckpointPath returns the checkpoint file for the phase
func (s *Store) CheckpointPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.checkpoint.yaml", s.prefix, s.phase))
}

// ReportPath returns the run report file for a trajectory directory and
// prefix
func ReportPath(dir, prefix string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.report.yaml", prefix))
}

// ReportPath returns the run report file
func (s *Store) ReportPath() string {
	return ReportPath(s.dir, s.prefix)
}

// Checkpoint is the persisted state of a phase run
type Checkpoint struct {
	RunID        string    `yaml:"run_id"`
	Phase        string    `yaml:"phase"`
	FEType       string    `yaml:"fe_type"`
	Cycle        int       `yaml:"cycle"`
	FreeEnergies []float64 `yaml:"free_energies"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// WriteCheckpoint persists a checkpoint for the phase
func (s *Store) WriteCheckpoint(cp *Checkpoint) error {
	cp.RunID = s.runID.String()
	cp.Phase = s.phase
	cp.UpdatedAt = time.Now().UTC()

	data, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Errorf("error marshaling checkpoint: %w", err)
	}
	if err := os.WriteFile(s.CheckpointPath(), data, 0644); err != nil {
		return fmt.Errorf("error writing checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads the phase checkpoint, returning nil when none exists
func (s *Store) LoadCheckpoint() (*Checkpoint, error) {
	data, err := os.ReadFile(s.CheckpointPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("error parsing checkpoint: %w", err)
	}
	return &cp, nil
}

// WriteWorkSeries writes a work series to a CSV file with one value per row
func (s *Store) WriteWorkSeries(path string, works []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating work series file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "work"}); err != nil {
		return fmt.Errorf("error writing work series header: %w", err)
	}
	for i, work := range works {
		record := []string{strconv.Itoa(i), strconv.FormatFloat(work, 'g', -1, 64)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("error writing work series row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
