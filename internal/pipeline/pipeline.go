// Package pipeline runs the merge stage end to end: read literals, drop
// duplicates and malformed entries, eliminate redundant blocks, sort, write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/cidr"
)

var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input not found")

	// ErrOutputWriteFailure is returned when the output cannot be written.
	ErrOutputWriteFailure = errors.New("output write failure")
)

// Report summarises one merge run.
type Report struct {
	InputPath    string        `json:"input"`
	OutputPath   string        `json:"output"`
	Strategy     string        `json:"strategy"`
	Original     int           `json:"original"`
	Deduplicated int           `json:"deduplicated"`
	Skipped      int           `json:"skipped"`
	Merged       int           `json:"merged"`
	Removed      int           `json:"removed"`
	Covered      uint64        `json:"covered_addresses"`
	Duration     time.Duration `json:"duration_ns"`
	Finished     time.Time     `json:"finished"`

	Kept          []cidr.Block `json:"kept"`
	RemovedBlocks []cidr.Block `json:"removed_blocks"`
	SkippedErrors []string     `json:"skipped_errors,omitempty"`
}

// Merger holds the state of a single run. Create one per run.
type Merger struct {
	strategy   cidr.Strategy
	eliminator cidr.Eliminator
	logger     *log.Logger
	now        func() time.Time
}

// NewMerger creates a Merger using the given elimination strategy.
func NewMerger(strategy cidr.Strategy, logger *log.Logger) *Merger {
	return &Merger{
		strategy:   strategy,
		eliminator: cidr.NewEliminator(strategy),
		logger:     logger,
		now:        time.Now,
	}
}

// Run merges the literals in inputPath and writes the canonical list to
// outputPath. Nothing is written when the input cannot be read.
func (m *Merger) Run(ctx context.Context, inputPath, outputPath string) (Report, error) {
	start := m.now()
	report := Report{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Strategy:   string(m.strategy),
	}

	literals, err := readInput(inputPath)
	if err != nil {
		return report, err
	}
	report.Original = len(literals)
	m.logger.Info("read input", "file", inputPath, "lines", len(literals))

	if err := ctx.Err(); err != nil {
		return report, err
	}

	unique := cidr.Dedup(literals)
	report.Deduplicated = len(unique)
	m.logger.Info("deduplicated", "unique", len(unique))

	blocks, errs := cidr.ParseAll(unique)
	for _, err := range errs {
		m.logger.Warn("skipping entry", "error", err)
		report.SkippedErrors = append(report.SkippedErrors, err.Error())
	}
	report.Skipped = len(errs)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	res := m.eliminator.Eliminate(blocks)
	cidr.Sort(res.Kept)
	report.Kept = res.Kept
	report.RemovedBlocks = res.Removed
	report.Merged = len(res.Kept)
	report.Removed = len(res.Removed)
	m.logger.Info("merged", "kept", report.Merged, "removed", report.Removed, "strategy", m.strategy)

	covered, err := cidr.Coverage(res.Kept)
	if err != nil {
		m.logger.Warn("could not compute coverage", "error", err)
	}
	report.Covered = covered

	if err := writeOutput(outputPath, res.Kept); err != nil {
		return report, err
	}
	m.logger.Info("wrote output", "file", outputPath)

	report.Finished = m.now()
	report.Duration = report.Finished.Sub(start)
	return report, nil
}

func readInput(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	literals, err := cidr.ReadLiterals(f)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}
	return literals, nil
}

// writeOutput writes to a temporary file in the same directory and renames
// it over path, so readers never see a partial list.
func writeOutput(path string, blocks []cidr.Block) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWriteFailure, err)
	}
	defer os.Remove(tmp.Name())

	if err := cidr.WriteLiterals(tmp, blocks); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrOutputWriteFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWriteFailure, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWriteFailure, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWriteFailure, err)
	}
	return nil
}
