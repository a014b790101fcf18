package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/cidr"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/logging"
)

func writeInput(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "all_ip.origin.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestMerger_Run(t *testing.T) {
	for _, strategy := range []cidr.Strategy{cidr.StrategyScan, cidr.StrategyTrie} {
		t.Run(string(strategy), func(t *testing.T) {
			dir := t.TempDir()
			in := writeInput(t, dir, strings.Join([]string{
				"10.0.1.0/24",
				"10.0.0.5/32",
				"",
				"10.0.0.0/24",
				"10.0.0.0/24",
				"1.2.3",
				"9.9.9.9",
			}, "\n"))
			out := filepath.Join(dir, "all_ip.txt")

			report, err := NewMerger(strategy, logging.Discard()).Run(context.Background(), in, out)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if report.Original != 6 {
				t.Errorf("Original = %d, want 6", report.Original)
			}
			if report.Deduplicated != 5 {
				t.Errorf("Deduplicated = %d, want 5", report.Deduplicated)
			}
			if report.Skipped != 1 || len(report.SkippedErrors) != 1 {
				t.Errorf("Skipped = %d (%v), want 1", report.Skipped, report.SkippedErrors)
			}
			if report.Merged != 3 || report.Removed != 1 {
				t.Errorf("Merged/Removed = %d/%d, want 3/1", report.Merged, report.Removed)
			}
			if report.Covered != 513 {
				t.Errorf("Covered = %d, want 513", report.Covered)
			}
			if report.Strategy != string(strategy) {
				t.Errorf("Strategy = %q, want %q", report.Strategy, strategy)
			}

			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			want := "9.9.9.9\n10.0.0.0/24\n10.0.1.0/24\n"
			if string(data) != want {
				t.Errorf("output = %q, want %q", data, want)
			}
		})
	}
}

func TestMerger_InputNotFound(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "all_ip.txt")

	_, err := NewMerger(cidr.StrategyScan, logging.Discard()).Run(context.Background(), filepath.Join(dir, "missing.txt"), out)
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("Run() error = %v, want ErrInputNotFound", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output should not be created when input is missing")
	}
}

func TestMerger_OutputWriteFailure(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "1.2.3.4\n")
	out := filepath.Join(dir, "no-such-dir", "all_ip.txt")

	_, err := NewMerger(cidr.StrategyScan, logging.Discard()).Run(context.Background(), in, out)
	if !errors.Is(err, ErrOutputWriteFailure) {
		t.Fatalf("Run() error = %v, want ErrOutputWriteFailure", err)
	}
}

func TestMerger_Cancelled(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "1.2.3.4\n")
	out := filepath.Join(dir, "all_ip.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMerger(cidr.StrategyScan, logging.Discard()).Run(ctx, in, out); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output should not be created for a cancelled run")
	}
}

func TestMerger_EmptyInput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "\n\n")
	out := filepath.Join(dir, "all_ip.txt")

	report, err := NewMerger(cidr.StrategyScan, logging.Discard()).Run(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Original != 0 || report.Merged != 0 {
		t.Errorf("report = %+v, want zero counts", report)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) != 0 {
		t.Errorf("output = %q, want empty", data)
	}
}

func TestMerger_Idempotent(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "192.168.0.0/16\n192.168.5.0/24\n0.0.0.0/0\n8.8.8.8/32\n")
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")

	m := NewMerger(cidr.StrategyScan, logging.Discard())
	if _, err := m.Run(context.Background(), in, first); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	report, err := m.Run(context.Background(), first, second)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Removed != 0 {
		t.Errorf("second run removed %d blocks", report.Removed)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) || string(a) != "0.0.0.0/0\n" {
		t.Errorf("outputs differ or unexpected: %q vs %q", a, b)
	}
}
