package accesslog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/logging"
)

func TestCountFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.gz")
	b := filepath.Join(dir, "b.gz")
	writeGzip(t, a, "1.1.1.1 200\n2.2.2.2 200\n1.1.1.1 404\n")
	writeGzip(t, b, "1.1.1.1 200\n3.3.3.3 200\n")

	for _, workers := range []int{1, 4} {
		c := NewCounter(logging.Discard(), WithWorkers(workers))
		counts, errs := c.CountFiles(context.Background(), []string{a, b})
		if len(errs) != 0 {
			t.Fatalf("workers=%d: CountFiles() errors = %v", workers, errs)
		}

		want := Counts{"1.1.1.1": 3, "2.2.2.2": 1, "3.3.3.3": 1}
		if len(counts) != len(want) {
			t.Fatalf("workers=%d: counts = %v, want %v", workers, counts, want)
		}
		for addr, n := range want {
			if counts[addr] != n {
				t.Errorf("workers=%d: counts[%s] = %d, want %d", workers, addr, counts[addr], n)
			}
		}
		if counts.Total() != 5 {
			t.Errorf("workers=%d: Total() = %d, want 5", workers, counts.Total())
		}
	}
}

func TestCountFiles_SkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.gz")
	bad := filepath.Join(dir, "bad.gz")
	writeGzip(t, good, "1.1.1.1 200\n")
	if err := os.WriteFile(bad, []byte("not gzip"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	missing := filepath.Join(dir, "missing.gz")

	var mu sync.Mutex
	var seen []string
	c := NewCounter(logging.Discard(), WithWorkers(2), WithProgress(func(done, total int, path string) {
		mu.Lock()
		defer mu.Unlock()
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
		seen = append(seen, path)
	}))

	counts, errs := c.CountFiles(context.Background(), []string{bad, good, missing})
	if len(errs) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	if counts["1.1.1.1"] != 1 || len(counts) != 1 {
		t.Errorf("counts = %v, want only the good file", counts)
	}
	if len(seen) != 3 {
		t.Errorf("progress called %d times, want 3", len(seen))
	}
}

func TestCountFiles_Cancelled(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.gz")
	writeGzip(t, a, "1.1.1.1 200\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	counts, errs := NewCounter(logging.Discard()).CountFiles(ctx, []string{a})
	if len(errs) == 0 {
		t.Fatal("expected cancellation error")
	}
	if len(counts) != 0 {
		t.Errorf("counts = %v, want empty", counts)
	}
}

func TestCounts_Sorted(t *testing.T) {
	counts := Counts{
		"10.0.0.2":  5,
		"9.0.0.1":   5,
		"100.0.0.1": 7,
		"1.1.1.1":   1,
	}

	got := counts.Sorted()
	want := []AddressCount{
		{"100.0.0.1", 7},
		{"9.0.0.1", 5},
		{"10.0.0.2", 5},
		{"1.1.1.1", 1},
	}

	if len(got) != len(want) {
		t.Fatalf("Sorted() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sorted()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
