package accesslog

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeGzip(t *testing.T, path string, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip Write() error = %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip Close() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   string
		wantOK bool
	}{
		{"access log line", `1.2.3.4 200 0.012 [19/Oct/2026:10:00:00 +0800] "GET / HTTP/1.1"`, "1.2.3.4", true},
		{"leading whitespace", "   10.0.0.1 404", "10.0.0.1", true},
		{"address only", "8.8.8.8", "8.8.8.8", true},
		{"blank", "   ", "", false},
		{"address not first", `GET / from 1.2.3.4`, "", false},
		{"ipv6", "2001:db8::1 200", "", false},
		{"three groups", "1.2.3 200", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAddress(tt.line)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractAddress(%q) = %q, %v; want %q, %v", tt.line, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestScan(t *testing.T) {
	input := "1.1.1.1 200\n\nnoise\n2.2.2.2 404\n1.1.1.1 200" // no trailing newline

	var got []string
	err := Scan(strings.NewReader(input), func(addr string) error {
		got = append(got, addr)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{"1.1.1.1", "2.2.2.2", "1.1.1.1"}
	if !slices.Equal(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScan_CallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Scan(strings.NewReader("1.1.1.1\n2.2.2.2\n"), func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Scan() error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestScanFile_Formats(t *testing.T) {
	dir := t.TempDir()
	content := "1.1.1.1 200\n2.2.2.2 200\n"

	gz := filepath.Join(dir, "access.log.gz")
	writeGzip(t, gz, content)

	// gzip content without the .gz suffix is detected by its magic bytes.
	disguised := filepath.Join(dir, "access.log.1")
	writeGzip(t, disguised, content)

	plain := filepath.Join(dir, "access.log")
	if err := os.WriteFile(plain, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	for _, path := range []string{gz, disguised, plain} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			var got []string
			if err := ScanFile(path, func(addr string) error {
				got = append(got, addr)
				return nil
			}); err != nil {
				t.Fatalf("ScanFile() error = %v", err)
			}
			if !slices.Equal(got, []string{"1.1.1.1", "2.2.2.2"}) {
				t.Errorf("ScanFile() = %v", got)
			}
		})
	}
}

func TestScanFile_CorruptGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.gz")
	if err := os.WriteFile(path, []byte("definitely not gzip"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := ScanFile(path, func(string) error { return nil })
	if err == nil {
		t.Fatal("expected error for corrupt gzip file")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestScanFile_Missing(t *testing.T) {
	err := ScanFile(filepath.Join(t.TempDir(), "missing.gz"), func(string) error { return nil })
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
