package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
	}{
		{"default is info", Options{}, false, true},
		{"warn hides info", Options{Level: "warn"}, false, false},
		{"debug level", Options{Level: "DEBUG"}, true, true},
		{"verbose forces debug", Options{Level: "error", Verbose: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Writer = &buf

			logger, closer, err := New(tt.opts)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer closer.Close()

			logger.Debug("debug-line")
			logger.Info("info-line")

			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tt.wantDebug {
				t.Errorf("debug written = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "info-line"); got != tt.wantInfo {
				t.Errorf("info written = %v, want %v\n%s", got, tt.wantInfo, out)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNew_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Warn("skipping entry", "literal", "1.2.3", "line", 4)

	out := buf.String()
	for _, want := range []string{"skipping entry", "literal=1.2.3", "line=4"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcdnban.log")

	logger, closer, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("written to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing record:\n%s", data)
	}
}
