// Package accesslog extracts client addresses from web access logs and counts
// how often each one appears.
//
// Log lines are expected to start with the client address
// ("1.2.3.4 200 0.012 [timestamp] ..."). Files ending in .gz, or starting with
// the gzip magic bytes, are decompressed on the fly.
package accesslog

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// maxLineSize bounds a single log line.
const maxLineSize = 1024 * 1024

var gzipMagic = []byte{0x1f, 0x8b}

// addressPattern matches a leading dotted-quad.
var addressPattern = regexp.MustCompile(`^(\d+\.\d+\.\d+\.\d+)`)

// ExtractAddress returns the address at the start of a log line.
func ExtractAddress(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}

	m := addressPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Scan calls fn with the address of every line in r that has one.
func Scan(r io.Reader, fn func(addr string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		addr, ok := ExtractAddress(scanner.Text())
		if !ok {
			continue
		}
		if err := fn(addr); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// ScanFile opens path, decompressing it if needed, and scans it with fn.
func ScanFile(path string, fn func(addr string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := openReader(path, f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()

	if err := Scan(r, fn); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// openReader wraps f in a gzip reader when the name or content says so.
func openReader(path string, f *os.File) (io.ReadCloser, error) {
	br := bufio.NewReader(f)

	compressed := strings.HasSuffix(path, ".gz")
	if !compressed {
		if head, err := br.Peek(len(gzipMagic)); err == nil && string(head) == string(gzipMagic) {
			compressed = true
		}
	}

	if !compressed {
		return io.NopCloser(br), nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, err
	}
	return zr, nil
}
