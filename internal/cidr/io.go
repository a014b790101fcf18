package cidr

import (
	"bufio"
	"io"
	"strings"
)

// ReadLiterals reads one literal per line. Lines are trimmed; blank lines and
// lines starting with '#' are skipped. Duplicates are kept.
func ReadLiterals(r io.Reader) ([]string, error) {
	var literals []string
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		literals = append(literals, line)
	}

	if err := scanner.Err(); err != nil {
		return literals, err
	}

	return literals, nil
}

// WriteLiterals writes the literal of each block on its own line, with a
// trailing newline after the last one.
func WriteLiterals(w io.Writer, blocks []Block) error {
	bw := bufio.NewWriter(w)
	for _, b := range blocks {
		if _, err := bw.WriteString(b.Literal); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
