// Package table reads and writes the per-address statistics CSV and derives
// coarse CIDR lists from it.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/cidr"
)

// Header is the first row of every statistics file.
var Header = []string{"ip", "count", "location"}

// Row is one line of the statistics file.
type Row struct {
	IP       string `json:"ip"`
	Count    int    `json:"count"`
	Location string `json:"location"`
}

// WriteRows writes a header and rows to path, replacing the file.
func WriteRows(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes a header and rows as CSV.
func Encode(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.IP, strconv.Itoa(r.Count), r.Location}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRows reads a statistics file written by WriteRows.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// Decode parses CSV rows, skipping the header line. Lines with fewer than
// three fields or a non-numeric count are ignored.
func Decode(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []Row
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if first {
			first = false
			continue
		}
		if len(rec) < 3 {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			continue
		}
		rows = append(rows, Row{
			IP:       strings.TrimSpace(rec[0]),
			Count:    count,
			Location: strings.TrimSpace(rec[2]),
		})
	}

	return rows, nil
}

// FilterRows keeps rows seen more than minCount times whose location
// contains region. An empty region matches every location.
func FilterRows(rows []Row, minCount int, region string) []Row {
	var out []Row
	for _, r := range rows {
		if r.Count <= minCount {
			continue
		}
		if !strings.Contains(r.Location, region) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// BuildPrefixes returns the distinct /24 and /16 networks of ips, each
// sorted by address. Addresses that do not parse are skipped.
func BuildPrefixes(ips []string) (cidr24, cidr16 []string) {
	set24 := make(map[uint32]struct{})
	set16 := make(map[uint32]struct{})

	for _, ip := range ips {
		v, err := cidr.Encode(ip)
		if err != nil {
			continue
		}
		set24[v&0xFFFFFF00] = struct{}{}
		set16[v&0xFFFF0000] = struct{}{}
	}

	return formatNetworks(set24, 24), formatNetworks(set16, 16)
}

func formatNetworks(set map[uint32]struct{}, bits int) []string {
	nets := make([]uint32, 0, len(set))
	for n := range set {
		nets = append(nets, n)
	}
	slices.Sort(nets)

	out := make([]string, len(nets))
	for i, n := range nets {
		out[i] = fmt.Sprintf("%s/%d", cidr.Decode(n), bits)
	}
	return out
}

// WritePrefixFile writes the /24 list and the /16 list under comment
// headers. The file can be fed straight back into merge.
func WritePrefixFile(path string, cidr24, cidr16 []string) error {
	var b strings.Builder
	b.WriteString("# /24 prefixes\n")
	for _, c := range cidr24 {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	b.WriteString("\n# /16 prefixes\n")
	for _, c := range cidr16 {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
