// Package geo resolves addresses to human-readable locations from an offline
// MaxMind database.
//
// Lookups never fail the caller: any error is logged and turned into the
// configured unknown location.
package geo

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultUnknown is returned when no location could be determined.
const DefaultUnknown = "unknown"

// ErrNotFound is returned by a Source that has no data for an address.
var ErrNotFound = errors.New("address not found")

// Locator maps an address to a location string.
type Locator interface {
	Locate(addr string) string
}

// Source looks up the raw location fields for an address.
type Source interface {
	Lookup(addr string) (Record, error)
}

// Record holds the location fields of one address.
type Record struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
	ISP     string `json:"isp,omitempty"`
}

// Location joins the non-empty fields with spaces, most general first.
// Placeholder values ("0") are dropped, as are fields repeating the previous
// one (city-states such as "Singapore Singapore").
func (r Record) Location() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{r.Country, r.Region, r.City, r.ISP} {
		p = strings.TrimSpace(p)
		if p == "" || p == "0" {
			continue
		}
		if len(parts) > 0 && parts[len(parts)-1] == p {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// Resolver turns a Source into a Locator.
type Resolver struct {
	source  Source
	unknown string
	logger  *log.Logger
}

// NewResolver creates a Resolver. An empty unknown uses DefaultUnknown.
func NewResolver(source Source, unknown string, logger *log.Logger) *Resolver {
	if unknown == "" {
		unknown = DefaultUnknown
	}
	return &Resolver{source: source, unknown: unknown, logger: logger}
}

// Locate implements Locator.
func (r *Resolver) Locate(addr string) string {
	rec, err := r.source.Lookup(addr)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.Warn("location lookup failed", "ip", addr, "error", err)
		}
		return r.unknown
	}

	if loc := rec.Location(); loc != "" {
		return loc
	}
	return r.unknown
}

// Unknown is the location returned when a lookup fails.
func (r *Resolver) Unknown() string {
	return r.unknown
}
