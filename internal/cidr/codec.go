// Package cidr implements the IPv4 block model used to build allow-lists:
// parsing address literals, deciding containment between blocks, removing
// blocks made redundant by broader ones, and ordering the result canonically.
package cidr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedAddress is returned when a literal is not a dotted quad.
	ErrMalformedAddress = errors.New("malformed address")

	// ErrInvalidPrefixLength is returned when the prefix after "/" is not an
	// integer in [0, 32].
	ErrInvalidPrefixLength = errors.New("invalid prefix length")
)

// Encode converts a dotted-quad address such as "10.0.0.1" to its numeric value.
func Encode(text string) (uint32, error) {
	parts := strings.Split(text, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("%w: %q has %d octet groups", ErrMalformedAddress, text, len(parts))
	}

	var v uint32
	for _, part := range parts {
		// ParseUint with bitSize 8 rejects signs, empty groups and values above 255.
		octet, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: %q has bad octet %q", ErrMalformedAddress, text, part)
		}
		v = v<<8 | uint32(octet)
	}

	return v, nil
}

// Decode converts a numeric address back to dotted-quad form.
func Decode(v uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", v>>24, (v>>16)&0xFF, (v>>8)&0xFF, v&0xFF)
}

// octets splits an address into its four bytes, most significant first.
func octets(v uint32) [4]byte {
	return [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
