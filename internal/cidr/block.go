package cidr

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// HostPrefixLength is the prefix length of a single address.
const HostPrefixLength = 32

// Block is a contiguous IPv4 range given as an address and a prefix length.
//
// Address is the literal value of the dotted quad and is not masked to the
// network boundary: "10.0.0.5/24" keeps its host bits.
type Block struct {
	Address      uint32 `json:"address"`
	PrefixLength int    `json:"prefix_length"`
	Literal      string `json:"literal"`
}

// Parse parses "a.b.c.d" or "a.b.c.d/n". A missing prefix means /32.
func Parse(literal string) (Block, error) {
	addrText, prefixText, hasPrefix := strings.Cut(literal, "/")

	addr, err := Encode(addrText)
	if err != nil {
		return Block{}, err
	}

	prefixLen := HostPrefixLength
	if hasPrefix {
		if strings.Contains(prefixText, "/") {
			return Block{}, fmt.Errorf("%w: %q has more than one '/'", ErrMalformedAddress, literal)
		}
		n, err := strconv.Atoi(prefixText)
		if err != nil || n < 0 || n > HostPrefixLength {
			return Block{}, fmt.Errorf("%w: %q", ErrInvalidPrefixLength, literal)
		}
		prefixLen = n
	}

	return Block{
		Address:      addr,
		PrefixLength: prefixLen,
		Literal:      literal,
	}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(literal string) Block {
	b, err := Parse(literal)
	if err != nil {
		panic(err)
	}
	return b
}

// String returns the literal exactly as it was given.
func (b Block) String() string {
	return b.Literal
}

// CIDR returns the block as "a.b.c.d/n" using the unmasked address.
func (b Block) CIDR() string {
	return fmt.Sprintf("%s/%d", Decode(b.Address), b.PrefixLength)
}

// Prefix returns the block as a netip.Prefix. The address is not masked.
func (b Block) Prefix() netip.Prefix {
	return netip.PrefixFrom(netip.AddrFrom4(octets(b.Address)), b.PrefixLength)
}
