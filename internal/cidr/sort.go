package cidr

import (
	"cmp"
	"slices"
	"strings"
)

// Compare orders blocks by address, then prefix length, then literal.
// The literal tie-break keeps the order total for literals that describe the
// same block, such as "1.2.3.4" and "1.2.3.4/32".
func Compare(a, b Block) int {
	if c := cmp.Compare(a.Address, b.Address); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PrefixLength, b.PrefixLength); c != 0 {
		return c
	}
	return strings.Compare(a.Literal, b.Literal)
}

// Sort sorts blocks in canonical order.
func Sort(blocks []Block) {
	slices.SortStableFunc(blocks, Compare)
}

// byBreadth orders broader blocks first so containment candidates are always
// evaluated before the blocks they might contain.
func byBreadth(a, b Block) int {
	if c := cmp.Compare(a.PrefixLength, b.PrefixLength); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Address, b.Address); c != 0 {
		return c
	}
	return strings.Compare(a.Literal, b.Literal)
}
