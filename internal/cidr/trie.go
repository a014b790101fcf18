package cidr

import (
	"slices"

	"github.com/gaissmai/bart"
)

// TrieEliminator answers containment queries with a prefix trie instead of a
// pairwise scan. It keeps and removes exactly the same blocks as
// ScanEliminator.
//
// Containment only looks at the leading outer.PrefixLength bits of both
// blocks, so masking every block to its own network before insertion does
// not change the answer.
type TrieEliminator struct{}

// Eliminate implements Eliminator.
func (TrieEliminator) Eliminate(blocks []Block) Result {
	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, byBreadth)

	tbl := new(bart.Table[struct{}])
	for _, b := range sorted {
		tbl.Insert(b.Prefix().Masked(), struct{}{})
	}

	var res Result
	for _, current := range sorted {
		if hasBroaderSupernet(tbl, current) {
			res.Removed = append(res.Removed, current)
		} else {
			res.Kept = append(res.Kept, current)
		}
	}

	return res
}

func hasBroaderSupernet(tbl *bart.Table[struct{}], b Block) bool {
	for super := range tbl.Supernets(b.Prefix().Masked()) {
		if super.Bits() < b.PrefixLength {
			return true
		}
	}
	return false
}
