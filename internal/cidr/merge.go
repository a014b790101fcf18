package cidr

import (
	"fmt"
	"slices"
	"strings"
)

// Result is the outcome of redundancy elimination.
//
// Kept holds blocks not contained in any other block of the input, Removed
// those that were. Both are in evaluation order (prefix length, then
// address); use Sort for canonical output order.
type Result struct {
	Kept    []Block `json:"kept"`
	Removed []Block `json:"removed"`
}

// Eliminator removes blocks that are strictly contained in a broader block of
// the same set. Input blocks must have distinct literals.
type Eliminator interface {
	Eliminate(blocks []Block) Result
}

// Strategy names an Eliminator implementation.
type Strategy string

const (
	StrategyScan Strategy = "scan"
	StrategyTrie Strategy = "trie"
)

// ParseStrategy converts a string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyScan:
		return StrategyScan, nil
	case StrategyTrie:
		return StrategyTrie, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q (must be 'scan' or 'trie')", s)
	}
}

// NewEliminator returns the Eliminator for the given strategy.
func NewEliminator(s Strategy) Eliminator {
	if s == StrategyTrie {
		return TrieEliminator{}
	}
	return ScanEliminator{}
}

// ScanEliminator compares every block against all broader blocks before it.
// It is quadratic in the number of blocks, which is fine for tens of
// thousands of entries; use TrieEliminator beyond that.
type ScanEliminator struct{}

// Eliminate implements Eliminator.
func (ScanEliminator) Eliminate(blocks []Block) Result {
	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, byBreadth)

	var res Result
	for i, current := range sorted {
		contained := false
		for _, broader := range sorted[:i] {
			if broader.PrefixLength < current.PrefixLength && Contains(broader, current) {
				contained = true
				break
			}
		}

		if contained {
			res.Removed = append(res.Removed, current)
		} else {
			res.Kept = append(res.Kept, current)
		}
	}

	return res
}

// Merge runs the default pairwise eliminator over blocks.
func Merge(blocks []Block) Result {
	return ScanEliminator{}.Eliminate(blocks)
}

// MergeLiterals deduplicates and parses literals, then merges the valid
// blocks. Entries that fail to parse are returned as errors and left out.
func MergeLiterals(literals []string) (Result, []error) {
	blocks, errs := ParseAll(Dedup(literals))
	return Merge(blocks), errs
}

// ParseAll parses each literal, collecting one error per invalid entry.
func ParseAll(literals []string) ([]Block, []error) {
	blocks := make([]Block, 0, len(literals))
	var errs []error

	for _, lit := range literals {
		b, err := Parse(lit)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		blocks = append(blocks, b)
	}

	return blocks, errs
}

// Dedup removes repeated literals, keeping the first occurrence of each.
func Dedup(literals []string) []string {
	seen := make(map[string]struct{}, len(literals))
	out := make([]string, 0, len(literals))

	for _, lit := range literals {
		if _, ok := seen[lit]; ok {
			continue
		}
		seen[lit] = struct{}{}
		out = append(out, lit)
	}

	return out
}

// Literals returns the literal of each block.
func Literals(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Literal
	}
	return out
}
