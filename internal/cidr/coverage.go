package cidr

import (
	"go4.org/netipx"
)

// Coverage returns how many distinct addresses the blocks describe together.
// Overlapping blocks are counted once.
func Coverage(blocks []Block) (uint64, error) {
	var b netipx.IPSetBuilder
	for _, blk := range blocks {
		b.AddPrefix(blk.Prefix().Masked())
	}

	set, err := b.IPSet()
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, r := range set.Ranges() {
		from, to := r.From().As4(), r.To().As4()
		total += uint64(be32(to)) - uint64(be32(from)) + 1
	}

	return total, nil
}

func be32(b [4]byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
