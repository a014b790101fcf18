package cidr

// Contains reports whether inner is strictly contained in outer.
//
// A block is never contained in one that is equally or less specific. The
// comparison runs on the raw octets of both blocks: the leading
// outer.PrefixLength/8 bytes must match, then the top outer.PrefixLength%8
// bits of the following byte.
func Contains(outer, inner Block) bool {
	if inner.PrefixLength <= outer.PrefixLength {
		return false
	}

	o, i := octets(outer.Address), octets(inner.Address)
	whole := outer.PrefixLength / 8
	rem := outer.PrefixLength % 8

	for n := 0; n < whole; n++ {
		if o[n] != i[n] {
			return false
		}
	}

	// whole < 4 here: inner.PrefixLength > outer.PrefixLength rules out /32.
	if rem > 0 {
		mask := byte(0xFF << (8 - rem))
		if o[whole]&mask != i[whole]&mask {
			return false
		}
	}

	return true
}
