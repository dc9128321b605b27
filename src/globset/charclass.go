package globset

import (
	"sort"
	"unicode/utf8"
)

// byteRange is an inclusive range of byte values, used both as an NFA
// transition label and as a partition of the alphabet when building the
// DFA's transition table.
type byteRange struct {
	lo, hi byte
}

// utf8Sequence is a chain of byteRanges that together recognise exactly the
// UTF-8 encodings of one contiguous rune range: byte 0 of the encoding must
// fall in seq[0], byte 1 in seq[1], and so on.
type utf8Sequence []byteRange

// utf8Ranges decomposes the rune range [lo, hi] into a list of utf8Sequences
// whose union is exactly the set of UTF-8 encodings of runes in that range.
// This is the standard utf8-ranges splitting algorithm used by regex engines
// that compile Unicode character classes down to byte automata (the same
// approach regex-automata and similar Rust crates use): encodings of the
// same byte length are split at the boundaries where continuation bytes stop
// being free to vary, so each emitted sequence can be expressed as an
// independent per-byte range.
func utf8Ranges(lo, hi rune) []utf8Sequence {
	var out []utf8Sequence
	splitUTF8Range(lo, hi, &out)
	return out
}

// boundaries between UTF-8 encoding lengths.
var utf8Max = [...]rune{0x7f, 0x7ff, 0xffff, 0x10ffff}

func splitUTF8Range(lo, hi rune, out *[]utf8Sequence) {
	if lo > hi {
		return
	}
	// Surrogate range is never valid UTF-8; split around it.
	const surrogateLo, surrogateHi = 0xd800, 0xdfff
	if lo <= surrogateHi && hi >= surrogateLo {
		if lo < surrogateLo {
			splitUTF8Range(lo, surrogateLo-1, out)
		}
		if hi > surrogateHi {
			splitUTF8Range(surrogateHi+1, hi, out)
		}
		return
	}
	for _, max := range utf8Max {
		if lo <= max {
			if hi > max {
				splitUTF8Range(lo, max, out)
				splitUTF8Range(max+1, hi, out)
				return
			}
			break
		}
	}
	encodeRange(lo, hi, out)
}

// encodeRange handles a rune range that's known to fit in a single UTF-8
// encoding length, recursively splitting it further wherever a continuation
// byte can't be expressed as a single contiguous range.
func encodeRange(lo, hi rune, out *[]utf8Sequence) {
	var loBuf, hiBuf [utf8.UTFMax]byte
	n := utf8.EncodeRune(loBuf[:], lo)
	utf8.EncodeRune(hiBuf[:], hi)

	if n == 1 {
		*out = append(*out, utf8Sequence{{lo: loBuf[0], hi: hiBuf[0]}})
		return
	}

	for i := 1; i < n; i++ {
		if loBuf[i] != 0x80 || hiBuf[i] != 0xbf {
			// The trailing bytes from position i onward don't yet range over
			// their full 0x80-0xbf span on both ends; split after the last
			// rune that shares lo's bytes before position i, and encode each
			// half on its own.
			mid := runeWithByte(loBuf, i, 0xbf)
			if mid >= lo && mid < hi {
				encodeRange(lo, mid, out)
				encodeRange(mid+1, hi, out)
				return
			}
		}
	}

	seq := make(utf8Sequence, n)
	for i := 0; i < n; i++ {
		seq[i] = byteRange{lo: loBuf[i], hi: hiBuf[i]}
	}
	*out = append(*out, seq)
}

// runeWithByte decodes buf as UTF-8, then returns the rune value you'd get
// by setting byte index i to value v and every following byte to 0xbf (the
// maximal continuation byte). Used to find a clean split point.
func runeWithByte(buf [utf8.UTFMax]byte, i int, v byte) rune {
	buf[i] = v
	for j := i + 1; j < utf8.UTFMax; j++ {
		if buf[j] != 0 {
			buf[j] = 0xbf
		}
	}
	r, _ := utf8.DecodeRune(buf[:])
	return r
}

// byteClasses partitions 0..255 into the coarsest set of equivalence classes
// such that no transition range in ranges crosses a class boundary. Feeding
// the DFA builder one representative byte per class instead of all 256
// values is what keeps subset construction from scanning the whole alphabet
// at every state.
func byteClasses(ranges []byteRange) []byteRange {
	cuts := map[int]bool{0: true, 256: true}
	for _, r := range ranges {
		cuts[int(r.lo)] = true
		cuts[int(r.hi)+1] = true
	}
	points := make([]int, 0, len(cuts))
	for c := range cuts {
		points = append(points, c)
	}
	sort.Ints(points)

	classes := make([]byteRange, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		classes = append(classes, byteRange{lo: byte(points[i]), hi: byte(points[i+1] - 1)})
	}
	return classes
}
