package dbg

const BaseTypeNum = 4

// Base2Bnt maps an upper or lower case nucleotide to its 2-bit code, 4 for anything else.
var Base2Bnt = func() (t [256]uint8) {
	for i := range t {
		t[i] = BaseTypeNum
	}
	t['A'], t['C'], t['G'], t['T'] = 0, 1, 2, 3
	t['a'], t['c'], t['g'], t['t'] = 0, 1, 2, 3
	return
}()

var BitNtCharUp = []byte{'A', 'C', 'G', 'T'}

// NtRev is the complement of an ASCII nucleotide, N for anything unknown.
var NtRev = func() (t [256]byte) {
	for i := range t {
		t[i] = 'N'
	}
	t['A'], t['C'], t['G'], t['T'] = 'T', 'G', 'C', 'A'
	t['a'], t['c'], t['g'], t['t'] = 'T', 'G', 'C', 'A'
	return
}()

func GetReverseCompByteArr(seq []byte) []byte {
	sl := len(seq)
	rv := make([]byte, sl)
	for i := 0; i < len(rv); i++ {
		rv[i] = NtRev[seq[sl-1-i]]
	}

	return rv
}

// NormalizeSeq upper-cases seq in place and reports whether it only holds ACGT.
func NormalizeSeq(seq []byte) bool {
	for i, c := range seq {
		if Base2Bnt[c] >= BaseTypeNum {
			return false
		}
		seq[i] = BitNtCharUp[Base2Bnt[c]]
	}
	return true
}
