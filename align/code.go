package align

import (
	"math"
	"strings"
)

// Unscored marks a result without a usable path.
const Unscored = math.MaxInt32

// ReturnCode is a set of failure flags, zero means success.
type ReturnCode uint32

const (
	NotConnected ReturnCode = 1 << iota
	TooLongGap
	TooManyVertices
	IterationLimit
	TooManyBranches
	NoPath
	TooLongEnd
	EmptyEnd
)

var codeNames = []string{"NOT_CONNECTED", "TOO_LONG_GAP", "TOO_MANY_VERTICES", "ITERATION_LIMIT", "TOO_MANY_BRANCHES", "NO_PATH", "TOO_LONG_END", "EMPTY_END"}

func (rc ReturnCode) Has(flag ReturnCode) bool {
	return rc&flag != 0
}

func (rc ReturnCode) String() string {
	if rc == 0 {
		return "OK"
	}
	var names []string
	for i, n := range codeNames {
		if rc&(1<<uint(i)) != 0 {
			names = append(names, n)
		}
	}
	return strings.Join(names, "|")
}
