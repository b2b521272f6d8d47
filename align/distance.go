package align

import (
	"github.com/mudesheng/gafill/utils"
)

// StringDistance is the unit cost edit distance between a and b.
// It runs a banded DP and doubles the band until the distance fits inside it.
func StringDistance(a, b []byte) int {
	band := utils.MaxInt(utils.AbsInt(len(a)-len(b)), 32)
	for {
		d := bandedDistance(a, b, band)
		if d <= band {
			return d
		}
		if band >= utils.MaxInt(len(a), len(b)) {
			return d
		}
		band *= 2
	}
}

// StringDistanceLimit returns Unscored when the distance exceeds limit.
func StringDistanceLimit(a, b []byte, limit int) int {
	if utils.AbsInt(len(a)-len(b)) > limit {
		return Unscored
	}
	d := bandedDistance(a, b, utils.MaxInt(limit, 1))
	if d > limit {
		return Unscored
	}
	return d
}

// bandedDistance only fills cells with |i-j| <= band; cells outside count as
// band+1 so the result is exact whenever it is <= band.
func bandedDistance(a, b []byte, band int) int {
	n, m := len(a), len(b)
	inf := band + 1
	if utils.AbsInt(n-m) > band {
		return inf
	}
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := 0; j <= m; j++ {
		if j <= band {
			prev[j] = j
		} else {
			prev[j] = inf
		}
	}
	for i := 1; i <= n; i++ {
		lo := utils.MaxInt(1, i-band)
		hi := utils.MinInt(m, i+band)
		for j := 0; j <= m; j++ {
			cur[j] = inf
		}
		if i <= band {
			cur[0] = i
		}
		for j := lo; j <= hi; j++ {
			c := prev[j-1]
			if a[i-1] != b[j-1] {
				c++
			}
			if d := prev[j] + 1; d < c {
				c = d
			}
			if d := cur[j-1] + 1; d < c {
				c = d
			}
			if c > inf {
				c = inf
			}
			cur[j] = c
		}
		prev, cur = cur, prev
	}
	return prev[m]
}
