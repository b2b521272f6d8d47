package align

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur := make([]int, len(b)+1)
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			c := prev[j-1]
			if a[i-1] != b[j-1] {
				c++
			}
			if prev[j]+1 < c {
				c = prev[j] + 1
			}
			if cur[j-1]+1 < c {
				c = cur[j-1] + 1
			}
			cur[j] = c
		}
		prev = cur
	}
	return prev[len(b)]
}

func TestStringDistance(t *testing.T) {
	cases := []struct {
		a, b string
		d    int
	}{
		{"kitten", "sitting", 3},
		{"ACGTACGT", "CAGTACGT", 2},
		{"", "ACGT", 4},
		{"ACGT", "", 4},
		{"GATTACA", "GCATGCT", 4},
		{"ACGT", "ACGT", 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.d, StringDistance([]byte(c.a), []byte(c.b)), "%s %s", c.a, c.b)
	}
}

func randSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = "ACGT"[r.Intn(4)]
	}
	return s
}

func TestStringDistanceWideBand(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		a := randSeq(r, 50+r.Intn(150))
		b := randSeq(r, 50+r.Intn(150))
		assert.Equal(t, fullDistance(string(a), string(b)), StringDistance(a, b))
	}
}

func TestStringDistanceLimit(t *testing.T) {
	assert.Equal(t, 3, StringDistanceLimit([]byte("kitten"), []byte("sitting"), 3))
	assert.Equal(t, Unscored, StringDistanceLimit([]byte("kitten"), []byte("sitting"), 2))
	assert.Equal(t, Unscored, StringDistanceLimit([]byte("A"), []byte("AAAAA"), 3))
	assert.Equal(t, 0, StringDistanceLimit(nil, nil, 0))
}

func BenchmarkStringDistance(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	s1 := randSeq(r, 2000)
	s2 := append([]byte(nil), s1...)
	for i := 0; i < len(s2); i += 17 {
		s2[i] = 'A'
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		StringDistance(s1, s2)
	}
}
