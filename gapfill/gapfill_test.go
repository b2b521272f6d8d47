package gapfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/dbg/dbgtest"
	"github.com/mudesheng/gafill/search"
)

type countingSearcher struct {
	s                       PathSearcher
	forward, backward, enum int
}

func (c *countingSearcher) BoundedForward(v dbg.VertexID, maxDist int) map[dbg.VertexID]int {
	c.forward++
	return c.s.BoundedForward(v, maxDist)
}

func (c *countingSearcher) BoundedBackward(v dbg.VertexID, maxDist int) map[dbg.VertexID]int {
	c.backward++
	return c.s.BoundedBackward(v, maxDist)
}

func (c *countingSearcher) EnumeratePaths(start, end dbg.VertexID, minLen, maxLen int) (search.EnumStatus, [][]dbg.EdgeID) {
	c.enum++
	return c.s.EnumeratePaths(start, end, minLen, maxLen)
}

type emptyEnumSearcher struct {
	PathSearcher
}

func (emptyEnumSearcher) EnumeratePaths(start, end dbg.VertexID, minLen, maxLen int) (search.EnumStatus, [][]dbg.EdgeID) {
	return search.EnumOK, nil
}

type bubbleFixture struct {
	g            *dbg.DBG
	a, b1, b2, c dbg.EdgeID
	cs           *countingSearcher
	gf           *GapFiller
}

func newBubbleFixture(t *testing.T, cfg GapConfig) *bubbleFixture {
	f := &bubbleFixture{}
	f.g, f.a, f.b1, f.b2, f.c = dbgtest.BuildBubble(t)
	f.cs = &countingSearcher{s: NewSearcher(f.g, cfg)}
	f.gf = NewGapFiller(f.g, f.cs, cfg)
	return f
}

// A[5:9] + B1[:12] + C[:4]
const bubbleGapSeq = "CAGTACGTAGATTACAGGCA"

// bubbleGapSeq with one substitution inside B1
const bubbleNoisySeq = "CAGTACCTAGATTACAGGCA"

func TestBruteForceZeroGap(t *testing.T) {
	f := newBubbleFixture(t, DefaultGapConfig())
	start := GraphPosition{Edge: f.a, Pos: 5}
	end := GraphPosition{Edge: f.b1, Pos: 4}

	res := f.gf.Run([]byte("ACGTACGT"), start, end, 0, 20)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, align.ReturnCode(0), res.ReturnCode)
	assert.Empty(t, res.IntermediatePath)
	assert.Equal(t, 1, f.cs.enum)
	assert.Zero(t, f.cs.forward)
	assert.Zero(t, f.cs.backward)
}

func TestBruteForcePicksBestBranch(t *testing.T) {
	f := newBubbleFixture(t, DefaultGapConfig())
	start := GraphPosition{Edge: f.a, Pos: 5}
	end := GraphPosition{Edge: f.c, Pos: 4}

	res := f.gf.BestScoredPathBruteForce([]byte(bubbleGapSeq), start, end, 0, 100)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, align.ReturnCode(0), res.ReturnCode)
	assert.Equal(t, []dbg.EdgeID{f.b1}, res.IntermediatePath)

	res = f.gf.BestScoredPathBruteForce([]byte(bubbleNoisySeq), start, end, 0, 100)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, []dbg.EdgeID{f.b1}, res.IntermediatePath)

	// B2 is enumerated first; an exact match leaves B1 nothing to beat
	res = f.gf.BestScoredPathBruteForce([]byte("CAGTACGTACCTTGGTGGCA"), start, end, 0, 100)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, []dbg.EdgeID{f.b2}, res.IntermediatePath)
}

func TestBruteForceNoPaths(t *testing.T) {
	f := newBubbleFixture(t, DefaultGapConfig())
	gf := NewGapFiller(f.g, emptyEnumSearcher{f.cs}, DefaultGapConfig())
	res := gf.BestScoredPathBruteForce([]byte(bubbleGapSeq), GraphPosition{f.a, 5}, GraphPosition{f.c, 4}, 0, 100)
	assert.Equal(t, align.Unscored, res.Score)
	assert.True(t, res.ReturnCode.Has(align.NotConnected))
	assert.Nil(t, res.IntermediatePath)
}

func TestNotConnected(t *testing.T) {
	f := newBubbleFixture(t, DefaultGapConfig())
	start := GraphPosition{Edge: f.c, Pos: 4}
	end := GraphPosition{Edge: f.a, Pos: 5}

	bf := f.gf.BestScoredPathBruteForce([]byte(bubbleGapSeq), start, end, 0, 100)
	assert.Equal(t, align.Unscored, bf.Score)
	assert.True(t, bf.ReturnCode.Has(align.NotConnected))

	for _, seqLen := range []int{1, 20, 20000} {
		seq := make([]byte, seqLen)
		for i := range seq {
			seq[i] = 'A'
		}
		dj := f.gf.BestScoredPathDijkstra(seq, start, end, 100, align.Unscored)
		assert.Equal(t, align.Unscored, dj.Score)
		assert.True(t, dj.ReturnCode.Has(align.NotConnected))
		assert.Nil(t, dj.IntermediatePath)
	}

	res := f.gf.Run([]byte(bubbleGapSeq), start, end, 0, 100)
	assert.Equal(t, align.NoPath, res.ReturnCode)
	assert.Equal(t, align.Unscored, res.Score)
	assert.Nil(t, res.IntermediatePath)
}

func TestDijkstraLimits(t *testing.T) {
	cfg := DefaultGapConfig()
	cfg.MaxContigsGapLength = 10
	cfg.MaxVertexInGap = 1
	f := newBubbleFixture(t, cfg)
	start := GraphPosition{Edge: f.a, Pos: 5}
	end := GraphPosition{Edge: f.c, Pos: 4}

	dj := f.gf.BestScoredPathDijkstra([]byte(bubbleGapSeq), start, end, 100, align.Unscored)
	assert.Equal(t, align.Unscored, dj.Score)
	assert.True(t, dj.ReturnCode.Has(align.TooLongGap))
	assert.True(t, dj.ReturnCode.Has(align.TooManyVertices))
	assert.False(t, dj.ReturnCode.Has(align.NotConnected))

	bf := f.gf.BestScoredPathBruteForce([]byte(bubbleGapSeq), start, end, 0, 100)
	assert.True(t, bf.ReturnCode.Has(align.TooLongGap))
	assert.Equal(t, align.Unscored, bf.Score)

	res := f.gf.Run([]byte(bubbleGapSeq), start, end, 0, 100)
	assert.Equal(t, align.NoPath, res.ReturnCode)
}

func TestDijkstraBubble(t *testing.T) {
	f := newBubbleFixture(t, DefaultGapConfig())
	start := GraphPosition{Edge: f.a, Pos: 5}
	end := GraphPosition{Edge: f.c, Pos: 4}

	res := f.gf.BestScoredPathDijkstra([]byte(bubbleGapSeq), start, end, 100, align.Unscored)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, []dbg.EdgeID{f.b1}, res.IntermediatePath)
	assert.Equal(t, 1, f.cs.forward)
	assert.Equal(t, 1, f.cs.backward)

	res = f.gf.BestScoredPathDijkstra([]byte(bubbleNoisySeq), start, end, 100, align.Unscored)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, []dbg.EdgeID{f.b1}, res.IntermediatePath)
}

func TestDijkstraBudgetMonotone(t *testing.T) {
	f := newBubbleFixture(t, DefaultGapConfig())
	start := GraphPosition{Edge: f.a, Pos: 5}
	end := GraphPosition{Edge: f.c, Pos: 4}

	prev := align.Unscored
	for budget := 0; budget <= 6; budget++ {
		res := f.gf.BestScoredPathDijkstra([]byte(bubbleNoisySeq), start, end, 100, budget)
		if budget < 1 {
			assert.Equal(t, align.Unscored, res.Score)
			assert.True(t, res.ReturnCode.Has(align.NoPath))
			continue
		}
		assert.LessOrEqual(t, res.Score, prev, "budget %d", budget)
		assert.Equal(t, 1, res.Score)
		prev = res.Score
	}
}

func TestRunDijkstraOverridesBruteForce(t *testing.T) {
	cfg := DefaultGapConfig()
	// the enumeration stops after the first branch, B2
	cfg.MaxEnumCalls = 2
	f := newBubbleFixture(t, cfg)
	start := GraphPosition{Edge: f.a, Pos: 5}
	end := GraphPosition{Edge: f.c, Pos: 4}

	bf := f.gf.BestScoredPathBruteForce([]byte(bubbleGapSeq), start, end, 0, 100)
	assert.Equal(t, align.TooManyBranches, bf.ReturnCode)
	assert.Equal(t, 5, bf.Score)
	assert.Equal(t, []dbg.EdgeID{f.b2}, bf.IntermediatePath)

	res := f.gf.Run([]byte(bubbleGapSeq), start, end, 0, 100)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, align.ReturnCode(0), res.ReturnCode)
	assert.Equal(t, []dbg.EdgeID{f.b1}, res.IntermediatePath)

	f.gf.Cfg.RunDijkstra = false
	res = f.gf.Run([]byte(bubbleGapSeq), start, end, 0, 100)
	assert.Equal(t, bf, res)
}

func TestRunIdempotentAndExcludesAnchors(t *testing.T) {
	f := newBubbleFixture(t, DefaultGapConfig())
	start := GraphPosition{Edge: f.a, Pos: 5}
	end := GraphPosition{Edge: f.c, Pos: 4}

	for _, seq := range []string{bubbleGapSeq, bubbleNoisySeq, "CAGTACCTTGGTGGCA", "ACGT"} {
		r1 := f.gf.Run([]byte(seq), start, end, 0, 100)
		r2 := f.gf.Run([]byte(seq), start, end, 0, 100)
		require.Equal(t, r1, r2, seq)
		assert.NotContains(t, r1.IntermediatePath, f.a)
		assert.NotContains(t, r1.IntermediatePath, f.c)
	}
}

func TestEdBudget(t *testing.T) {
	cfg := DefaultGapConfig()
	assert.Equal(t, 500, EdBudget(cfg, 20))
	assert.Equal(t, 1200, EdBudget(cfg, 6000))
	assert.Equal(t, 2000, EdBudget(cfg, 50000))
}

func TestShortEdgeBruteForceMatchesDijkstra(t *testing.T) {
	g, a, s, c := dbgtest.BuildShort(t)
	cfg := DefaultGapConfig()
	gf := NewGapFiller(g, NewSearcher(g, cfg), cfg)
	end := GraphPosition{Edge: c, Pos: 9}

	cases := []struct {
		startPos int
		seq      string
	}{
		{14, dbgtest.ShortS[5:] + dbgtest.ShortC[5:9]},
		{9, dbgtest.ShortA[9:] + dbgtest.ShortS[5:] + dbgtest.ShortC[5:9]},
	}
	for _, tc := range cases {
		start := GraphPosition{Edge: a, Pos: tc.startPos}
		bf := gf.BestScoredPathBruteForce([]byte(tc.seq), start, end, 0, 20)
		dj := gf.BestScoredPathDijkstra([]byte(tc.seq), start, end, 20, align.Unscored)
		assert.Equal(t, 0, bf.Score, "start %v", start)
		assert.Equal(t, []dbg.EdgeID{s}, bf.IntermediatePath, "start %v", start)
		assert.Equal(t, align.ReturnCode(0), dj.ReturnCode, "start %v", start)
		assert.Equal(t, bf.Score, dj.Score, "start %v", start)
		assert.Equal(t, bf.IntermediatePath, dj.IntermediatePath, "start %v", start)
	}
}
