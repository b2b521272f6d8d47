package pipeline

import (
	"bytes"
	"context"
	"log"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/dbg/dbgtest"
	"github.com/mudesheng/gafill/gapfill"
	"github.com/mudesheng/gafill/mapping"
	"github.com/mudesheng/gafill/polish"
)

func hit(e dbg.EdgeID, rs, re, ms, me int) mapping.Alignment {
	return mapping.Alignment{Edge: e, Initial: gapfill.Range{StartPos: rs, EndPos: re}, Mapped: gapfill.Range{StartPos: ms, EndPos: me}}
}

func TestThreadReads(t *testing.T) {
	g, a, b1, _, c := dbgtest.BuildBubble(t)
	cfg := gapfill.DefaultGapConfig()
	th := gapfill.NewThreader(g, gapfill.NewSearcher(g, cfg), cfg)
	reads := map[string][]byte{
		"r1": []byte(dbgtest.BubbleA[:9] + dbgtest.BubbleB1[:12] + dbgtest.BubbleC),
		"r2": []byte(dbgtest.BubbleC + dbgtest.BubbleA),
	}
	alnMap := map[string][]mapping.Alignment{
		"r1": {hit(c, 21, 35, 0, 14), hit(a, 0, 14, 0, 14)},
		"r2": {hit(c, 0, 14, 0, 14), hit(a, 14, 28, 0, 14)},
		"r3": {hit(a, 0, 14, 0, 14)},
	}

	var buf bytes.Buffer
	st, err := ThreadReads(context.Background(), th, g, alnMap, reads, &buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Reads)
	assert.Equal(t, 2, st.Gaps)
	assert.Equal(t, 1, st.ClosedGaps)
	assert.Equal(t, 1, st.Codes[align.NoPath])

	paths, err := gapfill.ReadPaths(&buf, g)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	sort.Slice(paths, func(i, j int) bool { return paths[i].Name < paths[j].Name })
	assert.Equal(t, []dbg.EdgeID{a, b1, c}, paths[0].Edges)
	assert.Equal(t, gapfill.PathRange{SeqEnd: 35, EdgeEnd: 14}, paths[0].Range)
	assert.Equal(t, []dbg.EdgeID{c, a}, paths[1].Edges)
	assert.Equal(t, 5, paths[1].Gaps[1].Dist)
}

func TestPolishAll(t *testing.T) {
	g, a, b1, b2, c := dbgtest.BuildBubble(t)
	cfg := gapfill.DefaultGapConfig()
	pp := polish.NewPathPolisher(g, gapfill.NewSearcher(g, cfg), nil, cfg)
	paths := []gapfill.BidirectionalPath{
		gapfill.NewBidirectionalPath("p1", []dbg.EdgeID{a, b2, c}),
		gapfill.NewBidirectionalPath("p2", []dbg.EdgeID{a, c}),
	}
	paths[1].Gaps[1] = gapfill.Gap{Dist: 12, PrevPos: 14, Seq: []byte("GATTACA")}

	var buf bytes.Buffer
	out, rep, err := PolishAll(pp, g, paths, true, &buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []dbg.EdgeID{a, b1, c}, out[1].Edges)
	assert.Equal(t, 1, rep.Closed)
	assert.Equal(t, "p1\te1,e3,e4\t0-0\t0-0\np2\te1,e2,e4\t0-0\t0-0\n", buf.String())

	// p2 polishes into a copy of p1
	paths[1].Gaps[1].Seq = []byte("CCTTGGT")
	buf.Reset()
	out, _, err = PolishAll(pp, g, paths, true, &buf)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	out, _, err = PolishAll(pp, g, paths, false, &buf)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestLogGapReportOrder(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	}()

	rep := polish.GapReport{
		Paths:       3,
		Invocations: 9,
		Closed:      6,
		ByCloser:    map[string]int{"paired": 1, "enumeration/best": 2, "extension": 3},
		Unresolved:  map[string][]int{"p2": {4}, "p1": {1, 3}},
	}
	for i := 0; i < 5; i++ {
		buf.Reset()
		logGapReport(rep, 3)
		assert.Equal(t, "[Polish] paths: 3 written: 3 closer calls: 9 closed: 6 unresolved: 3\n"+
			"[Polish] closer enumeration/best closed 2 gaps\n"+
			"[Polish] closer extension closed 3 gaps\n"+
			"[Polish] closer paired closed 1 gaps\n"+
			"[Polish] path p1 unresolved gaps before edges [1 3]\n"+
			"[Polish] path p2 unresolved gaps before edges [4]\n", buf.String())
	}
}

func TestPairBamFiles(t *testing.T) {
	libs := []gapfill.LibInfo{
		{Name: "pe1", FnName: []string{"pe1_1.fq.gz", "pe1_2.fq.gz", "pe1.bam"}},
		{Name: "pe2", FnName: []string{"pe2.bam"}},
	}
	assert.Equal(t, []string{"pe1.bam", "pe2.bam"}, pairBamFiles("", libs))
	assert.Equal(t, []string{"x.bam"}, pairBamFiles("x.bam", libs))
	assert.Empty(t, pairBamFiles("", nil))
}

func TestLoadGapConfigDefault(t *testing.T) {
	assert.Equal(t, gapfill.DefaultGapConfig(), loadGapConfig("").Gap)
}
