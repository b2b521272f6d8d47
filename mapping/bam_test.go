package mapping

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/dbg/dbgtest"
	"github.com/mudesheng/gafill/gapfill"
	"github.com/mudesheng/gafill/polish"
)

var _ polish.PairedEvidence = (*PairedInfo)(nil)

func bubbleHeader(t *testing.T, g *dbg.DBG) (*sam.Header, map[string]*sam.Reference) {
	t.Helper()
	refs := make(map[string]*sam.Reference)
	var arr []*sam.Reference
	for _, name := range []string{"e1", "e2", "e3", "e4"} {
		ref, err := sam.NewReference(name, "", "", len(g.EdgeSeq(g.NameMap[name])), nil, nil)
		require.NoError(t, err)
		refs[name] = ref
		arr = append(arr, ref)
	}
	h, err := sam.NewHeader(nil, arr)
	require.NoError(t, err)
	return h, refs
}

func newRecord(t *testing.T, name string, ref, mref *sam.Reference, pos, mpos int, flags sam.Flags, ops ...sam.CigarOp) *sam.Record {
	t.Helper()
	qlen := 0
	for _, co := range ops {
		if co.Type().Consumes().Query != 0 {
			qlen += co.Len()
		}
	}
	seq := bytes.Repeat([]byte("A"), qlen)
	qual := bytes.Repeat([]byte{30}, qlen)
	r, err := sam.NewRecord(name, ref, mref, pos, mpos, 0, 60, ops, seq, qual, nil)
	require.NoError(t, err)
	r.Flags = flags
	return r
}

func TestAccumulateCigar(t *testing.T) {
	cigar := sam.Cigar{
		sam.NewCigarOp(sam.CigarHardClipped, 2),
		sam.NewCigarOp(sam.CigarSoftClipped, 3),
		sam.NewCigarOp(sam.CigarMatch, 10),
		sam.NewCigarOp(sam.CigarInsertion, 2),
		sam.NewCigarOp(sam.CigarMatch, 4),
		sam.NewCigarOp(sam.CigarDeletion, 1),
		sam.NewCigarOp(sam.CigarMatch, 5),
		sam.NewCigarOp(sam.CigarSoftClipped, 4),
	}
	mch, ins, del, clipStart, clipEnd := AccumulateCigar(cigar)
	assert.Equal(t, 19, mch)
	assert.Equal(t, 2, ins)
	assert.Equal(t, 1, del)
	assert.Equal(t, 5, clipStart)
	assert.Equal(t, 4, clipEnd)
}

func TestAlignmentFromRecord(t *testing.T) {
	g, _, b1, _, _ := dbgtest.BuildBubble(t)
	_, refs := bubbleHeader(t, g)
	ops := []sam.CigarOp{
		sam.NewCigarOp(sam.CigarSoftClipped, 3),
		sam.NewCigarOp(sam.CigarMatch, 10),
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
	}

	aln, err := AlignmentFromRecord(g, newRecord(t, "r", refs["e2"], nil, 2, -1, 0, ops...))
	require.NoError(t, err)
	assert.Equal(t, b1, aln.Edge)
	assert.Equal(t, gapfill.Range{StartPos: 3, EndPos: 13}, aln.Initial)
	assert.Equal(t, gapfill.Range{StartPos: 2, EndPos: 12}, aln.Mapped)
	assert.Equal(t, 10, aln.Mch)
	assert.Equal(t, 60, aln.MapQ)

	aln, err = AlignmentFromRecord(g, newRecord(t, "r", refs["e2"], nil, 2, -1, sam.Reverse, ops...))
	require.NoError(t, err)
	assert.Equal(t, g.Conjugate(b1), aln.Edge)
	assert.Equal(t, gapfill.Range{StartPos: 2, EndPos: 12}, aln.Initial)
	assert.Equal(t, gapfill.Range{StartPos: 5, EndPos: 15}, aln.Mapped)

	other, err := sam.NewReference("contig9", "", "", 100, nil, nil)
	require.NoError(t, err)
	_, err = sam.NewHeader(nil, []*sam.Reference{other})
	require.NoError(t, err)
	_, err = AlignmentFromRecord(g, newRecord(t, "r", other, nil, 2, -1, 0, ops...))
	assert.Error(t, err)
}

func TestBuildMappingPath(t *testing.T) {
	_, a, b1, _, c := dbgtest.BuildBubble(t)
	mp := BuildMappingPath([]Alignment{
		{Edge: c, Initial: gapfill.Range{StartPos: 10, EndPos: 20}, Mapped: gapfill.Range{StartPos: 0, EndPos: 10}},
		{Edge: b1, Initial: gapfill.Range{StartPos: 2, EndPos: 8}, Mapped: gapfill.Range{StartPos: 4, EndPos: 10}},
		{Edge: a, Initial: gapfill.Range{StartPos: 0, EndPos: 12}, Mapped: gapfill.Range{StartPos: 2, EndPos: 14}},
	})
	assert.Equal(t, []dbg.EdgeID{a, c}, mp.Edges)
	assert.Equal(t, 10, mp.Ranges[1].Initial.StartPos)
	assert.Equal(t, 2, mp.Ranges[0].Mapped.StartPos)
	assert.Zero(t, BuildMappingPath(nil).Size())
}

func TestReadBam(t *testing.T) {
	g, a, _, _, c := dbgtest.BuildBubble(t)
	h, refs := bubbleHeader(t, g)
	fn := filepath.Join(t.TempDir(), "reads.bam")
	fp, err := os.Create(fn)
	require.NoError(t, err)
	bw, err := bam.NewWriter(fp, h, 1)
	require.NoError(t, err)
	m := func(n int) sam.CigarOp { return sam.NewCigarOp(sam.CigarMatch, n) }
	for _, r := range []*sam.Record{
		newRecord(t, "r1", refs["e1"], nil, 0, -1, 0, m(14)),
		newRecord(t, "r1", refs["e4"], nil, 0, -1, sam.Supplementary, sam.NewCigarOp(sam.CigarSoftClipped, 21), m(14)),
		newRecord(t, "r2", nil, nil, -1, -1, sam.Unmapped, m(10)),
		newRecord(t, "r3", refs["e2"], nil, 0, -1, sam.Secondary, m(17)),
	} {
		require.NoError(t, bw.Write(r))
	}
	require.NoError(t, bw.Close())
	require.NoError(t, fp.Close())

	alnMap, err := ReadBam(fn, g, 1)
	require.NoError(t, err)
	require.Len(t, alnMap, 1)
	mp := BuildMappingPath(alnMap["r1"])
	assert.Equal(t, []dbg.EdgeID{a, c}, mp.Edges)
	assert.Equal(t, gapfill.Range{StartPos: 21, EndPos: 35}, mp.Ranges[1].Initial)
	assert.Equal(t, gapfill.Range{StartPos: 0, EndPos: 14}, mp.Ranges[1].Mapped)

	_, err = ReadBam(filepath.Join(t.TempDir(), "missing.bam"), g, 1)
	assert.Error(t, err)
}

func TestPairedInfo(t *testing.T) {
	g, a, b1, _, c := dbgtest.BuildBubble(t)
	_, refs := bubbleHeader(t, g)
	m := sam.NewCigarOp(sam.CigarMatch, 10)
	pi := NewPairedInfo(g)

	assert.True(t, pi.AddRecord(newRecord(t, "p1", refs["e1"], refs["e4"], 0, 2, sam.Paired|sam.Read1|sam.MateReverse, m)))
	assert.Equal(t, 1.0, pi.Weight(a, c))
	assert.Equal(t, 1.0, pi.Weight(g.Conjugate(c), g.Conjugate(a)))
	assert.Zero(t, pi.Weight(c, a))

	// the same fragment seen from the other strand
	assert.True(t, pi.AddRecord(newRecord(t, "p2", refs["e4"], refs["e1"], 2, 0, sam.Paired|sam.Read1|sam.Reverse, m)))
	assert.Equal(t, 2.0, pi.Weight(g.Conjugate(c), g.Conjugate(a)))
	assert.Equal(t, 2.0, pi.Weight(a, c))

	assert.False(t, pi.AddRecord(newRecord(t, "p3", refs["e1"], refs["e2"], 0, 2, sam.Paired|sam.Read2|sam.MateReverse, m)))
	assert.False(t, pi.AddRecord(newRecord(t, "p4", refs["e1"], refs["e2"], 0, 2, sam.Paired|sam.Read1|sam.MateUnmapped, m)))
	assert.False(t, pi.AddRecord(newRecord(t, "p5", refs["e2"], refs["e2"], 0, 5, sam.Paired|sam.Read1|sam.MateReverse, m)))
	assert.Zero(t, pi.Weight(a, b1))
	assert.Equal(t, 2, pi.Pairs)

	pi.MinMapQ = 61
	assert.False(t, pi.AddRecord(newRecord(t, "p6", refs["e1"], refs["e2"], 0, 2, sam.Paired|sam.Read1|sam.MateReverse, m)))
}

func TestLoadPairedInfo(t *testing.T) {
	g, a, _, _, c := dbgtest.BuildBubble(t)
	h, refs := bubbleHeader(t, g)
	fn := filepath.Join(t.TempDir(), "pe.bam")
	fp, err := os.Create(fn)
	require.NoError(t, err)
	bw, err := bam.NewWriter(fp, h, 1)
	require.NoError(t, err)
	m := sam.NewCigarOp(sam.CigarMatch, 10)
	for _, r := range []*sam.Record{
		newRecord(t, "p1", refs["e1"], refs["e4"], 0, 2, sam.Paired|sam.Read1|sam.MateReverse, m),
		newRecord(t, "p1", refs["e4"], refs["e1"], 2, 0, sam.Paired|sam.Read2|sam.Reverse, m),
		newRecord(t, "p2", refs["e1"], refs["e4"], 0, 2, sam.Paired|sam.Read1|sam.MateReverse|sam.Secondary, m),
	} {
		require.NoError(t, bw.Write(r))
	}
	require.NoError(t, bw.Close())
	require.NoError(t, fp.Close())

	pi, err := LoadPairedInfo([]string{fn}, g, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, pi.Pairs)
	assert.Equal(t, 1.0, pi.Weight(a, c))

	_, err = LoadPairedInfo([]string{fn, filepath.Join(t.TempDir(), "missing.bam")}, g, 0, 1)
	assert.Error(t, err)
}
