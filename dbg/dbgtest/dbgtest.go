// Package dbgtest builds small graphs for tests.
package dbgtest

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mudesheng/gafill/dbg"
)

// Build adds seqs as edges e1, e2, ... and returns the forward edge IDs in order.
func Build(t testing.TB, k int, seqs ...string) (*dbg.DBG, []dbg.EdgeID) {
	t.Helper()
	g := dbg.NewDBG(k)
	eIDArr := make([]dbg.EdgeID, len(seqs))
	for i, s := range seqs {
		eID, err := g.AddEdge("e"+strconv.Itoa(i+1), []byte(s))
		require.NoError(t, err)
		eIDArr[i] = eID
	}
	return g, eIDArr
}

// Bubble is a four edge graph with K=5: A -> {B1, B2} -> C.
// B1 spells GATTACA and B2 CCTTGGT between the shared overlaps.
const (
	BubbleK  = 5
	BubbleA  = "TTGACCAGTACGTA"
	BubbleB1 = "ACGTAGATTACAGGCAT"
	BubbleB2 = "ACGTACCTTGGTGGCAT"
	BubbleC  = "GGCATCTTAGCCTA"
)

func BuildBubble(t testing.TB) (g *dbg.DBG, a, b1, b2, c dbg.EdgeID) {
	t.Helper()
	g, eIDArr := Build(t, BubbleK, BubbleA, BubbleB1, BubbleB2, BubbleC)
	return g, eIDArr[0], eIDArr[1], eIDArr[2], eIDArr[3]
}

// Bridge is a K=5 graph X -> {P1, P2} -> M -> {Q1, Q2} -> Y where M is long
// enough to anchor a gap on its own.
const (
	BridgeX  = "CTTACAGTTAGCACGTC"
	BridgeP1 = "ACGTCATTTCCTCATGCTTGCA"
	BridgeP2 = "ACGTCGCAATTCAAAAGTTGCA"
	BridgeM  = "TTGCACCATGTCCGTAATGTAGGCGAAATAGTAAACCATTTTACGGAGGATACCAAATTCCTCCTTATTCAGGACCTAACCTGAGG" +
		"TAAACCAGGTCTCTCCGCCCCCTTATAAAAGCTGTTGCACCTAGCCAAGTTCAACGGCAGCTGCAATGGAAATAGGCAATGACGGATATATA" +
		"TTAAAAAGTGTTTTAAGATACATTGAGGCCCGTTCGTGCTCCTCGCCCTGAAGCATTGCTTTGTGAAGAGGGACTTCAGCCAATAGACCTGCAT" +
		"ACCGGCTCATTCTTCATGTGCAACCTAGGGAGAGGATC"
	BridgeQ1 = "GGATCAATGTGTACACCTAG"
	BridgeQ2 = "GGATCTATACGCTCTCCTAG"
	BridgeY  = "CCTAGTACGGAGTCT"
)

// BuildBridge returns the graph and its forward edges X, P1, P2, M, Q1, Q2, Y.
func BuildBridge(t testing.TB) (*dbg.DBG, []dbg.EdgeID) {
	t.Helper()
	return Build(t, BubbleK, BridgeX, BridgeP1, BridgeP2, BridgeM, BridgeQ1, BridgeQ2, BridgeY)
}

// Short is a K=5 chain A -> S -> C whose middle edge adds only two bases, so
// leaving A at the end of its overlap skips all of S.
const (
	ShortA = BubbleA
	ShortS = "ACGTAGC"
	ShortC = "GTAGCTTCAGGACT"
)

func BuildShort(t testing.TB) (g *dbg.DBG, a, s, c dbg.EdgeID) {
	t.Helper()
	g, eIDArr := Build(t, BubbleK, ShortA, ShortS, ShortC)
	return g, eIDArr[0], eIDArr[1], eIDArr[2]
}
