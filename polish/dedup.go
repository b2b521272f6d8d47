package polish

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash"

	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/gapfill"
)

func hashEdges(path []dbg.EdgeID) uint64 {
	h := xxhash.New()
	var buf [4]byte
	for _, e := range path {
		binary.LittleEndian.PutUint32(buf[:], uint32(e))
		h.Write(buf[:])
	}
	return h.Sum64()
}

func sameEdges(a, b []dbg.EdgeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DedupPaths drops every path whose edges, or conjugate edges, repeat an
// earlier path.
func DedupPaths(g dbg.Graph, paths []gapfill.BidirectionalPath) []gapfill.BidirectionalPath {
	seen := make(map[uint64][]int)
	var out []gapfill.BidirectionalPath
	for _, p := range paths {
		dup := false
		for _, edges := range [][]dbg.EdgeID{p.Edges, dbg.ConjugatePath(g, p.Edges)} {
			for _, j := range seen[hashEdges(edges)] {
				if sameEdges(out[j].Edges, edges) {
					dup = true
					break
				}
			}
			if dup {
				break
			}
		}
		if dup {
			continue
		}
		k := hashEdges(p.Edges)
		seen[k] = append(seen[k], len(out))
		out = append(out, p)
	}
	return out
}

// GraphvizGaps draws the neighbourhood of every unresolved gap, the edges on
// both sides of a gap in red.
func GraphvizGaps(g *dbg.DBG, paths []gapfill.BidirectionalPath, depth int, w io.Writer) error {
	highlight := make(map[dbg.EdgeID]bool)
	inArr := make(map[dbg.EdgeID]bool)
	var eIDArr []dbg.EdgeID
	add := func(arr ...dbg.EdgeID) {
		for _, e := range arr {
			if !inArr[e] {
				inArr[e] = true
				eIDArr = append(eIDArr, e)
			}
		}
	}
	for _, p := range paths {
		for _, i := range p.Discontinuities(g) {
			prev, cur := p.Edges[i-1], p.Edges[i]
			highlight[prev], highlight[cur] = true, true
			add(prev, cur)
			add(dbg.NeighbourEdges(g, g.EdgeEnd(prev), depth)...)
			add(dbg.NeighbourEdges(g, g.EdgeStart(cur), depth)...)
		}
	}
	if len(eIDArr) == 0 {
		return nil
	}
	return dbg.GraphvizDBG(g, eIDArr, highlight, w)
}
