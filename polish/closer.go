package polish

import (
	"fmt"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/gapfill"
	"github.com/mudesheng/gafill/utils"
)

type CloserKind int

const (
	ExtensionCloser CloserKind = iota
	PairedEvidenceCloser
	EnumerationCloser
)

// MergePolicy picks what EnumerationCloser inserts when several paths fit a gap.
type MergePolicy int

const (
	MergeBest   MergePolicy = iota // the path whose length is closest to the gap
	MergeBridge                    // the longest long edge every path shares
	MergeLCP                       // the prefix shared by every path
)

func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "best":
		return MergeBest, nil
	case "bridge":
		return MergeBridge, nil
	case "lcp":
		return MergeLCP, nil
	}
	return MergeBest, fmt.Errorf("unknown merge policy %q, expect best|bridge|lcp", s)
}

// Closer is one strategy of the polishing chain.
type Closer struct {
	Kind  CloserKind
	Merge MergePolicy
}

func (c Closer) String() string {
	switch c.Kind {
	case ExtensionCloser:
		return "extension"
	case PairedEvidenceCloser:
		return "paired"
	}
	switch c.Merge {
	case MergeBridge:
		return "enumeration/bridge"
	case MergeLCP:
		return "enumeration/lcp"
	}
	return "enumeration/best"
}

const (
	WeightPriority = 5.0
	BridgeMinLen   = 300
)

// gapContext is the gap in front of path.Edges[idx].
type gapContext struct {
	pp   *PathPolisher
	path *gapfill.BidirectionalPath
	idx  int
	prev dbg.EdgeID
	cur  dbg.EdgeID
	gap  gapfill.Gap
}

// closeResult is inserted between prev and cur: gaps[j] lies in front of
// fill[j] and rest in front of cur.
type closeResult struct {
	fill []dbg.EdgeID
	gaps []gapfill.Gap
	rest gapfill.Gap
}

func filled(fill []dbg.EdgeID, rest gapfill.Gap) closeResult {
	return closeResult{fill: fill, gaps: make([]gapfill.Gap, len(fill)), rest: rest}
}

func closeGap(c Closer, ctx *gapContext) (closeResult, bool) {
	switch c.Kind {
	case ExtensionCloser:
		return closeByExtension(ctx)
	case PairedEvidenceCloser:
		return closeByPairedEvidence(ctx)
	case EnumerationCloser:
		return closeByEnumeration(ctx, c.Merge)
	}
	return closeResult{}, false
}

// closeByExtension aligns the read sequence spanning the gap from the end of
// prev. It closes the gap once the alignment reaches an edge leading into cur.
func closeByExtension(ctx *gapContext) (closeResult, bool) {
	pp, g, gap := ctx.pp, ctx.pp.G, ctx.gap
	if len(gap.Seq) == 0 {
		return closeResult{}, false
	}
	budget := gapfill.EdBudget(pp.Cfg, len(gap.Seq))
	reach := pp.Searcher.BoundedForward(g.EdgeEnd(ctx.prev), len(gap.Seq)+budget)
	ar := pp.Aligner.ReconstructEnd(gap.Seq, ctx.prev, gap.PrevPos, budget, reach)
	if ar.Score == align.Unscored {
		return closeResult{}, false
	}
	ans := ar.Path
	for j := 1; j < len(ans); j++ {
		if dbg.IsAdjacent(g, ans[j], ctx.cur) {
			return filled(append([]dbg.EdgeID(nil), ans[1:j+1]...), gapfill.Gap{}), true
		}
	}
	endPos := ar.PathEndPosition
	for endPos < g.K() && len(ans) > 1 {
		ans = ans[:len(ans)-1]
		endPos += g.EdgeLength(ans[len(ans)-1])
	}
	if len(ans) < 2 {
		return closeResult{}, false
	}
	fill := append([]dbg.EdgeID(nil), ans[1:]...)
	rest := gapfill.Gap{
		Dist:    utils.MaxInt(gap.Dist-dbg.PathLength(g, fill), pp.MinGap),
		PrevPos: endPos,
		CurPos:  gap.CurPos,
		Seq:     gap.Seq[ar.SeqEndPosition:],
	}
	return filled(fill, rest), true
}

// pairedWeight sums the evidence that e sits at position idx of the path,
// counted against the edges occurring once in it.
func pairedWeight(ctx *gapContext, unique map[dbg.EdgeID]int, e dbg.EdgeID) (w float64) {
	for u, i := range unique {
		if i < ctx.idx {
			w += ctx.pp.Paired.Weight(u, e)
		} else {
			w += ctx.pp.Paired.Weight(e, u)
		}
	}
	return
}

// closeByPairedEvidence walks from prev, each step taking the successor whose
// paired read support dominates all others by WeightPriority.
func closeByPairedEvidence(ctx *gapContext) (closeResult, bool) {
	pp, g := ctx.pp, ctx.pp.G
	if pp.Paired == nil {
		return closeResult{}, false
	}
	counts := make(map[dbg.EdgeID]int)
	for _, e := range ctx.path.Edges {
		counts[e]++
	}
	unique := make(map[dbg.EdgeID]int)
	for i, e := range ctx.path.Edges {
		if counts[e] == 1 {
			unique[e] = i
		}
	}
	_, limit := pp.Cfg.PathLimits(ctx.gap.Dist, g.K())
	var fill []dbg.EdgeID
	last, length := ctx.prev, 0
	for {
		if len(fill) > 0 && dbg.IsAdjacent(g, last, ctx.cur) {
			return filled(fill, gapfill.Gap{}), true
		}
		var best dbg.EdgeID
		var bestW, secondW float64
		for _, ne := range g.OutgoingEdges(g.EdgeEnd(last)) {
			w := pairedWeight(ctx, unique, ne)
			if w > bestW {
				best, bestW, secondW = ne, w, bestW
			} else if w > secondW {
				secondW = w
			}
		}
		if bestW == 0 || bestW < WeightPriority*secondW {
			break
		}
		length += g.EdgeLength(best)
		if length > limit {
			break
		}
		fill = append(fill, best)
		last = best
	}
	if len(fill) == 0 {
		return closeResult{}, false
	}
	rest := gapfill.Gap{Dist: utils.MaxInt(ctx.gap.Dist-dbg.PathLength(g, fill), pp.MinGap)}
	return filled(fill, rest), true
}

func indexEdge(path []dbg.EdgeID, e dbg.EdgeID) int {
	for i, x := range path {
		if x == e {
			return i
		}
	}
	return -1
}

// closeByEnumeration lists the paths fitting the gap length and inserts the
// only one, or merges several according to policy.
func closeByEnumeration(ctx *gapContext, policy MergePolicy) (closeResult, bool) {
	pp, g := ctx.pp, ctx.pp.G
	minLen, maxLen := pp.Cfg.PathLimits(ctx.gap.Dist, g.K())
	_, paths := pp.Searcher.EnumeratePaths(g.EdgeEnd(ctx.prev), g.EdgeStart(ctx.cur), minLen, maxLen)
	switch {
	case len(paths) == 0:
		return closeResult{}, false
	case len(paths) == 1:
		return filled(paths[0], gapfill.Gap{}), true
	}
	switch policy {
	case MergeBridge:
		return mergeBridge(ctx, paths)
	case MergeLCP:
		return mergeLCP(ctx, paths)
	}
	best, bestDiff := 0, -1
	for i, p := range paths {
		if d := utils.AbsInt(dbg.PathLength(g, p) - ctx.gap.Dist); bestDiff < 0 || d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return filled(paths[best], gapfill.Gap{}), true
}

func mergeBridge(ctx *gapContext, paths [][]dbg.EdgeID) (closeResult, bool) {
	pp, g := ctx.pp, ctx.pp.G
	var bridge dbg.EdgeID
	for _, e := range paths[0] {
		if g.EdgeLength(e) < BridgeMinLen || (bridge != 0 && g.EdgeLength(e) <= g.EdgeLength(bridge)) {
			continue
		}
		shared := true
		for _, p := range paths[1:] {
			if indexEdge(p, e) < 0 {
				shared = false
				break
			}
		}
		if shared {
			bridge = e
		}
	}
	if bridge == 0 {
		return closeResult{}, false
	}
	minBefore, minAfter := -1, -1
	for _, p := range paths {
		i := indexEdge(p, bridge)
		before, after := dbg.PathLength(g, p[:i]), dbg.PathLength(g, p[i+1:])
		if minBefore < 0 || before < minBefore {
			minBefore = before
		}
		if minAfter < 0 || after < minAfter {
			minAfter = after
		}
	}
	var gapBefore, rest gapfill.Gap
	if !dbg.IsAdjacent(g, ctx.prev, bridge) {
		gapBefore.Dist = utils.MaxInt(minBefore, pp.MinGap)
	}
	if !dbg.IsAdjacent(g, bridge, ctx.cur) {
		rest.Dist = utils.MaxInt(minAfter, pp.MinGap)
	}
	return closeResult{fill: []dbg.EdgeID{bridge}, gaps: []gapfill.Gap{gapBefore}, rest: rest}, true
}

func mergeLCP(ctx *gapContext, paths [][]dbg.EdgeID) (closeResult, bool) {
	pp, g := ctx.pp, ctx.pp.G
	lcp := 0
	for ; lcp < len(paths[0]); lcp++ {
		e := paths[0][lcp]
		same := true
		for _, p := range paths[1:] {
			if lcp >= len(p) || p[lcp] != e {
				same = false
				break
			}
		}
		if !same {
			break
		}
	}
	if lcp == 0 {
		return closeResult{}, false
	}
	fill := append([]dbg.EdgeID(nil), paths[0][:lcp]...)
	var rest gapfill.Gap
	if !dbg.IsAdjacent(g, fill[lcp-1], ctx.cur) {
		minLen := -1
		for _, p := range paths {
			if l := dbg.PathLength(g, p); minLen < 0 || l < minLen {
				minLen = l
			}
		}
		rest.Dist = utils.MaxInt(minLen-dbg.PathLength(g, fill), pp.MinGap)
	}
	return filled(fill, rest), true
}
