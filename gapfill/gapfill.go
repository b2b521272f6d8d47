// Package gapfill closes the sequence gap between two anchored graph
// positions and extends paths past their outermost anchors.
package gapfill

import (
	"log"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/search"
	"github.com/mudesheng/gafill/utils"
)

// GraphPosition is an offset inside the full sequence of an edge.
type GraphPosition struct {
	Edge dbg.EdgeID
	Pos  int
}

type GapFillerResult struct {
	Score            int
	ReturnCode       align.ReturnCode
	IntermediatePath []dbg.EdgeID
}

func unscoredResult() GapFillerResult {
	return GapFillerResult{Score: align.Unscored}
}

func (r GapFillerResult) Scored() bool {
	return r.Score != align.Unscored
}

// PathSearcher is the bounded search the fillers run on the graph.
// *search.Searcher implements it.
type PathSearcher interface {
	BoundedForward(v dbg.VertexID, maxDist int) map[dbg.VertexID]int
	BoundedBackward(v dbg.VertexID, maxDist int) map[dbg.VertexID]int
	EnumeratePaths(start, end dbg.VertexID, minLen, maxLen int) (search.EnumStatus, [][]dbg.EdgeID)
}

type GapFiller struct {
	G        dbg.Graph
	Searcher PathSearcher
	Aligner  *align.Aligner
	Cfg      GapConfig
	Debug    bool
}

func NewGapFiller(g dbg.Graph, s PathSearcher, cfg GapConfig) *GapFiller {
	aligner := align.NewAligner(g)
	aligner.IterationLimit = cfg.IterationLimit
	return &GapFiller{G: g, Searcher: s, Aligner: aligner, Cfg: cfg}
}

// NewSearcher returns the default PathSearcher limited by cfg.
func NewSearcher(g dbg.Graph, cfg GapConfig) *search.Searcher {
	s := search.NewSearcher(g)
	s.MaxCalls, s.MaxPaths = cfg.MaxEnumCalls, cfg.MaxEnumPaths
	return s
}

// EdBudget is the largest edit distance accepted for a sequence of seqLen.
func EdBudget(cfg GapConfig, seqLen int) int {
	return utils.ClampInt(seqLen/cfg.MaxEdProportion, cfg.EdLowerBound, cfg.EdUpperBound)
}

// candidateSeq spells start suffix, path and end prefix the way the aligner
// walks them: a start offset inside the K overlap skips the same number of
// characters of whatever follows the start edge.
func (gf *GapFiller) candidateSeq(start, end GraphPosition, path []dbg.EdgeID) []byte {
	sks := gf.G.EdgeSeq(start.Edge)
	eks := gf.G.EdgeSeq(end.Edge)
	sl := gf.G.EdgeLength(start.Edge)
	sp := utils.ClampInt(start.Pos, 0, len(sks))
	ep := utils.ClampInt(end.Pos, 0, len(eks))
	cs := make([]byte, 0, dbg.PathLength(gf.G, path)+len(sks)+ep)
	if sp < sl {
		cs = append(cs, sks[sp:sl]...)
	}
	tail := append(dbg.PathToSeq(gf.G, path), eks[:ep]...)
	if skip := sp - sl; skip > 0 {
		tail = tail[utils.MinInt(skip, len(tail)):]
	}
	return append(cs, tail...)
}

// BestScoredPathBruteForce scores every enumerated path between the anchors
// against seq and keeps the one with the smallest edit distance.
func (gf *GapFiller) BestScoredPathBruteForce(seq []byte, start, end GraphPosition, minLen, maxLen int) GapFillerResult {
	res := unscoredResult()
	status, paths := gf.Searcher.EnumeratePaths(gf.G.EdgeEnd(start.Edge), gf.G.EdgeStart(end.Edge), minLen, maxLen)
	if status == search.EnumTooManyBranches {
		res.ReturnCode |= align.TooManyBranches
	}
	if len(paths) == 0 {
		res.ReturnCode |= align.NotConnected
		if gf.Debug {
			log.Printf("[BestScoredPathBruteForce] no path between %v and %v, len range [%d, %d], status: %v\n", start, end, minLen, maxLen, status)
		}
		return res
	}
	if len(seq) > gf.Cfg.MaxContigsGapLength {
		res.ReturnCode |= align.TooLongGap
		if gf.Debug {
			log.Printf("[BestScoredPathBruteForce] seq len: %d too long, skip scoring %d paths\n", len(seq), len(paths))
		}
		return res
	}
	bestIdx := -1
	for i, p := range paths {
		cs := gf.candidateSeq(start, end, p)
		var d int
		if bestIdx < 0 {
			d = align.StringDistance(seq, cs)
		} else {
			// only a strictly smaller distance replaces the best path
			d = align.StringDistanceLimit(seq, cs, res.Score-1)
		}
		if d < res.Score {
			res.Score, bestIdx = d, i
		}
	}
	if bestIdx < 0 {
		if gf.Debug {
			log.Printf("[BestScoredPathBruteForce] all %d paths between %v and %v unscored\n", len(paths), start, end)
		}
		return res
	}
	res.IntermediatePath = append([]dbg.EdgeID(nil), paths[bestIdx]...)
	return res
}

// BestScoredPathDijkstra aligns seq against every path inside the envelope of
// vertices lying on some start to end path no longer than maxLen.
// scoreBudget caps the accepted distance, align.Unscored selects EdBudget.
func (gf *GapFiller) BestScoredPathDijkstra(seq []byte, start, end GraphPosition, maxLen, scoreBudget int) GapFillerResult {
	res := unscoredResult()
	fwd := gf.Searcher.BoundedForward(gf.G.EdgeEnd(start.Edge), maxLen)
	bwd := gf.Searcher.BoundedBackward(gf.G.EdgeStart(end.Edge), maxLen)
	envelope := make(map[dbg.VertexID]int, len(bwd))
	for v, db := range bwd {
		if df, ok := fwd[v]; ok && df+db <= maxLen {
			envelope[v] = db
		}
	}
	if len(envelope) == 0 {
		res.ReturnCode |= align.NotConnected
	}
	if len(seq) > gf.Cfg.MaxContigsGapLength {
		res.ReturnCode |= align.TooLongGap
	}
	if len(envelope) > gf.Cfg.MaxVertexInGap {
		res.ReturnCode |= align.TooManyVertices
	}
	if res.ReturnCode != 0 {
		if gf.Debug {
			log.Printf("[BestScoredPathDijkstra] skip, envelope size: %d seq len: %d code: %v\n", len(envelope), len(seq), res.ReturnCode)
		}
		return res
	}
	budget := scoreBudget
	if budget == align.Unscored {
		budget = EdBudget(gf.Cfg, len(seq))
	}
	ar := gf.Aligner.CloseGap(seq, start.Edge, start.Pos, end.Edge, end.Pos, budget, envelope)
	res.ReturnCode |= ar.ReturnCode
	if ar.Score == align.Unscored || len(ar.Path) < 2 {
		return res
	}
	res.Score = ar.Score
	res.IntermediatePath = append([]dbg.EdgeID(nil), ar.Path[1:len(ar.Path)-1]...)
	return res
}

// Run tries brute force first and falls back to the aligner when the
// enumeration did not finish cleanly. A scored aligner result always wins.
func (gf *GapFiller) Run(seq []byte, start, end GraphPosition, minLen, maxLen int) GapFillerResult {
	bf := gf.BestScoredPathBruteForce(seq, start, end, minLen, maxLen)
	if gf.Cfg.RunDijkstra && bf.ReturnCode != 0 {
		dj := gf.BestScoredPathDijkstra(seq, start, end, maxLen, bf.Score)
		if gf.Debug {
			log.Printf("[GapFiller.Run] brute force score: %d code: %v, dijkstra score: %d code: %v\n", bf.Score, bf.ReturnCode, dj.Score, dj.ReturnCode)
		}
		if dj.Scored() {
			return dj
		}
	}
	if !bf.Scored() {
		bf.ReturnCode = align.NoPath
		bf.IntermediatePath = nil
	}
	return bf
}
