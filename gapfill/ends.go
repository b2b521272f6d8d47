package gapfill

import (
	"log"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/dbg"
)

// Range is a half open [StartPos, EndPos) interval.
type Range struct {
	StartPos, EndPos int
}

func (r Range) Size() int {
	return r.EndPos - r.StartPos
}

// MappingRange pairs a read interval with the edge interval it aligns to.
type MappingRange struct {
	Initial Range // on the read
	Mapped  Range // on the edge
}

// MappingPath is the chain of edges a read was mapped to, in read order.
type MappingPath struct {
	Edges  []dbg.EdgeID
	Ranges []MappingRange
}

func (mp MappingPath) Size() int {
	return len(mp.Edges)
}

func (mp MappingPath) Front() (dbg.EdgeID, MappingRange) {
	return mp.Edges[0], mp.Ranges[0]
}

func (mp MappingPath) Back() (dbg.EdgeID, MappingRange) {
	last := len(mp.Edges) - 1
	return mp.Edges[last], mp.Ranges[last]
}

// PathRange is the part of a read and of its path a threaded read explains.
type PathRange struct {
	SeqStart, SeqEnd   int
	EdgeStart, EdgeEnd int
}

// Direction turns a leading extension into a trailing one on the
// reverse complement strand so that a single search serves both.
type Direction struct {
	g       dbg.Graph
	forward bool
}

func NewDirection(g dbg.Graph, forward bool) Direction {
	return Direction{g: g, forward: forward}
}

func (d Direction) Forward() bool { return d.forward }

func (d Direction) Seq(s []byte) []byte {
	if d.forward {
		return s
	}
	return dbg.GetReverseCompByteArr(s)
}

func (d Direction) Edge(e dbg.EdgeID) dbg.EdgeID {
	if d.forward {
		return e
	}
	return d.g.Conjugate(e)
}

func (d Direction) Path(p []dbg.EdgeID) []dbg.EdgeID {
	if d.forward {
		return append([]dbg.EdgeID(nil), p...)
	}
	return dbg.ConjugatePath(d.g, p)
}

type EndsFiller struct {
	G        dbg.Graph
	Searcher PathSearcher
	Aligner  *align.Aligner
	Cfg      GapConfig
	Debug    bool
}

func NewEndsFiller(g dbg.Graph, s PathSearcher, cfg GapConfig) *EndsFiller {
	aligner := align.NewAligner(g)
	aligner.IterationLimit = cfg.IterationLimit
	return &EndsFiller{G: g, Searcher: s, Aligner: aligner, Cfg: cfg}
}

// initialState returns the overhang in search orientation, the anchor edge and
// offset the search starts from and the read offset of the overhang.
func (ef *EndsFiller) initialState(mp MappingPath, s []byte, dir Direction) (ss []byte, startE dbg.EdgeID, startPos, startPosSeq int) {
	if dir.Forward() {
		e, mr := mp.Back()
		startPosSeq = mr.Initial.EndPos
		return s[startPosSeq:], e, mr.Mapped.EndPos, startPosSeq
	}
	e, mr := mp.Front()
	startE = dir.Edge(e)
	startPos = len(ef.G.EdgeSeq(startE)) - mr.Mapped.StartPos
	return dir.Seq(s[:mr.Initial.StartPos]), startE, startPos, 0
}

// splice joins the reconstructed edges ans, starting at the anchor, to path.
func (ef *EndsFiller) splice(path, ans []dbg.EdgeID, endPos, endPosSeq int, rng *PathRange, dir Direction) []dbg.EdgeID {
	k := ef.G.K()
	if dir.Forward() {
		// an end inside the overlap adds nothing the previous edge lacks
		for endPos < k && len(ans) > 1 {
			ans = ans[:len(ans)-1]
			endPos += ef.G.EdgeLength(ans[len(ans)-1])
		}
		np := make([]dbg.EdgeID, 0, len(path)+len(ans)-1)
		np = append(np, path...)
		np = append(np, ans[1:]...)
		rng.SeqEnd, rng.EdgeEnd = endPosSeq, endPos
		return np
	}
	start := ef.G.EdgeLength(ans[len(ans)-1]) + k - endPos
	cur := len(ans) - 1
	for cur >= 0 && start-ef.G.EdgeLength(ans[cur]) > 0 {
		start -= ef.G.EdgeLength(ans[cur])
		cur--
	}
	var np []dbg.EdgeID
	if cur > 0 {
		np = dir.Path(ans[1 : cur+1])
	}
	np = append(np, path...)
	rng.SeqStart, rng.EdgeStart = 0, start
	return np
}

// Run extends path past its last (forward) or first anchor with the read
// overhang left outside mp. The returned path is a fresh slice; on any failure
// it is path itself together with the flags explaining why.
func (ef *EndsFiller) Run(mp MappingPath, path []dbg.EdgeID, s []byte, forward bool) ([]dbg.EdgeID, PathRange, align.ReturnCode) {
	var rng PathRange
	var code align.ReturnCode
	if mp.Size() == 0 || len(path) == 0 {
		return path, rng, align.EmptyEnd
	}
	dir := NewDirection(ef.G, forward)
	ss, startE, startPos, startPosSeq := ef.initialState(mp, s, dir)
	if len(ss) > ef.Cfg.MaxRestorableEndLength {
		code |= align.TooLongEnd
	}
	if len(ss) < 1 {
		code |= align.EmptyEnd
	}
	if code != 0 {
		return path, rng, code
	}
	budget := EdBudget(ef.Cfg, len(ss))
	reach := ef.Searcher.BoundedForward(ef.G.EdgeEnd(startE), len(ss)+budget)
	ar := ef.Aligner.ReconstructEnd(ss, startE, startPos, budget, reach)
	code |= ar.ReturnCode
	if ar.Score == align.Unscored {
		if ef.Debug {
			log.Printf("[EndsFiller.Run] overhang len: %d forward: %v unscored, code: %v\n", len(ss), forward, code)
		}
		return path, rng, code
	}
	endPosSeq := 0
	if forward {
		endPosSeq = ar.SeqEndPosition + startPosSeq
	}
	np := ef.splice(path, ar.Path, ar.PathEndPosition, endPosSeq, &rng, dir)
	if ef.Debug {
		log.Printf("[EndsFiller.Run] overhang len: %d forward: %v score: %d added %d edges\n", len(ss), forward, ar.Score, len(np)-len(path))
	}
	return np, rng, code
}
