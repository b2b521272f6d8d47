package gapfill

import (
	"log"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/utils"
)

// PathLimits turns the estimated length of the edges missing from a gap into
// the [minLen, maxLen] window searched for them.
func (cfg GapConfig) PathLimits(est, k int) (minLen, maxLen int) {
	minLen = utils.MaxInt(0, int(float64(est)*cfg.PathLimitPressing))
	maxLen = int(float64(utils.MaxInt(0, est))*cfg.PathLimitStretching) + k
	return
}

// ThreadStats counts what happened while threading reads.
type ThreadStats struct {
	Reads, Gaps, ClosedGaps     int
	FrontExtended, BackExtended int
	Codes                       map[align.ReturnCode]int
}

func (s *ThreadStats) Add(o ThreadStats) {
	s.Reads += o.Reads
	s.Gaps += o.Gaps
	s.ClosedGaps += o.ClosedGaps
	s.FrontExtended += o.FrontExtended
	s.BackExtended += o.BackExtended
	for c, n := range o.Codes {
		if s.Codes == nil {
			s.Codes = make(map[align.ReturnCode]int)
		}
		s.Codes[c] += n
	}
}

// Threader turns the mapping of a long read into a graph path.
type Threader struct {
	GF    *GapFiller
	EF    *EndsFiller
	Ends  bool
	Debug bool
}

func NewThreader(g dbg.Graph, s PathSearcher, cfg GapConfig) *Threader {
	return &Threader{GF: NewGapFiller(g, s, cfg), EF: NewEndsFiller(g, s, cfg), Ends: true}
}

func (t *Threader) addCode(st *ThreadStats, code align.ReturnCode) {
	if st.Codes == nil {
		st.Codes = make(map[align.ReturnCode]int)
	}
	st.Codes[code]++
}

// ThreadRead closes every gap between consecutive mapped edges that are not
// adjacent and extends the path over the unmapped read ends. Gaps the filler
// cannot close stay in the path with the read sequence spanning them.
func (t *Threader) ThreadRead(name string, mp MappingPath, read []byte) (p BidirectionalPath, st ThreadStats) {
	p.Name = name
	st.Reads = 1
	if mp.Size() == 0 {
		return
	}
	g := t.GF.G
	e, mr := mp.Front()
	p.PushBack(e, Gap{})
	p.Range.SeqStart, p.Range.EdgeStart = mr.Initial.StartPos, mr.Mapped.StartPos
	prevE, prevR := e, mr
	for i := 1; i < mp.Size(); i++ {
		curE, curR := mp.Edges[i], mp.Ranges[i]
		if curE == prevE && curR.Initial.StartPos <= prevR.Initial.EndPos {
			prevR.Initial.EndPos = utils.MaxInt(prevR.Initial.EndPos, curR.Initial.EndPos)
			prevR.Mapped.EndPos = utils.MaxInt(prevR.Mapped.EndPos, curR.Mapped.EndPos)
			continue
		}
		if dbg.IsAdjacent(g, prevE, curE) {
			p.PushBack(curE, Gap{})
			prevE, prevR = curE, curR
			continue
		}
		st.Gaps++
		var seq []byte
		if curR.Initial.StartPos > prevR.Initial.EndPos {
			seq = read[prevR.Initial.EndPos:curR.Initial.StartPos]
		}
		start := GraphPosition{Edge: prevE, Pos: prevR.Mapped.EndPos}
		end := GraphPosition{Edge: curE, Pos: curR.Mapped.StartPos}
		est := len(seq) - (g.EdgeLength(prevE) - start.Pos) - end.Pos
		minLen, maxLen := t.GF.Cfg.PathLimits(est, g.K())
		res := t.GF.Run(seq, start, end, minLen, maxLen)
		t.addCode(&st, res.ReturnCode)
		if res.Scored() {
			st.ClosedGaps++
			for _, ie := range res.IntermediatePath {
				p.PushBack(ie, Gap{})
			}
			p.PushBack(curE, Gap{})
		} else {
			if t.Debug {
				log.Printf("[ThreadRead] read %s gap eID: %d -> %d est: %d code: %v\n", name, prevE, curE, est, res.ReturnCode)
			}
			p.PushBack(curE, Gap{Dist: utils.MaxInt(est, 0), PrevPos: start.Pos, CurPos: end.Pos, Seq: seq})
		}
		prevE, prevR = curE, curR
	}
	p.Range.SeqEnd, p.Range.EdgeEnd = prevR.Initial.EndPos, prevR.Mapped.EndPos
	if !t.Ends {
		return
	}

	fmp := MappingPath{Edges: mp.Edges[:1], Ranges: mp.Ranges[:1]}
	edges, rng, code := t.EF.Run(fmp, p.Edges[:1], read, false)
	if code == 0 {
		st.FrontExtended++
		p.PushFront(edges[:len(edges)-1])
		p.Range.SeqStart, p.Range.EdgeStart = rng.SeqStart, rng.EdgeStart
	}
	bmp := MappingPath{Edges: []dbg.EdgeID{prevE}, Ranges: []MappingRange{prevR}}
	edges, rng, code = t.EF.Run(bmp, p.Edges[len(p.Edges)-1:], read, true)
	if code == 0 {
		st.BackExtended++
		for _, ne := range edges[1:] {
			p.PushBack(ne, Gap{})
		}
		p.Range.SeqEnd, p.Range.EdgeEnd = rng.SeqEnd, rng.EdgeEnd
	}
	return
}
