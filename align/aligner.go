package align

import (
	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/utils"
)

const DefaultIterationLimit = 1000000

// Aligner aligns a sequence against every graph path leaving an anchor at once.
// States are (edge, chars of the edge used, chars of the sequence used) and are
// expanded in cost order with unit substitution, insertion and deletion costs.
type Aligner struct {
	G              dbg.Graph
	IterationLimit int
}

func NewAligner(g dbg.Graph) *Aligner {
	return &Aligner{G: g, IterationLimit: DefaultIterationLimit}
}

// Result carries the best alignment found. Path includes the anchor edges.
// PathEndPosition is the offset reached in the last edge of Path and
// SeqEndPosition the number of sequence characters it explains.
type Result struct {
	Score           int
	ReturnCode      ReturnCode
	Path            []dbg.EdgeID
	PathEndPosition int
	SeqEndPosition  int
}

type state struct {
	e     dbg.EdgeID
	pos   int32
	seq   int32
	first bool
}

type stateInfo struct {
	cost    int
	prev    state
	hasPrev bool
	entry   bool // reached by moving onto a new edge
	diag    bool // reached by a match or mismatch
	closed  bool
}

type task struct {
	seq      []byte
	startE   dbg.EdgeID
	startPos int
	endE     dbg.EdgeID
	endPos   int
	budget   int
	toEnd    map[dbg.VertexID]int // gap mode: backward distances, nil in ends mode
	reach    map[dbg.VertexID]int // ends mode: forward distances
}

func (t *task) gapMode() bool {
	return t.toEnd != nil
}

// CloseGap finds the cheapest path from (startE, startPos) to (endE, endPos)
// spelling seq. Only vertices of envelope, a vertex to distance-to-end map, are visited.
func (a *Aligner) CloseGap(seq []byte, startE dbg.EdgeID, startPos int, endE dbg.EdgeID, endPos int, budget int, envelope map[dbg.VertexID]int) Result {
	t := &task{seq: seq, startE: startE, startPos: startPos, endE: endE, endPos: endPos, budget: budget, toEnd: envelope}
	if envelope == nil {
		t.toEnd = map[dbg.VertexID]int{}
	}
	return a.run(t)
}

// ReconstructEnd aligns seq from (startE, startPos) with a free end in the graph.
// reach limits the vertices that may be passed through.
func (a *Aligner) ReconstructEnd(seq []byte, startE dbg.EdgeID, startPos int, budget int, reach map[dbg.VertexID]int) Result {
	t := &task{seq: seq, startE: startE, startPos: startPos, budget: budget, reach: reach}
	if reach == nil {
		t.reach = map[dbg.VertexID]int{}
	}
	return a.run(t)
}

// maxPos is the number of characters a state may use on edge e. Between two
// anchors only the anchor edges may run into the K overlap shared with the
// following edges; a free end may stop anywhere in the last edge.
func (a *Aligner) maxPos(t *task, st state) int {
	l := a.G.EdgeLength(st.e)
	if st.first {
		return utils.MaxInt(l, t.startPos)
	}
	if !t.gapMode() {
		return len(a.G.EdgeSeq(st.e))
	}
	if st.e == t.endE {
		return utils.MaxInt(l, t.endPos)
	}
	return l
}

// leavePos is the offset from which a state may move to the next edges.
// An edge shorter than its entry offset is left at once, carrying the rest of
// the offset into its successors.
func (a *Aligner) leavePos(t *task, st state) int {
	l := a.G.EdgeLength(st.e)
	if st.first {
		return utils.MaxInt(l, t.startPos)
	}
	if t.gapMode() && st.e == t.endE {
		return l
	}
	return utils.MaxInt(l, int(st.pos))
}

func (a *Aligner) isGoal(t *task, st state) bool {
	if int(st.seq) != len(t.seq) {
		return false
	}
	if !t.gapMode() {
		return true
	}
	return !st.first && st.e == t.endE && int(st.pos) == t.endPos
}

func (a *Aligner) run(t *task) (res Result) {
	res.Score = Unscored
	n := len(t.seq)
	if t.budget < 0 {
		res.ReturnCode = NoPath
		return
	}
	t.startPos = utils.ClampInt(t.startPos, 0, len(a.G.EdgeSeq(t.startE)))
	if t.gapMode() {
		t.endPos = utils.ClampInt(t.endPos, 0, len(a.G.EdgeSeq(t.endE)))
	}
	start := state{e: t.startE, pos: int32(t.startPos), seq: 0, first: true}
	infos := make(map[state]*stateInfo)
	buckets := make([][]state, t.budget+1)

	relax := func(from state, to state, cost int, entry, diag bool) {
		if cost > t.budget {
			return
		}
		if info, ok := infos[to]; ok {
			if info.closed || info.cost <= cost {
				return
			}
			info.cost, info.prev, info.hasPrev, info.entry, info.diag = cost, from, true, entry, diag
		} else {
			infos[to] = &stateInfo{cost: cost, prev: from, hasPrev: true, entry: entry, diag: diag}
		}
		buckets[cost] = append(buckets[cost], to)
	}
	infos[start] = &stateInfo{cost: 0}
	buckets[0] = append(buckets[0], start)

	iterations := 0
	for c := 0; c <= t.budget; c++ {
		for len(buckets[c]) > 0 {
			st := buckets[c][len(buckets[c])-1]
			buckets[c] = buckets[c][:len(buckets[c])-1]
			info := infos[st]
			if info.closed || info.cost != c {
				continue
			}
			info.closed = true
			iterations++
			if a.IterationLimit > 0 && iterations > a.IterationLimit {
				res.ReturnCode |= IterationLimit
				return
			}
			if a.isGoal(t, st) {
				return a.backtrack(t, infos, st, c)
			}
			ks := a.G.EdgeSeq(st.e)
			if int(st.pos) < a.maxPos(t, st) {
				ch := ks[st.pos]
				next := st
				next.pos++
				if int(st.seq) < n {
					diag := next
					diag.seq++
					cost := c
					if ch != t.seq[st.seq] {
						cost++
					}
					relax(st, diag, cost, false, true)
				}
				relax(st, next, c+1, false, false)
			}
			if int(st.seq) < n {
				ins := st
				ins.seq++
				relax(st, ins, c+1, false, false)
			}
			if int(st.pos) == a.leavePos(t, st) {
				a.expandEdges(t, st, c, relax)
			}
		}
	}
	res.ReturnCode |= NoPath
	return
}

func (a *Aligner) expandEdges(t *task, st state, c int, relax func(from, to state, cost int, entry, diag bool)) {
	v := a.G.EdgeEnd(st.e)
	offset := int32(st.pos) - int32(a.G.EdgeLength(st.e))
	rest := len(t.seq) - int(st.seq)
	if t.gapMode() {
		if _, ok := t.toEnd[v]; !ok {
			return
		}
		for _, ne := range a.G.OutgoingEdges(v) {
			// lower bound on graph characters still to spell
			need := t.endPos - int(offset)
			if ne != t.endE {
				d, ok := t.toEnd[a.G.EdgeEnd(ne)]
				if !ok {
					continue
				}
				need = a.G.EdgeLength(ne) - int(offset) + d + t.endPos
			}
			if c+utils.MaxInt(0, need-rest) > t.budget {
				continue
			}
			ns := state{e: ne, pos: offset, seq: st.seq}
			if ne == t.endE && int(offset) > a.maxPos(t, ns) {
				continue
			}
			relax(st, ns, c, true, false)
		}
		return
	}
	if _, ok := t.reach[v]; !ok {
		return
	}
	for _, ne := range a.G.OutgoingEdges(v) {
		relax(st, state{e: ne, pos: offset, seq: st.seq}, c, true, false)
	}
}

func (a *Aligner) backtrack(t *task, infos map[state]*stateInfo, goal state, cost int) (res Result) {
	res.Score = cost
	var chain []state
	for st := goal; ; {
		chain = append(chain, st)
		info := infos[st]
		if !info.hasPrev {
			break
		}
		st = info.prev
	}
	// chain runs goal -> start
	last := goal
	if !t.gapMode() {
		last = chain[len(chain)-1]
		for _, st := range chain {
			if infos[st].diag {
				last = st
				break
			}
		}
	}
	path := []dbg.EdgeID{goal.e}
	for _, st := range chain {
		if infos[st].entry {
			path = append(path, infos[st].prev.e)
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if last != goal {
		// drop the edges entered after the last aligned character
		drop := 0
		for _, st := range chain {
			if st == last {
				break
			}
			if infos[st].entry {
				drop++
			}
		}
		path = path[:len(path)-drop]
	}
	res.Path = path
	res.PathEndPosition = int(last.pos)
	res.SeqEndPosition = int(last.seq)
	return
}
