// Package search holds the bounded graph traversals used by the gap closers:
// length bounded shortest paths from a vertex in either direction and an
// exhaustive, length bounded enumeration of the paths between two vertices.
package search

import (
	"container/heap"

	"github.com/mudesheng/gafill/dbg"
)

type EnumStatus int

const (
	EnumOK EnumStatus = iota
	EnumTooManyBranches
)

func (s EnumStatus) String() string {
	if s == EnumOK {
		return "ok"
	}
	return "too many branches"
}

const (
	DefaultMaxCalls = 3000
	DefaultMaxPaths = 1000
)

// Searcher is safe for concurrent use as long as the graph is.
type Searcher struct {
	G        dbg.Graph
	MaxCalls int // dfs steps allowed in one enumeration
	MaxPaths int // paths collected before the enumeration gives up
}

func NewSearcher(g dbg.Graph) *Searcher {
	return &Searcher{G: g, MaxCalls: DefaultMaxCalls, MaxPaths: DefaultMaxPaths}
}

type vertexDist struct {
	v    dbg.VertexID
	dist int
}

type distHeap []vertexDist

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(vertexDist)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (s *Searcher) bounded(start dbg.VertexID, maxDist int, forward bool) map[dbg.VertexID]int {
	dist := make(map[dbg.VertexID]int)
	if maxDist < 0 {
		return dist
	}
	h := &distHeap{{v: start, dist: 0}}
	for h.Len() > 0 {
		cur := heap.Pop(h).(vertexDist)
		if _, ok := dist[cur.v]; ok {
			continue
		}
		dist[cur.v] = cur.dist
		var eIDArr []dbg.EdgeID
		if forward {
			eIDArr = s.G.OutgoingEdges(cur.v)
		} else {
			eIDArr = s.G.IncomingEdges(cur.v)
		}
		for _, eID := range eIDArr {
			nd := cur.dist + s.G.EdgeLength(eID)
			if nd > maxDist {
				continue
			}
			var nv dbg.VertexID
			if forward {
				nv = s.G.EdgeEnd(eID)
			} else {
				nv = s.G.EdgeStart(eID)
			}
			if _, ok := dist[nv]; !ok {
				heap.Push(h, vertexDist{v: nv, dist: nd})
			}
		}
	}
	return dist
}

// BoundedForward returns every vertex reachable from v by a path no longer
// than maxDist, with its shortest distance.
func (s *Searcher) BoundedForward(v dbg.VertexID, maxDist int) map[dbg.VertexID]int {
	return s.bounded(v, maxDist, true)
}

// BoundedBackward is BoundedForward over incoming edges.
func (s *Searcher) BoundedBackward(v dbg.VertexID, maxDist int) map[dbg.VertexID]int {
	return s.bounded(v, maxDist, false)
}

// EnumeratePaths lists the paths from start to end whose length lies in
// [minLen, maxLen]. start == end yields the empty path when minLen <= 0.
// Paths found before the call budget runs out are still returned.
func (s *Searcher) EnumeratePaths(start, end dbg.VertexID, minLen, maxLen int) (EnumStatus, [][]dbg.EdgeID) {
	if maxLen < 0 {
		return EnumOK, nil
	}
	toEnd := s.BoundedBackward(end, maxLen)
	if _, ok := toEnd[start]; !ok {
		return EnumOK, nil
	}
	var paths [][]dbg.EdgeID
	calls := 0
	status := EnumOK
	path := make([]dbg.EdgeID, 0, 16)
	var dfs func(v dbg.VertexID, l int)
	dfs = func(v dbg.VertexID, l int) {
		if status != EnumOK {
			return
		}
		calls++
		if calls > s.MaxCalls || len(paths) >= s.MaxPaths {
			status = EnumTooManyBranches
			return
		}
		if v == end && l >= minLen {
			paths = append(paths, append([]dbg.EdgeID(nil), path...))
		}
		for _, eID := range s.G.OutgoingEdges(v) {
			nv := s.G.EdgeEnd(eID)
			nl := l + s.G.EdgeLength(eID)
			rest, ok := toEnd[nv]
			if !ok || nl+rest > maxLen {
				continue
			}
			path = append(path, eID)
			dfs(nv, nl)
			path = path[:len(path)-1]
		}
	}
	dfs(start, 0)
	return status, paths
}
