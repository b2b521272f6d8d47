// Package polish repairs the discontinuities left in assembled paths by
// running a chain of gap closing strategies over every gap.
package polish

import (
	"log"
	"sort"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/gapfill"
)

const MaxPolishAttempts = 5

// PairedEvidence is the paired read support for e2 following e1 on one strand.
type PairedEvidence interface {
	Weight(e1, e2 dbg.EdgeID) float64
}

// GapReport summarises a PolishPaths run. Unresolved maps a path name to the
// indices of the edges still preceded by a discontinuity.
type GapReport struct {
	Paths       int
	Invocations int
	Closed      int
	Unresolved  map[string][]int
	ByCloser    map[string]int
}

func (r *GapReport) UnresolvedGaps() (n int) {
	for _, idx := range r.Unresolved {
		n += len(idx)
	}
	return
}

func (r *GapReport) Names() []string {
	names := make([]string, 0, len(r.Unresolved))
	for name := range r.Unresolved {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloserNames lists the closers that closed at least one gap, sorted.
func (r *GapReport) CloserNames() []string {
	names := make([]string, 0, len(r.ByCloser))
	for name := range r.ByCloser {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type PathPolisher struct {
	G        dbg.Graph
	Searcher gapfill.PathSearcher
	Aligner  *align.Aligner
	Paired   PairedEvidence
	Closers  []Closer
	Cfg      gapfill.GapConfig
	MinGap   int
	Debug    bool
}

// DefaultClosers is the chain used when none is configured: read sequence
// first, then paired reads, then enumeration.
func DefaultClosers(merge MergePolicy) []Closer {
	return []Closer{{Kind: ExtensionCloser}, {Kind: PairedEvidenceCloser}, {Kind: EnumerationCloser, Merge: merge}}
}

func NewPathPolisher(g dbg.Graph, s gapfill.PathSearcher, paired PairedEvidence, cfg gapfill.GapConfig) *PathPolisher {
	aligner := align.NewAligner(g)
	aligner.IterationLimit = cfg.IterationLimit
	return &PathPolisher{
		G:        g,
		Searcher: s,
		Aligner:  aligner,
		Paired:   paired,
		Closers:  DefaultClosers(MergeBest),
		Cfg:      cfg,
		MinGap:   g.K() + 10,
	}
}

// PolishPaths returns a polished copy of every input path.
func (pp *PathPolisher) PolishPaths(paths []gapfill.BidirectionalPath) ([]gapfill.BidirectionalPath, GapReport) {
	rep := GapReport{Unresolved: make(map[string][]int), ByCloser: make(map[string]int)}
	out := make([]gapfill.BidirectionalPath, len(paths))
	for i, p := range paths {
		out[i] = pp.PolishPath(p, &rep)
	}
	return out, rep
}

// PolishPath reruns the closer chain until a pass closes nothing or
// MaxPolishAttempts passes are done.
func (pp *PathPolisher) PolishPath(p gapfill.BidirectionalPath, rep *GapReport) gapfill.BidirectionalPath {
	rep.Paths++
	cur := p.Clone()
	for attempt := 0; attempt < MaxPolishAttempts && len(cur.Discontinuities(pp.G)) > 0; attempt++ {
		np, changed := pp.polishPass(&cur, rep)
		cur = np
		if pp.Debug {
			log.Printf("[PolishPath] path %s attempt %d closed %d gaps\n", p.Name, attempt, changed)
		}
		if changed == 0 {
			break
		}
	}
	if idx := cur.Discontinuities(pp.G); len(idx) > 0 {
		rep.Unresolved[cur.Name] = idx
	}
	return cur
}

func (pp *PathPolisher) polishPass(p *gapfill.BidirectionalPath, rep *GapReport) (np gapfill.BidirectionalPath, changed int) {
	np = gapfill.BidirectionalPath{Name: p.Name, Range: p.Range}
	if p.Size() == 0 {
		return
	}
	np.PushBack(p.Edges[0], gapfill.Gap{})
	for i := 1; i < p.Size(); i++ {
		if !p.IsDiscontinuity(pp.G, i) {
			np.PushBack(p.Edges[i], p.Gaps[i])
			continue
		}
		ctx := &gapContext{pp: pp, path: p, idx: i, prev: p.Edges[i-1], cur: p.Edges[i], gap: p.Gaps[i]}
		closed := false
		for _, c := range pp.Closers {
			rep.Invocations++
			res, ok := closeGap(c, ctx)
			if !ok {
				continue
			}
			for j, e := range res.fill {
				np.PushBack(e, res.gaps[j])
			}
			np.PushBack(p.Edges[i], res.rest)
			rep.Closed++
			rep.ByCloser[c.String()]++
			changed++
			closed = true
			break
		}
		if !closed {
			np.PushBack(p.Edges[i], p.Gaps[i])
		}
	}
	return
}
