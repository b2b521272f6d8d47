package gapfill

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/utils"
)

// Gap describes a missing stretch in front of an edge of a path. Seq is the
// read sequence spanning it when known, starting at PrevPos of the previous
// edge and ending at CurPos of the current one.
type Gap struct {
	Dist    int
	PrevPos int
	CurPos  int
	Seq     []byte
}

// BidirectionalPath is a path that may still contain discontinuities.
// Gaps[i] is the gap in front of Edges[i]; Gaps[0] is always empty.
type BidirectionalPath struct {
	Name  string
	Edges []dbg.EdgeID
	Gaps  []Gap
	Range PathRange
}

func NewBidirectionalPath(name string, edges []dbg.EdgeID) BidirectionalPath {
	return BidirectionalPath{Name: name, Edges: edges, Gaps: make([]Gap, len(edges))}
}

func (p *BidirectionalPath) Size() int {
	return len(p.Edges)
}

func (p *BidirectionalPath) PushBack(e dbg.EdgeID, gap Gap) {
	if len(p.Edges) == 0 {
		gap = Gap{}
	}
	p.Edges = append(p.Edges, e)
	p.Gaps = append(p.Gaps, gap)
}

// PushFront prepends edges, the old first edge keeps no gap.
func (p *BidirectionalPath) PushFront(edges []dbg.EdgeID) {
	if len(edges) == 0 {
		return
	}
	p.Edges = append(append([]dbg.EdgeID(nil), edges...), p.Edges...)
	p.Gaps = append(make([]Gap, len(edges)), p.Gaps...)
}

// IsDiscontinuity reports whether a gap must be closed in front of Edges[i].
func (p *BidirectionalPath) IsDiscontinuity(g dbg.Graph, i int) bool {
	return i > 0 && !dbg.IsAdjacent(g, p.Edges[i-1], p.Edges[i])
}

func (p *BidirectionalPath) Discontinuities(g dbg.Graph) (idx []int) {
	for i := 1; i < len(p.Edges); i++ {
		if p.IsDiscontinuity(g, i) {
			idx = append(idx, i)
		}
	}
	return
}

func (p *BidirectionalPath) Clone() BidirectionalPath {
	np := *p
	np.Edges = append([]dbg.EdgeID(nil), p.Edges...)
	np.Gaps = append([]Gap(nil), p.Gaps...)
	return np
}

// FormatPath renders the edges as comma separated names. A discontinuity is
// written as a "~dist[:prevPos:curPos:seq]" token in front of its edge.
func FormatPath(g *dbg.DBG, p BidirectionalPath) string {
	var sb strings.Builder
	for i, e := range p.Edges {
		if i > 0 {
			sb.WriteByte(',')
			if p.IsDiscontinuity(g, i) {
				gap := p.Gaps[i]
				fmt.Fprintf(&sb, "~%d", gap.Dist)
				if len(gap.Seq) > 0 {
					fmt.Fprintf(&sb, ":%d:%d:%s", gap.PrevPos, gap.CurPos, gap.Seq)
				}
				sb.WriteByte(',')
			}
		}
		sb.WriteString(g.EdgeName(e))
	}
	return sb.String()
}

// WritePath writes one "name\tpath\tseqStart-seqEnd\tedgeStart-edgeEnd" line.
func WritePath(w io.Writer, g *dbg.DBG, p BidirectionalPath) error {
	_, err := fmt.Fprintf(w, "%s\t%s\t%d-%d\t%d-%d\n", p.Name, FormatPath(g, p), p.Range.SeqStart, p.Range.SeqEnd, p.Range.EdgeStart, p.Range.EdgeEnd)
	return err
}

func parseGapToken(tok string) (gap Gap, err error) {
	fields := strings.Split(tok[1:], ":")
	if len(fields) != 1 && len(fields) != 4 {
		return gap, fmt.Errorf("bad gap token %q", tok)
	}
	if gap.Dist, err = strconv.Atoi(fields[0]); err != nil {
		return gap, fmt.Errorf("gap token %q: %w", tok, err)
	}
	if len(fields) == 4 {
		if gap.PrevPos, err = strconv.Atoi(fields[1]); err != nil {
			return gap, fmt.Errorf("gap token %q: %w", tok, err)
		}
		if gap.CurPos, err = strconv.Atoi(fields[2]); err != nil {
			return gap, fmt.Errorf("gap token %q: %w", tok, err)
		}
		gap.Seq = []byte(fields[3])
	}
	return gap, nil
}

func parseRange(s string) (a, b int, err error) {
	idx := strings.IndexByte(s, '-')
	if idx < 0 {
		return 0, 0, fmt.Errorf("bad range %q", s)
	}
	if a, err = strconv.Atoi(s[:idx]); err != nil {
		return
	}
	b, err = strconv.Atoi(s[idx+1:])
	return
}

// ParsePath reads a line written by WritePath. The range columns are optional.
func ParsePath(g *dbg.DBG, line string) (p BidirectionalPath, err error) {
	cols := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(cols) < 2 {
		return p, fmt.Errorf("path line needs name and edges: %q", line)
	}
	p.Name = cols[0]
	var gap Gap
	for _, tok := range strings.Split(cols[1], ",") {
		if strings.HasPrefix(tok, "~") {
			if gap, err = parseGapToken(tok); err != nil {
				return p, err
			}
			continue
		}
		e, ok := g.NameMap[tok]
		if !ok {
			return p, fmt.Errorf("path %s: unknown edge %q", p.Name, tok)
		}
		p.PushBack(e, gap)
		gap = Gap{}
	}
	if len(p.Edges) == 0 {
		return p, fmt.Errorf("path %s: no edges", p.Name)
	}
	if len(cols) >= 4 {
		if p.Range.SeqStart, p.Range.SeqEnd, err = parseRange(cols[2]); err != nil {
			return p, err
		}
		if p.Range.EdgeStart, p.Range.EdgeEnd, err = parseRange(cols[3]); err != nil {
			return p, err
		}
	}
	return p, nil
}

func ReadPaths(r io.Reader, g *dbg.DBG) (paths []BidirectionalPath, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), utils.MaxInt(1<<26, bufio.MaxScanTokenSize))
	for lineNum := 1; sc.Scan(); lineNum++ {
		line := sc.Text()
		if len(strings.TrimSpace(line)) == 0 || line[0] == '#' {
			continue
		}
		p, err := ParsePath(g, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		paths = append(paths, p)
	}
	return paths, sc.Err()
}
