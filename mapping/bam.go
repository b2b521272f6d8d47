// Package mapping turns read alignments against the graph edges, stored as
// BAM, into the mapping paths and paired read links the gap closers consume.
package mapping

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/gapfill"
)

// Alignment is one hit of a read on an edge, oriented so the read runs
// forward. Initial is on the read, Mapped on the full edge sequence.
type Alignment struct {
	Edge            dbg.EdgeID
	Initial, Mapped gapfill.Range
	Mch, Ins, Del   int
	MapQ            int
}

// AccumulateCigar counts aligned, inserted and deleted bases and the clipped
// bases, soft or hard, at both ends of the query.
func AccumulateCigar(cigar sam.Cigar) (mch, ins, del, clipStart, clipEnd int) {
	for i, co := range cigar {
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			mch += co.Len()
		case sam.CigarDeletion, sam.CigarSkipped:
			del += co.Len()
		case sam.CigarInsertion:
			ins += co.Len()
		case sam.CigarHardClipped, sam.CigarSoftClipped:
			if i == 0 || (i == 1 && cigar[0].Type() == sam.CigarHardClipped) {
				clipStart += co.Len()
			} else {
				clipEnd += co.Len()
			}
		}
	}
	return
}

// AlignmentFromRecord maps r onto g. A reverse strand hit becomes a forward
// hit on the conjugate edge.
func AlignmentFromRecord(g *dbg.DBG, r *sam.Record) (aln Alignment, err error) {
	if r.Ref == nil {
		return aln, fmt.Errorf("read %s: no reference", r.Name)
	}
	eID, ok := g.NameMap[r.Ref.Name()]
	if !ok {
		return aln, fmt.Errorf("read %s: reference %s not an edge of the graph", r.Name, r.Ref.Name())
	}
	mch, ins, del, clipStart, clipEnd := AccumulateCigar(r.Cigar)
	qlen := mch + ins
	readLen := clipStart + qlen + clipEnd
	refStart, refEnd := r.Pos, r.Pos+mch+del
	aln.Mch, aln.Ins, aln.Del, aln.MapQ = mch, ins, del, int(r.MapQ)
	if r.Flags&sam.Reverse == 0 {
		aln.Edge = eID
		aln.Initial = gapfill.Range{StartPos: clipStart, EndPos: clipStart + qlen}
		aln.Mapped = gapfill.Range{StartPos: refStart, EndPos: refEnd}
		return aln, nil
	}
	aln.Edge = g.Conjugate(eID)
	el := len(g.EdgeSeq(eID))
	aln.Initial = gapfill.Range{StartPos: clipEnd, EndPos: readLen - clipStart}
	aln.Mapped = gapfill.Range{StartPos: el - refEnd, EndPos: el - refStart}
	return aln, nil
}

// ReadBam collects the primary and supplementary hits of every read of bamfn.
func ReadBam(bamfn string, g *dbg.DBG, numCPU int) (map[string][]Alignment, error) {
	fp, err := os.Open(bamfn)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	bamfp, err := bam.NewReader(fp, numCPU/5+1)
	if err != nil {
		return nil, fmt.Errorf("bam.NewReader %s: %w", bamfn, err)
	}
	defer bamfp.Close()
	return readRecords(bamfp, g)
}

type recordReader interface {
	Read() (*sam.Record, error)
}

func readRecords(rr recordReader, g *dbg.DBG) (map[string][]Alignment, error) {
	alnMap := make(map[string][]Alignment)
	skipped := 0
	for {
		r, err := rr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if r.Flags&(sam.Unmapped|sam.Secondary) != 0 {
			continue
		}
		aln, err := AlignmentFromRecord(g, r)
		if err != nil {
			skipped++
			continue
		}
		alnMap[r.Name] = append(alnMap[r.Name], aln)
	}
	if skipped > 0 {
		log.Printf("[readRecords] skipped %d records on unknown edges\n", skipped)
	}
	return alnMap, nil
}

// BuildMappingPath orders the hits of one read along the read and drops
// hits contained in an earlier one.
func BuildMappingPath(alns []Alignment) (mp gapfill.MappingPath) {
	arr := append([]Alignment(nil), alns...)
	sort.SliceStable(arr, func(i, j int) bool {
		if arr[i].Initial.StartPos != arr[j].Initial.StartPos {
			return arr[i].Initial.StartPos < arr[j].Initial.StartPos
		}
		return arr[i].Initial.EndPos > arr[j].Initial.EndPos
	})
	last := -1
	for _, aln := range arr {
		if aln.Initial.EndPos <= last {
			continue
		}
		mp.Edges = append(mp.Edges, aln.Edge)
		mp.Ranges = append(mp.Ranges, gapfill.MappingRange{Initial: aln.Initial, Mapped: aln.Mapped})
		last = aln.Initial.EndPos
	}
	return
}
