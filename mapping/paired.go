package mapping

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/mudesheng/gafill/dbg"
)

type edgePair [2]dbg.EdgeID

// PairedInfo counts read pairs whose mates land on different edges, keyed by
// the strand-aware order in which the fragment runs through them.
type PairedInfo struct {
	g       *dbg.DBG
	MinMapQ int
	links   map[edgePair]float64
	Pairs   int
}

func NewPairedInfo(g *dbg.DBG) *PairedInfo {
	return &PairedInfo{g: g, links: make(map[edgePair]float64)}
}

// Weight is the number of pairs supporting e2 after e1.
func (pi *PairedInfo) Weight(e1, e2 dbg.EdgeID) float64 {
	return pi.links[edgePair{e1, e2}]
}

// AddLink records one fragment running from e1 into e2 and, on the other
// strand, from conj(e2) into conj(e1).
func (pi *PairedInfo) AddLink(e1, e2 dbg.EdgeID) {
	if e1 == e2 {
		return
	}
	pi.links[edgePair{e1, e2}]++
	pi.links[edgePair{pi.g.Conjugate(e2), pi.g.Conjugate(e1)}]++
	pi.Pairs++
}

// AddRecord takes the first mate of a forward-reverse pair. The fragment runs
// along the first mate's strand and into the reverse of the second mate's.
func (pi *PairedInfo) AddRecord(r *sam.Record) bool {
	if r.Flags&(sam.Unmapped|sam.MateUnmapped|sam.Secondary|sam.Supplementary) != 0 || r.Flags&sam.Paired == 0 || r.Flags&sam.Read1 == 0 {
		return false
	}
	if int(r.MapQ) < pi.MinMapQ || r.Ref == nil || r.MateRef == nil {
		return false
	}
	e1, ok1 := pi.g.NameMap[r.Ref.Name()]
	e2, ok2 := pi.g.NameMap[r.MateRef.Name()]
	if !ok1 || !ok2 {
		return false
	}
	if r.Flags&sam.Reverse != 0 {
		e1 = pi.g.Conjugate(e1)
	}
	if r.Flags&sam.MateReverse == 0 {
		e2 = pi.g.Conjugate(e2)
	}
	if e1 == e2 {
		return false
	}
	pi.AddLink(e1, e2)
	return true
}

// LoadPairedInfo reads the paired end alignments of every file of bamfns.
func LoadPairedInfo(bamfns []string, g *dbg.DBG, minMapQ, numCPU int) (*PairedInfo, error) {
	pi := NewPairedInfo(g)
	pi.MinMapQ = minMapQ
	for _, fn := range bamfns {
		if err := pi.AddBam(fn, numCPU); err != nil {
			return nil, err
		}
	}
	return pi, nil
}

func (pi *PairedInfo) AddBam(bamfn string, numCPU int) error {
	fp, err := os.Open(bamfn)
	if err != nil {
		return err
	}
	defer fp.Close()
	bamfp, err := bam.NewReader(fp, numCPU/5+1)
	if err != nil {
		return fmt.Errorf("bam.NewReader %s: %w", bamfn, err)
	}
	defer bamfp.Close()
	before := pi.Pairs
	if err := pi.readRecords(bamfp); err != nil {
		return fmt.Errorf("%s: %w", bamfn, err)
	}
	log.Printf("[AddBam] %s: %d linking pairs\n", bamfn, pi.Pairs-before)
	return nil
}

func (pi *PairedInfo) readRecords(rr recordReader) error {
	for {
		r, err := rr.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		pi.AddRecord(r)
	}
}
