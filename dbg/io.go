package dbg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/google/brotli/go/cbrotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type multiCloser struct {
	io.Reader
	closers []func() error
}

func (m *multiCloser) Close() (err error) {
	for i := len(m.closers) - 1; i >= 0; i-- {
		if e := m.closers[i](); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// OpenReader opens fn and picks a decompressor from the file suffix:
// ".zst", ".gz", ".br" or plain text.
func OpenReader(fn string) (io.ReadCloser, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	mc := &multiCloser{closers: []func() error{fp.Close}}
	switch {
	case strings.HasSuffix(fn, ".zst"):
		zr, err := zstd.NewReader(fp, zstd.WithDecoderConcurrency(1))
		if err != nil {
			fp.Close()
			return nil, fmt.Errorf("zstd open %s: %w", fn, err)
		}
		mc.Reader = zr
		mc.closers = append(mc.closers, func() error { zr.Close(); return nil })
	case strings.HasSuffix(fn, ".gz"):
		gr, err := gzip.NewReader(fp)
		if err != nil {
			fp.Close()
			return nil, fmt.Errorf("gzip open %s: %w", fn, err)
		}
		mc.Reader = gr
		mc.closers = append(mc.closers, gr.Close)
	case strings.HasSuffix(fn, ".br"):
		br := cbrotli.NewReader(bufio.NewReaderSize(fp, 1<<20))
		mc.Reader = br
		mc.closers = append(mc.closers, br.Close)
	default:
		mc.Reader = bufio.NewReaderSize(fp, 1<<20)
	}
	return mc, nil
}

// CreateWriter creates fn, zstd compressed when the name ends with ".zst".
func CreateWriter(fn string) (io.WriteCloser, error) {
	fp, err := os.Create(fn)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(fn, ".zst") {
		return fp, nil
	}
	zw, err := zstd.NewWriter(fp, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(1))
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("zstd create %s: %w", fn, err)
	}
	return &zstdFile{Encoder: zw, fp: fp}, nil
}

type zstdFile struct {
	*zstd.Encoder
	fp *os.File
}

func (z *zstdFile) Close() error {
	err := z.Encoder.Close()
	if e := z.fp.Close(); err == nil {
		err = e
	}
	return err
}

// SeqRecord is one FASTA record.
type SeqRecord struct {
	Name string
	Seq  []byte
}

// ReadFasta calls fn for every record of r.
func ReadFasta(r io.Reader, fn func(SeqRecord) error) error {
	fafp := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))
	for {
		s, err := fafp.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		l := s.(*linear.Seq)
		var rd SeqRecord
		rd.Name = l.Name()
		rd.Seq = make([]byte, len(l.Seq))
		for j, v := range l.Seq {
			rd.Seq[j] = byte(v)
		}
		if err := fn(rd); err != nil {
			return err
		}
	}
}

// LoadEdgesFromFn builds a DBG from an edges FASTA file, one forward edge per record.
func LoadEdgesFromFn(edgesfn string, kmerlen int) (*DBG, error) {
	fp, err := OpenReader(edgesfn)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	g := NewDBG(kmerlen)
	err = ReadFasta(fp, func(rd SeqRecord) error {
		_, err := g.AddEdge(rd.Name, rd.Seq)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load edges %s: %w", edgesfn, err)
	}
	return g, nil
}

// LoadReadsFromFn reads every sequence of readsfn into a name keyed map.
func LoadReadsFromFn(readsfn string) (map[string][]byte, error) {
	fp, err := OpenReader(readsfn)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	reads := make(map[string][]byte)
	err = ReadFasta(fp, func(rd SeqRecord) error {
		NormalizeSeq(rd.Seq)
		reads[rd.Name] = rd.Seq
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load reads %s: %w", readsfn, err)
	}
	return reads, nil
}

// WritefaRecord writes one edge in the edges file layout.
func WritefaRecord(fp io.Writer, e *DBGEdge) error {
	_, err := fmt.Fprintf(fp, ">%s\t%d\t%d\n%s\n", e.Name, e.StartNID, e.EndNID, e.Ks)
	return err
}

// StoreEdges writes the forward strand of every edge in eIDArr, or of the whole
// graph when eIDArr is empty, so that LoadEdgesFromFn rebuilds the subgraph.
func StoreEdges(fp io.Writer, g *DBG, eIDArr []EdgeID) error {
	keep := make([]bool, len(g.EdgesArr))
	if len(eIDArr) == 0 {
		for i := 1; i < len(g.EdgesArr); i++ {
			keep[i] = true
		}
	}
	for _, eID := range eIDArr {
		keep[eID] = true
	}
	for i := 1; i < len(g.EdgesArr); i++ {
		e := &g.EdgesArr[i]
		if !keep[i] && !keep[e.Conj] {
			continue
		}
		// the forward strand is stored first
		if e.Conj < e.ID {
			continue
		}
		if err := WritefaRecord(fp, e); err != nil {
			return err
		}
	}
	return nil
}
