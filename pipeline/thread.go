// Package pipeline holds the sub-commands that tie loading, gap closing and
// output together.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/jwaldrip/odin/cli"
	"golang.org/x/sync/errgroup"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/gapfill"
	"github.com/mudesheng/gafill/mapping"
	"github.com/mudesheng/gafill/utils"
)

type ThreadOptions struct {
	utils.ArgsOpt
	EdgesFn string
	BamFn   string
	ReadsFn string
	OutFn   string
	NoEnds  bool
}

func checkThreadArgs(c cli.Command) (opt ThreadOptions, succ bool) {
	opt.EdgesFn = c.Flag("edges").String()
	if opt.EdgesFn == "" {
		log.Fatalf("[checkThreadArgs] argument 'edges' not set\n")
	}
	opt.BamFn = c.Flag("bam").String()
	if opt.BamFn == "" {
		log.Fatalf("[checkThreadArgs] argument 'bam' not set\n")
	}
	opt.ReadsFn = c.Flag("reads").String()
	if opt.ReadsFn == "" {
		log.Fatalf("[checkThreadArgs] argument 'reads' not set\n")
	}
	opt.OutFn = c.Flag("o").String()
	var ok bool
	opt.NoEnds, ok = c.Flag("NoEnds").Get().(bool)
	if !ok {
		log.Fatalf("[checkThreadArgs] argument 'NoEnds': %v set error\n", c.Flag("NoEnds").String())
	}
	return opt, true
}

// loadGapConfig returns the defaults when no cfg file is given.
func loadGapConfig(cfgFn string) gapfill.CfgInfo {
	if cfgFn == "" {
		return gapfill.CfgInfo{Gap: gapfill.DefaultGapConfig()}
	}
	cfgInfo, err := gapfill.ParseCfg(cfgFn)
	if err != nil {
		log.Fatalf("[loadGapConfig] parse cfg %s err: %v\n", cfgFn, err)
	}
	return cfgInfo
}

// ThreadReads threads every read of alnMap through g with numCPU workers and
// writes the paths to w from a single writer goroutine. Reads missing from
// reads are skipped.
func ThreadReads(ctx context.Context, th *gapfill.Threader, g *dbg.DBG, alnMap map[string][]mapping.Alignment, reads map[string][]byte, w io.Writer, numCPU int) (gapfill.ThreadStats, error) {
	names := make([]string, 0, len(alnMap))
	for name := range alnMap {
		names = append(names, name)
	}
	sort.Strings(names)

	wc := make(chan gapfill.BidirectionalPath, numCPU)
	done := make(chan error, 1)
	go func() {
		var err error
		for p := range wc {
			if err == nil {
				err = gapfill.WritePath(w, g, p)
			}
		}
		done <- err
	}()

	var total gapfill.ThreadStats
	var mu sync.Mutex
	missing := 0
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(numCPU)
	for _, name := range names {
		read, ok := reads[name]
		if !ok {
			missing++
			continue
		}
		mp := mapping.BuildMappingPath(alnMap[name])
		eg.Go(func() error {
			p, st := th.ThreadRead(name, mp, read)
			mu.Lock()
			total.Add(st)
			mu.Unlock()
			select {
			case wc <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	err := eg.Wait()
	close(wc)
	if werr := <-done; err == nil {
		err = werr
	}
	if missing > 0 {
		log.Printf("[ThreadReads] %d mapped reads not found in the reads file\n", missing)
	}
	return total, err
}

func logThreadStats(st gapfill.ThreadStats) {
	log.Printf("[Thread] reads: %d gaps: %d closed: %d front extended: %d back extended: %d\n", st.Reads, st.Gaps, st.ClosedGaps, st.FrontExtended, st.BackExtended)
	codes := make([]int, 0, len(st.Codes))
	for c := range st.Codes {
		codes = append(codes, int(c))
	}
	sort.Ints(codes)
	for _, c := range codes {
		log.Printf("[Thread] code %v: %d\n", align.ReturnCode(c), st.Codes[align.ReturnCode(c)])
	}
}

func Thread(c cli.Command) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if !suc {
		log.Fatalf("[Thread] check global Arguments error, opt: %v\n", gOpt)
	}
	opt, suc := checkThreadArgs(c)
	if !suc {
		log.Fatalf("[Thread] check Arguments error, opt: %v\n", opt)
	}
	opt.ArgsOpt = gOpt
	if opt.OutFn == "" {
		opt.OutFn = opt.Prefix + ".path.zst"
	}
	fmt.Printf("Arguments: %v\n", opt)

	cfgInfo := loadGapConfig(opt.CfgFn)
	g, err := dbg.LoadEdgesFromFn(opt.EdgesFn, opt.Kmer)
	if err != nil {
		log.Fatalf("[Thread] %v\n", err)
	}
	reads, err := dbg.LoadReadsFromFn(opt.ReadsFn)
	if err != nil {
		log.Fatalf("[Thread] %v\n", err)
	}
	alnMap, err := mapping.ReadBam(opt.BamFn, g, opt.NumCPU)
	if err != nil {
		log.Fatalf("[Thread] read bam %s err: %v\n", opt.BamFn, err)
	}
	log.Printf("[Thread] edges: %d reads: %d mapped reads: %d\n", g.EdgeNum(), len(reads), len(alnMap))

	th := gapfill.NewThreader(g, gapfill.NewSearcher(g, cfgInfo.Gap), cfgInfo.Gap)
	th.Ends = !opt.NoEnds
	th.Debug, th.GF.Debug, th.EF.Debug = opt.Debug, opt.Debug, opt.Debug

	fp, err := dbg.CreateWriter(opt.OutFn)
	if err != nil {
		log.Fatalf("[Thread] create %s err: %v\n", opt.OutFn, err)
	}
	st, err := ThreadReads(context.Background(), th, g, alnMap, reads, fp, opt.NumCPU)
	if err != nil {
		log.Fatalf("[Thread] write %s err: %v\n", opt.OutFn, err)
	}
	if err := fp.Close(); err != nil {
		log.Fatalf("[Thread] close %s err: %v\n", opt.OutFn, err)
	}
	logThreadStats(st)
}
