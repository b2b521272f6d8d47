package pipeline

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jwaldrip/odin/cli"

	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/gapfill"
	"github.com/mudesheng/gafill/mapping"
	"github.com/mudesheng/gafill/polish"
	"github.com/mudesheng/gafill/utils"
)

type PolishOptions struct {
	utils.ArgsOpt
	EdgesFn   string
	PathsFn   string
	PairBamFn string
	OutFn     string
	Merge     polish.MergePolicy
	MinMapQ   int
	Graph     bool
	NoDedup   bool
}

func checkPolishArgs(c cli.Command) (opt PolishOptions, succ bool) {
	opt.EdgesFn = c.Flag("edges").String()
	if opt.EdgesFn == "" {
		log.Fatalf("[checkPolishArgs] argument 'edges' not set\n")
	}
	opt.PathsFn = c.Flag("paths").String()
	if opt.PathsFn == "" {
		log.Fatalf("[checkPolishArgs] argument 'paths' not set\n")
	}
	opt.PairBamFn = c.Flag("pairbam").String()
	opt.OutFn = c.Flag("o").String()
	var err error
	opt.Merge, err = polish.ParseMergePolicy(c.Flag("merge").String())
	if err != nil {
		log.Fatalf("[checkPolishArgs] argument 'merge': %v\n", err)
	}
	var ok bool
	opt.MinMapQ, ok = c.Flag("MinMapQ").Get().(int)
	if !ok {
		log.Fatalf("[checkPolishArgs] argument 'MinMapQ': %v set error\n", c.Flag("MinMapQ").String())
	}
	opt.Graph, ok = c.Flag("Graph").Get().(bool)
	if !ok {
		log.Fatalf("[checkPolishArgs] argument 'Graph': %v set error\n", c.Flag("Graph").String())
	}
	opt.NoDedup, ok = c.Flag("NoDedup").Get().(bool)
	if !ok {
		log.Fatalf("[checkPolishArgs] argument 'NoDedup': %v set error\n", c.Flag("NoDedup").String())
	}
	return opt, true
}

// pairBamFiles returns the -pairbam file, or else the bam files listed by the
// [LIB] sections of the cfg file.
func pairBamFiles(pairBamFn string, libs []gapfill.LibInfo) (fns []string) {
	if pairBamFn != "" {
		return []string{pairBamFn}
	}
	for _, lib := range libs {
		for _, fn := range lib.FnName {
			if strings.HasSuffix(fn, ".bam") {
				fns = append(fns, fn)
			}
		}
	}
	return
}

// PolishAll polishes paths, drops duplicates unless dedup is false and writes
// the result to w.
func PolishAll(pp *polish.PathPolisher, g *dbg.DBG, paths []gapfill.BidirectionalPath, dedup bool, w io.Writer) ([]gapfill.BidirectionalPath, polish.GapReport, error) {
	out, rep := pp.PolishPaths(paths)
	if dedup {
		out = polish.DedupPaths(g, out)
	}
	for _, p := range out {
		if err := gapfill.WritePath(w, g, p); err != nil {
			return nil, rep, err
		}
	}
	return out, rep, nil
}

func logGapReport(rep polish.GapReport, written int) {
	log.Printf("[Polish] paths: %d written: %d closer calls: %d closed: %d unresolved: %d\n", rep.Paths, written, rep.Invocations, rep.Closed, rep.UnresolvedGaps())
	for _, name := range rep.CloserNames() {
		log.Printf("[Polish] closer %s closed %d gaps\n", name, rep.ByCloser[name])
	}
	for _, name := range rep.Names() {
		log.Printf("[Polish] path %s unresolved gaps before edges %v\n", name, rep.Unresolved[name])
	}
}

func Polish(c cli.Command) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if !suc {
		log.Fatalf("[Polish] check global Arguments error, opt: %v\n", gOpt)
	}
	opt, suc := checkPolishArgs(c)
	if !suc {
		log.Fatalf("[Polish] check Arguments error, opt: %v\n", opt)
	}
	opt.ArgsOpt = gOpt
	if opt.OutFn == "" {
		opt.OutFn = opt.Prefix + ".polish.path.zst"
	}
	fmt.Printf("Arguments: %v\n", opt)

	cfgInfo := loadGapConfig(opt.CfgFn)
	g, err := dbg.LoadEdgesFromFn(opt.EdgesFn, opt.Kmer)
	if err != nil {
		log.Fatalf("[Polish] %v\n", err)
	}
	fp, err := dbg.OpenReader(opt.PathsFn)
	if err != nil {
		log.Fatalf("[Polish] open %s err: %v\n", opt.PathsFn, err)
	}
	paths, err := gapfill.ReadPaths(fp, g)
	fp.Close()
	if err != nil {
		log.Fatalf("[Polish] read paths %s err: %v\n", opt.PathsFn, err)
	}

	var paired polish.PairedEvidence
	if fns := pairBamFiles(opt.PairBamFn, cfgInfo.Libs); len(fns) > 0 {
		pi, err := mapping.LoadPairedInfo(fns, g, opt.MinMapQ, opt.NumCPU)
		if err != nil {
			log.Fatalf("[Polish] load paired reads err: %v\n", err)
		}
		paired = pi
	}
	pp := polish.NewPathPolisher(g, gapfill.NewSearcher(g, cfgInfo.Gap), paired, cfgInfo.Gap)
	pp.Closers = polish.DefaultClosers(opt.Merge)
	pp.Debug = opt.Debug

	wfp, err := dbg.CreateWriter(opt.OutFn)
	if err != nil {
		log.Fatalf("[Polish] create %s err: %v\n", opt.OutFn, err)
	}
	out, rep, err := PolishAll(pp, g, paths, !opt.NoDedup, wfp)
	if err != nil {
		log.Fatalf("[Polish] write %s err: %v\n", opt.OutFn, err)
	}
	if err := wfp.Close(); err != nil {
		log.Fatalf("[Polish] close %s err: %v\n", opt.OutFn, err)
	}
	logGapReport(rep, len(out))

	if opt.Graph {
		graphfn := opt.Prefix + ".gaps.dot"
		gfp, err := dbg.CreateWriter(graphfn)
		if err != nil {
			log.Fatalf("[Polish] create %s err: %v\n", graphfn, err)
		}
		if err := polish.GraphvizGaps(g, out, 2, gfp); err != nil {
			log.Fatalf("[Polish] write %s err: %v\n", graphfn, err)
		}
		gfp.Close()
	}
}
