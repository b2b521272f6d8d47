package pipeline

import (
	"log"

	"github.com/jwaldrip/odin/cli"

	"github.com/mudesheng/gafill/dbg"
	"github.com/mudesheng/gafill/utils"
)

// Dot writes the graph of the edges file, or the neighbourhood of one edge
// when -edge is set, as a dot file. -fa also stores the drawn edges as an
// edges file.
func Dot(c cli.Command) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if !suc {
		log.Fatalf("[Dot] check global Arguments error, opt: %v\n", gOpt)
	}
	edgesfn := c.Flag("edges").String()
	if edgesfn == "" {
		log.Fatalf("[Dot] argument 'edges' not set\n")
	}
	depth, ok := c.Flag("depth").Get().(int)
	if !ok {
		log.Fatalf("[Dot] argument 'depth': %v set error\n", c.Flag("depth").String())
	}
	graphfn := c.Flag("o").String()
	if graphfn == "" {
		graphfn = gOpt.Prefix + ".dot"
	}

	g, err := dbg.LoadEdgesFromFn(edgesfn, gOpt.Kmer)
	if err != nil {
		log.Fatalf("[Dot] %v\n", err)
	}
	var eIDArr []dbg.EdgeID
	highlight := make(map[dbg.EdgeID]bool)
	if name := c.Flag("edge").String(); name != "" {
		eID, ok := g.NameMap[name]
		if !ok {
			log.Fatalf("[Dot] edge %s not in %s\n", name, edgesfn)
		}
		highlight[eID] = true
		eIDArr = append(eIDArr, eID)
		for _, v := range []dbg.VertexID{g.EdgeStart(eID), g.EdgeEnd(eID)} {
			eIDArr = append(eIDArr, dbg.NeighbourEdges(g, v, depth)...)
		}
	}
	fp, err := dbg.CreateWriter(graphfn)
	if err != nil {
		log.Fatalf("[Dot] create %s err: %v\n", graphfn, err)
	}
	if err := dbg.GraphvizDBG(g, eIDArr, highlight, fp); err != nil {
		log.Fatalf("[Dot] write %s err: %v\n", graphfn, err)
	}
	if err := fp.Close(); err != nil {
		log.Fatalf("[Dot] close %s err: %v\n", graphfn, err)
	}

	if fafn := c.Flag("fa").String(); fafn != "" {
		ffp, err := dbg.CreateWriter(fafn)
		if err != nil {
			log.Fatalf("[Dot] create %s err: %v\n", fafn, err)
		}
		if err := dbg.StoreEdges(ffp, g, eIDArr); err != nil {
			log.Fatalf("[Dot] write %s err: %v\n", fafn, err)
		}
		if err := ffp.Close(); err != nil {
			log.Fatalf("[Dot] close %s err: %v\n", fafn, err)
		}
	}
}
