package main

import (
	"github.com/jwaldrip/odin/cli"

	"github.com/mudesheng/gafill/pipeline"
)

const Kmerdef = 203

var app = cli.New("1.0.0", "close gaps between long read anchors in an assembly graph", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("C", "", "configure file, [gap_closing] and [LIB] sections")
	app.DefineIntFlag("K", Kmerdef, "kmer length")
	app.DefineStringFlag("p", "gafill", "prefix of the output file")
	app.DefineIntFlag("t", 1, "number of CPU used")
	app.DefineBoolFlag("Debug", false, "Enable Debug model[false]")

	thread := app.DefineSubCommand("thread", "thread long reads mapped to the edges into graph paths", pipeline.Thread)
	{
		thread.DefineStringFlag("edges", "", "edges fasta file[.zst|.gz|.br]")
		thread.DefineStringFlag("bam", "", "long reads mapped to the edges")
		thread.DefineStringFlag("reads", "", "long reads fasta file[.zst|.gz|.br]")
		thread.DefineStringFlag("o", "", "output path file, default prefix.path.zst")
		thread.DefineBoolFlag("NoEnds", false, "do not extend paths over the unmapped read ends")
	}
	polish := app.DefineSubCommand("polish", "close the gaps left in paths", pipeline.Polish)
	{
		polish.DefineStringFlag("edges", "", "edges fasta file[.zst|.gz|.br]")
		polish.DefineStringFlag("paths", "", "path file written by thread")
		polish.DefineStringFlag("pairbam", "", "paired end reads mapped to the edges, default the bam files of the cfg [LIB] sections")
		polish.DefineStringFlag("o", "", "output path file, default prefix.polish.path.zst")
		polish.DefineStringFlag("merge", "best", "how enumeration merges several fitting paths[best|bridge|lcp]")
		polish.DefineIntFlag("MinMapQ", 10, "min mapping quality of paired reads")
		polish.DefineBoolFlag("Graph", false, "output dot graph file of the unresolved gaps")
		polish.DefineBoolFlag("NoDedup", false, "keep duplicate paths")
	}
	dot := app.DefineSubCommand("dot", "write the graph as a dot file", pipeline.Dot)
	{
		dot.DefineStringFlag("edges", "", "edges fasta file[.zst|.gz|.br]")
		dot.DefineStringFlag("edge", "", "only draw the neighbourhood of this edge")
		dot.DefineIntFlag("depth", 3, "neighbourhood depth used with -edge")
		dot.DefineStringFlag("o", "", "output dot file, default prefix.dot")
		dot.DefineStringFlag("fa", "", "also write the drawn edges to this edges fasta file[.zst]")
	}
}

func main() {
	app.Start()
}
