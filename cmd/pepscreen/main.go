package main

import (
	"context"
	"fmt"

	"github.com/Naty89/PeptideScreening/apps/boltzgen"
	"github.com/Naty89/PeptideScreening/cmd/util"
	"github.com/Naty89/PeptideScreening/pipeline"
)

func init() {
	util.FlagUse("cpu", "base-dir", "alphas", "verbose",
		"poll-interval", "max-wait")
	util.FlagParse("structure-file length-range [pocket-rank]",
		"Runs the full screening pipeline against the given target\n"+
			"structure: pocket detection, design generation on the cluster,\n"+
			"chain extraction, stability scoring and final ranking.\n\n"+
			"length-range has the form 'min..max' and bounds the designed\n"+
			"peptide's residue count. pocket-rank selects which detected\n"+
			"pocket to design against and defaults to 1 (the best).")
	if util.NArg() != 2 && util.NArg() != 3 {
		util.Usage()
	}
}

func main() {
	structure := util.Arg(0)
	lengths, err := boltzgen.ParseLengthRange(util.Arg(1))
	util.Assert(err, "Could not parse length range '%s'", util.Arg(1))

	ctx := pipeline.NewContext(util.FlagBaseDir, util.FlagAlphas)
	driver := pipeline.NewDriver(ctx, structure, lengths)
	if util.NArg() == 3 {
		driver.PocketRank = util.ParseInt(util.Arg(2))
	}
	driver.Fpocket.Verbose = util.FlagVerbose
	driver.PyMOL.Verbose = util.FlagVerbose
	driver.Rosetta.Verbose = util.FlagVerbose
	driver.Slurm.Verbose = util.FlagVerbose
	driver.Slurm.PollInterval = util.FlagPollInterval
	driver.Slurm.MaxWait = util.FlagMaxWait

	summary, err := driver.Run(context.Background())
	util.Assert(err)

	if summary.Passed == 0 {
		util.Fatalf("No designs passed the stability filter. The run "+
			"completed, but ranking '%s' is empty.", ctx.RankingPath())
	}
	fmt.Printf("%d of %d scored designs passed the stability filter "+
		"(%d complexes missing, %d backbone clusters).\n",
		summary.Passed, summary.Scored, summary.Missing, summary.Clusters)
	fmt.Printf("Ranking written to '%s'; the best candidates are last.\n",
		ctx.RankingPath())
}
