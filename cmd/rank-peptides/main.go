package main

import (
	"fmt"

	"github.com/Naty89/PeptideScreening/apps/boltzgen"
	"github.com/Naty89/PeptideScreening/cmd/util"
	"github.com/Naty89/PeptideScreening/pipeline"
)

func init() {
	util.FlagUse("base-dir", "alphas")
	util.FlagParse("",
		"Filters the scored peptides for stability, merges every alpha\n"+
			"group into one ascending ranking and collects the survivors\n"+
			"(peptide chains, full complexes, a FASTA of sequences and a\n"+
			"backbone clustering) under the base directory.")
	util.AssertNArg(0)
}

func main() {
	ctx := pipeline.NewContext(util.FlagBaseDir, util.FlagAlphas)
	driver := pipeline.NewDriver(ctx, "", boltzgen.LengthRange{})

	summary, err := driver.RankCandidates()
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
