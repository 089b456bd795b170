package main

import (
	"github.com/Naty89/PeptideScreening/apps/boltzgen"
	"github.com/Naty89/PeptideScreening/cmd/util"
	"github.com/Naty89/PeptideScreening/pipeline"
)

func init() {
	util.FlagUse("cpu", "base-dir", "alphas", "verbose")
	util.FlagParse("",
		"Scores every extracted peptide chain under the base directory\n"+
			"for internal hydrogen bonds and writes one score table per\n"+
			"alpha group. Chains that fail to score are skipped with a\n"+
			"warning.")
	util.AssertNArg(0)
}

func main() {
	ctx := pipeline.NewContext(util.FlagBaseDir, util.FlagAlphas)
	driver := pipeline.NewDriver(ctx, "", boltzgen.LengthRange{})
	driver.Rosetta.Verbose = util.FlagVerbose

	util.Assert(driver.ScoreChains())
}
