package main

import (
	"github.com/Naty89/PeptideScreening/apps/boltzgen"
	"github.com/Naty89/PeptideScreening/cmd/util"
	"github.com/Naty89/PeptideScreening/pipeline"
)

func init() {
	util.FlagUse("cpu", "base-dir", "alphas", "verbose")
	util.FlagParse("",
		"Extracts the designed peptide chain from every generated complex\n"+
			"under the base directory. Chains that already exist are left\n"+
			"alone, so re-running after a partial failure only does the\n"+
			"remaining work.")
	util.AssertNArg(0)
}

func main() {
	ctx := pipeline.NewContext(util.FlagBaseDir, util.FlagAlphas)
	driver := pipeline.NewDriver(ctx, "", boltzgen.LengthRange{})
	driver.PyMOL.Verbose = util.FlagVerbose

	util.Assert(driver.ExtractChains())
}
