package main

import (
	"fmt"

	"github.com/Naty89/PeptideScreening/apps/boltzgen"
	"github.com/Naty89/PeptideScreening/cmd/util"
	"github.com/Naty89/PeptideScreening/pipeline"
)

func init() {
	util.FlagUse("base-dir", "alphas", "verbose")
	util.FlagParse("length-range [pocket-rank]",
		"Writes the design generator configuration and its submission\n"+
			"script into the base directory. Pocket detection runs first if\n"+
			"its output is not already present.\n\n"+
			"length-range has the form 'min..max' and bounds the designed\n"+
			"peptide's residue count.")
	if util.NArg() != 1 && util.NArg() != 2 {
		util.Usage()
	}
}

func main() {
	lengths, err := boltzgen.ParseLengthRange(util.Arg(0))
	util.Assert(err, "Could not parse length range '%s'", util.Arg(0))

	structure, err := pipeline.FindStructure(util.FlagBaseDir)
	util.Assert(err)

	ctx := pipeline.NewContext(util.FlagBaseDir, util.FlagAlphas)
	driver := pipeline.NewDriver(ctx, structure, lengths)
	if util.NArg() == 2 {
		driver.PocketRank = util.ParseInt(util.Arg(1))
	}
	driver.Fpocket.Verbose = util.FlagVerbose

	pocketPath, err := driver.DetectPocket()
	util.Assert(err)
	util.Assert(driver.GenerateConfig(pocketPath))
	util.Assert(driver.WriteScript())

	fmt.Printf("Wrote '%s' and '%s'.\n", ctx.ConfigPath(), ctx.ScriptPath())
}
