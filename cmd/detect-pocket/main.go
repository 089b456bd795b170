package main

import (
	"fmt"
	"strings"

	"github.com/Naty89/PeptideScreening/apps/fpocket"
	"github.com/Naty89/PeptideScreening/cmd/util"
	"github.com/Naty89/PeptideScreening/pipeline"
)

func init() {
	util.FlagUse("base-dir", "verbose")
	util.FlagParse("[pocket-rank]",
		"Runs the pocket detector on the single structure file in the\n"+
			"base directory and prints the residues lining the pocket with\n"+
			"the given rank (default 1, the best). Existing detector output\n"+
			"is reused rather than recomputed.")
	if util.NArg() > 1 {
		util.Usage()
	}
}

func main() {
	structure, err := pipeline.FindStructure(util.FlagBaseDir)
	util.Assert(err)

	conf := fpocket.DefaultConfig
	conf.Verbose = util.FlagVerbose
	results, err := conf.Run(structure)
	util.Assert(err, "Could not detect pockets in '%s'", structure)

	rank := 1
	if util.NArg() == 1 {
		rank = util.ParseInt(util.Arg(0))
	}
	pocketPath, err := results.Pocket(rank)
	util.Assert(err, "Could not find a pocket with rank %d", rank)
	residues, err := fpocket.Residues(pocketPath)
	util.Assert(err, "Could not read pocket '%s'", pocketPath)

	strs := make([]string, len(residues))
	for i, r := range residues {
		strs[i] = fmt.Sprintf("%d", r)
	}
	fmt.Printf("%s\n", pocketPath)
	fmt.Printf("%s\n", strings.Join(strs, ","))
}
