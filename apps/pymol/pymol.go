// Package pymol drives PyMOL in batch mode to extract a single chain
// from a complex structure.
package pymol

import (
	"fmt"
	"os"

	"github.com/BurntSushi/cmd"
)

// DefaultConfig provides sane defaults for running PyMOL. For example:
//
//	err := pymol.DefaultConfig.ExtractChain(in, 'A', out)
var DefaultConfig = Config{
	Exec:    "pymol",
	Verbose: false,
}

// Config specifies the location of the PyMOL executable and controls
// command echoing.
type Config struct {
	// Exec points to the 'pymol' executable. If 'pymol' is in your PATH,
	// it is sufficient to leave this as 'pymol'.
	Exec string

	// When true, the command executed is printed to stderr.
	Verbose bool
}

// ExtractChain loads the complex at complexPath, removes every atom not
// belonging to the given chain, and saves the result to outPath. The
// output format follows the extension of outPath (PDB for '.pdb').
//
// PyMOL runs headless ('-cq'); the extraction script is written to a
// temporary file and removed afterward.
func (conf Config) ExtractChain(complexPath string, chain byte,
	outPath string) error {

	if _, err := os.Stat(complexPath); err != nil {
		return fmt.Errorf("Could not access complex structure '%s': %s",
			complexPath, err)
	}

	script, err := os.CreateTemp("", "pepscreen-pml")
	if err != nil {
		return err
	}
	defer os.Remove(script.Name())

	_, err = fmt.Fprintf(script,
		"load %s, complex\nremove not chain %c\nsave %s, complex\nquit\n",
		complexPath, chain, outPath)
	if err != nil {
		script.Close()
		return err
	}
	if err := script.Close(); err != nil {
		return err
	}

	c := cmd.New(conf.Exec, "-cq", script.Name())
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "%s\n", c)
	}
	if err := c.Run(); err != nil {
		return err
	}

	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("PyMOL finished but did not write '%s'.", outPath)
	}
	return nil
}
