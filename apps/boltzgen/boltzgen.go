// Package boltzgen builds design configurations for the BoltzGen
// generative model and locates the complex structures it produces.
//
// BoltzGen itself is a long-running GPU job; it is submitted to the batch
// queue (see the slurm package) rather than executed in-process.
package boltzgen

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
)

// DefaultConfig provides sane defaults for invoking BoltzGen.
var DefaultConfig = Config{
	Exec:       "boltzgen",
	NumDesigns: 20,
}

// Config specifies the BoltzGen executable and the number of designs to
// request per alpha value.
type Config struct {
	// Exec points to the 'boltzgen' executable on the cluster nodes. It
	// is only ever embedded in a batch script, never run locally.
	Exec string

	// NumDesigns is the number of complex structures generated for each
	// alpha value.
	NumDesigns int
}

// LengthRange is the designed peptide's allowed residue-count range,
// written "min..max" on the command line and in the design config.
type LengthRange struct {
	Min, Max int
}

// ParseLengthRange parses a "min..max" peptide length range.
func ParseLengthRange(s string) (LengthRange, error) {
	parts := strings.SplitN(s, "..", 2)
	if len(parts) != 2 {
		return LengthRange{}, fmt.Errorf("Could not parse '%s' as a "+
			"peptide length range; expected the form 'min..max'.", s)
	}
	min, err := strconv.Atoi(parts[0])
	if err != nil {
		return LengthRange{}, fmt.Errorf("Could not parse minimum length "+
			"'%s': %s", parts[0], err)
	}
	max, err := strconv.Atoi(parts[1])
	if err != nil {
		return LengthRange{}, fmt.Errorf("Could not parse maximum length "+
			"'%s': %s", parts[1], err)
	}
	if min < 1 || max < min {
		return LengthRange{}, fmt.Errorf("Invalid peptide length range "+
			"'%s': lengths must be positive and min <= max.", s)
	}
	return LengthRange{Min: min, Max: max}, nil
}

func (r LengthRange) String() string {
	return fmt.Sprintf("%d..%d", r.Min, r.Max)
}

// WriteConfig writes a BoltzGen design configuration to w. The designed
// cyclic peptide is entity A; the target protein is included from the
// structure file under its own chain identifier, with the pocket residues
// given as binding hotspots.
//
// The layout of this file is fixed by BoltzGen and must not be reformatted.
func WriteConfig(w io.Writer, structFile string, targetChain byte,
	binding []int, lengths LengthRange) error {

	if len(binding) == 0 {
		return fmt.Errorf("A design configuration requires at least one " +
			"binding residue.")
	}

	residues := make([]string, len(binding))
	for i, num := range binding {
		residues[i] = strconv.Itoa(num)
	}

	_, err := fmt.Fprintf(w, `entities:
  - protein:
      id: A
      sequence: %s
      cyclic: true
  - file:
      path: %s
      include:
        - chain:
            id: %c

binding_types:
  - chain:
      id: %c
      binding: %s

structure_groups: "all"
`,
		lengths, path.Base(structFile), targetChain, targetChain,
		strings.Join(residues, ","))
	return err
}

// CommandLine returns the BoltzGen invocation for one alpha group, for
// embedding in a batch script.
func (conf Config) CommandLine(configPath, outDir string, alpha float64) string {
	return fmt.Sprintf("%s run %s --out_dir %s --alpha %s --num_designs %d",
		conf.Exec, configPath, outDir,
		strconv.FormatFloat(alpha, 'g', -1, 64), conf.NumDesigns)
}

// Structures returns the sorted base names of the complex structures
// BoltzGen wrote to the given per-alpha directory.
func Structures(alphaDir string) ([]string, error) {
	dir, err := os.ReadDir(alphaDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, info := range dir {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if strings.HasPrefix(name, "design_") &&
			strings.HasSuffix(name, ".cif") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
