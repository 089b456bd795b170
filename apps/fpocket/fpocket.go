// Package fpocket drives the fpocket binding-site detector and extracts
// binding residues from its ranked pocket output.
package fpocket

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/cmd"
)

// DefaultConfig provides sane defaults for running fpocket. For example:
//
//	results, err := fpocket.DefaultConfig.Run("4QKZ.cif")
var DefaultConfig = Config{
	Exec:    "fpocket",
	Verbose: false,
}

// Config specifies the location of the fpocket executable and controls
// command echoing.
type Config struct {
	// Exec points to the 'fpocket' executable. If 'fpocket' is in your
	// PATH, it is sufficient to leave this as 'fpocket'.
	Exec string

	// When true, the command executed is printed to stderr.
	Verbose bool
}

// Run executes fpocket on the given structure file. fpocket writes its
// results to a '<name>_out' directory next to the input structure; if
// that directory already exists, the existing results are reused and
// fpocket is not invoked again.
func (conf Config) Run(structPath string) (Results, error) {
	if _, err := os.Stat(structPath); err != nil {
		return Results{}, fmt.Errorf("Could not access structure file "+
			"'%s': %s", structPath, err)
	}

	base := strings.TrimSuffix(path.Base(structPath), path.Ext(structPath))
	outDir := path.Join(path.Dir(structPath), base+"_out")

	if _, err := os.Stat(outDir); err != nil {
		c := cmd.New(conf.Exec, "-f", structPath)
		if conf.Verbose {
			fmt.Fprintf(os.Stderr, "%s\n", c)
		}
		if err := c.Run(); err != nil {
			return Results{}, err
		}
		if _, err := os.Stat(outDir); err != nil {
			return Results{}, fmt.Errorf("fpocket finished but did not "+
				"produce its output directory '%s'.", outDir)
		}
	}
	return Results{Dir: outDir}, nil
}

// Results corresponds to an fpocket output directory.
type Results struct {
	Dir string
}

// Pocket returns the path of the pocket structure file with the given
// druggability rank. Ranks start at 1, which is fpocket's best pocket.
func (res Results) Pocket(rank int) (string, error) {
	if rank < 1 {
		return "", fmt.Errorf("Pocket ranks start at 1, got %d.", rank)
	}
	p := path.Join(res.Dir, "pockets", fmt.Sprintf("pocket%d_atm.cif", rank))
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("Could not find pocket with rank %d in "+
			"'%s': %s", rank, res.Dir, err)
	}
	return p, nil
}

// Residues reads a pocket structure file and returns the sorted set of
// distinct residue numbers among its atom records. The auth_seq_id column
// of ATOM/HETATM rows identifies the residue.
func Residues(pocketPath string) ([]int, error) {
	f, err := os.Open(pocketPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[int]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") &&
			!strings.HasPrefix(line, "HETATM") {
			continue
		}

		// auth_seq_id is the 15th field of fpocket's atom_site rows.
		fields := strings.Fields(line)
		if len(fields) < 15 {
			continue
		}
		num, err := strconv.Atoi(fields[14])
		if err != nil {
			continue
		}
		seen[num] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("No residues found in pocket file '%s'.",
			pocketPath)
	}

	residues := make([]int, 0, len(seen))
	for num := range seen {
		residues = append(residues, num)
	}
	sort.Ints(residues)
	return residues, nil
}
