// Package rosetta drives the Rosetta scoring application to compute the
// internal hydrogen-bond count of a single-chain peptide structure, and
// parses the score table it reports.
package rosetta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/cmd"
)

// DefaultConfig provides sane defaults for running the scorer. For
// example:
//
//	score, err := rosetta.DefaultConfig.Score("design_0_A.pdb")
var DefaultConfig = Config{
	Exec:        "score_jd2",
	HbondColumn: "hbonds_int",
	Verbose:     false,
}

// Config specifies the scoring executable, the score-table column holding
// the internal hydrogen-bond count, and any extra flags to pass through.
type Config struct {
	// Exec points to the scoring executable. If it is in your PATH, the
	// bare name is sufficient.
	Exec string

	// HbondColumn is the name of the score-table column holding the
	// internal hydrogen-bond count.
	HbondColumn string

	// Flags are appended verbatim to the command line, after the input
	// and scorefile flags.
	Flags []string

	// When true, the command executed is printed to stderr.
	Verbose bool
}

// A Score is one structure's row of the scorer's output table.
type Score struct {
	// Name is the structure name from the table's description column.
	Name string

	// InternalHbonds is the reported internal hydrogen-bond count. The
	// scorer may report a fractional value; truncation is left to the
	// stability filter.
	InternalHbonds float64
}

// Score runs the scorer on one single-chain structure and returns its
// internal hydrogen-bond count. The scorer writes its table to a
// temporary file which is removed before returning.
func (conf Config) Score(chainPath string) (Score, error) {
	if _, err := os.Stat(chainPath); err != nil {
		return Score{}, fmt.Errorf("Could not access structure '%s': %s",
			chainPath, err)
	}

	scoreFile, err := os.CreateTemp("", "pepscreen-scores")
	if err != nil {
		return Score{}, err
	}
	scorePath := scoreFile.Name()
	scoreFile.Close()
	defer os.Remove(scorePath)

	args := []string{
		"-in:file:s", chainPath,
		"-out:file:scorefile", scorePath,
		"-out:overwrite",
	}
	args = append(args, conf.Flags...)

	c := cmd.New(conf.Exec, args...)
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "%s\n", c)
	}
	if err := c.Run(); err != nil {
		return Score{}, err
	}

	written, err := os.Open(scorePath)
	if err != nil {
		return Score{}, err
	}
	defer written.Close()

	scores, err := ParseScores(written, conf.HbondColumn)
	if err != nil {
		return Score{}, fmt.Errorf("Could not parse the score table for "+
			"'%s': %s", chainPath, err)
	}
	if len(scores) != 1 {
		return Score{}, fmt.Errorf("Expected one score row for '%s' but "+
			"got %d.", chainPath, len(scores))
	}
	return scores[0], nil
}

// ParseScores reads a Rosetta score table and extracts, for each scored
// structure, the value of the named column and the structure name from
// the description column.
//
// Score tables are whitespace delimited. Rows begin with a 'SCORE:' tag;
// the first such row is the header naming each column. Any other lines
// (the 'SEQUENCE:' preamble in particular) are ignored.
func ParseScores(r io.Reader, column string) ([]Score, error) {
	hbondCol, descCol := -1, -1

	var scores []Score
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "SCORE:") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "SCORE:"))
		if len(fields) == 0 {
			continue
		}

		// The first SCORE: row is the header.
		if hbondCol == -1 {
			for i, name := range fields {
				switch name {
				case column:
					hbondCol = i
				case "description":
					descCol = i
				}
			}
			if hbondCol == -1 || descCol == -1 {
				return nil, fmt.Errorf("Score table header is missing the "+
					"'%s' or 'description' column: '%s'", column, line)
			}
			continue
		}

		if len(fields) <= hbondCol || len(fields) <= descCol {
			return nil, fmt.Errorf("Score table row has %d fields, fewer "+
				"than the header: '%s'", len(fields), line)
		}
		hbonds, err := strconv.ParseFloat(fields[hbondCol], 64)
		if err != nil {
			return nil, fmt.Errorf("Could not parse hydrogen-bond count "+
				"'%s': %s", fields[hbondCol], err)
		}
		scores = append(scores, Score{
			Name:           fields[descCol],
			InternalHbonds: hbonds,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if hbondCol == -1 {
		return nil, fmt.Errorf("No score table header found.")
	}
	return scores, nil
}
