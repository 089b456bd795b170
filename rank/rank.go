// Package rank implements the stability filter and the global candidate
// ranking: the floor(N/3) hydrogen-bond threshold, the merge of per-alpha
// score tables into one labeled table, the stable ascending sort, and the
// reconciliation of filtered peptide structures back to the full
// complexes they were extracted from.
package rank

import (
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/Naty89/PeptideScreening/ledger"
)

// Threshold returns the minimum internal hydrogen-bond count a peptide
// with n residues must have to pass the stability filter: floor(n/3).
//
// Threshold panics if n is negative. A residue count of 0 is degenerate
// but allowed; it yields a threshold of 0.
func Threshold(n int) int {
	if n < 0 {
		panic(fmt.Sprintf("Residue counts must be non-negative, got %d.", n))
	}
	return n / 3
}

// Pass reports whether a structure with the given hydrogen-bond count and
// residue count passes the stability filter.
//
// Fractional hydrogen-bond counts are truncated toward zero before the
// comparison. This matters at the boundary: a 15-residue peptide needs a
// threshold of 5, and a reported count of 4.9 truncates to 4 and fails.
func Pass(hbonds float64, residues int) bool {
	return int(hbonds) >= Threshold(residues)
}

// A Group is one alpha group's filtered score table, labeled with the
// name of the per-alpha directory it came from.
type Group struct {
	AlphaDir string
	Table    ledger.Table
}

// Merge concatenates the filtered tables of all alpha groups into one
// sequence of labeled records. Groups and the rows within them keep their
// input order, and every row retains its originating alpha label. No row
// is dropped or duplicated.
func Merge(groups []Group) []ledger.RankedRecord {
	var merged []ledger.RankedRecord
	for _, g := range groups {
		for _, rec := range g.Table {
			merged = append(merged, ledger.RankedRecord{
				AlphaDir: g.AlphaDir,
				Name:     rec.Name,
				Hbonds:   int(rec.Hbonds),
			})
		}
	}
	return merged
}

// Ascending sorts records by hydrogen-bond count, lowest first, so that
// the most stable candidates appear at the tail of the ranking. The sort
// is stable: records with equal counts keep their input order. Sorting an
// already-sorted ranking is a no-op.
func Ascending(recs []ledger.RankedRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Hbonds < recs[j].Hbonds
	})
}

// A Reconciler maps filtered records back to the full-complex files they
// were derived from.
type Reconciler struct {
	// BaseDir is the run's base directory, containing one sub-directory
	// per alpha group.
	BaseDir string

	// ComplexName maps a chain-extracted structure's file name to the
	// file name of its parent complex.
	ComplexName func(name string) string
}

// Reconcile derives the full-complex path for a filtered record and
// checks that the file exists. The boolean is false if the complex has
// been pruned or renamed since generation; callers are expected to count
// such records as missing and carry on with the rest.
func (r Reconciler) Reconcile(rec ledger.RankedRecord) (string, bool) {
	full := path.Join(r.BaseDir, rec.AlphaDir, r.ComplexName(rec.Name))
	if _, err := os.Stat(full); err != nil {
		return "", false
	}
	return full, true
}
