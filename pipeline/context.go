// Package pipeline sequences the screening stages: pocket detection,
// design-config generation, generation on the batch queue, chain
// extraction, stability scoring, and the filter/rank aggregation.
//
// Every path used by a stage is derived from an immutable Context; no
// stage relies on the process working directory directly.
package pipeline

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
)

// DefaultAlphas is the fixed set of design-parameter values screened when
// the caller does not choose their own.
var DefaultAlphas = []float64{0.01, 0.1, 0.2, 0.3, 0.4}

// A Context fixes the directory layout and naming conventions of one
// screening run. Contexts are value types and never mutated; every stage
// receives the same Context.
type Context struct {
	// BaseDir is the run's base directory. All artifacts live under it.
	BaseDir string

	// Alphas are the design-parameter values screened, one alpha group
	// (and one per-alpha directory) each.
	Alphas []float64

	// PeptideChain is the chain identifier of the designed peptide in
	// every generated complex.
	PeptideChain byte

	// TargetChain is the chain identifier of the target protein in the
	// design configuration.
	TargetChain byte
}

// NewContext creates a Context rooted at baseDir with the given alpha
// values (DefaultAlphas if none), the peptide on chain A and the target
// on chain B.
func NewContext(baseDir string, alphas []float64) Context {
	if len(alphas) == 0 {
		alphas = DefaultAlphas
	}
	return Context{
		BaseDir:      baseDir,
		Alphas:       append([]float64(nil), alphas...),
		PeptideChain: 'A',
		TargetChain:  'B',
	}
}

// FormatAlpha formats an alpha value the way it appears in directory
// names: the shortest decimal representation, so 0.10 becomes "0.1".
func FormatAlpha(alpha float64) string {
	return strconv.FormatFloat(alpha, 'g', -1, 64)
}

// AlphaDir returns the name of the per-alpha directory for alpha.
func (c Context) AlphaDir(alpha float64) string {
	return "alpha_" + FormatAlpha(alpha)
}

// AlphaPath returns the full path of the per-alpha directory for alpha.
func (c Context) AlphaPath(alpha float64) string {
	return path.Join(c.BaseDir, c.AlphaDir(alpha))
}

// ChainsPath returns the directory holding the chain-extracted peptides
// of one alpha group.
func (c Context) ChainsPath(alpha float64) string {
	return path.Join(c.AlphaPath(alpha), "chains")
}

// ChainName maps a complex structure's file name to the file name of its
// chain-extracted peptide: design_0.cif becomes design_0_A.pdb.
func (c Context) ChainName(complexName string) string {
	base := strings.TrimSuffix(complexName, path.Ext(complexName))
	return fmt.Sprintf("%s_%c.pdb", base, c.PeptideChain)
}

// ComplexName is the inverse of ChainName: design_0_A.pdb becomes
// design_0.cif.
func (c Context) ComplexName(chainName string) string {
	suffix := fmt.Sprintf("_%c.pdb", c.PeptideChain)
	return strings.TrimSuffix(chainName, suffix) + ".cif"
}

// ScoresPath returns the path of an alpha group's full score ledger.
func (c Context) ScoresPath(alpha float64) string {
	return path.Join(c.AlphaPath(alpha), "scores.txt")
}

// FilteredScoresPath returns the path of an alpha group's filtered score
// ledger.
func (c Context) FilteredScoresPath(alpha float64) string {
	return path.Join(c.AlphaPath(alpha), "scores_filtered.txt")
}

// RankingPath returns the path of the global ranking file.
func (c Context) RankingPath() string {
	return path.Join(c.BaseDir, "ranking.tsv")
}

// PeptidesPath returns the flat collection directory of filtered
// chain-extracted peptides.
func (c Context) PeptidesPath() string {
	return path.Join(c.BaseDir, "filtered_peptides")
}

// ComplexesPath returns the flat collection directory of the full
// complexes corresponding to the filtered peptides.
func (c Context) ComplexesPath() string {
	return path.Join(c.BaseDir, "filtered_complexes")
}

// FastaPath returns the path of the filtered-peptide sequence summary.
func (c Context) FastaPath() string {
	return path.Join(c.BaseDir, "filtered_peptides.fasta")
}

// ClustersPath returns the path of the cluster summary of filtered
// peptides.
func (c Context) ClustersPath() string {
	return path.Join(c.BaseDir, "clusters.tsv")
}

// ConfigPath returns the path of the generated design configuration.
func (c Context) ConfigPath() string {
	return path.Join(c.BaseDir, "design.yaml")
}

// ScriptPath returns the path of the generation batch script.
func (c Context) ScriptPath() string {
	return path.Join(c.BaseDir, "generate.sh")
}

// CollectedName prefixes a structure name with its alpha directory so
// that structures from different alpha groups cannot collide in the flat
// collection directories.
func CollectedName(alphaDir, name string) string {
	return alphaDir + "_" + name
}

// FindStructure locates the run's input structure: the single .cif file
// at the top level of the base directory. Per-alpha directories and their
// contents are not considered.
func FindStructure(baseDir string) (string, error) {
	dir, err := os.ReadDir(baseDir)
	if err != nil {
		return "", err
	}

	var found []string
	for _, info := range dir {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".cif") {
			continue
		}
		found = append(found, info.Name())
	}
	if len(found) == 0 {
		return "", fmt.Errorf("No input structure (.cif) found in '%s'.",
			baseDir)
	}
	if len(found) > 1 {
		return "", fmt.Errorf("Found %d .cif files in '%s'; expected "+
			"exactly one input structure.", len(found), baseDir)
	}
	return path.Join(baseDir, found[0]), nil
}
