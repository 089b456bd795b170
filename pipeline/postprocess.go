package pipeline

import (
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	"github.com/TuftsBCB/io/fasta"
	"github.com/TuftsBCB/io/pdb"
	"github.com/TuftsBCB/seq"

	"github.com/Naty89/PeptideScreening/apps/boltzgen"
	"github.com/Naty89/PeptideScreening/cluster"
	"github.com/Naty89/PeptideScreening/ledger"
	"github.com/Naty89/PeptideScreening/rank"
	"github.com/Naty89/PeptideScreening/rmsd"
)

// A Summary reports what postprocessing found. A run that completes with
// zero passing candidates is a valid outcome, distinct from a failure;
// callers decide how loudly to report it.
type Summary struct {
	// Scored is the number of structures that were scored successfully.
	Scored int

	// Passed is the number of records that passed the stability filter.
	Passed int

	// Missing is the number of filtered records whose full complex could
	// not be found during reconciliation.
	Missing int

	// Clusters is the number of backbone clusters among the filtered
	// peptides.
	Clusters int
}

// Postprocess runs everything after generation: chain extraction,
// stability scoring, and the filter/rank aggregation.
func (d *Driver) Postprocess() (Summary, error) {
	if err := d.ExtractChains(); err != nil {
		return Summary{}, err
	}
	if err := d.ScoreChains(); err != nil {
		return Summary{}, err
	}
	sum, err := d.RankCandidates()
	if err != nil {
		return sum, err
	}
	d.State = Postprocessed
	return sum, nil
}

// fanOut runs f over n independent items, fanning the calls out across
// GOMAXPROCS workers. The returned error slice has length n; entry i is
// the error from item i or nil. A failed item never stops its siblings.
func fanOut(n int, f func(i int) error) []error {
	jobs := make(chan int, 100)
	errs := make([]error, n)
	wg := new(sync.WaitGroup)
	for i := 0; i < runtime.GOMAXPROCS(0); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				errs[job] = f(job)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return errs
}

// ExtractChains extracts the designed-peptide chain from every generated
// complex, one extractor invocation per structure. Chain files that
// already exist are reused; they are derived data and regenerable, so an
// existing file is trusted. An alpha group with no structures is skipped
// with a warning, but finding no structures anywhere is an error.
func (d *Driver) ExtractChains() error {
	sawAny := false
	for _, alpha := range d.Ctx.Alphas {
		alphaPath := d.Ctx.AlphaPath(alpha)
		names, err := boltzgen.Structures(alphaPath)
		if err != nil {
			log.Printf("WARNING: skipping alpha group '%s': %s",
				d.Ctx.AlphaDir(alpha), err)
			continue
		}
		if len(names) == 0 {
			log.Printf("WARNING: no generated structures in '%s'.", alphaPath)
			continue
		}
		sawAny = true

		chainsPath := d.Ctx.ChainsPath(alpha)
		if err := os.MkdirAll(chainsPath, 0755); err != nil {
			return err
		}

		errs := fanOut(len(names), func(i int) error {
			chainPath := path.Join(chainsPath, d.Ctx.ChainName(names[i]))
			if _, err := os.Stat(chainPath); err == nil {
				return nil
			}
			return d.PyMOL.ExtractChain(
				path.Join(alphaPath, names[i]), d.Ctx.PeptideChain, chainPath)
		})
		for i, err := range errs {
			if err != nil {
				log.Printf("WARNING: chain extraction failed for %s/%s: %s",
					d.Ctx.AlphaDir(alpha), names[i], err)
			}
		}
	}
	if !sawAny {
		return fmt.Errorf("No generated structures found in any alpha "+
			"group under '%s'.", d.Ctx.BaseDir)
	}
	return nil
}

// ScoreChains scores every chain-extracted peptide and writes each alpha
// group's full score ledger. A structure whose scoring fails is warned
// about and left out of the ledger; its siblings are unaffected.
func (d *Driver) ScoreChains() error {
	sawAny := false
	for _, alpha := range d.Ctx.Alphas {
		chainsPath := d.Ctx.ChainsPath(alpha)
		names, err := chainFiles(chainsPath)
		if err != nil {
			log.Printf("WARNING: skipping alpha group '%s': %s",
				d.Ctx.AlphaDir(alpha), err)
			continue
		}
		if len(names) == 0 {
			log.Printf("WARNING: no extracted chains in '%s'.", chainsPath)
			continue
		}
		sawAny = true

		scores := make([]float64, len(names))
		errs := fanOut(len(names), func(i int) error {
			score, err := d.Rosetta.Score(path.Join(chainsPath, names[i]))
			if err != nil {
				return err
			}
			scores[i] = score.InternalHbonds
			return nil
		})

		var table ledger.Table
		for i, err := range errs {
			if err != nil {
				log.Printf("WARNING: scoring failed for %s/%s: %s",
					d.Ctx.AlphaDir(alpha), names[i], err)
				continue
			}
			table = append(table, ledger.Record{
				Name:   names[i],
				Hbonds: scores[i],
			})
		}
		if err := table.WriteFile(d.Ctx.ScoresPath(alpha)); err != nil {
			return err
		}
	}
	if !sawAny {
		return fmt.Errorf("No extracted chains found in any alpha group "+
			"under '%s'. Run chain extraction first.", d.Ctx.BaseDir)
	}
	return nil
}

// RankCandidates applies the stability filter to every alpha group's
// ledger, writes the per-alpha filtered ledgers, merges them into the
// global ascending ranking, reconciles the filtered peptides back to
// their full complexes, and writes the collection directories plus the
// sequence and cluster summaries.
func (d *Driver) RankCandidates() (Summary, error) {
	var sum Summary
	var groups []rank.Group

	for _, alpha := range d.Ctx.Alphas {
		table, err := ledger.ReadTableFile(d.Ctx.ScoresPath(alpha))
		if err != nil {
			log.Printf("WARNING: skipping alpha group '%s': no score "+
				"ledger: %s", d.Ctx.AlphaDir(alpha), err)
			continue
		}
		sum.Scored += len(table)

		var filtered ledger.Table
		for _, rec := range table {
			chainPath := path.Join(d.Ctx.ChainsPath(alpha), rec.Name)
			n, err := residueCount(chainPath, d.Ctx.PeptideChain)
			if err != nil {
				log.Printf("WARNING: could not count residues for %s/%s "+
					"during filtering: %s", d.Ctx.AlphaDir(alpha), rec.Name, err)
				continue
			}
			if rank.Pass(rec.Hbonds, n) {
				filtered = append(filtered, rec)
			}
		}
		if err := filtered.WriteFile(d.Ctx.FilteredScoresPath(alpha)); err != nil {
			return sum, err
		}
		groups = append(groups, rank.Group{
			AlphaDir: d.Ctx.AlphaDir(alpha),
			Table:    filtered,
		})
	}

	merged := rank.Merge(groups)
	rank.Ascending(merged)
	sum.Passed = len(merged)

	if err := ledger.WriteRankingFile(d.Ctx.RankingPath(), merged); err != nil {
		return sum, err
	}
	if len(merged) == 0 {
		return sum, nil
	}

	missing, err := d.collect(merged)
	if err != nil {
		return sum, err
	}
	sum.Missing = missing

	if err := d.writeFasta(merged); err != nil {
		return sum, err
	}
	clusters, err := d.writeClusters(merged)
	if err != nil {
		return sum, err
	}
	sum.Clusters = clusters
	return sum, nil
}

// collect copies the filtered peptides and their reconciled complexes
// into the flat collection directories, prefixing each file name with its
// alpha directory. Complexes that have disappeared since generation are
// counted and reported, never fatal.
func (d *Driver) collect(merged []ledger.RankedRecord) (int, error) {
	for _, dir := range []string{d.Ctx.PeptidesPath(), d.Ctx.ComplexesPath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, err
		}
	}

	rec := rank.Reconciler{
		BaseDir:     d.Ctx.BaseDir,
		ComplexName: d.Ctx.ComplexName,
	}

	missing := 0
	for _, r := range merged {
		src := path.Join(d.Ctx.BaseDir, r.AlphaDir, "chains", r.Name)
		dest := path.Join(d.Ctx.PeptidesPath(), CollectedName(r.AlphaDir, r.Name))
		if err := copyFile(src, dest); err != nil {
			return missing, fmt.Errorf("Could not collect filtered "+
				"peptide '%s': %s", src, err)
		}

		full, ok := rec.Reconcile(r)
		if !ok {
			missing++
			log.Printf("WARNING: full complex for %s/%s is missing; the "+
				"peptide is kept but its complex cannot be collected.",
				r.AlphaDir, r.Name)
			continue
		}
		dest = path.Join(d.Ctx.ComplexesPath(),
			CollectedName(r.AlphaDir, path.Base(full)))
		if err := copyFile(full, dest); err != nil {
			return missing, fmt.Errorf("Could not collect complex "+
				"'%s': %s", full, err)
		}
	}
	return missing, nil
}

// writeFasta writes the sequences of the filtered peptides, in ranking
// order, to the sequence summary file.
func (d *Driver) writeFasta(merged []ledger.RankedRecord) error {
	var seqs []seq.Sequence
	for _, r := range merged {
		chainPath := path.Join(d.Ctx.BaseDir, r.AlphaDir, "chains", r.Name)
		chain, err := peptideChain(chainPath, d.Ctx.PeptideChain)
		if err != nil {
			log.Printf("WARNING: could not read sequence for %s/%s: %s",
				r.AlphaDir, r.Name, err)
			continue
		}
		name := strings.TrimSuffix(CollectedName(r.AlphaDir, r.Name), ".pdb")
		seqs = append(seqs, seq.Sequence{
			Name:     name,
			Residues: sequence(chain),
		})
	}
	if len(seqs) == 0 {
		return nil
	}

	f, err := os.Create(d.Ctx.FastaPath())
	if err != nil {
		return err
	}
	defer f.Close()
	return fasta.NewWriter(f).WriteAll(seqs)
}

// writeClusters groups the filtered peptides by backbone RMSD and writes
// the cluster summary.
func (d *Driver) writeClusters(merged []ledger.RankedRecord) (int, error) {
	var members []cluster.Member
	for _, r := range merged {
		chainPath := path.Join(d.Ctx.BaseDir, r.AlphaDir, "chains", r.Name)
		chain, err := peptideChain(chainPath, d.Ctx.PeptideChain)
		if err != nil {
			log.Printf("WARNING: could not read backbone for %s/%s: %s",
				r.AlphaDir, r.Name, err)
			continue
		}
		bb := backbone(chain)
		if len(bb) == 0 {
			continue
		}
		members = append(members, cluster.Member{
			Name:     strings.TrimSuffix(CollectedName(r.AlphaDir, r.Name), ".pdb"),
			Backbone: bb,
		})
	}

	clusters := d.Cluster.Assign(members)
	if len(clusters) == 0 {
		return 0, nil
	}

	f, err := os.Create(d.Ctx.ClustersPath())
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := cluster.WriteSummary(f, clusters); err != nil {
		return 0, err
	}
	return len(clusters), nil
}

// chainFiles lists the chain-extracted structure files in a directory,
// sorted by name.
func chainFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, info := range entries {
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".pdb") {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

// peptideChain reads a chain-extracted structure and returns its peptide
// chain.
func peptideChain(chainPath string, ident byte) (*pdb.Chain, error) {
	entry, err := pdb.ReadPDB(chainPath)
	if err != nil {
		return nil, err
	}
	chain := entry.Chain(ident)
	if chain == nil {
		return nil, fmt.Errorf("No chain '%c' in '%s'.", ident, chainPath)
	}
	if len(chain.Models) == 0 {
		return nil, fmt.Errorf("Chain '%c' in '%s' has no atom records.",
			ident, chainPath)
	}
	return chain, nil
}

// residueCount returns the number of distinct residue identifiers among
// the atom records of the peptide chain: the N of the N/3 stability rule.
func residueCount(chainPath string, ident byte) (int, error) {
	chain, err := peptideChain(chainPath, ident)
	if err != nil {
		return 0, err
	}

	type resID struct {
		num       int
		insertion byte
	}
	seen := make(map[resID]bool)
	for _, res := range chain.Models[0].Residues {
		seen[resID{res.SequenceNum, res.InsertionCode}] = true
	}
	return len(seen), nil
}

// sequence returns the peptide's residue sequence, preferring SEQRES
// when present and falling back to the atom records. Chain-extracted
// files usually carry only atom records.
func sequence(chain *pdb.Chain) []seq.Residue {
	if len(chain.Sequence) > 0 {
		return chain.Sequence
	}
	residues := make([]seq.Residue, 0, len(chain.Models[0].Residues))
	for _, res := range chain.Models[0].Residues {
		residues = append(residues, res.Name)
	}
	return residues
}

// backbone returns the peptide's backbone coordinates: the N, CA, C and
// O atoms of each residue, in residue order. Missing backbone atoms are
// skipped.
func backbone(chain *pdb.Chain) []rmsd.Coords {
	var coords []rmsd.Coords
	for _, res := range chain.Models[0].Residues {
		for _, want := range []string{"N", "CA", "C", "O"} {
			for _, atom := range res.Atoms {
				if atom.Name == want && !atom.Het {
					coords = append(coords, rmsd.Coords{
						X: atom.X, Y: atom.Y, Z: atom.Z,
					})
					break
				}
			}
		}
	}
	return coords
}
