package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Naty89/PeptideScreening/apps/boltzgen"
	"github.com/Naty89/PeptideScreening/ledger"
	"github.com/Naty89/PeptideScreening/slurm"
)

func testLengths() boltzgen.LengthRange {
	return boltzgen.LengthRange{Min: 7, Max: 20}
}

func TestFormatAlpha(t *testing.T) {
	tests := []struct {
		alpha float64
		want  string
	}{
		{0.01, "0.01"},
		{0.1, "0.1"},
		{0.4, "0.4"},
		{1, "1"},
	}
	for _, test := range tests {
		if got := FormatAlpha(test.alpha); got != test.want {
			t.Fatalf("FormatAlpha(%f) = '%s', want '%s'.",
				test.alpha, got, test.want)
		}
	}
}

func TestChainNameRoundTrip(t *testing.T) {
	ctx := NewContext("run", nil)

	chain := ctx.ChainName("design_0.cif")
	if chain != "design_0_A.pdb" {
		t.Fatalf("ChainName = '%s', want 'design_0_A.pdb'.", chain)
	}
	if got := ctx.ComplexName(chain); got != "design_0.cif" {
		t.Fatalf("ComplexName did not invert ChainName: '%s'.", got)
	}
}

func TestCollectedName(t *testing.T) {
	got := CollectedName("alpha_0.1", "design_0_A.pdb")
	if got != "alpha_0.1_design_0_A.pdb" {
		t.Fatalf("CollectedName = '%s'.", got)
	}
}

func TestFindStructure(t *testing.T) {
	base := t.TempDir()
	if _, err := FindStructure(base); err == nil {
		t.Fatal("Expected an error for a directory with no structure.")
	}

	mustWrite(t, path.Join(base, "4QKZ.cif"), "data_4QKZ\n")
	if err := os.Mkdir(path.Join(base, "alpha_0.1"), 0755); err != nil {
		t.Fatalf("%s", err)
	}
	mustWrite(t, path.Join(base, "alpha_0.1", "design_0.cif"), "data_x\n")

	found, err := FindStructure(base)
	if err != nil {
		t.Fatalf("%s", err)
	}
	if found != path.Join(base, "4QKZ.cif") {
		t.Fatalf("FindStructure = '%s'.", found)
	}

	mustWrite(t, path.Join(base, "other.cif"), "data_other\n")
	if _, err := FindStructure(base); err == nil {
		t.Fatal("Expected an error for two top-level structures.")
	}
}

func TestFanOut(t *testing.T) {
	var calls int32
	errs := fanOut(100, func(i int) error {
		atomic.AddInt32(&calls, 1)
		if i == 42 {
			return fmt.Errorf("item %d failed", i)
		}
		return nil
	})

	if calls != 100 {
		t.Fatalf("Expected 100 calls but got %d.", calls)
	}
	for i, err := range errs {
		if i == 42 && err == nil {
			t.Fatal("Expected item 42 to fail.")
		}
		if i != 42 && err != nil {
			t.Fatalf("Item %d failed unexpectedly: %s", i, err)
		}
	}
}

// writePeptide writes a minimal single-chain PDB file with full backbone
// records for the given number of residues.
func writePeptide(t *testing.T, p string, chain byte, residues int) {
	t.Helper()

	var b strings.Builder
	serial := 1
	for res := 1; res <= residues; res++ {
		for i, name := range []string{"N", "CA", "C", "O"} {
			x := float64(res)*3.8 + float64(i)
			fmt.Fprintf(&b,
				"ATOM  %5d  %-3s ALA %c%4d    %8.3f%8.3f%8.3f  1.00  0.00\n",
				serial, name, chain, res, x, float64(res), 0.0)
			serial++
		}
	}
	b.WriteString("END\n")
	mustWrite(t, p, b.String())
}

func mustWrite(t *testing.T, p, contents string) {
	t.Helper()
	if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
		t.Fatalf("%s", err)
	}
}

// setupRun builds a base directory that looks like a finished generation
// and scoring run for alphas 0.1 and 0.4.
func setupRun(t *testing.T) *Driver {
	t.Helper()
	base := t.TempDir()
	ctx := NewContext(base, []float64{0.1, 0.4})
	d := NewDriver(ctx, "", testLengths())

	// alpha_0.1: design_0 passes (5 >= 15/3), design_1 fails (4 < 5).
	for _, alpha := range []float64{0.1} {
		if err := os.MkdirAll(ctx.ChainsPath(alpha), 0755); err != nil {
			t.Fatalf("%s", err)
		}
		mustWrite(t, path.Join(ctx.AlphaPath(alpha), "design_0.cif"), "data_0\n")
		mustWrite(t, path.Join(ctx.AlphaPath(alpha), "design_1.cif"), "data_1\n")
		writePeptide(t, path.Join(ctx.ChainsPath(alpha), "design_0_A.pdb"), 'A', 15)
		writePeptide(t, path.Join(ctx.ChainsPath(alpha), "design_1_A.pdb"), 'A', 15)
		table := ledger.Table{
			{Name: "design_0_A.pdb", Hbonds: 5},
			{Name: "design_1_A.pdb", Hbonds: 4},
		}
		if err := table.WriteFile(ctx.ScoresPath(alpha)); err != nil {
			t.Fatalf("%s", err)
		}
	}

	// alpha_0.4: design_2 passes with the highest count.
	for _, alpha := range []float64{0.4} {
		if err := os.MkdirAll(ctx.ChainsPath(alpha), 0755); err != nil {
			t.Fatalf("%s", err)
		}
		mustWrite(t, path.Join(ctx.AlphaPath(alpha), "design_2.cif"), "data_2\n")
		writePeptide(t, path.Join(ctx.ChainsPath(alpha), "design_2_A.pdb"), 'A', 15)
		table := ledger.Table{{Name: "design_2_A.pdb", Hbonds: 8}}
		if err := table.WriteFile(ctx.ScoresPath(alpha)); err != nil {
			t.Fatalf("%s", err)
		}
	}
	return d
}

func TestRankCandidates(t *testing.T) {
	d := setupRun(t)

	sum, err := d.RankCandidates()
	if err != nil {
		t.Fatalf("%s", err)
	}
	if sum.Scored != 3 {
		t.Fatalf("Expected 3 scored structures but got %d.", sum.Scored)
	}
	if sum.Passed != 2 {
		t.Fatalf("Expected 2 passing candidates but got %d.", sum.Passed)
	}
	if sum.Missing != 0 {
		t.Fatalf("Expected no missing complexes but got %d.", sum.Missing)
	}

	f, err := os.Open(d.Ctx.RankingPath())
	if err != nil {
		t.Fatalf("%s", err)
	}
	defer f.Close()
	recs, err := ledger.ReadRanking(f)
	if err != nil {
		t.Fatalf("%s", err)
	}
	want := []ledger.RankedRecord{
		{AlphaDir: "alpha_0.1", Name: "design_0_A.pdb", Hbonds: 5},
		{AlphaDir: "alpha_0.4", Name: "design_2_A.pdb", Hbonds: 8},
	}
	if len(recs) != len(want) {
		t.Fatalf("Expected %d ranking rows but got %d: %v",
			len(want), len(recs), recs)
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Fatalf("Ranking row %d is %v, want %v.", i, recs[i], want[i])
		}
	}

	// The collections hold the prefixed peptides and complexes.
	for _, p := range []string{
		path.Join(d.Ctx.PeptidesPath(), "alpha_0.1_design_0_A.pdb"),
		path.Join(d.Ctx.PeptidesPath(), "alpha_0.4_design_2_A.pdb"),
		path.Join(d.Ctx.ComplexesPath(), "alpha_0.1_design_0.cif"),
		path.Join(d.Ctx.ComplexesPath(), "alpha_0.4_design_2.cif"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("Expected collected file '%s': %s", p, err)
		}
	}

	// The failing design must not be collected.
	rejected := path.Join(d.Ctx.PeptidesPath(), "alpha_0.1_design_1_A.pdb")
	if _, err := os.Stat(rejected); err == nil {
		t.Fatalf("Rejected design was collected: '%s'.", rejected)
	}

	// Per-alpha filtered ledgers were written.
	filtered, err := ledger.ReadTableFile(d.Ctx.FilteredScoresPath(0.1))
	if err != nil {
		t.Fatalf("%s", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "design_0_A.pdb" {
		t.Fatalf("Unexpected filtered ledger for alpha 0.1: %v", filtered)
	}

	// Sequence and cluster summaries exist.
	if _, err := os.Stat(d.Ctx.FastaPath()); err != nil {
		t.Fatalf("Expected sequence summary: %s", err)
	}
	if sum.Clusters < 1 {
		t.Fatalf("Expected at least one backbone cluster, got %d.",
			sum.Clusters)
	}
}

func TestRankCandidatesMissingComplex(t *testing.T) {
	d := setupRun(t)

	// Delete one passing design's complex after generation.
	gone := path.Join(d.Ctx.AlphaPath(0.4), "design_2.cif")
	if err := os.Remove(gone); err != nil {
		t.Fatalf("%s", err)
	}

	sum, err := d.RankCandidates()
	if err != nil {
		t.Fatalf("A missing complex must not fail the run: %s", err)
	}
	if sum.Passed != 2 {
		t.Fatalf("Expected 2 passing candidates but got %d.", sum.Passed)
	}
	if sum.Missing != 1 {
		t.Fatalf("Expected exactly 1 missing complex but got %d.",
			sum.Missing)
	}

	// The peptide itself is still collected.
	p := path.Join(d.Ctx.PeptidesPath(), "alpha_0.4_design_2_A.pdb")
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("Peptide with a missing complex was not collected: %s", err)
	}
}

func TestRankCandidatesEmpty(t *testing.T) {
	base := t.TempDir()
	ctx := NewContext(base, []float64{0.1})
	d := NewDriver(ctx, "", testLengths())

	if err := os.MkdirAll(ctx.ChainsPath(0.1), 0755); err != nil {
		t.Fatalf("%s", err)
	}
	writePeptide(t, path.Join(ctx.ChainsPath(0.1), "design_0_A.pdb"), 'A', 15)
	table := ledger.Table{{Name: "design_0_A.pdb", Hbonds: 2}}
	if err := table.WriteFile(ctx.ScoresPath(0.1)); err != nil {
		t.Fatalf("%s", err)
	}

	sum, err := d.RankCandidates()
	if err != nil {
		t.Fatalf("Zero passing candidates is not a failure: %s", err)
	}
	if sum.Passed != 0 {
		t.Fatalf("Expected no passing candidates but got %d.", sum.Passed)
	}

	// The ranking file still exists, with only the header row.
	contents, err := os.ReadFile(ctx.RankingPath())
	if err != nil {
		t.Fatalf("%s", err)
	}
	if strings.TrimSpace(string(contents)) != ledger.RankingHeader {
		t.Fatalf("Expected a header-only ranking file, got:\n%s", contents)
	}
}

func TestRankCandidatesMissingLedger(t *testing.T) {
	d := setupRun(t)

	// Delete one alpha group's score ledger entirely. Aggregation must
	// warn, skip the group and still rank the other one.
	if err := os.Remove(d.Ctx.ScoresPath(0.1)); err != nil {
		t.Fatalf("%s", err)
	}

	sum, err := d.RankCandidates()
	if err != nil {
		t.Fatalf("A missing ledger must not fail aggregation: %s", err)
	}
	if sum.Scored != 1 {
		t.Fatalf("Expected 1 scored design from the surviving group "+
			"but got %d.", sum.Scored)
	}
	if sum.Passed != 1 {
		t.Fatalf("Expected 1 passing candidate but got %d.", sum.Passed)
	}

	f, err := os.Open(d.Ctx.RankingPath())
	if err != nil {
		t.Fatalf("%s", err)
	}
	defer f.Close()
	recs, err := ledger.ReadRanking(f)
	if err != nil {
		t.Fatalf("%s", err)
	}
	if len(recs) != 1 || recs[0].AlphaDir != "alpha_0.4" ||
		recs[0].Name != "design_2_A.pdb" {
		t.Fatalf("Unexpected ranking: %v", recs)
	}
}

func TestGenerateConfigKeepsStructure(t *testing.T) {
	base := t.TempDir()
	ctx := NewContext(base, []float64{0.1})

	const structData = "data_target\n"
	mustWrite(t, path.Join(base, "target.cif"), structData)

	pocket := path.Join(base, "pocket1_atm.cif")
	mustWrite(t, pocket,
		"ATOM 1 C CA . VAL A 1 12 -8.9 10.0 3.2 1.0 0.0 12 VAL A\n")

	// The input structure already sits in the base directory but is
	// spelled with a redundant path element, so a naive string compare
	// would copy the file onto itself and truncate it.
	d := NewDriver(ctx, base+"/./target.cif", testLengths())
	if err := d.GenerateConfig(pocket); err != nil {
		t.Fatalf("%s", err)
	}

	contents, err := os.ReadFile(path.Join(base, "target.cif"))
	if err != nil {
		t.Fatalf("%s", err)
	}
	if string(contents) != structData {
		t.Fatalf("Input structure was clobbered; contents now %q.",
			contents)
	}
	if _, err := os.Stat(ctx.ConfigPath()); err != nil {
		t.Fatalf("Missing design config: %s", err)
	}
}

func TestResidueCount(t *testing.T) {
	dir := t.TempDir()
	p := path.Join(dir, "design_0_A.pdb")
	writePeptide(t, p, 'A', 15)

	n, err := residueCount(p, 'A')
	if err != nil {
		t.Fatalf("%s", err)
	}
	if n != 15 {
		t.Fatalf("Expected 15 residues but got %d.", n)
	}
}

func TestAwaitGenerationNoOutputs(t *testing.T) {
	base := t.TempDir()
	ctx := NewContext(base, []float64{0.1})
	d := NewDriver(ctx, "", testLengths())

	// 'true' makes the queue report the job gone immediately.
	d.Slurm = slurm.Config{
		Squeue:       "true",
		PollInterval: time.Millisecond,
	}
	if err := os.MkdirAll(ctx.AlphaPath(0.1), 0755); err != nil {
		t.Fatalf("%s", err)
	}

	err := d.AwaitGeneration(context.Background(), "12345")
	if err == nil {
		t.Fatal("Expected a fatal error when the job leaves the queue " +
			"without producing structures.")
	}
	if d.State == GenerationComplete {
		t.Fatal("State must not advance when expected outputs are absent.")
	}
}
