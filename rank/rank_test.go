package rank

import (
	"os"
	"path"
	"strings"
	"testing"

	"github.com/Naty89/PeptideScreening/ledger"
)

func TestThreshold(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 1},
		{14, 4},
		{15, 5},
		{16, 5},
		{30, 10},
	}
	for _, test := range tests {
		if got := Threshold(test.n); got != test.want {
			t.Fatalf("Threshold(%d) = %d, want %d.", test.n, got, test.want)
		}
	}
}

func TestThresholdNegative(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected a panic for a negative residue count.")
		}
	}()
	Threshold(-1)
}

func TestPassBoundary(t *testing.T) {
	// A 15-residue peptide needs at least 5 internal hydrogen bonds.
	if !Pass(5, 15) {
		t.Fatal("Pass(5, 15) should be true.")
	}
	if Pass(4, 15) {
		t.Fatal("Pass(4, 15) should be false.")
	}

	// Fractional counts truncate toward zero before the comparison.
	if Pass(4.9, 15) {
		t.Fatal("Pass(4.9, 15) should be false: 4.9 truncates to 4.")
	}
	if !Pass(5.1, 15) {
		t.Fatal("Pass(5.1, 15) should be true.")
	}
}

func TestPassMonotonic(t *testing.T) {
	for n := 0; n <= 30; n++ {
		passed := false
		for h := 0; h <= 15; h++ {
			if Pass(float64(h), n) {
				passed = true
			} else if passed {
				t.Fatalf("Pass is not monotonic in the hydrogen-bond "+
					"count: fails at h=%d, n=%d after passing below.", h, n)
			}
		}
	}
}

func TestMerge(t *testing.T) {
	groups := []Group{
		{
			AlphaDir: "alpha_0.4",
			Table:    ledger.Table{{Name: "design_2_A.pdb", Hbonds: 8}},
		},
		{
			AlphaDir: "alpha_0.1",
			Table: ledger.Table{
				{Name: "design_0_A.pdb", Hbonds: 4},
				{Name: "design_1_A.pdb", Hbonds: 6},
			},
		},
	}

	merged := Merge(groups)
	if len(merged) != 3 {
		t.Fatalf("Expected 3 merged records but got %d.", len(merged))
	}

	// Input order and alpha labels are preserved.
	want := []ledger.RankedRecord{
		{AlphaDir: "alpha_0.4", Name: "design_2_A.pdb", Hbonds: 8},
		{AlphaDir: "alpha_0.1", Name: "design_0_A.pdb", Hbonds: 4},
		{AlphaDir: "alpha_0.1", Name: "design_1_A.pdb", Hbonds: 6},
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Fatalf("Merged record %d is %v, want %v.", i, merged[i], want[i])
		}
	}
}

func TestMergeEmpty(t *testing.T) {
	if merged := Merge(nil); len(merged) != 0 {
		t.Fatalf("Merging no groups should yield no records, got %d.",
			len(merged))
	}
}

func TestAscending(t *testing.T) {
	recs := []ledger.RankedRecord{
		{AlphaDir: "alpha_0.4", Name: "design_2_A.pdb", Hbonds: 8},
		{AlphaDir: "alpha_0.1", Name: "design_0_A.pdb", Hbonds: 4},
	}
	Ascending(recs)

	if recs[0].Hbonds != 4 || recs[1].Hbonds != 8 {
		t.Fatalf("Records not in ascending order: %v", recs)
	}
	if recs[0].AlphaDir != "alpha_0.1" || recs[1].AlphaDir != "alpha_0.4" {
		t.Fatalf("Alpha labels lost during sort: %v", recs)
	}
}

func TestAscendingStable(t *testing.T) {
	recs := []ledger.RankedRecord{
		{AlphaDir: "alpha_0.2", Name: "first", Hbonds: 5},
		{AlphaDir: "alpha_0.3", Name: "second", Hbonds: 5},
		{AlphaDir: "alpha_0.1", Name: "third", Hbonds: 5},
	}
	Ascending(recs)

	// Equal counts keep their input order.
	if recs[0].Name != "first" || recs[1].Name != "second" ||
		recs[2].Name != "third" {
		t.Fatalf("Stable sort violated tie order: %v", recs)
	}

	// Idempotent: ranking an already-ranked table changes nothing.
	before := append([]ledger.RankedRecord(nil), recs...)
	Ascending(recs)
	for i := range before {
		if recs[i] != before[i] {
			t.Fatalf("Sorting a sorted ranking changed record %d.", i)
		}
	}
}

func TestReconcile(t *testing.T) {
	base := t.TempDir()
	alphaDir := path.Join(base, "alpha_0.1")
	if err := os.Mkdir(alphaDir, 0755); err != nil {
		t.Fatalf("%s", err)
	}
	complexPath := path.Join(alphaDir, "design_0.cif")
	if err := os.WriteFile(complexPath, []byte("data_x\n"), 0644); err != nil {
		t.Fatalf("%s", err)
	}

	rec := Reconciler{
		BaseDir: base,
		ComplexName: func(name string) string {
			return strings.TrimSuffix(name, "_A.pdb") + ".cif"
		},
	}

	found, ok := rec.Reconcile(ledger.RankedRecord{
		AlphaDir: "alpha_0.1", Name: "design_0_A.pdb", Hbonds: 5,
	})
	if !ok {
		t.Fatal("Expected to reconcile design_0_A.pdb to its complex.")
	}
	if found != complexPath {
		t.Fatalf("Reconciled to '%s', want '%s'.", found, complexPath)
	}

	// A deleted complex is reported missing, not an error.
	_, ok = rec.Reconcile(ledger.RankedRecord{
		AlphaDir: "alpha_0.1", Name: "design_9_A.pdb", Hbonds: 5,
	})
	if ok {
		t.Fatal("Expected design_9_A.pdb to be missing.")
	}
}
