package rosetta

import (
	"strings"
	"testing"
)

var scoreTable = `SEQUENCE:
SCORE: total_score fa_atr fa_rep hbonds_int description
SCORE: -12.345 -30.1 4.2 5.0 design_0_A
SCORE: -8.221 -25.9 3.8 4.5 design_1_A
`

func TestParseScores(t *testing.T) {
	scores, err := ParseScores(strings.NewReader(scoreTable), "hbonds_int")
	if err != nil {
		t.Fatalf("%s", err)
	}
	if len(scores) != 2 {
		t.Fatalf("Expected 2 scores but got %d.", len(scores))
	}
	if scores[0].Name != "design_0_A" || scores[0].InternalHbonds != 5.0 {
		t.Fatalf("Unexpected first score: %v", scores[0])
	}
	if scores[1].InternalHbonds != 4.5 {
		t.Fatalf("Fractional count lost: %v", scores[1])
	}
}

func TestParseScoresMissingColumn(t *testing.T) {
	_, err := ParseScores(strings.NewReader(scoreTable), "hbonds_bb")
	if err == nil {
		t.Fatal("Expected an error for a missing hydrogen-bond column.")
	}
}

func TestParseScoresNoHeader(t *testing.T) {
	_, err := ParseScores(strings.NewReader("SEQUENCE: \n"), "hbonds_int")
	if err == nil {
		t.Fatal("Expected an error for a table with no header row.")
	}
}

func TestParseScoresShortRow(t *testing.T) {
	table := "SCORE: total_score hbonds_int description\nSCORE: -1.0\n"
	_, err := ParseScores(strings.NewReader(table), "hbonds_int")
	if err == nil {
		t.Fatal("Expected an error for a truncated score row.")
	}
}
