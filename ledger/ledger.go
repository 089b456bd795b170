// Package ledger implements the score-ledger tables written by the
// screening pipeline: the per-alpha score tables (one row per structure)
// and the global ranking file.
//
// The on-disk formats are fixed. Downstream consumers parse these files
// with awk, so the header rows and column separators must not change.
package ledger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TableHeader is the header row of a per-alpha score table.
const TableHeader = "structure_name internal_hbonds"

// RankingHeader is the header row of the global ranking file.
const RankingHeader = "alpha_folder\tstructure_name\tmin_internal_hbonds"

// A Record is one row of a per-alpha score table: the name of a
// chain-extracted structure and its internal hydrogen-bond count.
//
// The hydrogen-bond count is kept as a float since the scorer may report
// a fractional value. Truncation happens at filter time, not here.
type Record struct {
	Name   string
	Hbonds float64
}

// A Table is an ordered sequence of score records. Order is the order the
// records were written (or read), which is significant: the final ranking
// breaks ties by input order.
type Table []Record

// ReadTable reads a whitespace-delimited score table from r. The first
// line is the header row and is skipped. Blank lines are ignored.
func ReadTable(r io.Reader) (Table, error) {
	var table Table
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("Malformed score table row '%s': "+
				"expected 2 fields but got %d.", line, len(fields))
		}
		hbonds, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("Could not parse hydrogen-bond count "+
				"'%s': %s", fields[1], err)
		}
		table = append(table, Record{Name: fields[0], Hbonds: hbonds})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// ReadTableFile reads a score table from the file at path.
func ReadTableFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f)
}

// Write writes the table to w in the fixed whitespace-delimited format,
// header row included.
func (t Table) Write(w io.Writer) error {
	if _, err := fmt.Fprintln(w, TableHeader); err != nil {
		return err
	}
	for _, rec := range t {
		_, err := fmt.Fprintf(w, "%s %s\n", rec.Name, formatHbonds(rec.Hbonds))
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the table to the file at path, replacing whatever was
// there. Per-alpha ledgers are always rewritten whole.
func (t Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	if err := t.Write(buf); err != nil {
		return err
	}
	return buf.Flush()
}

// A RankedRecord is one row of the global ranking file. The hydrogen-bond
// count here is the truncated integer used for filtering, and AlphaDir is
// the name of the per-alpha directory the structure came from.
type RankedRecord struct {
	AlphaDir string
	Name     string
	Hbonds   int
}

// WriteRanking writes a global ranking to w: a tab-delimited table with
// the fixed header row. The caller is responsible for ordering the rows
// (see the rank package).
func WriteRanking(w io.Writer, recs []RankedRecord) error {
	if _, err := fmt.Fprintln(w, RankingHeader); err != nil {
		return err
	}
	for _, rec := range recs {
		_, err := fmt.Fprintf(w, "%s\t%s\t%d\n", rec.AlphaDir, rec.Name, rec.Hbonds)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteRankingFile writes a global ranking to the file at path.
func WriteRankingFile(path string, recs []RankedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	if err := WriteRanking(buf, recs); err != nil {
		return err
	}
	return buf.Flush()
}

// ReadRanking reads a global ranking from r, skipping the header row.
func ReadRanking(r io.Reader) ([]RankedRecord, error) {
	var recs []RankedRecord
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if first {
			first = false
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("Malformed ranking row '%s': "+
				"expected 3 fields but got %d.", line, len(fields))
		}
		hbonds, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("Could not parse hydrogen-bond count "+
				"'%s': %s", fields[2], err)
		}
		recs = append(recs, RankedRecord{
			AlphaDir: fields[0],
			Name:     fields[1],
			Hbonds:   int(hbonds),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// formatHbonds writes a count the way the scorer reported it: integral
// counts without a decimal point, fractional counts as-is.
func formatHbonds(h float64) string {
	return strconv.FormatFloat(h, 'g', -1, 64)
}
