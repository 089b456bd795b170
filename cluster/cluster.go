// Package cluster groups designed peptides by backbone similarity: two
// peptides belong to the same cluster when the RMSD of their superposed
// backbones is within a cutoff. Clustering is greedy — each peptide joins
// the first existing cluster whose representative it matches, otherwise
// it founds a new cluster — so cluster membership depends on input order,
// which callers should keep deterministic (the ranking order is used by
// the pipeline).
package cluster

import (
	"fmt"
	"io"

	"github.com/Naty89/PeptideScreening/rmsd"
)

// DefaultConfig clusters with a 1.5 Angstrom backbone RMSD cutoff.
var DefaultConfig = Config{
	Cutoff: 1.5,
}

// Config controls the clustering cutoff.
type Config struct {
	// Cutoff is the maximum backbone RMSD, in Angstroms, between a
	// peptide and a cluster representative for the peptide to join the
	// cluster.
	Cutoff float64
}

// A Member is one peptide to be clustered: a name and the coordinates of
// its backbone atoms (N, CA, C, O per residue, in residue order).
type Member struct {
	Name     string
	Backbone []rmsd.Coords
}

// A Cluster is a representative (the founding member) and the names of
// every member, representative included.
type Cluster struct {
	Representative Member
	Members        []string
}

// Assign clusters the members in order. Peptides of different lengths
// never share a cluster, since their backbones cannot be superposed
// atom-for-atom.
func (conf Config) Assign(members []Member) []Cluster {
	var clusters []Cluster
	for _, m := range members {
		joined := false
		for i := range clusters {
			rep := clusters[i].Representative
			if len(rep.Backbone) != len(m.Backbone) {
				continue
			}
			if rmsd.RMSD(m.Backbone, rep.Backbone) <= conf.Cutoff {
				clusters[i].Members = append(clusters[i].Members, m.Name)
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, Cluster{
				Representative: m,
				Members:        []string{m.Name},
			})
		}
	}
	return clusters
}

// WriteSummary writes a tab-delimited cluster summary: one row per
// cluster with its size and representative, members separated by commas.
func WriteSummary(w io.Writer, clusters []Cluster) error {
	if _, err := fmt.Fprintln(w, "cluster_id\tsize\trepresentative\tmembers"); err != nil {
		return err
	}
	for i, c := range clusters {
		members := ""
		for j, name := range c.Members {
			if j > 0 {
				members += ","
			}
			members += name
		}
		_, err := fmt.Fprintf(w, "%d\t%d\t%s\t%s\n",
			i+1, len(c.Members), c.Representative.Name, members)
		if err != nil {
			return err
		}
	}
	return nil
}
