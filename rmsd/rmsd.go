/*
Package rmsd implements the Kabsch algorithm for computing the minimum
RMSD between two equal-length sets of atom coordinates, as described here:
http://cnx.org/content/m11608/latest/
*/
package rmsd

import (
	"fmt"
	"math"

	matrix "github.com/skelterjohn/go.matrix"
)

// Coords is the position of a single atom.
type Coords struct {
	X, Y, Z float64
}

// RMSD superposes the first coordinate set onto the second with the
// optimal rigid-body rotation and returns the root-mean-square deviation
// of the superposition.
//
// A brief, high-level overview:
//
// Build the 3xN matrices X and Y containing, for the sets xs and ys
// respectively, the coordinates of each of the N atoms after centering
// them by subtracting the centroids.
//
// Compute the covariance matrix C = X(Y^T).
//
// Compute the SVD (Singular Value Decomposition) of C = USV^T.
//
// Compute d = sign(det(V(U^T))). A negative determinant indicates an
// improper rotation (a reflection), which must be corrected for.
//
// Compute the optimal rotation R as R = V([1 0 0] [0 1 0] [0 0 d])(U^T),
// and apply it to X before measuring the deviation from Y.
//
// Note that RMSD will panic if the lengths of xs and ys differ, or if the
// SVD computation fails.
func RMSD(xs, ys []Coords) float64 {
	if len(xs) != len(ys) {
		panic(fmt.Sprintf("Computing the RMSD of two structures requires "+
			"that they have equal length. But the lengths of the two "+
			"structures provided are %d and %d.", len(xs), len(ys)))
	}

	cols := len(xs)
	cx1, cy1, cz1 := centroid(xs)
	cx2, cy2, cz2 := centroid(ys)

	X := make([]float64, 3*cols)
	Y := make([]float64, 3*cols)
	for i := 0; i < cols; i++ {
		X[0*cols+i] = xs[i].X - cx1
		X[1*cols+i] = xs[i].Y - cy1
		X[2*cols+i] = xs[i].Z - cz1

		Y[0*cols+i] = ys[i].X - cx2
		Y[1*cols+i] = ys[i].Y - cy2
		Y[2*cols+i] = ys[i].Z - cz2
	}

	mX := matrix.MakeDenseMatrix(X, 3, cols)
	mY := matrix.MakeDenseMatrix(Y, 3, cols)

	// The covariance matrix C = X(Y^T).
	C := must(mX.TimesDense(mY.Transpose()))

	U, _, V, err := C.SVD()
	if err != nil {
		panic(fmt.Sprintf("Could not compute the SVD of the covariance "+
			"matrix: %s", err))
	}

	d := 1.0
	if must(V.TimesDense(U.Transpose())).Det() < 0 {
		d = -1.0
	}
	adjust := matrix.MakeDenseMatrix([]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, d,
	}, 3, 3)

	R := must(must(V.TimesDense(adjust)).TimesDense(U.Transpose()))

	// Apply the rotation R to X to get the best possible alignment with Y.
	best := must(R.TimesDense(mX))

	var rmsd, dist float64
	for r := 0; r < 3; r++ {
		for c := 0; c < cols; c++ {
			dist = best.Get(r, c) - mY.Get(r, c)
			rmsd += dist * dist
		}
	}
	return math.Sqrt(rmsd / float64(cols))
}

// centroid calculates the average position of a set of atoms.
func centroid(atoms []Coords) (float64, float64, float64) {
	var xs, ys, zs float64
	for _, atom := range atoms {
		xs += atom.X
		ys += atom.Y
		zs += atom.Z
	}
	n := float64(len(atoms))
	return xs / n, ys / n, zs / n
}

// must panics if the result of a dense matrix operation returns an error.
func must(A *matrix.DenseMatrix, err error) *matrix.DenseMatrix {
	if err != nil {
		panic(err)
	}
	return A
}
