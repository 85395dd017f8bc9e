package clex

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/xivh/djlib/utils"
)

// LassoCV fits an L1-penalized linear model with no intercept, selecting
// the penalty by k-fold cross validation over a geometric path. Cluster
// expansion energies are defined against a fixed reference, so the fit is
// forced through the origin in correlation space.
type LassoCV struct {
	NumAlphas     int     // penalty path length
	AlphaRatio    float64 // smallest/largest penalty along the path
	Folds         int
	MaxIterations int
	Tolerance     float64
	Seed          uint64 // fold shuffling
}

func NewLassoCV() (l *LassoCV) {
	l = &LassoCV{
		NumAlphas:     100,
		AlphaRatio:    1.e-3,
		Folds:         5,
		MaxIterations: 50000,
		Tolerance:     1.e-6,
		Seed:          0,
	}
	return
}

// Fit returns the coefficient vector for corr (n x k) against energy
// (length n). Rows with missing energies must be filtered before calling;
// n below k fails with an InsufficientDataError instead of returning an
// underdetermined solution.
func (l *LassoCV) Fit(corr utils.Matrix, energy utils.Vector) (eci utils.Vector, err error) {
	var (
		n, k = corr.Dims()
	)
	if energy.Len() != n {
		return eci, fmt.Errorf("row misalignment: %d correlation rows, %d energies", n, energy.Len())
	}
	if n < k {
		return eci, &InsufficientDataError{Rows: n, Coefficients: k}
	}
	folds := l.Folds
	if folds > n {
		folds = n
	}
	if folds < 2 {
		return eci, fmt.Errorf("cross validation needs at least 2 folds, have %d rows", n)
	}
	alphas := l.alphaPath(corr, energy)

	// k-fold assignment from a seeded shuffle so a fixed seed reproduces
	// the same split
	rng := rand.New(rand.NewSource(l.Seed))
	perm := rng.Perm(n)
	foldOf := make([]int, n)
	for pos, ind := range perm {
		foldOf[ind] = pos % folds
	}

	// Mean validation MSE per penalty. The path runs from the smallest
	// penalty upward and ties keep the earlier (smaller) penalty, so an
	// indifferent validation signal falls back to the least-biased fit.
	bestAlpha, bestMSE := alphas[0], math.Inf(1)
	for _, alpha := range alphas {
		mse, nTest := 0., 0
		for f := 0; f < folds; f++ {
			var trainI, testI utils.Index
			for i := 0; i < n; i++ {
				if foldOf[i] == f {
					testI = append(testI, i)
				} else {
					trainI = append(trainI, i)
				}
			}
			w := coordinateDescent(corr.SliceRows(trainI), energy.SliceIndex(trainI),
				alpha, make([]float64, k), l.MaxIterations, l.Tolerance)
			for _, ind := range testI {
				pred := 0.
				for j := 0; j < k; j++ {
					pred += corr.At(ind, j) * w[j]
				}
				d := energy.AtVec(ind) - pred
				mse += d * d
				nTest++
			}
		}
		mse /= float64(nTest)
		if mse < bestMSE {
			bestMSE, bestAlpha = mse, alpha
		}
	}

	// Refit on all rows, warm-started down the path to the chosen penalty
	w := make([]float64, k)
	for i := len(alphas) - 1; i >= 0; i-- {
		w = coordinateDescent(corr, energy, alphas[i], w, l.MaxIterations, l.Tolerance)
		if alphas[i] == bestAlpha {
			break
		}
	}
	eci = utils.NewVector(k, w)
	if eci.HasNaNOrInf() {
		return eci, &NumericalInstabilityError{Step: -1, Quantity: "lasso coefficients"}
	}
	return
}

// alphaPath returns NumAlphas penalties in ascending order, from
// alphaMax*AlphaRatio up to alphaMax, where alphaMax is the smallest
// penalty that zeroes every coefficient.
func (l *LassoCV) alphaPath(corr utils.Matrix, energy utils.Vector) (alphas []float64) {
	var (
		n, k     = corr.Dims()
		alphaMax = 0.
	)
	for j := 0; j < k; j++ {
		dot := 0.
		for i := 0; i < n; i++ {
			dot += corr.At(i, j) * energy.AtVec(i)
		}
		if a := math.Abs(dot) / float64(n); a > alphaMax {
			alphaMax = a
		}
	}
	if alphaMax == 0 {
		alphaMax = 1.e-12 // all-zero targets still need a valid path
	}
	alphas = make([]float64, l.NumAlphas)
	if l.NumAlphas == 1 {
		alphas[0] = alphaMax
		return
	}
	logMin, logMax := math.Log(alphaMax*l.AlphaRatio), math.Log(alphaMax)
	for i := 0; i < l.NumAlphas; i++ {
		frac := float64(i) / float64(l.NumAlphas-1)
		alphas[i] = math.Exp(logMin + frac*(logMax-logMin))
	}
	return
}

// coordinateDescent minimizes (1/2n)||y - Xw||^2 + alpha*||w||_1 by
// cyclic soft-thresholding updates, warm-started from w0.
func coordinateDescent(X utils.Matrix, y utils.Vector, alpha float64, w0 []float64, maxIter int, tol float64) (w []float64) {
	var (
		n, k = X.Dims()
		r    = make([]float64, n) // residual y - Xw
		z    = make([]float64, k) // column scale (1/n)*x_j . x_j
	)
	w = make([]float64, k)
	copy(w, w0)
	for i := 0; i < n; i++ {
		r[i] = y.AtVec(i)
		for j := 0; j < k; j++ {
			r[i] -= X.At(i, j) * w[j]
		}
	}
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			z[j] += X.At(i, j) * X.At(i, j)
		}
		z[j] /= float64(n)
	}
	for iter := 0; iter < maxIter; iter++ {
		maxChange := 0.
		for j := 0; j < k; j++ {
			if z[j] == 0 {
				w[j] = 0
				continue
			}
			rho := z[j] * w[j]
			for i := 0; i < n; i++ {
				rho += X.At(i, j) * r[i] / float64(n)
			}
			wNew := softThreshold(rho, alpha) / z[j]
			if wNew != w[j] {
				for i := 0; i < n; i++ {
					r[i] -= X.At(i, j) * (wNew - w[j])
				}
				if change := math.Abs(wNew - w[j]); change > maxChange {
					maxChange = change
				}
				w[j] = wNew
			}
		}
		if maxChange < tol {
			break
		}
	}
	return
}

func softThreshold(x, threshold float64) float64 {
	switch {
	case x > threshold:
		return x - threshold
	case x < -threshold:
		return x + threshold
	default:
		return 0
	}
}
