package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrSingular reports a design matrix whose normal equations cannot be
// inverted (perfect or near-perfect collinearity among predictors).
var ErrSingular = errors.New("design matrix is singular")

// ErrTooFewRows reports a fit with non-positive residual degrees of
// freedom.
var ErrTooFewRows = errors.New("not enough rows for the number of predictors")

// confidenceLevel is the two-sided level for coefficient intervals.
const confidenceLevel = 0.95

// OLSModel holds an ordinary least squares fit with inference. Index 0 of
// every per-coefficient slice is the intercept; predictors follow in the
// order given to FitOLS.
type OLSModel struct {
	Coefficients []float64
	StdErrors    []float64
	TValues      []float64
	PValues      []float64
	CILower      []float64
	CIUpper      []float64

	R2         float64
	AdjustedR2 float64
	FStatistic float64
	FPValue    float64

	N int // observations
	P int // predictors, excluding the intercept
}

// FitOLS fits y on the given predictor columns plus an intercept, solving
// the normal equations. The fit is closed-form and fully deterministic.
// Returns ErrSingular for a collinear design and ErrTooFewRows when the
// residual degrees of freedom are not positive.
func FitOLS(predictors [][]float64, y []float64) (*OLSModel, error) {
	n := len(y)
	if n == 0 || len(predictors) != n {
		return nil, ErrTooFewRows
	}
	p := len(predictors[0])
	dof := n - p - 1
	if dof <= 0 {
		return nil, ErrTooFewRows
	}

	x := designMatrix(predictors)
	yVec := mat.NewVecDense(n, append([]float64(nil), y...))

	// (X'X)^-1 is needed for the coefficient covariance anyway, so solve
	// the normal equations directly and let inversion detect singularity.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, ErrSingular
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), yVec)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	model := &OLSModel{
		Coefficients: make([]float64, p+1),
		StdErrors:    make([]float64, p+1),
		TValues:      make([]float64, p+1),
		PValues:      make([]float64, p+1),
		CILower:      make([]float64, p+1),
		CIUpper:      make([]float64, p+1),
		N:            n,
		P:            p,
	}
	for j := 0; j <= p; j++ {
		model.Coefficients[j] = beta.AtVec(j)
	}

	sse, sst := sumsOfSquares(y, &fitted)
	if sst > 0 {
		model.R2 = 1 - sse/sst
	}
	model.AdjustedR2 = 1 - (1-model.R2)*float64(n-1)/float64(dof)

	model.fillInference(&xtxInv, sse, dof)
	model.fillFTest(dof)

	return model, nil
}

// designMatrix builds the n x (p+1) matrix with a leading intercept column.
func designMatrix(predictors [][]float64) *mat.Dense {
	n := len(predictors)
	p := len(predictors[0])
	x := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			x.Set(i, j+1, predictors[i][j])
		}
	}
	return x
}

// sumsOfSquares returns the residual and total sums of squares.
func sumsOfSquares(y []float64, fitted *mat.VecDense) (sse, sst float64) {
	mean := Mean(y)
	for i := range y {
		resid := y[i] - fitted.AtVec(i)
		dev := y[i] - mean
		sse += resid * resid
		sst += dev * dev
	}
	return sse, sst
}

// fillInference computes standard errors, t statistics, two-sided p-values,
// and confidence intervals from the coefficient covariance.
func (m *OLSModel) fillInference(xtxInv *mat.Dense, sse float64, dof int) {
	sigma2 := sse / float64(dof)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	tCrit := tDist.Quantile(1 - (1-confidenceLevel)/2)

	for j := range m.Coefficients {
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		m.StdErrors[j] = se
		if se > 0 {
			t := m.Coefficients[j] / se
			m.TValues[j] = t
			m.PValues[j] = 2 * tDist.Survival(math.Abs(t))
		} else {
			// Perfect fit: the coefficient is exact.
			m.TValues[j] = 0
			m.PValues[j] = 0
		}
		m.CILower[j] = m.Coefficients[j] - tCrit*se
		m.CIUpper[j] = m.Coefficients[j] + tCrit*se
	}
}

// fillFTest computes the overall F statistic and its p-value.
func (m *OLSModel) fillFTest(dof int) {
	if m.P == 0 {
		return
	}
	denom := (1 - m.R2) / float64(dof)
	if denom < 1e-12 {
		denom = 1e-12 // perfect fit; keep the statistic finite
	}
	m.FStatistic = (m.R2 / float64(m.P)) / denom

	fDist := distuv.F{D1: float64(m.P), D2: float64(dof)}
	m.FPValue = fDist.Survival(m.FStatistic)
}

// Predict applies the fitted coefficients to predictor rows.
func (m *OLSModel) Predict(predictors [][]float64) []float64 {
	out := make([]float64, len(predictors))
	for i, row := range predictors {
		v := m.Coefficients[0]
		for j, x := range row {
			v += m.Coefficients[j+1] * x
		}
		out[i] = v
	}
	return out
}

// SimpleRegression fits y = intercept + slope*x and reports the two-sided
// p-value of the slope. For fewer than three points the p-value is 1.
type SimpleRegression struct {
	Slope     float64
	Intercept float64
	R2        float64
	PValue    float64
}

// FitSimple performs a simple linear regression of ys on xs.
func FitSimple(xs, ys []float64) SimpleRegression {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return SimpleRegression{PValue: 1}
	}

	meanX := Mean(xs)
	meanY := Mean(ys)

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return SimpleRegression{Intercept: meanY, PValue: 1}
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var sse, sst float64
	for i := range xs {
		fitted := intercept + slope*xs[i]
		resid := ys[i] - fitted
		dev := ys[i] - meanY
		sse += resid * resid
		sst += dev * dev
	}

	reg := SimpleRegression{Slope: slope, Intercept: intercept, PValue: 1}
	if sst > 0 {
		reg.R2 = 1 - sse/sst
	}

	dof := n - 2
	if dof <= 0 {
		return reg
	}
	se := math.Sqrt((sse / float64(dof)) / sxx)
	if se == 0 {
		// Exact linear fit with nonzero slope.
		if slope != 0 {
			reg.PValue = 0
		}
		return reg
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	reg.PValue = 2 * tDist.Survival(math.Abs(slope/se))
	return reg
}
