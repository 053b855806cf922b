package modeling

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LogisticFit holds the result of a binomial logistic regression, used
// for modeling per-trial error rates.
type LogisticFit struct {
	Coefficients []float64 `json:"coefficients"` // intercept first
	StdErrors    []float64 `json:"std_errors"`
	ZValues      []float64 `json:"z_values"`
	PValues      []float64 `json:"p_values"`
	Iterations   int       `json:"iterations"`
	Converged    bool      `json:"converged"`
}

const (
	irlsMaxIter = 50
	irlsTol     = 1e-8
)

// FitLogistic fits P(y=1|x) = sigmoid(b0 + x.b) by iteratively
// reweighted least squares. predictors[i] is the covariate row for
// observation i; an intercept column is added internally. outcomes must
// be 0 or 1.
func FitLogistic(predictors [][]float64, outcomes []int) (LogisticFit, error) {
	n := len(predictors)
	if n == 0 || n != len(outcomes) {
		return LogisticFit{}, fmt.Errorf("logistic fit requires matching predictor and outcome lengths, got %d and %d", n, len(outcomes))
	}
	p := len(predictors[0]) + 1

	if n <= p {
		return LogisticFit{}, fmt.Errorf("logistic fit requires more observations (%d) than parameters (%d)", n, p)
	}

	y := make([]float64, n)
	for i, v := range outcomes {
		if v != 0 && v != 1 {
			return LogisticFit{}, fmt.Errorf("outcome %d must be 0 or 1, got %d", i, v)
		}
		y[i] = float64(v)
	}

	x := mat.NewDense(n, p, nil)
	for i, row := range predictors {
		if len(row) != p-1 {
			return LogisticFit{}, fmt.Errorf("predictor row %d has %d columns, want %d", i, len(row), p-1)
		}
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}

	beta := mat.NewVecDense(p, nil)
	eta := mat.NewVecDense(n, nil)
	z := mat.NewVecDense(n, nil)
	wx := mat.NewDense(n, p, nil)
	var info mat.SymDense

	converged := false
	iterations := 0
	for iter := 0; iter < irlsMaxIter; iter++ {
		iterations = iter + 1
		eta.MulVec(x, beta)

		// Working response and weights; weights are clamped away from 0
		// so separated data degrades gracefully instead of blowing up.
		for i := 0; i < n; i++ {
			mu := sigmoid(eta.AtVec(i))
			w := mu * (1 - mu)
			if w < 1e-10 {
				w = 1e-10
			}
			z.SetVec(i, eta.AtVec(i)+(y[i]-mu)/w)
			sw := math.Sqrt(w)
			for j := 0; j < p; j++ {
				wx.Set(i, j, sw*x.At(i, j))
			}
			z.SetVec(i, z.AtVec(i)*sw)
		}

		// Solve the weighted least squares step: (WX)'(WX) beta = (WX)'(Wz)
		info.Reset()
		info.SymOuterK(1, wx.T())

		var chol mat.Cholesky
		if ok := chol.Factorize(&info); !ok {
			return LogisticFit{}, fmt.Errorf("information matrix is not positive definite")
		}

		rhs := mat.NewVecDense(p, nil)
		rhs.MulVec(wx.T(), z)

		next := mat.NewVecDense(p, nil)
		if err := chol.SolveVecTo(next, rhs); err != nil {
			return LogisticFit{}, fmt.Errorf("IRLS solve failed: %w", err)
		}

		var delta float64
		for j := 0; j < p; j++ {
			delta += math.Abs(next.AtVec(j) - beta.AtVec(j))
		}
		beta.CopyVec(next)
		if delta < irlsTol {
			converged = true
			break
		}
	}

	// Standard errors from the inverse observed information
	var cov mat.SymDense
	var chol mat.Cholesky
	if ok := chol.Factorize(&info); !ok {
		return LogisticFit{}, fmt.Errorf("information matrix is not positive definite")
	}
	if err := chol.InverseTo(&cov); err != nil {
		return LogisticFit{}, fmt.Errorf("covariance inversion failed: %w", err)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	fit := LogisticFit{
		Coefficients: make([]float64, p),
		StdErrors:    make([]float64, p),
		ZValues:      make([]float64, p),
		PValues:      make([]float64, p),
		Iterations:   iterations,
		Converged:    converged,
	}
	for j := 0; j < p; j++ {
		fit.Coefficients[j] = beta.AtVec(j)
		fit.StdErrors[j] = math.Sqrt(cov.At(j, j))
		if fit.StdErrors[j] > 0 {
			fit.ZValues[j] = fit.Coefficients[j] / fit.StdErrors[j]
			fit.PValues[j] = 2 * normal.Survival(math.Abs(fit.ZValues[j]))
		} else {
			fit.PValues[j] = 1
		}
	}
	return fit, nil
}

// Predict returns the fitted probability for one covariate row.
func (f LogisticFit) Predict(row []float64) float64 {
	eta := f.Coefficients[0]
	for j, v := range row {
		eta += f.Coefficients[j+1] * v
	}
	return sigmoid(eta)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
