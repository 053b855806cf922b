package modeling

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MixedFit is a linear mixed model with a single random intercept per
// group, fit by profiled maximum likelihood. Fixed effects are estimated
// by GLS at the optimal variance ratio; random intercepts are BLUPs.
type MixedFit struct {
	Coefficients []float64          `json:"coefficients"` // intercept first
	ResidualVar  float64            `json:"residual_var"`
	InterceptVar float64            `json:"intercept_var"`
	GroupEffects map[string]float64 `json:"group_effects"`
	LogLik       float64            `json:"log_lik"`
	Groups       int                `json:"groups"`
	N            int                `json:"n"`
}

// FitRandomIntercept fits y = X*beta + b_group + e with b ~ N(0, s_b^2)
// and e ~ N(0, s_e^2). predictors[i] is the covariate row for
// observation i (intercept added internally); groups[i] names the
// grouping unit (e.g. subject).
//
// The likelihood is profiled down to the ratio lambda = s_b^2/s_e^2 and
// maximized by golden-section search, using the Woodbury form of the
// per-group inverse so no n x n matrix is ever built.
func FitRandomIntercept(response []float64, predictors [][]float64, groups []string) (MixedFit, error) {
	n := len(response)
	if n == 0 || n != len(predictors) || n != len(groups) {
		return MixedFit{}, fmt.Errorf("mixed fit requires matching response, predictor and group lengths")
	}
	p := len(predictors[0]) + 1
	if n <= p+1 {
		return MixedFit{}, fmt.Errorf("mixed fit requires more observations (%d) than parameters (%d)", n, p)
	}

	// Partition observation indices by group
	byGroup := map[string][]int{}
	var order []string
	for i, g := range groups {
		if _, seen := byGroup[g]; !seen {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], i)
	}
	if len(order) < 2 {
		return MixedFit{}, fmt.Errorf("mixed fit requires at least 2 groups, got %d", len(order))
	}

	x := mat.NewDense(n, p, nil)
	for i, row := range predictors {
		if len(row) != p-1 {
			return MixedFit{}, fmt.Errorf("predictor row %d has %d columns, want %d", i, len(row), p-1)
		}
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}

	// Profiled negative log likelihood over log(lambda)
	objective := func(logLambda float64) float64 {
		ll, _, _, err := profileLogLik(response, x, byGroup, order, math.Exp(logLambda))
		if err != nil {
			return math.Inf(1)
		}
		return -ll
	}

	logLambda := goldenSection(objective, -12, 8, 1e-6)
	lambda := math.Exp(logLambda)

	ll, beta, residVar, err := profileLogLik(response, x, byGroup, order, lambda)
	if err != nil {
		return MixedFit{}, err
	}

	// BLUP shrinkage of per-group mean residuals
	effects := make(map[string]float64, len(order))
	for _, g := range order {
		idx := byGroup[g]
		var sum float64
		for _, i := range idx {
			pred := 0.0
			for j := 0; j < p; j++ {
				pred += x.At(i, j) * beta[j]
			}
			sum += response[i] - pred
		}
		ni := float64(len(idx))
		effects[g] = lambda * ni / (1 + lambda*ni) * (sum / ni)
	}

	return MixedFit{
		Coefficients: beta,
		ResidualVar:  residVar,
		InterceptVar: lambda * residVar,
		GroupEffects: effects,
		LogLik:       ll,
		Groups:       len(order),
		N:            n,
	}, nil
}

// profileLogLik computes the ML log likelihood at a fixed variance ratio,
// with beta and the residual variance profiled out. For the random
// intercept model V_i = I + lambda*J, so
// V_i^{-1} = I - (lambda/(1+lambda*n_i)) * J and |V_i| = 1 + lambda*n_i.
func profileLogLik(y []float64, x *mat.Dense, byGroup map[string][]int, order []string, lambda float64) (ll float64, beta []float64, residVar float64, err error) {
	n, p := x.Dims()

	a := mat.NewSymDense(p, nil)
	c := mat.NewVecDense(p, nil)
	var logDet float64

	var xi mat.Dense
	for _, g := range order {
		idx := byGroup[g]
		ni := len(idx)
		shrink := lambda / (1 + lambda*float64(ni))
		logDet += math.Log(1 + lambda*float64(ni))

		xi.Reset()
		xi.ReuseAs(ni, p)
		yi := make([]float64, ni)
		colSums := make([]float64, p)
		var ySum float64
		for r, i := range idx {
			yi[r] = y[i]
			ySum += y[i]
			for j := 0; j < p; j++ {
				v := x.At(i, j)
				xi.Set(r, j, v)
				colSums[j] += v
			}
		}

		// A += Xi' Vi^-1 Xi = Xi'Xi - shrink * colSums colSums'
		// c += Xi' Vi^-1 yi = Xi'yi - shrink * ySum * colSums
		for j := 0; j < p; j++ {
			for k := j; k < p; k++ {
				var dot float64
				for r := 0; r < ni; r++ {
					dot += xi.At(r, j) * xi.At(r, k)
				}
				a.SetSym(j, k, a.At(j, k)+dot-shrink*colSums[j]*colSums[k])
			}
			var dot float64
			for r := 0; r < ni; r++ {
				dot += xi.At(r, j) * yi[r]
			}
			c.SetVec(j, c.AtVec(j)+dot-shrink*ySum*colSums[j])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return 0, nil, 0, fmt.Errorf("GLS normal equations are singular")
	}
	betaVec := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(betaVec, c); err != nil {
		return 0, nil, 0, fmt.Errorf("GLS solve failed: %w", err)
	}

	beta = make([]float64, p)
	for j := 0; j < p; j++ {
		beta[j] = betaVec.AtVec(j)
	}

	// Weighted residual sum of squares under Vi^-1
	var rss float64
	for _, g := range order {
		idx := byGroup[g]
		ni := len(idx)
		shrink := lambda / (1 + lambda*float64(ni))
		var resSum float64
		residuals := make([]float64, ni)
		for r, i := range idx {
			pred := 0.0
			for j := 0; j < p; j++ {
				pred += x.At(i, j) * beta[j]
			}
			residuals[r] = y[i] - pred
			resSum += residuals[r]
		}
		for _, res := range residuals {
			rss += res * res
		}
		rss -= shrink * resSum * resSum
	}

	residVar = rss / float64(n)
	if residVar <= 0 {
		return 0, nil, 0, fmt.Errorf("degenerate residual variance")
	}
	ll = -0.5*float64(n)*(math.Log(2*math.Pi*residVar)+1) - 0.5*logDet
	return ll, beta, residVar, nil
}

// goldenSection minimizes a unimodal function on [lo, hi].
func goldenSection(f func(float64) float64, lo, hi, tol float64) float64 {
	phi := (math.Sqrt(5) - 1) / 2
	a, b := lo, hi
	c := b - phi*(b-a)
	d := a + phi*(b-a)
	fc, fd := f(c), f(d)
	for b-a > tol {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - phi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + phi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}
