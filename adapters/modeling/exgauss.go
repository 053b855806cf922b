// Package modeling implements the subject-level statistical pipeline:
// ex-Gaussian reaction-time fits, error-rate logistic regression, ERP peak
// detection, random-intercept mixed models and percentile bootstrap of
// fitted coefficients.
package modeling

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// ExGaussianFit holds the parameters of an ex-Gaussian reaction-time
// distribution: a Gaussian (Mu, Sigma) convolved with an exponential
// tail (Tau).
type ExGaussianFit struct {
	Mu     float64 `json:"mu"`
	Sigma  float64 `json:"sigma"`
	Tau    float64 `json:"tau"`
	LogLik float64 `json:"log_lik"`
	N      int     `json:"n"`
}

// Mean of the fitted distribution (mu + tau).
func (f ExGaussianFit) Mean() float64 { return f.Mu + f.Tau }

// FitExGaussian fits the three parameters by maximum likelihood,
// started from moment estimates and refined with Nelder-Mead. Reaction
// times are expected in milliseconds; at least 8 observations are
// required for a stable fit.
func FitExGaussian(rt []float64) (ExGaussianFit, error) {
	if len(rt) < 8 {
		return ExGaussianFit{}, fmt.Errorf("ex-Gaussian fit requires at least 8 observations, got %d", len(rt))
	}

	mean, _ := stats.Mean(rt)
	sd, _ := stats.StandardDeviation(rt)
	if sd == 0 {
		return ExGaussianFit{}, fmt.Errorf("ex-Gaussian fit requires variance in the data")
	}
	skew := sampleSkewness(rt, mean, sd)

	// Moment start: tau from the skew, the rest from mean and variance
	tau0 := sd * 0.3
	if skew > 0 {
		tau0 = sd * math.Cbrt(skew/2)
	}
	if tau0 < sd*0.05 {
		tau0 = sd * 0.05
	}
	mu0 := mean - tau0
	sigSq := sd*sd - tau0*tau0
	sigma0 := sd * 0.3
	if sigSq > 0 {
		sigma0 = math.Sqrt(sigSq)
	}

	// Optimize over (mu, log sigma, log tau) to keep scales positive
	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			return -exGaussianLogLik(rt, theta[0], math.Exp(theta[1]), math.Exp(theta[2]))
		},
	}
	x0 := []float64{mu0, math.Log(sigma0), math.Log(tau0)}

	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return ExGaussianFit{}, fmt.Errorf("ex-Gaussian optimization failed: %w", err)
	}

	fit := ExGaussianFit{
		Mu:     result.X[0],
		Sigma:  math.Exp(result.X[1]),
		Tau:    math.Exp(result.X[2]),
		LogLik: -result.F,
		N:      len(rt),
	}
	return fit, nil
}

// exGaussianLogLik evaluates the ex-Gaussian log likelihood:
// f(x) = (1/tau) exp(sigma^2/(2 tau^2) - (x-mu)/tau) * Phi((x-mu)/sigma - sigma/tau)
func exGaussianLogLik(x []float64, mu, sigma, tau float64) float64 {
	if sigma <= 0 || tau <= 0 {
		return math.Inf(-1)
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	halfVarRatio := sigma * sigma / (2 * tau * tau)

	var ll float64
	for _, v := range x {
		z := (v-mu)/sigma - sigma/tau
		phi := normal.CDF(z)
		if phi <= 0 {
			return math.Inf(-1)
		}
		ll += -math.Log(tau) + halfVarRatio - (v-mu)/tau + math.Log(phi)
	}
	if math.IsNaN(ll) {
		return math.Inf(-1)
	}
	return ll
}

// sampleSkewness is the adjusted Fisher-Pearson coefficient.
func sampleSkewness(data []float64, mean, sd float64) float64 {
	if len(data) < 3 || sd == 0 {
		return 0
	}
	n := float64(len(data))
	var sum float64
	for _, v := range data {
		d := (v - mean) / sd
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}
