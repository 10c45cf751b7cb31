package dashboard

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sample is one labelled point of (performance percentage, lessons started).
type Sample struct {
	Performance float64
	Lessons     float64
	Pass        bool
}

// TrainingSet is the hand-labelled table the pass predictor is fitted on.
var TrainingSet = []Sample{
	{0, 0, false},
	{10, 1, false},
	{20, 1, false},
	{30, 2, false},
	{40, 3, true},
	{50, 2, true},
	{60, 4, true},
	{70, 5, true},
	{80, 5, true},
	{90, 6, true},
	{100, 7, true},
}

// Model is a two-feature logistic regression.
type Model struct {
	W    [2]float64
	Bias float64
}

// Probability returns P(pass) for the given features.
func (m Model) Probability(performance, lessons float64) float64 {
	return sigmoid(m.W[0]*performance + m.W[1]*lessons + m.Bias)
}

const (
	maxIterations = 100
	tolerance     = 1e-10
)

var errSingular = errors.New("dashboard: singular hessian")

// Fit trains an L2-regularised logistic regression with inverse
// regularisation strength c by Newton's method. The intercept is not
// penalised. The fit is deterministic for a given table.
func Fit(samples []Sample, c float64) (Model, error) {
	n := len(samples)
	x := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i, s := range samples {
		x.SetRow(i, []float64{s.Performance, s.Lessons, 1})
		if s.Pass {
			y.SetVec(i, 1)
		}
	}
	// the intercept column is left out of the penalty
	penalty := mat.NewDiagDense(3, []float64{1, 1, 0})

	theta := mat.NewVecDense(3, nil)
	residual := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(3, nil)
	step := mat.NewVecDense(3, nil)
	var chol mat.Cholesky

	for iter := 0; iter < maxIterations; iter++ {
		// gradient and hessian of 0.5*|w|^2 + c*sum(logloss)
		hess := mat.NewSymDense(3, nil)
		hess.CopySym(penalty)
		for i := 0; i < n; i++ {
			row := x.RowView(i)
			p := sigmoid(mat.Dot(row, theta))
			residual.SetVec(i, c*(p-y.AtVec(i)))
			hess.SymRankOne(hess, c*p*(1-p), row)
		}
		grad.MulVec(x.T(), residual)
		grad.AddScaledVec(grad, 1, mulDiag(penalty, theta))

		if err := newtonStep(&chol, hess, grad, step); err != nil {
			return modelFrom(theta), err
		}
		theta.SubVec(theta, step)

		if floats.Norm(step.RawVector().Data, 1) < tolerance {
			break
		}
	}
	return modelFrom(theta), nil
}

// newtonStep solves hess*step = grad.
func newtonStep(chol *mat.Cholesky, hess *mat.SymDense, grad, step *mat.VecDense) error {
	if ok := chol.Factorize(hess); !ok {
		return errSingular
	}
	if err := chol.SolveVecTo(step, grad); err != nil {
		return fmt.Errorf("%w: %w", errSingular, err)
	}
	return nil
}

func mulDiag(d *mat.DiagDense, v mat.Vector) *mat.VecDense {
	var out mat.VecDense
	out.MulVec(d, v)
	return &out
}

func modelFrom(theta *mat.VecDense) Model {
	return Model{W: [2]float64{theta.AtVec(0), theta.AtVec(1)}, Bias: theta.AtVec(2)}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
