// Package sliced implements a sliced approximation of the squared
// 2-Wasserstein distance between two empirical point-cloud distributions.
//
// The estimator projects both sample batches onto random unit-norm
// directions, sorts the projected values per direction, and averages the
// squared differences of the sorted marginals. This is the exact
// one-dimensional optimal-transport coupling applied along each slice.
package sliced

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/killian31/SGDSlicedWasserstein/internal/config"
)

// DefaultProjections is the number of random projection directions used
// when none is configured.
const DefaultProjections = 100

// Direction columns with a norm below this threshold are redrawn before
// normalization.
const minDirectionNorm = 1e-12

var (
	ErrEmptyBatch         = errors.New("sliced: batch must contain at least one sample")
	ErrDimensionMismatch  = errors.New("sliced: batches have different feature dimensions")
	ErrBatchSizeMismatch  = errors.New("sliced: batches have different sample counts")
	ErrInvalidProjections = errors.New("sliced: number of projections must be at least 1")
)

// NormalSource draws standard-normal variates for the projection
// directions. *rand.Rand from math/rand/v2 satisfies it.
type NormalSource interface {
	NormFloat64() float64
}

// globalSource falls back to the shared math/rand/v2 generator, which is
// safe for concurrent use.
type globalSource struct{}

func (globalSource) NormFloat64() float64 { return rand.NormFloat64() }

// Loss holds the configuration for the estimator. It is stateless per
// call: every Compute draws a fresh projection matrix and touches no
// shared state beyond its randomness source.
type Loss struct {
	numProjections int
	src            NormalSource
}

type Option func(*Loss)

// WithProjections sets the number of random projection directions.
func WithProjections(n int) Option {
	return func(l *Loss) {
		l.numProjections = n
	}
}

// WithSource sets the randomness source used to draw projection
// directions, making the estimator deterministic for a fixed source.
func WithSource(src NormalSource) Option {
	return func(l *Loss) {
		l.src = src
	}
}

// NewLoss returns a Loss with DefaultProjections directions and the
// shared generator, overridable through options.
func NewLoss(opts ...Option) *Loss {
	l := &Loss{
		numProjections: DefaultProjections,
		src:            globalSource{},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// NewLossFromEnv builds a Loss configured from the environment
// (SW_NUM_PROJECTIONS), with options applied on top.
func NewLossFromEnv(ctx context.Context, opts ...Option) (*Loss, error) {
	cfg, err := config.LoadEstimatorEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("load estimator config: %w", err)
	}

	return NewLoss(append([]Option{WithProjections(cfg.NumProjections)}, opts...)...), nil
}

// Compute estimates the sliced squared 2-Wasserstein distance between the
// empirical distributions represented by batches a and b. Both batches
// must be non-empty, share their feature dimension, and hold the same
// number of samples; sorted marginals only align index-for-index when the
// sample counts are equal, so a mismatch is rejected rather than silently
// misaligned.
func (l *Loss) Compute(a, b mat.Matrix) (float64, error) {
	if l.numProjections < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidProjections, l.numProjections)
	}

	n, da := a.Dims()
	m, db := b.Dims()
	if n == 0 || m == 0 {
		return 0, ErrEmptyBatch
	}
	if da != db {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, da, db)
	}
	if n != m {
		return 0, fmt.Errorf("%w: %d vs %d", ErrBatchSizeMismatch, n, m)
	}

	theta := projectionMatrix(da, l.numProjections, l.src)

	var projA, projB mat.Dense
	projA.Mul(a, theta)
	projB.Mul(b, theta)

	colA := make([]float64, n)
	colB := make([]float64, n)

	var sum float64
	for j := range l.numProjections {
		mat.Col(colA, j, &projA)
		mat.Col(colB, j, &projB)

		slices.Sort(colA)
		slices.Sort(colB)

		for i := range colA {
			diff := colA[i] - colB[i]
			sum += diff * diff
		}
	}

	return sum / float64(n*l.numProjections), nil
}

// Distance is a one-shot convenience around NewLoss(opts...).Compute.
func Distance(a, b mat.Matrix, opts ...Option) (float64, error) {
	return NewLoss(opts...).Compute(a, b)
}

// projectionMatrix draws a (dims, num) matrix whose columns are unit-norm
// standard-normal directions.
func projectionMatrix(dims, num int, src NormalSource) *mat.Dense {
	theta := mat.NewDense(dims, num, nil)
	col := make([]float64, dims)

	for j := range num {
		for {
			for i := range col {
				col[i] = src.NormFloat64()
			}

			norm := floats.Norm(col, 2)
			if norm > minDirectionNorm {
				floats.Scale(1/norm, col)
				break
			}
		}
		theta.SetCol(j, col)
	}

	return theta
}
