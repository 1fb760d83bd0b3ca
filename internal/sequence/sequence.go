// Package sequence computes the arithmetic and geometric sequences the day 3
// and day 4 lessons are about. The lesson pages chart these next to the
// student's own code so they can check their loop against the closed form.
package sequence

import (
	"fmt"
	"math"

	"github.com/sakif/mathcode/internal/apperror"
)

// MaxTerms bounds how many terms one request may ask for.
const MaxTerms = 1000

// Kinds understood by New.
const (
	KindArithmetic = "arithmetic"
	KindGeometric  = "geometric"
)

// Sequence is a rule n → a_n over the positive integers.
type Sequence interface {
	Kind() string
	// Term is the n-th term, 1-based.
	Term(n int) float64
	Terms(n int) ([]float64, error)
	Sum(n int) (float64, error)
}

// New returns the sequence of the given kind. step is the common difference
// for arithmetic sequences and the common ratio for geometric ones.
func New(kind string, a1, step float64) (Sequence, error) {
	switch kind {
	case KindArithmetic:
		return Arithmetic{A1: a1, D: step}, nil
	case KindGeometric:
		return Geometric{A1: a1, R: step}, nil
	default:
		return nil, apperror.NotFound("sequence kind", kind)
	}
}

// Arithmetic is a_n = a1 + (n-1)d.
type Arithmetic struct {
	A1 float64 `json:"a1"`
	D  float64 `json:"d"`
}

func (a Arithmetic) Kind() string { return KindArithmetic }

func (a Arithmetic) Term(n int) float64 {
	return a.A1 + float64(n-1)*a.D
}

func (a Arithmetic) Terms(n int) ([]float64, error) {
	return terms(a, n)
}

// Sum is n(2a1 + (n-1)d)/2.
func (a Arithmetic) Sum(n int) (float64, error) {
	if err := checkN(n); err != nil {
		return 0, err
	}
	return finite(float64(n) * (2*a.A1 + float64(n-1)*a.D) / 2)
}

// Geometric is a_n = a1·r^(n-1).
type Geometric struct {
	A1 float64 `json:"a1"`
	R  float64 `json:"r"`
}

func (g Geometric) Kind() string { return KindGeometric }

func (g Geometric) Term(n int) float64 {
	return g.A1 * math.Pow(g.R, float64(n-1))
}

func (g Geometric) Terms(n int) ([]float64, error) {
	return terms(g, n)
}

// Sum is a1(r^n - 1)/(r - 1), or n·a1 when r is 1.
func (g Geometric) Sum(n int) (float64, error) {
	if err := checkN(n); err != nil {
		return 0, err
	}
	if g.R == 1 {
		return finite(g.A1 * float64(n))
	}
	return finite(g.A1 * (math.Pow(g.R, float64(n)) - 1) / (g.R - 1))
}

// FirstIndex returns the first 1-based index i ≤ limit whose term satisfies
// pred, or 0 when none does. It is the closed-form answer to the lessons'
// "which term first becomes negative / exceeds 1000" exercises.
func FirstIndex(s Sequence, limit int, pred func(float64) bool) int {
	limit = min(limit, MaxTerms)
	for i := 1; i <= limit; i++ {
		if pred(s.Term(i)) {
			return i
		}
	}
	return 0
}

func terms(s Sequence, n int) ([]float64, error) {
	if err := checkN(n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		v, err := finite(s.Term(i + 1))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func checkN(n int) error {
	if n < 1 || n > MaxTerms {
		return apperror.ValidationFailed("n", fmt.Sprintf("n must be between 1 and %d", MaxTerms))
	}
	return nil
}

// finite rejects values JSON cannot carry.
func finite(v float64) (float64, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, apperror.ValidationFailed("n", "sequence grows beyond representable numbers")
	}
	return v, nil
}
