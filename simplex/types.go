package simplex

// Describes basic types and constants that are used in the tableau

import (
	"github.com/crillab/gopherlp/rational"
)

// Status is the feasibility status of the tableau under its current bounds.
type Status byte

const (
	// Feasible means an assignment satisfying all bounds was found.
	Feasible = Status(iota)
	// Infeasible means no assignment can satisfy the current bounds.
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	default:
		panic("invalid status")
	}
}

// A value is a rational extended with a symbolic infinitesimal part:
// it denotes r + d*δ for an arbitrarily small positive δ. Strict bounds are
// represented exactly this way (x < c becomes x <= c - δ), so no concrete
// perturbation ever enters the solving path. δ is only instantiated with a
// concrete rational when a model is extracted.
type value struct {
	r rational.Rational // standard part
	d rational.Rational // coefficient of δ
}

// boundValue builds the value of a bound: the bare rational for a non-strict
// bound, shifted by δ towards the feasible side for a strict one.
// dir is +1 for a lower bound and -1 for an upper bound.
func boundValue(r rational.Rational, strict bool, dir int64) value {
	if !strict {
		return value{r: r}
	}
	return value{r: r, d: rational.FromInt(dir)}
}

func (v value) add(o value) value {
	return value{r: v.r.Add(o.r), d: v.d.Add(o.d)}
}

func (v value) sub(o value) value {
	return value{r: v.r.Sub(o.r), d: v.d.Sub(o.d)}
}

func (v value) mulRat(c rational.Rational) value {
	return value{r: v.r.Mul(c), d: v.d.Mul(c)}
}

func (v value) divRat(c rational.Rational) value {
	inv, err := c.Inv()
	if err != nil {
		panic("simplex: invariant violation: division by a zero coefficient")
	}
	return v.mulRat(inv)
}

// cmp orders values lexicographically: the infinitesimal part only matters
// between equal standard parts.
func (v value) cmp(o value) int {
	if c := v.r.Cmp(o.r); c != 0 {
		return c
	}
	return v.d.Cmp(o.d)
}

// concrete substitutes the concrete infinitesimal eps into v.
func (v value) concrete(eps rational.Rational) rational.Rational {
	return v.r.Add(v.d.Mul(eps))
}

// A bound is an optional limit on a variable. ok is false for an absent
// (unbounded) side.
type bound struct {
	val value
	ok  bool
}
