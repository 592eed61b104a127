// Package rational implements exact arbitrary-precision rational arithmetic.
// It is the only numeric type used on the solving path: no floating point
// is involved anywhere, so results such as 5/8 are exact.
package rational

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrArithmetic is returned for malformed rationals and divisions by zero.
var ErrArithmetic = errors.New("arithmetic error")

// A Rational is a signed fraction. It is always reduced and its denominator
// is always positive. The zero value is the rational 0.
// Rationals are immutable: all operations return a new value.
type Rational struct {
	num *big.Int
	den *big.Int
}

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// New returns the reduced rational num/den.
// It fails with ErrArithmetic if den is 0.
func New(num, den int64) (Rational, error) {
	if den == 0 {
		return Rational{}, fmt.Errorf("%w: zero denominator", ErrArithmetic)
	}
	return reduce(big.NewInt(num), big.NewInt(den)), nil
}

// FromInt returns the rational v/1.
func FromInt(v int64) Rational {
	return Rational{num: big.NewInt(v), den: big.NewInt(1)}
}

// Zero returns the rational 0.
func Zero() Rational { return FromInt(0) }

// One returns the rational 1.
func One() Rational { return FromInt(1) }

// Parse reads a rational from its canonical form: an optionally signed
// integer, or "num/den". It fails with ErrArithmetic on malformed input
// or a zero denominator.
func Parse(s string) (Rational, error) {
	numStr, denStr, slash := strings.Cut(s, "/")
	num, ok := new(big.Int).SetString(strings.TrimSpace(numStr), 10)
	if !ok {
		return Rational{}, fmt.Errorf("%w: invalid rational %q", ErrArithmetic, s)
	}
	if !slash {
		return Rational{num: num, den: big.NewInt(1)}, nil
	}
	den, ok := new(big.Int).SetString(strings.TrimSpace(denStr), 10)
	if !ok {
		return Rational{}, fmt.Errorf("%w: invalid rational %q", ErrArithmetic, s)
	}
	if den.Sign() == 0 {
		return Rational{}, fmt.Errorf("%w: zero denominator in %q", ErrArithmetic, s)
	}
	return reduce(num, den), nil
}

// reduce normalizes num/den: gcd division and a positive denominator.
// It takes ownership of both arguments.
func reduce(num, den *big.Int) Rational {
	if num.Sign() == 0 {
		return Rational{num: big.NewInt(0), den: big.NewInt(1)}
	}
	if den.Sign() < 0 {
		num = new(big.Int).Neg(num)
		den = new(big.Int).Neg(den)
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(num), den)
	if g.Cmp(bigOne) != 0 {
		num = new(big.Int).Quo(num, g)
		den = new(big.Int).Quo(den, g)
	}
	return Rational{num: num, den: den}
}

func (r Rational) components() (*big.Int, *big.Int) {
	if r.num == nil {
		return bigZero, bigOne
	}
	return r.num, r.den
}

// Add returns r + o.
func (r Rational) Add(o Rational) Rational {
	rn, rd := r.components()
	on, od := o.components()
	num := new(big.Int).Add(new(big.Int).Mul(rn, od), new(big.Int).Mul(on, rd))
	return reduce(num, new(big.Int).Mul(rd, od))
}

// Sub returns r - o.
func (r Rational) Sub(o Rational) Rational {
	return r.Add(o.Neg())
}

// Mul returns r * o.
func (r Rational) Mul(o Rational) Rational {
	rn, rd := r.components()
	on, od := o.components()
	return reduce(new(big.Int).Mul(rn, on), new(big.Int).Mul(rd, od))
}

// Div returns r / o. It fails with ErrArithmetic if o is 0.
func (r Rational) Div(o Rational) (Rational, error) {
	if o.IsZero() {
		return Rational{}, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	on, od := o.components()
	rn, rd := r.components()
	return reduce(new(big.Int).Mul(rn, od), new(big.Int).Mul(rd, on)), nil
}

// Neg returns -r.
func (r Rational) Neg() Rational {
	rn, rd := r.components()
	return Rational{num: new(big.Int).Neg(rn), den: new(big.Int).Set(rd)}
}

// Inv returns 1/r. It fails with ErrArithmetic if r is 0.
func (r Rational) Inv() (Rational, error) {
	return One().Div(r)
}

// Cmp compares r and o, returning -1, 0 or 1.
func (r Rational) Cmp(o Rational) int {
	rn, rd := r.components()
	on, od := o.components()
	return new(big.Int).Mul(rn, od).Cmp(new(big.Int).Mul(on, rd))
}

// Sign returns -1, 0 or 1 depending on the sign of r.
func (r Rational) Sign() int {
	rn, _ := r.components()
	return rn.Sign()
}

// IsZero reports whether r is 0.
func (r Rational) IsZero() bool { return r.Sign() == 0 }

// Equal reports whether r and o denote the same rational.
func (r Rational) Equal(o Rational) bool { return r.Cmp(o) == 0 }

// Min returns the smaller of r and o.
func Min(r, o Rational) Rational {
	if r.Cmp(o) <= 0 {
		return r
	}
	return o
}

// String returns the canonical form: "num/den", or just "num" when the
// denominator is 1.
func (r Rational) String() string {
	rn, rd := r.components()
	if rd.Cmp(bigOne) == 0 {
		return rn.String()
	}
	return rn.String() + "/" + rd.String()
}
