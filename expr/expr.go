package expr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/crillab/gopherlp/rational"
)

// ErrNonLinear is returned when an operation would leave the linear
// fragment, e.g. the product of two non-constant expressions.
var ErrNonLinear = errors.New("nonlinear expression")

// A LinExpr is a linear combination of named variables plus a constant.
// Its canonical form carries no zero coefficient.
// LinExprs are immutable: all operations return a new value.
type LinExpr struct {
	coefs map[string]rational.Rational
	cons  rational.Rational
}

// A Term is one variable/coefficient pair of a LinExpr.
type Term struct {
	Var  string
	Coef rational.Rational
}

// Var returns the expression consisting of the single variable name.
func Var(name string) LinExpr {
	return LinExpr{coefs: map[string]rational.Rational{name: rational.One()}}
}

// Int returns the constant expression v.
func Int(v int64) LinExpr {
	return LinExpr{cons: rational.FromInt(v)}
}

// Rat returns the constant expression r.
func Rat(r rational.Rational) LinExpr {
	return LinExpr{cons: r}
}

// Add returns the sum of the given expressions.
func Add(es ...LinExpr) LinExpr {
	res := LinExpr{coefs: map[string]rational.Rational{}}
	for _, e := range es {
		res.cons = res.cons.Add(e.cons)
		for v, c := range e.coefs {
			sum := res.coefs[v].Add(c)
			if sum.IsZero() {
				delete(res.coefs, v)
			} else {
				res.coefs[v] = sum
			}
		}
	}
	return res
}

// Sub returns a - b.
func Sub(a, b LinExpr) LinExpr {
	return Add(a, Neg(b))
}

// Neg returns -e.
func Neg(e LinExpr) LinExpr {
	return Scale(rational.FromInt(-1), e)
}

// Scale returns k * e for a rational constant k.
func Scale(k rational.Rational, e LinExpr) LinExpr {
	res := LinExpr{coefs: map[string]rational.Rational{}, cons: k.Mul(e.cons)}
	if k.IsZero() {
		return LinExpr{cons: rational.Zero()}
	}
	for v, c := range e.coefs {
		res.coefs[v] = k.Mul(c)
	}
	return res
}

// Times returns k * e for an integer constant k.
func Times(k int64, e LinExpr) LinExpr {
	return Scale(rational.FromInt(k), e)
}

// Mul returns a * b. At least one operand must be constant:
// the product of two non-constant expressions fails with ErrNonLinear.
func Mul(a, b LinExpr) (LinExpr, error) {
	if a.IsConstant() {
		return Scale(a.cons, b), nil
	}
	if b.IsConstant() {
		return Scale(b.cons, a), nil
	}
	return LinExpr{}, fmt.Errorf("%w: product %v * %v", ErrNonLinear, a, b)
}

// Div returns a / b. b must be a non-zero constant: a non-constant divisor
// fails with ErrNonLinear, a zero one with rational.ErrArithmetic.
func Div(a, b LinExpr) (LinExpr, error) {
	if !b.IsConstant() {
		return LinExpr{}, fmt.Errorf("%w: quotient %v / %v", ErrNonLinear, a, b)
	}
	inv, err := b.cons.Inv()
	if err != nil {
		return LinExpr{}, err
	}
	return Scale(inv, a), nil
}

// IsConstant reports whether e references no variable.
func (e LinExpr) IsConstant() bool { return len(e.coefs) == 0 }

// Constant returns the constant part of e.
func (e LinExpr) Constant() rational.Rational { return e.cons }

// Terms returns the variable terms of e, sorted by variable name.
func (e LinExpr) Terms() []Term {
	terms := make([]Term, 0, len(e.coefs))
	for v, c := range e.coefs {
		terms = append(terms, Term{Var: v, Coef: c})
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Var < terms[j].Var })
	return terms
}

// Eval computes the value of e under the given variable bindings.
// It panics if a referenced variable has no binding.
func (e LinExpr) Eval(bindings map[string]rational.Rational) rational.Rational {
	res := e.cons
	for v, c := range e.coefs {
		b, ok := bindings[v]
		if !ok {
			panic(fmt.Errorf("binding missing for variable %s", v))
		}
		res = res.Add(c.Mul(b))
	}
	return res
}

func (e LinExpr) String() string {
	if e.IsConstant() {
		return e.cons.String()
	}
	parts := make([]string, 0, len(e.coefs)+1)
	for _, t := range e.Terms() {
		if t.Coef.Equal(rational.One()) {
			parts = append(parts, t.Var)
		} else {
			parts = append(parts, t.Coef.String()+"*"+t.Var)
		}
	}
	if !e.cons.IsZero() {
		parts = append(parts, e.cons.String())
	}
	return strings.Join(parts, " + ")
}

// A Rel is the relation of an atom with zero.
type Rel byte

const (
	LE = Rel(iota) // less than or equal
	LT             // strictly less than
	EQ             // equal
	GE             // greater than or equal
	GT             // strictly greater than
)

func (r Rel) String() string {
	switch r {
	case LE:
		return "<="
	case LT:
		return "<"
	case EQ:
		return "=="
	case GE:
		return ">="
	case GT:
		return ">"
	default:
		panic("invalid relation")
	}
}

// A Formula is a boolean combination of linear atoms and boolean variables.
type Formula interface {
	String() string
	// Eval computes the truth value of the formula under the given exact
	// bindings for arithmetic and boolean variables.
	Eval(arith map[string]rational.Rational, bools map[string]bool) bool
}

// An Atom is a single comparison, normalized to "Left Rel 0".
type Atom struct {
	Left LinExpr
	Rel  Rel
}

func (a Atom) String() string {
	return a.Left.String() + " " + a.Rel.String() + " 0"
}

func (a Atom) Eval(arith map[string]rational.Rational, bools map[string]bool) bool {
	sign := a.Left.Eval(arith).Sign()
	switch a.Rel {
	case LE:
		return sign <= 0
	case LT:
		return sign < 0
	case EQ:
		return sign == 0
	case GE:
		return sign >= 0
	case GT:
		return sign > 0
	default:
		panic("invalid relation")
	}
}

// Le returns the atom a <= b.
func Le(a, b LinExpr) Formula { return Atom{Left: Sub(a, b), Rel: LE} }

// Lt returns the atom a < b.
func Lt(a, b LinExpr) Formula { return Atom{Left: Sub(a, b), Rel: LT} }

// Eq returns the atom a == b.
func Eq(a, b LinExpr) Formula { return Atom{Left: Sub(a, b), Rel: EQ} }

// Ge returns the atom a >= b.
func Ge(a, b LinExpr) Formula { return Atom{Left: Sub(a, b), Rel: GE} }

// Gt returns the atom a > b.
func Gt(a, b LinExpr) Formula { return Atom{Left: Sub(a, b), Rel: GT} }

// A BoolRef is a possibly-negated reference to a boolean variable.
type BoolRef struct {
	Name    string
	Negated bool
}

// Bool returns a reference to the boolean variable name.
func Bool(name string) Formula { return BoolRef{Name: name} }

func (b BoolRef) String() string {
	if b.Negated {
		return "not(" + b.Name + ")"
	}
	return b.Name
}

func (b BoolRef) Eval(arith map[string]rational.Rational, bools map[string]bool) bool {
	v, ok := bools[b.Name]
	if !ok {
		panic(fmt.Errorf("binding missing for boolean variable %s", b.Name))
	}
	return v != b.Negated
}

// A Conj is a conjunction of subformulas.
type Conj []Formula

// And returns the conjunction of the given subformulas.
func And(subs ...Formula) Formula { return Conj(subs) }

func (c Conj) String() string { return joinForms("and", c) }

func (c Conj) Eval(arith map[string]rational.Rational, bools map[string]bool) bool {
	for _, s := range c {
		if !s.Eval(arith, bools) {
			return false
		}
	}
	return true
}

// A Disj is a disjunction of subformulas.
type Disj []Formula

// Or returns the disjunction of the given subformulas.
func Or(subs ...Formula) Formula { return Disj(subs) }

func (d Disj) String() string { return joinForms("or", d) }

func (d Disj) Eval(arith map[string]rational.Rational, bools map[string]bool) bool {
	for _, s := range d {
		if s.Eval(arith, bools) {
			return true
		}
	}
	return false
}

// A Negation negates its subformula.
type Negation struct {
	F Formula
}

// Not returns the negation of f.
func Not(f Formula) Formula { return Negation{F: f} }

func (n Negation) String() string { return "not(" + n.F.String() + ")" }

func (n Negation) Eval(arith map[string]rational.Rational, bools map[string]bool) bool {
	return !n.F.Eval(arith, bools)
}

// An Equivalence states that two subformulas have the same truth value.
type Equivalence struct {
	A, B Formula
}

// Equiv returns the equivalence of f1 and f2.
func Equiv(f1, f2 Formula) Formula { return Equivalence{A: f1, B: f2} }

// Implies returns the implication of f2 by f1.
func Implies(f1, f2 Formula) Formula { return Disj{Negation{F: f1}, f2} }

func (e Equivalence) String() string {
	return "eq(" + e.A.String() + ", " + e.B.String() + ")"
}

func (e Equivalence) Eval(arith map[string]rational.Rational, bools map[string]bool) bool {
	return e.A.Eval(arith, bools) == e.B.Eval(arith, bools)
}

func joinForms(op string, fs []Formula) string {
	strs := make([]string, len(fs))
	for i, f := range fs {
		strs[i] = f.String()
	}
	return op + "(" + strings.Join(strs, ", ") + ")"
}
