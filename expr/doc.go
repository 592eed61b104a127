// Package expr offers facilities to build formulas over linear rational
// arithmetic combined with boolean connectives.
//
// The solver in package lp expects conjunctions of linear atoms. However,
// verification conditions naturally mix comparisons with disjunctions,
// negations and boolean variables. This package provides explicit constructor
// functions for linear expressions (Var, Int, Rat, Add, Sub, Times, Scale),
// comparison atoms (Le, Lt, Eq, Ge, Gt) and boolean structure (Bool, And, Or,
// Not, Implies, Equiv). The lp solver normalizes the resulting tree and
// decides it through case splitting over a Simplex tableau.
//
// For example, the constraint
//
// w <-> (x < y), and either w or x > y
//
// is defined with the following code:
//
// f := And(Equiv(Bool("w"), Lt(Var("x"), Var("y"))), Or(Bool("w"), Gt(Var("x"), Var("y"))))
//
// All coefficients and constants are exact rationals from package rational;
// no floating point is involved at any stage. Products or quotients of two
// non-constant expressions are outside the supported fragment and fail with
// ErrNonLinear at construction time.
package expr
