/*
Package lp gives access to a decision procedure for quantifier-free linear
rational arithmetic combined with boolean connectives.

A Solver holds a set of named variables and a stack of assertion scopes.
Variables are declared with a sort: Signed rationals, Unsigned (non-negative)
rationals, or Boolean. Assertions are formulas built with package expr, or
parsed from text with expr.Parse. Check decides the conjunction of every
assertion in every active scope:

	s := lp.NewSolver()
	s.NewVariable("x", lp.Unsigned)
	s.NewVariable("y", lp.Unsigned)
	s.AddAssertion(expr.Le(expr.Add(expr.Var("x"), expr.Var("y")), expr.Int(20)))
	res, model := s.Check(expr.Var("x"), expr.Var("y"))

On Satisfiable, Check also returns the model value of each query expression,
as a canonical rational string. The model rule is deterministic: for a fixed
assertion stack, Check always produces the same answer and the same values.

Push and Pop manage the scope stack. Popping a scope removes its assertions
and nothing else, so a check after Pop reproduces exactly the result obtained
before the matching Push:

	s.Push()
	s.AddAssertion(expr.Ge(expr.Var("x"), expr.Int(7)))
	res, _ = s.Check()   // may be Unsatisfiable
	s.Pop()
	res, model = s.Check(expr.Var("x"), expr.Var("y")) // as before the Push

Boolean structure is handled by case splitting: disjunctions and reasoning
by cases over boolean variables branch over a shared Simplex tableau, using
snapshots to undo each branch. Formulas outside the supported fragment make
Check return Unknown, never a wrong verdict.
*/
package lp
