/*
Package simplex implements a bounded-variable Simplex tableau over exact
rational arithmetic.

Every variable is a column with optional lower and upper bounds. A linear
constraint is encoded by introducing a slack column through AddRow and
asserting bounds on it: x + 2y <= 7 becomes s = x + 2y together with s <= 7.
Strict bounds are represented symbolically, using an infinitesimal offset
that only materializes into a concrete rational when a model is extracted.

The tableau is incremental. Columns and rows are never removed; retracting a
constraint simply relaxes bounds, and Snapshot/Restore checkpoints the bound
state so a caller can explore alternatives:

	t := simplex.New()
	x := t.AddVar()
	y := t.AddVar()
	s := t.AddRow(map[int]rational.Rational{x: rational.One(), y: rational.One()})
	t.SetUpper(s, rational.FromInt(7), false)
	m := t.Snapshot()
	t.SetLower(x, rational.FromInt(3), true)
	status := t.Check()
	t.Restore(m)

Check repairs bound violations by pivoting and reports Feasible or
Infeasible. Maximize then drives a feasible assignment to a boundary vertex
of the given objective. Both follow Bland's rule, always picking the lowest
eligible column, so the reached vertex is a deterministic function of the
asserted bounds and the whole procedure terminates.

This package knows nothing about formulas or variable names. The translation
from named variables and boolean structure lives in package lp.
*/
package simplex
