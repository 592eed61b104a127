package lp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crillab/gopherlp/expr"
	"github.com/crillab/gopherlp/rational"
)

func declare(t *testing.T, s *Solver, sort Sort, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := s.NewVariable(name, sort)
		require.NoError(t, err)
	}
}

func assert(t *testing.T, s *Solver, f expr.Formula) {
	t.Helper()
	require.NoError(t, s.AddAssertion(f))
}

// feasible checks satisfiability and the model values of the given
// variables, then re-evaluates every active assertion under the full model.
func feasible(t *testing.T, s *Solver, names []string, values []string) {
	t.Helper()
	query := make([]expr.LinExpr, len(names))
	for i, name := range names {
		query[i] = expr.Var(name)
	}
	res, model := s.Check(query...)
	require.Equal(t, Satisfiable, res)
	require.Equal(t, values, model)

	bools := map[string]bool{}
	for name, vi := range s.vars {
		if vi.sort == Boolean {
			bools[name] = !s.model[name].IsZero()
		}
	}
	for _, sc := range s.scopes {
		for _, f := range sc.assertions {
			require.True(t, f.Eval(s.model, bools), "model violates assertion %v", f)
		}
	}
}

func infeasible(t *testing.T, s *Solver) {
	t.Helper()
	res, _ := s.Check()
	require.Equal(t, Unsatisfiable, res)
}

func TestBasic(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	assert(t, s, expr.Le(expr.Times(2, expr.Var("x")), expr.Int(10)))
	feasible(t, s, []string{"x"}, []string{"5"})
}

func TestNotLinearIndependent(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	assert(t, s, expr.And(
		expr.Le(expr.Times(2, expr.Var("x")), expr.Int(10)),
		expr.Le(expr.Times(4, expr.Var("x")), expr.Int(20)),
	))
	feasible(t, s, []string{"x"}, []string{"5"})
}

func TestTwoVars(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Le(expr.Var("y"), expr.Int(3)))
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(10)))
	assert(t, s, expr.Ge(expr.Int(4), expr.Add(expr.Var("x"), expr.Var("y"))))
	feasible(t, s, []string{"x", "y"}, []string{"4", "0"})
}

func TestFactors(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Le(expr.Times(2, expr.Var("y")), expr.Int(3)))
	assert(t, s, expr.Le(expr.Times(16, expr.Var("x")), expr.Int(10)))
	assert(t, s, expr.Ge(expr.Int(4), expr.Add(expr.Var("x"), expr.Var("y"))))
	feasible(t, s, []string{"x", "y"}, []string{"5/8", "3/2"})
}

func TestLowerBound(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Ge(expr.Var("y"), expr.Int(1)))
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(10)))
	assert(t, s, expr.Le(expr.Add(expr.Times(2, expr.Var("x")), expr.Var("y")), expr.Int(2)))
	feasible(t, s, []string{"x", "y"}, []string{"0", "2"})
}

func TestInfeasible(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	assert(t, s, expr.And(
		expr.Le(expr.Var("x"), expr.Int(3)),
		expr.Ge(expr.Var("x"), expr.Int(5)),
	))
	infeasible(t, s)
}

func TestUnbounded(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	assert(t, s, expr.Ge(expr.Var("x"), expr.Int(2)))
	feasible(t, s, []string{"x"}, []string{"2"})
}

func TestUnboundedTwo(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Ge(expr.Add(expr.Var("x"), expr.Var("y")), expr.Int(2)))
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(10)))
	feasible(t, s, []string{"x", "y"}, []string{"10", "0"})
}

func TestEqual(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Eq(expr.Var("x"), expr.Add(expr.Var("y"), expr.Int(10))))
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(20)))
	feasible(t, s, []string{"x", "y"}, []string{"20", "10"})
}

func TestPushPop(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Le(expr.Add(expr.Var("x"), expr.Var("y")), expr.Int(20)))
	feasible(t, s, []string{"x", "y"}, []string{"20", "0"})
	s.Push()
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(5)))
	assert(t, s, expr.Le(expr.Var("y"), expr.Int(5)))
	feasible(t, s, []string{"x", "y"}, []string{"5", "5"})
	s.Push()
	assert(t, s, expr.Ge(expr.Var("x"), expr.Int(7)))
	infeasible(t, s)
	require.NoError(t, s.Pop())
	feasible(t, s, []string{"x", "y"}, []string{"5", "5"})
	require.NoError(t, s.Pop())
	feasible(t, s, []string{"x", "y"}, []string{"20", "0"})
}

func TestLessThan(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Eq(expr.Var("x"), expr.Add(expr.Var("y"), expr.Int(1))))
	s.Push()
	assert(t, s, expr.Lt(expr.Var("y"), expr.Var("x")))
	feasible(t, s, []string{"x", "y"}, []string{"1", "0"})
	require.NoError(t, s.Pop())
	s.Push()
	assert(t, s, expr.Gt(expr.Var("y"), expr.Var("x")))
	infeasible(t, s)
	require.NoError(t, s.Pop())
}

func TestEqualConstant(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Lt(expr.Var("x"), expr.Var("y")))
	assert(t, s, expr.Eq(expr.Var("y"), expr.Int(5)))
	feasible(t, s, []string{"x", "y"}, []string{"4", "5"})
}

func TestStrictInterval(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	assert(t, s, expr.Gt(expr.Var("x"), expr.Int(4)))
	assert(t, s, expr.Lt(expr.Var("x"), expr.Int(5)))
	feasible(t, s, []string{"x"}, []string{"9/2"})
}

func TestChainedLessThan(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y", "z")
	assert(t, s, expr.And(
		expr.Lt(expr.Var("x"), expr.Var("y")),
		expr.Lt(expr.Var("y"), expr.Var("z")),
	))

	s.Push()
	assert(t, s, expr.Eq(expr.Var("z"), expr.Int(0)))
	infeasible(t, s)
	require.NoError(t, s.Pop())

	// 0 <= x < y < 1 is satisfiable over the rationals.
	s.Push()
	assert(t, s, expr.Eq(expr.Var("z"), expr.Int(1)))
	feasible(t, s, []string{"x", "y", "z"}, []string{"0", "1/2", "1"})
	require.NoError(t, s.Pop())

	s.Push()
	assert(t, s, expr.Eq(expr.Var("z"), expr.Int(2)))
	feasible(t, s, []string{"x", "y", "z"}, []string{"0", "1", "2"})
	require.NoError(t, s.Pop())
}

func TestSplittable(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y", "z", "w")
	assert(t, s, expr.Lt(expr.Var("x"), expr.Var("y")))
	assert(t, s, expr.Lt(expr.Var("x"), expr.Sub(expr.Var("y"), expr.Int(2))))
	assert(t, s, expr.Eq(expr.Add(expr.Var("z"), expr.Var("w")), expr.Int(28)))

	s.Push()
	assert(t, s, expr.Ge(expr.Var("z"), expr.Int(30)))
	infeasible(t, s)
	require.NoError(t, s.Pop())

	assert(t, s, expr.Ge(expr.Var("z"), expr.Int(2)))
	feasible(t, s, []string{"x", "y", "z", "w"}, []string{"0", "3", "28", "0"})
	s.Push()
	assert(t, s, expr.Ge(expr.Var("z"), expr.Int(4)))
	feasible(t, s, []string{"x", "y", "z", "w"}, []string{"0", "3", "28", "0"})

	s.Push()
	assert(t, s, expr.Lt(expr.Var("z"), expr.Int(4)))
	infeasible(t, s)
	require.NoError(t, s.Pop())

	// z >= 4 is still active.
	assert(t, s, expr.Ge(expr.Var("z"), expr.Int(3)))
	feasible(t, s, []string{"x", "y", "z", "w"}, []string{"0", "3", "28", "0"})
}

func TestDisjunction(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(10)))
	assert(t, s, expr.Or(
		expr.Ge(expr.Var("x"), expr.Int(20)),
		expr.Ge(expr.Var("x"), expr.Int(8)),
	))
	feasible(t, s, []string{"x"}, []string{"10"})

	s.Push()
	assert(t, s, expr.Or(
		expr.Ge(expr.Var("x"), expr.Int(20)),
		expr.Ge(expr.Var("x"), expr.Int(30)),
	))
	infeasible(t, s)
	require.NoError(t, s.Pop())
}

func TestNegatedEquality(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(0)))
	assert(t, s, expr.Not(expr.Eq(expr.Var("x"), expr.Int(0))))
	infeasible(t, s)
}

func TestBooleanCaseSplit(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(5)))
	assert(t, s, expr.Le(expr.Var("y"), expr.Int(2)))
	s.Push()
	assert(t, s, expr.And(
		expr.Lt(expr.Var("x"), expr.Var("y")),
		expr.Gt(expr.Var("x"), expr.Var("y")),
	))
	infeasible(t, s)
	require.NoError(t, s.Pop())
	declare(t, s, Boolean, "w")
	assert(t, s, expr.Equiv(expr.Bool("w"), expr.Lt(expr.Var("x"), expr.Var("y"))))
	assert(t, s, expr.Or(expr.Bool("w"), expr.Gt(expr.Var("x"), expr.Var("y"))))
	feasible(t, s, []string{"x", "y", "w"}, []string{"1", "2", "1"})
}

func TestEquivalence(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	declare(t, s, Boolean, "w")
	assert(t, s, expr.And(
		expr.Equiv(expr.Bool("w"), expr.Lt(expr.Var("x"), expr.Var("y"))),
		expr.Or(expr.Bool("w"), expr.Gt(expr.Var("x"), expr.Var("y"))),
	))
	feasible(t, s, []string{"x", "y", "w"}, []string{"0", "1", "1"})
}

func TestNegatedBooleanEquivalence(t *testing.T) {
	// not(w) with w <-> (x < y) forces x >= y.
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	declare(t, s, Boolean, "w")
	assert(t, s, expr.Equiv(expr.Bool("w"), expr.Lt(expr.Var("x"), expr.Var("y"))))
	assert(t, s, expr.Not(expr.Bool("w")))
	assert(t, s, expr.Ge(expr.Var("y"), expr.Int(3)))
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(3)))
	res, model := s.Check(expr.Var("x"), expr.Var("y"))
	require.Equal(t, Satisfiable, res)
	x, err := rational.Parse(model[0])
	require.NoError(t, err)
	y, err := rational.Parse(model[1])
	require.NoError(t, err)
	require.True(t, x.Cmp(y) >= 0, "expected x >= y, got x=%v y=%v", x, y)
	require.True(t, s.model["w"].IsZero())
}

func TestSignedVariables(t *testing.T) {
	s := NewSolver()
	declare(t, s, Signed, "x")
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(-5)))
	feasible(t, s, []string{"x"}, []string{"-5"})
}

func TestSignedUnsignedMix(t *testing.T) {
	s := NewSolver()
	declare(t, s, Signed, "x")
	declare(t, s, Unsigned, "y")
	assert(t, s, expr.Eq(expr.Add(expr.Var("x"), expr.Var("y")), expr.Int(0)))
	assert(t, s, expr.Ge(expr.Var("y"), expr.Int(3)))
	feasible(t, s, []string{"x", "y"}, []string{"-3", "3"})
}

func TestQueryExpressions(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Eq(expr.Var("x"), expr.Add(expr.Var("y"), expr.Int(10))))
	assert(t, s, expr.Le(expr.Var("x"), expr.Int(20)))
	res, model := s.Check(
		expr.Add(expr.Var("x"), expr.Var("y")),
		expr.Times(2, expr.Var("x")),
		expr.Var("x"),
		expr.Var("x"),
	)
	require.Equal(t, Satisfiable, res)
	require.Equal(t, []string{"30", "40", "20", "20"}, model)
}

func TestUnknownQueryVariable(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	res, model := s.Check(expr.Var("nope"))
	require.Equal(t, Unknown, res)
	require.Nil(t, model)
}

func TestVariableErrors(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x")
	// Redeclaring with the same sort is accepted.
	_, err := s.NewVariable("x", Unsigned)
	require.NoError(t, err)
	_, err = s.NewVariable("x", Boolean)
	require.ErrorIs(t, err, ErrDuplicateVariable)

	err = s.AddAssertion(expr.Le(expr.Var("ghost"), expr.Int(1)))
	require.ErrorIs(t, err, ErrUnknownVariable)
}

func TestEmptyStack(t *testing.T) {
	s := NewSolver()
	require.ErrorIs(t, s.Pop(), ErrEmptyStack)
	s.Push()
	require.NoError(t, s.Pop())
	require.ErrorIs(t, s.Pop(), ErrEmptyStack)
}

func TestIdempotence(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	assert(t, s, expr.Le(expr.Add(expr.Var("x"), expr.Var("y")), expr.Int(20)))
	for i := 0; i < 3; i++ {
		feasible(t, s, []string{"x", "y"}, []string{"20", "0"})
	}
	assert(t, s, expr.Ge(expr.Var("x"), expr.Int(30)))
	infeasible(t, s)
	infeasible(t, s)
}

func TestParsedAssertions(t *testing.T) {
	s := NewSolver()
	declare(t, s, Unsigned, "x", "y")
	declare(t, s, Boolean, "w")
	for _, input := range []string{
		"x <= 5",
		"y <= 2",
		"w = x < y",
		"w | x > y",
	} {
		f, err := expr.Parse(strings.NewReader(input), s.IsBool)
		require.NoError(t, err)
		assert(t, s, f)
	}
	feasible(t, s, []string{"x", "y", "w"}, []string{"1", "2", "1"})
}
