package lp

import (
	"strconv"
	"strings"

	"github.com/crillab/gopherlp/expr"
	"github.com/crillab/gopherlp/rational"
	"github.com/crillab/gopherlp/simplex"
)

// Check decides whether the conjunction of all assertions in all active
// scopes is satisfiable. On Satisfiable the second return value holds the
// canonical string form of each query expression's model value, in the
// caller's order; it is meaningless otherwise.
//
// Check never mutates the assertion stack: all tableau bounds asserted while
// solving are rolled back before returning, so repeated calls without
// intervening AddAssertion/Push/Pop return identical results. Anything the
// solver cannot decide yields Unknown rather than an error.
func (s *Solver) Check(vars ...expr.LinExpr) (Result, []string) {
	for _, e := range vars {
		for _, term := range e.Terms() {
			if _, ok := s.vars[term.Var]; !ok {
				return Unknown, nil
			}
		}
	}
	var pending []expr.Formula
	nbAsserts := 0
	for _, sc := range s.scopes {
		for _, f := range sc.assertions {
			pending = append(pending, expr.NNF(f))
			nbAsserts++
		}
	}
	s.log.Debug().Int("scopes", len(s.scopes)).Int("assertions", nbAsserts).Msg("check")

	s.t.Reset()
	marker := s.t.Snapshot()
	res := s.solve(pending, map[string]bool{}, nil)
	s.t.Restore(marker)
	s.log.Debug().Str("result", res.String()).Msg("check done")

	if res != Satisfiable {
		return res, nil
	}
	values := make([]string, len(vars))
	for i, e := range vars {
		values[i] = e.Eval(s.model).String()
	}
	return Satisfiable, values
}

// solve decides the conjunction of the pending formulas under the current
// tableau bounds and partial boolean assignment. Disjunctions are resolved
// by explicit case splitting; boolean/atom equivalences whose variable has a
// truth value compile into a direct pair (pinned 0/1 column plus the atom or
// its negation), the rest are deferred and finally split on the boolean
// variable alone. It is the caller's responsibility to snapshot and restore
// the tableau around the call.
func (s *Solver) solve(pending []expr.Formula, bools map[string]bool, deferred []expr.Equivalence) Result {
	var splits []expr.Disj
	queue := pending
	for i := 0; i < len(queue); i++ {
		switch f := queue[i].(type) {
		case expr.Conj:
			queue = append(queue, f...)
		case expr.Atom:
			if !s.assertAtom(f) {
				return Unsatisfiable
			}
		case expr.BoolRef:
			if !s.assumeBool(f.Name, !f.Negated, bools) {
				return Unsatisfiable
			}
		case expr.Disj:
			splits = append(splits, f)
		case expr.Equivalence:
			w, okW := f.A.(expr.BoolRef)
			a, okA := f.B.(expr.Atom)
			if !okW || !okA {
				return Unknown
			}
			if val, ok := bools[w.Name]; ok {
				queue = append(queue, atomHolding(a, val))
			} else {
				deferred = append(deferred, f)
			}
		default:
			return Unknown
		}
	}
	if s.t.Check() == simplex.Infeasible {
		return Unsatisfiable
	}
	if len(splits) > 0 {
		rest := make([]expr.Formula, 0, len(splits)-1+len(deferred))
		for _, d := range splits[1:] {
			rest = append(rest, d)
		}
		return s.branch(splits[0], rest, bools, deferred)
	}
	if len(deferred) > 0 {
		e := deferred[0]
		w := e.A.(expr.BoolRef)
		a := e.B.(expr.Atom)
		alts := make(expr.Disj, 0, 2)
		for _, val := range []bool{true, false} {
			lit := expr.BoolRef{Name: w.Name, Negated: !val}
			alts = append(alts, expr.And(lit, atomHolding(a, val)))
		}
		return s.branch(alts, nil, bools, deferred[1:])
	}
	// Purely conjunctive leaf, feasible: shape the model deterministically
	// and capture it before the caller rolls the bounds back.
	s.t.Maximize(s.objective())
	s.capture()
	return Satisfiable
}

// branch tries each alternative of a disjunction under a tableau snapshot,
// short-circuiting on the first satisfiable one.
func (s *Solver) branch(alts expr.Disj, rest []expr.Formula, bools map[string]bool, deferred []expr.Equivalence) Result {
	unknown := false
	for _, alt := range alts {
		marker := s.t.Snapshot()
		sub := make(map[string]bool, len(bools))
		for k, v := range bools {
			sub[k] = v
		}
		pending := append([]expr.Formula{alt}, rest...)
		res := s.solve(pending, sub, append([]expr.Equivalence{}, deferred...))
		s.t.Restore(marker)
		switch res {
		case Satisfiable:
			return Satisfiable
		case Unknown:
			unknown = true
		}
	}
	if unknown {
		return Unknown
	}
	return Unsatisfiable
}

// atomHolding returns the formula stating that atom a has truth value val.
func atomHolding(a expr.Atom, val bool) expr.Formula {
	if val {
		return a
	}
	return expr.NNF(expr.Not(a))
}

// assumeBool records a truth value for a boolean variable and pins its 0/1
// column accordingly. It reports false on a contradiction, either with an
// earlier assumption or with arithmetic bounds on the column.
func (s *Solver) assumeBool(name string, val bool, bools map[string]bool) bool {
	if cur, ok := bools[name]; ok {
		return cur == val
	}
	bools[name] = val
	col := s.vars[name].pos
	if val {
		return s.t.SetLower(col, rational.One(), false)
	}
	return s.t.SetUpper(col, rational.Zero(), false)
}

// assertAtom tightens the tableau bounds encoding the given atom. Constant
// atoms are decided on the spot. It reports false when the atom immediately
// contradicts the current bounds.
func (s *Solver) assertAtom(a expr.Atom) bool {
	cols := s.columns(a.Left)
	k := a.Left.Constant()
	if len(cols) == 0 {
		return constHolds(k, a.Rel)
	}
	slack := s.slackFor(cols)
	b := k.Neg() // the atom is "linear part REL -constant"
	switch a.Rel {
	case expr.LE:
		return s.t.SetUpper(slack, b, false)
	case expr.LT:
		return s.t.SetUpper(slack, b, true)
	case expr.GE:
		return s.t.SetLower(slack, b, false)
	case expr.GT:
		return s.t.SetLower(slack, b, true)
	case expr.EQ:
		return s.t.SetLower(slack, b, false) && s.t.SetUpper(slack, b, false)
	default:
		panic("invalid relation")
	}
}

func constHolds(k rational.Rational, rel expr.Rel) bool {
	sign := k.Sign()
	switch rel {
	case expr.LE:
		return sign <= 0
	case expr.LT:
		return sign < 0
	case expr.EQ:
		return sign == 0
	case expr.GE:
		return sign >= 0
	case expr.GT:
		return sign > 0
	default:
		panic("invalid relation")
	}
}

// columns translates the variable terms of a linear expression into tableau
// columns, substituting pos - neg for split signed variables.
func (s *Solver) columns(e expr.LinExpr) map[int]rational.Rational {
	cols := map[int]rational.Rational{}
	for _, t := range e.Terms() {
		vi := s.vars[t.Var]
		addCol(cols, vi.pos, t.Coef)
		if vi.neg >= 0 {
			addCol(cols, vi.neg, t.Coef.Neg())
		}
	}
	return cols
}

func addCol(m map[int]rational.Rational, v int, c rational.Rational) {
	sum := m[v].Add(c)
	if sum.IsZero() {
		delete(m, v)
	} else {
		m[v] = sum
	}
}

// slackFor returns the slack column for the given linear part, creating its
// tableau row on first use. Rows are cached by canonical form and never
// removed: re-asserting the same linear part after a Pop reuses the row, so
// the tableau grows with the number of distinct atoms, not with the number
// of Check calls.
func (s *Solver) slackFor(cols map[int]rational.Rational) int {
	var sb strings.Builder
	for v := 0; v < s.t.NumVars(); v++ {
		if c, ok := cols[v]; ok {
			sb.WriteString(strconv.Itoa(v))
			sb.WriteByte(':')
			sb.WriteString(c.String())
			sb.WriteByte(';')
		}
	}
	key := sb.String()
	if slack, ok := s.rowCache[key]; ok {
		return slack
	}
	slack := s.t.AddRow(cols)
	s.rowCache[key] = slack
	return slack
}

// objective builds the model-shaping objective: the sum of all arithmetic
// user variables in declaration order, signed ones contributing pos - neg.
func (s *Solver) objective() map[int]rational.Rational {
	obj := map[int]rational.Rational{}
	for _, name := range s.order {
		vi := s.vars[name]
		if vi.sort == Boolean {
			continue
		}
		obj[vi.pos] = rational.One()
		if vi.neg >= 0 {
			obj[vi.neg] = rational.FromInt(-1)
		}
	}
	return obj
}

// capture extracts the concrete model of the current feasible assignment,
// instantiating the symbolic infinitesimal and recombining split variables.
func (s *Solver) capture() {
	eps := s.t.Epsilon()
	model := make(map[string]rational.Rational, len(s.vars))
	for name, vi := range s.vars {
		val := s.t.ConcreteValue(vi.pos, eps)
		if vi.neg >= 0 {
			val = val.Sub(s.t.ConcreteValue(vi.neg, eps))
		}
		model[name] = val
	}
	s.model = model
}
