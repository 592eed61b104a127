package simplex

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"

	"github.com/crillab/gopherlp/logger"
	"github.com/crillab/gopherlp/rational"
)

// Stats are statistics about the work done by the tableau.
// They are provided for information purpose only.
type Stats struct {
	NbPivots int // How many pivots were performed
	NbChecks int // How many feasibility checks were run
}

// A Tableau is a bounded-variable Simplex tableau. It is the main data
// structure of the solver: every variable (user variable or slack introduced
// by AddRow) is a column with an optional lower and upper bound, each basic
// variable owns a row expressing it as a linear combination of nonbasic
// columns, and a current assignment maps every column to a value.
//
// For a feasible tableau every basic variable's value lies within its bounds
// and every nonbasic variable sits at, or between, its bounds. Check repairs
// bound violations by pivoting; Maximize moves the feasible assignment to a
// deterministic boundary vertex. Both use Bland's rule (lowest eligible
// index) so results are reproducible and termination is guaranteed.
type Tableau struct {
	lower  []bound
	upper  []bound
	assign []value
	rows   []row
	rowOf  []int          // column -> owning row index, -1 when nonbasic
	basic  *bitset.BitSet // columns currently basic
	trail  []trailEntry   // bound changes, for Restore
	Stats  Stats
	log    zerolog.Logger
}

// A row expresses its owner, a basic column, as a linear combination of
// nonbasic columns. slack and def record the row as it was added (the slack
// column and its pristine user-column combination), which Reset uses to
// rebuild the canonical basis.
type row struct {
	owner int
	coef  map[int]rational.Rational
	slack int
	def   map[int]rational.Rational
}

type trailEntry struct {
	v     int
	upper bool
	old   bound
}

// A Marker is a checkpoint of the tableau's bound state, as returned by
// Snapshot and consumed by Restore.
type Marker struct {
	trail int
}

// New returns an empty tableau.
func New() *Tableau {
	return &Tableau{
		basic: bitset.New(0),
		log:   logger.Logger().With().Str("component", "simplex").Logger(),
	}
}

// NumVars returns the number of columns of the tableau.
func (t *Tableau) NumVars() int {
	return len(t.assign)
}

// AddVar adds a fresh unbounded nonbasic column and returns its index.
// Columns are never removed: a constraint is retracted by relaxing bounds,
// not by deleting rows.
func (t *Tableau) AddVar() int {
	v := len(t.assign)
	t.lower = append(t.lower, bound{})
	t.upper = append(t.upper, bound{})
	t.assign = append(t.assign, value{})
	t.rowOf = append(t.rowOf, -1)
	return v
}

// AddRow introduces a slack column s with the row s = sum of the given
// column/coefficient terms, and returns s. The slack starts unbounded, hence
// the constraint is inert until bounds are asserted on it. Basic columns in
// coefs are transparently expanded through their rows so that the new row
// only references nonbasic columns.
func (t *Tableau) AddRow(coefs map[int]rational.Rational) int {
	s := t.AddVar()
	rc := make(map[int]rational.Rational, len(coefs))
	val := value{}
	for v := 0; v < s; v++ {
		c, ok := coefs[v]
		if !ok || c.IsZero() {
			continue
		}
		val = val.add(t.assign[v].mulRat(c))
		if ri := t.rowOf[v]; ri >= 0 {
			for k, ck := range t.rows[ri].coef {
				addCoef(rc, k, c.Mul(ck))
			}
		} else {
			addCoef(rc, v, c)
		}
	}
	def := make(map[int]rational.Rational, len(coefs))
	for v, c := range coefs {
		if !c.IsZero() {
			def[v] = c
		}
	}
	t.assign[s] = val
	t.rowOf[s] = len(t.rows)
	t.rows = append(t.rows, row{owner: s, coef: rc, slack: s, def: def})
	t.basic.Set(uint(s))
	return s
}

// Reset rebuilds the canonical basis: every slack column becomes basic again
// with its pristine row and every assignment drops to zero. Bounds are kept.
// Running Check from this state makes the chosen vertex a function of the
// asserted bounds alone, independent of pivots left over from earlier calls.
func (t *Tableau) Reset() {
	t.basic.ClearAll()
	for v := range t.assign {
		t.assign[v] = value{}
		t.rowOf[v] = -1
	}
	for i := range t.rows {
		r := &t.rows[i]
		r.owner = r.slack
		r.coef = make(map[int]rational.Rational, len(r.def))
		for v, c := range r.def {
			r.coef[v] = c
		}
		t.rowOf[r.slack] = i
		t.basic.Set(uint(r.slack))
	}
}

func addCoef(m map[int]rational.Rational, v int, c rational.Rational) {
	sum := m[v].Add(c)
	if sum.IsZero() {
		delete(m, v)
	} else {
		m[v] = sum
	}
}

// SetLower tightens the lower bound of column v to b (strict meaning v > b).
// It reports false when the new bound contradicts the current upper bound,
// leaving the tableau untouched; a false return means the current constraint
// set is infeasible without any pivoting.
func (t *Tableau) SetLower(v int, b rational.Rational, strict bool) bool {
	nb := boundValue(b, strict, 1)
	if t.lower[v].ok && nb.cmp(t.lower[v].val) <= 0 {
		return true // not a tightening
	}
	if t.upper[v].ok && nb.cmp(t.upper[v].val) > 0 {
		return false
	}
	t.trail = append(t.trail, trailEntry{v: v, upper: false, old: t.lower[v]})
	t.lower[v] = bound{val: nb, ok: true}
	if !t.basic.Test(uint(v)) && t.assign[v].cmp(nb) < 0 {
		t.update(v, nb)
	}
	return true
}

// SetUpper tightens the upper bound of column v to b (strict meaning v < b).
// Same contract as SetLower.
func (t *Tableau) SetUpper(v int, b rational.Rational, strict bool) bool {
	nb := boundValue(b, strict, -1)
	if t.upper[v].ok && nb.cmp(t.upper[v].val) >= 0 {
		return true
	}
	if t.lower[v].ok && nb.cmp(t.lower[v].val) < 0 {
		return false
	}
	t.trail = append(t.trail, trailEntry{v: v, upper: true, old: t.upper[v]})
	t.upper[v] = bound{val: nb, ok: true}
	if !t.basic.Test(uint(v)) && t.assign[v].cmp(nb) > 0 {
		t.update(v, nb)
	}
	return true
}

// Snapshot records the current bound state.
func (t *Tableau) Snapshot() Marker {
	return Marker{trail: len(t.trail)}
}

// Restore rolls bounds back to the state recorded by the marker. Rows,
// columns and the basis are kept: pivoting never changes the constraint set,
// so reverting bounds is all that is needed to undo assertions.
func (t *Tableau) Restore(m Marker) {
	for len(t.trail) > m.trail {
		e := t.trail[len(t.trail)-1]
		t.trail = t.trail[:len(t.trail)-1]
		if e.upper {
			t.upper[e.v] = e.old
		} else {
			t.lower[e.v] = e.old
		}
	}
}

// update sets the nonbasic column v to val and propagates the change to the
// value of every basic column whose row references v.
func (t *Tableau) update(v int, val value) {
	diff := val.sub(t.assign[v])
	t.assign[v] = val
	for i := range t.rows {
		if c, ok := t.rows[i].coef[v]; ok {
			t.assign[t.rows[i].owner] = t.assign[t.rows[i].owner].add(diff.mulRat(c))
		}
	}
}

// Check decides whether the current bounds are satisfiable, repairing the
// assignment by Bland-rule pivoting. On Feasible the assignment satisfies
// every bound; on Infeasible some basic variable's row cannot be brought
// within its bounds by any bounded adjustment of the nonbasic columns
// (ratio-test failure).
func (t *Tableau) Check() Status {
	t.Stats.NbChecks++
	for v := range t.assign {
		if t.lower[v].ok && t.upper[v].ok && t.lower[v].val.cmp(t.upper[v].val) > 0 {
			return Infeasible
		}
	}
	// A Restore may have left nonbasic columns outside their bounds: clamp
	// them first, basic columns are repaired by the pivot loop below.
	for v := range t.assign {
		if t.basic.Test(uint(v)) {
			continue
		}
		if t.lower[v].ok && t.assign[v].cmp(t.lower[v].val) < 0 {
			t.update(v, t.lower[v].val)
		} else if t.upper[v].ok && t.assign[v].cmp(t.upper[v].val) > 0 {
			t.update(v, t.upper[v].val)
		}
	}
	for {
		v, below := t.findViolation()
		if v < 0 {
			t.log.Debug().Int("pivots", t.Stats.NbPivots).Msg("feasible")
			return Feasible
		}
		var target value
		if below {
			target = t.lower[v].val
		} else {
			target = t.upper[v].val
		}
		j := t.findEntering(v, below)
		if j < 0 {
			t.log.Debug().Int("pivots", t.Stats.NbPivots).Int("var", v).Msg("infeasible")
			return Infeasible
		}
		t.pivotAndUpdate(v, j, target)
	}
}

// findViolation returns the lowest-indexed basic column whose value violates
// one of its bounds, and whether the violation is below the lower bound.
// It returns -1 when the assignment is feasible.
func (t *Tableau) findViolation() (int, bool) {
	for v := range t.assign {
		if !t.basic.Test(uint(v)) {
			continue
		}
		if t.lower[v].ok && t.assign[v].cmp(t.lower[v].val) < 0 {
			return v, true
		}
		if t.upper[v].ok && t.assign[v].cmp(t.upper[v].val) > 0 {
			return v, false
		}
	}
	return -1, false
}

// findEntering returns the lowest-indexed nonbasic column of vB's row along
// which vB can move towards its violated bound, or -1 if the row is stuck
// (which proves infeasibility).
func (t *Tableau) findEntering(vB int, below bool) int {
	coefs := t.rows[t.rowOf[vB]].coef
	for j := range t.assign {
		c, ok := coefs[j]
		if !ok {
			continue
		}
		pos := c.Sign() > 0
		if below {
			// vB must grow.
			if pos && t.canIncrease(j) || !pos && t.canDecrease(j) {
				return j
			}
		} else {
			// vB must shrink.
			if pos && t.canDecrease(j) || !pos && t.canIncrease(j) {
				return j
			}
		}
	}
	return -1
}

func (t *Tableau) canIncrease(j int) bool {
	return !t.upper[j].ok || t.assign[j].cmp(t.upper[j].val) < 0
}

func (t *Tableau) canDecrease(j int) bool {
	return !t.lower[j].ok || t.assign[j].cmp(t.lower[j].val) > 0
}

// pivotAndUpdate drives the basic column vB to target by moving the nonbasic
// column j, then exchanges their basic/nonbasic status.
func (t *Tableau) pivotAndUpdate(vB, j int, target value) {
	ri := t.rowOf[vB]
	a := t.rows[ri].coef[j]
	theta := target.sub(t.assign[vB]).divRat(a)
	t.assign[vB] = target
	t.assign[j] = t.assign[j].add(theta)
	for i := range t.rows {
		if i == ri {
			continue
		}
		if c, ok := t.rows[i].coef[j]; ok {
			t.assign[t.rows[i].owner] = t.assign[t.rows[i].owner].add(theta.mulRat(c))
		}
	}
	t.pivot(ri, j)
}

// pivot performs the Gaussian elimination that makes column j the owner of
// row ri and removes j from every other row.
func (t *Tableau) pivot(ri, j int) {
	old := t.rows[ri]
	a, ok := old.coef[j]
	if !ok || a.IsZero() {
		panic("simplex: invariant violation: pivot on a zero coefficient")
	}
	inv, _ := a.Inv()
	// Solve the row for j: j = (owner - sum of the other terms) / a.
	nr := make(map[int]rational.Rational, len(old.coef))
	nr[old.owner] = inv
	for k, c := range old.coef {
		if k != j {
			nr[k] = c.Mul(inv).Neg()
		}
	}
	t.rows[ri] = row{owner: j, coef: nr, slack: old.slack, def: old.def}
	t.rowOf[j] = ri
	t.rowOf[old.owner] = -1
	t.basic.Set(uint(j))
	t.basic.Clear(uint(old.owner))
	for i := range t.rows {
		if i == ri {
			continue
		}
		c, ok := t.rows[i].coef[j]
		if !ok {
			continue
		}
		delete(t.rows[i].coef, j)
		for k, ck := range nr {
			addCoef(t.rows[i].coef, k, c.Mul(ck))
		}
	}
	t.Stats.NbPivots++
}
