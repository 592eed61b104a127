package simplex

import (
	"github.com/crillab/gopherlp/rational"
)

// Maximize moves a feasible assignment to the vertex that maximizes the
// given objective (a column/coefficient map), without ever leaving the
// feasible region. It must only be called after Check returned Feasible.
//
// The pivot rule is fixed for reproducibility: the entering column is the
// lowest-indexed one improving the objective (Bland), the leaving column the
// one with the minimum ratio, ties resolved to the lowest index, and a move
// limited by the entering column's own bound is preferred on equality. The
// search stops at optimality or at the first unbounded improving direction;
// in the latter case the current vertex simply stays the result, which keeps
// model extraction total for unbounded feasible systems.
func (t *Tableau) Maximize(obj map[int]rational.Rational) {
	objRow := make(map[int]rational.Rational, len(obj))
	for v := 0; v < t.NumVars(); v++ {
		c, ok := obj[v]
		if !ok || c.IsZero() {
			continue
		}
		if ri := t.rowOf[v]; ri >= 0 {
			for k, ck := range t.rows[ri].coef {
				addCoef(objRow, k, c.Mul(ck))
			}
		} else {
			addCoef(objRow, v, c)
		}
	}
	for {
		j, dir := t.findImproving(objRow)
		if j < 0 {
			return // optimal
		}
		ownTheta, ownOK := t.ownLimit(j, dir)
		rowTheta, rowIdx := t.ratioTest(j, dir)
		switch {
		case !ownOK && rowIdx < 0:
			// Unbounded improving direction: keep the current vertex.
			t.log.Debug().Int("var", j).Msg("objective unbounded, stopping")
			return
		case ownOK && (rowIdx < 0 || ownTheta.cmp(rowTheta) <= 0):
			// The entering column hits its own opposite bound first: a plain
			// bound-to-bound move, no pivot needed.
			if dir > 0 {
				t.update(j, t.upper[j].val)
			} else {
				t.update(j, t.lower[j].val)
			}
		default:
			owner := t.rows[rowIdx].owner
			var target value
			if t.rows[rowIdx].coef[j].Sign() == dir {
				target = t.upper[owner].val
			} else {
				target = t.lower[owner].val
			}
			t.pivotAndUpdate(owner, j, target)
			// j is now basic: substitute its row into the objective.
			c := objRow[j]
			delete(objRow, j)
			for k, ck := range t.rows[t.rowOf[j]].coef {
				addCoef(objRow, k, c.Mul(ck))
			}
		}
	}
}

// findImproving returns the lowest-indexed nonbasic column whose movement
// improves the objective, with the direction (+1 or -1) of that movement,
// or -1 when the assignment is optimal.
func (t *Tableau) findImproving(objRow map[int]rational.Rational) (int, int) {
	for v := range t.assign {
		if t.basic.Test(uint(v)) {
			continue
		}
		c, ok := objRow[v]
		if !ok {
			continue
		}
		if c.Sign() > 0 && t.canIncrease(v) {
			return v, 1
		}
		if c.Sign() < 0 && t.canDecrease(v) {
			return v, -1
		}
	}
	return -1, 0
}

// ownLimit returns how far column j can move in direction dir before hitting
// its own bound on that side.
func (t *Tableau) ownLimit(j, dir int) (value, bool) {
	if dir > 0 {
		if !t.upper[j].ok {
			return value{}, false
		}
		return t.upper[j].val.sub(t.assign[j]), true
	}
	if !t.lower[j].ok {
		return value{}, false
	}
	return t.assign[j].sub(t.lower[j].val), true
}

// ratioTest returns the tightest step the basic columns allow when moving
// column j in direction dir, together with the limiting row; -1 when no row
// limits the move.
func (t *Tableau) ratioTest(j, dir int) (value, int) {
	var best value
	bestRow := -1
	dirRat := rational.FromInt(int64(dir))
	for i := range t.rows {
		c, ok := t.rows[i].coef[j]
		if !ok || c.IsZero() {
			continue
		}
		owner := t.rows[i].owner
		slope := c.Mul(dirRat) // change of the owner per unit step
		var limit bound
		if slope.Sign() > 0 {
			limit = t.upper[owner]
		} else {
			limit = t.lower[owner]
		}
		if !limit.ok {
			continue
		}
		theta := limit.val.sub(t.assign[owner]).divRat(slope)
		if bestRow < 0 || theta.cmp(best) < 0 ||
			theta.cmp(best) == 0 && owner < t.rows[bestRow].owner {
			best, bestRow = theta, i
		}
	}
	return best, bestRow
}

// Epsilon returns a concrete positive rational small enough to substitute
// for the symbolic infinitesimal δ: every bound that holds in δ-arithmetic
// still holds after the substitution. The largest such value not exceeding 1
// is chosen, which keeps models on small integers when possible.
func (t *Tableau) Epsilon() rational.Rational {
	eps := rational.One()
	for v := range t.assign {
		a := t.assign[v]
		if l := t.lower[v]; l.ok && a.r.Cmp(l.val.r) > 0 && a.d.Cmp(l.val.d) < 0 {
			gap, _ := a.r.Sub(l.val.r).Div(l.val.d.Sub(a.d))
			eps = rational.Min(eps, gap)
		}
		if u := t.upper[v]; u.ok && a.r.Cmp(u.val.r) < 0 && a.d.Cmp(u.val.d) > 0 {
			gap, _ := u.val.r.Sub(a.r).Div(a.d.Sub(u.val.d))
			eps = rational.Min(eps, gap)
		}
	}
	return eps
}

// ConcreteValue returns the value of column v with the concrete
// infinitesimal eps substituted for δ.
func (t *Tableau) ConcreteValue(v int, eps rational.Rational) rational.Rational {
	return t.assign[v].concrete(eps)
}
