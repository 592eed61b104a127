package expr

// NNF returns an equivalent formula in negation normal form: negations are
// pushed onto the atoms and eliminated there, nested conjunctions and
// disjunctions are flattened. The resulting tree contains only Atom, BoolRef,
// Conj and Disj nodes, plus Equivalence nodes of the canonical shape
// "boolean variable <-> atom"; every other equivalence is expanded into its
// two implications first.
func NNF(f Formula) Formula {
	switch f := f.(type) {
	case Atom, BoolRef:
		return f
	case Conj:
		res := make(Conj, 0, len(f))
		for _, sub := range f {
			switch nnf := NNF(sub).(type) {
			case Conj:
				res = append(res, nnf...)
			default:
				res = append(res, nnf)
			}
		}
		if len(res) == 1 {
			return res[0]
		}
		return res
	case Disj:
		res := make(Disj, 0, len(f))
		for _, sub := range f {
			switch nnf := NNF(sub).(type) {
			case Disj:
				res = append(res, nnf...)
			default:
				res = append(res, nnf)
			}
		}
		if len(res) == 1 {
			return res[0]
		}
		return res
	case Negation:
		return negate(f.F)
	case Equivalence:
		if canon, ok := canonicalEquiv(f); ok {
			return canon
		}
		return NNF(Conj{
			Disj{Negation{F: f.A}, f.B},
			Disj{f.A, Negation{F: f.B}},
		})
	default:
		panic("invalid formula type")
	}
}

// canonicalEquiv tries to rewrite an equivalence into the canonical
// "positive boolean variable <-> atom" shape.
func canonicalEquiv(e Equivalence) (Formula, bool) {
	f1, f2 := NNF(e.A), NNF(e.B)
	w, okA := f1.(BoolRef)
	a, okB := f2.(Atom)
	if !okA || !okB {
		// The two sides may come in either order.
		w, okA = f2.(BoolRef)
		a, okB = f1.(Atom)
	}
	if !okA || !okB {
		return nil, false
	}
	if w.Negated {
		// not(w) <-> a is w <-> not(a); only possible canonically when
		// negating a keeps it a single atom.
		neg, ok := negateRel(a.Rel)
		if !ok {
			return nil, false
		}
		w.Negated = false
		a.Rel = neg
	}
	return Equivalence{A: w, B: a}, true
}

// negate returns the NNF of not(f).
func negate(f Formula) Formula {
	switch f := f.(type) {
	case Atom:
		return negateAtom(f)
	case BoolRef:
		f.Negated = !f.Negated
		return f
	case Negation:
		return NNF(f.F)
	case Conj:
		subs := make(Disj, len(f))
		for i, sub := range f {
			subs[i] = Negation{F: sub}
		}
		return NNF(subs)
	case Disj:
		subs := make(Conj, len(f))
		for i, sub := range f {
			subs[i] = Negation{F: sub}
		}
		return NNF(subs)
	case Equivalence:
		// not(a <-> b) is (a and not b) or (not a and b).
		return NNF(Disj{
			Conj{f.A, Negation{F: f.B}},
			Conj{Negation{F: f.A}, f.B},
		})
	default:
		panic("invalid formula type")
	}
}

// negateAtom negates a comparison. All relations negate into a single
// relation except equality, which splits into a disjunction.
func negateAtom(a Atom) Formula {
	if neg, ok := negateRel(a.Rel); ok {
		a.Rel = neg
		return a
	}
	return Disj{
		Atom{Left: a.Left, Rel: LT},
		Atom{Left: a.Left, Rel: GT},
	}
}

func negateRel(r Rel) (Rel, bool) {
	switch r {
	case LE:
		return GT, true
	case LT:
		return GE, true
	case GE:
		return LT, true
	case GT:
		return LE, true
	default:
		return 0, false
	}
}
