package lp

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crillab/gopherlp/expr"
	"github.com/crillab/gopherlp/logger"
	"github.com/crillab/gopherlp/rational"
	"github.com/crillab/gopherlp/simplex"
)

var (
	// ErrDuplicateVariable is returned when a variable name is reused with an
	// incompatible sort.
	ErrDuplicateVariable = errors.New("variable declared with an incompatible sort")
	// ErrEmptyStack is returned when popping the base scope.
	ErrEmptyStack = errors.New("cannot pop the base scope")
	// ErrUnknownVariable is returned when an assertion references an
	// undeclared variable.
	ErrUnknownVariable = errors.New("unknown variable")
)

// A Sort describes the value domain of a variable.
type Sort byte

const (
	// Signed variables range over all rationals.
	Signed = Sort(iota)
	// Unsigned variables range over the nonnegative rationals.
	Unsigned
	// Boolean variables are 0/1 valued and usable as formulas.
	Boolean
)

func (s Sort) String() string {
	switch s {
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	case Boolean:
		return "boolean"
	default:
		panic("invalid sort")
	}
}

// A Result is the outcome of a Check call.
type Result byte

const (
	// Satisfiable means a model satisfying every active assertion was found.
	Satisfiable = Result(iota)
	// Unsatisfiable means no rational assignment satisfies the assertions.
	Unsatisfiable
	// Unknown means the solver could not decide, e.g. because an assertion
	// falls outside the supported fragment.
	Unknown
)

func (r Result) String() string {
	switch r {
	case Satisfiable:
		return "SATISFIABLE"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	case Unknown:
		return "UNKNOWN"
	default:
		panic("invalid result")
	}
}

// varInfo maps a declared variable to its tableau columns. Signed variables
// are split into a difference pos - neg of two nonnegative columns, so the
// tableau only ever deals with nonnegative user columns; unsigned and
// boolean variables use the single pos column (neg is -1).
type varInfo struct {
	sort Sort
	pos  int
	neg  int
}

// A scope is one level of the assertion stack, bounded by a Push/Pop pair.
type scope struct {
	assertions []expr.Formula
}

// A Solver decides satisfiability of linear rational formulas under an
// incremental assertion stack. It owns its variable registry, scope stack
// and Simplex tableau; a Solver must not be shared between goroutines.
type Solver struct {
	t        *simplex.Tableau
	vars     map[string]*varInfo
	order    []string       // declaration order, drives the model-shaping objective
	scopes   []*scope       // base scope first, never empty
	rowCache map[string]int // canonical linear part -> slack column
	model    map[string]rational.Rational
	log      zerolog.Logger
}

// NewSolver returns a solver with an empty base scope.
func NewSolver() *Solver {
	return &Solver{
		t:        simplex.New(),
		vars:     map[string]*varInfo{},
		scopes:   []*scope{{}},
		rowCache: map[string]int{},
		log:      logger.Logger().With().Str("component", "lp").Logger(),
	}
}

// NewVariable registers a variable and returns an expression referencing it.
// Declaring the same name twice with the same sort returns the existing
// variable; an incompatible sort fails with ErrDuplicateVariable.
func (s *Solver) NewVariable(name string, sort Sort) (expr.LinExpr, error) {
	if vi, ok := s.vars[name]; ok {
		if vi.sort != sort {
			return expr.LinExpr{}, fmt.Errorf("%w: %s is %v, requested %v",
				ErrDuplicateVariable, name, vi.sort, sort)
		}
		return expr.Var(name), nil
	}
	vi := &varInfo{sort: sort, neg: -1}
	vi.pos = s.t.AddVar()
	switch sort {
	case Signed:
		vi.neg = s.t.AddVar()
		s.t.SetLower(vi.pos, rational.Zero(), false)
		s.t.SetLower(vi.neg, rational.Zero(), false)
	case Unsigned:
		s.t.SetLower(vi.pos, rational.Zero(), false)
	case Boolean:
		s.t.SetLower(vi.pos, rational.Zero(), false)
		s.t.SetUpper(vi.pos, rational.One(), false)
	}
	s.vars[name] = vi
	s.order = append(s.order, name)
	return expr.Var(name), nil
}

// IsBool reports whether name is a declared boolean variable. It matches the
// callback expected by expr.Parse.
func (s *Solver) IsBool(name string) bool {
	vi, ok := s.vars[name]
	return ok && vi.sort == Boolean
}

// AddAssertion appends a formula to the current scope. No solving happens
// until Check. The formula must only reference declared variables, and
// boolean structure must only reference Boolean-sorted ones.
func (s *Solver) AddAssertion(f expr.Formula) error {
	if f == nil {
		return errors.New("nil assertion")
	}
	if err := s.validate(f); err != nil {
		return err
	}
	top := s.scopes[len(s.scopes)-1]
	top.assertions = append(top.assertions, f)
	return nil
}

// Push opens a new scope.
func (s *Solver) Push() {
	s.scopes = append(s.scopes, &scope{})
}

// Pop discards the top scope and every assertion made in it. Popping the
// base scope fails with ErrEmptyStack.
func (s *Solver) Pop() error {
	if len(s.scopes) == 1 {
		return ErrEmptyStack
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
	return nil
}

func (s *Solver) validate(f expr.Formula) error {
	switch f := f.(type) {
	case expr.Atom:
		for _, t := range f.Left.Terms() {
			if _, ok := s.vars[t.Var]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownVariable, t.Var)
			}
		}
		return nil
	case expr.BoolRef:
		vi, ok := s.vars[f.Name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, f.Name)
		}
		if vi.sort != Boolean {
			return fmt.Errorf("%w: %s used as boolean but declared %v",
				ErrDuplicateVariable, f.Name, vi.sort)
		}
		return nil
	case expr.Conj:
		for _, sub := range f {
			if err := s.validate(sub); err != nil {
				return err
			}
		}
		return nil
	case expr.Disj:
		for _, sub := range f {
			if err := s.validate(sub); err != nil {
				return err
			}
		}
		return nil
	case expr.Negation:
		return s.validate(f.F)
	case expr.Equivalence:
		if err := s.validate(f.A); err != nil {
			return err
		}
		return s.validate(f.B)
	default:
		return fmt.Errorf("unsupported formula %v", f)
	}
}
