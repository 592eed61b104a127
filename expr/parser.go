package expr

import (
	"fmt"
	"io"
	"text/scanner"

	"github.com/crillab/gopherlp/rational"
)

type parser struct {
	s      scanner.Scanner
	isBool func(string) bool
	token  string // last token read; "" means EOF
	pushed []string
}

// Parse parses a formula from the given input Reader.
// Formulas are written using the following operators, from lowest to highest
// priority:
//
// - for an equivalence, the "=" operator,
// - for a disjunction ("or"), the "|" operator,
// - for a conjunction ("and"), the "&" operator,
// - for a negation, the "^" unary operator,
// - for comparisons, the "<=", "<", ">=", ">" and "==" operators,
// - for arithmetic, the "+", "-", "*" and "/" operators.
//
// Parentheses can be used for grouping. Identifiers for which isBool returns
// true denote boolean variables, all others arithmetic ones. Rational
// constants are written "3" or "3/4" (the latter parses as a division of
// constants, which is the same thing).
func Parse(r io.Reader, isBool func(string) bool) (Formula, error) {
	var s scanner.Scanner
	s.Init(r)
	s.Error = func(*scanner.Scanner, string) {} // errors surface as bad tokens
	p := parser{s: s, isBool: isBool}
	p.scan()
	n, err := p.parseEquiv()
	if err != nil {
		return nil, err
	}
	if p.token != "" {
		return nil, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	return p.formula(n)
}

// A node is either an arithmetic expression or a boolean formula, depending
// on which part of the grammar produced it.
type node struct {
	e *LinExpr
	f Formula
}

func exprNode(e LinExpr) node { return node{e: &e} }

func (p *parser) formula(n node) (Formula, error) {
	if n.f == nil {
		return nil, fmt.Errorf("expected a formula, got arithmetic expression at %s", p.s.Pos())
	}
	return n.f, nil
}

func (p *parser) arith(n node) (LinExpr, error) {
	if n.e == nil {
		return LinExpr{}, fmt.Errorf("expected an arithmetic expression, got formula at %s", p.s.Pos())
	}
	return *n.e, nil
}

func (p *parser) next() string {
	if len(p.pushed) > 0 {
		t := p.pushed[len(p.pushed)-1]
		p.pushed = p.pushed[:len(p.pushed)-1]
		return t
	}
	if p.s.Scan() == scanner.EOF {
		return ""
	}
	return p.s.TokenText()
}

func (p *parser) scan() {
	p.token = p.next()
}

func (p *parser) peek() string {
	t := p.next()
	p.pushed = append(p.pushed, t)
	return t
}

func (p *parser) parseEquiv() (node, error) {
	n, err := p.parseOr()
	if err != nil {
		return node{}, err
	}
	for p.token == "=" && p.peek() != "=" {
		p.scan()
		f1, err := p.formula(n)
		if err != nil {
			return node{}, err
		}
		n2, err := p.parseOr()
		if err != nil {
			return node{}, err
		}
		f2, err := p.formula(n2)
		if err != nil {
			return node{}, err
		}
		n = node{f: Equiv(f1, f2)}
	}
	return n, nil
}

func (p *parser) parseOr() (node, error) {
	n, err := p.parseAnd()
	if err != nil {
		return node{}, err
	}
	for p.token == "|" {
		p.scan()
		f1, err := p.formula(n)
		if err != nil {
			return node{}, err
		}
		n2, err := p.parseAnd()
		if err != nil {
			return node{}, err
		}
		f2, err := p.formula(n2)
		if err != nil {
			return node{}, err
		}
		n = node{f: Or(f1, f2)}
	}
	return n, nil
}

func (p *parser) parseAnd() (node, error) {
	n, err := p.parseNot()
	if err != nil {
		return node{}, err
	}
	for p.token == "&" {
		p.scan()
		f1, err := p.formula(n)
		if err != nil {
			return node{}, err
		}
		n2, err := p.parseNot()
		if err != nil {
			return node{}, err
		}
		f2, err := p.formula(n2)
		if err != nil {
			return node{}, err
		}
		n = node{f: And(f1, f2)}
	}
	return n, nil
}

func (p *parser) parseNot() (node, error) {
	if p.token == "^" {
		p.scan()
		n, err := p.parseNot()
		if err != nil {
			return node{}, err
		}
		f, err := p.formula(n)
		if err != nil {
			return node{}, err
		}
		return node{f: Not(f)}, nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (node, error) {
	n, err := p.parseSum()
	if err != nil {
		return node{}, err
	}
	var cmp func(a, b LinExpr) Formula
	switch p.token {
	case "<":
		cmp = Lt
		if p.peek() == "=" {
			p.scan()
			cmp = Le
		}
	case ">":
		cmp = Gt
		if p.peek() == "=" {
			p.scan()
			cmp = Ge
		}
	case "=":
		if p.peek() != "=" {
			return n, nil // an equivalence, handled by the caller
		}
		p.scan()
		cmp = Eq
	default:
		return n, nil
	}
	p.scan()
	a, err := p.arith(n)
	if err != nil {
		return node{}, err
	}
	n2, err := p.parseSum()
	if err != nil {
		return node{}, err
	}
	b, err := p.arith(n2)
	if err != nil {
		return node{}, err
	}
	return node{f: cmp(a, b)}, nil
}

func (p *parser) parseSum() (node, error) {
	n, err := p.parseTerm()
	if err != nil {
		return node{}, err
	}
	for p.token == "+" || p.token == "-" {
		neg := p.token == "-"
		p.scan()
		a, err := p.arith(n)
		if err != nil {
			return node{}, err
		}
		n2, err := p.parseTerm()
		if err != nil {
			return node{}, err
		}
		b, err := p.arith(n2)
		if err != nil {
			return node{}, err
		}
		if neg {
			n = exprNode(Sub(a, b))
		} else {
			n = exprNode(Add(a, b))
		}
	}
	return n, nil
}

func (p *parser) parseTerm() (node, error) {
	n, err := p.parseFactor()
	if err != nil {
		return node{}, err
	}
	for p.token == "*" || p.token == "/" {
		div := p.token == "/"
		p.scan()
		a, err := p.arith(n)
		if err != nil {
			return node{}, err
		}
		n2, err := p.parseFactor()
		if err != nil {
			return node{}, err
		}
		b, err := p.arith(n2)
		if err != nil {
			return node{}, err
		}
		var e LinExpr
		if div {
			e, err = Div(a, b)
		} else {
			e, err = Mul(a, b)
		}
		if err != nil {
			return node{}, err
		}
		n = exprNode(e)
	}
	return n, nil
}

func (p *parser) parseFactor() (node, error) {
	switch {
	case p.token == "":
		return node{}, fmt.Errorf("at position %v, expected expression, found EOF", p.s.Pos())
	case p.token == "(":
		p.scan()
		n, err := p.parseEquiv()
		if err != nil {
			return node{}, err
		}
		if p.token != ")" {
			return node{}, fmt.Errorf("expected ')', found %q at %s", p.token, p.s.Pos())
		}
		p.scan()
		return n, nil
	case p.token == "-":
		p.scan()
		n, err := p.parseFactor()
		if err != nil {
			return node{}, err
		}
		e, err := p.arith(n)
		if err != nil {
			return node{}, err
		}
		return exprNode(Neg(e)), nil
	case isIdent(p.token):
		name := p.token
		p.scan()
		if p.isBool != nil && p.isBool(name) {
			return node{f: Bool(name)}, nil
		}
		return exprNode(Var(name)), nil
	default:
		r, err := rationalToken(p.token)
		if err != nil {
			return node{}, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
		}
		p.scan()
		return exprNode(r), nil
	}
}

func rationalToken(token string) (LinExpr, error) {
	r, err := rational.Parse(token)
	if err != nil {
		return LinExpr{}, err
	}
	return Rat(r), nil
}

func isIdent(token string) bool {
	for i, r := range token {
		letter := r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
		if !letter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return token != ""
}
