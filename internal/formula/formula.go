// Package formula parses rule amounts: a plain number or a small arithmetic
// expression (+, -, *, /, parentheses, postfix %) that may read account
// balances through balance(<account id>).
package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrDivisionByZero = errors.New("division by zero")

// Env supplies account balances while an expression is evaluated.
type Env interface {
	Balance(accountID string) (decimal.Decimal, error)
}

type EnvFunc func(accountID string) (decimal.Decimal, error)

func (f EnvFunc) Balance(accountID string) (decimal.Decimal, error) {
	return f(accountID)
}

type node interface {
	eval(env Env) (decimal.Decimal, error)
}

type number decimal.Decimal

func (n number) eval(Env) (decimal.Decimal, error) { return decimal.Decimal(n), nil }

type balance string

func (b balance) eval(env Env) (decimal.Decimal, error) {
	if env == nil {
		return decimal.Zero, fmt.Errorf("balance(%s) used in a constant amount", string(b))
	}
	return env.Balance(string(b))
}

type negate struct{ x node }

func (n negate) eval(env Env) (decimal.Decimal, error) {
	v, err := n.x.eval(env)
	return v.Neg(), err
}

var hundred = decimal.NewFromInt(100)

type percent struct{ x node }

func (p percent) eval(env Env) (decimal.Decimal, error) {
	v, err := p.x.eval(env)
	return v.Div(hundred), err
}

type binary struct {
	op   tokenKind
	l, r node
}

func (b binary) eval(env Env) (decimal.Decimal, error) {
	l, err := b.l.eval(env)
	if err != nil {
		return decimal.Zero, err
	}
	r, err := b.r.eval(env)
	if err != nil {
		return decimal.Zero, err
	}
	switch b.op {
	case tokAdd:
		return l.Add(r), nil
	case tokSub:
		return l.Sub(r), nil
	case tokMul:
		return l.Mul(r), nil
	default:
		if r.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		return l.Div(r), nil
	}
}

// Expression is a parsed amount.
type Expression struct {
	src      string
	root     node
	accounts []string
}

// Parse parses s. A bare number is accepted as is; anything else must be a
// well formed expression.
func Parse(s string) (*Expression, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if v, err := decimal.NewFromString(s); err == nil {
		return &Expression{src: s, root: number(v)}, nil
	}
	if !looksLikeExpression(s) {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	p := &parser{lex: &lexer{s: s}}
	root, err := p.parseExpr()
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("invalid amount %q: unexpected token after expression", s)
	}
	return &Expression{src: s, root: root, accounts: p.accounts}, nil
}

// ParseAmount parses and evaluates a constant amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	e, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !e.IsConstant() {
		return decimal.Zero, fmt.Errorf("amount %q reads account balances", s)
	}
	return e.Eval(nil)
}

func (e *Expression) Eval(env Env) (decimal.Decimal, error) {
	return e.root.eval(env)
}

// Accounts lists the accounts read by the expression, in order of first use.
func (e *Expression) Accounts() []string {
	return append([]string(nil), e.accounts...)
}

func (e *Expression) IsConstant() bool {
	return len(e.accounts) == 0
}

func (e *Expression) String() string {
	return e.src
}

func looksLikeExpression(s string) bool {
	for i, r := range s {
		if r == '+' || r == '*' || r == '/' || r == '(' || r == ')' || r == '%' {
			return true
		}
		if r == '-' && i > 0 {
			return true
		}
	}
	return false
}
