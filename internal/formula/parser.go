package formula

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokBalance
	tokAdd
	tokSub
	tokMul
	tokDiv
	tokPercent
	tokLparen
	tokRparen
	tokEOF
)

type token struct {
	kind    tokenKind
	val     decimal.Decimal
	account string
}

type lexer struct {
	s   string
	pos int
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.s) {
		return 0
	}
	return l.s[l.pos]
}

func (l *lexer) advance() byte {
	if l.pos >= len(l.s) {
		return 0
	}
	b := l.s[l.pos]
	l.pos++
	return b
}

func (l *lexer) skipSpaces() {
	for l.pos < len(l.s) && (l.s[l.pos] == ' ' || l.s[l.pos] == '\t') {
		l.pos++
	}
}

func isDigit(b byte) bool {
	return unicode.IsDigit(rune(b))
}

func (l *lexer) readNumber() (decimal.Decimal, error) {
	start := l.pos
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	numStr := l.s[start:l.pos]
	v, err := decimal.NewFromString(numStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", numStr, err)
	}
	return v, nil
}

// readBalance reads `balance(<id>)`. The id is everything up to the closing
// parenthesis, trimmed.
func (l *lexer) readBalance() (string, error) {
	start := l.pos
	for unicode.IsLetter(rune(l.peek())) || l.peek() == '_' {
		l.advance()
	}
	if name := l.s[start:l.pos]; name != "balance" {
		return "", fmt.Errorf("unknown function %q at position %d", name, start)
	}
	l.skipSpaces()
	if l.advance() != '(' {
		return "", fmt.Errorf("expected ( after balance at position %d", l.pos-1)
	}
	end := strings.IndexByte(l.s[l.pos:], ')')
	if end < 0 {
		return "", fmt.Errorf("missing closing parenthesis for balance")
	}
	id := strings.TrimSpace(l.s[l.pos : l.pos+end])
	l.pos += end + 1
	if id == "" {
		return "", fmt.Errorf("balance needs an account id")
	}
	return id, nil
}

func (l *lexer) next() (token, error) {
	l.skipSpaces()
	if l.pos >= len(l.s) {
		return token{kind: tokEOF}, nil
	}
	switch c := l.peek(); c {
	case '+':
		l.advance()
		return token{kind: tokAdd}, nil
	case '-':
		l.advance()
		return token{kind: tokSub}, nil
	case '*':
		l.advance()
		return token{kind: tokMul}, nil
	case '/':
		l.advance()
		return token{kind: tokDiv}, nil
	case '%':
		l.advance()
		return token{kind: tokPercent}, nil
	case '(':
		l.advance()
		return token{kind: tokLparen}, nil
	case ')':
		l.advance()
		return token{kind: tokRparen}, nil
	default:
		switch {
		case isDigit(c) || c == '.':
			val, err := l.readNumber()
			if err != nil {
				return token{}, err
			}
			return token{kind: tokNumber, val: val}, nil
		case unicode.IsLetter(rune(c)):
			id, err := l.readBalance()
			if err != nil {
				return token{}, err
			}
			return token{kind: tokBalance, account: id}, nil
		}
		return token{}, fmt.Errorf("unexpected character %q at position %d", c, l.pos)
	}
}

type parser struct {
	lex      *lexer
	tok      token
	tokErr   error
	accounts []string
}

func (p *parser) advance() error {
	if p.tokErr != nil {
		return p.tokErr
	}
	p.tok, p.tokErr = p.lex.next()
	return p.tokErr
}

func (p *parser) parseExpr() (node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseExprContent()
}

// parseExprContent assumes the first token is already in p.tok.
func (p *parser) parseExprContent() (node, error) {
	n, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAdd || p.tok.kind == tokSub {
		op := p.tok.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		n = binary{op: op, l: n, r: rhs}
	}
	return n, nil
}

func (p *parser) parseTerm() (node, error) {
	n, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokMul || p.tok.kind == tokDiv {
		op := p.tok.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		n = binary{op: op, l: n, r: rhs}
	}
	return n, nil
}

func (p *parser) parseFactor() (node, error) {
	if p.tok.kind == tokSub {
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return negate{n}, nil
	}
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPercent {
		if err := p.advance(); err != nil {
			return nil, err
		}
		n = percent{n}
	}
	return n, nil
}

func (p *parser) parsePrimary() (node, error) {
	switch p.tok.kind {
	case tokNumber:
		val := p.tok.val
		if err := p.advance(); err != nil {
			return nil, err
		}
		return number(val), nil
	case tokBalance:
		id := p.tok.account
		if !slices.Contains(p.accounts, id) {
			p.accounts = append(p.accounts, id)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return balance(id), nil
	case tokLparen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseExprContent()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRparen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unexpected token at position %d", p.lex.pos)
	}
}
