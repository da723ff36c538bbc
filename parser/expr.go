package parser

import (
	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
)

// ExprFlags is the bitmask of operand positions the statement parser passes
// down into the expression parser, gating which leaf kinds are legal.
type ExprFlags uint32

const (
	FlagRegisters ExprFlags = 1 << iota
	FlagRegisterArith
	FlagSymbol
	FlagCurrentPos
)

const (
	// Direct is used for a plain instruction operand position, e.g. the
	// "B" in "SET A, B". A bare register is legal; register arithmetic
	// (A+1) is not.
	Direct = FlagRegisters | FlagSymbol | FlagCurrentPos
	// Indirect is used inside [ ]; it additionally permits a register to
	// combine with + or -, e.g. [A+4].
	Indirect = FlagRegisters | FlagRegisterArith | FlagSymbol | FlagCurrentPos
	// Constant is used by directive arguments (.org, .fill, .equ, .align):
	// no registers at all, anywhere in the expression.
	Constant = FlagSymbol | FlagCurrentPos
)

// ExprParser parses the standard precedence-climbing ladder:
// || && | ^ & == != < <= > >= << >> + - * / % unary primary.
type ExprParser struct {
	toks    []lexer.Token
	pos     int
	errs    *lexer.ErrorList
	flags   ExprFlags
}

// NewExprParser constructs an expression parser over a single statement's
// token slice (already split out by the statement parser), with flags
// controlling which leaf kinds are legal.
func NewExprParser(toks []lexer.Token, flags ExprFlags, errs *lexer.ErrorList) *ExprParser {
	return &ExprParser{toks: toks, flags: flags, errs: errs}
}

func (p *ExprParser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.toks[p.pos]
}

func (p *ExprParser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// Remaining reports whether unconsumed tokens remain (other than EOF).
func (p *ExprParser) Remaining() bool {
	return p.cur().Type != lexer.TokenEOF
}

// Parse parses one expression and validates register-placement legality
// for the flags this parser was constructed with.
func (p *ExprParser) Parse() ast.Expr {
	e := p.parseOr()
	p.validate(e)
	return e
}

type binLevel struct {
	types []lexer.TokenType
	ops   []ast.BinaryOp
	next  func(*ExprParser) ast.Expr
}

func (p *ExprParser) parseBinary(level binLevel) ast.Expr {
	left := level.next(p)
	for {
		matched := false
		for i, tt := range level.types {
			if p.cur().Type == tt {
				pos := p.cur().Pos
				p.advance()
				right := level.next(p)
				left = ast.NewBinary(pos, level.ops[i], left, right)
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
	}
}

func (p *ExprParser) parseOr() ast.Expr {
	return p.parseBinary(binLevel{[]lexer.TokenType{lexer.TokenOrOr}, []ast.BinaryOp{ast.OpOr}, (*ExprParser).parseAnd})
}

func (p *ExprParser) parseAnd() ast.Expr {
	return p.parseBinary(binLevel{[]lexer.TokenType{lexer.TokenAndAnd}, []ast.BinaryOp{ast.OpAnd}, (*ExprParser).parseBitOr})
}

func (p *ExprParser) parseBitOr() ast.Expr {
	return p.parseBinary(binLevel{[]lexer.TokenType{lexer.TokenPipe}, []ast.BinaryOp{ast.OpBitOr}, (*ExprParser).parseBitXor})
}

func (p *ExprParser) parseBitXor() ast.Expr {
	return p.parseBinary(binLevel{[]lexer.TokenType{lexer.TokenCaret}, []ast.BinaryOp{ast.OpBitXor}, (*ExprParser).parseBitAnd})
}

func (p *ExprParser) parseBitAnd() ast.Expr {
	return p.parseBinary(binLevel{[]lexer.TokenType{lexer.TokenAmp}, []ast.BinaryOp{ast.OpBitAnd}, (*ExprParser).parseEquality})
}

func (p *ExprParser) parseEquality() ast.Expr {
	return p.parseBinary(binLevel{
		[]lexer.TokenType{lexer.TokenEq, lexer.TokenNeq},
		[]ast.BinaryOp{ast.OpEq, ast.OpNeq},
		(*ExprParser).parseRelational,
	})
}

func (p *ExprParser) parseRelational() ast.Expr {
	// Later revision of the original source: '<' is LT, '>' is GT.
	return p.parseBinary(binLevel{
		[]lexer.TokenType{lexer.TokenLt, lexer.TokenLte, lexer.TokenGt, lexer.TokenGte},
		[]ast.BinaryOp{ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte},
		(*ExprParser).parseShift,
	})
}

func (p *ExprParser) parseShift() ast.Expr {
	return p.parseBinary(binLevel{
		[]lexer.TokenType{lexer.TokenShl, lexer.TokenShr},
		[]ast.BinaryOp{ast.OpShl, ast.OpShr},
		(*ExprParser).parseAdditive,
	})
}

func (p *ExprParser) parseAdditive() ast.Expr {
	return p.parseBinary(binLevel{
		[]lexer.TokenType{lexer.TokenPlus, lexer.TokenMinus},
		[]ast.BinaryOp{ast.OpAdd, ast.OpSub},
		(*ExprParser).parseMultiplicative,
	})
}

func (p *ExprParser) parseMultiplicative() ast.Expr {
	return p.parseBinary(binLevel{
		[]lexer.TokenType{lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent},
		[]ast.BinaryOp{ast.OpMul, ast.OpDiv, ast.OpMod},
		(*ExprParser).parseUnary,
	})
}

func (p *ExprParser) parseUnary() ast.Expr {
	tok := p.cur()
	var op ast.UnaryOp
	switch tok.Type {
	case lexer.TokenPlus:
		op = ast.UnaryPlus
	case lexer.TokenMinus:
		op = ast.UnaryMinus
	case lexer.TokenBang:
		op = ast.UnaryNot
	case lexer.TokenTilde:
		op = ast.UnaryBitNot
	default:
		return p.parsePrimary()
	}
	p.advance()
	operand := p.parseUnary()
	return ast.NewUnary(tok.Pos, op, operand)
}

func (p *ExprParser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenInteger:
		p.advance()
		return ast.NewLiteral(tok.Pos, uint32(tok.IntValue))
	case lexer.TokenChar:
		p.advance()
		var v uint32
		if len(tok.Literal) > 0 {
			v = uint32(tok.Literal[0])
		}
		return ast.NewLiteral(tok.Pos, v)
	case lexer.TokenCurrentPos:
		p.advance()
		if p.flags&FlagCurrentPos == 0 {
			p.errs.AddError(tok.Pos, lexer.ErrorInvalidOperand, "'$' not allowed here")
		}
		return ast.NewCurrentPosition(tok.Pos)
	case lexer.TokenRegister:
		p.advance()
		return ast.NewRegisterExpr(tok.Pos, tok.Reg)
	case lexer.TokenIdentifier:
		p.advance()
		if p.flags&FlagSymbol == 0 {
			p.errs.AddError(tok.Pos, lexer.ErrorInvalidOperand, "symbol not allowed here")
		}
		return ast.NewSymbolRef(tok.Pos, tok.Literal)
	case lexer.TokenForcedSymbol:
		p.advance()
		if p.flags&FlagSymbol == 0 {
			p.errs.AddError(tok.Pos, lexer.ErrorInvalidOperand, "symbol not allowed here")
		}
		return ast.NewSymbolRef(tok.Pos, tok.Literal)
	case lexer.TokenMinus, lexer.TokenPlus, lexer.TokenBang, lexer.TokenTilde:
		// handled by parseUnary; unreachable here but kept defensive
		return p.parseUnary()
	default:
		p.errs.AddError(tok.Pos, lexer.ErrorSyntax, "unexpected token %s in expression", tok.Type)
		p.advance()
		return ast.NewInvalid(tok.Pos)
	}
}

// validate enforces: a register may combine only with + (either side) or -
// (left side only); any other combination, or a register where Registers
// aren't allowed at all, is an error. A second register anywhere in the
// expression is always an error.
func (p *ExprParser) validate(e ast.Expr) {
	p.validateNode(e, p.flags&FlagRegisters != 0)

	var positions []lexer.Position
	collectRegisters(e, &positions)
	if len(positions) > 1 {
		p.errs.AddError(positions[1], lexer.ErrorInvalidOperand, "multiple registers in one expression")
	}
}

func (p *ExprParser) validateNode(e ast.Expr, allowRegisterHere bool) {
	switch n := e.(type) {
	case ast.RegisterExpr:
		if !allowRegisterHere {
			p.errs.AddError(n.Pos, lexer.ErrorInvalidOperand, "register not allowed here")
		}
	case ast.UnaryExpr:
		p.validateNode(n.Operand, false)
	case ast.BinaryExpr:
		arithOK := p.flags&FlagRegisters != 0 && p.flags&FlagRegisterArith != 0
		leftOK := arithOK && (n.Op == ast.OpAdd || n.Op == ast.OpSub)
		rightOK := arithOK && n.Op == ast.OpAdd
		p.validateNode(n.Left, leftOK)
		p.validateNode(n.Right, rightOK)
	default:
		// Literal, SymbolRef, CurrentPosition, Evaluated, Invalid: no
		// nested operands to validate.
	}
}

func collectRegisters(e ast.Expr, out *[]lexer.Position) {
	switch n := e.(type) {
	case ast.RegisterExpr:
		*out = append(*out, n.Pos)
	case ast.UnaryExpr:
		collectRegisters(n.Operand, out)
	case ast.BinaryExpr:
		collectRegisters(n.Left, out)
		collectRegisters(n.Right, out)
	}
}
