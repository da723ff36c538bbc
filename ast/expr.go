// Package ast defines the expression and statement trees produced by the
// parser and consumed by the symbol resolver, compression loop, and
// encoder.
package ast

import "github.com/storance/dcpu16-sub000/lexer"

// BinaryOp enumerates the binary operators recognized by the expression
// grammar, ordered by the precedence ladder from lowest to highest.
type BinaryOp int

const (
	OpOr BinaryOp = iota
	OpAnd
	OpBitOr
	OpBitXor
	OpBitAnd
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpShl
	OpShr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
	UnaryBitNot
)

// Expr is the tagged sum of expression variants. Recursive arms
// (UnaryExpr, BinaryExpr) hold Expr fields directly; because Expr is an
// interface this is already a boxed/indirect representation, so no
// separate arena of expression nodes is required. Symbol references do use
// a stable arena index (see SymbolRef) rather than a pointer, matching the
// symbol table's own mutability under the compression loop's updateAfter.
type Expr interface {
	Position() lexer.Position
	isExpr()
}

type base struct {
	Pos lexer.Position
}

func (b base) Position() lexer.Position { return b.Pos }

// Literal is a bare numeric constant.
type Literal struct {
	base
	Value uint32
}

func (Literal) isExpr() {}

// NewLiteral builds a Literal expression.
func NewLiteral(pos lexer.Position, value uint32) Literal {
	return Literal{base{pos}, value}
}

// SymbolRef is a named reference to a symbol-table entry, resolved to a
// stable arena index once the symbol table has been built. Index is -1
// until resolution.
type SymbolRef struct {
	base
	Name  string
	Index int
}

func (SymbolRef) isExpr() {}

func NewSymbolRef(pos lexer.Position, name string) SymbolRef {
	return SymbolRef{base{pos}, name, -1}
}

// RegisterExpr names a bare register used as an expression operand (legal
// only adjacent to + or - per the binary-operator rules).
type RegisterExpr struct {
	base
	Reg lexer.Register
}

func (RegisterExpr) isExpr() {}

func NewRegisterExpr(pos lexer.Position, reg lexer.Register) RegisterExpr {
	return RegisterExpr{base{pos}, reg}
}

// CurrentPosition is the '$' operator: the address of the statement it
// appears in. Resolved to a stable arena index, like SymbolRef.
type CurrentPosition struct {
	base
	Index int
}

func (CurrentPosition) isExpr() {}

func NewCurrentPosition(pos lexer.Position) CurrentPosition {
	return CurrentPosition{base{pos}, -1}
}

// UnaryExpr applies a unary operator to an operand expression.
type UnaryExpr struct {
	base
	Op      UnaryOp
	Operand Expr
}

func (UnaryExpr) isExpr() {}

func NewUnary(pos lexer.Position, op UnaryOp, operand Expr) UnaryExpr {
	return UnaryExpr{base{pos}, op, operand}
}

// BinaryExpr applies a binary operator to two operand expressions.
type BinaryExpr struct {
	base
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (BinaryExpr) isExpr() {}

func NewBinary(pos lexer.Position, op BinaryOp, left, right Expr) BinaryExpr {
	return BinaryExpr{base{pos}, op, left, right}
}

// Evaluated is the normalized constant-folded form: at most one register
// and at most one literal offset, matching the data model invariant.
type Evaluated struct {
	base
	HasRegister bool
	Reg         lexer.Register
	HasValue    bool
	Value       int32
}

func (Evaluated) isExpr() {}

func NewEvaluatedValue(pos lexer.Position, value int32) Evaluated {
	return Evaluated{base: base{pos}, HasValue: true, Value: value}
}

func NewEvaluatedRegister(pos lexer.Position, reg lexer.Register) Evaluated {
	return Evaluated{base: base{pos}, HasRegister: true, Reg: reg}
}

func NewEvaluatedRegisterValue(pos lexer.Position, reg lexer.Register, value int32) Evaluated {
	return Evaluated{base: base{pos}, HasRegister: true, Reg: reg, HasValue: true, Value: value}
}

// Invalid marks a parse error that was recovered from; it propagates
// silently through later passes so one bad expression does not cascade
// into spurious diagnostics.
type Invalid struct {
	base
}

func (Invalid) isExpr() {}

func NewInvalid(pos lexer.Position) Invalid {
	return Invalid{base{pos}}
}
