package parser_test

import (
	"testing"

	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
	"github.com/storance/dcpu16-sub000/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, src string) []lexer.Token {
	t.Helper()
	l := lexer.NewLexer(src, "test.dasm")
	var toks []lexer.Token
	for {
		tok := l.NextToken()
		if tok.Type == lexer.TokenEOF {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

func parseExpr(t *testing.T, src string, flags parser.ExprFlags) (ast.Expr, *lexer.ErrorList) {
	t.Helper()
	errs := &lexer.ErrorList{}
	p := parser.NewExprParser(tokenize(t, src), flags, errs)
	e := p.Parse()
	return e, errs
}

func TestExprParser_PrecedenceClimbsAdditiveOverMultiplicative(t *testing.T) {
	e, errs := parseExpr(t, "1+2*3", parser.Constant)
	require.False(t, errs.HasErrors())

	bin, ok := e.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)

	right, ok := bin.Right.(ast.BinaryExpr)
	require.True(t, ok, "the */ term must bind tighter and sit on the right of +")
	assert.Equal(t, ast.OpMul, right.Op)
}

func TestExprParser_BitwiseOperatorsParse(t *testing.T) {
	e, errs := parseExpr(t, "1 | 2 ^ 3 & 4", parser.Constant)
	require.False(t, errs.HasErrors())

	top, ok := e.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpBitOr, top.Op, "| has the lowest precedence of the three")
}

func TestExprParser_UnaryMinusAppliesToPrimary(t *testing.T) {
	e, errs := parseExpr(t, "-5", parser.Constant)
	require.False(t, errs.HasErrors())

	u, ok := e.(ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.UnaryMinus, u.Op)
	lit, ok := u.Operand.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, uint32(5), lit.Value)
}

func TestExprParser_BareRegisterLegalInDirectPosition(t *testing.T) {
	e, errs := parseExpr(t, "A", parser.Direct)
	require.False(t, errs.HasErrors())
	reg, ok := e.(ast.RegisterExpr)
	require.True(t, ok)
	assert.Equal(t, lexer.RegA, reg.Reg)
}

func TestExprParser_RegisterArithmeticLegalInIndirectPosition(t *testing.T) {
	_, errs := parseExpr(t, "A+4", parser.Indirect)
	assert.False(t, errs.HasErrors())
}

func TestExprParser_RegisterArithmeticIllegalInDirectPosition(t *testing.T) {
	_, errs := parseExpr(t, "A+4", parser.Direct)
	assert.True(t, errs.HasErrors(), "A+4 is only legal inside [ ]")
}

func TestExprParser_RegisterSubtractionOnlyLegalOnLeft(t *testing.T) {
	_, errs := parseExpr(t, "4-A", parser.Indirect)
	assert.True(t, errs.HasErrors(), "a register may not appear on the right of '-'")
}

func TestExprParser_RegisterAdditionLegalOnEitherSide(t *testing.T) {
	_, errs := parseExpr(t, "4+A", parser.Indirect)
	assert.False(t, errs.HasErrors())
}

func TestExprParser_TwoRegistersIsError(t *testing.T) {
	_, errs := parseExpr(t, "A+B", parser.Indirect)
	assert.True(t, errs.HasErrors(), "only one register may appear in an operand expression")
}

func TestExprParser_RegisterIllegalInConstantContext(t *testing.T) {
	_, errs := parseExpr(t, "A", parser.Constant)
	assert.True(t, errs.HasErrors(), "directive arguments never allow a register")
}

func TestExprParser_SymbolIllegalWhenFlagSymbolUnset(t *testing.T) {
	_, errs := parseExpr(t, "label", 0)
	assert.True(t, errs.HasErrors())
}

func TestExprParser_CurrentPositionLegalInConstantContext(t *testing.T) {
	e, errs := parseExpr(t, "$", parser.Constant)
	require.False(t, errs.HasErrors())
	_, ok := e.(ast.CurrentPosition)
	assert.True(t, ok)
}

func TestExprParser_CharLiteralYieldsItsOrdinalValue(t *testing.T) {
	e, errs := parseExpr(t, "'A'", parser.Constant)
	require.False(t, errs.HasErrors())
	lit, ok := e.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, uint32('A'), lit.Value)
}

func TestExprParser_UnexpectedTokenRecoversAsInvalid(t *testing.T) {
	e, errs := parseExpr(t, "]", parser.Constant)
	assert.True(t, errs.HasErrors())
	_, ok := e.(ast.Invalid)
	assert.True(t, ok, "a malformed leaf recovers as Invalid rather than panicking")
}

func TestExprParser_RelationalAndEqualityChain(t *testing.T) {
	e, errs := parseExpr(t, "1 < 2 == 1", parser.Constant)
	require.False(t, errs.HasErrors())
	top, ok := e.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpEq, top.Op, "== binds looser than <")
}
