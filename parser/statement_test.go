package parser_test

import (
	"testing"

	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
	"github.com/storance/dcpu16-sub000/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseProgram(t *testing.T, src string) (ast.Program, *lexer.ErrorList) {
	t.Helper()
	errs := &lexer.ErrorList{}
	p := parser.NewParser(tokenize(t, src), errs)
	return p.Parse(), errs
}

func TestParser_InstructionOperandOrderIsDestinationThenValue(t *testing.T) {
	prog, errs := parseProgram(t, "SET A, B\n")
	require.False(t, errs.HasErrors())
	require.Len(t, prog.Statements, 1)

	inst, ok := prog.Statements[0].(*ast.InstructionStmt)
	require.True(t, ok)
	// Source reads "SET A, B": A is the destination (position B), B is the
	// value (position A).
	bReg := inst.B.Expr.(ast.RegisterExpr)
	aReg := inst.A.Expr.(ast.RegisterExpr)
	assert.Equal(t, lexer.RegA, bReg.Reg)
	assert.Equal(t, lexer.RegB, aReg.Reg)
}

func TestParser_BasicMnemonicRequiresTwoOperands(t *testing.T) {
	_, errs := parseProgram(t, "SET A\n")
	assert.True(t, errs.HasErrors())
}

func TestParser_SpecialMnemonicRequiresExactlyOneOperand(t *testing.T) {
	_, errs := parseProgram(t, "JSR\n")
	assert.True(t, errs.HasErrors())
}

func TestParser_SpecialMnemonicWithDummyOperandParsesCleanly(t *testing.T) {
	_, errs := parseProgram(t, "HCF 0\n")
	assert.False(t, errs.HasErrors())
}

func TestParser_UnknownMnemonicIsError(t *testing.T) {
	_, errs := parseProgram(t, "FROB A, B\n")
	assert.True(t, errs.HasErrors())
}

func TestParser_JmpExpandsToSetPC(t *testing.T) {
	prog, errs := parseProgram(t, "JMP sub\n")
	require.False(t, errs.HasErrors())
	require.Len(t, prog.Statements, 1)

	inst := prog.Statements[0].(*ast.InstructionStmt)
	assert.Equal(t, "SET", inst.Mnemonic)
	bReg, ok := inst.B.Expr.(ast.RegisterExpr)
	require.True(t, ok)
	assert.Equal(t, lexer.RegPC, bReg.Reg)
	ref, ok := inst.A.Expr.(ast.SymbolRef)
	require.True(t, ok)
	assert.Equal(t, "sub", ref.Name)
}

func TestParser_PushExpandsToSetWithStackDestination(t *testing.T) {
	prog, errs := parseProgram(t, "PUSH A\n")
	require.False(t, errs.HasErrors())
	inst := prog.Statements[0].(*ast.InstructionStmt)
	assert.True(t, inst.B.IsStack)
	assert.Equal(t, ast.StackPush, inst.B.Stack)
}

func TestParser_PopExpandsToSetWithStackSource(t *testing.T) {
	prog, errs := parseProgram(t, "POP A\n")
	require.False(t, errs.HasErrors())
	inst := prog.Statements[0].(*ast.InstructionStmt)
	assert.True(t, inst.A.IsStack)
	assert.Equal(t, ast.StackPop, inst.A.Stack)
}

func TestParser_PushIllegalInOperandPositionA(t *testing.T) {
	_, errs := parseProgram(t, "SET [--SP], [--SP]\n")
	assert.True(t, errs.HasErrors())
}

func TestParser_PopIllegalInOperandPositionB(t *testing.T) {
	_, errs := parseProgram(t, "SET [SP++], A\n")
	assert.True(t, errs.HasErrors())
}

func TestParser_GlobalLabelSuffixForm(t *testing.T) {
	prog, errs := parseProgram(t, "loop: SET A, 1\n")
	require.False(t, errs.HasErrors())
	require.Len(t, prog.Statements, 1)
	inst := prog.Statements[0].(*ast.InstructionStmt)
	require.Len(t, inst.Tags, 1)
	assert.Equal(t, "loop", inst.Tags[0].Name)
	assert.Equal(t, ast.LabelGlobal, inst.Tags[0].Kind)
}

func TestParser_GlobalLabelPrefixForm(t *testing.T) {
	prog, errs := parseProgram(t, ":loop SET A, 1\n")
	require.False(t, errs.HasErrors())
	inst := prog.Statements[0].(*ast.InstructionStmt)
	require.Len(t, inst.Tags, 1)
	assert.Equal(t, "loop", inst.Tags[0].Name)
}

func TestParser_LocalLabelDetectedByLeadingDot(t *testing.T) {
	prog, errs := parseProgram(t, "foo:\n.inner: SET A, 1\n")
	require.False(t, errs.HasErrors())
	require.Len(t, prog.Statements, 1)
	inst := prog.Statements[0].(*ast.InstructionStmt)
	require.Len(t, inst.Tags, 2, "foo carries forward alongside .inner on the instruction line")
	assert.Equal(t, ast.LabelGlobal, inst.Tags[0].Kind)
	assert.Equal(t, ast.LabelLocal, inst.Tags[1].Kind)
}

func TestParser_LabelOnlyLineCarriesForwardToNextStatement(t *testing.T) {
	prog, errs := parseProgram(t, "a:\nb:\nSET A, 1\n")
	require.False(t, errs.HasErrors())
	require.Len(t, prog.Statements, 1)
	inst := prog.Statements[0].(*ast.InstructionStmt)
	require.Len(t, inst.Tags, 2)
	assert.Equal(t, "a", inst.Tags[0].Name)
	assert.Equal(t, "b", inst.Tags[1].Name)
}

func TestParser_OrgDirective(t *testing.T) {
	prog, errs := parseProgram(t, ".org 0x10\n")
	require.False(t, errs.HasErrors())
	require.Len(t, prog.Statements, 1)
	_, ok := prog.Statements[0].(*ast.OrgStmt)
	assert.True(t, ok)
}

func TestParser_EquWithoutLabelIsError(t *testing.T) {
	_, errs := parseProgram(t, ".equ 5\n")
	assert.True(t, errs.HasErrors())
}

func TestParser_EquWithLabelParsesCleanly(t *testing.T) {
	prog, errs := parseProgram(t, "width: .equ 80\n")
	require.False(t, errs.HasErrors())
	stmt, ok := prog.Statements[0].(*ast.EquStmt)
	require.True(t, ok)
	require.Len(t, stmt.Tags, 1)
	assert.Equal(t, "width", stmt.Tags[0].Name)
}

func TestParser_FillDirectiveRequiresTwoArguments(t *testing.T) {
	_, errs := parseProgram(t, ".fill 4\n")
	assert.True(t, errs.HasErrors())
}

func TestParser_DatDirectiveMixesIntegersAndStrings(t *testing.T) {
	prog, errs := parseProgram(t, `.dat 1, "hi", 2`+"\n")
	require.False(t, errs.HasErrors())
	stmt, ok := prog.Statements[0].(*ast.DataStmt)
	require.True(t, ok)
	// 1 + 'h' + 'i' + 2
	require.Len(t, stmt.Values, 4)
}

func TestParser_BareDatWithoutLeadingDotIsDataDirective(t *testing.T) {
	// Dotless "DAT" is dispatched to parseDirective like ".dat", not
	// treated as an instruction mnemonic.
	prog, errs := parseProgram(t, "DAT 1, 2\n")
	require.False(t, errs.HasErrors())
	stmt, ok := prog.Statements[0].(*ast.DataStmt)
	require.True(t, ok)
	assert.Len(t, stmt.Values, 2)
}

func TestParser_UnknownDirectiveIsError(t *testing.T) {
	_, errs := parseProgram(t, ".frobnicate 1\n")
	assert.True(t, errs.HasErrors())
}

func TestParser_IndirectOperandWithRegisterOffset(t *testing.T) {
	prog, errs := parseProgram(t, "SET [B+1], A\n")
	require.False(t, errs.HasErrors())
	inst := prog.Statements[0].(*ast.InstructionStmt)
	assert.True(t, inst.B.Indirect)
}

func TestParser_PickTakesAnOffsetOperand(t *testing.T) {
	prog, errs := parseProgram(t, "SET A, PICK 3\n")
	require.False(t, errs.HasErrors())
	inst := prog.Statements[0].(*ast.InstructionStmt)
	assert.True(t, inst.A.IsStack)
	assert.Equal(t, ast.StackPick, inst.A.Stack)
	lit, ok := inst.A.Pick.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, uint32(3), lit.Value)
}

func TestParser_RecoversAfterBadStatementAndContinuesParsing(t *testing.T) {
	prog, errs := parseProgram(t, "FROB A, B\nSET A, 1\n")
	assert.True(t, errs.HasErrors())
	require.Len(t, prog.Statements, 1, "the well-formed second line still parses after the first line's error")
	inst := prog.Statements[0].(*ast.InstructionStmt)
	assert.Equal(t, "SET", inst.Mnemonic)
}
