package parser_test

import (
	"testing"

	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
	"github.com/storance/dcpu16-sub000/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func label(name string, kind ast.LabelKind) ast.Label {
	return ast.Label{Name: name, Kind: kind}
}

func TestSymbolTable_GlobalLabelRoundTrip(t *testing.T) {
	syms := parser.NewSymbolTable()
	idx, err := syms.AddLabel(label("start", ast.LabelGlobal), 0)
	require.NoError(t, err)

	got, err := syms.Lookup("start", 100)
	require.NoError(t, err)
	assert.Equal(t, idx, got)
	assert.Equal(t, uint16(0), syms.Get(got).Offset)
}

func TestSymbolTable_LocalComposesWithMostRecentGlobal(t *testing.T) {
	syms := parser.NewSymbolTable()
	_, err := syms.AddLabel(label("foo", ast.LabelGlobal), 0)
	require.NoError(t, err)
	_, err = syms.AddLabel(label(".inner", ast.LabelLocal), 1)
	require.NoError(t, err)

	_, err = syms.AddLabel(label("bar", ast.LabelGlobal), 2)
	require.NoError(t, err)
	_, err = syms.AddLabel(label(".inner", ast.LabelLocal), 3)
	require.NoError(t, err)

	_, err = syms.Lookup(".inner", 1)
	assert.NoError(t, err, "lookup near foo should resolve to foo.inner")
	_, err = syms.Lookup(".inner", 3)
	assert.NoError(t, err, "lookup near bar should resolve to bar.inner")

	fooInner, _ := syms.Lookup("foo.inner", 0)
	barInner, _ := syms.Lookup("bar.inner", 0)
	assert.NotEqual(t, fooInner, barInner)
}

func TestSymbolTable_LocalBeforeAnyGlobalIsOrphan(t *testing.T) {
	syms := parser.NewSymbolTable()
	_, err := syms.AddLabel(label(".inner", ast.LabelLocal), 0)
	assert.Error(t, err)
}

func TestSymbolTable_DuplicateGlobalIsError(t *testing.T) {
	syms := parser.NewSymbolTable()
	_, err := syms.AddLabel(label("start", ast.LabelGlobal), 0)
	require.NoError(t, err)
	_, err = syms.AddLabel(label("start", ast.LabelGlobal), 5)
	assert.Error(t, err)
}

func TestSymbolTable_LookupUndefinedIsError(t *testing.T) {
	syms := parser.NewSymbolTable()
	_, err := syms.Lookup("nope", 0)
	assert.Error(t, err)
}

func TestSymbolTable_UpdateAfterShiftsLaterSymbolsOnly(t *testing.T) {
	syms := parser.NewSymbolTable()
	before, _ := syms.AddLabel(label("before", ast.LabelGlobal), 2)
	after, _ := syms.AddLabel(label("after", ast.LabelGlobal), 10)

	syms.UpdateAfter(5, 3)

	assert.Equal(t, uint16(2), syms.Get(before).Offset, "symbol at or before the edit point is untouched")
	assert.Equal(t, uint16(13), syms.Get(after).Offset, "symbol after the edit point shifts by amount")
}

func TestSymbolTable_EquOverridesLabelKind(t *testing.T) {
	syms := parser.NewSymbolTable()
	idx, err := syms.AddLabel(label("width", ast.LabelGlobal), 0)
	require.NoError(t, err)
	syms.AddEqu(idx, ast.NewLiteral(lexer.Position{}, 80))

	sym := syms.Get(idx)
	assert.Equal(t, parser.SymbolEqu, sym.Kind)
}

func TestSymbolTable_AllReturnsInsertionOrder(t *testing.T) {
	syms := parser.NewSymbolTable()
	_, _ = syms.AddLabel(label("first", ast.LabelGlobal), 0)
	_, _ = syms.AddLabel(label("second", ast.LabelGlobal), 1)

	all := syms.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "second", all[1].Name)
}
