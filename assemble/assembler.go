package assemble

import (
	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
	"github.com/storance/dcpu16-sub000/parser"
)

// Result is the output of a complete assemble pass: the final word image
// plus the symbol table it was built against, retained for a listing or
// symbol-dump flag.
type Result struct {
	Words   []uint16
	Symbols *parser.SymbolTable
}

// Assemble runs the full pipeline over source read from filename: lex,
// parse, build the symbol table, resolve every expression against it, run
// the size-fixpoint loop, and encode. It always returns a Result; callers
// should check errs.HasErrors() before trusting Result.Words.
func Assemble(source []byte, filename string, errs *lexer.ErrorList) Result {
	lx := lexer.NewLexer(string(source), filename)
	lx.Errors = *errs
	toks := lx.TokenizeAll()
	*errs = lx.Errors

	p := parser.NewParser(toks, errs)
	prog := p.Parse()

	return AssembleProgram(prog, errs)
}

// AssembleProgram runs the resolver/compression/encoder back half of the
// pipeline over an already-parsed program, e.g. for tests that construct an
// ast.Program directly.
func AssembleProgram(prog ast.Program, errs *lexer.ErrorList) Result {
	a := New(prog, errs)
	a.build()
	if errs.HasErrors() {
		return Result{Symbols: a.syms}
	}
	a.resolveAll()
	if errs.HasErrors() {
		return Result{Symbols: a.syms}
	}
	a.compress()
	if errs.HasErrors() {
		return Result{Symbols: a.syms}
	}
	words := a.Encode()
	return Result{Words: words, Symbols: a.syms}
}
