// Package assemble implements the symbol resolver, the instruction
// compression loop, and the encoder: the back half of the assembler
// pipeline, operating on an ast.Program produced by the parser package.
package assemble

import (
	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
	"github.com/storance/dcpu16-sub000/parser"
)

const maxWords = 65535
const maxCompressIterations = 1000

// Assembler drives the resolver/compression/encoder pipeline over a single
// parsed program.
type Assembler struct {
	prog         ast.Program
	errs         *lexer.ErrorList
	syms         *parser.SymbolTable
	offsets      []uint16 // statement start offset, parallel to prog.Statements
	cache        map[int]*argCache
	warnedZeroAt map[string]bool
}

type argCache struct {
	aSize, bSize               int
	aForceNextWord, bForceNextWord bool
}

// New constructs an Assembler for prog, reporting diagnostics into errs.
func New(prog ast.Program, errs *lexer.ErrorList) *Assembler {
	return &Assembler{
		prog:         prog,
		errs:         errs,
		syms:         parser.NewSymbolTable(),
		cache:        make(map[int]*argCache),
		warnedZeroAt: make(map[string]bool),
	}
}

// Symbols exposes the built symbol table, e.g. for a "--symbols-print" CLI
// flag.
func (a *Assembler) Symbols() *parser.SymbolTable {
	return a.syms
}

// exprsRequiringNoForwardRefs returns the expressions of stmt that must be
// resolvable using only symbols already inserted into the table at the
// point the build pass reaches this statement: the count of a .fill, the
// offset of a .org, and the boundary of a .align. Everything else
// (instruction operands, data values, fill values, equ values) may
// reference a symbol defined later in the file and is resolved in the
// later, whole-table resolve pass.
func exprsRequiringNoForwardRefs(stmt ast.Stmt) []*ast.Expr {
	switch n := stmt.(type) {
	case *ast.OrgStmt:
		return []*ast.Expr{&n.Offset}
	case *ast.FillStmt:
		return []*ast.Expr{&n.Count}
	case *ast.AlignStmt:
		return []*ast.Expr{&n.Boundary}
	}
	return nil
}

// build performs the build-symbol-table pass: walk the statement list with
// a running PC computed under the optimistic assumption that every
// variable-size operand is as small as possible, inserting labels, '$'
// positions, and eagerly resolving/evaluating the no-forward-ref
// expressions (.org offset, .fill count, .align boundary) that determine
// each statement's contribution to that running PC.
func (a *Assembler) build() {
	var pc uint32

	for i, stmt := range a.prog.Statements {
		offset := uint16(pc)
		a.offsets = append(a.offsets, offset)

		var labelIndexes []int
		for _, label := range stmt.Labels() {
			idx, err := a.syms.AddLabel(label, offset)
			if err != nil {
				a.errs.AddError(label.Pos, lexer.ErrorDuplicateSymbol, "%s", err.Error())
				continue
			}
			labelIndexes = append(labelIndexes, idx)
		}

		if eq, ok := stmt.(*ast.EquStmt); ok {
			if len(labelIndexes) == 0 {
				a.errs.AddError(eq.Pos, lexer.ErrorInvalidDirective, ".EQU without label")
			} else {
				a.syms.AddEqu(labelIndexes[len(labelIndexes)-1], eq.Value)
			}
		}

		for _, slot := range exprsRequiringNoForwardRefs(stmt) {
			*slot = a.resolveExpr(*slot, offset)
		}
		a.registerCurrentPositions(stmt, offset)

		switch n := stmt.(type) {
		case *ast.OrgStmt:
			// Legality of this statement's position (no prior label or
			// instruction) was already checked by the parser; this pass
			// just applies the offset.
			ev := newEvaluator(a.syms, a.errs, false, a.warnedZeroAt)
			v := ev.eval(n.Offset).Value
			if v < 0 {
				a.errs.AddError(n.Pos, lexer.ErrorInvalidDirective, "negative .org")
				v = 0
			}
			pc = uint32(v)
			a.offsets[i] = uint16(pc)
			continue
		case *ast.FillStmt:
			ev := newEvaluator(a.syms, a.errs, false, a.warnedZeroAt)
			count := ev.eval(n.Count).Value
			if count < 0 {
				count = 0
			}
			a.cache[i] = &argCache{aSize: int(count)}
			pc += uint32(count)
			continue
		case *ast.AlignStmt:
			ev := newEvaluator(a.syms, a.errs, false, a.warnedZeroAt)
			boundary := ev.eval(n.Boundary).Value
			size := 0
			if boundary > 0 {
				rem := pc % uint32(boundary)
				if rem != 0 {
					size = int(uint32(boundary) - rem)
				}
			}
			a.cache[i] = &argCache{aSize: size}
			pc += uint32(size)
			continue
		case *ast.DataStmt:
			size := len(n.Values)
			if n.Packed {
				size = (size + 1) / 2
			}
			pc += uint32(size)
			continue
		case *ast.InstructionStmt:
			c := &argCache{}
			c.aSize = optimisticArgSize(n.A, true)
			c.bSize = optimisticArgSize(n.B, false)
			a.cache[i] = c
			pc += 1 + uint32(c.aSize) + uint32(c.bSize)
			continue
		}
	}
}

func optimisticArgSize(arg *ast.Argument, isA bool) int {
	if arg == nil {
		return 0
	}
	if arg.IsStack {
		if arg.Stack == ast.StackPick {
			return 1
		}
		return 0
	}
	if _, ok := arg.Expr.(ast.RegisterExpr); ok {
		return 0
	}
	if arg.Indirect {
		return 1
	}
	if isA {
		return 0 // optimistic: assume it will fit the short-literal form
	}
	return 1 // position B never short-forms
}

// resolveExpr rebuilds e with every SymbolRef/CurrentPosition leaf bound to
// its stable symbol-table index, using offset to compose local-label
// names. A lookup failure reports an error and substitutes ast.Invalid so
// later passes do not cascade.
func (a *Assembler) resolveExpr(e ast.Expr, offset uint16) ast.Expr {
	switch n := e.(type) {
	case ast.SymbolRef:
		idx, err := a.syms.Lookup(n.Name, offset)
		if err != nil {
			a.errs.AddError(n.Pos, lexer.ErrorUndefinedSymbol, "%s", err.Error())
			return ast.NewInvalid(n.Pos)
		}
		n.Index = idx
		return n
	case ast.CurrentPosition:
		idx, err := a.syms.LookupLocation(n.Pos)
		if err != nil {
			a.errs.AddError(n.Pos, lexer.ErrorInternal, "%s", err.Error())
			return ast.NewInvalid(n.Pos)
		}
		n.Index = idx
		return n
	case ast.UnaryExpr:
		n.Operand = a.resolveExpr(n.Operand, offset)
		return n
	case ast.BinaryExpr:
		n.Left = a.resolveExpr(n.Left, offset)
		n.Right = a.resolveExpr(n.Right, offset)
		return n
	default:
		return e
	}
}

func (a *Assembler) registerCurrentPositions(stmt ast.Stmt, offset uint16) {
	for _, e := range exprsOf(stmt) {
		registerCurrentPositionsIn(*e, offset, a.syms)
	}
}

func registerCurrentPositionsIn(e ast.Expr, offset uint16, syms *parser.SymbolTable) {
	switch n := e.(type) {
	case ast.CurrentPosition:
		syms.AddLocation(n.Pos, offset)
	case ast.UnaryExpr:
		registerCurrentPositionsIn(n.Operand, offset, syms)
	case ast.BinaryExpr:
		registerCurrentPositionsIn(n.Left, offset, syms)
		registerCurrentPositionsIn(n.Right, offset, syms)
	}
}

// exprsOf returns pointers to every top-level expression field of stmt, so
// callers can resolve or re-evaluate them uniformly.
func exprsOf(stmt ast.Stmt) []*ast.Expr {
	switch n := stmt.(type) {
	case *ast.InstructionStmt:
		var out []*ast.Expr
		if n.A != nil {
			if n.A.IsStack {
				if n.A.Stack == ast.StackPick {
					out = append(out, &n.A.Pick)
				}
			} else {
				out = append(out, &n.A.Expr)
			}
		}
		if n.B != nil {
			if n.B.IsStack {
				if n.B.Stack == ast.StackPick {
					out = append(out, &n.B.Pick)
				}
			} else {
				out = append(out, &n.B.Expr)
			}
		}
		return out
	case *ast.DataStmt:
		out := make([]*ast.Expr, len(n.Values))
		for i := range n.Values {
			out[i] = &n.Values[i]
		}
		return out
	case *ast.FillStmt:
		return []*ast.Expr{&n.Count, &n.Value}
	case *ast.OrgStmt:
		return []*ast.Expr{&n.Offset}
	case *ast.EquStmt:
		return []*ast.Expr{&n.Value}
	case *ast.AlignStmt:
		return []*ast.Expr{&n.Boundary}
	}
	return nil
}

// resolveAll runs the whole-table resolve pass: every expression not
// already bound by the no-forward-ref build-pass step is resolved now,
// with the complete symbol table available so forward references succeed.
func (a *Assembler) resolveAll() {
	for i, stmt := range a.prog.Statements {
		offset := a.offsets[i]
		for _, slot := range exprsOf(stmt) {
			*slot = a.resolveExpr(*slot, offset)
		}
		// The symbol table's copy of an .equ expression was taken by the
		// build pass before resolution; point it at the resolved one.
		if eq, ok := stmt.(*ast.EquStmt); ok && len(eq.Tags) > 0 {
			if idx, err := a.syms.Lookup(eq.Tags[len(eq.Tags)-1].Name, offset); err == nil {
				a.syms.Get(idx).Equ = eq.Value
			}
		}
	}
}
