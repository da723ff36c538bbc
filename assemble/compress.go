package assemble

import (
	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
)

// compress runs the size-fixpoint loop: both operands of every instruction
// are re-evaluated against the now-fully-resolved symbol table, and any
// statement whose actual encoded size differs from its cached size shifts
// every later symbol by the difference via SymbolTable.UpdateAfter.
// Position-A non-indirect literal/symbol operands start at the zero-word
// short form; once one of them is observed to need the long form it is
// pinned there permanently and never shrinks back, which is what keeps the
// loop from oscillating on it. Indirect [register+offset] operands are not
// pinned.
func (a *Assembler) compress() {
	ev := newEvaluator(a.syms, a.errs, true, a.warnedZeroAt)

	iterations := 0
	for {
		iterations++
		if iterations > maxCompressIterations {
			a.errs.AddError(lexer.Position{}, lexer.ErrorInternal,
				"operand sizes did not converge after %d iterations", maxCompressIterations)
			return
		}

		changed := false
		var pc uint32

		for i, stmt := range a.prog.Statements {
			switch n := stmt.(type) {
			case *ast.OrgStmt:
				v := ev.eval(n.Offset).Value
				if v < 0 {
					v = 0
				}
				pc = uint32(v)
			case *ast.FillStmt:
				pc += uint32(a.cache[i].aSize)
			case *ast.AlignStmt:
				pc += uint32(a.cache[i].aSize)
			case *ast.DataStmt:
				size := len(n.Values)
				if n.Packed {
					size = (size + 1) / 2
				}
				pc += uint32(size)
			case *ast.InstructionStmt:
				c := a.cache[i]
				newA := a.resolveLiteralSize(n.A, true, ev, &c.aForceNextWord)
				newB := a.resolveLiteralSize(n.B, false, ev, &c.bForceNextWord)
				if newA != c.aSize {
					a.syms.UpdateAfter(uint16(pc), newA-c.aSize)
					c.aSize = newA
					changed = true
				}
				if newB != c.bSize {
					a.syms.UpdateAfter(uint16(pc), newB-c.bSize)
					c.bSize = newB
					changed = true
				}
				pc += 1 + uint32(c.aSize) + uint32(c.bSize)
			}
		}

		if !changed {
			if pc > maxWords {
				a.errs.AddError(lexer.Position{}, lexer.ErrorInternal,
					"program image is %d words, exceeds the %d word address space", pc, maxWords)
			}
			return
		}
	}
}

// resolveLiteralSize returns the number of extension words arg contributes,
// given the fully-resolved symbol table. Only a non-indirect, non-register
// position-A operand can take the zero-word short-literal form; pinned
// latches true the first time such an operand is found to need the long
// form and is never reset, so a later iteration cannot shrink it back down.
func (a *Assembler) resolveLiteralSize(arg *ast.Argument, isA bool, ev *evaluator, pinned *bool) int {
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
		evald := ev.eval(arg.Expr)
		if evald.HasRegister {
			if evald.HasValue && evald.Value != 0 {
				return 1
			}
			return 0
		}
		return 1
	}

	evald := ev.eval(arg.Expr)
	if evald.HasRegister {
		return 0
	}
	if !isA {
		return 1
	}
	if *pinned {
		return 1
	}
	if evald.Value >= -1 && evald.Value <= 30 {
		return 0
	}
	*pinned = true
	return 1
}
