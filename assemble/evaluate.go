package assemble

import (
	"fmt"

	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
	"github.com/storance/dcpu16-sub000/parser"
)

// evaluator folds an ast.Expr into ast.Evaluated, matching the semantics of
// the original expression_evaluator: binary operators compute in signed
// 32-bit, equ chains evaluate transparently (rebasing the location for
// diagnostics), and divide/modulo by zero yield zero, warning once per
// source location unless intermediary (used by the compression loop, which
// must not spam warnings while iterating over a not-yet-valid layout).
type evaluator struct {
	syms         *parser.SymbolTable
	errs         *lexer.ErrorList
	intermediary bool
	warnedZeroAt map[string]bool
}

func newEvaluator(syms *parser.SymbolTable, errs *lexer.ErrorList, intermediary bool, warnedZeroAt map[string]bool) *evaluator {
	return &evaluator{syms: syms, errs: errs, intermediary: intermediary, warnedZeroAt: warnedZeroAt}
}

func (ev *evaluator) eval(e ast.Expr) ast.Evaluated {
	switch n := e.(type) {
	case ast.Evaluated:
		return n
	case ast.Literal:
		return ast.NewEvaluatedValue(n.Pos, int32(n.Value))
	case ast.RegisterExpr:
		return ast.NewEvaluatedRegister(n.Pos, n.Reg)
	case ast.CurrentPosition:
		sym := ev.syms.Get(n.Index)
		return ast.NewEvaluatedValue(n.Pos, int32(sym.Offset))
	case ast.SymbolRef:
		sym := ev.syms.Get(n.Index)
		if sym.Kind == parser.SymbolEqu {
			inner := ev.eval(sym.Equ)
			switch {
			case inner.HasRegister && inner.HasValue:
				return ast.NewEvaluatedRegisterValue(n.Pos, inner.Reg, inner.Value)
			case inner.HasRegister:
				return ast.NewEvaluatedRegister(n.Pos, inner.Reg)
			default:
				return ast.NewEvaluatedValue(n.Pos, inner.Value)
			}
		}
		return ast.NewEvaluatedValue(n.Pos, int32(sym.Offset))
	case ast.UnaryExpr:
		return ev.evalUnary(n)
	case ast.BinaryExpr:
		return ev.evalBinary(n)
	case ast.Invalid:
		return ast.NewEvaluatedValue(n.Pos, 0)
	default:
		return ast.NewEvaluatedValue(e.Position(), 0)
	}
}

func (ev *evaluator) evalUnary(n ast.UnaryExpr) ast.Evaluated {
	operand := ev.eval(n.Operand)
	if operand.HasRegister {
		ev.errs.AddError(n.Pos, lexer.ErrorInvalidOperand, "register not allowed here")
		return ast.NewEvaluatedValue(n.Pos, 0)
	}
	v := operand.Value
	var result int32
	switch n.Op {
	case ast.UnaryPlus:
		result = v
	case ast.UnaryMinus:
		result = -v
	case ast.UnaryNot:
		if v != 0 {
			result = 0
		} else {
			result = 1
		}
	case ast.UnaryBitNot:
		result = ^v
	}
	return ast.NewEvaluatedValue(n.Pos, result)
}

func (ev *evaluator) evalBinary(n ast.BinaryExpr) ast.Evaluated {
	left := ev.eval(n.Left)
	right := ev.eval(n.Right)

	var hasReg bool
	var reg lexer.Register
	if left.HasRegister {
		hasReg, reg = true, left.Reg
	} else if right.HasRegister {
		hasReg, reg = true, right.Reg
	}

	lv, rv := left.Value, right.Value
	var value int32

	switch n.Op {
	case ast.OpAdd:
		value = lv + rv
	case ast.OpSub:
		value = lv - rv
	case ast.OpMul:
		value = lv * rv
	case ast.OpDiv:
		if rv == 0 {
			ev.warnDivZero(n.Pos)
			value = 0
		} else {
			value = lv / rv
		}
	case ast.OpMod:
		if rv == 0 {
			ev.warnDivZero(n.Pos)
			value = 0
		} else {
			value = lv % rv
		}
	case ast.OpShl:
		value = lv << uint32(rv)
	case ast.OpShr:
		value = lv >> uint32(rv)
	case ast.OpBitAnd:
		value = lv & rv
	case ast.OpBitOr:
		value = lv | rv
	case ast.OpBitXor:
		value = lv ^ rv
	case ast.OpEq:
		value = boolInt(lv == rv)
	case ast.OpNeq:
		value = boolInt(lv != rv)
	case ast.OpLt:
		value = boolInt(lv < rv)
	case ast.OpLte:
		value = boolInt(lv <= rv)
	case ast.OpGt:
		value = boolInt(lv > rv)
	case ast.OpGte:
		value = boolInt(lv >= rv)
	case ast.OpAnd:
		value = boolInt(lv != 0 && rv != 0)
	case ast.OpOr:
		value = boolInt(lv != 0 || rv != 0)
	}

	if hasReg {
		return ast.NewEvaluatedRegisterValue(n.Pos, reg, value)
	}
	return ast.NewEvaluatedValue(n.Pos, value)
}

func (ev *evaluator) warnDivZero(pos lexer.Position) {
	if ev.intermediary {
		return
	}
	key := fmt.Sprintf("%s", pos)
	if ev.warnedZeroAt[key] {
		return
	}
	ev.warnedZeroAt[key] = true
	ev.errs.AddWarning(pos, "division or modulo by zero")
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
