package assemble

import (
	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/isa"
	"github.com/storance/dcpu16-sub000/lexer"
)

// Encode walks the resolved, size-stable program and emits its final word
// image. Call it only after a successful Assemble pass (build, resolveAll,
// compress); the operand sizes baked into a.cache during compress are what
// keep this walk's running pc identical to the one compress converged on.
func (a *Assembler) Encode() []uint16 {
	image := make([]uint16, maxWords)
	ev := newEvaluator(a.syms, a.errs, false, a.warnedZeroAt)

	var pc uint32
	var highWater uint32

	write := func(v uint16) {
		if pc >= maxWords {
			a.errs.AddError(lexer.Position{}, lexer.ErrorInternal,
				"program exceeds the %d word address space", maxWords)
			return
		}
		image[pc] = v
		pc++
		if pc > highWater {
			highWater = pc
		}
	}

	for i, stmt := range a.prog.Statements {
		switch n := stmt.(type) {
		case *ast.OrgStmt:
			v := ev.eval(n.Offset).Value
			if v < 0 {
				v = 0
			}
			pc = uint32(v)
		case *ast.EquStmt:
			// carries no output of its own
		case *ast.FillStmt:
			count := a.cache[i].aSize
			val := uint16(ev.eval(n.Value).Value)
			for k := 0; k < count; k++ {
				write(val)
			}
		case *ast.AlignStmt:
			// Each filler word is `SET A, A`: opcode SET with both operand
			// fields naming register A (code 0).
			count := a.cache[i].aSize
			for k := 0; k < count; k++ {
				write(uint16(isa.SET))
			}
		case *ast.DataStmt:
			if n.Packed {
				for k := 0; k < len(n.Values); k += 2 {
					hi := uint16(ev.eval(n.Values[k]).Value) & 0xff
					var lo uint16
					if k+1 < len(n.Values) {
						lo = uint16(ev.eval(n.Values[k+1]).Value) & 0xff
					}
					write(hi<<8 | lo)
				}
			} else {
				for _, v := range n.Values {
					write(uint16(ev.eval(v).Value))
				}
			}
		case *ast.InstructionStmt:
			a.encodeInstruction(n, i, ev, write)
		}
	}

	return image[:highWater]
}

func (a *Assembler) encodeInstruction(n *ast.InstructionStmt, i int, ev *evaluator, write func(uint16)) {
	c := a.cache[i]

	if op, ok := isa.SpecialMnemonics[n.Mnemonic]; ok {
		aCode, aExt, aHas, ok := a.encodeArgument(n.A, true, ev, c.aForceNextWord)
		if !ok {
			return
		}
		write(uint16(aCode)<<10 | uint16(op)<<5)
		if aHas {
			write(aExt)
		}
		return
	}

	op, ok := isa.BasicMnemonics[n.Mnemonic]
	if !ok {
		a.errs.AddError(n.Pos, lexer.ErrorInternal, "unresolved mnemonic '%s'", n.Mnemonic)
		return
	}

	// Operands are decoded (and so encoded) A before B, per the original
	// instruction-fetch order; whichever has an extension word writes it in
	// that order.
	aCode, aExt, aHas, okA := a.encodeArgument(n.A, true, ev, c.aForceNextWord)
	bCode, bExt, bHas, okB := a.encodeArgument(n.B, false, ev, c.bForceNextWord)
	if !okA || !okB {
		return
	}
	write(uint16(aCode)<<10 | uint16(bCode)<<5 | uint16(op))
	if aHas {
		write(aExt)
	}
	if bHas {
		write(bExt)
	}
}

// encodeArgument produces the 6-bit operand code for arg plus its optional
// extension word. pinned mirrors the compress-loop decision for this exact
// slot: once an operand was found to need the long literal form, it must
// encode long even if, evaluated now, its value happens to fit short, or
// the emitted word count would disagree with the address layout compress
// already committed to.
func (a *Assembler) encodeArgument(arg *ast.Argument, isA bool, ev *evaluator, pinned bool) (code uint8, ext uint16, hasExt bool, ok bool) {
	if arg == nil {
		return 0, 0, false, true
	}

	if arg.IsStack {
		switch arg.Stack {
		case ast.StackPush, ast.StackPop:
			return 0x18, 0, false, true
		case ast.StackPeek:
			return 0x19, 0, false, true
		case ast.StackPick:
			v := ev.eval(arg.Pick).Value
			return 0x1a, uint16(v), true, true
		}
	}

	evald := ev.eval(arg.Expr)

	if arg.Indirect {
		if evald.HasRegister {
			reg := evald.Reg
			if reg == lexer.RegSP {
				if evald.HasValue && evald.Value != 0 {
					return 0x1a, uint16(evald.Value), true, true
				}
				return 0x19, 0, false, true
			}
			if reg > lexer.RegJ {
				a.errs.AddError(arg.Pos, lexer.ErrorInvalidOperand, "register %s is not valid inside [ ]", reg)
				return 0, 0, false, false
			}
			if evald.HasValue && evald.Value != 0 {
				return 0x10 + uint8(reg), uint16(evald.Value), true, true
			}
			return 0x08 + uint8(reg), 0, false, true
		}
		return 0x1e, uint16(evald.Value), true, true
	}

	if evald.HasRegister && !evald.HasValue {
		switch evald.Reg {
		case lexer.RegSP:
			return 0x1b, 0, false, true
		case lexer.RegPC:
			return 0x1c, 0, false, true
		case lexer.RegEX:
			return 0x1d, 0, false, true
		case lexer.RegIA:
			a.errs.AddError(arg.Pos, lexer.ErrorInvalidOperand, "IA may not be used directly as an operand")
			return 0, 0, false, false
		default:
			return uint8(evald.Reg), 0, false, true
		}
	}

	if isA && !pinned && evald.Value >= -1 && evald.Value <= 30 {
		return uint8(int(evald.Value) + 0x21), 0, false, true
	}
	return 0x1f, uint16(evald.Value), true, true
}
