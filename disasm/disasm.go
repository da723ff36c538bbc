// Package disasm turns a word image back into canonical assembly text,
// mirroring the operand table the assemble package's encoder uses.
package disasm

import (
	"fmt"

	"github.com/storance/dcpu16-sub000/isa"
)

var regNames = [8]string{"A", "B", "C", "X", "Y", "Z", "I", "J"}

// NumberBase selects how decoded operand literals are rendered.
type NumberBase int

const (
	Hex NumberBase = iota
	Decimal
	Octal
)

func (b NumberBase) format(v uint16) string {
	switch b {
	case Decimal:
		return fmt.Sprintf("%d", v)
	case Octal:
		return fmt.Sprintf("0o%o", v)
	default:
		return fmt.Sprintf("0x%x", v)
	}
}

// Line is one decoded instruction: its starting word offset, the raw words
// it consumed, and its rendered mnemonic text.
type Line struct {
	Offset uint16
	Raw    []uint16
	Text   string
}

// Disassemble decodes the entire word image, one instruction per Line, in
// address order, rendering operand literals in hex. A word that does not
// decode to a known opcode, or whose operand needs a trailing extension
// word past the end of the image, is rendered as a raw ".word" directive
// instead of aborting the whole pass.
func Disassemble(words []uint16) []Line {
	return DisassembleBase(words, Hex)
}

// DisassembleBase is Disassemble with the operand-literal number base
// selected explicitly, for front ends offering -c/-d/-h style flags.
func DisassembleBase(words []uint16, base NumberBase) []Line {
	var lines []Line
	pc := 0
	for pc < len(words) {
		start := pc
		w := words[pc]
		pc++

		op := w & 0x1f
		bField := uint8((w >> 5) & 0x1f)
		aField := uint8((w >> 10) & 0x3f)

		var text string
		if op != 0 {
			name, ok := isa.BasicNames[isa.BasicOp(op)]
			if ok {
				// Operand A's extension word precedes operand B's, in the
				// order the encoder emits them.
				aText, aok := decodeOperand(aField, words, &pc, true, base)
				bText, bok := decodeOperand(bField, words, &pc, false, base)
				if bok && aok {
					text = fmt.Sprintf("%s %s, %s", name, bText, aText)
				}
			}
		} else {
			name, ok := isa.SpecialNames[isa.SpecialOp(bField)]
			if ok {
				aText, aok := decodeOperand(aField, words, &pc, true, base)
				if aok {
					text = fmt.Sprintf("%s %s", name, aText)
				}
			}
		}

		if text == "" {
			pc = start + 1
			text = fmt.Sprintf(".word 0x%04x", w)
		}

		lines = append(lines, Line{
			Offset: uint16(start),
			Raw:    append([]uint16(nil), words[start:pc]...),
			Text:   text,
		})
	}
	return lines
}

// decodeOperand renders the operand named by code, consuming a trailing
// extension word from words (advancing *idx) where the encoding requires
// one. isA controls the one code (0x18) whose meaning depends on operand
// position: POP in position A, PUSH in position B.
func decodeOperand(code uint8, words []uint16, idx *int, isA bool, base NumberBase) (string, bool) {
	switch {
	case code <= 0x07:
		return regNames[code], true
	case code <= 0x0f:
		return "[" + regNames[code-0x08] + "]", true
	case code <= 0x17:
		next, ok := takeWord(words, idx)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("[%s+%s]", regNames[code-0x10], base.format(next)), true
	case code == 0x18:
		if isA {
			return "POP", true
		}
		return "PUSH", true
	case code == 0x19:
		return "PEEK", true
	case code == 0x1a:
		next, ok := takeWord(words, idx)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("PICK %d", int16(next)), true
	case code == 0x1b:
		return "SP", true
	case code == 0x1c:
		return "PC", true
	case code == 0x1d:
		return "EX", true
	case code == 0x1e:
		next, ok := takeWord(words, idx)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("[%s]", base.format(next)), true
	case code == 0x1f:
		next, ok := takeWord(words, idx)
		if !ok {
			return "", false
		}
		return base.format(next), true
	default: // 0x20-0x3f: short-form literal -1..30
		return fmt.Sprintf("%d", int(code)-0x21), true
	}
}

func takeWord(words []uint16, idx *int) (uint16, bool) {
	if *idx >= len(words) {
		return 0, false
	}
	w := words[*idx]
	*idx++
	return w, true
}
