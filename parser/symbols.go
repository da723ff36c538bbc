// Package parser implements the expression parser, statement parser, and
// symbol table used to build a resolved ast.Program from a token stream.
package parser

import (
	"fmt"

	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/lexer"
)

// SymbolKind classifies an entry in the SymbolTable.
type SymbolKind int

const (
	SymbolGlobal SymbolKind = iota
	SymbolLocal
	SymbolCurrentLocation
	SymbolEqu
)

// Symbol is one entry of the symbol table's arena. Offset is mutated in
// place by SymbolTable.UpdateAfter during the compression loop; expressions
// refer to symbols by their stable Index into SymbolTable.symbols rather
// than by pointer, so that mutation never invalidates an outstanding
// reference (see DESIGN.md's parser entry).
type Symbol struct {
	Pos    lexer.Position
	Kind   SymbolKind
	Name   string
	Offset uint16
	Equ    ast.Expr // set when Kind == SymbolEqu
}

// SymbolTable is the assembler's per-compilation symbol arena: an ordered
// list (for "most recent global label before offset X", walked by
// insertion order, not by offset value) plus a name-to-index hash for
// lookup.
type SymbolTable struct {
	symbols []Symbol
	byName  map[string]int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]int)}
}

// LastGlobalBefore returns the index of the most recently inserted global
// label whose offset is at or before offset, walking the arena in
// reverse insertion order. Per the original implementation this is an
// iteration-order search, not a search by numeric offset.
func (t *SymbolTable) LastGlobalBefore(offset uint16) (int, bool) {
	for i := len(t.symbols) - 1; i >= 0; i-- {
		if t.symbols[i].Kind == SymbolGlobal && t.symbols[i].Offset <= offset {
			return i, true
		}
	}
	return -1, false
}

// FullName composes a dot-prefixed local name with the name of the most
// recent enclosing global label. A local name with no enclosing global is
// returned unchanged: declaring it is an error caught by AddLabel, and
// referencing it fails later as an ordinary undefined symbol.
func (t *SymbolTable) FullName(name string, offset uint16) string {
	if len(name) == 0 || name[0] != '.' {
		return name
	}
	if idx, ok := t.LastGlobalBefore(offset); ok {
		return t.symbols[idx].Name + name
	}
	return name
}

func (t *SymbolTable) addSymbol(s Symbol) int {
	idx := len(t.symbols)
	t.symbols = append(t.symbols, s)
	t.byName[s.Name] = idx
	return idx
}

// AddLabel defines a new label at offset. Local labels (label.Kind ==
// ast.LabelLocal) are composed with the enclosing global's name; declaring
// one before any global label returns an error (the caller decides
// whether that is fatal, matching the "local before any global" rule).
func (t *SymbolTable) AddLabel(label ast.Label, offset uint16) (int, error) {
	name := label.Name
	kind := SymbolGlobal
	if label.Kind == ast.LabelLocal {
		if _, ok := t.LastGlobalBefore(offset); !ok {
			return -1, fmt.Errorf("local label '%s' defined before any non-local labels", label.Name)
		}
		name = t.FullName(label.Name, offset)
		kind = SymbolLocal
	}

	if existing, ok := t.byName[name]; ok {
		return -1, fmt.Errorf("redefinition of symbol '%s'; previously defined at %s", name, t.symbols[existing].Pos)
	}

	return t.addSymbol(Symbol{Pos: label.Pos, Kind: kind, Name: name, Offset: offset}), nil
}

// AddEqu defines an EQU symbol attached to the label most recently added by
// AddLabel, overwriting its kind and attaching the defining expression.
func (t *SymbolTable) AddEqu(labelIndex int, expr ast.Expr) {
	t.symbols[labelIndex].Kind = SymbolEqu
	t.symbols[labelIndex].Equ = expr
}

func nameForLocation(pos lexer.Position) string {
	return fmt.Sprintf("#%s", pos)
}

// AddLocation records a '$' reference site so its address can later be
// patched by UpdateAfter exactly like any other symbol.
func (t *SymbolTable) AddLocation(pos lexer.Position, offset uint16) int {
	return t.addSymbol(Symbol{Pos: pos, Kind: SymbolCurrentLocation, Name: nameForLocation(pos), Offset: offset})
}

// Lookup resolves name (composing local-label prefixes against offset) to
// its arena index.
func (t *SymbolTable) Lookup(name string, offset uint16) (int, error) {
	full := t.FullName(name, offset)
	idx, ok := t.byName[full]
	if !ok {
		return -1, fmt.Errorf("undefined symbol '%s'", name)
	}
	return idx, nil
}

// LookupLocation resolves a previously-recorded '$' reference site.
func (t *SymbolTable) LookupLocation(pos lexer.Position) (int, error) {
	idx, ok := t.byName[nameForLocation(pos)]
	if !ok {
		return -1, fmt.Errorf("unresolved '$' at compile time")
	}
	return idx, nil
}

// Get returns the symbol at idx.
func (t *SymbolTable) Get(idx int) *Symbol {
	return &t.symbols[idx]
}

// UpdateAfter shifts the offset of every symbol whose offset is strictly
// greater than offset by amount. This is the mechanism the compression
// loop uses to keep all not-yet-visited symbols consistent with a size
// change at an earlier statement.
func (t *SymbolTable) UpdateAfter(offset uint16, amount int) {
	for i := len(t.symbols) - 1; i >= 0; i-- {
		if t.symbols[i].Offset > offset {
			t.symbols[i].Offset = uint16(int(t.symbols[i].Offset) + amount)
		}
	}
}

// All returns every defined symbol, in insertion order, for dump/printing.
func (t *SymbolTable) All() []Symbol {
	return t.symbols
}
