package ast

import "github.com/storance/dcpu16-sub000/lexer"

// StackKind enumerates the four stack-shorthand argument forms.
type StackKind int

const (
	StackPush StackKind = iota
	StackPop
	StackPeek
	StackPick
)

// Argument is either a stack-shorthand argument or a general expression
// argument (optionally indirect, i.e. written inside [ ]).
type Argument struct {
	Pos lexer.Position

	IsStack bool
	Stack   StackKind
	Pick    Expr // only set when Stack == StackPick

	Expr     Expr
	Indirect bool
}

// LabelKind distinguishes global labels from local (dot-prefixed) labels.
type LabelKind int

const (
	LabelGlobal LabelKind = iota
	LabelLocal
)

// Label attaches one or more names to the following statement. A single
// logical line may carry several labels (e.g. "foo: bar: SET A, 1").
type Label struct {
	Pos  lexer.Position
	Name string
	Kind LabelKind
}

// Stmt is the tagged sum of statement variants.
type Stmt interface {
	Position() lexer.Position
	Labels() []Label
	isStmt()
}

// StmtBase is embedded by every concrete Stmt to supply its position and
// attached labels; callers outside this package build it directly with
// field names Pos and Tags.
type StmtBase struct {
	Pos  lexer.Position
	Tags []Label
}

func (s StmtBase) Position() lexer.Position { return s.Pos }
func (s StmtBase) Labels() []Label          { return s.Tags }

// InstructionStmt is a single machine instruction with its mnemonic already
// resolved to an opcode and arity by the statement parser.
type InstructionStmt struct {
	StmtBase
	Mnemonic string
	A        *Argument // always present
	B        *Argument // present only for two-operand (basic) opcodes
}

func (InstructionStmt) isStmt() {}

// DataStmt backs .dw/.dat/dat and .db/.dp: a literal sequence of values to
// emit verbatim. Packed indicates the .db/.dp two-bytes-per-word form.
type DataStmt struct {
	StmtBase
	Values []Expr
	Packed bool
}

func (DataStmt) isStmt() {}

// OrgStmt is `.org N`: sets the current output offset. Must precede any
// instruction or label.
type OrgStmt struct {
	StmtBase
	Offset Expr
}

func (OrgStmt) isStmt() {}

// FillStmt is `.fill N, V`: emits N copies of V. Count must be constant
// enough to size during the build-symbol-table pass; its word count is
// tracked by the compression loop's operand cache, keyed by statement
// index, because the emitted size can itself depend on resolved symbols.
type FillStmt struct {
	StmtBase
	Count Expr
	Value Expr
}

func (FillStmt) isStmt() {}

// EquStmt is `.equ expr`, attached to the label immediately preceding it.
type EquStmt struct {
	StmtBase
	Value Expr
}

func (EquStmt) isStmt() {}

// AlignStmt is `.align K`: inserts `SET A, A` filler instructions until the
// output offset reaches a multiple of K.
type AlignStmt struct {
	StmtBase
	Boundary Expr
}

func (AlignStmt) isStmt() {}

// Program is the full parsed statement list for one source file.
type Program struct {
	Statements []Stmt
}
