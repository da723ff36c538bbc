package parser

import (
	"strings"

	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/isa"
	"github.com/storance/dcpu16-sub000/lexer"
)

// Parser turns a token stream into an ast.Program. It handles syntax only:
// labels, directives, instructions, and pseudo-mnemonic expansion. Symbol
// table construction and resolution happen in the assemble package, which
// walks the resulting Program.
type Parser struct {
	toks []lexer.Token
	pos  int
	errs *lexer.ErrorList

	// labelsSeen and instructionsSeen track whether any label or
	// instruction has been parsed yet, so ".org" can be rejected once the
	// image has already started taking shape. Directives other than labels
	// and instructions (.dat, .fill, .equ, .align, ...) do not count.
	labelsSeen       bool
	instructionsSeen bool
}

// NewParser constructs a Parser from a complete token stream (normally the
// output of Lexer.TokenizeAll), sharing its ErrorList with the lexer that
// produced it.
func NewParser(toks []lexer.Token, errs *lexer.ErrorList) *Parser {
	return &Parser{toks: toks, errs: errs}
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peek(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) skipNewlines() {
	for p.cur().Type == lexer.TokenNewline {
		p.advance()
	}
}

// Parse consumes the whole token stream and returns the resulting Program.
// Parsing recovers from errors by advancing to the next newline so a single
// bad statement does not cascade.
func (p *Parser) Parse() ast.Program {
	var prog ast.Program
	var pending []ast.Label

	for {
		p.skipNewlines()
		if p.cur().Type == lexer.TokenEOF {
			break
		}

		labels := p.parseLabels()
		if len(labels) > 0 {
			p.labelsSeen = true
		}
		pending = append(pending, labels...)

		if p.cur().Type == lexer.TokenEOF || p.cur().Type == lexer.TokenNewline {
			continue // label-only line; labels carry forward
		}

		stmt := p.parseStatementBody(pending)
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
			pending = nil
		}
		p.syncToNewline()
	}

	return prog
}

// parseLabels consumes zero or more labels at the start of a line, in
// either "name:" (suffix) or ":name" (prefix) form.
func (p *Parser) parseLabels() []ast.Label {
	var labels []ast.Label
	for {
		if p.cur().Type == lexer.TokenLabelPrefix && p.peek(1).Type == lexer.TokenIdentifier {
			colon := p.advance()
			name := p.advance()
			labels = append(labels, p.makeLabel(name.Literal, colon.Pos))
			continue
		}
		if p.cur().Type == lexer.TokenIdentifier && p.peek(1).Type == lexer.TokenLabelPrefix {
			name := p.advance()
			p.advance() // ':'
			labels = append(labels, p.makeLabel(name.Literal, name.Pos))
			continue
		}
		break
	}
	return labels
}

func (p *Parser) makeLabel(name string, pos lexer.Position) ast.Label {
	kind := ast.LabelGlobal
	if strings.HasPrefix(name, ".") {
		kind = ast.LabelLocal
	}
	return ast.Label{Pos: pos, Name: name, Kind: kind}
}

func (p *Parser) syncToNewline() {
	for p.cur().Type != lexer.TokenNewline && p.cur().Type != lexer.TokenEOF {
		p.advance()
	}
}

func (p *Parser) parseStatementBody(labels []ast.Label) ast.Stmt {
	tok := p.cur()
	if tok.Type != lexer.TokenIdentifier {
		p.errs.AddError(tok.Pos, lexer.ErrorSyntax, "expected instruction or directive, got %s", tok.Type)
		return nil
	}

	if strings.HasPrefix(tok.Literal, ".") || strings.ToUpper(tok.Literal) == "DAT" {
		return p.parseDirective(labels, strings.ToUpper(tok.Literal))
	}
	stmt := p.parseInstruction(labels, strings.ToUpper(tok.Literal))
	if stmt != nil {
		p.instructionsSeen = true
	}
	return stmt
}

// lineTokens collects every token up to (not including) the next newline or
// EOF, consuming them from the stream.
func (p *Parser) lineTokens() []lexer.Token {
	var out []lexer.Token
	for p.cur().Type != lexer.TokenNewline && p.cur().Type != lexer.TokenEOF {
		out = append(out, p.advance())
	}
	return out
}

// splitTopLevelCommas splits toks at commas that are not nested inside [ ].
func splitTopLevelCommas(toks []lexer.Token) [][]lexer.Token {
	var groups [][]lexer.Token
	var cur []lexer.Token
	depth := 0
	for _, t := range toks {
		switch t.Type {
		case lexer.TokenLBracket:
			depth++
		case lexer.TokenRBracket:
			depth--
		}
		if t.Type == lexer.TokenComma && depth == 0 {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	groups = append(groups, cur)
	return groups
}

func (p *Parser) parseArgument(toks []lexer.Token, pos lexer.Position) *ast.Argument {
	if len(toks) == 0 {
		p.errs.AddError(pos, lexer.ErrorSyntax, "expected operand")
		return &ast.Argument{Pos: pos, Expr: ast.NewInvalid(pos)}
	}

	first := toks[0]
	switch first.Type {
	case lexer.TokenStackPush:
		return &ast.Argument{Pos: first.Pos, IsStack: true, Stack: ast.StackPush}
	case lexer.TokenStackPop:
		return &ast.Argument{Pos: first.Pos, IsStack: true, Stack: ast.StackPop}
	case lexer.TokenStackPeek:
		return &ast.Argument{Pos: first.Pos, IsStack: true, Stack: ast.StackPeek}
	}

	if first.Type == lexer.TokenIdentifier {
		switch strings.ToUpper(first.Literal) {
		case "PUSH":
			return &ast.Argument{Pos: first.Pos, IsStack: true, Stack: ast.StackPush}
		case "POP":
			return &ast.Argument{Pos: first.Pos, IsStack: true, Stack: ast.StackPop}
		case "PEEK":
			return &ast.Argument{Pos: first.Pos, IsStack: true, Stack: ast.StackPeek}
		case "PICK":
			rest := toks[1:]
			ep := NewExprParser(rest, Direct, p.errs)
			offset := ep.Parse()
			return &ast.Argument{Pos: first.Pos, IsStack: true, Stack: ast.StackPick, Pick: offset}
		}
	}

	if first.Type == lexer.TokenLBracket {
		inner := toks[1:]
		if len(inner) > 0 && inner[len(inner)-1].Type == lexer.TokenRBracket {
			inner = inner[:len(inner)-1]
		} else {
			p.errs.AddError(first.Pos, lexer.ErrorSyntax, "expected ']'")
		}
		ep := NewExprParser(inner, Indirect, p.errs)
		expr := ep.Parse()
		return &ast.Argument{Pos: first.Pos, Expr: expr, Indirect: true}
	}

	ep := NewExprParser(toks, Direct, p.errs)
	expr := ep.Parse()
	return &ast.Argument{Pos: first.Pos, Expr: expr, Indirect: false}
}

func (p *Parser) parseInstruction(labels []ast.Label, mnemonic string) ast.Stmt {
	start := p.cur().Pos
	p.advance() // mnemonic

	argToks := p.lineTokens()
	groups := splitTopLevelCommas(argToks)
	if len(argToks) == 0 {
		groups = nil
	}

	switch mnemonic {
	case isa.PseudoJMP:
		if len(groups) != 1 {
			p.errs.AddError(start, lexer.ErrorInvalidInstruction, "%s takes exactly one operand", mnemonic)
			return nil
		}
		a := p.parseArgument(groups[0], start)
		pcReg := &ast.Argument{Pos: start, Expr: regExpr(start)}
		return &ast.InstructionStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Mnemonic: "SET", A: a, B: pcReg}
	case isa.PseudoPUSH:
		if len(groups) != 1 {
			p.errs.AddError(start, lexer.ErrorInvalidInstruction, "%s takes exactly one operand", mnemonic)
			return nil
		}
		a := p.parseArgument(groups[0], start)
		b := &ast.Argument{Pos: start, IsStack: true, Stack: ast.StackPush}
		return &ast.InstructionStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Mnemonic: "SET", A: a, B: b}
	case isa.PseudoPOP:
		if len(groups) != 1 {
			p.errs.AddError(start, lexer.ErrorInvalidInstruction, "%s takes exactly one operand", mnemonic)
			return nil
		}
		b := p.parseArgument(groups[0], start)
		a := &ast.Argument{Pos: start, IsStack: true, Stack: ast.StackPop}
		return &ast.InstructionStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Mnemonic: "SET", A: a, B: b}
	}

	if _, ok := isa.BasicMnemonics[mnemonic]; ok {
		if len(groups) != 2 {
			p.errs.AddError(start, lexer.ErrorInvalidInstruction, "%s takes two operands", mnemonic)
			return nil
		}
		// Textual order is "b, a": position B first, then position A.
		b := p.parseArgument(groups[0], start)
		a := p.parseArgument(groups[1], start)
		p.checkStackLegality(a, b)
		return &ast.InstructionStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Mnemonic: mnemonic, A: a, B: b}
	}

	if _, ok := isa.SpecialMnemonics[mnemonic]; ok {
		if len(groups) != 1 {
			p.errs.AddError(start, lexer.ErrorInvalidInstruction, "%s takes one operand", mnemonic)
			return nil
		}
		a := p.parseArgument(groups[0], start)
		if a.IsStack && a.Stack == ast.StackPush {
			p.errs.AddError(a.Pos, lexer.ErrorInvalidOperand, "PUSH/[--SP] is illegal in operand position A")
		}
		return &ast.InstructionStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Mnemonic: mnemonic, A: a}
	}

	p.errs.AddError(start, lexer.ErrorInvalidInstruction, "unknown instruction '%s'", mnemonic)
	return nil
}

func (p *Parser) checkStackLegality(a, b *ast.Argument) {
	if a != nil && a.IsStack && a.Stack == ast.StackPush {
		p.errs.AddError(a.Pos, lexer.ErrorInvalidOperand, "PUSH/[--SP] is illegal in operand position A")
	}
	if b != nil && b.IsStack && b.Stack == ast.StackPop {
		p.errs.AddError(b.Pos, lexer.ErrorInvalidOperand, "POP/[SP++] is illegal in operand position B")
	}
}

func regExpr(pos lexer.Position) ast.Expr {
	return ast.NewRegisterExpr(pos, lexer.RegPC)
}

func (p *Parser) parseDirective(labels []ast.Label, name string) ast.Stmt {
	start := p.cur().Pos
	p.advance()
	argToks := p.lineTokens()

	switch name {
	case ".ORG":
		if p.instructionsSeen || p.labelsSeen {
			p.errs.AddError(start, lexer.ErrorMisplacedOrg, ".org must occur before all labels and instructions")
		}
		ep := NewExprParser(argToks, Constant, p.errs)
		return &ast.OrgStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Offset: ep.Parse()}
	case ".EQU", ".SET":
		if len(labels) == 0 {
			p.errs.AddError(start, lexer.ErrorInvalidDirective, ".EQU without label")
		}
		ep := NewExprParser(argToks, Constant, p.errs)
		return &ast.EquStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Value: ep.Parse()}
	case ".FILL":
		groups := splitTopLevelCommas(argToks)
		if len(groups) != 2 {
			p.errs.AddError(start, lexer.ErrorInvalidDirective, ".fill takes count and value")
			return nil
		}
		count := NewExprParser(groups[0], Constant, p.errs).Parse()
		value := NewExprParser(groups[1], Constant, p.errs).Parse()
		return &ast.FillStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Count: count, Value: value}
	case ".ALIGN", ".BALIGN":
		ep := NewExprParser(argToks, Constant, p.errs)
		return &ast.AlignStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Boundary: ep.Parse()}
	case ".DW", ".DAT", "DAT":
		return p.parseDataDirective(labels, start, argToks, false)
	case ".DB", ".DP":
		return p.parseDataDirective(labels, start, argToks, true)
	default:
		p.errs.AddError(start, lexer.ErrorInvalidDirective, "unknown directive '%s'", name)
		return nil
	}
}

func (p *Parser) parseDataDirective(labels []ast.Label, start lexer.Position, argToks []lexer.Token, packed bool) ast.Stmt {
	groups := splitTopLevelCommas(argToks)
	var values []ast.Expr
	for _, g := range groups {
		if len(g) == 1 && g[0].Type == lexer.TokenString {
			for _, ch := range []byte(g[0].Literal) {
				values = append(values, ast.NewLiteral(g[0].Pos, uint32(ch)))
			}
			continue
		}
		ep := NewExprParser(g, Constant, p.errs)
		values = append(values, ep.Parse())
	}
	return &ast.DataStmt{StmtBase: ast.StmtBase{Pos: start, Tags: labels}, Values: values, Packed: packed}
}
