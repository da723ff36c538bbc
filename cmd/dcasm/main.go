// Command dcasm assembles DCPU-16 source text into a flat binary image.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/storance/dcpu16-sub000/assemble"
	"github.com/storance/dcpu16-sub000/ast"
	"github.com/storance/dcpu16-sub000/config"
	"github.com/storance/dcpu16-sub000/lexer"
	"github.com/storance/dcpu16-sub000/parser"
)

const version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		outFile         string
		includeDir      string
		astPrint        bool
		symbolsPrint    bool
		syntaxOnly      bool
		inputFile       string
		littleEndian    bool
		littleEndianSet bool
	)

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-h" || a == "--help":
			printHelp()
			return 0
		case a == "-v" || a == "--version":
			fmt.Printf("dcasm %s\n", version)
			return 0
		case a == "--ast-print":
			astPrint = true
		case a == "--symbols-print":
			symbolsPrint = true
		case a == "--syntax-only":
			syntaxOnly = true
		case a == "--little-endian":
			littleEndian = true
			littleEndianSet = true
		case a == "--big-endian":
			littleEndian = false
			littleEndianSet = true
		case a == "-I":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "dcasm: -I requires an argument")
				return 1
			}
			includeDir = args[i]
		case a == "-o":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "dcasm: -o requires an argument")
				return 1
			}
			outFile = args[i]
		case strings.HasPrefix(a, "-") && a != "-":
			fmt.Fprintf(os.Stderr, "dcasm: unrecognized option '%s'\n", a)
			return 1
		default:
			if inputFile != "" {
				fmt.Fprintf(os.Stderr, "dcasm: multiple input files given\n")
				return 1
			}
			inputFile = a
		}
	}
	_ = includeDir // reserved, per the CLI's -I flag

	if inputFile == "" {
		printHelp()
		return 1
	}

	source, err := os.ReadFile(inputFile) // #nosec G304 -- user-specified assembly source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "dcasm: %v\n", err)
		return 1
	}

	errs := &lexer.ErrorList{}
	lx := lexer.NewLexer(string(source), inputFile)
	lx.Errors = *errs
	toks := lx.TokenizeAll()
	*errs = lx.Errors

	p := parser.NewParser(toks, errs)
	prog := p.Parse()

	if astPrint {
		printAST(prog)
	}

	if syntaxOnly {
		return finish(errs, nil, inputFile)
	}

	result := assemble.AssembleProgram(prog, errs)

	if symbolsPrint {
		printSymbols(result.Symbols)
	}

	if errs.HasErrors() {
		return finish(errs, nil, inputFile)
	}

	if outFile == "" {
		ext := filepath.Ext(inputFile)
		outFile = strings.TrimSuffix(inputFile, ext) + ".bin"
	}

	if !littleEndianSet {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "dcasm: %v\n", err)
			return 1
		}
		littleEndian = cfg.Assembler.LittleEndian
	}

	if err := writeImage(outFile, result.Words, littleEndian); err != nil {
		fmt.Fprintf(os.Stderr, "dcasm: %v\n", err)
		return 1
	}

	return finish(errs, nil, inputFile)
}

func finish(errs *lexer.ErrorList, extra []string, _ string) int {
	for _, e := range errs.Errors {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	errs.PrintWarnings(os.Stderr)
	if errs.HasErrors() {
		fmt.Fprintf(os.Stderr, "%d error(s)\n", len(errs.Errors))
		return 1
	}
	return 0
}

func writeImage(path string, words []uint16, littleEndian bool) error {
	encode := encodeBigEndian
	if littleEndian {
		encode = encodeLittleEndian
	}
	if path == "-" {
		return encode(os.Stdout, words)
	}
	f, err := os.Create(path) // #nosec G304 -- user-specified output path
	if err != nil {
		return err
	}
	defer f.Close()
	return encode(f, words)
}

func encodeBigEndian(w interface{ Write([]byte) (int, error) }, words []uint16) error {
	buf := make([]byte, 2*len(words))
	for i, word := range words {
		buf[2*i] = byte(word >> 8)
		buf[2*i+1] = byte(word)
	}
	_, err := w.Write(buf)
	return err
}

// encodeLittleEndian writes each word low byte first, per the
// "little-endian selectable at assemble time" object format option.
func encodeLittleEndian(w interface{ Write([]byte) (int, error) }, words []uint16) error {
	buf := make([]byte, 2*len(words))
	for i, word := range words {
		buf[2*i] = byte(word)
		buf[2*i+1] = byte(word >> 8)
	}
	_, err := w.Write(buf)
	return err
}

func printHelp() {
	fmt.Printf(`dcasm %s - DCPU-16 assembler

Usage: dcasm [options] <input-file>

Options:
  -h, --help          Show this help message
  -v, --version       Show version information
  --ast-print         Print the parsed AST and continue
  --symbols-print     Print the resolved symbol table and continue
  --syntax-only       Parse and report errors, but do not assemble or write output
  --little-endian     Write the object image little-endian (low byte first per word)
  --big-endian        Write the object image big-endian (default)
  -I <dir>            Add an include search path (reserved)
  -o <file>           Output file (default: input with extension replaced by .bin; '-' for stdout)

Without --little-endian/--big-endian, the endianness defaults to the
assembler.little_endian setting in the config file.
`, version)
}

func printSymbols(syms *parser.SymbolTable) {
	if syms == nil {
		return
	}
	for _, s := range syms.All() {
		switch s.Kind {
		case parser.SymbolGlobal:
			fmt.Printf("%-30s global 0x%04x\n", s.Name, s.Offset)
		case parser.SymbolLocal:
			fmt.Printf("%-30s local  0x%04x\n", s.Name, s.Offset)
		case parser.SymbolEqu:
			fmt.Printf("%-30s equ\n", s.Name)
		}
	}
}

func printAST(prog ast.Program) {
	for _, stmt := range prog.Statements {
		for _, lbl := range stmt.Labels() {
			fmt.Printf("%s:\n", lbl.Name)
		}
		fmt.Println(stmtString(stmt))
	}
}

func stmtString(stmt ast.Stmt) string {
	switch n := stmt.(type) {
	case *ast.InstructionStmt:
		if n.B != nil {
			return fmt.Sprintf("  %s %s, %s", n.Mnemonic, argString(n.B), argString(n.A))
		}
		return fmt.Sprintf("  %s %s", n.Mnemonic, argString(n.A))
	case *ast.DataStmt:
		kind := ".dw"
		if n.Packed {
			kind = ".db"
		}
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = exprString(v)
		}
		return fmt.Sprintf("  %s %s", kind, strings.Join(parts, ", "))
	case *ast.OrgStmt:
		return fmt.Sprintf("  .org %s", exprString(n.Offset))
	case *ast.FillStmt:
		return fmt.Sprintf("  .fill %s, %s", exprString(n.Count), exprString(n.Value))
	case *ast.EquStmt:
		return fmt.Sprintf("  .equ %s", exprString(n.Value))
	case *ast.AlignStmt:
		return fmt.Sprintf("  .align %s", exprString(n.Boundary))
	default:
		return "  <unknown statement>"
	}
}

func argString(arg *ast.Argument) string {
	if arg == nil {
		return ""
	}
	if arg.IsStack {
		switch arg.Stack {
		case ast.StackPush:
			return "PUSH"
		case ast.StackPop:
			return "POP"
		case ast.StackPeek:
			return "PEEK"
		case ast.StackPick:
			return fmt.Sprintf("PICK %s", exprString(arg.Pick))
		}
	}
	s := exprString(arg.Expr)
	if arg.Indirect {
		return "[" + s + "]"
	}
	return s
}

func exprString(e ast.Expr) string {
	switch n := e.(type) {
	case ast.Literal:
		return strconv.FormatUint(uint64(n.Value), 10)
	case ast.SymbolRef:
		return n.Name
	case ast.RegisterExpr:
		return n.Reg.String()
	case ast.CurrentPosition:
		return "$"
	case ast.UnaryExpr:
		return unaryOpString(n.Op) + exprString(n.Operand)
	case ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", exprString(n.Left), binaryOpString(n.Op), exprString(n.Right))
	case ast.Evaluated:
		switch {
		case n.HasRegister && n.HasValue:
			return fmt.Sprintf("(%s+%d)", n.Reg, n.Value)
		case n.HasRegister:
			return n.Reg.String()
		case n.HasValue:
			return strconv.FormatInt(int64(n.Value), 10)
		default:
			return "0"
		}
	case ast.Invalid:
		return "<invalid>"
	default:
		return "<?>"
	}
}

func unaryOpString(op ast.UnaryOp) string {
	switch op {
	case ast.UnaryPlus:
		return "+"
	case ast.UnaryMinus:
		return "-"
	case ast.UnaryNot:
		return "!"
	case ast.UnaryBitNot:
		return "~"
	default:
		return "?"
	}
}

func binaryOpString(op ast.BinaryOp) string {
	names := map[ast.BinaryOp]string{
		ast.OpOr: "||", ast.OpAnd: "&&", ast.OpBitOr: "|", ast.OpBitXor: "^",
		ast.OpBitAnd: "&", ast.OpEq: "==", ast.OpNeq: "!=", ast.OpLt: "<",
		ast.OpLte: "<=", ast.OpGt: ">", ast.OpGte: ">=", ast.OpShl: "<<",
		ast.OpShr: ">>", ast.OpAdd: "+", ast.OpSub: "-", ast.OpMul: "*",
		ast.OpDiv: "/", ast.OpMod: "%",
	}
	if s, ok := names[op]; ok {
		return s
	}
	return "?"
}
