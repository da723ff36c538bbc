// Command dcdis disassembles a DCPU-16 binary image back into assembly text.
package main

import (
	"fmt"
	"os"

	"github.com/storance/dcpu16-sub000/config"
	"github.com/storance/dcpu16-sub000/disasm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		outFile         string
		base            = disasm.Hex
		inputFile       string
		littleEndian    bool
		littleEndianSet bool
	)

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-o":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "dcdis: -o requires an argument")
				return 1
			}
			outFile = args[i]
		case "-c", "--octal":
			base = disasm.Octal
		case "-d", "--decimal":
			base = disasm.Decimal
		case "-h", "--hex":
			base = disasm.Hex
		case "--little-endian":
			littleEndian = true
			littleEndianSet = true
		case "--big-endian":
			littleEndian = false
			littleEndianSet = true
		default:
			if inputFile != "" {
				fmt.Fprintln(os.Stderr, "dcdis: multiple input files given")
				return 1
			}
			inputFile = a
		}
	}

	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: dcdis [-o <file>] [-c|--octal] [-d|--decimal] [-h|--hex] [--little-endian|--big-endian] <input-file>")
		return 1
	}

	if !littleEndianSet {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "dcdis: %v\n", err)
			return 1
		}
		littleEndian = cfg.Assembler.LittleEndian
	}

	raw, err := os.ReadFile(inputFile) // #nosec G304 -- user-specified binary image path
	if err != nil {
		fmt.Fprintf(os.Stderr, "dcdis: %v\n", err)
		return 1
	}
	if len(raw)%2 != 0 {
		fmt.Fprintln(os.Stderr, "dcdis: image has an odd number of bytes")
		return 1
	}

	words := decodeWords(raw, littleEndian)

	out := os.Stdout
	if outFile != "" && outFile != "-" {
		f, err := os.Create(outFile) // #nosec G304 -- user-specified output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "dcdis: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	for _, line := range disasm.DisassembleBase(words, base) {
		fmt.Fprintf(out, "%04x: %s\n", line.Offset, line.Text)
	}

	return 0
}

// decodeWords reassembles a byte image into 16-bit words, high byte first
// by default or low byte first when littleEndian is set.
func decodeWords(raw []byte, littleEndian bool) []uint16 {
	words := make([]uint16, len(raw)/2)
	for i := range words {
		if littleEndian {
			words[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		} else {
			words[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
		}
	}
	return words
}
