// Command dcemu runs a DCPU-16 binary image, headless or under the
// interactive debugger.
package main

import (
	"fmt"
	"os"

	"github.com/storance/dcpu16-sub000/config"
	"github.com/storance/dcpu16-sub000/debugger"
	"github.com/storance/dcpu16-sub000/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		debugMode       bool
		clockHz         = -1 // sentinel: use config default
		inputFile       string
		littleEndian    bool
		littleEndianSet bool
	)

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-debug", "--debug":
			debugMode = true
		case "-clock":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "dcemu: -clock requires an argument")
				return 1
			}
			var hz int
			if _, err := fmt.Sscanf(args[i], "%d", &hz); err != nil {
				fmt.Fprintf(os.Stderr, "dcemu: invalid -clock value: %s\n", args[i])
				return 1
			}
			clockHz = hz
		case "--little-endian":
			littleEndian = true
			littleEndianSet = true
		case "--big-endian":
			littleEndian = false
			littleEndianSet = true
		default:
			if inputFile != "" {
				fmt.Fprintln(os.Stderr, "dcemu: multiple input files given")
				return 1
			}
			inputFile = a
		}
	}

	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: dcemu [-debug] [-clock HZ] [--little-endian|--big-endian] <binary-file>")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dcemu: %v\n", err)
		return 1
	}
	if !littleEndianSet {
		littleEndian = cfg.Assembler.LittleEndian
	}

	raw, err := os.ReadFile(inputFile) // #nosec G304 -- user-specified binary image path
	if err != nil {
		fmt.Fprintf(os.Stderr, "dcemu: %v\n", err)
		return 1
	}
	if len(raw)%2 != 0 {
		fmt.Fprintln(os.Stderr, "dcemu: image has an odd number of bytes")
		return 1
	}
	words := decodeWords(raw, littleEndian)

	mem := &vm.Memory{}
	mem.LoadImage(words)
	cpu := vm.New(mem)

	if debugMode {
		dbg := debugger.NewDebugger(cpu)
		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "dcemu: debugger error: %v\n", err)
			return 1
		}
		return 0
	}

	if clockHz < 0 {
		clockHz = cfg.Execution.ClockHz
	}

	exec := vm.NewExecutor(cpu, clockHz)
	exec.MaxCycles = cfg.Execution.MaxCycles
	exec.Run()

	dumpState(cpu)
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

func dumpState(cpu *vm.CPU) {
	regNames := []string{"A", "B", "C", "X", "Y", "Z", "I", "J"}
	for i, name := range regNames {
		fmt.Printf("%s=0x%04x ", name, cpu.Regs[i])
	}
	fmt.Println()
	fmt.Printf("SP=0x%04x PC=0x%04x EX=0x%04x IA=0x%04x\n", cpu.SP, cpu.PC, cpu.EX, cpu.IA)
	fmt.Printf("cycles=%d onfire=%v\n", cpu.Cycles, cpu.OnFire)

	fmt.Println("nonzero memory:")
	for addr := 0; addr < vm.MemSize; addr++ {
		if v := cpu.Mem.Read(uint16(addr)); v != 0 {
			fmt.Printf("  0x%04x: 0x%04x\n", addr, v)
		}
	}
}
