// Package debugger implements an interactive inspector over a running
// vm.CPU: breakpoints, watchpoints, single-stepping, register/memory
// inspection, command history, and a tcell/tview text interface (see
// tui.go) wrapping the same command set.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/storance/dcpu16-sub000/disasm"
	"github.com/storance/dcpu16-sub000/isa"
	"github.com/storance/dcpu16-sub000/vm"
)

// regOrder lists the general-purpose registers in display order.
var regOrder = []string{"A", "B", "C", "X", "Y", "Z", "I", "J"}

var regIndex = map[string]int{
	"A": 0, "B": 1, "C": 2, "X": 3, "Y": 4, "Z": 5, "I": 6, "J": 7,
}

// Debugger wraps a vm.CPU with breakpoints, stepping state, and symbol
// resolution, driving the fetch/execute loop itself (ticking hardware and
// draining one interrupt per step) rather than delegating to vm.Executor,
// since a debugger needs to stop at instruction granularity the executor
// does not expose.
type Debugger struct {
	CPU         *vm.CPU
	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Symbols     map[string]uint16

	Running     bool
	LastCommand string
	Output      strings.Builder
}

// NewDebugger constructs a Debugger over cpu.
func NewDebugger(cpu *vm.CPU) *Debugger {
	return &Debugger{
		CPU:         cpu,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(1000),
		Symbols:     make(map[string]uint16),
	}
}

// LoadSymbols makes name->address resolution available to break/print.
func (d *Debugger) LoadSymbols(symbols map[string]uint16) {
	d.Symbols = symbols
}

// Printf appends formatted text to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

// Println appends a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	fmt.Fprintln(&d.Output, args...)
}

// GetOutput returns and clears the output buffer.
func (d *Debugger) GetOutput() string {
	s := d.Output.String()
	d.Output.Reset()
	return s
}

// ExecuteCommand parses and runs one command line, per the command set in
// the package doc. An empty line repeats the previous command, matching
// the teacher's debugger convention for stepping commands.
func (d *Debugger) ExecuteCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		line = d.LastCommand
	}
	if line != "" {
		d.LastCommand = line
	}

	d.History.Add(line)

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "run", "r":
		return d.cmdRun()
	case "continue", "c":
		return d.cmdContinue()
	case "step", "s":
		return d.cmdStep()
	case "next", "n":
		return d.cmdNext()
	case "break", "b":
		return d.cmdBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "watch", "w":
		return d.cmdWatch(args)
	case "unwatch":
		return d.cmdUnwatch(args)
	case "watches":
		return d.cmdWatches()
	case "history":
		return d.cmdHistory()
	case "info", "i":
		return d.cmdInfo(args)
	case "print", "p":
		return d.cmdPrint(args)
	case "help", "h", "?":
		return d.cmdHelp()
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func (d *Debugger) cmdHistory() error {
	cmds := d.History.All()
	if len(cmds) == 0 {
		d.Println("no command history")
		return nil
	}
	for i, c := range cmds {
		d.Printf("%4d  %s\n", i+1, c)
	}
	return nil
}

// stepOnce advances the CPU exactly one instruction, ticking hardware and
// draining one queued interrupt afterward, matching vm.Executor.Run's
// per-instruction bookkeeping without its clock pacing.
func (d *Debugger) stepOnce() {
	d.CPU.Step()
	d.CPU.Hardware.Tick(d.CPU)
	d.CPU.DrainOneInterrupt()
}

func (d *Debugger) cmdRun() error {
	d.Running = true
	d.Printf("running from PC=0x%04x\n", d.CPU.PC)
	return d.runUntilStop()
}

func (d *Debugger) cmdContinue() error {
	if !d.Running {
		d.Running = true
	}
	return d.runUntilStop()
}

// runUntilStop steps until the machine catches fire, a watchpoint's value
// changes, or PC lands on an enabled breakpoint (both checked after at
// least one step, so continuing from a breakpoint does not immediately
// re-trigger it).
func (d *Debugger) runUntilStop() error {
	d.stepOnce()
	for !d.CPU.OnFire {
		if wp := d.checkWatchpoints(); wp != nil {
			d.Printf("watchpoint %d (%s) changed to 0x%04x at PC=0x%04x\n", wp.ID, wp.Expr, wp.LastValue, d.CPU.PC)
			return nil
		}
		if bp := d.Breakpoints.Get(d.CPU.PC); bp != nil && bp.Enabled {
			bp.HitCount++
			d.Printf("breakpoint %d at 0x%04x\n", bp.ID, bp.Address)
			return nil
		}
		d.stepOnce()
	}
	d.Running = false
	d.Printf("machine caught fire at PC=0x%04x, cycle %d\n", d.CPU.PC, d.CPU.Cycles)
	return nil
}

func (d *Debugger) cmdStep() error {
	if d.CPU.OnFire {
		d.Println("machine is on fire; nothing to step")
		return nil
	}
	d.stepOnce()
	if wp := d.checkWatchpoints(); wp != nil {
		d.Printf("watchpoint %d (%s) changed to 0x%04x\n", wp.ID, wp.Expr, wp.LastValue)
	}
	d.Printf("0x%04x: %s\n", d.CPU.PC, d.disasmAt(d.CPU.PC))
	return nil
}

// cmdNext steps over a JSR by running to the instruction immediately after
// it rather than following the call, mirroring the teacher's step-over.
func (d *Debugger) cmdNext() error {
	if d.CPU.OnFire {
		d.Println("machine is on fire; nothing to step")
		return nil
	}
	w := d.CPU.Mem.Read(d.CPU.PC)
	isJSR := w&0x1f == 0 && isa.SpecialOp((w>>5)&0x1f) == isa.JSR
	if !isJSR {
		return d.cmdStep()
	}

	after := d.nextInstructionAddr(d.CPU.PC)
	d.stepOnce()
	for !d.CPU.OnFire && d.CPU.PC != after {
		if wp := d.checkWatchpoints(); wp != nil {
			d.Printf("watchpoint %d (%s) changed to 0x%04x at PC=0x%04x\n", wp.ID, wp.Expr, wp.LastValue, d.CPU.PC)
			return nil
		}
		if bp := d.Breakpoints.Get(d.CPU.PC); bp != nil && bp.Enabled {
			bp.HitCount++
			d.Printf("breakpoint %d at 0x%04x\n", bp.ID, bp.Address)
			return nil
		}
		d.stepOnce()
	}
	if d.CPU.OnFire {
		d.Printf("machine caught fire at PC=0x%04x\n", d.CPU.PC)
		return nil
	}
	d.Printf("0x%04x: %s\n", d.CPU.PC, d.disasmAt(d.CPU.PC))
	return nil
}

// nextInstructionAddr returns the address immediately after the
// instruction at addr, by disassembling just that one word's worth of
// image starting there.
func (d *Debugger) nextInstructionAddr(addr uint16) uint16 {
	words := make([]uint16, 0, 3)
	for i := 0; i < 3; i++ {
		words = append(words, d.CPU.Mem.Read(addr+uint16(i)))
	}
	lines := disasm.Disassemble(words)
	if len(lines) == 0 {
		return addr + 1
	}
	return addr + uint16(len(lines[0].Raw))
}

func (d *Debugger) disasmAt(addr uint16) string {
	words := make([]uint16, 0, 3)
	for i := 0; i < 3; i++ {
		words = append(words, d.CPU.Mem.Read(addr+uint16(i)))
	}
	lines := disasm.Disassemble(words)
	if len(lines) == 0 {
		return ".word 0x0000"
	}
	return lines[0].Text
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <address|symbol>")
	}
	addr, err := d.resolveAddr(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr)
	d.Printf("breakpoint %d at 0x%04x\n", bp.ID, bp.Address)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	if !d.Breakpoints.Delete(id) {
		return fmt.Errorf("no such breakpoint: %d", id)
	}
	d.Printf("deleted breakpoint %d\n", id)
	return nil
}

func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 || args[0] != "registers" {
		return fmt.Errorf("usage: info registers")
	}
	for i, name := range regOrder {
		d.Printf("%s=0x%04x ", name, d.CPU.Regs[i])
	}
	d.Println()
	d.Printf("SP=0x%04x PC=0x%04x EX=0x%04x IA=0x%04x\n", d.CPU.SP, d.CPU.PC, d.CPU.EX, d.CPU.IA)
	d.Printf("cycles=%d queueing=%v onfire=%v\n", d.CPU.Cycles, d.CPU.Queueing, d.CPU.OnFire)
	return nil
}

// cmdPrint evaluates a single register name, decimal/hex literal, or a
// bracketed memory reference like [0x1000] or [A], and prints its value.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: print <register|address|[address]>")
	}
	v, err := d.evalOperand(args[0])
	if err != nil {
		return err
	}
	d.Printf("%s = 0x%04x (%d)\n", args[0], v, v)
	return nil
}

func (d *Debugger) evalOperand(s string) (uint16, error) {
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner, err := d.evalOperand(s[1 : len(s)-1])
		if err != nil {
			return 0, err
		}
		return d.CPU.Mem.Read(inner), nil
	}
	if idx, ok := regIndex[strings.ToUpper(s)]; ok {
		return d.CPU.Regs[idx], nil
	}
	switch strings.ToUpper(s) {
	case "SP":
		return d.CPU.SP, nil
	case "PC":
		return d.CPU.PC, nil
	case "EX":
		return d.CPU.EX, nil
	case "IA":
		return d.CPU.IA, nil
	}
	return d.resolveAddr(s)
}

func (d *Debugger) resolveAddr(s string) (uint16, error) {
	if addr, ok := d.Symbols[s]; ok {
		return addr, nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"), hexOrDecBase(s), 16)
	if err != nil {
		return 0, fmt.Errorf("undefined symbol or invalid address: %s", s)
	}
	return uint16(n), nil
}

func hexOrDecBase(s string) int {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return 16
	}
	return 10
}

func (d *Debugger) cmdHelp() error {
	d.Println("Commands:")
	d.Println("  run, r                 start/restart execution")
	d.Println("  continue, c            continue execution")
	d.Println("  step, s                execute a single instruction")
	d.Println("  next, n                step over a JSR")
	d.Println("  break ADDR, b ADDR     set a breakpoint")
	d.Println("  delete ID, d ID        remove a breakpoint")
	d.Println("  watch EXPR, w EXPR     stop when a register/address changes value")
	d.Println("  unwatch ID             remove a watchpoint")
	d.Println("  watches                list watchpoints")
	d.Println("  history                list command history")
	d.Println("  info registers, i      show all registers")
	d.Println("  print EXPR, p EXPR     evaluate and print a register/address")
	d.Println("  help, h, ?             show this message")
	return nil
}
