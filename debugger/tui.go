package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/storance/dcpu16-sub000/disasm"
)

// TUI is the text-mode front end over a Debugger: a register panel, a
// disassembly panel starting at PC, a memory dump panel, a breakpoint
// list, an output log, and a command line, laid out with tview the way
// the teacher's debugger arranges its own panels.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	MainLayout      *tview.Flex
	RegisterView    *tview.TextView
	DisassemblyView *tview.TextView
	MemoryView      *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress uint16
}

// NewTUI constructs a TUI over dbg.
func NewTUI(dbg *Debugger) *TUI {
	t := &TUI{
		Debugger: dbg,
		App:      tview.NewApplication(),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ")
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
	t.CommandInput.SetInputCapture(t.handleCommandInputKey)
}

// handleCommandInputKey recalls command history on Up/Down, matching a
// shell's line-editing convention.
func (t *TUI) handleCommandInputKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		if cmd := t.Debugger.History.Previous(); cmd != "" {
			t.CommandInput.SetText(cmd)
		}
		return nil
	case tcell.KeyDown:
		t.CommandInput.SetText(t.Debugger.History.Next())
		return nil
	}
	return event
}

func (t *TUI) buildLayout() {
	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.DisassemblyView, 0, 2, false).
		AddItem(t.MemoryView, 0, 2, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 5, 0, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	content := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(left, 0, 2, false).
		AddItem(right, 0, 1, false)

	t.MainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(content, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd != "" {
		t.executeCommand(cmd)
		t.CommandInput.SetText("")
	}
}

func (t *TUI) executeCommand(cmd string) {
	err := t.Debugger.ExecuteCommand(cmd)
	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	}
	if out := t.Debugger.GetOutput(); out != "" {
		t.WriteOutput(out)
	}
	t.RefreshAll()
}

// WriteOutput appends text to the output log.
func (t *TUI) WriteOutput(text string) {
	_, _ = fmt.Fprint(t.OutputView, text)
	t.OutputView.ScrollToEnd()
}

// RefreshAll repaints every panel from current CPU state.
func (t *TUI) RefreshAll() {
	t.updateRegisterView()
	t.updateDisassemblyView()
	t.updateMemoryView()
	t.updateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) updateRegisterView() {
	cpu := t.Debugger.CPU
	var lines []string
	lines = append(lines, fmt.Sprintf("A=%04x B=%04x C=%04x X=%04x", cpu.Regs[0], cpu.Regs[1], cpu.Regs[2], cpu.Regs[3]))
	lines = append(lines, fmt.Sprintf("Y=%04x Z=%04x I=%04x J=%04x", cpu.Regs[4], cpu.Regs[5], cpu.Regs[6], cpu.Regs[7]))
	lines = append(lines, fmt.Sprintf("SP=%04x PC=%04x EX=%04x IA=%04x", cpu.SP, cpu.PC, cpu.EX, cpu.IA))
	fire := ""
	if cpu.OnFire {
		fire = " [red]ON FIRE[white]"
	}
	lines = append(lines, fmt.Sprintf("cycles=%d%s", cpu.Cycles, fire))
	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateDisassemblyView() {
	cpu := t.Debugger.CPU
	start := cpu.PC
	words := make([]uint16, 24)
	for i := range words {
		words[i] = cpu.Mem.Read(start + uint16(i))
	}
	var lines []string
	for _, l := range disasm.Disassemble(words) {
		marker := "  "
		color := "white"
		if l.Offset == 0 {
			marker = "->"
			color = "yellow"
		}
		addr := start + l.Offset
		if bp := t.Debugger.Breakpoints.Get(addr); bp != nil {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("[%s]%s%04x: %s[white]", color, marker, addr, l.Text))
	}
	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateMemoryView() {
	cpu := t.Debugger.CPU
	addr := t.MemoryAddress
	var lines []string
	for row := 0; row < 16; row++ {
		rowAddr := addr + uint16(row*8)
		line := fmt.Sprintf("%04x: ", rowAddr)
		for col := 0; col < 8; col++ {
			line += fmt.Sprintf("%04x ", cpu.Mem.Read(rowAddr+uint16(col)))
		}
		lines = append(lines, line)
	}
	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateBreakpointsView() {
	var lines []string
	for _, bp := range t.Debugger.Breakpoints.All() {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		lines = append(lines, fmt.Sprintf("%d: 0x%04x %s (hits: %d)", bp.ID, bp.Address, status, bp.HitCount))
	}
	if len(lines) == 0 {
		lines = append(lines, "no breakpoints set")
	}
	if wps := t.Debugger.Watchpoints.All(); len(wps) > 0 {
		lines = append(lines, "--- watchpoints ---")
		for _, wp := range wps {
			lines = append(lines, fmt.Sprintf("%d: %s = 0x%04x (hits: %d)", wp.ID, wp.Expr, wp.LastValue, wp.HitCount))
		}
	}
	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI event loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	t.WriteOutput("[green]dcpu16 debugger[white]\n")
	t.WriteOutput("F1 help  F5 continue  F10 next  F11 step  Ctrl-C quit\n\n")
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}

// Stop tears down the TUI event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}

// RunTUI constructs and runs a TUI over dbg; a thin wrapper so cmd/dcemu
// does not need to know TUI's construction details.
func RunTUI(dbg *Debugger) error {
	return NewTUI(dbg).Run()
}
