package debugger

import (
	"fmt"
	"sort"
	"strconv"
)

// Watchpoint monitors an operand expression (a register, a special
// register, or a bracketed memory reference) for a change in value.
// Unlike a Breakpoint, which fires on reaching an address, a watchpoint
// fires whenever the observed value differs from what it was the last time
// it was checked: this is a value-change monitor, not an access trap, so it
// cannot distinguish a read from a write.
type Watchpoint struct {
	ID        int
	Expr      string // the operand text the watchpoint was set on, e.g. "[0x1000]" or "C"
	Enabled   bool
	LastValue uint16
	HitCount  int
}

// WatchpointManager owns the set of watchpoints a Debugger checks after
// every step.
type WatchpointManager struct {
	byID   map[int]*Watchpoint
	nextID int
}

// NewWatchpointManager constructs an empty WatchpointManager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{byID: make(map[int]*Watchpoint), nextID: 1}
}

// Add registers a new enabled watchpoint and returns it. initial is the
// value observed at the moment the watchpoint is set, so the first check
// afterward does not immediately report a change.
func (m *WatchpointManager) Add(expr string, initial uint16) *Watchpoint {
	wp := &Watchpoint{ID: m.nextID, Expr: expr, Enabled: true, LastValue: initial}
	m.nextID++
	m.byID[wp.ID] = wp
	return wp
}

// Delete removes the watchpoint with the given id, reporting whether one
// was found.
func (m *WatchpointManager) Delete(id int) bool {
	if _, ok := m.byID[id]; !ok {
		return false
	}
	delete(m.byID, id)
	return true
}

// Get returns the watchpoint with the given id, or nil.
func (m *WatchpointManager) Get(id int) *Watchpoint {
	return m.byID[id]
}

// All returns every watchpoint, ordered by ID.
func (m *WatchpointManager) All() []*Watchpoint {
	out := make([]*Watchpoint, 0, len(m.byID))
	for _, wp := range m.byID {
		out = append(out, wp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// checkWatchpoints re-evaluates every enabled watchpoint's expression and
// returns the first one whose value changed since the last check, updating
// LastValue/HitCount on every watchpoint that changed, not just the first,
// so none of them go stale while another is being reported.
func (d *Debugger) checkWatchpoints() *Watchpoint {
	var fired *Watchpoint
	for _, wp := range d.Watchpoints.All() {
		if !wp.Enabled {
			continue
		}
		v, err := d.evalOperand(wp.Expr)
		if err != nil {
			continue
		}
		if v != wp.LastValue {
			wp.LastValue = v
			wp.HitCount++
			if fired == nil {
				fired = wp
			}
		}
	}
	return fired
}

func (d *Debugger) cmdWatch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: watch <register|address|[address]>")
	}
	expr := args[0]
	initial, err := d.evalOperand(expr)
	if err != nil {
		return err
	}
	wp := d.Watchpoints.Add(expr, initial)
	d.Printf("watchpoint %d on %s, current value 0x%04x\n", wp.ID, expr, initial)
	return nil
}

func (d *Debugger) cmdUnwatch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unwatch <watchpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid watchpoint id: %s", args[0])
	}
	if !d.Watchpoints.Delete(id) {
		return fmt.Errorf("no such watchpoint: %d", id)
	}
	d.Printf("deleted watchpoint %d\n", id)
	return nil
}

func (d *Debugger) cmdWatches() error {
	wps := d.Watchpoints.All()
	if len(wps) == 0 {
		d.Println("no watchpoints set")
		return nil
	}
	for _, wp := range wps {
		d.Printf("%d: %s = 0x%04x, hits=%d, enabled=%v\n", wp.ID, wp.Expr, wp.LastValue, wp.HitCount, wp.Enabled)
	}
	return nil
}
