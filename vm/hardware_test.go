package vm_test

import (
	"testing"

	"github.com/storance/dcpu16-sub000/vm"
	"github.com/stretchr/testify/assert"
)

type fakeDevice struct {
	id, man    uint32
	version    uint16
	ticks      int
	interrupts int
}

func (d *fakeDevice) ID() uint32           { return d.id }
func (d *fakeDevice) Manufacturer() uint32 { return d.man }
func (d *fakeDevice) Version() uint16      { return d.version }
func (d *fakeDevice) Tick(cpu *vm.CPU)     { d.ticks++ }
func (d *fakeDevice) Interrupt(cpu *vm.CPU) int {
	d.interrupts++
	return 3
}

func TestHardwareManager_CountReflectsRegistrations(t *testing.T) {
	hw := &vm.HardwareManager{}
	assert.Equal(t, 0, hw.Count())
	hw.Register(&fakeDevice{})
	hw.Register(&fakeDevice{})
	assert.Equal(t, 2, hw.Count())
}

func TestHardwareManager_QueryPopulatesRegisters(t *testing.T) {
	hw := &vm.HardwareManager{}
	hw.Register(&fakeDevice{id: 0x00010002, man: 0x00030004, version: 7})

	cpu := vm.New(&vm.Memory{})
	hw.Query(0, cpu)

	assert.Equal(t, uint16(0x0002), cpu.Regs[0])
	assert.Equal(t, uint16(0x0001), cpu.Regs[1])
	assert.Equal(t, uint16(7), cpu.Regs[2])
	assert.Equal(t, uint16(0x0004), cpu.Regs[3])
	assert.Equal(t, uint16(0x0003), cpu.Regs[4])
}

func TestHardwareManager_QueryOutOfRangeIsNoOp(t *testing.T) {
	hw := &vm.HardwareManager{}
	cpu := vm.New(&vm.Memory{})
	cpu.Regs[0] = 0x1234
	hw.Query(5, cpu)
	assert.Equal(t, uint16(0x1234), cpu.Regs[0])
}

func TestHardwareManager_InterruptDispatchesToDevice(t *testing.T) {
	hw := &vm.HardwareManager{}
	dev := &fakeDevice{}
	hw.Register(dev)

	extra := hw.Interrupt(0, vm.New(&vm.Memory{}))
	assert.Equal(t, 3, extra)
	assert.Equal(t, 1, dev.interrupts)
}

func TestHardwareManager_InterruptOutOfRangeIsNoOp(t *testing.T) {
	hw := &vm.HardwareManager{}
	extra := hw.Interrupt(99, vm.New(&vm.Memory{}))
	assert.Equal(t, 0, extra)
}

func TestHardwareManager_TickRunsEveryDevice(t *testing.T) {
	hw := &vm.HardwareManager{}
	a, b := &fakeDevice{}, &fakeDevice{}
	hw.Register(a)
	hw.Register(b)

	hw.Tick(vm.New(&vm.Memory{}))
	assert.Equal(t, 1, a.ticks)
	assert.Equal(t, 1, b.ticks)
}
