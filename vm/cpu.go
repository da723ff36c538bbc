package vm

import "github.com/storance/dcpu16-sub000/isa"

// CPU holds the machine's full architectural state and the fetch-decode-
// execute loop. Regs holds the eight general-purpose registers A..J at
// indices 0..7.
type CPU struct {
	Regs [8]uint16
	SP   uint16
	PC   uint16
	EX   uint16
	IA   uint16

	Mem      *Memory
	IRQ      *InterruptQueue
	Hardware *HardwareManager

	Queueing bool
	SkipNext bool
	OnFire   bool
	Cycles   uint64

	extraWords int // next-words read while decoding the current instruction
}

// New constructs a CPU over mem, with a fresh interrupt queue and an empty
// hardware manager.
func New(mem *Memory) *CPU {
	return &CPU{Mem: mem, IRQ: &InterruptQueue{}, Hardware: &HardwareManager{}}
}

func (c *CPU) push(v uint16) {
	c.SP--
	c.Mem.Write(c.SP, v)
}

func (c *CPU) pop() uint16 {
	v := c.Mem.Read(c.SP)
	c.SP++
	return v
}

// nextWord reads the word at PC, advances PC, and counts toward the
// current instruction's extension-word cycle surcharge.
func (c *CPU) nextWord() uint16 {
	w := c.Mem.Read(c.PC)
	c.PC++
	c.extraWords++
	return w
}

// skipWord advances PC past an extension word without charging it or
// producing a value, used only while skip-chaining.
func (c *CPU) skipWord() {
	c.PC++
}

// operandRef is a decoded operand: a place the executing opcode can read
// from and, where the encoding permits a write-back, write to. Writes to a
// literal operand are discarded, matching the real machine.
type operandRef struct {
	read  func() uint16
	write func(uint16)
}

func regRef(p *uint16) operandRef {
	return operandRef{read: func() uint16 { return *p }, write: func(v uint16) { *p = v }}
}

func memRef(mem *Memory, addr uint16) operandRef {
	return operandRef{
		read:  func() uint16 { return mem.Read(addr) },
		write: func(v uint16) { mem.Write(addr, v) },
	}
}

func litRef(v uint16) operandRef {
	return operandRef{read: func() uint16 { return v }, write: func(uint16) {}}
}

// decodeOperand resolves a 6-bit (position A) or 5-bit (position B) operand
// code, per the encoder's table in reverse. isA distinguishes the one code
// (0x18) whose meaning depends on position: POP in A, PUSH in B.
func (c *CPU) decodeOperand(code uint8, isA bool) operandRef {
	switch {
	case code <= 0x07:
		return regRef(&c.Regs[code])
	case code <= 0x0f:
		return memRef(c.Mem, c.Regs[code-0x08])
	case code <= 0x17:
		reg := c.Regs[code-0x10]
		off := c.nextWord()
		return memRef(c.Mem, reg+off)
	case code == 0x18:
		if isA {
			addr := c.SP
			c.SP++
			return memRef(c.Mem, addr)
		}
		c.SP--
		return memRef(c.Mem, c.SP)
	case code == 0x19:
		return memRef(c.Mem, c.SP)
	case code == 0x1a:
		off := c.nextWord()
		return memRef(c.Mem, c.SP+off)
	case code == 0x1b:
		return regRef(&c.SP)
	case code == 0x1c:
		return regRef(&c.PC)
	case code == 0x1d:
		return regRef(&c.EX)
	case code == 0x1e:
		addr := c.nextWord()
		return memRef(c.Mem, addr)
	case code == 0x1f:
		return litRef(c.nextWord())
	default: // 0x20-0x3f: short-form literal -1..30
		return litRef(uint16(int16(int(code) - 0x21)))
	}
}

// skipOperand advances PC past any extension word a would-be operand of
// this code would consume, without decoding it into a usable operandRef;
// used only while a skip-chain is being stepped over.
func (c *CPU) skipOperand(code uint8) {
	switch {
	case code >= 0x10 && code <= 0x17, code == 0x1a, code == 0x1e, code == 0x1f:
		c.skipWord()
	}
}

// Step executes exactly one fetch/decode/execute cycle, or one skip step if
// a skip-chain is in progress. It does not tick hardware or drain the
// interrupt queue; callers (see Executor) do that once per Step.
func (c *CPU) Step() {
	if c.OnFire {
		return
	}

	if c.SkipNext {
		w := c.Mem.Read(c.PC)
		c.PC++
		op := isa.BasicOp(w & 0x1f)
		bField := uint8((w >> 5) & 0x1f)
		aField := uint8((w >> 10) & 0x3f)
		c.skipOperand(aField)
		if op != 0 {
			c.skipOperand(bField)
		}
		c.Cycles++
		c.SkipNext = op != 0 && isa.Conditional(op)
		return
	}

	c.extraWords = 0
	w := c.Mem.Read(c.PC)
	c.PC++
	op := w & 0x1f
	bField := uint8((w >> 5) & 0x1f)
	aField := uint8((w >> 10) & 0x3f)

	if op != 0 {
		a := c.decodeOperand(aField, true)
		b := c.decodeOperand(bField, false)
		base := isa.BasicCycles[isa.BasicOp(op)]
		c.execBasic(isa.BasicOp(op), a, b)
		c.Cycles += uint64(base + c.extraWords)
		return
	}

	a := c.decodeOperand(aField, true)
	sop := isa.SpecialOp(bField)
	base := isa.SpecialCycles[sop]
	extra := c.execSpecial(sop, a)
	c.Cycles += uint64(base + extra + c.extraWords)
}

// raiseInterrupt implements INT m: immediate delivery if the CPU is not
// currently queueing, otherwise enqueue (overflow sets the machine on
// fire). IA == 0 silently discards the interrupt either way.
func (c *CPU) raiseInterrupt(msg uint16) {
	if c.IA == 0 {
		return
	}
	if !c.Queueing {
		c.deliverNow(msg)
		return
	}
	if c.IRQ.Push(msg) {
		c.OnFire = true
	}
}

func (c *CPU) deliverNow(msg uint16) {
	c.push(c.PC)
	c.push(c.Regs[0])
	c.PC = c.IA
	c.Regs[0] = msg
	c.Queueing = true
}

// drainOneInterrupt dequeues and delivers a single pending interrupt if the
// CPU is not already mid-delivery and IA is set.
func (c *CPU) drainOneInterrupt() {
	if c.Queueing || c.IA == 0 {
		return
	}
	if msg, ok := c.IRQ.Pop(); ok {
		c.deliverNow(msg)
	}
}

// DrainOneInterrupt is the exported form of drainOneInterrupt, for callers
// outside this package (the debugger) that drive the fetch/execute loop
// themselves instead of going through an Executor.
func (c *CPU) DrainOneInterrupt() {
	c.drainOneInterrupt()
}
