package vm

import "github.com/storance/dcpu16-sub000/isa"

// execBasic carries out a two-operand opcode against its already-decoded
// operands, updating EX per the overflow/borrow rules and setting SkipNext
// for the IFx family. b is both the first source and the destination,
// matching "b, a" instruction text.
func (c *CPU) execBasic(op isa.BasicOp, a, b operandRef) {
	av, bv := a.read(), b.read()

	switch op {
	case isa.SET:
		b.write(av)
	case isa.ADD:
		sum := uint32(bv) + uint32(av)
		b.write(uint16(sum))
		c.EX = 0
		if sum > 0xffff {
			c.EX = 1
		}
	case isa.SUB:
		diff := int32(bv) - int32(av)
		b.write(uint16(diff))
		c.EX = 0
		if diff < 0 {
			c.EX = 0xffff
		}
	case isa.MUL:
		product := uint32(bv) * uint32(av)
		b.write(uint16(product))
		c.EX = uint16(product >> 16)
	case isa.MLI:
		product := int32(int16(bv)) * int32(int16(av))
		b.write(uint16(product))
		c.EX = uint16(uint32(product) >> 16)
	case isa.DIV:
		if av == 0 {
			b.write(0)
			c.EX = 0
		} else {
			b.write(bv / av)
			c.EX = uint16((uint32(bv) << 16) / uint32(av))
		}
	case isa.DVI:
		if av == 0 {
			b.write(0)
			c.EX = 0
		} else {
			sb, sa := int16(bv), int16(av)
			b.write(uint16(sb / sa))
			c.EX = uint16((int32(sb) << 16) / int32(sa))
		}
	case isa.MOD:
		if av == 0 {
			b.write(0)
		} else {
			b.write(bv % av)
		}
	case isa.MDI:
		if av == 0 {
			b.write(0)
		} else {
			b.write(uint16(int16(bv) % int16(av)))
		}
	case isa.AND:
		b.write(bv & av)
	case isa.BOR:
		b.write(bv | av)
	case isa.XOR:
		b.write(bv ^ av)
	case isa.SHR:
		shift := av
		b.write(bv >> shift)
		c.EX = uint16((uint32(bv) << 16) >> shift)
	case isa.ASR:
		shift := av
		b.write(uint16(int16(bv) >> shift))
		c.EX = uint16((uint32(bv) << 16) >> shift)
	case isa.SHL:
		shift := av
		b.write(bv << shift)
		c.EX = uint16((uint32(bv) << shift) >> 16)
	case isa.IFB:
		c.SkipNext = bv&av == 0
	case isa.IFC:
		c.SkipNext = bv&av != 0
	case isa.IFE:
		c.SkipNext = bv != av
	case isa.IFN:
		c.SkipNext = bv == av
	case isa.IFG:
		c.SkipNext = !(bv > av)
	case isa.IFA:
		c.SkipNext = !(int16(bv) > int16(av))
	case isa.IFL:
		c.SkipNext = !(bv < av)
	case isa.IFU:
		c.SkipNext = !(int16(bv) < int16(av))
	case isa.ADX:
		sum := uint32(bv) + uint32(av) + uint32(c.EX)
		b.write(uint16(sum))
		c.EX = 0
		if sum > 0xffff {
			c.EX = 1
		}
	case isa.SBX:
		diff := int64(bv) - int64(av) + int64(c.EX)
		b.write(uint16(diff))
		switch {
		case diff < 0:
			c.EX = 0xffff
		case diff > 0xffff:
			c.EX = 1
		default:
			c.EX = 0
		}
	case isa.STI:
		b.write(av)
		c.Regs[6]++ // I
		c.Regs[7]++ // J
	case isa.STD:
		b.write(av)
		c.Regs[6]--
		c.Regs[7]--
	}
}

// execSpecial carries out a one-operand opcode and returns the extra
// cycles to charge beyond its base cost (only HWI's device dispatch uses
// this; every other special opcode returns zero).
func (c *CPU) execSpecial(op isa.SpecialOp, a operandRef) int {
	switch op {
	case isa.JSR:
		target := a.read()
		c.push(c.PC)
		c.PC = target
	case isa.HCF:
		c.OnFire = true
	case isa.INT:
		c.raiseInterrupt(a.read())
	case isa.IAG:
		a.write(c.IA)
	case isa.IAS:
		c.IA = a.read()
	case isa.RFI:
		c.Queueing = false
		c.Regs[0] = c.pop()
		c.PC = c.pop()
	case isa.IAQ:
		c.Queueing = a.read() != 0
	case isa.HWN:
		c.Regs[0] = uint16(c.Hardware.Count())
	case isa.HWQ:
		c.Hardware.Query(a.read(), c)
	case isa.HWI:
		return c.Hardware.Interrupt(a.read(), c)
	}
	return 0
}
