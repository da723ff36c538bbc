// Package vm implements the emulator core: the 64Ki-word memory image, the
// CPU fetch/decode/execute loop, the interrupt queue, the hardware device
// manager, and the executor that paces the loop against a target clock.
package vm

// MemSize is the machine's address space: 65,536 16-bit words.
const MemSize = 65536

// Memory is the machine's flat word-addressed RAM. Every address wraps
// modulo MemSize, matching the CPU's own 16-bit register wraparound.
type Memory [MemSize]uint16

// Read returns the word at addr, wrapping the address modulo MemSize.
func (m *Memory) Read(addr uint16) uint16 {
	return m[addr]
}

// Write stores v at addr, wrapping the address modulo MemSize.
func (m *Memory) Write(addr uint16, v uint16) {
	m[addr] = v
}

// LoadImage copies words into memory starting at address 0, truncating if
// the image is longer than MemSize.
func (m *Memory) LoadImage(words []uint16) {
	n := len(words)
	if n > MemSize {
		n = MemSize
	}
	copy(m[:n], words[:n])
}
