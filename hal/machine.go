package hal

import (
	"fmt"

	"tickos/internal/debug"
)

// NumTotalRegs is the size of the simulated register file.
const NumTotalRegs = 40

// Machine is the user-mode register file. Threads hosting a user program
// snapshot it across context switches.
type Machine struct {
	registers [NumTotalRegs]int32
}

// NewMachine creates a zeroed register file.
func NewMachine() *Machine {
	return &Machine{}
}

// ReadRegister returns register i.
func (m *Machine) ReadRegister(i int) int32 {
	if i < 0 || i >= NumTotalRegs {
		panic(fmt.Sprintf("machine: read of register %d out of %d", i, NumTotalRegs))
	}
	return m.registers[i]
}

// WriteRegister sets register i to v.
func (m *Machine) WriteRegister(i int, v int32) {
	if i < 0 || i >= NumTotalRegs {
		panic(fmt.Sprintf("machine: write of register %d out of %d", i, NumTotalRegs))
	}
	debug.Log(debug.TagMachine, "register write", debug.Fields{
		"reg":   i,
		"value": v,
	})
	m.registers[i] = v
}
