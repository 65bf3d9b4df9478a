package hal

// AddrSpace is the per-thread slice of user machine state. SaveState and
// RestoreState bracket every context switch of the thread that owns it.
type AddrSpace struct {
	machine *Machine
	saved   [NumTotalRegs]int32
}

// NewAddrSpace creates an address space bound to the register file.
func NewAddrSpace(m *Machine) *AddrSpace {
	return &AddrSpace{machine: m}
}

// SaveState snapshots the machine state owned by this space.
func (a *AddrSpace) SaveState() {
	for i := 0; i < NumTotalRegs; i++ {
		a.saved[i] = a.machine.ReadRegister(i)
	}
}

// RestoreState writes the snapshot back into the machine.
func (a *AddrSpace) RestoreState() {
	for i := 0; i < NumTotalRegs; i++ {
		a.machine.WriteRegister(i, a.saved[i])
	}
}
