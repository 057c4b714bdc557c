package cpu

// Test helpers shared by the package tests and benchmarks.

type busAccess struct {
	Address uint16
	Value   uint8
	Write   bool
}

// MockMemory implements MemoryInterface over a flat 64KB array and records
// every access.
type MockMemory struct {
	data [0x10000]uint8
	log  []busAccess
}

// NewMockMemory creates a new mock memory instance
func NewMockMemory() *MockMemory {
	return &MockMemory{}
}

func (m *MockMemory) Read(address uint16) uint8 {
	m.log = append(m.log, busAccess{Address: address, Value: m.data[address]})
	return m.data[address]
}

func (m *MockMemory) Write(address uint16, value uint8) {
	m.log = append(m.log, busAccess{Address: address, Value: value, Write: true})
	m.data[address] = value
}

func (m *MockMemory) Peek(address uint16) uint8 {
	return m.data[address]
}

// SetBytes sets multiple bytes starting at the given address
func (m *MockMemory) SetBytes(address uint16, values ...uint8) {
	for i, value := range values {
		m.data[address+uint16(i)] = value
	}
}

func (m *MockMemory) ClearLog() {
	m.log = m.log[:0]
}

func (m *MockMemory) Writes() []busAccess {
	var out []busAccess
	for _, a := range m.log {
		if a.Write {
			out = append(out, a)
		}
	}
	return out
}
