package ku10405

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// MockBus simulates the chip's shift register bus behavior without hardware:
// each exchange returns the word transmitted on the previous exchange.  It
// also counts transactions and apply pulses so tests (and the server's mock
// mode) can assert on the controller's side effects.
type MockBus struct {
	sync.Mutex

	// Words is every word received by the mock, in order.
	Words []uint16

	// Exchanges counts Exchange calls.
	Exchanges int

	// Pulses counts rising edges seen on the apply line.
	Pulses int

	// FlipMask, when nonzero, is XORed into the echo of the exchange with
	// index FlipAt (zero based), simulating a corrupted readback of that
	// write.
	FlipMask uint16
	FlipAt   int

	shift uint16
	level bool
}

// NewMockBus returns a mock with an empty shift register.
func NewMockBus() *MockBus {
	return &MockBus{}
}

// Exchange stores w in the simulated shift register and returns the previous
// contents.
func (m *MockBus) Exchange(w []byte) ([]byte, error) {
	m.Lock()
	defer m.Unlock()
	if len(w) != 2 {
		return nil, fmt.Errorf("mock bus exchanges 2 byte words, got %d bytes", len(w))
	}
	echo := m.shift
	if m.FlipMask != 0 && m.Exchanges-1 == m.FlipAt {
		echo ^= m.FlipMask
	}
	word := binary.BigEndian.Uint16(w)
	m.shift = word
	m.Words = append(m.Words, word)
	m.Exchanges++
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, echo)
	return out, nil
}

// SetApply records the apply line level, counting rising edges.
func (m *MockBus) SetApply(level bool) error {
	m.Lock()
	defer m.Unlock()
	if level && !m.level {
		m.Pulses++
	}
	m.level = level
	return nil
}

// ApplyLevel returns the current level of the simulated apply line.
func (m *MockBus) ApplyLevel() bool {
	m.Lock()
	defer m.Unlock()
	return m.level
}
