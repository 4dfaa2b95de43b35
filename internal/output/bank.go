// internal/output/bank.go
package output

import (
	"context"
	"sync"
)

// Bank is a group of physical outputs written together as one register.
// Implementations write the full register value; bit i drives output i.
type Bank interface {
	Name() string
	Width() int
	Write(ctx context.Context, value uint16) error
}

// Target locates one physical output.
type Target struct {
	Bank int   // index into the driver's bank list
	Bit  uint8 // bit position within the bank
}

// DefaultMapping is the wiring of the reference board: two 8-bit
// expanders, twelve relays.
func DefaultMapping() []Target {
	return []Target{
		{0, 3}, {0, 2}, {0, 1}, {0, 7}, {0, 6}, {0, 5}, {0, 4},
		{1, 3}, {1, 2}, {1, 1}, {1, 7}, {1, 6},
	}
}

// MemoryBank is a bank with no hardware behind it.
// Used for simulation and tests.
type MemoryBank struct {
	name  string
	width int

	mu     sync.Mutex
	value  uint16
	writes int
}

// NewMemoryBank creates a shadow-only bank.
func NewMemoryBank(name string, width int) *MemoryBank {
	return &MemoryBank{name: name, width: width}
}

func (b *MemoryBank) Name() string { return b.name }
func (b *MemoryBank) Width() int   { return b.width }

func (b *MemoryBank) Write(_ context.Context, value uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = value
	b.writes++
	return nil
}

// Value returns the last written register value.
func (b *MemoryBank) Value() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Writes returns the number of writes performed.
func (b *MemoryBank) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}
