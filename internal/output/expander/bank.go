// internal/output/expander/bank.go
package expander

import (
	"context"
	"fmt"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
)

// PCA9554-style 8-bit port expander registers.
const (
	regOutput byte = 0x01
	regConfig byte = 0x03
)

// Width is the number of outputs on one expander.
const Width = 8

type Config struct {
	Name string
	Bus  string // i2creg bus name, "" for the first bus
	Addr uint16
}

// tx is the subset of *i2c.Dev the bank uses.
type tx interface {
	Tx(w, r []byte) error
}

// Bank is one I2C port expander driving eight relay outputs.
type Bank struct {
	name string
	dev  tx
	bus  i2c.BusCloser
}

// Open opens the bus and configures every pin as an output.
// periph host drivers must be initialized before.
func Open(cfg Config) (*Bank, error) {
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("expander %s: open bus %q: %w", cfg.Name, cfg.Bus, err)
	}

	b := &Bank{
		name: cfg.Name,
		dev:  &i2c.Dev{Bus: bus, Addr: cfg.Addr},
		bus:  bus,
	}
	if err := b.configure(); err != nil {
		bus.Close()
		return nil, err
	}
	return b, nil
}

// configure latches all-off before switching the pins to outputs.
func (b *Bank) configure() error {
	if err := b.dev.Tx([]byte{regOutput, 0x00}, nil); err != nil {
		return fmt.Errorf("expander %s: clear output: %w", b.name, err)
	}
	if err := b.dev.Tx([]byte{regConfig, 0x00}, nil); err != nil {
		return fmt.Errorf("expander %s: configure: %w", b.name, err)
	}
	return nil
}

func (b *Bank) Name() string { return b.name }
func (b *Bank) Width() int   { return Width }

// Write sets the output port register.
func (b *Bank) Write(_ context.Context, value uint16) error {
	return b.dev.Tx([]byte{regOutput, byte(value)}, nil)
}

func (b *Bank) Close() error {
	if b.bus == nil {
		return nil
	}
	return b.bus.Close()
}
