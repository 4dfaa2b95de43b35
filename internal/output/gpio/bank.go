// internal/output/gpio/bank.go
package gpio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
)

// pin is the subset of gpio.PinOut the bank uses.
type pin interface {
	Name() string
	Out(l gpio.Level) error
}

// Bank drives host GPIO lines; bit i of the register drives pins[i].
type Bank struct {
	name string
	pins []pin
}

// Open resolves pin names through gpioreg.
// periph host drivers must be initialized before.
func Open(name string, pinNames []string) (*Bank, error) {
	if len(pinNames) == 0 || len(pinNames) > 16 {
		return nil, fmt.Errorf("gpio %s: need 1..16 pins, got %d", name, len(pinNames))
	}

	pins := make([]pin, 0, len(pinNames))
	for _, n := range pinNames {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("gpio %s: pin %q not found", name, n)
		}
		pins = append(pins, p)
	}
	return &Bank{name: name, pins: pins}, nil
}

func (b *Bank) Name() string { return b.name }
func (b *Bank) Width() int   { return len(b.pins) }

// Write drives every pin; failures are joined.
func (b *Bank) Write(_ context.Context, value uint16) error {
	var errs []string
	for i, p := range b.pins {
		lvl := gpio.Level(value&(1<<uint(i)) != 0)
		if err := p.Out(lvl); err != nil {
			errs = append(errs, fmt.Sprintf("pin=%s err=%v", p.Name(), err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
