// internal/output/builder.go
package output

import (
	"fmt"
	"time"

	"periph.io/x/periph/host"

	cfg "github.com/tamzrod/relaynode/internal/config"
	"github.com/tamzrod/relaynode/internal/output/expander"
	ogpio "github.com/tamzrod/relaynode/internal/output/gpio"
	omodbus "github.com/tamzrod/relaynode/internal/output/modbus"
)

type closer interface {
	Close() error
}

// BuildBanks opens one bank per config entry, in order.
// Assumes config has already passed validation.
func BuildBanks(c cfg.OutputsConfig) ([]Bank, func() error, error) {
	var (
		banks   []Bank
		closers []closer
	)

	closeAll := func() error {
		var last error
		for _, cl := range closers {
			if err := cl.Close(); err != nil {
				last = err
			}
		}
		return last
	}

	hostReady := false

	for _, bc := range c.Banks {
		if (bc.Driver == cfg.DriverExpander || bc.Driver == cfg.DriverGPIO) && !hostReady {
			if _, err := host.Init(); err != nil {
				return nil, nil, fmt.Errorf("output: periph host init: %w", err)
			}
			hostReady = true
		}

		var (
			b   Bank
			err error
		)

		switch bc.Driver {
		case cfg.DriverExpander:
			var eb *expander.Bank
			eb, err = expander.Open(expander.Config{Name: bc.Name, Bus: bc.I2CBus, Addr: bc.Address})
			if err == nil {
				b = eb
				closers = append(closers, eb)
			}

		case cfg.DriverGPIO:
			b, err = ogpio.Open(bc.Name, bc.Pins)

		case cfg.DriverModbus:
			var mb *omodbus.Bank
			mb, err = omodbus.New(omodbus.Config{
				Name:        bc.Name,
				Endpoint:    bc.Endpoint,
				UnitID:      bc.UnitID,
				CoilAddress: bc.CoilAddress,
				Width:       bc.Width,
				Timeout:     time.Duration(bc.TimeoutMs) * time.Millisecond,
			})
			if err == nil {
				b = mb
				closers = append(closers, mb)
			}

		case cfg.DriverMemory:
			b = NewMemoryBank(bc.Name, bc.Width)

		default:
			err = fmt.Errorf("output: bank %q: unknown driver %q", bc.Name, bc.Driver)
		}

		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		banks = append(banks, b)
	}

	return banks, closeAll, nil
}

// BuildMapping resolves the physical output table.
// An empty mapping selects the reference board wiring when the first
// two banks are at least 8 wide, and a linear bank-by-bank layout
// otherwise.
func BuildMapping(c cfg.OutputsConfig) []Target {
	if len(c.Mapping) > 0 {
		index := make(map[string]int, len(c.Banks))
		for i, b := range c.Banks {
			index[b.Name] = i
		}
		out := make([]Target, len(c.Mapping))
		for i, m := range c.Mapping {
			out[i] = Target{Bank: index[m.Bank], Bit: m.Bit}
		}
		return out
	}

	if len(c.Banks) >= 2 && c.Banks[0].BankWidth() >= 8 && c.Banks[1].BankWidth() >= 8 {
		return DefaultMapping()
	}

	var out []Target
	for i, b := range c.Banks {
		for bit := 0; bit < b.BankWidth(); bit++ {
			out = append(out, Target{Bank: i, Bit: uint8(bit)})
		}
	}
	return out
}

// Build opens the banks and returns a ready driver.
func Build(rc cfg.RelayConfig, oc cfg.OutputsConfig) (*Driver, func() error, error) {
	mode, err := ParseMode(rc.Mode)
	if err != nil {
		return nil, nil, err
	}

	banks, closeAll, err := BuildBanks(oc)
	if err != nil {
		return nil, nil, err
	}

	d, err := NewDriver(mode, banks, BuildMapping(oc))
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	return d, closeAll, nil
}
