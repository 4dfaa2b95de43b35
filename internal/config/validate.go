// internal/config/validate.go
package config

import (
	"fmt"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

var (
	relayModes     = map[string]bool{"": true, "relay": true, "software_rollershutter": true, "hardware_rollershutter": true}
	malformedModes = map[string]bool{"": true, "drop": true, "report": true}
	logFormats     = map[string]bool{"": true, "text": true, "json": true}
)

// BankWidth returns the number of outputs a bank exposes.
func (b BankConfig) BankWidth() int {
	switch b.Driver {
	case DriverExpander:
		return 8
	case DriverGPIO:
		return len(b.Pins)
	default:
		return b.Width
	}
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// NODE
	// ------------------------------------------------------------

	if cfg.Node.DeviceType > 0x3F {
		return fmt.Errorf("node: device_type %d exceeds 6 bits", cfg.Node.DeviceType)
	}
	if len(cfg.Node.CustomString) > 8 {
		return fmt.Errorf("node: custom_string longer than 8 bytes")
	}
	if !utf8.ValidString(cfg.Node.CustomString) {
		return fmt.Errorf("node: custom_string must be UTF-8")
	}

	// ------------------------------------------------------------
	// BUS / RELAY
	// ------------------------------------------------------------

	if cfg.Bus.Interface == "" {
		return fmt.Errorf("bus: interface required")
	}
	if cfg.Bus.TxQueue < 0 {
		return fmt.Errorf("bus: tx_queue must be >= 0")
	}
	if !relayModes[cfg.Relay.Mode] {
		return fmt.Errorf("relay: unknown mode %q", cfg.Relay.Mode)
	}
	if cfg.Relay.Capacity < 0 || cfg.Relay.Capacity > 256 {
		return fmt.Errorf("relay: capacity must be 0..256 (0 = default)")
	}
	if cfg.Relay.Queue < 0 {
		return fmt.Errorf("relay: queue must be >= 0")
	}
	if cfg.Relay.IdleIntervalMs < 0 {
		return fmt.Errorf("relay: idle_interval_ms must be >= 0")
	}
	if !malformedModes[cfg.Relay.Malformed] {
		return fmt.Errorf("relay: malformed policy %q (want drop|report)", cfg.Relay.Malformed)
	}

	// ------------------------------------------------------------
	// BANKS
	// ------------------------------------------------------------

	if len(cfg.Outputs.Banks) == 0 {
		return fmt.Errorf("outputs: at least one bank required")
	}

	widths := make(map[string]int, len(cfg.Outputs.Banks))

	for i, b := range cfg.Outputs.Banks {
		if b.Name == "" {
			return fmt.Errorf("outputs: bank %d has no name", i)
		}
		if _, dup := widths[b.Name]; dup {
			return fmt.Errorf("outputs: duplicate bank name %q", b.Name)
		}

		switch b.Driver {
		case DriverExpander:
			if b.Address == 0 || b.Address > 0x7F {
				return fmt.Errorf("outputs: bank %q: i2c address must be 0x01..0x7F", b.Name)
			}
		case DriverGPIO:
			if len(b.Pins) == 0 || len(b.Pins) > 16 {
				return fmt.Errorf("outputs: bank %q: need 1..16 pins", b.Name)
			}
		case DriverModbus:
			if b.Endpoint == "" {
				return fmt.Errorf("outputs: bank %q: endpoint required", b.Name)
			}
			if b.TimeoutMs < 0 {
				return fmt.Errorf("outputs: bank %q: timeout_ms must be >= 0", b.Name)
			}
			fallthrough
		case DriverMemory:
			if b.Width <= 0 || b.Width > 16 {
				return fmt.Errorf("outputs: bank %q: width must be 1..16", b.Name)
			}
		default:
			return fmt.Errorf("outputs: bank %q: unknown driver %q", b.Name, b.Driver)
		}

		widths[b.Name] = b.BankWidth()
	}

	// ------------------------------------------------------------
	// MAPPING
	// ------------------------------------------------------------

	// key = bank | bit
	owner := make(map[string]int)

	for i, m := range cfg.Outputs.Mapping {
		w, ok := widths[m.Bank]
		if !ok {
			return fmt.Errorf("outputs: mapping %d references unknown bank %q", i, m.Bank)
		}
		if int(m.Bit) >= w {
			return fmt.Errorf("outputs: mapping %d bit %d outside bank %q (width %d)", i, m.Bit, m.Bank, w)
		}

		key := fmt.Sprintf("%s|%d", m.Bank, m.Bit)
		if prev, exists := owner[key]; exists {
			return fmt.Errorf(
				"outputs: mapping collision: bank=%s bit=%d used by outputs %d and %d",
				m.Bank, m.Bit, prev, i,
			)
		}
		owner[key] = i
	}

	// ------------------------------------------------------------
	// STORE / REPORT / LOG
	// ------------------------------------------------------------

	switch cfg.Store.Backend {
	case "", StoreMemory:
	case StoreRedis:
		if cfg.Store.Addr == "" {
			return fmt.Errorf("store: redis addr required")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", cfg.Store.Backend)
	}

	if cfg.Report.IntervalMs < 0 {
		return fmt.Errorf("report: interval_ms must be >= 0")
	}

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if !logFormats[cfg.Log.Format] {
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}

	return nil
}
