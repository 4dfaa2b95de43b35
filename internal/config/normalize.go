// internal/config/normalize.go
package config

const (
	DefaultCapacity       = 16
	DefaultQueue          = 16
	DefaultTxQueue        = 8
	DefaultIdleIntervalMs = 100
	DefaultReportMs       = 1000
	DefaultModbusTimeout  = 1000
	DefaultStorePrefix    = "relaynode"
	DefaultMalformed      = "drop"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// RELAY
	// ------------------------------------------------------------

	if cfg.Relay.Mode == "" {
		cfg.Relay.Mode = "relay"
	}
	if cfg.Relay.Capacity == 0 {
		cfg.Relay.Capacity = DefaultCapacity
	}
	if cfg.Relay.Queue == 0 {
		cfg.Relay.Queue = DefaultQueue
	}
	if cfg.Relay.IdleIntervalMs == 0 {
		cfg.Relay.IdleIntervalMs = DefaultIdleIntervalMs
	}
	if cfg.Relay.Malformed == "" {
		cfg.Relay.Malformed = DefaultMalformed
	}

	// ------------------------------------------------------------
	// BUS / REPORT
	// ------------------------------------------------------------

	if cfg.Bus.TxQueue == 0 {
		cfg.Bus.TxQueue = DefaultTxQueue
	}
	if cfg.Report.IntervalMs == 0 {
		cfg.Report.IntervalMs = DefaultReportMs
	}

	// ------------------------------------------------------------
	// BANKS
	// ------------------------------------------------------------

	for i := range cfg.Outputs.Banks {
		b := &cfg.Outputs.Banks[i]
		if b.Driver == DriverModbus && b.TimeoutMs == 0 {
			b.TimeoutMs = DefaultModbusTimeout
		}
	}

	// ------------------------------------------------------------
	// STORE / LOG
	// ------------------------------------------------------------

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreMemory
	}
	if cfg.Store.Prefix == "" {
		cfg.Store.Prefix = DefaultStorePrefix
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
