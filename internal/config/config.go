// internal/config/config.go
package config

type Config struct {
	Node    NodeConfig    `yaml:"node"`
	Bus     BusConfig     `yaml:"bus"`
	Relay   RelayConfig   `yaml:"relay"`
	Outputs OutputsConfig `yaml:"outputs"`
	Store   StoreConfig   `yaml:"store"`
	Report  ReportConfig  `yaml:"report"`
	Status  StatusConfig  `yaml:"status"`
	Log     LogConfig     `yaml:"log"`
}

// ---- NODE ----

// NodeConfig holds boot identity. Values found in the store win.
type NodeConfig struct {
	DeviceType   uint8  `yaml:"device_type"` // 6 bits on the wire
	DeviceID     uint8  `yaml:"device_id"`
	UID          uint64 `yaml:"uid"` // hardware unique id, answered to uid requests
	HwRevision   uint8  `yaml:"hw_revision"`
	CustomString string `yaml:"custom_string"` // max 8 bytes
}

// ---- BUS ----

type BusConfig struct {
	Interface string `yaml:"interface"` // e.g. can0
	TxQueue   int    `yaml:"tx_queue"`
}

// ---- RELAY ----

type RelayConfig struct {
	Mode           string `yaml:"mode"`     // relay | software_rollershutter | hardware_rollershutter
	Capacity       int    `yaml:"capacity"` // relay slots
	Queue          int    `yaml:"queue"`    // command channel depth
	IdleIntervalMs int    `yaml:"idle_interval_ms"`
	Malformed      string `yaml:"malformed"` // drop | report
}

// ---- OUTPUTS ----

type OutputsConfig struct {
	Banks   []BankConfig    `yaml:"banks"`
	Mapping []MappingConfig `yaml:"mapping"` // physical output index -> bank/bit; empty = board default
}

const (
	DriverExpander = "expander"
	DriverGPIO     = "gpio"
	DriverModbus   = "modbus"
	DriverMemory   = "memory"
)

type BankConfig struct {
	Name   string `yaml:"name"`
	Driver string `yaml:"driver"`

	// expander
	I2CBus  string `yaml:"i2c_bus"`
	Address uint16 `yaml:"address"`

	// gpio
	Pins []string `yaml:"pins"`

	// modbus
	Endpoint    string `yaml:"endpoint"`
	UnitID      uint8  `yaml:"unit_id"`
	CoilAddress uint16 `yaml:"coil_address"`
	TimeoutMs   int    `yaml:"timeout_ms"`

	// modbus, memory
	Width int `yaml:"width"`
}

type MappingConfig struct {
	Bank string `yaml:"bank"`
	Bit  uint8  `yaml:"bit"`
}

// ---- STORE ----

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type StoreConfig struct {
	Backend  string `yaml:"backend"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ---- REPORT ----

type ReportConfig struct {
	IntervalMs int `yaml:"interval_ms"` // duplicate suppression window
}

// ---- STATUS ----

type StatusConfig struct {
	Enabled bool `yaml:"enabled"` // publish relay snapshot to the store
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}
