// internal/status/constants.go
package status

// Relay Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// MaxRelays is the number of relay slots carried by the block.
const MaxRelays = 32

// HeaderSize is the number of bytes before the per-relay states.
const HeaderSize = 12

// BlockSize is the full encoded size.
const BlockSize = HeaderSize + MaxRelays

// ---- HEADER OFFSETS ----

// OffsetHealth holds the output health code.
const OffsetHealth = 0

// OffsetMode holds the output translation mode.
const OffsetMode = 1

// OffsetRelayCount holds the number of relay slots in use.
const OffsetRelayCount = 2

// OffsetLastErrorCode holds the last error code (0 = none).
const OffsetLastErrorCode = 3

// OffsetWriteFailures holds the failed output writes, u16 LE, saturating.
const OffsetWriteFailures = 4

// Bytes 6..7 are reserved.

// OffsetPendingMask holds one bit per relay with a pending revert, u32 LE.
const OffsetPendingMask = 8

// OffsetStates is the first per-relay state byte.
const OffsetStates = HeaderSize

// ---- STATE CODES ----

// StateUnknown marks a relay that never received a command.
const StateUnknown uint8 = 0xFF

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state (no write yet).
const HealthUnknown uint8 = 0

// HealthOK represents a successful last write.
const HealthOK uint8 = 1

// HealthError represents a failed last write.
const HealthError uint8 = 2

// ---- ERROR CODES ----

// ErrorOutputWrite is set when a bank write failed.
const ErrorOutputWrite uint8 = 1

// ---- RECORD ----

// RecordName is the store record the block is published under.
const RecordName = "status"
