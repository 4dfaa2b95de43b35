// internal/status/encode.go
package status

import "encoding/binary"

// Encode converts a Snapshot into a full relay status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []byte {
	b := make([]byte, BlockSize)

	b[OffsetHealth] = s.Health
	b[OffsetMode] = s.Mode
	b[OffsetRelayCount] = s.Relays
	b[OffsetLastErrorCode] = s.LastErrorCode
	binary.LittleEndian.PutUint16(b[OffsetWriteFailures:], s.WriteFailures)
	binary.LittleEndian.PutUint32(b[OffsetPendingMask:], s.Pending)
	copy(b[OffsetStates:], s.States[:])

	return b
}
