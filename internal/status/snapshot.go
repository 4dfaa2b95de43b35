// internal/status/snapshot.go
package status

// Snapshot represents exactly what the publisher is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health        uint8
	Mode          uint8
	Relays        uint8 // slots in use, at most MaxRelays
	LastErrorCode uint8
	WriteFailures uint16
	Pending       uint32
	States        [MaxRelays]uint8
}

// NewSnapshot returns the boot snapshot: health unknown, every relay
// state unknown.
func NewSnapshot(mode uint8, relays int) Snapshot {
	if relays > MaxRelays {
		relays = MaxRelays
	}
	s := Snapshot{
		Health: HealthUnknown,
		Mode:   mode,
		Relays: uint8(relays),
	}
	for i := range s.States {
		s.States[i] = StateUnknown
	}
	return s
}
