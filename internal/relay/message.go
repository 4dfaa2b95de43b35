// internal/relay/message.go
package relay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// State is the logical relay state carried on the wire.
type State uint8

const (
	Off  State = 0
	Up   State = 1
	Down State = 2
	On   State = 3
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case Up:
		return "up"
	case Down:
		return "down"
	case On:
		return "on"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the four wire states.
func (s State) Valid() bool {
	return s <= On
}

// PayloadLen is the wire size of a relay/rollershutter command.
const PayloadLen = 6

// MaxDuration is the largest duration the payload can carry.
// Byte 5 doubles as the bank field, leaving 24 bits of milliseconds.
const MaxDuration = 0xFFFFFF * time.Millisecond

var (
	ErrShortPayload = errors.New("relay: payload shorter than 6 bytes")
	ErrInvalidState = errors.New("relay: invalid state code")
)

// Command is one relay/rollershutter command.
//
// Wire layout:
//
//	[0]    relay number
//	[1]    state (0=off 1=up 2=down 3=on)
//	[2..6) duration in ms, u32 little-endian
//	[5]    bank (overlaps the duration's top byte)
type Command struct {
	Num        uint8
	State      State
	DurationMs uint32 // raw wire value; top byte equals Bank
	Bank       uint8
}

// ParseCommand decodes a command payload.
// Bytes past the sixth are ignored.
func ParseCommand(data []byte) (Command, error) {
	if len(data) < PayloadLen {
		return Command{}, fmt.Errorf("%w: got %d", ErrShortPayload, len(data))
	}

	st := State(data[1])
	if !st.Valid() {
		return Command{}, fmt.Errorf("%w: %d", ErrInvalidState, data[1])
	}

	return Command{
		Num:        data[0],
		State:      st,
		DurationMs: binary.LittleEndian.Uint32(data[2:6]),
		Bank:       data[5],
	}, nil
}

// Bytes encodes the command. The bank is written last and overwrites
// the duration's top byte.
func (c Command) Bytes() [PayloadLen]byte {
	var b [PayloadLen]byte
	b[0] = c.Num
	b[1] = byte(c.State)
	binary.LittleEndian.PutUint32(b[2:6], c.DurationMs)
	b[5] = c.Bank
	return b
}

// Duration is the effective revert delay: the low 24 bits of the
// duration field. Zero means no revert.
func (c Command) Duration() time.Duration {
	return time.Duration(c.DurationMs&0xFFFFFF) * time.Millisecond
}
