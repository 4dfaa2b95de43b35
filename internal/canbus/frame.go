// internal/canbus/frame.go
package canbus

import (
	"errors"
	"fmt"

	"github.com/brutella/can"

	"github.com/tamzrod/relaynode/internal/canid"
)

// Linux can_frame identifier flags.
const (
	FlagExtended uint32 = 0x80000000
	FlagRemote   uint32 = 0x40000000
	FlagError    uint32 = 0x20000000

	maskExtended uint32 = 0x1FFFFFFF
)

// MaxDataLen is the classic CAN payload limit.
const MaxDataLen = 8

var ErrPayloadTooLong = errors.New("canbus: payload longer than 8 bytes")

// ExtendedID returns the 29-bit identifier of an extended data or
// remote frame. ok is false for standard and error frames.
func ExtendedID(f can.Frame) (id uint32, ok bool) {
	if f.ID&FlagExtended == 0 || f.ID&FlagError != 0 {
		return 0, false
	}
	return f.ID & maskExtended, true
}

// IsRemote reports whether f is a remote transmission request.
func IsRemote(f can.Frame) bool {
	return f.ID&FlagRemote != 0
}

// Payload copies the valid data bytes of f.
// Remote frames carry none.
func Payload(f can.Frame) []byte {
	if IsRemote(f) {
		return nil
	}
	n := int(f.Length)
	if n > MaxDataLen {
		n = MaxDataLen
	}
	out := make([]byte, n)
	copy(out, f.Data[:n])
	return out
}

// NewFrame builds an extended frame.
// For remote frames len(data) is used as the requested length only.
func NewFrame(id uint32, data []byte, rtr bool) (can.Frame, error) {
	if id > canid.MaxID {
		return can.Frame{}, fmt.Errorf("canbus: id %#x exceeds 29 bits", id)
	}
	if len(data) > MaxDataLen {
		return can.Frame{}, ErrPayloadTooLong
	}

	f := can.Frame{
		ID:     id | FlagExtended,
		Length: uint8(len(data)),
	}
	if rtr {
		f.ID |= FlagRemote
		return f, nil
	}
	copy(f.Data[:], data)
	return f, nil
}
