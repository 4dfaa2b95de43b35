// internal/canid/canid.go
package canid

import "fmt"

// Extended identifier layout (29 bits).
// These values define the protocol and MUST NOT be configurable.
const (
	versionShift    = 28
	groupShift      = 22
	deviceTypeShift = 16
	deviceIDShift   = 8

	groupMask      = 0x3F
	deviceTypeMask = 0x3F

	// MaxID is the largest valid extended identifier.
	MaxID uint32 = 0x1FFFFFFF
)

// BroadcastID is the device id accepted by every node.
const BroadcastID uint8 = 0

// ID is a decoded node address plus message type.
// Immutable value type.
type ID struct {
	Version    bool // protocol-version flag, always set on construction
	Group      uint8
	DeviceType uint8
	DeviceID   uint8
	MsgType    MessageType
}

// New builds an identifier for an outgoing message.
// Device type is masked to 6 bits.
func New(deviceType, deviceID uint8, msg MessageType) ID {
	return ID{
		Version:    true,
		Group:      0,
		DeviceType: deviceType & deviceTypeMask,
		DeviceID:   deviceID,
		MsgType:    msg,
	}
}

// Uint32 packs the identifier into its 29-bit wire value.
func (id ID) Uint32() uint32 {
	var v uint32
	if id.Version {
		v |= 1 << versionShift
	}
	v |= (uint32(id.Group) & groupMask) << groupShift
	v |= (uint32(id.DeviceType) & deviceTypeMask) << deviceTypeShift
	v |= uint32(id.DeviceID) << deviceIDShift
	v |= uint32(id.MsgType)
	return v
}

// Decode unpacks a raw identifier. Total: unknown message types are
// preserved and report IsKnown() == false. Bits above 28 are ignored.
func Decode(raw uint32) ID {
	return ID{
		Version:    (raw>>versionShift)&0x1 != 0,
		Group:      uint8((raw >> groupShift) & groupMask),
		DeviceType: uint8((raw >> deviceTypeShift) & deviceTypeMask),
		DeviceID:   uint8(raw >> deviceIDShift),
		MsgType:    MessageType(raw),
	}
}

// IsBroadcast reports whether the identifier targets every node.
func (id ID) IsBroadcast() bool {
	return id.DeviceID == BroadcastID
}

// AddressedTo reports whether a node with the given device id must
// process this identifier (unicast to self or broadcast).
// Device type is left to the hardware filter.
func (id ID) AddressedTo(deviceID uint8) bool {
	return id.DeviceID == deviceID || id.IsBroadcast()
}

func (id ID) String() string {
	return fmt.Sprintf(
		"NG:%t Group:%d Type:%d ID:%d Msg:%s",
		id.Version, id.Group, id.DeviceType, id.DeviceID, id.MsgType,
	)
}
