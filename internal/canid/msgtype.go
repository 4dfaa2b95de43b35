// internal/canid/msgtype.go
package canid

import "fmt"

// MessageType is the low byte of the identifier.
// Open code space: every byte value is representable, only the
// catalogue below is known to this node.
type MessageType uint8

// ---- device management ----

const (
	Available          MessageType = 0x01
	Ping               MessageType = 0x02
	Uptime             MessageType = 0x03
	RequestParameter   MessageType = 0x04
	DeviceUid0         MessageType = 0x05
	DeviceUid1         MessageType = 0x06
	CustomString       MessageType = 0x07
	DeviceIDType       MessageType = 0x08
	Baudrate           MessageType = 0x09
	HwRev              MessageType = 0x0A
	ApplicationVersion MessageType = 0x0B
	Restart            MessageType = 0x0C
	DeviceError        MessageType = 0x0F
)

// ---- persisted node settings ----

const (
	RelaisMode    MessageType = 0x10
	ExtensionMode MessageType = 0x11
)

// ---- firmware update ----

const (
	FlashStart    MessageType = 0x20
	FlashProgress MessageType = 0x21
	FlashSelect   MessageType = 0x22
	FlashRead     MessageType = 0x23
	FlashWrite    MessageType = 0x24
	FlashVerify   MessageType = 0x25
	FlashErase    MessageType = 0x26
	UpdateSilence MessageType = 0x27
)

// ---- actuators ----

const (
	Relais        MessageType = 0x40
	Rollershutter MessageType = 0x41
	Nightlight    MessageType = 0x42
)

var messageTypeNames = map[MessageType]string{
	Available:          "Available",
	Ping:               "Ping",
	Uptime:             "Uptime",
	RequestParameter:   "RequestParameter",
	DeviceUid0:         "DeviceUid0",
	DeviceUid1:         "DeviceUid1",
	CustomString:       "CustomString",
	DeviceIDType:       "DeviceIdType",
	Baudrate:           "Baudrate",
	HwRev:              "HwRev",
	ApplicationVersion: "ApplicationVersion",
	Restart:            "Restart",
	DeviceError:        "DeviceError",
	RelaisMode:         "RelaisMode",
	ExtensionMode:      "ExtensionMode",
	FlashStart:         "FlashStart",
	FlashProgress:      "FlashProgress",
	FlashSelect:        "FlashSelect",
	FlashRead:          "FlashRead",
	FlashWrite:         "FlashWrite",
	FlashVerify:        "FlashVerify",
	FlashErase:         "FlashErase",
	UpdateSilence:      "UpdateSilence",
	Relais:             "Relais",
	Rollershutter:      "Rollershutter",
	Nightlight:         "Nightlight",
}

// IsKnown reports whether the code is part of the catalogue.
func (m MessageType) IsKnown() bool {
	_, ok := messageTypeNames[m]
	return ok
}

func (m MessageType) String() string {
	if name, ok := messageTypeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02X)", uint8(m))
}
