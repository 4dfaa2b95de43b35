// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Key identifies one persisted node setting.
// Numbering is shared with peers and MUST NOT change.
type Key uint8

const (
	RelayMode        Key = 1
	ExtensionMode    Key = 2
	DeviceID         Key = 3
	DeviceType       Key = 4
	CustomString     Key = 5
	Baudrate         Key = 6
	HardwareRevision Key = 7
)

func (k Key) String() string {
	switch k {
	case RelayMode:
		return "relay_mode"
	case ExtensionMode:
		return "extension_mode"
	case DeviceID:
		return "device_id"
	case DeviceType:
		return "device_type"
	case CustomString:
		return "custom_string"
	case Baudrate:
		return "baudrate"
	case HardwareRevision:
		return "hw_revision"
	default:
		return fmt.Sprintf("key(%d)", uint8(k))
	}
}

var (
	ErrNotFound  = errors.New("store: not found")
	ErrBadLength = errors.New("store: unexpected value length")
	ErrNotUTF8   = errors.New("store: value is not valid UTF-8")
)

// Store persists raw setting values.
type Store interface {
	Get(ctx context.Context, k Key) ([]byte, error)
	Set(ctx context.Context, k Key, v []byte) error
}

// Publisher stores auxiliary records outside the settings key space.
type Publisher interface {
	Publish(ctx context.Context, name string, v []byte) error
}

// GetU8 reads a one-byte setting.
func GetU8(ctx context.Context, s Store, k Key) (uint8, error) {
	v, err := s.Get(ctx, k)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("%w: %s has %d bytes", ErrBadLength, k, len(v))
	}
	return v[0], nil
}

func SetU8(ctx context.Context, s Store, k Key, v uint8) error {
	return s.Set(ctx, k, []byte{v})
}

// GetString reads a UTF-8 setting.
func GetString(ctx context.Context, s Store, k Key) (string, error) {
	v, err := s.Get(ctx, k)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(v) {
		return "", fmt.Errorf("%w: %s", ErrNotUTF8, k)
	}
	return string(v), nil
}

func SetString(ctx context.Context, s Store, k Key, v string) error {
	if !utf8.ValidString(v) {
		return fmt.Errorf("%w: %s", ErrNotUTF8, k)
	}
	return s.Set(ctx, k, []byte(v))
}
