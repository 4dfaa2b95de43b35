// internal/canbus/socket_other.go
//go:build !linux

package canbus

import (
	"errors"

	"github.com/tamzrod/relaynode/internal/canid"
)

var errUnsupported = errors.New("canbus: SocketCAN requires linux")

// Socket is unavailable off linux.
type Socket struct{}

func Open(string, canid.FilterSet) (*Socket, error) { return nil, errUnsupported }

func (s *Socket) SetFilters(canid.FilterSet) error { return errUnsupported }
func (s *Socket) Read([]byte) (int, error)         { return 0, errUnsupported }
func (s *Socket) Write([]byte) (int, error)        { return 0, errUnsupported }
func (s *Socket) Close() error                     { return nil }
