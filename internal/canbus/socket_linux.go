// internal/canbus/socket_linux.go
//go:build linux

package canbus

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/tamzrod/relaynode/internal/canid"
)

// Socket is a raw SocketCAN endpoint.
// It reads and writes 16-byte struct can_frame records and is meant
// to be wrapped by can.NewReadWriteCloser.
type Socket struct {
	fd   int
	file *os.File
}

// Open binds a raw CAN socket to iface and installs the acceptance
// filters of the node.
func Open(iface string, filters canid.FilterSet) (*Socket, error) {
	netIf, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("canbus: interface %s: %w", iface, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("canbus: socket: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: netIf.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbus: bind %s: %w", iface, err)
	}

	s := &Socket{fd: fd}
	if err := s.SetFilters(filters); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// Non-blocking so the runtime poller owns the fd and Close
	// unblocks a pending Read.
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbus: nonblock: %w", err)
	}
	s.file = os.NewFile(uintptr(fd), "can:"+iface)

	return s, nil
}

// SetFilters replaces the kernel acceptance filters.
func (s *Socket) SetFilters(filters canid.FilterSet) error {
	if err := unix.SetsockoptCanRawFilter(s.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, kernelFilters(filters)); err != nil {
		return fmt.Errorf("canbus: set filters: %w", err)
	}
	return nil
}

func (s *Socket) Read(p []byte) (int, error)  { return s.file.Read(p) }
func (s *Socket) Write(p []byte) (int, error) { return s.file.Write(p) }
func (s *Socket) Close() error                { return s.file.Close() }

// kernelFilters converts the filter set to CAN_RAW_FILTER entries.
// The extended flag is part of code and mask so standard frames never
// pass. The RTR flag is left out of the mask: remote requests pass.
func kernelFilters(set canid.FilterSet) []unix.CanFilter {
	all := set.All()
	out := make([]unix.CanFilter, 0, len(all))
	for _, f := range all {
		out = append(out, unix.CanFilter{
			Id:   f.Code | unix.CAN_EFF_FLAG,
			Mask: f.Mask | unix.CAN_EFF_FLAG,
		})
	}
	return out
}
