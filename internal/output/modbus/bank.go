// internal/output/modbus/bank.go
package modbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// coilWriter is the subset of modbus.Client the bank uses.
type coilWriter interface {
	WriteMultipleCoils(address, quantity uint16, value []byte) ([]byte, error)
}

// Bank is a Modbus TCP relay board seen as one output register.
// Bit i of the register drives coil CoilAddress+i.
// It serializes requests on its single TCP connection.
type Bank struct {
	name  string
	width int
	coil  uint16

	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  coilWriter
}

type Config struct {
	Name        string
	Endpoint    string
	UnitID      uint8
	CoilAddress uint16
	Width       int
	Timeout     time.Duration
}

// New connects to the board.
func New(cfg Config) (*Bank, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("output modbus: endpoint required")
	}
	if cfg.Width <= 0 || cfg.Width > 16 {
		return nil, errors.New("output modbus: width must be 1..16")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Bank{
		name:    cfg.Name,
		width:   cfg.Width,
		coil:    cfg.CoilAddress,
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (b *Bank) Name() string { return b.name }
func (b *Bank) Width() int   { return b.width }

// Write sets all coils of the bank from the register value.
func (b *Bank) Write(_ context.Context, value uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.client.WriteMultipleCoils(b.coil, uint16(b.width), packBits(value, b.width))
	return err
}

func (b *Bank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handler == nil {
		return nil
	}
	return b.handler.Close()
}

// packBits lays out the low width bits of value in coil order
// (LSB of the first byte is the first coil).
func packBits(value uint16, width int) []byte {
	n := (width + 7) / 8
	out := make([]byte, n)
	for i := 0; i < width; i++ {
		if value&(1<<uint(i)) != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
