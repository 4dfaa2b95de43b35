// internal/canbus/transmitter.go
package canbus

import (
	"context"

	"github.com/brutella/can"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canid"
)

// DefaultTxQueue is the transmit queue depth when none is configured.
const DefaultTxQueue = 8

// Publisher writes one frame to the bus. *can.Bus satisfies it.
type Publisher interface {
	Publish(frame can.Frame) error
}

// Addresser supplies the local address used for outgoing identifiers.
type Addresser interface {
	Address() (deviceType, deviceID uint8)
}

// Transmitter is the single owner of the transmit path.
// Any component may Send; one Run goroutine publishes in order.
type Transmitter struct {
	addr  Addresser
	queue chan can.Frame
	log   logrus.FieldLogger
}

func NewTransmitter(addr Addresser, capacity int, log logrus.FieldLogger) *Transmitter {
	if capacity <= 0 {
		capacity = DefaultTxQueue
	}
	return &Transmitter{
		addr:  addr,
		queue: make(chan can.Frame, capacity),
		log:   log,
	}
}

// Send builds a frame from the current address and enqueues it.
// Blocks while the queue is full.
func (t *Transmitter) Send(ctx context.Context, msg canid.MessageType, data []byte, rtr bool) error {
	devType, devID := t.addr.Address()
	f, err := NewFrame(canid.New(devType, devID, msg).Uint32(), data, rtr)
	if err != nil {
		return err
	}
	return t.Enqueue(ctx, f)
}

// Enqueue queues a prebuilt frame.
func (t *Transmitter) Enqueue(ctx context.Context, f can.Frame) error {
	select {
	case t.queue <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run publishes queued frames until ctx is done.
// Publish failures are logged and the frame is dropped.
func (t *Transmitter) Run(ctx context.Context, pub Publisher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case f := <-t.queue:
			if err := pub.Publish(f); err != nil {
				t.log.WithField("id", f.ID&maskExtended).WithError(err).Warn("publish failed")
			}
		}
	}
}
