// internal/canbus/transmitter_test.go
package canbus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/brutella/can"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canid"
)

type staticAddr struct{ typ, id uint8 }

func (a staticAddr) Address() (uint8, uint8) { return a.typ, a.id }

type fakePublisher struct {
	mu     sync.Mutex
	frames []can.Frame
	err    error
}

func (p *fakePublisher) Publish(f can.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
	return p.err
}

func (p *fakePublisher) sent() []can.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]can.Frame(nil), p.frames...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func TestTransmitter_SendBuildsIdentifier(t *testing.T) {
	tx := NewTransmitter(staticAddr{typ: 5, id: 3}, 4, quietLogger())
	pub := &fakePublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tx.Run(ctx, pub) }()

	if err := tx.Send(ctx, canid.Available, []byte{1}, false); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := tx.Send(ctx, canid.Uptime, nil, true); err != nil {
		t.Fatalf("Send: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(pub.sent()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	frames := pub.sent()
	if len(frames) != 2 {
		t.Fatalf("published %d frames", len(frames))
	}

	id, ok := ExtendedID(frames[0])
	if !ok {
		t.Fatalf("not extended")
	}
	d := canid.Decode(id)
	if !d.Version || d.DeviceType != 5 || d.DeviceID != 3 || d.MsgType != canid.Available {
		t.Fatalf("decoded %s", d)
	}
	if !bytes.Equal(Payload(frames[0]), []byte{1}) {
		t.Fatalf("payload %x", Payload(frames[0]))
	}
	if !IsRemote(frames[1]) {
		t.Fatalf("second frame should be RTR")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}

func TestTransmitter_SendBlocksWhenFull(t *testing.T) {
	tx := NewTransmitter(staticAddr{typ: 1, id: 1}, 1, quietLogger())

	if err := tx.Send(context.Background(), canid.Ping, nil, false); err != nil {
		t.Fatalf("Send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := tx.Send(ctx, canid.Ping, nil, false); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestTransmitter_PublishErrorDoesNotStop(t *testing.T) {
	tx := NewTransmitter(staticAddr{typ: 1, id: 1}, 2, quietLogger())
	pub := &fakePublisher{err: errors.New("bus down")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tx.Run(ctx, pub)

	_ = tx.Send(ctx, canid.Ping, nil, false)
	_ = tx.Send(ctx, canid.Ping, nil, false)

	deadline := time.Now().Add(2 * time.Second)
	for len(pub.sent()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(pub.sent()) != 2 {
		t.Fatalf("published %d frames", len(pub.sent()))
	}
}

func TestTransmitter_SendRejectsLongPayload(t *testing.T) {
	tx := NewTransmitter(staticAddr{}, 1, quietLogger())
	if err := tx.Send(context.Background(), canid.CustomString, make([]byte, 9), false); err != ErrPayloadTooLong {
		t.Fatalf("err=%v", err)
	}
}
