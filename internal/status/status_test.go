// internal/status/status_test.go
package status

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/relay"
	"github.com/tamzrod/relaynode/internal/store"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func TestEncode_Layout(t *testing.T) {
	s := NewSnapshot(2, 4)
	s.Health = HealthError
	s.LastErrorCode = ErrorOutputWrite
	s.WriteFailures = 0x0102
	s.Pending = 0x5
	s.States[0] = uint8(relay.Down)

	b := Encode(s)
	if len(b) != BlockSize {
		t.Fatalf("len=%d", len(b))
	}
	if b[OffsetHealth] != HealthError || b[OffsetMode] != 2 || b[OffsetRelayCount] != 4 {
		t.Fatalf("header=%x", b[:HeaderSize])
	}
	if b[OffsetLastErrorCode] != ErrorOutputWrite {
		t.Fatalf("error code=%d", b[OffsetLastErrorCode])
	}
	if binary.LittleEndian.Uint16(b[OffsetWriteFailures:]) != 0x0102 {
		t.Fatalf("failures=%x", b[OffsetWriteFailures:OffsetWriteFailures+2])
	}
	if binary.LittleEndian.Uint32(b[OffsetPendingMask:]) != 0x5 {
		t.Fatalf("pending=%x", b[OffsetPendingMask:OffsetPendingMask+4])
	}
	if b[OffsetStates] != uint8(relay.Down) || b[OffsetStates+1] != StateUnknown {
		t.Fatalf("states=%x", b[OffsetStates:OffsetStates+2])
	}
}

func TestNewSnapshot_ClampsRelays(t *testing.T) {
	if s := NewSnapshot(0, 200); s.Relays != MaxRelays {
		t.Fatalf("relays=%d", s.Relays)
	}
}

func TestPublisher_Applied(t *testing.T) {
	p := NewPublisher(store.NewMemory(), 0, 8, quietLogger())

	p.Applied(3, relay.On, true, nil)
	s := p.Snapshot()
	if s.Health != HealthOK || s.States[3] != uint8(relay.On) || s.Pending != 1<<3 {
		t.Fatalf("snapshot=%+v", s)
	}

	p.Applied(3, relay.Off, false, errors.New("nack"))
	s = p.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != ErrorOutputWrite || s.WriteFailures != 1 {
		t.Fatalf("snapshot=%+v", s)
	}
	if s.Pending != 0 || s.States[3] != uint8(relay.Off) {
		t.Fatalf("relay 3 not updated: %+v", s)
	}

	// out of block range: health only
	p.Applied(40, relay.On, true, nil)
	if s := p.Snapshot(); s.Health != HealthOK || s.Pending != 0 {
		t.Fatalf("snapshot=%+v", s)
	}
}

func TestPublisher_FailuresSaturate(t *testing.T) {
	p := NewPublisher(store.NewMemory(), 0, 1, quietLogger())
	p.snap.WriteFailures = 0xFFFF
	p.Applied(0, relay.On, false, errors.New("x"))
	if p.Snapshot().WriteFailures != 0xFFFF {
		t.Fatalf("wrapped")
	}
}

func TestPublisher_RunDelivers(t *testing.T) {
	mem := store.NewMemory()
	p := NewPublisher(mem, 1, 4, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Applied(1, relay.Up, false, nil)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b, ok := mem.Record(RecordName); ok && len(b) == BlockSize && b[OffsetStates+1] == uint8(relay.Up) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status block not published")
}
