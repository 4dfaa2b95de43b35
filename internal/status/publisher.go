// internal/status/publisher.go
package status

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/relay"
	"github.com/tamzrod/relaynode/internal/store"
)

// Publisher keeps the relay snapshot and delivers it to the store.
// Applied runs on the engine goroutine and never does IO; Run
// delivers the latest snapshot whenever it changed.
type Publisher struct {
	dst store.Publisher
	log logrus.FieldLogger

	mu    sync.Mutex
	snap  Snapshot
	dirty chan struct{}
}

func NewPublisher(dst store.Publisher, mode uint8, relays int, log logrus.FieldLogger) *Publisher {
	return &Publisher{
		dst:   dst,
		log:   log,
		snap:  NewSnapshot(mode, relays),
		dirty: make(chan struct{}, 1),
	}
}

// Applied implements relay.Observer.
func (p *Publisher) Applied(num int, st relay.State, pending bool, err error) {
	p.mu.Lock()
	s := &p.snap

	if num >= 0 && num < int(s.Relays) {
		s.States[num] = uint8(st)
		bit := uint32(1) << uint(num)
		if pending {
			s.Pending |= bit
		} else {
			s.Pending &^= bit
		}
	}

	if err != nil {
		s.Health = HealthError
		s.LastErrorCode = ErrorOutputWrite
		// HARD INVARIANT: write_failures MUST NOT wrap
		if s.WriteFailures < 0xFFFF {
			s.WriteFailures++
		}
	} else {
		s.Health = HealthOK
		s.LastErrorCode = 0
	}
	p.mu.Unlock()

	p.markDirty()
}

func (p *Publisher) markDirty() {
	select {
	case p.dirty <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current snapshot.
func (p *Publisher) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Run publishes the boot block, then every change, until ctx is done.
// Delivery failures are logged; the next change retries.
func (p *Publisher) Run(ctx context.Context) error {
	p.markDirty()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.dirty:
			if err := p.dst.Publish(ctx, RecordName, Encode(p.Snapshot())); err != nil {
				p.log.WithError(err).Warn("status publish failed")
			}
		}
	}
}
