// internal/report/reporter.go
package report

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canid"
)

// DefaultInterval is the duplicate suppression window.
const DefaultInterval = time.Second

// maxTracked bounds the dedup table; the oldest entry is evicted.
const maxTracked = 16

// Sender is the transmit path. *canbus.Transmitter satisfies it.
type Sender interface {
	Send(ctx context.Context, msg canid.MessageType, data []byte, rtr bool) error
}

type dedupKey struct {
	component Component
	code      Code
	local     uint8
}

// Reporter sends DeviceError frames, suppressing repeats of the same
// (component, code, local code) inside the interval.
type Reporter struct {
	tx       Sender
	interval time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	mu   sync.Mutex
	last map[dedupKey]time.Time
}

func NewReporter(tx Sender, interval time.Duration, log logrus.FieldLogger) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reporter{
		tx:       tx,
		interval: interval,
		log:      log,
		now:      time.Now,
		last:     make(map[dedupKey]time.Time),
	}
}

// Report sends one error report. Details beyond 4 bytes are cut.
// Returns nil without sending when suppressed.
func (r *Reporter) Report(ctx context.Context, c Component, code Code, sev Severity, local uint8, details ...byte) error {
	if !r.admit(dedupKey{component: c, code: code, local: local}) {
		return nil
	}

	rep := Report{Component: c, Code: code, Severity: sev, LocalCode: local}
	copy(rep.Details[:], details)

	r.log.WithFields(logrus.Fields{
		"component": c,
		"code":      code,
		"severity":  sev,
		"local":     local,
	}).Debug("error report")

	b := rep.Bytes()
	return r.tx.Send(ctx, canid.DeviceError, b[:], false)
}

func (r *Reporter) admit(k dedupKey) bool {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.last[k]; ok && now.Sub(last) < r.interval {
		return false
	}

	if _, ok := r.last[k]; !ok && len(r.last) >= maxTracked {
		var (
			oldKey dedupKey
			oldAt  time.Time
			first  = true
		)
		for key, at := range r.last {
			if first || at.Before(oldAt) {
				oldKey, oldAt, first = key, at, false
			}
		}
		delete(r.last, oldKey)
	}

	r.last[k] = now
	return true
}
