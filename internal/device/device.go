// internal/device/device.go
package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canid"
	"github.com/tamzrod/relaynode/internal/dispatch"
	"github.com/tamzrod/relaynode/internal/node"
	"github.com/tamzrod/relaynode/internal/report"
	"github.com/tamzrod/relaynode/internal/store"
)

// Sender is the transmit path.
type Sender interface {
	Send(ctx context.Context, msg canid.MessageType, data []byte, rtr bool) error
}

// Registrar accepts message handlers. *dispatch.Dispatcher satisfies it.
type Registrar interface {
	Register(t canid.MessageType, h dispatch.HandlerFunc)
}

// Config wires the device collaborators.
type Config struct {
	Identity *node.Identity
	Store    store.Store
	Sender   Sender
	Reporter dispatch.Reporter
	Version  string
	// Restart is called after a setting that only applies at boot was
	// persisted, or on an explicit restart request.
	Restart func(reason string)
	// Persistent is false when the store does not survive a restart.
	// Setting writes then skip the restart, which would discard them.
	Persistent bool
	Log        logrus.FieldLogger
}

// Device answers the management messages of the node:
// presence, uptime, uids, address, settings and restart.
type Device struct {
	id      *node.Identity
	store   store.Store
	tx      Sender
	rep     dispatch.Reporter
	version string
	restart func(reason string)
	durable bool
	log     logrus.FieldLogger

	boot time.Time
	now  func() time.Time

	mu     sync.Mutex
	custom string
}

// New creates the device. The custom string is read from the store
// and falls back to def.
func New(ctx context.Context, cfg Config, def string) *Device {
	d := &Device{
		id:      cfg.Identity,
		store:   cfg.Store,
		tx:      cfg.Sender,
		rep:     cfg.Reporter,
		version: cfg.Version,
		restart: cfg.Restart,
		durable: cfg.Persistent,
		log:     cfg.Log,
		now:     time.Now,
		custom:  def,
	}
	d.boot = d.now()

	s, err := store.GetString(ctx, d.store, store.CustomString)
	switch {
	case err == nil:
		d.custom = s
	case !errors.Is(err, store.ErrNotFound):
		d.log.WithError(err).Warn("custom string unreadable, using default")
	}
	return d
}

// Register installs every device handler. Available is only ever
// sent by Announce; received ones are left to the dispatcher.
func (d *Device) Register(r Registrar) {
	r.Register(canid.Ping, d.ping)
	r.Register(canid.Uptime, d.uptime)
	r.Register(canid.RequestParameter, d.requestParameter)
	r.Register(canid.DeviceUid0, d.uid(0))
	r.Register(canid.DeviceUid1, d.uid(1))
	r.Register(canid.CustomString, d.customString)
	r.Register(canid.DeviceIDType, d.idType)
	r.Register(canid.ApplicationVersion, d.applicationVersion)
	r.Register(canid.Restart, d.restartRequest)

	r.Register(canid.RelaisMode, d.setting(store.RelayMode))
	r.Register(canid.ExtensionMode, d.setting(store.ExtensionMode))
	r.Register(canid.Baudrate, d.setting(store.Baudrate))
	r.Register(canid.HwRev, d.setting(store.HardwareRevision))

	r.Register(canid.UpdateSilence, func(context.Context, dispatch.Frame) {})
	for _, t := range []canid.MessageType{
		canid.FlashStart, canid.FlashProgress, canid.FlashSelect, canid.FlashRead,
		canid.FlashWrite, canid.FlashVerify, canid.FlashErase,
	} {
		r.Register(t, d.flash)
	}
}

// Announce reports the node as available on the bus.
func (d *Device) Announce(ctx context.Context) error {
	return d.tx.Send(ctx, canid.Available, []byte{1}, false)
}

// CustomString returns the current custom string.
func (d *Device) CustomString() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.custom
}

func (d *Device) send(ctx context.Context, msg canid.MessageType, data []byte) {
	if err := d.tx.Send(ctx, msg, data, false); err != nil {
		d.log.WithField("msg", msg).WithError(err).Warn("reply not sent")
	}
}

func (d *Device) invalid(ctx context.Context, msg canid.MessageType, n int) {
	if d.rep == nil {
		return
	}
	_ = d.rep.Report(ctx, report.ComponentDevice, report.CodeInvalidData,
		report.SeverityWarning, 0, byte(msg), byte(n), 0)
}
