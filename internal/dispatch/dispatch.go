// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/brutella/can"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canbus"
	"github.com/tamzrod/relaynode/internal/canid"
	"github.com/tamzrod/relaynode/internal/relay"
	"github.com/tamzrod/relaynode/internal/report"
)

// Frame is an inbound frame after identifier decoding.
type Frame struct {
	ID     canid.ID
	Data   []byte
	Remote bool
}

// HandlerFunc processes one addressed frame of a registered type.
type HandlerFunc func(ctx context.Context, f Frame)

// Local supplies the device id used for the addressing check.
type Local interface {
	DeviceID() uint8
}

// Reporter emits error reports. *report.Reporter satisfies it.
type Reporter interface {
	Report(ctx context.Context, c report.Component, code report.Code, sev report.Severity, local uint8, details ...byte) error
}

// Policy is the reaction to a malformed relay payload.
type Policy uint8

const (
	PolicyDrop   Policy = 0 // debug log only
	PolicyReport Policy = 1 // InvalidData error report
)

func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return PolicyDrop, nil
	case "report":
		return PolicyReport, nil
	default:
		return 0, fmt.Errorf("dispatch: unknown malformed policy %q", name)
	}
}

// Stats counts dispatch outcomes.
type Stats struct {
	Unaddressed uint64
	Malformed   uint64
	Enqueued    uint64
	Unhandled   uint64
}

// Dispatcher routes received frames.
// Relay and rollershutter commands go to the command channel; other
// registered types go to their handler.
type Dispatcher struct {
	local    Local
	commands chan<- relay.Command
	handlers map[canid.MessageType]HandlerFunc
	log      logrus.FieldLogger

	policy   Policy
	reporter Reporter

	unaddressed atomic.Uint64
	malformed   atomic.Uint64
	enqueued    atomic.Uint64
	unhandled   atomic.Uint64
}

func New(local Local, commands chan<- relay.Command, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		local:    local,
		commands: commands,
		handlers: make(map[canid.MessageType]HandlerFunc),
		log:      log,
	}
}

// Register installs the handler for a message type.
// Relais and Rollershutter are always routed to the command channel.
// Call before the first Dispatch.
func (d *Dispatcher) Register(t canid.MessageType, h HandlerFunc) {
	d.handlers[t] = h
}

// SetMalformedPolicy selects the malformed payload reaction.
// PolicyReport without a reporter behaves like PolicyDrop.
func (d *Dispatcher) SetMalformedPolicy(p Policy, r Reporter) {
	d.policy = p
	d.reporter = r
}

// Dispatch handles one bus frame. Standard and error frames are ignored.
// It blocks while the command channel is full and returns ctx.Err()
// if cancelled while waiting.
func (d *Dispatcher) Dispatch(ctx context.Context, f can.Frame) error {
	raw, ok := canbus.ExtendedID(f)
	if !ok {
		return nil
	}
	return d.Route(ctx, Frame{
		ID:     canid.Decode(raw),
		Data:   canbus.Payload(f),
		Remote: canbus.IsRemote(f),
	})
}

// Route applies addressing and routes a decoded frame.
func (d *Dispatcher) Route(ctx context.Context, f Frame) error {
	local := d.local.DeviceID()
	if !f.ID.AddressedTo(local) {
		d.unaddressed.Add(1)
		d.log.WithFields(logrus.Fields{"to": f.ID.DeviceID, "local": local}).Debug("not addressed to us")
		return nil
	}

	switch f.ID.MsgType {
	case canid.Relais, canid.Rollershutter:
		return d.command(ctx, f)
	}

	h, ok := d.handlers[f.ID.MsgType]
	if !ok {
		d.unhandled.Add(1)
		d.log.WithField("msg", f.ID.MsgType).Debug("no handler")
		return nil
	}
	h(ctx, f)
	return nil
}

func (d *Dispatcher) command(ctx context.Context, f Frame) error {
	cmd, err := relay.ParseCommand(f.Data)
	if err != nil {
		d.malformed.Add(1)
		d.log.WithField("msg", f.ID.MsgType).WithError(err).Debug("malformed command dropped")

		if d.policy == PolicyReport && d.reporter != nil {
			var st byte
			if len(f.Data) > 1 {
				st = f.Data[1]
			}
			_ = d.reporter.Report(ctx, report.ComponentRelais, report.CodeInvalidData,
				report.SeverityWarning, 0, byte(f.ID.MsgType), byte(len(f.Data)), st)
		}
		return nil
	}

	select {
	case d.commands <- cmd:
		d.enqueued.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Unaddressed: d.unaddressed.Load(),
		Malformed:   d.malformed.Load(),
		Enqueued:    d.enqueued.Load(),
		Unhandled:   d.unhandled.Load(),
	}
}
