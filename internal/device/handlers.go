// internal/device/handlers.go
package device

import (
	"context"
	"encoding/binary"
	"unicode/utf8"

	"github.com/tamzrod/relaynode/internal/canid"
	"github.com/tamzrod/relaynode/internal/dispatch"
	"github.com/tamzrod/relaynode/internal/store"
)

// maxRelayMode is the highest relay mode code.
const maxRelayMode = 2

// ping answers a remote Ping with an empty data frame. Data frames are
// replies from peers and get no answer.
func (d *Device) ping(ctx context.Context, f dispatch.Frame) {
	if !f.Remote {
		return
	}
	d.send(ctx, canid.Ping, nil)
}

// uptime answers a remote request with whole minutes since boot, u32 LE.
func (d *Device) uptime(ctx context.Context, f dispatch.Frame) {
	if !f.Remote {
		return
	}
	minutes := uint32(d.now().Sub(d.boot).Minutes())
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], minutes)
	d.send(ctx, canid.Uptime, b[:])
}

// uid answers remote requests with the hardware uid and records
// 8-byte data frames as the peer-assigned uid0/uid1.
func (d *Device) uid(n int) dispatch.HandlerFunc {
	msg := canid.DeviceUid0
	if n == 1 {
		msg = canid.DeviceUid1
	}
	return func(ctx context.Context, f dispatch.Frame) {
		if f.Remote {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], d.id.UID())
			d.send(ctx, msg, b[:])
			return
		}
		if len(f.Data) != 8 {
			d.invalid(ctx, msg, len(f.Data))
			return
		}
		d.id.SetAssigned(n, binary.LittleEndian.Uint64(f.Data))
	}
}

// customString answers with the string zero-padded to 8 bytes, or
// stores a new one.
func (d *Device) customString(ctx context.Context, f dispatch.Frame) {
	if f.Remote {
		var b [8]byte
		copy(b[:], d.CustomString())
		d.send(ctx, canid.CustomString, b[:])
		return
	}

	if !utf8.Valid(f.Data) {
		d.invalid(ctx, canid.CustomString, len(f.Data))
		return
	}
	s := string(f.Data)

	d.mu.Lock()
	d.custom = s
	d.mu.Unlock()

	if err := store.SetString(ctx, d.store, store.CustomString, s); err != nil {
		d.log.WithError(err).Warn("custom string not persisted")
	}
}

// idType takes [id, type] and moves the node to the new address.
func (d *Device) idType(ctx context.Context, f dispatch.Frame) {
	if f.Remote {
		return
	}
	if len(f.Data) != 2 {
		d.invalid(ctx, canid.DeviceIDType, len(f.Data))
		return
	}
	if err := d.id.UpdateAddress(ctx, f.Data[1], f.Data[0]); err != nil {
		d.log.WithError(err).Warn("address update incomplete")
	}
}

// setting answers remote requests with a stored u8. A one-byte data
// frame is persisted and the node restarts to apply it.
func (d *Device) setting(k store.Key) dispatch.HandlerFunc {
	return func(ctx context.Context, f dispatch.Frame) {
		if f.Remote {
			v, err := store.GetU8(ctx, d.store, k)
			if err != nil {
				d.log.WithField("key", k).WithError(err).Debug("setting unavailable")
				return
			}
			d.send(ctx, f.ID.MsgType, []byte{v})
			return
		}

		if len(f.Data) != 1 || (k == store.RelayMode && f.Data[0] > maxRelayMode) {
			d.invalid(ctx, f.ID.MsgType, len(f.Data))
			return
		}
		if err := store.SetU8(ctx, d.store, k, f.Data[0]); err != nil {
			d.log.WithField("key", k).WithError(err).Warn("setting not persisted")
			return
		}
		if !d.durable {
			d.log.WithField("key", k).Warn("store is not persistent, restart skipped")
			return
		}
		d.restartNow("setting " + k.String() + " changed")
	}
}

// applicationVersion answers a remote request with the first 8 bytes
// of the build version.
func (d *Device) applicationVersion(ctx context.Context, f dispatch.Frame) {
	if !f.Remote {
		return
	}
	var b [8]byte
	copy(b[:], d.version)
	d.send(ctx, canid.ApplicationVersion, b[:])
}

// requestParameter emits the full parameter set.
func (d *Device) requestParameter(ctx context.Context, f dispatch.Frame) {
	rtr := dispatch.Frame{ID: f.ID, Remote: true}

	d.uptime(ctx, rtr)
	d.uid(0)(ctx, rtr)
	d.uid(1)(ctx, rtr)
	d.customString(ctx, rtr)

	hw := rtr
	hw.ID.MsgType = canid.HwRev
	d.setting(store.HardwareRevision)(ctx, hw)

	d.applicationVersion(ctx, rtr)
}

func (d *Device) restartRequest(_ context.Context, f dispatch.Frame) {
	if f.Remote {
		return
	}
	d.restartNow("restart requested")
}

func (d *Device) restartNow(reason string) {
	d.log.WithField("reason", reason).Info("restarting")
	if d.restart != nil {
		d.restart(reason)
	}
}

// flash frames belong to the firmware update protocol, which this
// node does not implement.
func (d *Device) flash(_ context.Context, f dispatch.Frame) {
	d.log.WithField("msg", f.ID.MsgType).Debug("update frame ignored")
}
