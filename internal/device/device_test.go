// internal/device/device_test.go
package device

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canid"
	"github.com/tamzrod/relaynode/internal/dispatch"
	"github.com/tamzrod/relaynode/internal/node"
	"github.com/tamzrod/relaynode/internal/report"
	"github.com/tamzrod/relaynode/internal/store"
)

// ---- fakes ----

type sentFrame struct {
	msg  canid.MessageType
	data []byte
	rtr  bool
}

type fakeSender struct {
	frames []sentFrame
}

func (f *fakeSender) Send(_ context.Context, msg canid.MessageType, data []byte, rtr bool) error {
	f.frames = append(f.frames, sentFrame{msg: msg, data: append([]byte(nil), data...), rtr: rtr})
	return nil
}

type fakeReporter struct {
	details [][]byte
}

func (f *fakeReporter) Report(_ context.Context, _ report.Component, _ report.Code, _ report.Severity, _ uint8, details ...byte) error {
	f.details = append(f.details, details)
	return nil
}

type registry map[canid.MessageType]dispatch.HandlerFunc

func (r registry) Register(t canid.MessageType, h dispatch.HandlerFunc) { r[t] = h }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

type fixture struct {
	dev      *Device
	id       *node.Identity
	st       *store.Memory
	tx       *fakeSender
	rep      *fakeReporter
	restarts []string
	handlers registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureStore(t, true)
}

func newFixtureStore(t *testing.T, persistent bool) *fixture {
	t.Helper()
	fx := &fixture{
		st:       store.NewMemory(),
		tx:       &fakeSender{},
		rep:      &fakeReporter{},
		handlers: registry{},
	}
	fx.id = node.New(5, 3, 0x0102030405060708, fx.st, quietLogger())
	fx.dev = New(context.Background(), Config{
		Identity: fx.id,
		Store:    fx.st,
		Sender:   fx.tx,
		Reporter: fx.rep,
		Version:  "v1.4.2-7-gabcdef",
		Restart:    func(reason string) { fx.restarts = append(fx.restarts, reason) },
		Persistent: persistent,
		Log:        quietLogger(),
	}, "boot")
	fx.dev.Register(fx.handlers)
	return fx
}

func (fx *fixture) deliver(t *testing.T, msg canid.MessageType, data []byte, remote bool) {
	t.Helper()
	h, ok := fx.handlers[msg]
	if !ok {
		t.Fatalf("no handler for %s", msg)
	}
	h(context.Background(), dispatch.Frame{ID: canid.New(5, 3, msg), Data: data, Remote: remote})
}

// ---- tests ----

func TestPingAnswersRemoteRequestOnly(t *testing.T) {
	fx := newFixture(t)

	fx.deliver(t, canid.Ping, nil, false)
	if len(fx.tx.frames) != 0 {
		t.Fatalf("data ping answered: %+v", fx.tx.frames)
	}

	fx.deliver(t, canid.Ping, nil, true)
	if len(fx.tx.frames) != 1 {
		t.Fatalf("frames=%d", len(fx.tx.frames))
	}
	f := fx.tx.frames[0]
	if f.msg != canid.Ping || f.rtr || len(f.data) != 0 {
		t.Fatalf("ping reply %+v", f)
	}
}

func TestAvailableNotHandled(t *testing.T) {
	fx := newFixture(t)
	if _, ok := fx.handlers[canid.Available]; ok {
		t.Fatalf("Available has a handler")
	}
}

// Two nodes sharing an address must not keep answering each other.
func TestSameAddressPeersGoQuiet(t *testing.T) {
	a := newFixture(t)
	b := newFixture(t)

	if err := a.dev.Announce(context.Background()); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	a.tx.frames = append(a.tx.frames,
		sentFrame{msg: canid.Ping, rtr: true},
		sentFrame{msg: canid.ApplicationVersion, rtr: true},
	)

	pump := func(from, to *fixture) int {
		out := from.tx.frames
		from.tx.frames = nil
		for _, f := range out {
			if h, ok := to.handlers[f.msg]; ok {
				h(context.Background(), dispatch.Frame{ID: canid.New(5, 3, f.msg), Data: f.data, Remote: f.rtr})
			}
		}
		return len(out)
	}

	for round := 0; round < 10; round++ {
		if pump(a, b)+pump(b, a) == 0 {
			return
		}
	}
	t.Fatalf("still exchanging after 10 rounds: a=%d b=%d", len(a.tx.frames), len(b.tx.frames))
}

func TestApplicationVersionRemoteOnly(t *testing.T) {
	fx := newFixture(t)
	fx.deliver(t, canid.ApplicationVersion, []byte("v9"), false)
	if len(fx.tx.frames) != 0 {
		t.Fatalf("data frame answered")
	}
	fx.deliver(t, canid.ApplicationVersion, nil, true)
	if len(fx.tx.frames) != 1 || !bytes.Equal(fx.tx.frames[0].data, []byte("v1.4.2-7")) {
		t.Fatalf("version reply %+v", fx.tx.frames)
	}
}

func TestUptimeMinutes(t *testing.T) {
	fx := newFixture(t)
	fx.dev.now = func() time.Time { return fx.dev.boot.Add(125 * time.Minute) }

	fx.deliver(t, canid.Uptime, nil, false)
	if len(fx.tx.frames) != 0 {
		t.Fatalf("data frame answered")
	}

	fx.deliver(t, canid.Uptime, nil, true)
	if got := binary.LittleEndian.Uint32(fx.tx.frames[0].data); got != 125 {
		t.Fatalf("uptime=%d", got)
	}
}

func TestUidRequestAndAssign(t *testing.T) {
	fx := newFixture(t)

	fx.deliver(t, canid.DeviceUid1, nil, true)
	f := fx.tx.frames[0]
	if f.msg != canid.DeviceUid1 || binary.LittleEndian.Uint64(f.data) != 0x0102030405060708 {
		t.Fatalf("uid reply %+v", f)
	}

	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], 77)
	fx.deliver(t, canid.DeviceUid1, b[:], false)
	if _, u1 := fx.id.Assigned(); u1 != 77 {
		t.Fatalf("uid1=%d", u1)
	}

	fx.deliver(t, canid.DeviceUid0, []byte{1, 2}, false)
	if len(fx.rep.details) != 1 {
		t.Fatalf("short uid not reported")
	}
}

func TestCustomString(t *testing.T) {
	fx := newFixture(t)

	fx.deliver(t, canid.CustomString, nil, true)
	if !bytes.Equal(fx.tx.frames[0].data, []byte("boot\x00\x00\x00\x00")) {
		t.Fatalf("reply %q", fx.tx.frames[0].data)
	}

	fx.deliver(t, canid.CustomString, []byte("kitchen"), false)
	if fx.dev.CustomString() != "kitchen" {
		t.Fatalf("custom=%q", fx.dev.CustomString())
	}
	if s, _ := store.GetString(context.Background(), fx.st, store.CustomString); s != "kitchen" {
		t.Fatalf("stored=%q", s)
	}

	fx.deliver(t, canid.CustomString, []byte{0xff, 0xfe}, false)
	if fx.dev.CustomString() != "kitchen" || len(fx.rep.details) != 1 {
		t.Fatalf("invalid UTF-8 accepted")
	}
}

func TestCustomStringLoadedFromStore(t *testing.T) {
	st := store.NewMemory()
	_ = store.SetString(context.Background(), st, store.CustomString, "attic")
	d := New(context.Background(), Config{Store: st, Log: quietLogger()}, "boot")
	if d.CustomString() != "attic" {
		t.Fatalf("custom=%q", d.CustomString())
	}
}

func TestIdTypeUpdatesAddress(t *testing.T) {
	fx := newFixture(t)

	fx.deliver(t, canid.DeviceIDType, []byte{42, 9}, false)
	if typ, id := fx.id.Address(); typ != 9 || id != 42 {
		t.Fatalf("address=(%d,%d)", typ, id)
	}
	if v, _ := store.GetU8(context.Background(), fx.st, store.DeviceID); v != 42 {
		t.Fatalf("stored id=%d", v)
	}

	fx.deliver(t, canid.DeviceIDType, []byte{1}, false)
	if _, id := fx.id.Address(); id != 42 || len(fx.rep.details) != 1 {
		t.Fatalf("short id/type applied")
	}
}

func TestSettingPersistsAndRestarts(t *testing.T) {
	fx := newFixture(t)

	fx.deliver(t, canid.RelaisMode, []byte{2}, false)
	if v, _ := store.GetU8(context.Background(), fx.st, store.RelayMode); v != 2 {
		t.Fatalf("stored mode=%d", v)
	}
	if len(fx.restarts) != 1 {
		t.Fatalf("restarts=%d", len(fx.restarts))
	}

	fx.deliver(t, canid.RelaisMode, nil, true)
	if len(fx.tx.frames) != 1 || !bytes.Equal(fx.tx.frames[0].data, []byte{2}) {
		t.Fatalf("mode reply %+v", fx.tx.frames)
	}
}

func TestSettingOnVolatileStoreSkipsRestart(t *testing.T) {
	fx := newFixtureStore(t, false)

	fx.deliver(t, canid.HwRev, []byte{4}, false)
	if v, _ := store.GetU8(context.Background(), fx.st, store.HardwareRevision); v != 4 {
		t.Fatalf("stored hw rev=%d", v)
	}
	if len(fx.restarts) != 0 {
		t.Fatalf("restarted with a volatile store")
	}
}

func TestSettingRejectsBadInput(t *testing.T) {
	fx := newFixture(t)

	fx.deliver(t, canid.Baudrate, []byte{1, 2}, false)
	fx.deliver(t, canid.RelaisMode, []byte{7}, false)

	if len(fx.restarts) != 0 {
		t.Fatalf("restarted on invalid data")
	}
	if len(fx.rep.details) != 2 {
		t.Fatalf("reports=%d", len(fx.rep.details))
	}
	if fx.rep.details[0][0] != byte(canid.Baudrate) || fx.rep.details[0][1] != 2 {
		t.Fatalf("details=%v", fx.rep.details[0])
	}

	// unset setting: nothing to answer
	fx.deliver(t, canid.ExtensionMode, nil, true)
	if len(fx.tx.frames) != 0 {
		t.Fatalf("answered unset setting")
	}
}

func TestRequestParameter(t *testing.T) {
	fx := newFixture(t)
	_ = store.SetU8(context.Background(), fx.st, store.HardwareRevision, 3)

	fx.deliver(t, canid.RequestParameter, nil, false)

	want := []canid.MessageType{
		canid.Uptime, canid.DeviceUid0, canid.DeviceUid1,
		canid.CustomString, canid.HwRev, canid.ApplicationVersion,
	}
	if len(fx.tx.frames) != len(want) {
		t.Fatalf("frames=%d want %d", len(fx.tx.frames), len(want))
	}
	for i, m := range want {
		if fx.tx.frames[i].msg != m {
			t.Fatalf("frame %d: %s want %s", i, fx.tx.frames[i].msg, m)
		}
	}
	if !bytes.Equal(fx.tx.frames[5].data, []byte("v1.4.2-7")) {
		t.Fatalf("version %q", fx.tx.frames[5].data)
	}
}

func TestRestartOnlyOnDataFrame(t *testing.T) {
	fx := newFixture(t)
	fx.deliver(t, canid.Restart, nil, true)
	fx.deliver(t, canid.Restart, nil, false)
	if len(fx.restarts) != 1 {
		t.Fatalf("restarts=%d", len(fx.restarts))
	}
}

func TestAnnounce(t *testing.T) {
	fx := newFixture(t)
	if err := fx.dev.Announce(context.Background()); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	f := fx.tx.frames[0]
	if f.msg != canid.Available || !bytes.Equal(f.data, []byte{1}) {
		t.Fatalf("announce %+v", f)
	}
}

func TestFlashAndSilenceIgnored(t *testing.T) {
	fx := newFixture(t)
	fx.deliver(t, canid.FlashStart, []byte{1}, false)
	fx.deliver(t, canid.UpdateSilence, nil, false)
	if len(fx.tx.frames) != 0 || len(fx.restarts) != 0 {
		t.Fatalf("update frames had effects")
	}
}
