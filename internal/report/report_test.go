// internal/report/report_test.go
package report

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canid"
)

type sent struct {
	msg  canid.MessageType
	data []byte
}

type fakeSender struct {
	frames []sent
}

func (f *fakeSender) Send(_ context.Context, msg canid.MessageType, data []byte, _ bool) error {
	f.frames = append(f.frames, sent{msg: msg, data: append([]byte(nil), data...)})
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func TestReport_BytesParse(t *testing.T) {
	r := Report{
		Component: ComponentRelais,
		Code:      CodeInvalidData,
		Severity:  SeverityWarning,
		LocalCode: 9,
		Details:   [4]byte{0x40, 3, 0, 0},
	}
	b := r.Bytes()
	if b != [8]byte{6, 1, 1, 9, 0x40, 3, 0, 0} {
		t.Fatalf("bytes=%x", b)
	}
	got, err := Parse(b[:])
	if err != nil || got != r {
		t.Fatalf("Parse = %+v, %v", got, err)
	}
	if _, err := Parse(b[:7]); !errors.Is(err, ErrBadLength) {
		t.Fatalf("err=%v", err)
	}
}

func TestReporter_Dedup(t *testing.T) {
	tx := &fakeSender{}
	r := NewReporter(tx, time.Second, quietLogger())
	now := time.Unix(100, 0)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	_ = r.Report(ctx, ComponentDevice, CodeInvalidData, SeverityWarning, 0, 1, 2, 3, 4, 5)
	_ = r.Report(ctx, ComponentDevice, CodeInvalidData, SeverityWarning, 0)
	if len(tx.frames) != 1 {
		t.Fatalf("frames=%d want 1", len(tx.frames))
	}
	if tx.frames[0].msg != canid.DeviceError {
		t.Fatalf("msg=%s", tx.frames[0].msg)
	}
	// details are cut at four bytes
	if tx.frames[0].data[7] != 4 {
		t.Fatalf("data=%x", tx.frames[0].data)
	}

	// different local code is a different key
	_ = r.Report(ctx, ComponentDevice, CodeInvalidData, SeverityWarning, 1)
	if len(tx.frames) != 2 {
		t.Fatalf("frames=%d want 2", len(tx.frames))
	}

	now = now.Add(time.Second)
	_ = r.Report(ctx, ComponentDevice, CodeInvalidData, SeverityWarning, 0)
	if len(tx.frames) != 3 {
		t.Fatalf("frames=%d want 3 after interval", len(tx.frames))
	}
}

func TestReporter_BoundedTable(t *testing.T) {
	tx := &fakeSender{}
	r := NewReporter(tx, time.Minute, quietLogger())
	base := time.Unix(100, 0)
	step := 0
	r.now = func() time.Time { step++; return base.Add(time.Duration(step) * time.Millisecond) }
	ctx := context.Background()

	for i := 0; i < maxTracked+4; i++ {
		_ = r.Report(ctx, ComponentCan, CodeUnknown, SeverityError, uint8(i))
	}
	if len(r.last) != maxTracked {
		t.Fatalf("tracked=%d", len(r.last))
	}
	// local code 0 was evicted first, so it is admitted again
	before := len(tx.frames)
	_ = r.Report(ctx, ComponentCan, CodeUnknown, SeverityError, 0)
	if len(tx.frames) != before+1 {
		t.Fatalf("evicted key not admitted")
	}
}
