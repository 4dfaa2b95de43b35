// internal/output/mode_test.go
package output

import (
	"testing"

	"github.com/tamzrod/relaynode/internal/relay"
)

func TestTranslate_Relay(t *testing.T) {
	cases := []struct {
		st relay.State
		on bool
	}{
		{relay.Off, false},
		{relay.Up, false},
		{relay.Down, false},
		{relay.On, true},
	}
	for _, c := range cases {
		got := Translate(ModeRelay, 5, c.st)
		if len(got) != 1 || got[0].Index != 5 || got[0].On != c.on {
			t.Fatalf("state=%s got=%+v", c.st, got)
		}
	}
}

func TestTranslate_Rollershutter(t *testing.T) {
	type pair struct{ drive, dir bool }

	cases := []struct {
		mode Mode
		st   relay.State
		want pair
	}{
		{ModeSoftwareRollershutter, relay.Up, pair{true, false}},
		{ModeSoftwareRollershutter, relay.Down, pair{true, false}},
		{ModeSoftwareRollershutter, relay.Off, pair{false, false}},
		{ModeSoftwareRollershutter, relay.On, pair{false, false}},
		{ModeHardwareRollershutter, relay.Up, pair{true, false}},
		{ModeHardwareRollershutter, relay.Down, pair{true, true}},
		{ModeHardwareRollershutter, relay.Off, pair{false, false}},
		{ModeHardwareRollershutter, relay.On, pair{false, false}},
	}

	for _, c := range cases {
		got := Translate(c.mode, 3, c.st)
		if len(got) != 2 {
			t.Fatalf("%s/%s: len=%d", c.mode, c.st, len(got))
		}
		if got[0].Index != 6 || got[1].Index != 7 {
			t.Fatalf("%s/%s: indices %d,%d", c.mode, c.st, got[0].Index, got[1].Index)
		}
		if got[0].On != c.want.drive || got[1].On != c.want.dir {
			t.Fatalf("%s/%s: got (%v,%v) want (%v,%v)",
				c.mode, c.st, got[0].On, got[1].On, c.want.drive, c.want.dir)
		}
	}
}

func TestParseMode(t *testing.T) {
	for m, name := range modeNames {
		got, err := ParseMode(name)
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", name, got, err)
		}
		if m.String() != name {
			t.Fatalf("String() = %q", m.String())
		}
	}
	if _, err := ParseMode("blinds"); err == nil {
		t.Fatalf("expected error")
	}
	if Mode(9).Valid() {
		t.Fatalf("mode 9 should be invalid")
	}
}
