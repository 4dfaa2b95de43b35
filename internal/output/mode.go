// internal/output/mode.go
package output

import (
	"fmt"

	"github.com/tamzrod/relaynode/internal/relay"
)

// Mode selects the logical -> physical translation table.
// Fixed at boot.
type Mode uint8

const (
	ModeRelay                 Mode = 0
	ModeSoftwareRollershutter Mode = 1
	ModeHardwareRollershutter Mode = 2
)

var modeNames = map[Mode]string{
	ModeRelay:                 "relay",
	ModeSoftwareRollershutter: "software_rollershutter",
	ModeHardwareRollershutter: "hardware_rollershutter",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode maps a config name to a Mode.
func ParseMode(name string) (Mode, error) {
	for m, s := range modeNames {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("output: unknown mode %q", name)
}

// Level is one physical output write.
type Level struct {
	Index int // physical output index
	On    bool
}

// Translate maps a logical relay state to physical output levels.
// Pure: no IO.
//
//	relay:                  n -> n, on only for On
//	rollershutter (sw, hw): n -> (2n drive, 2n+1 direction)
//	  sw: up (on,off)  down (on,off)  else (off,off)
//	  hw: up (on,off)  down (on,on)   else (off,off)
func Translate(mode Mode, num int, st relay.State) []Level {
	switch mode {
	case ModeSoftwareRollershutter:
		drive := st == relay.Up || st == relay.Down
		return []Level{
			{Index: 2 * num, On: drive},
			{Index: 2*num + 1, On: false},
		}

	case ModeHardwareRollershutter:
		drive := st == relay.Up || st == relay.Down
		return []Level{
			{Index: 2 * num, On: drive},
			{Index: 2*num + 1, On: st == relay.Down},
		}

	default:
		return []Level{{Index: num, On: st == relay.On}}
	}
}
