// internal/output/driver.go
package output

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tamzrod/relaynode/internal/relay"
)

// Driver translates logical relay states into bank writes.
// It keeps one shadow register per bank so that a write only
// changes the bits it owns.
type Driver struct {
	mode    Mode
	banks   []Bank
	mapping []Target

	mu      sync.Mutex
	shadows []uint16
}

// NewDriver validates the mapping against the banks.
func NewDriver(mode Mode, banks []Bank, mapping []Target) (*Driver, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("output: invalid mode %d", mode)
	}
	if len(banks) == 0 {
		return nil, errors.New("output: at least one bank required")
	}
	for i, t := range mapping {
		if t.Bank < 0 || t.Bank >= len(banks) {
			return nil, fmt.Errorf("output: mapping %d references bank %d (have %d)", i, t.Bank, len(banks))
		}
		if int(t.Bit) >= banks[t.Bank].Width() {
			return nil, fmt.Errorf("output: mapping %d bit %d outside bank %s (width %d)",
				i, t.Bit, banks[t.Bank].Name(), banks[t.Bank].Width())
		}
	}

	return &Driver{
		mode:    mode,
		banks:   banks,
		mapping: mapping,
		shadows: make([]uint16, len(banks)),
	}, nil
}

// Mode returns the translation mode.
func (d *Driver) Mode() Mode {
	return d.mode
}

// Reset drives every bank to all-off, the power-up default.
func (d *Driver) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []string
	for i, b := range d.banks {
		d.shadows[i] = 0
		if err := b.Write(ctx, 0); err != nil {
			errs = append(errs, fmt.Sprintf("output: reset bank=%s err=%v", b.Name(), err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

// Set applies one logical state. Best-effort: every touched bank is
// written even if another fails; failures are joined into one error.
// Physical outputs without a mapping entry are skipped.
func (d *Driver) Set(ctx context.Context, num int, st relay.State) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dirty := make([]bool, len(d.banks))

	for _, lv := range Translate(d.mode, num, st) {
		if lv.Index < 0 || lv.Index >= len(d.mapping) {
			continue
		}
		t := d.mapping[lv.Index]
		mask := uint16(1) << t.Bit
		if lv.On {
			d.shadows[t.Bank] |= mask
		} else {
			d.shadows[t.Bank] &^= mask
		}
		dirty[t.Bank] = true
	}

	var errs []string
	for i, b := range d.banks {
		if !dirty[i] {
			continue
		}
		if err := b.Write(ctx, d.shadows[i]); err != nil {
			errs = append(errs, fmt.Sprintf(
				"output: bank=%s relay=%d state=%s err=%v",
				b.Name(), num, st, err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

// Shadow returns the current shadow register of a bank.
func (d *Driver) Shadow(bank int) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if bank < 0 || bank >= len(d.shadows) {
		return 0
	}
	return d.shadows[bank]
}
