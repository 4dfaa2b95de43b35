// internal/node/identity.go
package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canid"
	"github.com/tamzrod/relaynode/internal/store"
)

// FilterHook receives the filters derived from a new address.
type FilterHook func(canid.FilterSet) error

// Identity is the single owned record of the local address.
// Readers take the shared lock; UpdateAddress is the only writer.
type Identity struct {
	mu         deadlock.RWMutex
	deviceType uint8
	deviceID   uint8
	uid        uint64
	assigned   [2]uint64 // uid0/uid1 last written by a peer

	store store.Store
	hooks []FilterHook
	log   logrus.FieldLogger
}

// New creates an identity. The device type is masked to 6 bits.
func New(deviceType, deviceID uint8, uid uint64, st store.Store, log logrus.FieldLogger) *Identity {
	return &Identity{
		deviceType: deviceType & 0x3F,
		deviceID:   deviceID,
		uid:        uid,
		store:      st,
		log:        log,
	}
}

// Load builds the identity from boot defaults, overridden by stored values.
func Load(ctx context.Context, deviceType, deviceID uint8, uid uint64, st store.Store, log logrus.FieldLogger) (*Identity, error) {
	if v, err := store.GetU8(ctx, st, store.DeviceType); err == nil {
		deviceType = v
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("node: load device type: %w", err)
	}

	if v, err := store.GetU8(ctx, st, store.DeviceID); err == nil {
		deviceID = v
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("node: load device id: %w", err)
	}

	return New(deviceType, deviceID, uid, st, log), nil
}

// OnFilters registers a hook run after every address update.
// Call before the identity is shared.
func (i *Identity) OnFilters(h FilterHook) {
	i.hooks = append(i.hooks, h)
}

// Address returns the local (device type, device id).
func (i *Identity) Address() (deviceType, deviceID uint8) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.deviceType, i.deviceID
}

// DeviceID returns the local device id.
func (i *Identity) DeviceID() uint8 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.deviceID
}

// Filters derives the acceptance filters for the current address.
func (i *Identity) Filters() canid.FilterSet {
	t, id := i.Address()
	return canid.Filters(t, id)
}

// UID returns the hardware unique id.
func (i *Identity) UID() uint64 {
	return i.uid
}

// SetAssigned records a uid0 (n=0) or uid1 (n=1) written by a peer.
func (i *Identity) SetAssigned(n int, v uint64) {
	if n < 0 || n > 1 {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.assigned[n] = v
}

// Assigned returns the uid0/uid1 pair written by peers.
func (i *Identity) Assigned() (uid0, uid1 uint64) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.assigned[0], i.assigned[1]
}

// UpdateAddress persists and applies a new address, then re-derives
// the filters and hands them to every hook.
// The in-memory address changes even if persisting fails.
func (i *Identity) UpdateAddress(ctx context.Context, deviceType, deviceID uint8) error {
	deviceType &= 0x3F

	var errs []error
	if err := store.SetU8(ctx, i.store, store.DeviceID, deviceID); err != nil {
		errs = append(errs, fmt.Errorf("node: persist device id: %w", err))
	}
	if err := store.SetU8(ctx, i.store, store.DeviceType, deviceType); err != nil {
		errs = append(errs, fmt.Errorf("node: persist device type: %w", err))
	}

	i.mu.Lock()
	i.deviceType = deviceType
	i.deviceID = deviceID
	i.mu.Unlock()

	filters := canid.Filters(deviceType, deviceID)
	for _, h := range i.hooks {
		if err := h(filters); err != nil {
			errs = append(errs, fmt.Errorf("node: apply filters: %w", err))
		}
	}

	i.log.WithFields(logrus.Fields{"device_type": deviceType, "device_id": deviceID}).Info("address updated")

	return errors.Join(errs...)
}
