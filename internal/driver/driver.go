package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = time.Millisecond * 250
)

// Manager is a simulation subsystem advanced once per tick.
type Manager interface {
	Tick(context.Context) error
}

// RealmDriver advances every registered manager on a fixed cadence. Managers
// run sequentially within a tick so they never contend with each other for
// the registry write locks.
type RealmDriver struct {
	tickLength time.Duration
	managers   []Manager
}

func NewRealmDriver(managers []Manager, opts ...RealmDriverOpt) *RealmDriver {
	d := &RealmDriver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *RealmDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			if err := d.Tick(ctx); err != nil {
				return err
			}
			if elapsed := time.Since(start); elapsed > d.tickLength {
				slog.WarnContext(ctx, "tick overran its interval", "elapsed", elapsed, "interval", d.tickLength)
			}
		}
	}
}

func (d *RealmDriver) Tick(ctx context.Context) error {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
