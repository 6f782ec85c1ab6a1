package bundling

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"playmi/internal/logging"
	"playmi/internal/packaging"
)

// Monitor keeps an in-flight job visibly alive: on each tick it refreshes the
// package heartbeat and the company claim, and checks whether a cancellation
// has been requested.
type Monitor struct {
	store    *packaging.Store
	logger   *slog.Logger
	interval time.Duration
}

// NewMonitor creates a monitor ticking at the given interval.
func NewMonitor(store *packaging.Store, logger *slog.Logger, interval time.Duration) *Monitor {
	return &Monitor{
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// StartLoop runs the heartbeat updater for one package until context
// cancellation. When a cancellation request appears on the package row,
// cancelJob is invoked so the bundling work stops between files.
func (m *Monitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, pkg *packaging.Package, cancelJob context.CancelFunc) {
	defer wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logger := logging.NewComponentLogger(m.logger, "bundling-heartbeat")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.store.UpdateHeartbeat(ctx, pkg.ID); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Warn("heartbeat update failed", logging.Error(err))
			}
			if err := m.store.RefreshClaim(ctx, pkg.CompanyID, pkg.ID); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("claim refresh failed", logging.Error(err))
			}

			current, err := m.store.GetByID(ctx, pkg.ID)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Warn("cancellation poll failed", logging.Error(err))
				}
				continue
			}
			if current != nil && current.CancelRequested {
				logger.Info("cancellation requested", logging.String(logging.FieldPackageID, pkg.ID))
				cancelJob()
				return
			}
		}
	}
}
