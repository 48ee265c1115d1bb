// Package maintenance runs periodic background housekeeping against the
// store.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sanathshetty444/todoer/internal/store"
)

// Status reports the sweeper's last completed pass.
type Status struct {
	LastRun     time.Time
	LastDeleted int64
	LastErr     error
}

// Sweeper deletes refresh tokens whose expiry has passed, blacklisted or
// not. Valid blacklisted rows are kept so reuse attempts keep failing
// until natural expiry.
type Sweeper struct {
	store    store.Store
	logger   *log.Logger
	interval time.Duration

	triggerCh chan struct{}

	mu     sync.Mutex
	status Status
}

// New creates a Sweeper. An interval of zero or less disables periodic
// sweeps; TriggerNow still works.
func New(s store.Store, interval time.Duration, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		store:     s,
		logger:    logger,
		interval:  interval,
		triggerCh: make(chan struct{}, 1),
	}
}

// Run blocks sweeping on the configured interval until ctx is cancelled.
// One sweep runs immediately on start.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	if s.interval <= 0 {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.triggerCh:
				s.sweep(ctx)
			}
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.triggerCh:
			s.sweep(ctx)
		}
	}
}

// TriggerNow requests an immediate sweep without blocking. A request is
// dropped if one is already pending.
func (s *Sweeper) TriggerNow() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the outcome of the most recent sweep.
func (s *Sweeper) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.store.DeleteStaleRefreshTokens(ctx, time.Now().UTC())

	s.mu.Lock()
	s.status = Status{LastRun: time.Now(), LastDeleted: count, LastErr: err}
	s.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("token cleanup", "err", err)
		}
		return
	}
	if count > 0 {
		s.logger.Info("token cleanup", "deleted", count)
	}
}
