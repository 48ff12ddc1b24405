package reconciler

import (
	"context"
	"log"
	"time"

	"guesthouse-occupancy-backend/config"
)

// Reconciler recounts the cached active-guest counter.
type Reconciler interface {
	Reconcile(ctx context.Context) (corrected bool, err error)
}

// Service periodically rewrites the cached active-guest counter from the
// real number of guest records.
type Service struct {
	cfg config.ReconcilerConfig
	r   Reconciler
}

// NewService creates a new reconciler service.
func NewService(cfg config.ReconcilerConfig, r Reconciler) *Service {
	return &Service{cfg: cfg, r: r}
}

// Run reconciles once immediately and then every configured interval until
// ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Reconciler is disabled. Not starting.")
		return
	}
	log.Printf("Starting reconciler, interval %s", s.cfg.Interval)

	s.ReconcileOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reconciler shutting down.")
			return
		case <-timer.C:
			s.ReconcileOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// ReconcileOnce performs a single recount. Failures are logged and retried on
// the next tick.
func (s *Service) ReconcileOnce(ctx context.Context) bool {
	corrected, err := s.r.Reconcile(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Error reconciling active guests: %v", err)
		}
		return false
	}
	if corrected {
		log.Println("Active guest counter was out of date and has been corrected.")
	}
	return corrected
}
