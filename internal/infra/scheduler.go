package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
)

// SectionRefresher regenerates one dashboard section
type SectionRefresher interface {
	RefreshSection(ctx context.Context, section domain.Section) (bool, error)
}

// RefreshScheduler refreshes a fixed set of sections on a cron schedule
type RefreshScheduler struct {
	cron      *cron.Cron
	refresher SectionRefresher
	sections  []domain.Section
	active    func() bool
	timeout   time.Duration
}

// NewRefreshScheduler creates a new scheduler. active, when set, gates every
// tick so nothing is sent without a session.
func NewRefreshScheduler(refresher SectionRefresher, sections []domain.Section, active func() bool) *RefreshScheduler {
	return &RefreshScheduler{
		cron:      cron.New(),
		refresher: refresher,
		sections:  sections,
		active:    active,
		timeout:   2 * time.Minute,
	}
}

// Start registers the schedule (standard five fields or a descriptor such as "@every 5m")
func (s *RefreshScheduler) Start(schedule string) error {
	log := observability.WithFields("component", "refresh_scheduler")
	if len(s.sections) == 0 {
		return fmt.Errorf("no sections to refresh")
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	log.Info("[OK] Refresh scheduler started", "schedule", schedule, "sections", s.sections)
	return nil
}

// RunOnce refreshes every configured section concurrently and waits for them
func (s *RefreshScheduler) RunOnce(ctx context.Context) {
	log := observability.LoggerFromContext(ctx)
	if s.active != nil && !s.active() {
		log.Debug("[CRON] No session, refresh skipped")
		return
	}

	log.Info("[CRON] Refresh triggered", "sections", len(s.sections))

	var wg sync.WaitGroup
	for _, section := range s.sections {
		wg.Add(1)
		go func(section domain.Section) {
			defer wg.Done()
			ran, err := s.refresher.RefreshSection(ctx, section)
			switch {
			case errors.Is(err, domain.ErrSessionExpired):
				log.Warn("[CRON] Session expired during refresh", "section", section)
			case err != nil:
				log.Error("[CRON] Scheduled refresh failed", "section", section, "error", err)
			case !ran:
				log.Debug("[CRON] Refresh already running", "section", section)
			}
		}(section)
	}
	wg.Wait()
}

// Stop stops the scheduler and waits for a running tick
func (s *RefreshScheduler) Stop() {
	log := observability.WithFields("component", "refresh_scheduler")
	log.Info("Stopping refresh scheduler...")
	<-s.cron.Stop().Done()
	log.Info("[OK] Refresh scheduler stopped")
}
