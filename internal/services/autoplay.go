package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/viperball-sim/internal/engine"
)

// AutoplayService advances enrolled seasons one week per cron tick, so a
// dynasty can play itself out in real time while spectators watch.
type AutoplayService struct {
	manager  *SeasonManager
	logger   *logrus.Logger
	cron     *cron.Cron
	schedule string

	mu        sync.Mutex
	isRunning bool
	enrolled  map[string]bool
}

func NewAutoplayService(manager *SeasonManager, schedule string, logger *logrus.Logger) *AutoplayService {
	return &AutoplayService{
		manager:  manager,
		logger:   logger,
		cron:     cron.New(),
		schedule: schedule,
		enrolled: make(map[string]bool),
	}
}

// Start begins the autoplay ticker.
func (s *AutoplayService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("autoplay is already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("failed to schedule autoplay: %w", err)
	}
	s.cron.Start()
	s.isRunning = true

	s.logger.WithField("schedule", s.schedule).Info("Autoplay started")
	return nil
}

// Stop halts the ticker. Enrolled seasons are kept.
func (s *AutoplayService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	s.cron.Stop()
	s.isRunning = false
	s.logger.Info("Autoplay stopped")
}

// Enroll adds a season to the autoplay rotation.
func (s *AutoplayService) Enroll(seasonID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolled[seasonID] = true
	s.logger.WithField("season_id", seasonID).Info("Season enrolled in autoplay")
}

// Withdraw removes a season from the rotation.
func (s *AutoplayService) Withdraw(seasonID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.enrolled, seasonID)
}

// Enrolled reports whether a season is in the rotation.
func (s *AutoplayService) Enrolled(seasonID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrolled[seasonID]
}

// tick advances every enrolled season by one week. Seasons that reach the
// end of the regular season drop out of the rotation.
func (s *AutoplayService) tick() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.enrolled))
	for id := range s.enrolled {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	ctx := context.Background()
	for _, id := range ids {
		week, games, err := s.manager.SimulateWeek(ctx, id)
		if err != nil {
			if errors.Is(err, engine.ErrSeasonComplete) {
				s.logger.WithField("season_id", id).Info("Autoplay season complete, withdrawing")
				s.Withdraw(id)
				continue
			}
			s.logger.WithError(err).WithField("season_id", id).Error("Autoplay week failed")
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"season_id": id,
			"week":      week,
			"games":     len(games),
		}).Debug("Autoplay advanced season")
	}
}
