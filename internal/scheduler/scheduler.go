package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/agrosmart/farm-control/internal/farm"
)

// Scheduler runs the two periodic background loops: the analysis refresh
// and the irrigation job scheduler. Neither loop holds the farm lock for
// longer than its critical section, and neither blocks request handling.
type Scheduler struct {
	scheduler         *gocron.Scheduler
	service           *farm.Service
	analysisInterval  time.Duration
	schedulerInterval time.Duration
	log               *zap.Logger
}

// New creates a Scheduler around the farm service.
func New(service *farm.Service, analysisInterval, schedulerInterval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler:         gocron.NewScheduler(time.UTC),
		service:           service,
		analysisInterval:  analysisInterval,
		schedulerInterval: schedulerInterval,
		log:               log,
	}
}

// Start registers both loops and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	// Analysis refresh: GetAssessment itself enforces the throttle, so
	// running the loop at the same interval keeps the cache warm without
	// double-computing after a user-triggered refresh.
	if _, err := s.scheduler.Every(s.analysisInterval).Do(func() {
		res := s.service.GetAssessment()
		if res.Fresh {
			s.log.Debug("assessment refreshed",
				zap.Int("score", res.Assessment.Score),
				zap.String("status", string(res.Assessment.OverallStatus)),
			)
		}
	}); err != nil {
		return err
	}

	if _, err := s.scheduler.Every(s.schedulerInterval).Do(func() {
		s.service.RunScheduledJobs()
	}); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
