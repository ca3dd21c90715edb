package farm

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartIrrigation begins (or restarts) an immediate irrigation run.
// Allowed from Stopped or Running; issuing Start while Running overwrites
// the timer with the new duration. A manual Start always wins over a
// rain-pause recommendation, but the returned advisory notes the conflict.
func (s *Service) StartIrrigation(durationMinutes int) (IrrigationStatus, string, error) {
	if durationMinutes <= 0 {
		return s.GetIrrigationStatus(), "", fmt.Errorf("%w: duration must be a positive number of minutes", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.run.state {
	case IrrigationStopped, IrrigationRunning:
	default:
		return s.statusLocked(), "", fmt.Errorf("%w: cannot start irrigation while %s", ErrValidation, s.run.state)
	}

	advisory := ""
	if s.haveAssessment && s.assessment.RainPause() {
		advisory = "Latest assessment advises a rain pause; manual start honored"
	}

	now := s.now()
	d := time.Duration(durationMinutes) * time.Minute
	s.run = irrigationRun{
		state:       IrrigationRunning,
		duration:    d,
		startedAt:   now,
		expectedEnd: now.Add(d),
	}
	s.reading.PumpRunning = true

	s.log.Info("irrigation started",
		zap.Int("durationMinutes", durationMinutes),
		zap.Bool("rainPauseOverridden", advisory != ""),
	)
	return s.statusLocked(), advisory, nil
}

// StopIrrigation halts irrigation from any state. Idempotent; always lands
// on Stopped with the pump off and timers cleared.
func (s *Service) StopIrrigation() IrrigationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run.state != IrrigationStopped {
		s.log.Info("irrigation stopped", zap.String("from", string(s.run.state)))
	}
	s.run = irrigationRun{state: IrrigationStopped}
	s.reading.PumpRunning = false
	return s.statusLocked()
}

// PauseIrrigation suspends a running session. The pump is considered
// inactive while paused, but the remaining duration is retained for Resume.
func (s *Service) PauseIrrigation() (IrrigationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run.state != IrrigationRunning {
		return s.statusLocked(), fmt.Errorf("%w: cannot pause irrigation while %s", ErrValidation, s.run.state)
	}

	now := s.now()
	remaining := s.run.expectedEnd.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	s.run.state = IrrigationPaused
	s.run.remaining = remaining
	s.reading.PumpRunning = false
	s.log.Info("irrigation paused", zap.Duration("remaining", remaining))
	return s.statusLocked(), nil
}

// ResumeIrrigation continues a paused session with the remaining duration.
func (s *Service) ResumeIrrigation() (IrrigationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run.state != IrrigationPaused {
		return s.statusLocked(), fmt.Errorf("%w: cannot resume irrigation while %s", ErrValidation, s.run.state)
	}

	now := s.now()
	s.run.state = IrrigationRunning
	s.run.startedAt = now
	s.run.expectedEnd = now.Add(s.run.remaining)
	s.run.remaining = 0
	s.reading.PumpRunning = true
	s.log.Info("irrigation resumed", zap.Time("expectedEnd", s.run.expectedEnd))
	return s.statusLocked(), nil
}

// GetIrrigationStatus returns a snapshot of the state machine.
func (s *Service) GetIrrigationStatus() IrrigationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Service) statusLocked() IrrigationStatus {
	return IrrigationStatus{
		State:           s.run.state,
		PumpRunning:     s.reading.PumpRunning,
		DurationMinutes: int(s.run.duration / time.Minute),
		StartedAt:       s.run.startedAt,
		ExpectedEnd:     s.run.expectedEnd,
	}
}

// CreateJob validates and stores a recurring irrigation job. An explicit
// id that already exists is rejected; normally ids are generated.
func (s *Service) CreateJob(spec JobSpec) (IrrigationJob, error) {
	if spec.DurationMinutes <= 0 {
		return IrrigationJob{}, fmt.Errorf("%w: job duration must be a positive number of minutes", ErrValidation)
	}
	if len(spec.Days) == 0 {
		return IrrigationJob{}, fmt.Errorf("%w: job needs at least one weekday", ErrValidation)
	}
	for _, day := range spec.Days {
		if _, ok := weekdayByTag[day]; !ok {
			return IrrigationJob{}, fmt.Errorf("%w: unknown weekday %q", ErrValidation, day)
		}
	}
	if _, err := time.Parse("15:04", spec.TimeOfDay); err != nil {
		return IrrigationJob{}, fmt.Errorf("%w: timeOfDay must be HH:MM, got %q", ErrValidation, spec.TimeOfDay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.jobs[id]; exists {
		return IrrigationJob{}, fmt.Errorf("%w: job id %q already exists", ErrValidation, id)
	}

	job := IrrigationJob{
		ID:              id,
		DurationMinutes: spec.DurationMinutes,
		Days:            append([]Weekday(nil), spec.Days...),
		TimeOfDay:       spec.TimeOfDay,
		CreatedAt:       s.now(),
	}
	s.jobs[id] = job
	s.log.Info("irrigation job created", zap.String("id", id), zap.String("timeOfDay", job.TimeOfDay))
	return job, nil
}

// DeleteJob removes a job by id.
func (s *Service) DeleteJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("%w: job %q", ErrNotFound, id)
	}
	delete(s.jobs, id)
	delete(s.lastFired, id)
	s.log.Info("irrigation job deleted", zap.String("id", id))
	return nil
}

// ListJobs returns all jobs, ordered by creation time for stable output.
func (s *Service) ListJobs() []IrrigationJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]IrrigationJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// RunScheduledJobs is one tick of the background scheduler loop. It expires
// finished runs, fires due jobs, and maintains the Scheduled pre-fire
// marker. The current state is re-read under the lock immediately before
// firing, so a manual stop or start in flight always wins.
func (s *Service) RunScheduledJobs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expireLocked(now)

	minute := now.Truncate(time.Minute)
	for id, job := range s.jobs {
		if !jobDueAt(job, now) {
			continue
		}
		if last, ok := s.lastFired[id]; ok && last.Equal(minute) {
			continue // already decided for this minute
		}
		s.lastFired[id] = minute

		switch s.run.state {
		case IrrigationRunning, IrrigationPaused:
			// Manual session in progress; skipping is a missed-but-safe
			// occurrence, not an error.
			s.log.Info("scheduled irrigation skipped; session already active",
				zap.String("jobId", id),
				zap.String("state", string(s.run.state)),
			)
		case IrrigationStopped, IrrigationScheduled:
			if s.rainPausedLocked(now) {
				s.log.Info("scheduled irrigation skipped; rain pause active", zap.String("jobId", id))
				continue
			}
			minutes := job.DurationMinutes
			if limit := int(s.thresholds.AutoIrrigationMaxDurationMinutes); limit > 0 && minutes > limit {
				minutes = limit
			}
			d := time.Duration(minutes) * time.Minute
			s.run = irrigationRun{
				state:       IrrigationRunning,
				duration:    d,
				startedAt:   now,
				expectedEnd: now.Add(d),
			}
			s.reading.PumpRunning = true
			s.log.Info("scheduled irrigation started",
				zap.String("jobId", id),
				zap.Int("durationMinutes", minutes),
			)
		}
	}

	s.updateScheduledMarkerLocked(now)
}

// expireLocked stops a run whose expected end has passed.
func (s *Service) expireLocked(now time.Time) {
	if s.run.state == IrrigationRunning && now.After(s.run.expectedEnd) {
		s.log.Info("irrigation run completed", zap.Time("expectedEnd", s.run.expectedEnd))
		s.run = irrigationRun{state: IrrigationStopped}
		s.reading.PumpRunning = false
	}
}

// rainPausedLocked reports whether a recent assessment recommends holding
// automatic irrigation. Manual starts are never blocked by this.
func (s *Service) rainPausedLocked(now time.Time) bool {
	if !s.haveAssessment || !s.assessment.RainPause() {
		return false
	}
	window := time.Duration(s.thresholds.RainPauseDurationMinutes) * time.Minute
	return now.Sub(s.assessment.Timestamp) < window
}

// updateScheduledMarkerLocked flags Stopped->Scheduled when a job is due
// within the next minute, and clears a stale Scheduled marker.
func (s *Service) updateScheduledMarkerLocked(now time.Time) {
	due := false
	next := now.Add(time.Minute)
	for _, job := range s.jobs {
		if jobDueAt(job, now) || jobDueAt(job, next) {
			due = true
			break
		}
	}

	switch {
	case s.run.state == IrrigationStopped && due:
		s.run.state = IrrigationScheduled
	case s.run.state == IrrigationScheduled && !due:
		s.run.state = IrrigationStopped
	}
}

// jobDueAt reports whether the job matches the weekday and HH:MM of t.
func jobDueAt(job IrrigationJob, t time.Time) bool {
	if t.Format("15:04") != job.TimeOfDay {
		return false
	}
	for _, day := range job.Days {
		if day.Matches(t.Weekday()) {
			return true
		}
	}
	return false
}
