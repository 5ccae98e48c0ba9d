// Package scheduler triggers the daily delivery reminder batch.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"spiceexport/internal/metrics"
	"spiceexport/internal/services"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// BatchRunner runs one reminder batch.
type BatchRunner interface {
	Run(ctx context.Context) services.RunReport
}

// Scheduler fires the reminder batch on a cron schedule evaluated in a fixed zone.
// Each day's batch runs at most once across instances sharing the same Locker.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	runner   BatchRunner
	locker   Locker
	location *time.Location
	timeout  time.Duration
	now      func() time.Time
}

// New creates a Scheduler running runner on spec in loc. A nil locker falls back to a LocalLocker.
func New(spec string, loc *time.Location, runner BatchRunner, locker Locker) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		spec:     spec,
		runner:   runner,
		locker:   locker,
		location: loc,
		timeout:  30 * time.Minute,
		now:      time.Now,
	}
}

// SetClock overrides the time source used for lock keys.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start registers the batch and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.WithFields(log.Fields{"schedule": s.spec, "timezone": s.location.String()}).Info("Reminder scheduler started")
	return nil
}

// Stop halts the cron loop; the returned context is done once a running batch finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce runs today's batch unless another holder already owns its lock.
// A lock backend error does not block the batch; reminder flags keep it idempotent.
func (s *Scheduler) RunOnce(ctx context.Context) (services.RunReport, bool) {
	key := s.LockKey()
	acquired, err := s.locker.Acquire(ctx, key, TTLReminderBatch)
	if err != nil {
		log.WithError(err).WithField("lock", key).Warn("Reminder lock unavailable, running batch anyway")
		acquired = true
	}
	if !acquired {
		log.WithField("lock", key).Info("Reminder batch already claimed, skipping")
		metrics.ReminderRuns.WithLabelValues("skipped").Inc()
		return services.RunReport{}, false
	}
	return s.runner.Run(ctx), true
}

// LockKey names today's batch in the scheduler's zone.
func (s *Scheduler) LockKey() string {
	return fmt.Sprintf(KeyReminderBatch, s.now().In(s.location).Format("2006-01-02"))
}
