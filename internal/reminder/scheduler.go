// Package reminder runs the periodic jobs: reminder emails, the daily
// statistics rollup and refresh-token pruning.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"jobgate-appointment-api/internal/cache"
	"jobgate-appointment-api/internal/config"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/notify"
)

const (
	// DefaultWindow matches the default */5 reminder cron.
	DefaultWindow = 5 * time.Minute
	jobTimeout    = 2 * time.Minute
	// expired refresh tokens are kept this long for replay detection
	tokenRetention = 24 * time.Hour
)

type Store interface {
	DueReminders(ctx context.Context, t model.ReminderType, from, to time.Time, loc *time.Location) ([]model.Appointment, error)
	Preferences(ctx context.Context, userID string) (*model.UserPreferences, error)
	RollupDay(ctx context.Context, day time.Time) (int64, error)
	PruneRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

type Sender interface {
	Enqueue(notify.Job) bool
}

type Scheduler struct {
	store  Store
	sender Sender
	cache  *cache.Cache
	loc    *time.Location
	jobs   config.JobsConfig
	window time.Duration
	now    func() time.Time
	cron   *cron.Cron
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) { s.window = d }
}

func New(st Store, sender Sender, c *cache.Cache, loc *time.Location, jobs config.JobsConfig, opts ...Option) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		store:  st,
		sender: sender,
		cache:  c,
		loc:    loc,
		jobs:   jobs,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start registers the three jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	c := cron.New(cron.WithLocation(s.loc))
	for _, j := range []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"reminders", s.jobs.ReminderCron, func(ctx context.Context) error { _, err := s.SweepReminders(ctx); return err }},
		{"daily-stats", s.jobs.StatsCron, s.RollupYesterday},
		{"prune-tokens", s.jobs.PruneCron, s.PruneTokens},
	} {
		if _, err := c.AddFunc(j.spec, func() { s.runLocked(j.name, j.run) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	s.cron = c
	c.Start()
	appLog.Info("scheduler started", "reminders", s.jobs.ReminderCron, "stats", s.jobs.StatsCron, "prune", s.jobs.PruneCron)
	return nil
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// runLocked runs fn only when this instance wins the job lock.
func (s *Scheduler) runLocked(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	lock, err := s.cache.Lock(ctx, name, jobTimeout)
	if errors.Is(err, cache.ErrLocked) {
		appLog.Debug("job skipped, locked elsewhere", "job", name)
		return
	}
	if err != nil {
		appLog.Error("job lock", err, "job", name)
		return
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			appLog.Error("job unlock", err, "job", name)
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		appLog.Error("job failed", err, "job", name)
		return
	}
	appLog.Debug("job done", "job", name, "took", time.Since(start).Round(time.Millisecond))
}

// SweepReminders queues 24h reminders for appointments starting in
// (now+24h-window, now+24h] and 1h reminders for those in (now, now+1h],
// skipping users who turned them off. It returns the number queued.
func (s *Scheduler) SweepReminders(ctx context.Context) (int, error) {
	now := s.now()
	queued := 0
	for _, w := range []struct {
		typ      model.ReminderType
		from, to time.Time
	}{
		{model.Reminder24Hour, now.Add(24*time.Hour - s.window), now.Add(24 * time.Hour)},
		{model.Reminder1Hour, now, now.Add(time.Hour)},
	} {
		due, err := s.store.DueReminders(ctx, w.typ, w.from, w.to, s.loc)
		if err != nil {
			return queued, fmt.Errorf("due %s reminders: %w", w.typ, err)
		}
		for i := range due {
			a := &due[i]
			ok, err := s.wants(ctx, a.TalentID, w.typ)
			if err != nil {
				appLog.Error("reminder preferences", err, "user", a.TalentID)
				continue
			}
			if !ok {
				continue
			}
			if s.sender.Enqueue(notify.Job{AppointmentID: a.ID, Type: w.typ}) {
				queued++
			}
		}
	}
	if queued > 0 {
		appLog.Info("reminders queued", "count", queued)
	}
	return queued, nil
}

func (s *Scheduler) wants(ctx context.Context, userID string, t model.ReminderType) (bool, error) {
	p, err := s.store.Preferences(ctx, userID)
	if err != nil {
		return false, err
	}
	if !p.EmailRemindersEnabled {
		return false, nil
	}
	switch t {
	case model.Reminder24Hour:
		return p.Reminder24hEnabled, nil
	case model.Reminder1Hour:
		return p.Reminder1hEnabled, nil
	}
	return true, nil
}

// RollupYesterday recomputes the daily statistics of the previous local day.
func (s *Scheduler) RollupYesterday(ctx context.Context) error {
	day := s.now().In(s.loc).AddDate(0, 0, -1)
	n, err := s.store.RollupDay(ctx, model.DateOf(day))
	if err != nil {
		return err
	}
	appLog.Info("daily statistics rolled up", "date", model.DateOf(day).Format(model.DateLayout), "rows", n)
	return nil
}

func (s *Scheduler) PruneTokens(ctx context.Context) error {
	n, err := s.store.PruneRefreshTokens(ctx, s.now().Add(-tokenRetention))
	if err != nil {
		return err
	}
	appLog.Info("expired refresh tokens pruned", "count", n)
	return nil
}
