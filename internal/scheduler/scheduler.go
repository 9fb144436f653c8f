// Package scheduler runs the session's periodic jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/julianstephens/calorix/internal/logger"
)

// Job is a periodic task. Stop does not cancel ctx: a job that is already
// running is allowed to finish.
type Job func(ctx context.Context)

type Scheduler struct {
	cron    *cron.Cron
	log     *log.Logger
	ctx     context.Context
	stopped atomic.Bool

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// cronLogger adapts a charmbracelet logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append([]interface{}{"err", err}, keysAndValues...)...)
}

func New() *Scheduler {
	l := logger.Component("scheduler")
	cl := cronLogger{l: l}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:  l,
		ctx:  context.Background(),
		jobs: make(map[string]cron.EntryID),
	}
}

// Add registers fn under name. A job still running when its next tick
// arrives is skipped for that tick.
func (s *Scheduler) Add(name, spec string, fn Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	id, err := s.cron.AddFunc(spec, func() {
		if s.stopped.Load() {
			return
		}
		s.log.Debug("Running job", "job", name)
		fn(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	s.jobs[name] = id
	return nil
}

// Remove unregisters a job. Unknown names are ignored.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}
}

// Jobs lists the registered job names in order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents further runs and waits for running jobs to return or for
// ctx to expire, whichever comes first. It is safe to call more than once.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
