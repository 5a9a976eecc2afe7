package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultRunTimeout = 30 * time.Minute

var ErrUnknownJob = errors.New("unknown job")

// Job is a named cycle. An empty Schedule means the job only runs on demand.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) (*CycleResult, error)
}

// Scheduler fires jobs on their cron schedules and serializes overlapping
// runs of the same job, whether they come from the clock or a trigger.
type Scheduler struct {
	jobs    map[string]Job
	group   singleflight.Group
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(logger *zap.Logger, jobs ...Job) (*Scheduler, error) {
	gx := gronx.New()
	s := &Scheduler{
		jobs:    make(map[string]Job, len(jobs)),
		timeout: defaultRunTimeout,
		logger:  logger,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	for _, j := range jobs {
		if j.Run == nil {
			return nil, fmt.Errorf("job %q has no run function", j.Name)
		}
		if j.Schedule != "" && !gx.IsValid(j.Schedule) {
			return nil, fmt.Errorf("invalid cron expression for %s: %q", j.Name, j.Schedule)
		}
		s.jobs[j.Name] = j
	}
	return s, nil
}

// SetTimeout bounds each run.
func (s *Scheduler) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Start launches one worker per scheduled job.
func (s *Scheduler) Start() {
	for _, j := range s.jobs {
		if j.Schedule == "" {
			continue
		}
		s.wg.Add(1)
		go s.loop(j)
	}
}

// Stop halts the workers and waits for in-flight runs started by them or by Dispatch.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Scheduler) loop(j Job) {
	defer s.wg.Done()
	s.logger.Info("scheduler worker started", zap.String("job", j.Name), zap.String("schedule", j.Schedule))

	for {
		now := s.now()
		next, err := gronx.NextTickAfter(j.Schedule, now, false)
		if err != nil {
			s.logger.Error("failed to compute next run", zap.String("job", j.Name), zap.Error(err))
			return
		}
		s.logger.Debug("next run scheduled", zap.String("job", j.Name), zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			if _, err := s.Trigger(context.Background(), j.Name); err != nil {
				s.logger.Error("scheduled run failed", zap.String("job", j.Name), zap.Error(err))
			}
		case <-s.stopCh:
			timer.Stop()
			s.logger.Info("scheduler worker stopped", zap.String("job", j.Name))
			return
		}
	}
}

// Trigger runs the job now and waits for it. A run already in flight for the
// same job is joined instead of started again. The run is detached from ctx's
// cancellation and bounded by the scheduler timeout.
func (s *Scheduler) Trigger(ctx context.Context, name string) (*CycleResult, error) {
	j, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	v, err, shared := s.group.Do(name, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return j.Run(runCtx)
	})
	if shared {
		s.logger.Info("joined in-flight run", zap.String("job", name))
	}
	if err != nil {
		return nil, err
	}
	res, _ := v.(*CycleResult)
	return res, nil
}

// Dispatch starts the job in the background and returns immediately.
func (s *Scheduler) Dispatch(name string) error {
	if _, ok := s.jobs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Trigger(context.Background(), name); err != nil {
			s.logger.Error("dispatched run failed", zap.String("job", name), zap.Error(err))
		}
	}()
	return nil
}

// Jobs lists the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}
