package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

type job struct {
	name   string
	spec   string
	worker Triggerable
}

// Scheduler triggers registered workers on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	jobs   []job
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cron: cron.New(), logger: logger.Named("scheduler")}
}

// Register adds a worker under name. An empty spec registers it for manual
// triggering only.
func (s *Scheduler) Register(name, spec string, worker Triggerable) error {
	if spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid cron expression for %s: %w", name, err)
		}
	}
	s.jobs = append(s.jobs, job{name: name, spec: spec, worker: worker})
	return nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	for _, j := range s.jobs {
		if j.spec == "" {
			s.logger.Info("worker registered without schedule", zap.String("worker", j.name))
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, j.worker.Trigger); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
		s.logger.Info("worker scheduled", zap.String("worker", j.name), zap.String("cron", j.spec))
	}
	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the cron loop and waits for running callbacks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// TriggerNow triggers the named worker, or every worker when name is empty.
func (s *Scheduler) TriggerNow(name string) error {
	found := false
	for _, j := range s.jobs {
		if name == "" || j.name == name {
			j.worker.Trigger()
			found = true
		}
	}
	if !found {
		return fmt.Errorf("unknown worker %q", name)
	}
	return nil
}
