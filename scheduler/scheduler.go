package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"ig_apify/models"
)

// ErrNoSchedule is returned by Start when no campaign has a cron expression.
var ErrNoSchedule = errors.New("no dispatch schedule configured")

// Dispatcher runs one default-mode dispatch.
type Dispatcher interface {
	Dispatch(ctx context.Context, params *models.DispatchParams) (*models.DispatchSummary, error)
}

type job struct {
	kind       models.Kind
	spec       string
	dispatcher Dispatcher
}

// Scheduler replaces the serverless schedule when the handlers run as a
// long-lived daemon.
type Scheduler struct {
	cron *cron.Cron
	jobs []job
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Add registers a campaign. An empty spec leaves the campaign unscheduled.
func (s *Scheduler) Add(kind models.Kind, spec string, d Dispatcher) {
	if spec == "" {
		zap.S().Infow("campaign not scheduled", "kind", kind)
		return
	}
	s.jobs = append(s.jobs, job{kind: kind, spec: spec, dispatcher: d})
}

func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.jobs) == 0 {
		return ErrNoSchedule
	}

	for _, j := range s.jobs {
		zap.S().Infow("scheduling dispatch", "kind", j.kind, "cron", j.spec)
		_, err := s.cron.AddFunc(j.spec, func() {
			s.run(ctx, j)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression for %s: %w", j.kind, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for running dispatches to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// TriggerNow runs every registered campaign once, sequentially.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	for _, j := range s.jobs {
		s.run(ctx, j)
	}
}

func (s *Scheduler) run(ctx context.Context, j job) {
	if ctx.Err() != nil {
		return
	}
	summary, err := j.dispatcher.Dispatch(ctx, nil)
	if err != nil {
		zap.S().Errorw("scheduled dispatch error", "kind", j.kind, "error", err)
		return
	}
	zap.S().Infow("scheduled dispatch done", "kind", j.kind, "result", summary.Message())
}
