package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"ig_apify/models"
	"ig_apify/notify"
)

// Dispatcher selects eligible candidates and submits them to the scraper
// task of its campaign.
type Dispatcher struct {
	campaign Campaign
	envName  string
	loc      *time.Location
	connect  Connector
	runner   TaskRunner
	notifier Notifier

	now  func() time.Time
	intn func(int) int
}

func NewDispatcher(c Campaign, envName string, loc *time.Location, connect Connector, runner TaskRunner, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		campaign: c,
		envName:  envName,
		loc:      loc,
		connect:  connect,
		runner:   runner,
		notifier: notifier,
		now:      time.Now,
		intn:     rand.IntN,
	}
}

func (d *Dispatcher) Campaign() Campaign {
	return d.campaign
}

// Dispatch runs one invocation. A nil params selects the flagged programs,
// the default window and a randomized cap. Errors other than a failed task
// submission are reported to Slack as fatal and returned.
func (d *Dispatcher) Dispatch(ctx context.Context, params *models.DispatchParams) (*models.DispatchSummary, error) {
	log := zap.S().With(
		"function", d.campaign.DispatchName,
		"invocation_id", uuid.NewString(),
	)
	username := notify.Username(d.envName, d.campaign.DispatchName)

	summary, err := d.dispatch(ctx, log, username, params)
	if err != nil {
		log.Errorw("unhandled dispatch error", "error", err)
		d.post(ctx, log, notify.Message{
			Username: username,
			Text:     notify.Fatal(d.envName, d.campaign.Adapter.TaskID(), err),
			Icon:     notify.IconFatal,
		})
		return nil, err
	}

	log.Infow("dispatch complete",
		"programs", summary.ProgramIDs,
		"candidates", summary.Candidates,
		"eligible", summary.Eligible,
		"run_id", summary.RunID,
	)
	return summary, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, log *zap.SugaredLogger, username string, params *models.DispatchParams) (*models.DispatchSummary, error) {
	if params != nil {
		if err := params.Validate(); err != nil {
			return nil, err
		}
	}

	store, err := d.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer closeStore(ctx, log, store)

	kind := d.campaign.Kind
	now := d.now().In(d.loc)

	var q models.CandidateQuery
	if params == nil {
		programIDs, err := store.ProgramIDs(ctx, kind)
		if err != nil {
			return nil, err
		}
		limit := d.campaign.RandomCap(d.intn)
		q = models.CandidateQuery{
			ProgramIDs: programIDs,
			Window:     DefaultWindow(now),
			Limit:      &limit,
		}
	} else {
		q = models.CandidateQuery{
			ProgramIDs: params.ProgramIDs,
			Window:     ResolveWindow(params, now),
			Limit:      params.Limit.IntPtr(),
			Offset:     params.Offset.IntPtr(),
		}
	}
	log.Debugw("selecting candidates", "programs", q.ProgramIDs, "window", q.Window, "limit", q.Limit, "offset", q.Offset)

	urls, err := store.FindCandidates(ctx, kind, q)
	if err != nil {
		return nil, err
	}

	// Operator visibility only: counted over the same scope without the cap,
	// so it can exceed len(urls).
	eligible, err := store.CountCandidates(ctx, kind, q.ProgramIDs, q.Window)
	if err != nil {
		return nil, err
	}

	summary := &models.DispatchSummary{
		Kind:       kind,
		ProgramIDs: q.ProgramIDs,
		Candidates: len(urls),
		Eligible:   eligible,
	}

	if len(urls) == 0 {
		d.post(ctx, log, notify.Message{
			Username: username,
			Text:     notify.Nothing(len(urls)),
			Icon:     notify.IconNothing,
		})
		return summary, nil
	}

	taskID := d.campaign.Adapter.TaskID()
	d.post(ctx, log, notify.Message{
		Username: username,
		Text:     notify.Intent(len(urls), eligible, q.ProgramIDs, taskID),
		Icon:     notify.IconIntent,
	})

	runID, err := d.runner.RunTask(ctx, d.campaign.Adapter, urls)
	if err != nil {
		log.Errorw("could not send task to apify", "task_id", taskID, "error", err)
		d.post(ctx, log, notify.Message{
			Username: username,
			Text:     notify.DispatchError(taskID, err),
			Icon:     notify.IconDispatchError,
		})
		return summary, nil
	}

	summary.RunID = runID
	summary.Submitted = true
	return summary, nil
}

func (d *Dispatcher) post(ctx context.Context, log *zap.SugaredLogger, msg notify.Message) {
	postMessage(ctx, log, d.notifier, msg)
}

// postMessage delivers a notification; delivery failures are logged and
// never change the invocation result.
func postMessage(ctx context.Context, log *zap.SugaredLogger, n Notifier, msg notify.Message) {
	if err := n.Post(context.WithoutCancel(ctx), msg); err != nil {
		log.Warnw("slack notification failed", "error", err)
	}
}

func closeStore(ctx context.Context, log *zap.SugaredLogger, store Store) {
	if err := store.Close(context.WithoutCancel(ctx)); err != nil {
		log.Warnw("closing database connection", "error", err)
	}
}
