package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"ig_apify/models"
	"ig_apify/notify"
)

// Reconciler maps one scraped record onto its row.
type Reconciler[R any] interface {
	Key(r R) string
	Apply(ctx context.Context, store Store, r R, lastScraped string) (models.UpdateResult, error)
}

type ProfileReconciler struct{}

func (ProfileReconciler) Key(r models.ProfileRecord) string {
	return r.Username
}

// Apply clears a previously recorded scrape error as part of the same write.
func (ProfileReconciler) Apply(ctx context.Context, store Store, r models.ProfileRecord, lastScraped string) (models.UpdateResult, error) {
	u := r.ToUpdate(lastScraped)
	isNull, err := store.IsScrapeErrorCodeNull(ctx, r.Username)
	if err != nil {
		return models.UpdateResult{}, err
	}
	u.ClearScrapeError = !isNull
	return store.UpdateProfile(ctx, u)
}

type PostReconciler struct{}

func (PostReconciler) Key(r models.PostRecord) string {
	return r.ToUpdate("").PostURL
}

func (PostReconciler) Apply(ctx context.Context, store Store, r models.PostRecord, lastScraped string) (models.UpdateResult, error) {
	return store.UpdatePost(ctx, r.ToUpdate(lastScraped))
}

// Ingester writes one scrape result file back into the store.
type Ingester[R any] struct {
	campaign   Campaign
	envName    string
	loc        *time.Location
	connect    Connector
	objects    ObjectStore
	notifier   Notifier
	reconciler Reconciler[R]

	now func() time.Time
}

func NewIngester[R any](c Campaign, envName string, loc *time.Location, connect Connector, objects ObjectStore, notifier Notifier, reconciler Reconciler[R]) *Ingester[R] {
	return &Ingester[R]{
		campaign:   c,
		envName:    envName,
		loc:        loc,
		connect:    connect,
		objects:    objects,
		notifier:   notifier,
		reconciler: reconciler,
		now:        time.Now,
	}
}

func NewProfileIngester(c Campaign, envName string, loc *time.Location, connect Connector, objects ObjectStore, notifier Notifier) *Ingester[models.ProfileRecord] {
	return NewIngester[models.ProfileRecord](c, envName, loc, connect, objects, notifier, ProfileReconciler{})
}

func NewPostIngester(c Campaign, envName string, loc *time.Location, connect Connector, objects ObjectStore, notifier Notifier) *Ingester[models.PostRecord] {
	return NewIngester[models.PostRecord](c, envName, loc, connect, objects, notifier, PostReconciler{})
}

// Ingest reconciles every record of s3://bucket/key and deletes the object.
// The returned string is the acknowledgment for the runtime. A file that
// cannot be read is logged and skipped without notification.
func (g *Ingester[R]) Ingest(ctx context.Context, bucket, key string) (string, error) {
	log := zap.S().With(
		"function", g.campaign.IngestName,
		"invocation_id", uuid.NewString(),
		"bucket", bucket,
		"key", key,
	)
	username := notify.Username(g.envName, g.campaign.IngestName)

	msg, err := g.ingest(ctx, log, username, bucket, key)
	if err != nil {
		g.fatal(ctx, log, err)
		return "", err
	}
	return msg, nil
}

// ReportFatal notifies an error raised before an object could be resolved,
// such as a malformed runtime event.
func (g *Ingester[R]) ReportFatal(ctx context.Context, err error) {
	log := zap.S().With(
		"function", g.campaign.IngestName,
		"invocation_id", uuid.NewString(),
	)
	g.fatal(ctx, log, err)
}

func (g *Ingester[R]) fatal(ctx context.Context, log *zap.SugaredLogger, err error) {
	log.Errorw("unhandled ingest error", "error", err)
	postMessage(ctx, log, g.notifier, notify.Message{
		Username: notify.Username(g.envName, g.campaign.IngestName),
		Text:     notify.Fatal(g.envName, g.campaign.Adapter.TaskID(), err),
		Icon:     notify.IconIngestFatal,
	})
}

func (g *Ingester[R]) ingest(ctx context.Context, log *zap.SugaredLogger, username, bucket, key string) (string, error) {
	store, err := g.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer closeStore(ctx, log, store)

	data, err := g.objects.Get(ctx, bucket, key)
	if err != nil {
		log.Errorw("could not read result file", "error", err)
		return "", nil
	}

	var records []R
	if err := json.Unmarshal(data, &records); err != nil {
		return "", fmt.Errorf("parse s3://%s/%s: %w", bucket, key, err)
	}

	summary := g.reconcile(ctx, log, store, records)

	if summary.Records > 0 {
		text := summary.Text()
		log.Infow("batch reconciled", "records", summary.Records, "affected", summary.Affected, "changed", summary.Changed)
		postMessage(ctx, log, g.notifier, notify.Message{
			Username: username,
			Text:     text,
			Icon:     notify.IconIngestSummary,
		})
	}

	if failed := summary.FailedKeys(); len(failed) > 0 {
		var errs error
		for _, o := range summary.Outcomes {
			errs = multierr.Append(errs, o.Err)
		}
		log.Errorw("records failed to reconcile", "failed", failed, "error", errs)
		postMessage(ctx, log, g.notifier, notify.Message{
			Username: username,
			Text:     notify.IngestError(g.campaign.Adapter.TaskID(), summary, errs),
			Icon:     notify.IconIngestError,
		})
	}

	if err := g.objects.Delete(context.WithoutCancel(ctx), bucket, key); err != nil {
		log.Warnw("could not delete result file", "error", err)
	}

	return summary.Message(), nil
}

// reconcile applies records one at a time. A failing record is recorded in
// its outcome and the batch continues; earlier writes stay committed.
func (g *Ingester[R]) reconcile(ctx context.Context, log *zap.SugaredLogger, store Store, records []R) *models.IngestSummary {
	summary := &models.IngestSummary{Kind: g.campaign.Kind, Records: len(records)}

	for _, r := range records {
		key := g.reconciler.Key(r)
		lastScraped := g.now().In(g.loc).Format(models.TimestampLayout)

		result, err := g.reconciler.Apply(ctx, store, r, lastScraped)
		summary.Add(models.RecordOutcome{Key: key, Result: result, Err: err})
		if err != nil {
			log.Warnw("record not reconciled", "record_key", key, "error", err)
			continue
		}
		log.Debugw("record reconciled", "record_key", key, "affected", result.Affected, "changed", result.Changed)
	}

	return summary
}
