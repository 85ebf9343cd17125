package pipeline

import (
	"context"

	"ig_apify/models"
	"ig_apify/notify"
	"ig_apify/scraper"
)

// Store is the per-invocation database handle.
type Store interface {
	ProgramIDs(ctx context.Context, kind models.Kind) ([]int64, error)
	FindCandidates(ctx context.Context, kind models.Kind, q models.CandidateQuery) ([]string, error)
	CountCandidates(ctx context.Context, kind models.Kind, programIDs []int64, w models.Window) (int, error)
	IsScrapeErrorCodeNull(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, u models.ProfileUpdate) (models.UpdateResult, error)
	UpdatePost(ctx context.Context, u models.PostUpdate) (models.UpdateResult, error)
	Close(ctx context.Context) error
}

// Connector opens the connection an invocation owns.
type Connector func(ctx context.Context) (Store, error)

type TaskRunner interface {
	RunTask(ctx context.Context, adapter scraper.ApifyTaskAdapter, urls []string) (string, error)
}

type Notifier interface {
	Post(ctx context.Context, msg notify.Message) error
}

type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}
