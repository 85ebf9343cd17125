package functions

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
	"ig_apify/config"
	"ig_apify/logging"
	"ig_apify/models"
	"ig_apify/notify"
	"ig_apify/pipeline"
	"ig_apify/scraper"
	"ig_apify/storage"
)

// Connector opens one PostgreSQL connection per invocation.
func Connector(cfg *config.Config) pipeline.Connector {
	dsn := cfg.Database.DSN()
	return func(ctx context.Context) (pipeline.Store, error) {
		store, err := storage.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func NewDispatcher(cfg *config.Config, kind models.Kind, runner pipeline.TaskRunner) (*pipeline.Dispatcher, error) {
	campaign, err := pipeline.NewCampaign(cfg, kind)
	if err != nil {
		return nil, err
	}
	return pipeline.NewDispatcher(campaign, cfg.EnvName, cfg.Location, Connector(cfg), runner, notify.NewSlack(cfg.Slack)), nil
}

// NewIngester returns the Ingester of the given kind bound to S3.
func NewIngester(ctx context.Context, cfg *config.Config, kind models.Kind) (Ingester, error) {
	campaign, err := pipeline.NewCampaign(cfg, kind)
	if err != nil {
		return nil, err
	}
	objects, err := storage.NewS3Store(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	slack := notify.NewSlack(cfg.Slack)

	switch kind {
	case models.KindProfile:
		return pipeline.NewProfileIngester(campaign, cfg.EnvName, cfg.Location, Connector(cfg), objects, slack), nil
	case models.KindPost:
		return pipeline.NewPostIngester(campaign, cfg.EnvName, cfg.Location, Connector(cfg), objects, slack), nil
	default:
		return nil, fmt.Errorf("unknown ingest kind %q", kind)
	}
}

// Main is the process entry of a deployed function: it builds and validates
// the configuration once, then hands the handler to the Lambda runtime.
func Main(name string) {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}

	log, closeLog, err := logging.Setup(logging.Options{
		Level:       cfg.LogLevel,
		Development: cfg.EnvName == "local",
	})
	if err != nil {
		panic(fmt.Sprintf("set up logging: %v", err))
	}
	defer closeLog()

	handler, err := build(context.Background(), cfg, name)
	if err != nil {
		log.Fatalw("could not start function", "function", name, "error", err)
	}

	log.Infow("function starting", "function", name, "env", cfg.EnvName)
	lambda.Start(handler)
}

func build(ctx context.Context, cfg *config.Config, name string) (interface{}, error) {
	switch name {
	case ProfileDispatch, PostDispatch:
		if err := cfg.ValidateDispatch(); err != nil {
			return nil, err
		}
		kind := models.KindProfile
		if name == PostDispatch {
			kind = models.KindPost
		}
		d, err := NewDispatcher(cfg, kind, scraper.NewApifyClient(cfg.Apify))
		if err != nil {
			return nil, err
		}
		return DispatchHandler(d), nil

	case ProfileIngest, PostIngest:
		if err := cfg.ValidateIngest(); err != nil {
			return nil, err
		}
		kind := models.KindProfile
		if name == PostIngest {
			kind = models.KindPost
		}
		i, err := NewIngester(ctx, cfg, kind)
		if err != nil {
			return nil, err
		}
		return IngestHandler(i), nil

	default:
		zap.S().Errorw("unknown function", "function", name)
		return nil, fmt.Errorf("unknown function %q", name)
	}
}
