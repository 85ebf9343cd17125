package functions

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"ig_apify/models"
)

// Names of the deployed functions.
const (
	ProfileDispatch = "profile-apify-client"
	PostDispatch    = "post-apify-client"
	ProfileIngest   = "profile-apify"
	PostIngest      = "post-apify"
)

var errNoRecords = errors.New("s3 event has no records")

type Dispatcher interface {
	Dispatch(ctx context.Context, params *models.DispatchParams) (*models.DispatchSummary, error)
}

type Ingester interface {
	Ingest(ctx context.Context, bucket, key string) (string, error)
	ReportFatal(ctx context.Context, err error)
}

// DispatchHandler adapts a Dispatcher to the Lambda invocation contract.
func DispatchHandler(d Dispatcher) func(context.Context, models.DispatchEvent) (string, error) {
	return func(ctx context.Context, event models.DispatchEvent) (string, error) {
		summary, err := d.Dispatch(ctx, event.QueryStringParameters)
		if err != nil {
			return "", err
		}
		return summary.Message(), nil
	}
}

// IngestHandler adapts an Ingester to S3 put notifications. Only the first
// record of the event is processed; an unusable event is reported like any
// other fatal ingest error.
func IngestHandler(i Ingester) func(context.Context, events.S3Event) (string, error) {
	return func(ctx context.Context, event events.S3Event) (string, error) {
		bucket, key, err := ObjectFromEvent(event)
		if err != nil {
			i.ReportFatal(ctx, err)
			return "", err
		}
		return i.Ingest(ctx, bucket, key)
	}
}

// ObjectFromEvent extracts the bucket and the decoded object key of the
// first record. S3 notifications form-encode keys ('+' for space).
func ObjectFromEvent(event events.S3Event) (string, string, error) {
	if len(event.Records) == 0 {
		return "", "", errNoRecords
	}
	rec := event.Records[0].S3
	key, err := url.QueryUnescape(rec.Object.Key)
	if err != nil {
		return "", "", fmt.Errorf("decode object key %q: %w", rec.Object.Key, err)
	}
	return rec.Bucket.Name, key, nil
}
