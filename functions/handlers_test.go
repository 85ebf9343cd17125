package functions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ig_apify/models"
)

type stubDispatcher struct {
	got     *models.DispatchParams
	summary *models.DispatchSummary
	err     error
}

func (s *stubDispatcher) Dispatch(ctx context.Context, params *models.DispatchParams) (*models.DispatchSummary, error) {
	s.got = params
	return s.summary, s.err
}

type stubIngester struct {
	bucket, key string
	calls       int
	fatal       []error
}

func (s *stubIngester) Ingest(ctx context.Context, bucket, key string) (string, error) {
	s.calls++
	s.bucket, s.key = bucket, key
	return "Successfully updated 0 post records", nil
}

func (s *stubIngester) ReportFatal(ctx context.Context, err error) {
	s.fatal = append(s.fatal, err)
}

func s3Event(bucket, key string) events.S3Event {
	var ev events.S3Event
	ev.Records = append(ev.Records, events.S3EventRecord{
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: key},
		},
	})
	return ev
}

func TestObjectFromEvent_DecodesKey(t *testing.T) {
	bucket, key, err := ObjectFromEvent(s3Event("results", "runs/2024+03/profile%2B1.json"))
	require.NoError(t, err)
	assert.Equal(t, "results", bucket)
	assert.Equal(t, "runs/2024 03/profile+1.json", key)
}

func TestObjectFromEvent_NoRecords(t *testing.T) {
	_, _, err := ObjectFromEvent(events.S3Event{})
	assert.ErrorIs(t, err, errNoRecords)
}

func TestIngestHandler(t *testing.T) {
	i := &stubIngester{}
	msg, err := IngestHandler(i)(context.Background(), s3Event("results", "a+b.json"))
	require.NoError(t, err)
	assert.Equal(t, "Successfully updated 0 post records", msg)
	assert.Equal(t, "results", i.bucket)
	assert.Equal(t, "a b.json", i.key)
	assert.Empty(t, i.fatal)
}

func TestIngestHandler_EmptyEventIsReported(t *testing.T) {
	i := &stubIngester{}
	_, err := IngestHandler(i)(context.Background(), events.S3Event{})
	require.ErrorIs(t, err, errNoRecords)

	assert.Zero(t, i.calls)
	require.Len(t, i.fatal, 1)
	assert.ErrorIs(t, i.fatal[0], errNoRecords)
}

func TestIngestHandler_BadKeyIsReported(t *testing.T) {
	i := &stubIngester{}
	_, err := IngestHandler(i)(context.Background(), s3Event("results", "bad%zzkey.json"))
	require.Error(t, err)

	assert.Zero(t, i.calls)
	assert.Len(t, i.fatal, 1)
}

func TestDispatchHandler(t *testing.T) {
	d := &stubDispatcher{summary: &models.DispatchSummary{Kind: models.KindProfile, Candidates: 2, Eligible: 5, Submitted: true, RunID: "r"}}

	var ev models.DispatchEvent
	require.NoError(t, json.Unmarshal([]byte(`{"queryStringParameters":{"programIds":"3","limit":"2"}}`), &ev))

	msg, err := DispatchHandler(d)(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, "Dispatched 2 of 5 eligible profile candidates (run r)", msg)
	require.NotNil(t, d.got)
	assert.Equal(t, models.FlexInts{3}, d.got.ProgramIDs)
}

func TestDispatchHandler_Error(t *testing.T) {
	d := &stubDispatcher{err: errors.New("boom")}
	_, err := DispatchHandler(d)(context.Background(), models.DispatchEvent{})
	require.Error(t, err)
	assert.Nil(t, d.got)
}
