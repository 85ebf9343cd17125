package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ig_apify/models"
)

type countingDispatcher struct {
	calls int
	err   error
}

func (c *countingDispatcher) Dispatch(ctx context.Context, params *models.DispatchParams) (*models.DispatchSummary, error) {
	c.calls++
	if params != nil {
		return nil, errors.New("scheduled dispatch must use default mode")
	}
	if c.err != nil {
		return nil, c.err
	}
	return &models.DispatchSummary{Kind: models.KindProfile}, nil
}

func TestStart_NoSchedule(t *testing.T) {
	s := New()
	s.Add(models.KindProfile, "", &countingDispatcher{})

	assert.ErrorIs(t, s.Start(context.Background()), ErrNoSchedule)
}

func TestStart_InvalidCron(t *testing.T) {
	s := New()
	s.Add(models.KindPost, "every tuesday", &countingDispatcher{})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post")
}

func TestStartStop(t *testing.T) {
	s := New()
	s.Add(models.KindProfile, "0 */2 * * *", &countingDispatcher{})

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestTriggerNow(t *testing.T) {
	profile := &countingDispatcher{}
	post := &countingDispatcher{err: errors.New("db down")}

	s := New()
	s.Add(models.KindProfile, "0 * * * *", profile)
	s.Add(models.KindPost, "30 * * * *", post)
	s.TriggerNow(context.Background())

	assert.Equal(t, 1, profile.calls)
	assert.Equal(t, 1, post.calls)
}

func TestTriggerNow_CancelledContext(t *testing.T) {
	d := &countingDispatcher{}
	s := New()
	s.Add(models.KindProfile, "0 * * * *", d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.TriggerNow(ctx)

	assert.Zero(t, d.calls)
}
