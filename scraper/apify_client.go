package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"ig_apify/config"
)

const breakerOpenTimeout = time.Minute

// ApifyClient starts runs of saved actor tasks. The circuit breaker lives as
// long as the client, so on a warm Lambda it spans invocations and makes a
// dead API fail fast instead of timing out on every dispatch.
type ApifyClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
}

type runResponse struct {
	Data struct {
		ID        string `json:"id"`
		ActID     string `json:"actId"`
		Status    string `json:"status"`
		StartedAt string `json:"startedAt"`
	} `json:"data"`
}

func NewApifyClient(cfg config.ApifyConfig) *ApifyClient {
	failures := uint32(max(cfg.BreakerFailures, 1))
	return &ApifyClient{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetAuthToken(cfg.Token).
			SetHeader("Content-Type", "application/json"),
		breaker: gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
			Name:    "apify",
			Timeout: breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				zap.S().Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// RunTask starts one run of the adapter's task with urls as its direct
// inputs and returns the run id. It never retries.
func (c *ApifyClient) RunTask(ctx context.Context, adapter ApifyTaskAdapter, urls []string) (string, error) {
	if adapter.TaskID() == "" {
		return "", errors.New("apify task id not set")
	}

	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("taskId", adapter.TaskID()).
			SetBody(adapter.BuildInput(urls)).
			SetResult(&runResponse{}).
			Post("/v2/actor-tasks/{taskId}/runs")
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != http.StatusCreated {
			return resp, fmt.Errorf("apify run task failed %d: %s", resp.StatusCode(), resp.String())
		}
		return resp, nil
	})
	if err != nil {
		return "", fmt.Errorf("run task %s: %w", adapter.TaskID(), err)
	}

	result := resp.Result().(*runResponse)
	zap.S().Infow("apify run started", "task_id", adapter.TaskID(), "run_id", result.Data.ID, "urls", len(urls))
	return result.Data.ID, nil
}
