// Package sentiment queries the external sentiment agent. Sentiment is a
// best-effort input: any transport or protocol failure collapses to neutral
// values with an explanatory message, never an error.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tkaraxa/sibyl/internal/core"
)

// Client talks to the sentiment agent's task endpoint.
type Client struct {
	agentURL  string
	client    *http.Client
	pollDelay time.Duration
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPollDelay sets the wait between task creation and result polling.
func WithPollDelay(d time.Duration) Option {
	return func(c *Client) { c.pollDelay = d }
}

// New creates a sentiment client against the given agent URL.
func New(agentURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		agentURL:  strings.TrimRight(agentURL, "/"),
		client:    &http.Client{Timeout: timeout},
		pollDelay: time.Second,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type taskRequest struct {
	Input     string `json:"input"`
	InputMode string `json:"input_mode"`
}

type taskResponse struct {
	TaskID string `json:"task_id"`
}

type taskResult struct {
	Output struct {
		Text string `json:"text"`
	} `json:"output"`
}

type sentimentPayload struct {
	Data struct {
		SentimentBalance float64 `json:"sentiment_balance"`
	} `json:"data"`
}

// Fetch retrieves the sentiment balance for an asset over the given window.
// It always returns usable data; failures are logged and reported through
// the Message field.
func (c *Client) Fetch(ctx context.Context, assetID string, days int) core.SentimentData {
	balance, err := c.fetch(ctx, assetID, days)
	if err != nil {
		c.logger.Warn("sentiment fetch failed, using neutral values",
			zap.String("asset", assetID),
			zap.Error(err))
		return core.SentimentData{
			Balance: 0,
			Message: fmt.Sprintf("Sentiment data unavailable: %v", err),
		}
	}
	return core.SentimentData{
		Balance: balance,
		Message: "Sentiment data fetched from sentiment agent",
	}
}

func (c *Client) fetch(ctx context.Context, assetID string, days int) (float64, error) {
	query := fmt.Sprintf("Get sentiment balance for %s over the last %d days",
		capitalize(assetID), days)

	body, err := json.Marshal(taskRequest{Input: query, InputMode: "text"})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.agentURL+"/task", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, core.WrapError(core.ErrSentimentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, core.WrapError(core.ErrSentimentUnavailable,
			fmt.Errorf("task creation returned %d", resp.StatusCode))
	}

	var task taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return 0, core.WrapError(core.ErrSentimentUnavailable, err)
	}

	if c.pollDelay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(c.pollDelay):
		}
	}

	resultReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/task/%s", c.agentURL, task.TaskID), nil)
	if err != nil {
		return 0, err
	}

	resultResp, err := c.client.Do(resultReq)
	if err != nil {
		return 0, core.WrapError(core.ErrSentimentUnavailable, err)
	}
	defer resultResp.Body.Close()

	if resultResp.StatusCode != http.StatusOK {
		return 0, core.WrapError(core.ErrSentimentUnavailable,
			fmt.Errorf("task result returned %d", resultResp.StatusCode))
	}

	var result taskResult
	if err := json.NewDecoder(resultResp.Body).Decode(&result); err != nil {
		return 0, core.WrapError(core.ErrSentimentUnavailable, err)
	}

	// The agent answers with a JSON document embedded in the output text.
	var payload sentimentPayload
	if err := json.Unmarshal([]byte(result.Output.Text), &payload); err != nil {
		return 0, nil
	}
	return payload.Data.SentimentBalance, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
