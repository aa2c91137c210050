// Package loyalty is the HTTP client for the external loyalty accounting
// service. Awards are fired from the background worker, so transient failures
// surface as errors and ride the worker's retry policy.
package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrUserNotFound means the loyalty service has no account for the user.
	ErrUserNotFound = errors.New("loyalty: user not found")
	// ErrUnavailable covers transport failures and 5xx responses.
	ErrUnavailable = errors.New("loyalty: service unavailable")
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type awardRequest struct {
	UserID int64  `json:"user_id"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// AwardPoints credits points to a user's loyalty account.
func (c *Client) AwardPoints(ctx context.Context, userID int64, points int, reason string) error {
	body, err := json.Marshal(awardRequest{UserID: userID, Points: points, Reason: reason})
	if err != nil {
		return fmt.Errorf("encode award request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/points/award", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create award request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		c.logger.Debug().Int64("user_id", userID).Int("points", points).Msg("loyalty points awarded")
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("loyalty: unexpected status %d: %s", resp.StatusCode, string(raw))
	}
}
