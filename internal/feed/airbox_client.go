package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrFeedUnavailable is returned when the snapshot could not be retrieved.
var ErrFeedUnavailable = errors.New("airbox feed unavailable")

// AirBoxClient fetches device snapshots from the upstream AirBox feed.
type AirBoxClient struct {
	client *resty.Client
	url    string
	token  string
	logger *zap.Logger
}

// NewAirBoxClient creates a client for GET {url}?token={token}.
func NewAirBoxClient(url, token string, timeout time.Duration, logger *zap.Logger) *AirBoxClient {
	return &AirBoxClient{
		client: resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		url:    url,
		token:  token,
		logger: logger.With(zap.String("component", "airbox-feed")),
	}
}

// Fetch returns the raw snapshot body.
func (c *AirBoxClient) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: upstream responded %s", ErrFeedUnavailable, resp.Status())
	}

	c.logger.Debug("snapshot fetched",
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("elapsed", resp.Time()),
	)
	return resp.Body(), nil
}
