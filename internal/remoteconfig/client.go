package remoteconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"adgate-server/internal/domain"

	"github.com/sirupsen/logrus"
)

// Fallback is the duration used when the remote resource was never fetched
// successfully: 48 hours, same as the hardcoded value in the config file.
func Fallback() domain.DurationConfig {
	return domain.DurationConfig{UseHours: true, DurationHours: 48}
}

// Client fetches the remote duration config and caches it for a TTL. A fetch
// failure serves the last good value, or Fallback when there is none, so the
// verification path never depends on the config host being up.
type Client struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client

	mu        sync.Mutex
	cached    domain.DurationConfig
	hasValue  bool
	fetchedAt time.Time
}

func New(url string, ttl time.Duration) *Client {
	return &Client{
		url:        url,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Current returns the effective duration config. It never fails.
func (c *Client) Current(ctx context.Context) domain.DurationConfig {
	if c.url == "" {
		return Fallback()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasValue && time.Since(c.fetchedAt) < c.ttl {
		return c.cached
	}

	cfg, err := c.fetch(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Remote config fetch failed")
		if c.hasValue {
			return c.cached
		}
		return Fallback()
	}

	c.cached = cfg
	c.hasValue = true
	c.fetchedAt = time.Now()

	return c.cached
}

func (c *Client) fetch(ctx context.Context) (domain.DurationConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.DurationConfig{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DurationConfig{}, fmt.Errorf("failed to fetch remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.DurationConfig{}, fmt.Errorf("failed to fetch remote config: status %d", resp.StatusCode)
	}

	var remote domain.RemoteConfig
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return domain.DurationConfig{}, fmt.Errorf("failed to decode remote config: %w", err)
	}

	return remote.Verification, nil
}
