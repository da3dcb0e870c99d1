package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jerilmartin/infini8graph/pkg/config"
	"github.com/jerilmartin/infini8graph/pkg/logging"
	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

// Client wraps the Instagram Graph API for one account's access token.
// It performs no caching and no retries; a failed call fails immediately.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxPageSize int
	logger      *zap.Logger
}

// New creates a new Graph API client
func New(cfg *config.InstagramConfig, accessToken string) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("graph_base_url is required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	logger := logging.GetLogger().With(zap.String("component", "instagram-client"))

	client := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		maxPageSize: cfg.MaxPageSize,
		logger:      logger,
	}

	return client, nil
}

// GetProfile fetches the account profile snapshot
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	ctx, span := telemetry.StartSpan(ctx, "instagram.get_profile")
	defer span.End()

	params := url.Values{}
	params.Set("fields", "id,username,name,profile_picture_url,followers_count,follows_count,media_count,biography,website")

	var profile Profile
	if err := c.doGet(ctx, "/me", params, &profile); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// doGet performs a rate-limited GET against the Graph API and decodes the
// JSON response into out. Non-2xx responses become an *UpstreamError with the
// structured error body message when present.
func (c *Client) doGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.accessToken)

	requestURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return c.upstreamError(res.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// upstreamError builds an UpstreamError from a non-2xx response body
func (c *Client) upstreamError(status int, body []byte) error {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return &UpstreamError{
			StatusCode: status,
			Code:       parsed.Error.Code,
			Message:    parsed.Error.Message,
		}
	}
	return &UpstreamError{StatusCode: status}
}
