// Package gateway is the request/response client for the authoritative
// remote store.
//
// Every outbound call goes through the rate limiter, carries the bearer
// credential when the session is authenticated, and maps remote failures
// into the engine's error taxonomy. Response payloads are normalized into
// canonical record sets at this boundary; nothing above the gateway ever
// sees a raw remote shape.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/logging"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/ratelimit"
)

// DefaultTimeout is the maximum time to wait for remote store responses.
const DefaultTimeout = 30 * time.Second

// TokenProvider supplies the current bearer credential. An empty token means
// the session is anonymous and requests go out unauthenticated.
type TokenProvider interface {
	Token() string
}

// SessionRefresher is optionally implemented by the token provider. When a
// call comes back 401 and the provider supports it, the client refreshes the
// session once and retries the rejected call once.
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}

// Client provides access to the remote store API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	tokens     TokenProvider
	logger     *zap.Logger
}

// NewClient creates a remote store client. All calls are throttled through
// the given limiter.
func NewClient(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, tokens TokenProvider, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		tokens:     tokens,
		logger:     logger.Named("gateway"),
	}
}

// buildURL constructs a URL by parsing the base and joining path segments.
// A trailing slash is kept; the remote API requires it.
func (c *Client) buildURL(segments ...string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	parts := append([]string{u.Path}, segments...)
	u.Path = path.Join(parts...) + "/"
	return u.String(), nil
}

// do issues one rate-limited request and returns the raw response body.
// Status mapping: 404 → ErrNotFound (callers usually treat it as an empty
// result), 429 → ErrRateLimited (retried with backoff by the limiter),
// 401 → ErrAuthExpired, 409 → ErrMigrationConflict, transport → ErrNetwork.
// A 401 with a refresh-capable token provider triggers one token refresh
// followed by one retry of the rejected call.
func (c *Client) do(ctx context.Context, method string, body interface{}, segments ...string) ([]byte, error) {
	respBody, err := c.doOnce(ctx, method, body, segments...)
	if err == nil || !errors.Is(err, apperrors.ErrAuthExpired) {
		return respBody, err
	}
	refresher, ok := c.tokens.(SessionRefresher)
	if !ok {
		return nil, err
	}
	if refreshErr := refresher.Refresh(ctx); refreshErr != nil {
		return nil, err
	}
	c.logger.Info("session refreshed, retrying rejected call")
	return c.doOnce(ctx, method, body, segments...)
}

// doOnce is a single attempt with no refresh retry. The token refresh
// endpoint itself goes through here so a dead refresh token cannot recurse.
func (c *Client) doOnce(ctx context.Context, method string, body interface{}, segments ...string) ([]byte, error) {
	endpoint, err := c.buildURL(segments...)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request body: %v", apperrors.ErrValidation, err)
		}
	}

	var respBody []byte
	err = c.limiter.Do(ctx, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %s", apperrors.ErrNetwork, logging.SanitizeError(err))
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read response: %v", apperrors.ErrNetwork, err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", apperrors.ErrNotFound, endpoint)
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", apperrors.ErrRateLimited, endpoint)
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", apperrors.ErrAuthExpired, endpoint)
		case resp.StatusCode == http.StatusConflict:
			return fmt.Errorf("%w: %s", apperrors.ErrMigrationConflict, endpoint)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: remote returned %d", apperrors.ErrNetwork, resp.StatusCode)
		case resp.StatusCode >= 400:
			return fmt.Errorf("%w: remote returned %d: %s",
				apperrors.ErrValidation, resp.StatusCode, truncate(string(respBody), 200))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkEnvelope verifies the success flag every remote response carries.
func checkEnvelope(body []byte) error {
	var envelope struct {
		Success *bool           `json:"success"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: malformed response: %v", apperrors.ErrValidation, err)
	}
	if envelope.Success == nil {
		return fmt.Errorf("%w: response missing success flag", apperrors.ErrValidation)
	}
	if !*envelope.Success {
		return fmt.Errorf("%w: remote reported failure: %s",
			apperrors.ErrValidation, truncate(string(envelope.Message), 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
