// Package client talks to a resumeforge server. It implements the workflow
// collaborators so the CLI can drive a session against a remote instance.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout  = 2 * time.Minute
	defaultRetryMax = 2
	maxErrorBody    = 64 * 1024
)

// Client calls the resumeforge HTTP API
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *retryablehttp.Client
	logger  *resumeforgeErrors.Logger
}

// New creates a client for cfg.BaseURL
func New(cfg config.ClientConfig, logger *resumeforgeErrors.Logger) (*Client, error) {
	if logger == nil {
		logger = resumeforgeErrors.NewNopLogger()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
			"client base URL is required", nil)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
			"client base URL must be absolute", err).WithContext("base_url", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = defaultRetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = logger
	rc.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &Client{baseURL: base, apiKey: cfg.APIKey, http: rc, logger: logger}, nil
}

// retryPolicy retries transport failures and gateway errors only. AI
// failures come back as 500 and are not worth repeating.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// do posts body to path and decodes a 2xx response into out
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return resumeforgeErrors.NewInternalError(resumeforgeErrors.ErrCodeInvalidRequest,
				"failed to encode request", err)
		}
	}

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return resumeforgeErrors.NewInternalError(resumeforgeErrors.ErrCodeInvalidRequest,
			"failed to build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return resumeforgeErrors.NewNetworkError(resumeforgeErrors.ErrCodeNetworkTimeout,
			"request to resumeforge server failed", err).WithContext("endpoint", path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resumeforgeErrors.NewNetworkError(resumeforgeErrors.ErrCodeInvalidFormat,
			"unreadable response from resumeforge server", err).WithContext("endpoint", path)
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeError turns a non-2xx response into an AppError carrying the
// server's user-facing message
func decodeError(resp *http.Response, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorBody
	message := ""
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		message = body.Error
	} else {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = fmt.Sprintf("server returned %s", resp.Status)
	}

	var appErr *resumeforgeErrors.AppError
	switch resp.StatusCode {
	case http.StatusBadRequest:
		appErr = resumeforgeErrors.NewValidationError(resumeforgeErrors.ErrCodeInvalidRequest, message, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		appErr = resumeforgeErrors.NewAuthError(resumeforgeErrors.ErrCodeUnauthorized, message, nil)
	case http.StatusNotFound:
		appErr = resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeNotFound, message, nil)
	case http.StatusConflict:
		appErr = resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeConflict, message, nil)
	default:
		appErr = resumeforgeErrors.NewNetworkError(resumeforgeErrors.ErrCodeRemoteFailed, message, nil)
	}
	appErr = appErr.WithContext("status", resp.StatusCode).WithContext("endpoint", path)
	if body.Message != "" {
		appErr = appErr.WithContext("detail", body.Message)
	}
	return appErr
}
