package controlapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

const defaultRequestTimeout = 30 * time.Second

// Client talks to the worker control API. It never retries: every call maps
// to exactly one HTTP request.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	UserAgent      string
	Logger         *zap.Logger
}

func New(baseURL string, requestTimeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:        baseURL,
		RequestTimeout: requestTimeout,
		Logger:         logger.Named("controlapi"),
	}
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

// do performs one request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req call, out any) error {
	endpoint, err := buildAPIURL(c.BaseURL, req.path, req.query)
	if err != nil {
		return fmt.Errorf("%s: %w", req.op, err)
	}

	var body io.Reader
	if req.body != nil {
		payload, err := sonic.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", req.op, err)
		}
		body = bytes.NewReader(payload)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	started := time.Now()
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		c.logger().Debug("request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err),
		)
		return &domain.NetworkError{Op: req.op, Err: unwrapURLError(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger().Debug("request completed",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &domain.NetworkError{Op: req.op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &domain.HTTPError{Op: req.op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return &domain.DecodeError{Op: req.op, Err: err}
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

// unwrapURLError keeps context errors reachable through errors.Is while
// dropping the method and URL noise that *url.Error adds to the message.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

func buildAPIURL(baseURL string, path string, query url.Values) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	endpoint, err := parsed.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}

func segment(id string) string {
	return url.PathEscape(id)
}
