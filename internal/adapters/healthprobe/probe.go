package healthprobe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

const maxStatusBytes = 64 << 10

// StatusProbe asks the external status service whether the remote runtime is
// alive. Any non-2xx answer or unreadable payload is reported as an error.
type StatusProbe struct {
	URL        string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type statusPayload struct {
	ColabAlive bool `json:"colab_alive"`
}

func (p StatusProbe) Probe(ctx context.Context) (bool, error) {
	if p.URL == "" {
		return false, errors.New("status url is required")
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return false, fmt.Errorf("create status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return false, fmt.Errorf("request status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return false, fmt.Errorf("request status: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBytes))
	if err != nil {
		return false, fmt.Errorf("read status response: %w", err)
	}

	var payload statusPayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return false, fmt.Errorf("decode status response: %w", err)
	}
	return payload.ColabAlive, nil
}

func (p StatusProbe) httpClient() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}
