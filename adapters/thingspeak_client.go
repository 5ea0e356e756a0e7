package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"regadera/application"

	"github.com/rs/zerolog"
)

const HTTPDefaultRequestTimeout = 10 * time.Second

// NewHTTPClient returns the client shared by the telemetry and pump adapters.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = HTTPDefaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

type ThingSpeakClientParams struct {
	FeedURL    string
	HTTPClient *http.Client

	Log zerolog.Logger
}

type ThingSpeakClient struct {
	feedURL string
	client  *http.Client

	log zerolog.Logger
}

func NewThingSpeakClient(params ThingSpeakClientParams) (*ThingSpeakClient, error) {
	if params.FeedURL == "" {
		return nil, fmt.Errorf("feed url is required")
	}

	if params.HTTPClient == nil {
		params.HTTPClient = NewHTTPClient(HTTPDefaultRequestTimeout)
	}

	return &ThingSpeakClient{feedURL: params.FeedURL, client: params.HTTPClient, log: params.Log}, nil
}

// FetchFeed returns the body even for non-2xx responses; the poller decides
// what to make of it.
func (t *ThingSpeakClient) FetchFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.log.Warn().Int("status", resp.StatusCode).Msg("unexpected telemetry status")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read telemetry body: %w", err)
	}

	return body, nil
}

var _ application.TelemetryClient = &ThingSpeakClient{}
