package adapters

import (
	"context"
	"io"
	"net/http"

	"regadera/application"

	"github.com/rs/zerolog"
)

type HTTPPumpClientParams struct {
	HTTPClient *http.Client

	Log zerolog.Logger
}

type HTTPPumpClient struct {
	client *http.Client

	log zerolog.Logger
}

func NewHTTPPumpClient(params HTTPPumpClientParams) *HTTPPumpClient {
	if params.HTTPClient == nil {
		params.HTTPClient = NewHTTPClient(HTTPDefaultRequestTimeout)
	}

	return &HTTPPumpClient{client: params.HTTPClient, log: params.Log}
}

func (p *HTTPPumpClient) Send(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	p.log.Debug().Int("status", resp.StatusCode).Msg("pump command response")
	return resp.StatusCode, nil
}

var _ application.PumpClient = &HTTPPumpClient{}
