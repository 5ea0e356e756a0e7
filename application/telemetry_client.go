package application

import (
	"context"
	"encoding/json"
	"fmt"
)

var (
	ErrNoFeedEntries   = fmt.Errorf("telemetry response has no feed entries")
	ErrMissingHumidity = fmt.Errorf("latest feed entry has no field1")
)

// FeedEntry keeps only field1. Other keys of a ThingSpeak entry vary in type
// between channels and are ignored.
type FeedEntry struct {
	Field1 *string `json:"field1"`
}

type TelemetryResponse struct {
	Feeds []FeedEntry `json:"feeds"`
}

// Reading is the humidity value of the most recent feed entry. Value is nil
// when the response carried no usable entry.
type Reading struct {
	Value *string
}

func (r Reading) HasValue() bool {
	return r.Value != nil
}

type TelemetryClient interface {
	// FetchFeed returns the raw body of the telemetry endpoint. An error is
	// returned only for transport failures.
	FetchFeed(ctx context.Context) ([]byte, error)
}

// ParseTelemetry decodes body and extracts field1 of the first feed entry.
func ParseTelemetry(body []byte) (Reading, error) {
	var resp TelemetryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Reading{}, fmt.Errorf("decode telemetry: %w", err)
	}

	if len(resp.Feeds) == 0 {
		return Reading{}, ErrNoFeedEntries
	}

	value := resp.Feeds[0].Field1
	if value == nil {
		return Reading{}, ErrMissingHumidity
	}

	v := *value
	return Reading{Value: &v}, nil
}

// DecodeReading is ParseTelemetry with the error dropped.
func DecodeReading(body []byte) Reading {
	reading, err := ParseTelemetry(body)
	if err != nil {
		return Reading{}
	}
	return reading
}
