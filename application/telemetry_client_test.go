package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTelemetry(t *testing.T) {
	reading, err := ParseTelemetry([]byte(`{"channel":{"id":2788742},"feeds":[{"created_at":"2024-12-01T10:00:00Z","entry_id":7,"field1":"57"},{"field1":"12"}]}`))
	require.NoError(t, err)
	require.True(t, reading.HasValue())
	assert.Equal(t, "57", *reading.Value)
}

func TestParseTelemetry_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{name: "empty feeds", body: `{"feeds":[]}`, err: ErrNoFeedEntries},
		{name: "null feeds", body: `{"feeds":null}`, err: ErrNoFeedEntries},
		{name: "missing feeds", body: `{"channel":{}}`, err: ErrNoFeedEntries},
		{name: "null field1", body: `{"feeds":[{"field1":null}]}`, err: ErrMissingHumidity},
		{name: "missing field1", body: `{"feeds":[{"entry_id":1}]}`, err: ErrMissingHumidity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := ParseTelemetry([]byte(tt.body))
			require.ErrorIs(t, err, tt.err)
			assert.False(t, reading.HasValue())
		})
	}
}

func TestDecodeReading_Malformed(t *testing.T) {
	bodies := []string{
		``,
		`not json`,
		`{"feeds":`,
		`{"feeds":{}}`,
		`{"feeds":"57"}`,
		`{"feeds":[{"field1":57}]}`,
		`[]`,
		`null`,
	}

	for _, body := range bodies {
		assert.NotPanics(t, func() {
			reading := DecodeReading([]byte(body))
			assert.False(t, reading.HasValue(), "body %q", body)
		})
	}
}

func TestDecodeReading_Idempotent(t *testing.T) {
	body := []byte(`{"feeds":[{"field1":"57"}]}`)

	first := DecodeReading(body)
	second := DecodeReading(body)

	require.True(t, first.HasValue())
	require.True(t, second.HasValue())
	assert.Equal(t, *first.Value, *second.Value)
	assert.Equal(t, "Humidity: 57%", HumidityMessage(*first.Value))
}

func TestDecodeReading_IgnoresOtherKeys(t *testing.T) {
	bodies := []string{
		`{"feeds":[{"entry_id":"7","created_at":null,"field1":"57"}]}`,
		`{"channel":"x","feeds":[{"entry_id":{"n":7},"created_at":1733047200,"field2":true,"field1":"57"}]}`,
	}

	for _, body := range bodies {
		reading := DecodeReading([]byte(body))
		if assert.True(t, reading.HasValue(), "body %q", body) {
			assert.Equal(t, "57", *reading.Value)
		}
	}
}
