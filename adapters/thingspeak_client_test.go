package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedBody = `{"channel":{"id":2788742},"feeds":[{"created_at":"2024-12-01T10:00:00Z","entry_id":12,"field1":"57"}]}`

func TestNewThingSpeakClient_NoURL(t *testing.T) {
	client, err := NewThingSpeakClient(ThingSpeakClientParams{})
	require.Error(t, err)
	require.Nil(t, client)
}

func TestThingSpeakClient_FetchFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/channels/2788742/feeds.json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("results"))
		_, _ = w.Write([]byte(testFeedBody))
	}))
	defer srv.Close()

	client, err := NewThingSpeakClient(ThingSpeakClientParams{
		FeedURL: srv.URL + "/channels/2788742/feeds.json?results=1",
	})
	require.NoError(t, err)

	body, err := client.FetchFeed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testFeedBody, string(body))
}

func TestThingSpeakClient_FetchFeed_NonSuccessStillReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("-1"))
	}))
	defer srv.Close()

	client, err := NewThingSpeakClient(ThingSpeakClientParams{FeedURL: srv.URL})
	require.NoError(t, err)

	body, err := client.FetchFeed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-1", string(body))
}

func TestThingSpeakClient_FetchFeed_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewThingSpeakClient(ThingSpeakClientParams{FeedURL: srv.URL})
	require.NoError(t, err)

	body, err := client.FetchFeed(context.Background())
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestThingSpeakClient_FetchFeed_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewThingSpeakClient(ThingSpeakClientParams{FeedURL: url})
	require.NoError(t, err)

	body, err := client.FetchFeed(context.Background())
	require.Error(t, err)
	assert.Nil(t, body)
}

func TestThingSpeakClient_FetchFeed_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewThingSpeakClient(ThingSpeakClientParams{
		FeedURL:    srv.URL,
		HTTPClient: NewHTTPClient(50 * time.Millisecond),
	})
	require.NoError(t, err)

	_, err = client.FetchFeed(context.Background())
	require.Error(t, err)
}

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	assert.Equal(t, HTTPDefaultRequestTimeout, NewHTTPClient(0).Timeout)
	assert.Equal(t, 3*time.Second, NewHTTPClient(3*time.Second).Timeout)
}
