package outbox

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSink_Publish(t *testing.T) {
	var gotEventType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEventType = r.Header.Get("X-Event-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL)

	err := sink.Publish(context.Background(), "transaction.processed", []byte(`{"amount":100}`))

	require.NoError(t, err)
	assert.Equal(t, "transaction.processed", gotEventType)
	assert.JSONEq(t, `{"amount":100}`, string(gotBody))
}

func TestWebhookSink_Publish_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL)

	err := sink.Publish(context.Background(), "transaction.processed", []byte(`{}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestLoggingSink_Publish(t *testing.T) {
	sink := NewLoggingSink(testLogger())
	assert.NoError(t, sink.Publish(context.Background(), "transaction.processed", []byte(`{}`)))
}
