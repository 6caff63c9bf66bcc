package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/orchestration"
)

func TestNotify_PostsRenderedPayload(t *testing.T) {
	var received []byte
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc, err := NewService(nil, server.URL, false)
	require.NoError(t, err)

	err = svc.Notify(orchestration.StageEvent{
		RunID:     "run-123",
		Stage:     "clean",
		Status:    "completed",
		Processed: 97,
		Excluded:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)

	var payload struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(received, &payload))
	assert.Contains(t, payload.Text, "run-123")
	assert.Contains(t, payload.Text, "clean")
	assert.Contains(t, payload.Text, "97 processed, 3 excluded")
}

func TestNotify_FailedStageIncludesError(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc, err := NewService(nil, server.URL, false)
	require.NoError(t, err)

	err = svc.Notify(orchestration.StageEvent{
		RunID:  "run-456",
		Stage:  "train",
		Status: "failed",
		Error:  "AlgorithmError: bad data",
	})
	require.NoError(t, err)
	assert.Contains(t, string(received), "AlgorithmError")
}

func TestNotify_OnlyFailedDropsCompletedEvents(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc, err := NewService(nil, server.URL, true)
	require.NoError(t, err)

	require.NoError(t, svc.Notify(orchestration.StageEvent{Stage: "clean", Status: "completed"}))
	assert.Equal(t, 0, calls)

	require.NoError(t, svc.Notify(orchestration.StageEvent{Stage: "train", Status: "failed"}))
	assert.Equal(t, 1, calls)
}

func TestNotify_WebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, err := NewService(nil, server.URL, false)
	require.NoError(t, err)

	err = svc.Notify(orchestration.StageEvent{Stage: "deploy", Status: "completed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned status 500")
}

func TestNotify_NoURLConfigured(t *testing.T) {
	svc, err := NewService(nil, "", false)
	require.NoError(t, err)
	assert.NoError(t, svc.Notify(orchestration.StageEvent{Stage: "clean", Status: "completed"}))
}

func TestHandleMessage_MalformedEvent(t *testing.T) {
	svc, err := NewService(nil, "", false)
	require.NoError(t, err)

	err = svc.handleMessage([]byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestHandleMessage_DeliveryFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc, err := NewService(nil, server.URL, false)
	require.NoError(t, err)

	data, _ := json.Marshal(orchestration.StageEvent{Stage: "load", Status: "completed"})
	// A webhook failure is logged, not returned, so the message still acks.
	assert.NoError(t, svc.handleMessage(data))
}
