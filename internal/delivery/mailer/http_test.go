package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"irgate/internal/platform/config"
	"irgate/pkg/platform/sentinel"
)

func testConfig(url string) config.MailConfig {
	return config.MailConfig{
		APIURL:      url,
		APIKey:      "mail-key",
		FromAddress: "ir@example.com",
		FromName:    "Investor Relations",
		Timeout:     2 * time.Second,
	}
}

func TestHTTPMailerSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer mail-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var msg Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		require.Equal(t, "ir@example.com", msg.From)
		require.Equal(t, "ada@example.com", msg.To)
		require.NotEmpty(t, msg.HTML)
		require.NotEmpty(t, msg.Text)

		_ = json.NewEncoder(w).Encode(Result{MessageID: "msg-123"})
	}))
	defer server.Close()

	result, err := NewHTTPMailer(testConfig(server.URL)).Send(context.Background(), Message{
		To:      "ada@example.com",
		Subject: "hello",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	})
	require.NoError(t, err)
	require.Equal(t, "msg-123", result.MessageID)
}

func TestHTTPMailerAssignsMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	result, err := NewHTTPMailer(testConfig(server.URL)).Send(context.Background(), Message{To: "a@b.c"})
	require.NoError(t, err)
	require.NotEmpty(t, result.MessageID)
}

func TestHTTPMailerProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid recipient", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewHTTPMailer(testConfig(server.URL)).Send(context.Background(), Message{To: "a@b.c"})
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	require.ErrorContains(t, err, "invalid recipient")
}
