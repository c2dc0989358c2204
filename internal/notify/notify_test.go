package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWebhookPostsText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Notify(context.Background(), Message{Title: "Novo mentor", Text: "Mentor 1 aguarda aprovação"})
	require.NoError(t, err)
	require.Equal(t, ":information_source: *Novo mentor*\nMentor 1 aguarda aprovação", got["text"])
}

func TestWebhookFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	require.Error(t, NewWebhook(srv.URL).Notify(context.Background(), Message{Text: "x"}))

	var off *Webhook = NewWebhook("")
	require.Nil(t, off)
	require.ErrorIs(t, off.Notify(context.Background(), Message{Text: "x"}), ErrNotConfigured)
}

func TestFormatSeverity(t *testing.T) {
	require.Equal(t, ":warning: lento", Format(Message{Text: "lento", Severity: "warning"}))
	require.Equal(t, ":rotating_light: *fora*\nsem resposta", Format(Message{Title: "fora", Text: "sem resposta", Severity: "critical"}))
}
