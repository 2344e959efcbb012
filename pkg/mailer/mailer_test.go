package mailer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/suteetoe/perftrack/pkg/config"
	"go.uber.org/zap"
)

func TestSendPostsTemplateMessage(t *testing.T) {
	var received Message
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/send" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(&config.MailConfig{
		BaseURL: server.URL,
		APIKey:  "mail-key",
		Sender:  "noreply@perftrack.local",
		Timeout: 5 * time.Second,
	}, zap.NewNop())

	err := client.Send(Message{
		To:       "user@example.com",
		Template: "password-reset",
		Data:     map[string]interface{}{"token": "abc"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received.To != "user@example.com" || received.Template != "password-reset" {
		t.Fatalf("unexpected message %+v", received)
	}
	if received.From != "noreply@perftrack.local" {
		t.Fatalf("expected default sender, got %q", received.From)
	}
	if gotAuth != "Bearer mail-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestSendSurfacesProviderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template not found", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(&config.MailConfig{BaseURL: server.URL, Timeout: 5 * time.Second}, zap.NewNop())

	if err := client.Send(Message{To: "user@example.com", Template: "missing"}); err == nil {
		t.Fatalf("expected error from provider failure")
	}
}
