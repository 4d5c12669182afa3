package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/config"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

var reminder = scheduling.Reminder{
	BookingID:   9,
	CompanyName: "Studio",
	ClientName:  "Clara",
	ClientPhone: "11999990000",
	ServiceName: "Corte",
	Date:        "2026-03-09",
	Time:        "10:00",
}

func TestWebhookNotifierPostsReminder(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	id, err := NewWebhookNotifier(srv.URL, "tok").Notify(context.Background(), reminder)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if auth != "Bearer tok" {
		t.Fatalf("authorization = %q", auth)
	}
	if got["to"] != "11999990000" || got["booking_id"] != float64(9) {
		t.Fatalf("payload = %v", got)
	}
	if id == "" || got["correlation_id"] != id {
		t.Fatalf("correlation id %q not the one sent (%v)", id, got["correlation_id"])
	}
	if !strings.Contains(got["body"].(string), "10:00") {
		t.Fatalf("body = %v", got["body"])
	}
}

func TestWebhookNotifierKeepsProviderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"correlation_id":"prov-123"}`))
	}))
	defer srv.Close()

	id, err := NewWebhookNotifier(srv.URL, "").Notify(context.Background(), reminder)
	if err != nil {
		t.Fatal(err)
	}
	if id != "prov-123" {
		t.Fatalf("id = %q", id)
	}
}

func TestWebhookNotifierRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewWebhookNotifier(srv.URL, "").Notify(context.Background(), reminder); err == nil {
		t.Fatal("expected error on 502")
	}
	if _, err := NewWebhookNotifier("", "").Notify(context.Background(), reminder); err == nil {
		t.Fatal("expected error without url")
	}
}

func TestNewPicksNotifier(t *testing.T) {
	log := zap.NewNop()
	if _, ok := New(&config.Config{}, log).(*LogNotifier); !ok {
		t.Fatal("expected log notifier without url")
	}
	if _, ok := New(&config.Config{NotifierWebhookURL: "http://x"}, log).(*WebhookNotifier); !ok {
		t.Fatal("expected webhook notifier with url")
	}

	id, err := NewLogNotifier(log).Notify(context.Background(), reminder)
	if err != nil || id == "" {
		t.Fatalf("log notifier: %q, %v", id, err)
	}
}
