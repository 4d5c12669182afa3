package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/config"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

// New picks the webhook notifier when a URL is configured and the log
// notifier otherwise.
func New(cfg *config.Config, log *zap.Logger) scheduling.Notifier {
	if strings.TrimSpace(cfg.NotifierWebhookURL) != "" {
		return NewWebhookNotifier(cfg.NotifierWebhookURL, cfg.NotifierWebhookToken)
	}
	return NewLogNotifier(log)
}

// ======================================================
// LOG
// ======================================================

// LogNotifier only writes the reminder to the log. Replies are simulated by
// posting the logged correlation id to the reply webhook.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, r scheduling.Reminder) (string, error) {
	id := uuid.NewString()
	n.log.Info("reminder",
		zap.String("correlation_id", id),
		zap.Uint("booking_id", r.BookingID),
		zap.String("phone", r.ClientPhone),
		zap.String("date", r.Date),
		zap.String("time", r.Time),
	)
	return id, nil
}

// ======================================================
// WEBHOOK
// ======================================================

type WebhookNotifier struct {
	url   string
	token string
	http  *http.Client
}

func NewWebhookNotifier(url, token string) *WebhookNotifier {
	return &WebhookNotifier{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type webhookPayload struct {
	CorrelationID string `json:"correlation_id"`
	To            string `json:"to"`
	Body          string `json:"body"`
	scheduling.Reminder
}

type webhookResponse struct {
	CorrelationID string `json:"correlation_id"`
}

// Notify posts the reminder. The provider may answer with its own
// correlation id; otherwise the one generated here is kept.
func (n *WebhookNotifier) Notify(ctx context.Context, r scheduling.Reminder) (string, error) {
	if n.url == "" {
		return "", fmt.Errorf("notifier webhook url not configured")
	}

	id := uuid.NewString()
	raw, err := json.Marshal(webhookPayload{
		CorrelationID: id,
		To:            r.ClientPhone,
		Body:          Message(r),
		Reminder:      r,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("notifier webhook returned %d", resp.StatusCode)
	}

	var out webhookResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(body) > 0 && json.Unmarshal(body, &out) == nil && out.CorrelationID != "" {
		return out.CorrelationID, nil
	}
	return id, nil
}

// Message is the text sent to the client.
func Message(r scheduling.Reminder) string {
	return fmt.Sprintf(
		"Olá %s! Lembrete do seu horário de %s em %s no dia %s às %s. Responda SIM para confirmar ou NÃO para cancelar.",
		r.ClientName, r.ServiceName, r.CompanyName, r.Date, r.Time,
	)
}
