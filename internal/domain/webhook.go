package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the kind of event a webhook subscribes to. The
// string values are stable wire contract.
type WebhookEvent string

const (
	EventTransactionCompleted WebhookEvent = "transaction.completed"
	EventAccountCreated       WebhookEvent = "account.created"
)

// ParseWebhookEvent converts a wire string to a WebhookEvent.
func ParseWebhookEvent(s string) (WebhookEvent, error) {
	switch s {
	case string(EventTransactionCompleted):
		return EventTransactionCompleted, nil
	case string(EventAccountCreated):
		return EventAccountCreated, nil
	default:
		return "", &InvalidWebhookEventError{Value: s}
	}
}

func (e WebhookEvent) String() string {
	return string(e)
}

// Webhook registers one URL for one event kind on behalf of an
// account. An account may hold any number of webhooks.
type Webhook struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	URL       string
	Event     WebhookEvent
	CreatedAt time.Time
}

// NewWebhook validates the URL and event and assigns a fresh id.
func NewWebhook(accountID uuid.UUID, url string, event WebhookEvent) (*Webhook, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, &InvalidWebhookURLError{URL: url}
	}
	if _, err := ParseWebhookEvent(string(event)); err != nil {
		return nil, err
	}
	return &Webhook{
		ID:        uuid.New(),
		AccountID: accountID,
		URL:       url,
		Event:     event,
		CreatedAt: time.Now().UTC(),
	}, nil
}
