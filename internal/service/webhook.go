package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store"
)

// Dispatcher delivers one signed payload to one URL, retrying
// internally. Implementations must be safe for concurrent use.
type Dispatcher interface {
	Dispatch(ctx context.Context, url string, payload []byte, secret string) error
}

// WebhookService manages webhook registrations and fans out event
// notifications on background goroutines. Deliveries are decoupled
// from the request that caused them: NotifyAsync returns immediately
// and the dispatch outlives the caller's context.
type WebhookService struct {
	webhooks   store.WebhookStore
	accounts   store.AccountStore
	dispatcher Dispatcher
	log        *zap.Logger

	wg sync.WaitGroup
}

func NewWebhookService(webhooks store.WebhookStore, accounts store.AccountStore, dispatcher Dispatcher, log *zap.Logger) *WebhookService {
	return &WebhookService{
		webhooks:   webhooks,
		accounts:   accounts,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Register creates a webhook subscription for accountID.
func (s *WebhookService) Register(ctx context.Context, accountID uuid.UUID, req CreateWebhookRequest) (WebhookResponse, error) {
	event, err := domain.ParseWebhookEvent(req.Event)
	if err != nil {
		return WebhookResponse{}, err
	}
	webhook, err := domain.NewWebhook(accountID, req.URL, event)
	if err != nil {
		return WebhookResponse{}, err
	}
	created, err := s.webhooks.Create(ctx, webhook)
	if err != nil {
		return WebhookResponse{}, err
	}
	return NewWebhookResponse(created), nil
}

// List returns all webhooks registered by accountID.
func (s *WebhookService) List(ctx context.Context, accountID uuid.UUID) ([]WebhookResponse, error) {
	webhooks, err := s.webhooks.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	responses := make([]WebhookResponse, 0, len(webhooks))
	for _, webhook := range webhooks {
		responses = append(responses, NewWebhookResponse(webhook))
	}
	return responses, nil
}

// Delete removes a webhook registration by id.
func (s *WebhookService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.webhooks.Delete(ctx, id)
}

// NotifyAsync schedules delivery of payload to every webhook of
// accountID subscribed to event. Failures are logged, never returned:
// webhook problems must not fail the mutation that triggered them.
func (s *WebhookService) NotifyAsync(accountID uuid.UUID, event domain.WebhookEvent, payload any) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Detached from the request context on purpose: delivery
		// continues after the HTTP response is written.
		s.notify(context.Background(), accountID, event, payload)
	}()
}

func (s *WebhookService) notify(ctx context.Context, accountID uuid.UUID, event domain.WebhookEvent, payload any) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		s.log.Error("webhook notify: account lookup failed",
			zap.String("account_id", accountID.String()), zap.Error(err))
		return
	}

	webhooks, err := s.webhooks.ListByAccount(ctx, accountID)
	if err != nil {
		s.log.Error("webhook notify: listing webhooks failed",
			zap.String("account_id", accountID.String()), zap.Error(err))
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("webhook notify: payload marshal failed", zap.Error(err))
		return
	}

	for _, webhook := range webhooks {
		if webhook.Event != event {
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, webhook.URL, body, account.WebhookSecret); err != nil {
			s.log.Error("webhook dispatch failed",
				zap.String("webhook_id", webhook.ID.String()),
				zap.String("url", webhook.URL),
				zap.Error(err))
		}
	}
}

// Close waits up to timeout for in-flight deliveries, then abandons
// them. Used on graceful shutdown.
func (s *WebhookService) Close(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		s.log.Warn("shutdown: abandoning in-flight webhook deliveries")
		return false
	}
}
