// Package dispatch delivers signed webhook payloads over HTTP with
// bounded exponential-backoff retry. Delivery is at-least-once: a
// receiver that answered 2xx on an attempt the dispatcher saw fail
// will be called again, and must deduplicate on the payload's
// transaction id.
package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body,
// prefixed with the algorithm tag.
const SignatureHeader = "X-Dodo-Signature"

const requestTimeout = 10 * time.Second

// HTTPDispatcher posts JSON payloads and retries on transport errors
// and non-2xx statuses.
type HTTPDispatcher struct {
	client         *http.Client
	maxRetries     int
	initialBackoff time.Duration
	log            *zap.Logger
}

// NewHTTPDispatcher builds a dispatcher allowing maxRetries additional
// attempts after the first, with exponential backoff starting at
// initialBackoff.
func NewHTTPDispatcher(maxRetries int, initialBackoff time.Duration, log *zap.Logger) *HTTPDispatcher {
	return &HTTPDispatcher{
		client:         &http.Client{Timeout: requestTimeout},
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
		log:            log,
	}
}

// Sign computes the signature for body under secret: lowercase hex of
// HMAC-SHA256. Receivers recompute it over the raw body to validate.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Dispatch posts payload to url, signing it with secret. It returns
// nil on the first 2xx response and an error once retries are
// exhausted or ctx is done.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, url string, payload []byte, secret string) error {
	signature := Sign(secret, payload)

	backoff := d.initialBackoff
	for attempt := 1; ; attempt++ {
		err := d.post(ctx, url, payload, signature)
		if err == nil {
			return nil
		}
		d.log.Warn("webhook dispatch attempt failed",
			zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))

		if attempt > d.maxRetries {
			return fmt.Errorf("webhook dispatch to %s failed after %d attempts: %w", url, attempt, err)
		}

		// Jitter of 0-99ms spreads retries from concurrent deliveries.
		sleep := backoff + time.Duration(rand.Intn(100))*time.Millisecond
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
}

func (d *HTTPDispatcher) post(ctx context.Context, url string, payload []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "sha256="+signature)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
