package httpproducer

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/config"
	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// Webhook request headers. Receivers verify a delivery by recomputing
// HMAC-SHA256(secret, timestamp + "." + body) and comparing it with the
// signature header.
const (
	HeaderMessageKey = "X-Message-Key"
	HeaderTimestamp  = "X-Deferq-Timestamp"
	HeaderSignature  = "X-Deferq-Signature"

	userAgent    = "deferq-webhooks/1.0"
	maxErrorBody = 512
)

// Producer implements secondary.MessageProducer by POSTing notifications to
// publisher webhook URLs.
type Producer struct {
	client *http.Client
	secret []byte
	now    func() time.Time
	logger *zap.Logger
}

// NewProducer creates a webhook producer. Bodies are signed when
// cfg.WebhookSecret is set.
func NewProducer(cfg *config.Config, logger *zap.Logger) secondary.MessageProducer {
	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Producer{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		secret: []byte(cfg.WebhookSecret),
		now:    time.Now,
		logger: logger.Named("webhook-producer"),
	}
}

// Produce POSTs value to destination.URL. Any non-2xx answer fails the
// delivery so the notify job is retried.
func (p *Producer) Produce(ctx context.Context, destination entity.Destination, key, value []byte) error {
	if destination.URL == "" {
		return fmt.Errorf("%w: webhook url is required", domain.ErrDeliveryFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination.URL, bytes.NewReader(value))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}

	timestamp := strconv.FormatInt(p.now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderMessageKey, string(key))
	req.Header.Set(HeaderTimestamp, timestamp)
	if len(p.secret) > 0 {
		req.Header.Set(HeaderSignature, "sha256="+Sign(p.secret, timestamp, value))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: posting to %q: %v", domain.ErrDeliveryFailed, destination.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: webhook answered %d: %s", domain.ErrDeliveryFailed, resp.StatusCode, string(body))
	}

	p.logger.Debug("webhook delivered",
		zap.String("url", destination.URL),
		zap.ByteString("key", key),
		zap.Int("status_code", resp.StatusCode),
	)
	return nil
}

// Close releases idle connections.
func (p *Producer) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Sign returns the hex HMAC-SHA256 of timestamp + "." + body.
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
