package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/config"
	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

const maxErrorBody = 512

// sendRequest is the JSON body accepted by the transactional mail API.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Client implements secondary.EmailSender against an HTTP mail API.
type Client struct {
	url    string
	apiKey string
	from   string
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a mail API client from the application configuration.
func NewClient(cfg *config.Config, logger *zap.Logger) secondary.EmailSender {
	return &Client{
		url:    cfg.MailAPIURL,
		apiKey: cfg.MailAPIKey,
		from:   cfg.MailFrom,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.Named("mailer"),
	}
}

// Send posts one batch. Any non-2xx response is an error.
func (c *Client) Send(ctx context.Context, batch entity.EmailBatch) error {
	if c.url == "" {
		return fmt.Errorf("%w: mail api url is not configured", domain.ErrDeliveryFailed)
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      batch.Recipients,
		Subject: batch.Subject,
		HTML:    batch.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshaling mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling mail api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: mail api returned status %d: %s", domain.ErrDeliveryFailed, resp.StatusCode, string(msg))
	}

	c.logger.Debug("email batch sent", zap.Int("recipients", len(batch.Recipients)))
	return nil
}
