package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// SendBulkEmailPayload is the payload of a send-bulk-email job.
type SendBulkEmailPayload struct {
	Emails    []string `json:"emails"`
	Subject   string   `json:"subject"`
	HTML      string   `json:"html"`
	BatchSize int      `json:"batch_size,omitempty"`
}

// BulkEmailer handles send-bulk-email jobs.
type BulkEmailer struct {
	sender secondary.EmailSender
	logger *zap.Logger
}

// NewBulkEmailer creates a BulkEmailer.
func NewBulkEmailer(sender secondary.EmailSender, logger *zap.Logger) *BulkEmailer {
	return &BulkEmailer{
		sender: sender,
		logger: logger.Named("bulk-emailer"),
	}
}

// Handle implements HandlerFunc. Recipients are trimmed, de-duplicated and
// sent in batches; the first failing batch fails the job.
func (b *BulkEmailer) Handle(ctx context.Context, payload json.RawMessage) error {
	var p SendBulkEmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	recipients := uniqueRecipients(p.Emails)
	if len(recipients) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", domain.ErrInvalidPayload)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: subject is required", domain.ErrInvalidPayload)
	}

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultEmailBatchSize
	}
	batchSize = min(batchSize, len(recipients))
	batches := (len(recipients) + batchSize - 1) / batchSize

	for i, start := 0, 0; start < len(recipients); i, start = i+1, start+batchSize {
		batch := entity.EmailBatch{
			Recipients: recipients[start:min(start+batchSize, len(recipients))],
			Subject:    p.Subject,
			HTML:       p.HTML,
		}
		if err := b.sender.Send(ctx, batch); err != nil {
			return fmt.Errorf("sending batch %d/%d: %w", i+1, batches, err)
		}
	}

	b.logger.Info("bulk email sent",
		zap.Int("recipients", len(recipients)),
		zap.Int("batches", batches),
	)
	return nil
}

func uniqueRecipients(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		k := strings.ToLower(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}
