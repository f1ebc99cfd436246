package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// deadLetterDTO is the Redis-specific representation of a dead letter.
// It translates between domain entities and JSON stored in Redis.
type deadLetterDTO struct {
	JobID       string          `json:"job_id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	DelayMs     int64           `json:"delay_ms"`
	CreatedAt   int64           `json:"created_at"`
	LastError   string          `json:"last_error,omitempty"`
	Reason      string          `json:"reason"`
	FailedAt    int64           `json:"failed_at"`
}

func toDTO(letter entity.DeadLetter) deadLetterDTO {
	return deadLetterDTO{
		JobID:       letter.Job.ID,
		Type:        string(letter.Job.Type),
		Payload:     letter.Job.Payload,
		Attempts:    letter.Job.Attempts,
		MaxAttempts: letter.Job.MaxAttempts,
		DelayMs:     letter.Job.Delay.Milliseconds(),
		CreatedAt:   letter.Job.CreatedAt.UnixMilli(),
		LastError:   letter.Job.LastError,
		Reason:      letter.Reason,
		FailedAt:    letter.FailedAt.UnixMilli(),
	}
}

func toEntity(dto deadLetterDTO) entity.DeadLetter {
	created := time.UnixMilli(dto.CreatedAt)
	delay := time.Duration(dto.DelayMs) * time.Millisecond
	return entity.DeadLetter{
		Job: entity.Job{
			ID:          dto.JobID,
			Type:        entity.JobType(dto.Type),
			Payload:     dto.Payload,
			Attempts:    dto.Attempts,
			MaxAttempts: dto.MaxAttempts,
			Delay:       delay,
			CreatedAt:   created,
			EligibleAt:  created.Add(delay),
			LastError:   dto.LastError,
		},
		Reason:   dto.Reason,
		FailedAt: time.UnixMilli(dto.FailedAt),
	}
}

// DeadLetterStore implements secondary.DeadLetterStore with a Redis hash
// holding the letters and a sorted set indexing them by failure time.
type DeadLetterStore struct {
	client   redis.UniversalClient
	indexKey string
	dataKey  string
	logger   *zap.Logger
}

// NewDeadLetterStore creates a Redis-backed dead-letter store.
func NewDeadLetterStore(client redis.UniversalClient, logger *zap.Logger) secondary.DeadLetterStore {
	return &DeadLetterStore{
		client:   client,
		indexKey: domain.RedisDeadLetterIndexKey,
		dataKey:  domain.RedisDeadLetterDataKey,
		logger:   logger.Named("redis-dead-letters"),
	}
}

// Save writes the letter and its index entry in one transaction.
func (s *DeadLetterStore) Save(ctx context.Context, letter entity.DeadLetter) error {
	data, err := json.Marshal(toDTO(letter))
	if err != nil {
		return fmt.Errorf("marshaling dead letter: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey, letter.Job.ID, data)
		pipe.ZAdd(ctx, s.indexKey, redis.Z{
			Score:  float64(letter.FailedAt.UnixMilli()),
			Member: letter.Job.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving dead letter in redis: %w", err)
	}

	s.logger.Debug("dead letter saved", zap.String("job_id", letter.Job.ID))
	return nil
}

// List returns up to limit letters, most recent failure first.
func (s *DeadLetterStore) List(ctx context.Context, limit int) ([]entity.DeadLetter, error) {
	if limit <= 0 {
		return []entity.DeadLetter{}, nil
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading dead letter index from redis: %w", err)
	}
	if len(ids) == 0 {
		return []entity.DeadLetter{}, nil
	}

	values, err := s.client.HMGet(ctx, s.dataKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading dead letters from redis: %w", err)
	}

	letters := make([]entity.DeadLetter, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn("dead letter index entry without data", zap.String("job_id", ids[i]))
			continue
		}

		var dto deadLetterDTO
		if err := json.Unmarshal([]byte(raw), &dto); err != nil {
			s.logger.Warn("invalid dead letter data in redis",
				zap.Error(err),
				zap.String("job_id", ids[i]),
			)
			continue
		}
		letters = append(letters, toEntity(dto))
	}

	return letters, nil
}

// Get returns a single letter or domain.ErrJobNotFound.
func (s *DeadLetterStore) Get(ctx context.Context, jobID string) (entity.DeadLetter, error) {
	raw, err := s.client.HGet(ctx, s.dataKey, jobID).Result()
	if errors.Is(err, redis.Nil) {
		return entity.DeadLetter{}, domain.ErrJobNotFound
	}
	if err != nil {
		return entity.DeadLetter{}, fmt.Errorf("reading dead letter from redis: %w", err)
	}

	var dto deadLetterDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return entity.DeadLetter{}, fmt.Errorf("decoding dead letter %s: %w", jobID, err)
	}
	return toEntity(dto), nil
}
