package domain

import "time"

const (
	// DefaultMaxAttempts is the number of times a job is executed before it is dead-lettered.
	DefaultMaxAttempts = 3

	// DefaultDispatchPause is the pause after each job dispatch.
	DefaultDispatchPause = 100 * time.Millisecond

	// DefaultRetryBaseDelay is the base of the exponential retry backoff.
	DefaultRetryBaseDelay = 1 * time.Second

	// DefaultRetryMaxDelay caps the retry backoff.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultMaxConcurrentUploads is the number of concurrency slots for uploads.
	DefaultMaxConcurrentUploads = 3

	// DefaultStatsInterval is the interval between worker stats reports.
	DefaultStatsInterval = 30 * time.Second

	// DefaultNotificationBatchSize is the number of publishers notified per batch.
	DefaultNotificationBatchSize = 50

	// DefaultNotificationBatchDelay is the pause between publisher notification batches.
	DefaultNotificationBatchDelay = 2 * time.Second

	// DefaultEmailBatchSize is the number of recipients per mail API call.
	DefaultEmailBatchSize = 50

	// DefaultUploadFolder is the object key prefix when none is given.
	DefaultUploadFolder = "products"

	// RedisDeadLetterIndexKey is the sorted set indexing dead-lettered jobs by failure time.
	RedisDeadLetterIndexKey = "deadletter:index"

	// RedisDeadLetterDataKey is the hash holding dead-lettered job records by ID.
	RedisDeadLetterDataKey = "deadletter:jobs"

	// RedisCampaignPublishersKeyFmt is the hash of publisher ID -> webhook URL for a campaign.
	RedisCampaignPublishersKeyFmt = "campaign:%s:publishers"
)
