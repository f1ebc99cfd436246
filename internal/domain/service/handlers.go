package service

import "github.com/ruudy-sib/deferq/internal/domain/entity"

// RegisterHandlers binds the marketplace job types to their handlers.
func RegisterHandlers(q *JobQueue, notifier *PublisherNotifier, emailer *BulkEmailer) {
	q.Register(entity.JobTypeNotifyPublishers, notifier.Handle)
	q.Register(entity.JobTypeSendBulkEmail, emailer.Handle)
}
