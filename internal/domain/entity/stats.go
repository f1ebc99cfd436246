package entity

// QueueStats is a point-in-time view of the job queue.
type QueueStats struct {
	Length     int
	Processing bool
	Paused     bool
}

// UploadStatus is a point-in-time view of the upload coordinator.
type UploadStatus struct {
	Active        int
	MaxConcurrent int
	Queued        int
}
