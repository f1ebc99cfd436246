package secondary

import "context"

// ObjectUploader stores a blob under key and returns its public URL.
type ObjectUploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}
