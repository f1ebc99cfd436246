package entity

import (
	"path"
	"strings"
)

// UploadFile is one file received for upload to object storage.
type UploadFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// Extension returns the lower-cased file extension without the dot,
// defaulting to "jpg".
func (f UploadFile) Extension() string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(f.Name)), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}
