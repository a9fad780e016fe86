package models

import "time"

// UploadRecord is the local trace of a file this client sent.
type UploadRecord struct {
	FileID     string
	FileName   string
	SharedWith []string
	Owner      string
	Size       int64
	Digest     []byte
	UploadedAt time.Time
}
