package models

import "time"

type Blob struct {
	ID           string
	Kind         string
	StoragePath  string
	MimeType     string
	SizeBytes    int64
	OriginalName string
	CreatedAt    time.Time
}
