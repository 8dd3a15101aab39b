package models

import (
	"time"

	"github.com/google/uuid"
)

type UploadState string

const (
	UploadStatePending  UploadState = "pending"
	UploadStateInFlight UploadState = "in_flight"
	UploadStateUploaded UploadState = "uploaded"
	UploadStateFailed   UploadState = "failed"
)

// PendingImage is one image staged for upload. Records are keyed by ID,
// never by position; Seq is assigned at selection time and is only used to
// order the final payload.
type PendingImage struct {
	ID          uuid.UUID   `json:"id"`
	LocalPath   string      `json:"local_path"`
	Compressed  []byte      `json:"-"`
	ContentType string      `json:"content_type"`
	RawSize     int64       `json:"raw_size"`
	URL         string      `json:"url,omitempty"`
	StorageID   string      `json:"storage_id,omitempty"`
	Progress    int         `json:"progress"`
	LastError   string      `json:"last_error,omitempty"`
	Label       ImageLabel  `json:"label"`
	Caption     string      `json:"caption,omitempty"`
	Seq         int         `json:"seq"`
	State       UploadState `json:"state"`
	Attempts    int         `json:"attempts"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Done reports whether the image has settled successfully. A record is done
// only when it carries a URL and its progress is pinned to 100.
func (p *PendingImage) Done() bool {
	return p.URL != "" && p.Progress == 100
}

// QueuedUpload is a persisted media queue row. The compressed blob is never
// stored; the retry worker re-reads and re-compresses from LocalPath.
type QueuedUpload struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	DraftID     uuid.UUID   `json:"draft_id" db:"draft_id"`
	LocalPath   string      `json:"local_path" db:"local_path"`
	ContentType string      `json:"content_type" db:"content_type"`
	Label       ImageLabel  `json:"label" db:"label"`
	Caption     string      `json:"caption,omitempty" db:"caption"`
	Seq         int         `json:"seq" db:"seq"`
	Status      UploadState `json:"status" db:"status"`
	Attempts    int         `json:"attempts" db:"attempts"`
	URL         string      `json:"url,omitempty" db:"url"`
	StorageID   string      `json:"storage_id,omitempty" db:"storage_id"`
	LastError   string      `json:"last_error,omitempty" db:"last_error"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// UploadOutcome is the result of one upload attempt.
type UploadOutcome struct {
	ImageID   uuid.UUID
	URL       string
	StorageID string
	Attempt   int
	Err       error
}

// Succeeded reports whether the attempt produced a hosted URL.
func (o UploadOutcome) Succeeded() bool {
	return o.Err == nil && o.URL != ""
}
