package models

import (
	"time"

	"github.com/google/uuid"
)

type DraftStatus string

const (
	DraftStatusStaged DraftStatus = "staged"
	DraftStatusPosted DraftStatus = "posted"
	DraftStatusFailed DraftStatus = "failed"
)

// Draft is a listing staged locally before submission.
type Draft struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	Listing     ExtractedListing `json:"listing" db:"listing"`
	Fingerprint string           `json:"fingerprint" db:"fingerprint"`
	Status      DraftStatus      `json:"status" db:"status"`
	RemoteID    string           `json:"remote_id,omitempty" db:"remote_id"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	PostedAt    *time.Time       `json:"posted_at,omitempty" db:"posted_at"`
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PostRun records one posting attempt for the ops log.
type PostRun struct {
	ID             int64      `json:"id" db:"id"`
	DraftID        uuid.UUID  `json:"draft_id" db:"draft_id"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at" db:"finished_at"`
	Status         RunStatus  `json:"status" db:"status"`
	ImagesTotal    int        `json:"images_total" db:"images_total"`
	ImagesUploaded int        `json:"images_uploaded" db:"images_uploaded"`
	ImagesFailed   int        `json:"images_failed" db:"images_failed"`
	Error          string     `json:"error,omitempty" db:"error"`
}

// Session is the locally persisted auth state every API call draws from.
type Session struct {
	Token     string    `json:"token" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
