package models

import (
	"encoding/json"
	"time"
)

type CommandType string

const (
	CmdRetryUploads CommandType = "retry_uploads"
	CmdSyncListings CommandType = "sync_listings"
	CmdPostDraft    CommandType = "post_draft"
)

// Command is an operational request queued in the ops store for the daemon.
type Command struct {
	ID          int64           `json:"id" db:"id"`
	Command     CommandType     `json:"command" db:"command"`
	Params      json.RawMessage `json:"params" db:"params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}

type CommandParams struct {
	DraftID string `json:"draft_id,omitempty"`
}
