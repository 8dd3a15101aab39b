package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"roomlister/models"
)

// SQLiteStore is the local operational store: the persisted session, staged
// drafts, the media upload queue the retry worker drains, post runs and
// queued commands. The remote listings service stays the system of record
// for listing data.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT,
		user_id TEXT,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		listing JSON,
		fingerprint TEXT,
		status TEXT DEFAULT 'staged',
		remote_id TEXT,
		created_at DATETIME,
		posted_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS upload_queue (
		id TEXT PRIMARY KEY,
		draft_id TEXT NOT NULL,
		local_path TEXT,
		content_type TEXT,
		label TEXT,
		caption TEXT,
		seq INTEGER,
		status TEXT DEFAULT 'pending',
		attempts INTEGER DEFAULT 0,
		url TEXT,
		storage_id TEXT,
		last_error TEXT,
		created_at DATETIME,
		FOREIGN KEY (draft_id) REFERENCES drafts(id)
	);

	CREATE TABLE IF NOT EXISTS post_runs (
		id INTEGER PRIMARY KEY,
		draft_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		images_total INTEGER,
		images_uploaded INTEGER,
		images_failed INTEGER,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_drafts_fingerprint ON drafts(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_queue_status ON upload_queue(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_queue_draft ON upload_queue(draft_id, seq);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON post_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSession replaces the stored session. There is at most one row.
func (s *SQLiteStore) SaveSession(session models.Session) error {
	_, err := s.db.Exec(`
		INSERT INTO session (id, token, user_id, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			updated_at = excluded.updated_at`,
		session.Token, session.UserID, time.Now())
	return err
}

// CurrentSession returns the stored session. A missing row yields a zero
// session, not an error; callers decide whether an empty token is fatal.
func (s *SQLiteStore) CurrentSession() (models.Session, error) {
	row := s.db.QueryRow(`SELECT token, user_id, updated_at FROM session WHERE id = 1`)

	var session models.Session
	err := row.Scan(&session.Token, &session.UserID, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Session{}, nil
	}
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (s *SQLiteStore) ClearSession() error {
	_, err := s.db.Exec(`DELETE FROM session WHERE id = 1`)
	return err
}

func (s *SQLiteStore) SaveDraft(d *models.Draft) error {
	listing, err := json.Marshal(d.Listing)
	if err != nil {
		return fmt.Errorf("marshal draft listing: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO drafts (id, listing, fingerprint, status, remote_id, created_at, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			listing = excluded.listing,
			fingerprint = excluded.fingerprint,
			status = excluded.status,
			remote_id = excluded.remote_id,
			posted_at = excluded.posted_at`,
		d.ID.String(), listing, d.Fingerprint, d.Status, d.RemoteID, d.CreatedAt, d.PostedAt)
	return err
}

func (s *SQLiteStore) GetDraft(id uuid.UUID) (*models.Draft, error) {
	row := s.db.QueryRow(`
		SELECT id, listing, fingerprint, status, remote_id, created_at, posted_at
		FROM drafts WHERE id = ?`, id.String())
	return scanDraft(row)
}

// GetDraftByFingerprint returns the most recent draft carrying the
// fingerprint, or nil when none exists.
func (s *SQLiteStore) GetDraftByFingerprint(fingerprint string) (*models.Draft, error) {
	row := s.db.QueryRow(`
		SELECT id, listing, fingerprint, status, remote_id, created_at, posted_at
		FROM drafts WHERE fingerprint = ? ORDER BY created_at DESC LIMIT 1`, fingerprint)
	return scanDraft(row)
}

func scanDraft(row *sql.Row) (*models.Draft, error) {
	var d models.Draft
	var id string
	var listing []byte
	var remoteID sql.NullString
	var postedAt sql.NullTime
	err := row.Scan(&id, &listing, &d.Fingerprint, &d.Status, &remoteID, &d.CreatedAt, &postedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse draft id %q: %w", id, err)
	}
	if err := json.Unmarshal(listing, &d.Listing); err != nil {
		return nil, fmt.Errorf("unmarshal draft listing: %w", err)
	}
	d.RemoteID = remoteID.String
	if postedAt.Valid {
		d.PostedAt = &postedAt.Time
	}
	return &d, nil
}

func (s *SQLiteStore) ListDrafts(status models.DraftStatus) ([]models.Draft, error) {
	query := `
		SELECT id, listing, fingerprint, status, remote_id, created_at, posted_at
		FROM drafts`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []models.Draft
	for rows.Next() {
		var d models.Draft
		var id string
		var listing []byte
		var remoteID sql.NullString
		var postedAt sql.NullTime
		if err := rows.Scan(&id, &listing, &d.Fingerprint, &d.Status, &remoteID, &d.CreatedAt, &postedAt); err != nil {
			return nil, err
		}
		if d.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse draft id %q: %w", id, err)
		}
		if err := json.Unmarshal(listing, &d.Listing); err != nil {
			return nil, fmt.Errorf("unmarshal draft listing: %w", err)
		}
		d.RemoteID = remoteID.String
		if postedAt.Valid {
			d.PostedAt = &postedAt.Time
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

func (s *SQLiteStore) MarkDraftPosted(id uuid.UUID, remoteID string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE drafts SET status = ?, remote_id = ?, posted_at = ? WHERE id = ?`,
		models.DraftStatusPosted, remoteID, at, id.String())
	return err
}

func (s *SQLiteStore) MarkDraftFailed(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE drafts SET status = ? WHERE id = ?`,
		models.DraftStatusFailed, id.String())
	return err
}

func (s *SQLiteStore) EnqueueUpload(q *models.QueuedUpload) error {
	_, err := s.db.Exec(`
		INSERT INTO upload_queue (id, draft_id, local_path, content_type, label, caption, seq,
			status, attempts, url, storage_id, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			attempts = excluded.attempts,
			url = excluded.url,
			storage_id = excluded.storage_id,
			last_error = excluded.last_error`,
		q.ID.String(), q.DraftID.String(), q.LocalPath, q.ContentType, q.Label, q.Caption, q.Seq,
		q.Status, q.Attempts, q.URL, q.StorageID, q.LastError, q.CreatedAt)
	return err
}

// PendingUploads returns queue rows still awaiting a hosted URL, oldest
// first. Rows already uploaded are never returned.
func (s *SQLiteStore) PendingUploads(limit int) ([]models.QueuedUpload, error) {
	rows, err := s.db.Query(`
		SELECT id, draft_id, local_path, content_type, label, caption, seq,
			status, attempts, url, storage_id, last_error, created_at
		FROM upload_queue
		WHERE status IN (?, ?)
		ORDER BY created_at, seq
		LIMIT ?`,
		models.UploadStatePending, models.UploadStateFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUploads(rows)
}

func (s *SQLiteStore) UploadsForDraft(draftID uuid.UUID) ([]models.QueuedUpload, error) {
	rows, err := s.db.Query(`
		SELECT id, draft_id, local_path, content_type, label, caption, seq,
			status, attempts, url, storage_id, last_error, created_at
		FROM upload_queue WHERE draft_id = ? ORDER BY seq`, draftID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUploads(rows)
}

func collectUploads(rows *sql.Rows) ([]models.QueuedUpload, error) {
	var uploads []models.QueuedUpload
	for rows.Next() {
		var q models.QueuedUpload
		var id, draftID string
		var caption, url, storageID, lastError sql.NullString
		err := rows.Scan(&id, &draftID, &q.LocalPath, &q.ContentType, &q.Label, &caption, &q.Seq,
			&q.Status, &q.Attempts, &url, &storageID, &lastError, &q.CreatedAt)
		if err != nil {
			return nil, err
		}
		if q.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse upload id %q: %w", id, err)
		}
		if q.DraftID, err = uuid.Parse(draftID); err != nil {
			return nil, fmt.Errorf("parse upload draft id %q: %w", draftID, err)
		}
		q.Caption = caption.String
		q.URL = url.String
		q.StorageID = storageID.String
		q.LastError = lastError.String
		uploads = append(uploads, q)
	}
	return uploads, rows.Err()
}

func (s *SQLiteStore) MarkUploadDone(id uuid.UUID, url, storageID string) error {
	_, err := s.db.Exec(`
		UPDATE upload_queue SET status = ?, url = ?, storage_id = ?, last_error = ''
		WHERE id = ?`,
		models.UploadStateUploaded, url, storageID, id.String())
	return err
}

func (s *SQLiteStore) MarkUploadFailed(id uuid.UUID, attempts int, lastError string) error {
	_, err := s.db.Exec(`
		UPDATE upload_queue SET status = ?, attempts = ?, last_error = ?
		WHERE id = ?`,
		models.UploadStateFailed, attempts, lastError, id.String())
	return err
}

// RequeueFailedUploads resets failed rows so the retry worker picks them up
// with a fresh attempt budget.
func (s *SQLiteStore) RequeueFailedUploads() (int64, error) {
	result, err := s.db.Exec(`
		UPDATE upload_queue SET status = ?, attempts = 0
		WHERE status = ?`,
		models.UploadStatePending, models.UploadStateFailed)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *SQLiteStore) CreateRun(run *models.PostRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO post_runs (draft_id, started_at, status, images_total, images_uploaded, images_failed)
		VALUES (?, ?, ?, ?, 0, 0)`,
		run.DraftID.String(), run.StartedAt, run.Status, run.ImagesTotal)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.PostRun) error {
	_, err := s.db.Exec(`
		UPDATE post_runs SET finished_at = ?, status = ?, images_total = ?,
			images_uploaded = ?, images_failed = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ImagesTotal,
		run.ImagesUploaded, run.ImagesFailed, run.Error, run.ID)
	return err
}

func (s *SQLiteStore) EnqueueCommand(cmd models.CommandType, params *models.CommandParams) error {
	var raw []byte
	if params != nil {
		var err error
		if raw, err = json.Marshal(params); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(`INSERT INTO commands (command, params) VALUES (?, ?)`, cmd, raw)
	return err
}

func (s *SQLiteStore) GetPendingCommands() ([]models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, params, created_at, processed_at
		FROM commands WHERE processed_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var cmd models.Command
		var params sql.NullString
		if err := rows.Scan(&cmd.ID, &cmd.Command, &params, &cmd.CreatedAt, &cmd.ProcessedAt); err != nil {
			return nil, err
		}
		if params.Valid {
			cmd.Params = json.RawMessage(params.String)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func (s *SQLiteStore) ParseCommandParams(cmd *models.Command) (*models.CommandParams, error) {
	if cmd.Params == nil || string(cmd.Params) == "null" {
		return &models.CommandParams{}, nil
	}
	var params models.CommandParams
	if err := json.Unmarshal(cmd.Params, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// ResetAllData clears all operational tables. The stored session survives.
func (s *SQLiteStore) ResetAllData() error {
	tables := []string{
		"upload_queue",
		"post_runs",
		"drafts",
		"commands",
	}

	for _, table := range tables {
		_, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	return nil
}
