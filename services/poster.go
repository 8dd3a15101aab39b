package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"roomlister/api"
	"roomlister/compress"
	"roomlister/extract"
	"roomlister/identity"
	"roomlister/models"
	"roomlister/normalize"
	"roomlister/storage"
	"roomlister/uploader"
)

// Poster drives one listing submission end to end: extract the structured
// listing from the message, validate it, upload the photos and publish the
// assembled payload. Every run is recorded in the ops store.
type Poster struct {
	store     *storage.SQLiteStore
	extractor *extract.Extractor
	api       *api.Client
	scheduler *uploader.Scheduler
	compress  compress.Config
	maxFiles  int
}

// NewPoster creates a posting service. maxFiles caps how many photos one
// listing may carry.
func NewPoster(store *storage.SQLiteStore, extractor *extract.Extractor, apiClient *api.Client,
	scheduler *uploader.Scheduler, compressCfg compress.Config, maxFiles int) *Poster {
	if maxFiles <= 0 {
		maxFiles = 8
	}
	return &Poster{
		store:     store,
		extractor: extractor,
		api:       apiClient,
		scheduler: scheduler,
		compress:  compressCfg,
		maxFiles:  maxFiles,
	}
}

// ValidationError carries the per-field problems that block a submission.
// The listing is returned alongside so callers can show what was understood.
type ValidationError struct {
	Listing  models.ExtractedListing
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("listing is not ready to post: %s", strings.Join(e.Problems, "; "))
}

// ErrDuplicate is returned when a draft with the same identity fingerprint
// was already posted.
type ErrDuplicate struct {
	ExistingDraft uuid.UUID
	RemoteID      string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("this room was already posted as listing %s", e.RemoteID)
}

// PostResult is the outcome of a completed submission.
type PostResult struct {
	Draft    *models.Draft
	Remote   *models.RemoteListing
	Listing  models.ExtractedListing
	Uploads  uploader.Summary
	Warnings []string
}

// Post runs the full submission flow for one free-text message and a set of
// local image paths. Images that fail compression or exhaust their upload
// retries are dropped from the payload with a warning; the submission only
// aborts when images were given and none of them made it.
func (p *Poster) Post(ctx context.Context, message string, imagePaths []string) (*PostResult, error) {
	result := &PostResult{}
	now := time.Now()

	// 1. Extract and validate the structured listing
	listing := p.extractor.Extract(ctx, message)
	result.Listing = listing

	if problems := normalize.Validate(listing); len(problems) > 0 {
		return nil, &ValidationError{Listing: listing, Problems: problems}
	}

	// 2. Dedupe on the identity fingerprint
	fingerprint := identity.Fingerprint(&listing)
	existing, err := p.store.GetDraftByFingerprint(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("fingerprint lookup: %w", err)
	}
	if existing != nil && existing.Status == models.DraftStatusPosted {
		return nil, &ErrDuplicate{ExistingDraft: existing.ID, RemoteID: existing.RemoteID}
	}

	// 3. Stage the draft
	draft := &models.Draft{
		ID:          uuid.New(),
		Listing:     listing,
		Fingerprint: fingerprint,
		Status:      models.DraftStatusStaged,
		CreatedAt:   now,
	}
	if existing != nil {
		// Re-post of a draft that never made it; keep its identity.
		draft.ID = existing.ID
		draft.CreatedAt = existing.CreatedAt
	}
	if err := p.store.SaveDraft(draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	result.Draft = draft

	run := &models.PostRun{
		DraftID:     draft.ID,
		StartedAt:   now,
		Status:      models.RunStatusRunning,
		ImagesTotal: len(imagePaths),
	}
	if run.ID, err = p.store.CreateRun(run); err != nil {
		log.Printf("Warning: failed to record post run: %v", err)
	}

	// 4. Compress and stage images, then drive the uploads
	batch := uploader.NewBatch(p.maxFiles)
	staged, warnings := p.stageImages(draft.ID, batch, imagePaths)
	result.Warnings = warnings

	if staged > 0 {
		result.Uploads = p.scheduler.Run(ctx, batch)
		p.persistOutcomes(batch)
	}

	metas := batch.ImageMetas()
	if len(imagePaths) > 0 && len(metas) == 0 {
		err := fmt.Errorf("none of the %d images could be uploaded", len(imagePaths))
		p.failRun(run, draft.ID, result.Uploads, err)
		return result, err
	}
	for _, img := range batch.Ordered() {
		if img.State == models.UploadStateFailed {
			result.Warnings = append(result.Warnings, img.LastError)
		}
	}

	// 5. Publish
	payload := models.ListingPayload{
		Rent:        listing.Rent,
		Deposit:     listing.Deposit,
		Type:        listing.Type,
		Area:        listing.Area,
		Gender:      listing.Gender,
		Furnishing:  listing.Furnishing,
		Contact:     listing.Contact,
		Description: listing.Description,
		Amenities:   listing.Amenities,
		Images:      metas,
	}
	remote, err := p.api.Create(ctx, payload)
	if err != nil {
		p.failRun(run, draft.ID, result.Uploads, err)
		return result, fmt.Errorf("publish listing: %w", err)
	}
	result.Remote = remote

	postedAt := time.Now()
	if err := p.store.MarkDraftPosted(draft.ID, remote.ID, postedAt); err != nil {
		log.Printf("Warning: failed to mark draft posted: %v", err)
	}
	draft.Status = models.DraftStatusPosted
	draft.RemoteID = remote.ID
	draft.PostedAt = &postedAt

	p.finishRun(run, models.RunStatusCompleted, result.Uploads, "")
	log.Printf("Posted listing %s (%d/%d images)", remote.ID, len(metas), len(imagePaths))
	return result, nil
}

// stageImages compresses each selected file and stages it in the batch.
// Files that cannot be compressed are skipped with a warning; oversize files
// are rejected here, before any upload bandwidth is spent.
func (p *Poster) stageImages(draftID uuid.UUID, batch *uploader.Batch, paths []string) (int, []string) {
	var warnings []string
	staged := 0

	for _, path := range paths {
		compressed, err := compress.File(path, p.compress)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", path, err))
			continue
		}

		id, err := batch.Add(models.PendingImage{
			LocalPath:   path,
			Compressed:  compressed.Data,
			ContentType: compressed.ContentType,
			RawSize:     int64(len(compressed.Data)),
		})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", path, err))
			continue
		}
		staged++

		img, _ := batch.Get(id)
		if err := p.store.EnqueueUpload(&models.QueuedUpload{
			ID:          id,
			DraftID:     draftID,
			LocalPath:   path,
			ContentType: compressed.ContentType,
			Label:       img.Label,
			Seq:         img.Seq,
			Status:      models.UploadStatePending,
			CreatedAt:   time.Now(),
		}); err != nil {
			log.Printf("Warning: failed to persist upload row for %s: %v", path, err)
		}
	}

	return staged, warnings
}

// persistOutcomes mirrors the batch's settled state into the upload queue so
// the retry worker can pick up what failed.
func (p *Poster) persistOutcomes(batch *uploader.Batch) {
	for _, img := range batch.Ordered() {
		var err error
		switch {
		case img.Done():
			err = p.store.MarkUploadDone(img.ID, img.URL, img.StorageID)
		case img.State == models.UploadStateFailed:
			err = p.store.MarkUploadFailed(img.ID, img.Attempts, img.LastError)
		}
		if err != nil {
			log.Printf("Warning: failed to persist outcome for %s: %v", img.LocalPath, err)
		}
	}
}

func (p *Poster) failRun(run *models.PostRun, draftID uuid.UUID, uploads uploader.Summary, cause error) {
	if err := p.store.MarkDraftFailed(draftID); err != nil {
		log.Printf("Warning: failed to mark draft failed: %v", err)
	}
	p.finishRun(run, models.RunStatusFailed, uploads, cause.Error())
}

func (p *Poster) finishRun(run *models.PostRun, status models.RunStatus, uploads uploader.Summary, errMsg string) {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = status
	run.ImagesUploaded = uploads.Uploaded
	run.ImagesFailed = uploads.Failed
	run.Error = errMsg
	if err := p.store.UpdateRun(run); err != nil {
		log.Printf("Warning: failed to update post run: %v", err)
	}
}

// Preview extracts and validates without posting anything. The returned
// problems list is empty when the message would be accepted as-is.
func (p *Poster) Preview(ctx context.Context, message string) (models.ExtractedListing, []string) {
	listing := p.extractor.Extract(ctx, message)
	return listing, normalize.Validate(listing)
}

// Repost publishes a draft that previously failed, using whatever uploads
// have settled in the queue since. Rows still without a URL are left out of
// the payload; they stay claimable by the retry worker.
func (p *Poster) Repost(ctx context.Context, draftID uuid.UUID) (*models.RemoteListing, error) {
	draft, err := p.store.GetDraft(draftID)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("no draft %s", draftID)
	}
	if draft.Status == models.DraftStatusPosted {
		return nil, &ErrDuplicate{ExistingDraft: draft.ID, RemoteID: draft.RemoteID}
	}

	rows, err := p.store.UploadsForDraft(draftID)
	if err != nil {
		return nil, fmt.Errorf("load uploads: %w", err)
	}
	var metas []models.ImageMeta
	for _, row := range rows {
		if row.Status != models.UploadStateUploaded || row.URL == "" {
			continue
		}
		metas = append(metas, models.ImageMeta{
			URL:     row.URL,
			Label:   row.Label,
			Caption: row.Caption,
			Seq:     row.Seq,
		})
	}
	if len(rows) > 0 && len(metas) == 0 {
		return nil, fmt.Errorf("draft %s has no uploaded images yet", draftID)
	}

	listing := draft.Listing
	payload := models.ListingPayload{
		Rent:        listing.Rent,
		Deposit:     listing.Deposit,
		Type:        listing.Type,
		Area:        listing.Area,
		Gender:      listing.Gender,
		Furnishing:  listing.Furnishing,
		Contact:     listing.Contact,
		Description: listing.Description,
		Amenities:   listing.Amenities,
		Images:      metas,
	}
	remote, err := p.api.Create(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("publish listing: %w", err)
	}
	if err := p.store.MarkDraftPosted(draft.ID, remote.ID, time.Now()); err != nil {
		log.Printf("Warning: failed to mark draft posted: %v", err)
	}
	log.Printf("Reposted draft %s as listing %s (%d images)", draft.ID, remote.ID, len(metas))
	return remote, nil
}

// Sync fetches the caller's listings from the remote service and reconciles
// local posted drafts against them: drafts whose remote listing is gone are
// reported so the user knows what was taken down.
func (p *Poster) Sync(ctx context.Context) ([]models.RemoteListing, []models.Draft, error) {
	remote, err := p.api.ListOwn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch own listings: %w", err)
	}

	byRemoteID := make(map[string]bool, len(remote))
	for _, l := range remote {
		byRemoteID[l.ID] = true
	}

	posted, err := p.store.ListDrafts(models.DraftStatusPosted)
	if err != nil {
		return remote, nil, fmt.Errorf("list posted drafts: %w", err)
	}

	var orphaned []models.Draft
	for _, d := range posted {
		if d.RemoteID != "" && !byRemoteID[d.RemoteID] {
			orphaned = append(orphaned, d)
		}
	}
	return remote, orphaned, nil
}
