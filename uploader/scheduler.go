package uploader

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"roomlister/models"
)

const (
	// DefaultConcurrency bounds how many uploads are in flight at once.
	DefaultConcurrency = 3
	// DefaultMaxAttempts is the automatic retry ceiling, counting the
	// first try.
	DefaultMaxAttempts = 2
)

// Scheduler drives a batch's uploads under a concurrency ceiling. Pending
// images are processed in selection order, in chunks of at most the
// concurrency limit; a chunk fully settles before the next one starts. The
// chunking is a deliberate backpressure simplification, not a work-stealing
// pool.
type Scheduler struct {
	uploader    Uploader
	concurrency int
	maxAttempts int
}

// NewScheduler creates a batch upload scheduler. Zero values for the limits
// select the defaults.
func NewScheduler(uploader Uploader, concurrency, maxAttempts int) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Scheduler{
		uploader:    uploader,
		concurrency: concurrency,
		maxAttempts: maxAttempts,
	}
}

// Summary reports how a batch run settled.
type Summary struct {
	Attempted int
	Uploaded  int
	Failed    int
}

// Run uploads every image in the batch that does not yet have a URL. It
// never aborts early: failed images settle as failed and the rest continue.
// Re-running a fully uploaded batch performs no network calls.
func (s *Scheduler) Run(ctx context.Context, batch *Batch) Summary {
	ids := batch.PendingIDs()
	summary := Summary{Attempted: len(ids)}

	for start := 0; start < len(ids); start += s.concurrency {
		end := start + s.concurrency
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		var wg sync.WaitGroup
		for _, id := range chunk {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				s.uploadOne(ctx, batch, id)
			}(id)
		}
		wg.Wait()
	}

	for _, img := range batch.Ordered() {
		if img.State == models.UploadStateFailed {
			summary.Failed++
		}
	}
	summary.Uploaded = batch.UploadedCount()
	return summary
}

// Retry re-enters the upload routine for one terminally failed image; this
// is the manual-retry affordance surfaced after automatic retries ran out.
func (s *Scheduler) Retry(ctx context.Context, batch *Batch, id uuid.UUID) models.UploadOutcome {
	return s.uploadOne(ctx, batch, id)
}

// uploadOne runs the per-image attempt loop against the retry ceiling.
func (s *Scheduler) uploadOne(ctx context.Context, batch *Batch, id uuid.UUID) models.UploadOutcome {
	img, ok := batch.Get(id)
	if !ok {
		return models.UploadOutcome{ImageID: id, Err: fmt.Errorf("image %s is not staged", id)}
	}
	if img.Done() {
		return models.UploadOutcome{ImageID: id, URL: img.URL, StorageID: img.StorageID, Attempt: img.Attempts}
	}
	if len(img.Compressed) == 0 {
		outcome := models.UploadOutcome{ImageID: id, Err: fmt.Errorf("image has no compressed data")}
		batch.applyOutcome(outcome)
		return outcome
	}

	name := filepath.Base(img.LocalPath)
	var outcome models.UploadOutcome

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		batch.markInFlight(id, attempt)

		hosted, err := s.uploader.Upload(ctx, name, img.Compressed, img.ContentType, func(pct int) {
			batch.setProgress(id, pct)
		})
		outcome = models.UploadOutcome{
			ImageID:   id,
			URL:       hosted.URL,
			StorageID: hosted.StorageID,
			Attempt:   attempt,
			Err:       err,
		}
		if err == nil {
			break
		}
		if attempt < s.maxAttempts {
			log.Printf("Upload %s attempt %d/%d failed, retrying: %v", name, attempt, s.maxAttempts, err)
		} else {
			log.Printf("Upload %s failed after %d attempts: %v", name, s.maxAttempts, err)
			outcome.Err = fmt.Errorf("could not upload %s, please retry", name)
		}
	}

	batch.applyOutcome(outcome)
	return outcome
}
