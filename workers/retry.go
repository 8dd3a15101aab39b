package workers

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"roomlister/compress"
	"roomlister/models"
	"roomlister/storage"
	"roomlister/uploader"
)

// maxQueueAttempts is the lifetime attempt ceiling for a queue row. Rows
// that hit it stay failed until the user requeues them.
const maxQueueAttempts = 6

// RetryWorker drains the persisted upload queue in the background. The
// compressed blob is never persisted, so each row is re-read from disk and
// re-compressed before the upload.
type RetryWorker struct {
	store     *storage.SQLiteStore
	uploader  uploader.Uploader
	compress  compress.Config
	triggerCh chan struct{}
}

func NewRetryWorker(store *storage.SQLiteStore, up uploader.Uploader, compressCfg compress.Config) *RetryWorker {
	return &RetryWorker{
		store:     store,
		uploader:  up,
		compress:  compressCfg,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger causes the worker to run immediately
func (w *RetryWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// RunOnce processes a single batch synchronously, for one-shot invocations.
func (w *RetryWorker) RunOnce(ctx context.Context, batchSize int) {
	w.processBatch(ctx, batchSize)
}

// Run starts the retry loop
func (w *RetryWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Retry worker stopping")
			return
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *RetryWorker) processBatch(ctx context.Context, batchSize int) {
	rows, err := w.store.PendingUploads(batchSize)
	if err != nil {
		log.Printf("Retry worker: query error: %v", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	log.Printf("Retry worker: processing %d items", len(rows))

	var uploaded, failed int
	for i := range rows {
		row := &rows[i]
		if row.Attempts >= maxQueueAttempts {
			continue
		}

		if terminal, err := w.process(ctx, row); err != nil {
			failed++
			attempts := row.Attempts + 1
			if terminal {
				attempts = maxQueueAttempts
			}
			msg := err.Error()
			if attempts >= maxQueueAttempts && !terminal {
				msg = fmt.Sprintf("could not upload %s, please retry", filepath.Base(row.LocalPath))
			}
			if err := w.store.MarkUploadFailed(row.ID, attempts, msg); err != nil {
				log.Printf("Retry worker: failed to update %s: %v", row.ID, err)
			}
			log.Printf("Retry worker: %s attempt %d/%d failed: %v", row.LocalPath, attempts, maxQueueAttempts, err)
			continue
		}

		uploaded++
		if ctx.Err() != nil {
			return
		}
	}

	if uploaded > 0 || failed > 0 {
		log.Printf("Retry worker: uploaded %d, failed %d", uploaded, failed)
	}
}

// process re-compresses one queued file and uploads it. Compression errors
// are terminal for the row; there is no point retrying a file that cannot
// be read or is too large.
func (w *RetryWorker) process(ctx context.Context, row *models.QueuedUpload) (bool, error) {
	compressed, err := compress.File(row.LocalPath, w.compress)
	if err != nil {
		return true, fmt.Errorf("compress: %w", err)
	}

	name := filepath.Base(row.LocalPath)
	hosted, err := w.uploader.Upload(ctx, name, compressed.Data, compressed.ContentType, nil)
	if err != nil {
		return false, err
	}

	if err := w.store.MarkUploadDone(row.ID, hosted.URL, hosted.StorageID); err != nil {
		return false, fmt.Errorf("persist result: %w", err)
	}
	log.Printf("Retry worker: uploaded %s -> %s", name, hosted.URL)
	return false, nil
}
