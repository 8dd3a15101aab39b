package uploader

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomlister/models"
)

// Batch is the set of images staged for one listing submission. Records are
// keyed by generated ID, never by position, so concurrent per-image writes
// and removal cannot trample each other the way index-addressed updates do.
type Batch struct {
	mu       sync.Mutex
	images   map[uuid.UUID]*models.PendingImage
	order    []uuid.UUID
	maxFiles int
}

// NewBatch creates a batch capped at maxFiles staged images.
func NewBatch(maxFiles int) *Batch {
	return &Batch{
		images:   make(map[uuid.UUID]*models.PendingImage),
		maxFiles: maxFiles,
	}
}

// Add stages a compressed image, assigning its ID and sequence index. The
// sequence index is fixed at selection time; the scheduler never reassigns
// it, so payload ordering always follows selection order.
func (b *Batch) Add(img models.PendingImage) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.order) >= b.maxFiles {
		return uuid.Nil, fmt.Errorf("batch is full: at most %d images per listing", b.maxFiles)
	}

	img.ID = uuid.New()
	img.Seq = len(b.order)
	img.State = models.UploadStatePending
	img.CreatedAt = time.Now()
	if img.Label == "" {
		img.Label = models.LabelOther
	}

	b.images[img.ID] = &img
	b.order = append(b.order, img.ID)
	return img.ID, nil
}

// Remove unstages an image. Removal is refused while the image's upload is
// in flight; callers retry after the chunk settles.
func (b *Batch) Remove(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	img, ok := b.images[id]
	if !ok {
		return fmt.Errorf("no staged image %s", id)
	}
	if img.State == models.UploadStateInFlight {
		return fmt.Errorf("image %s is uploading; remove it after it settles", id)
	}

	delete(b.images, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of the staged image record.
func (b *Batch) Get(id uuid.UUID) (models.PendingImage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	img, ok := b.images[id]
	if !ok {
		return models.PendingImage{}, false
	}
	return *img, true
}

// SetLabel updates the user-editable label and caption.
func (b *Batch) SetLabel(id uuid.UUID, label models.ImageLabel, caption string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	img, ok := b.images[id]
	if !ok {
		return fmt.Errorf("no staged image %s", id)
	}
	img.Label = label
	img.Caption = caption
	return nil
}

// PendingIDs returns, in selection order, every image that does not yet
// carry a hosted URL. Uploaded images are skipped, which is what makes
// re-running the scheduler idempotent.
func (b *Batch) PendingIDs() []uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ids []uuid.UUID
	for _, id := range b.order {
		if img := b.images[id]; img.URL == "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Ordered returns copies of all staged images in selection order.
func (b *Batch) Ordered() []models.PendingImage {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.PendingImage, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.images[id])
	}
	return out
}

// Len returns the number of staged images.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// UploadedCount returns how many images have settled successfully.
func (b *Batch) UploadedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, img := range b.images {
		if img.Done() {
			count++
		}
	}
	return count
}

// ImageMetas assembles the payload image list: uploaded images only, in
// selection order regardless of upload completion order.
func (b *Batch) ImageMetas() []models.ImageMeta {
	b.mu.Lock()
	defer b.mu.Unlock()

	var metas []models.ImageMeta
	for _, id := range b.order {
		img := b.images[id]
		if !img.Done() {
			continue
		}
		metas = append(metas, models.ImageMeta{
			URL:     img.URL,
			Label:   img.Label,
			Caption: img.Caption,
			Seq:     img.Seq,
		})
	}
	return metas
}

func (b *Batch) markInFlight(id uuid.UUID, attempt int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if img, ok := b.images[id]; ok {
		img.State = models.UploadStateInFlight
		img.Attempts = attempt
		img.Progress = 0
		img.LastError = ""
	}
}

// setProgress records transmit progress. Progress is monotonic within an
// attempt and is capped below 100: only a settled success pins it to 100,
// so a record never looks done without a URL.
func (b *Batch) setProgress(id uuid.UUID, pct int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	img, ok := b.images[id]
	if !ok {
		return
	}
	if pct > 99 {
		pct = 99
	}
	if pct > img.Progress {
		img.Progress = pct
	}
}

func (b *Batch) applyOutcome(outcome models.UploadOutcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	img, ok := b.images[outcome.ImageID]
	if !ok {
		return
	}
	img.Attempts = outcome.Attempt
	if outcome.Succeeded() {
		img.URL = outcome.URL
		img.StorageID = outcome.StorageID
		img.Progress = 100
		img.State = models.UploadStateUploaded
		img.LastError = ""
		img.Compressed = nil
		return
	}
	img.State = models.UploadStateFailed
	img.LastError = outcome.Err.Error()
}
