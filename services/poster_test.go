package services

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"roomlister/api"
	"roomlister/compress"
	"roomlister/extract"
	"roomlister/models"
	"roomlister/normalize"
	"roomlister/storage"
	"roomlister/uploader"
)

const goodMessage = "1BHK available in Koramangala. Rent 9k, deposit 50k. " +
	"Semi furnished with wifi and parking. Call 9876543210."

type stubUploader struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (s *stubUploader) Upload(ctx context.Context, name string, data []byte, contentType string, progress func(pct int)) (uploader.Hosted, error) {
	s.mu.Lock()
	s.calls++
	fail := s.fail
	s.mu.Unlock()

	if fail {
		return uploader.Hosted{}, errors.New("host unavailable")
	}
	return uploader.Hosted{URL: "https://cdn.example.com/" + name, StorageID: "obj-" + name}, nil
}

type stubSession struct{}

func (stubSession) CurrentSession() (models.Session, error) {
	return models.Session{Token: "tok", UserID: "u-1"}, nil
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return path
}

// testPoster wires a Poster against a stub listings server. The extractor
// runs in fallback mode so tests need no extraction endpoint.
func testPoster(t *testing.T, up *stubUploader) (*Poster, *storage.SQLiteStore, *int) {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "ops.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	created := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/listings" {
			created++
			var payload models.ListingPayload
			json.NewDecoder(r.Body).Decode(&payload)
			json.NewEncoder(w).Encode(models.RemoteListing{ID: "lst-1", OwnerID: "u-1", ListingPayload: payload})
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	norm := normalize.New([]string{"Koramangala", "HSR Layout"})
	extractor := extract.NewExtractor(nil, norm)
	apiClient := api.NewClient(srv.URL, srv.Client(), stubSession{})
	sched := uploader.NewScheduler(up, 2, 2)

	return NewPoster(store, extractor, apiClient, sched, compress.Config{}, 8), store, &created
}

func TestPostHappyPath(t *testing.T) {
	up := &stubUploader{}
	poster, store, created := testPoster(t, up)

	dir := t.TempDir()
	paths := []string{writePNG(t, dir, "room.png"), writePNG(t, dir, "kitchen.png")}

	result, err := poster.Post(context.Background(), goodMessage, paths)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if result.Remote == nil || result.Remote.ID != "lst-1" {
		t.Fatalf("remote = %+v", result.Remote)
	}
	if *created != 1 {
		t.Errorf("listings created = %d; want 1", *created)
	}
	if result.Uploads.Uploaded != 2 || result.Uploads.Failed != 0 {
		t.Errorf("uploads = %+v; want 2 uploaded", result.Uploads)
	}
	if len(result.Remote.Images) != 2 {
		t.Fatalf("payload images = %d; want 2", len(result.Remote.Images))
	}
	for i, img := range result.Remote.Images {
		if img.Seq != i || img.URL == "" {
			t.Errorf("image[%d] = %+v; want seq %d with a url", i, img, i)
		}
	}
	if result.Listing.Rent != 9000 || result.Listing.Area != "Koramangala" {
		t.Errorf("extracted listing = %+v", result.Listing)
	}

	draft, err := store.GetDraft(result.Draft.ID)
	if err != nil || draft == nil {
		t.Fatalf("load draft: %v", err)
	}
	if draft.Status != models.DraftStatusPosted || draft.RemoteID != "lst-1" {
		t.Errorf("draft = %+v; want posted as lst-1", draft)
	}

	rows, err := store.UploadsForDraft(draft.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("queue rows: %v, %d rows", err, len(rows))
	}
	for _, row := range rows {
		if row.Status != models.UploadStateUploaded || row.URL == "" {
			t.Errorf("queue row %s = %+v; want uploaded", row.LocalPath, row)
		}
	}
}

func TestPostBlocksOnValidation(t *testing.T) {
	up := &stubUploader{}
	poster, _, created := testPoster(t, up)

	_, err := poster.Post(context.Background(), "hello, anyone there?", nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v; want ValidationError", err)
	}
	if len(verr.Problems) == 0 {
		t.Error("validation error carries no problems")
	}
	if *created != 0 {
		t.Errorf("listings created = %d; want 0", *created)
	}
	if up.calls != 0 {
		t.Errorf("uploader called %d times before validation passed", up.calls)
	}
}

func TestPostRejectsDuplicate(t *testing.T) {
	poster, _, created := testPoster(t, &stubUploader{})

	if _, err := poster.Post(context.Background(), goodMessage, nil); err != nil {
		t.Fatalf("first post: %v", err)
	}

	_, err := poster.Post(context.Background(), goodMessage, nil)
	var dup *ErrDuplicate
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v; want ErrDuplicate", err)
	}
	if dup.RemoteID != "lst-1" {
		t.Errorf("duplicate points at %q; want lst-1", dup.RemoteID)
	}
	if *created != 1 {
		t.Errorf("listings created = %d; want 1", *created)
	}
}

func TestPostFailsWhenNoImageSurvives(t *testing.T) {
	up := &stubUploader{fail: true}
	poster, store, created := testPoster(t, up)

	dir := t.TempDir()
	paths := []string{writePNG(t, dir, "room.png")}

	result, err := poster.Post(context.Background(), goodMessage, paths)
	if err == nil {
		t.Fatal("expected error when every upload fails")
	}
	if *created != 0 {
		t.Errorf("listings created = %d; want 0", *created)
	}

	draft, _ := store.GetDraft(result.Draft.ID)
	if draft.Status != models.DraftStatusFailed {
		t.Errorf("draft status = %s; want failed", draft.Status)
	}
	rows, _ := store.UploadsForDraft(draft.ID)
	if len(rows) != 1 || rows[0].Status != models.UploadStateFailed {
		t.Errorf("queue rows = %+v; want one failed row for the retry worker", rows)
	}
}

func TestPostDropsUncompressibleFileWithWarning(t *testing.T) {
	poster, _, _ := testPoster(t, &stubUploader{})

	dir := t.TempDir()
	bad := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	good := writePNG(t, dir, "room.png")

	result, err := poster.Post(context.Background(), goodMessage, []string{bad, good})
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for the skipped file")
	}
	if len(result.Remote.Images) != 1 {
		t.Errorf("payload images = %d; want only the good one", len(result.Remote.Images))
	}
}

func TestPreviewReportsProblemsWithoutPosting(t *testing.T) {
	poster, _, created := testPoster(t, &stubUploader{})

	listing, problems := poster.Preview(context.Background(), "2bhk in hsr layout, rent 12k, call 9876543210, fully furnished family home")
	if len(problems) != 0 {
		t.Errorf("problems = %v; want none", problems)
	}
	if listing.Type != models.RoomTypeBHK2 || listing.Area != "HSR Layout" {
		t.Errorf("listing = %+v", listing)
	}
	if *created != 0 {
		t.Errorf("preview created %d listings", *created)
	}
}
