package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"roomlister/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ops.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	session, err := store.CurrentSession()
	if err != nil {
		t.Fatalf("current session on empty store: %v", err)
	}
	if session.Token != "" {
		t.Errorf("empty store returned token %q", session.Token)
	}

	if err := store.SaveSession(models.Session{Token: "tok-1", UserID: "u-1"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := store.SaveSession(models.Session{Token: "tok-2", UserID: "u-1"}); err != nil {
		t.Fatalf("overwrite session: %v", err)
	}

	session, err = store.CurrentSession()
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if session.Token != "tok-2" || session.UserID != "u-1" {
		t.Errorf("session = %+v; want tok-2/u-1", session)
	}

	if err := store.ClearSession(); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	session, _ = store.CurrentSession()
	if session.Token != "" {
		t.Errorf("token survived clear: %q", session.Token)
	}
}

func TestDraftLifecycle(t *testing.T) {
	store := openTestStore(t)

	draft := &models.Draft{
		ID: uuid.New(),
		Listing: models.ExtractedListing{
			Rent:      9000,
			Type:      models.RoomTypeBHK1,
			Area:      "Koramangala",
			Contact:   "9876543210",
			Amenities: []string{"WIFI", "AC"},
		},
		Fingerprint: "fp-abc",
		Status:      models.DraftStatusStaged,
		CreatedAt:   time.Now(),
	}
	if err := store.SaveDraft(draft); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	got, err := store.GetDraft(draft.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if got == nil {
		t.Fatal("draft not found after save")
	}
	if got.Listing.Rent != 9000 || got.Listing.Area != "Koramangala" {
		t.Errorf("listing round trip lost fields: %+v", got.Listing)
	}
	if len(got.Listing.Amenities) != 2 {
		t.Errorf("amenities = %v; want 2 entries", got.Listing.Amenities)
	}

	byFp, err := store.GetDraftByFingerprint("fp-abc")
	if err != nil {
		t.Fatalf("get by fingerprint: %v", err)
	}
	if byFp == nil || byFp.ID != draft.ID {
		t.Errorf("fingerprint lookup = %+v; want draft %s", byFp, draft.ID)
	}

	if missing, err := store.GetDraftByFingerprint("fp-none"); err != nil || missing != nil {
		t.Errorf("unknown fingerprint = %+v, %v; want nil, nil", missing, err)
	}

	postedAt := time.Now()
	if err := store.MarkDraftPosted(draft.ID, "lst-1", postedAt); err != nil {
		t.Fatalf("mark posted: %v", err)
	}
	got, _ = store.GetDraft(draft.ID)
	if got.Status != models.DraftStatusPosted || got.RemoteID != "lst-1" || got.PostedAt == nil {
		t.Errorf("posted draft = %+v", got)
	}

	staged, err := store.ListDrafts(models.DraftStatusStaged)
	if err != nil {
		t.Fatalf("list staged: %v", err)
	}
	if len(staged) != 0 {
		t.Errorf("staged drafts = %d; want 0 after posting", len(staged))
	}
}

func TestUploadQueue(t *testing.T) {
	store := openTestStore(t)
	draftID := uuid.New()

	for i, path := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		err := store.EnqueueUpload(&models.QueuedUpload{
			ID:          uuid.New(),
			DraftID:     draftID,
			LocalPath:   path,
			ContentType: "image/jpeg",
			Label:       models.LabelBedroom,
			Seq:         i,
			Status:      models.UploadStatePending,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			t.Fatalf("enqueue %s: %v", path, err)
		}
	}

	pending, err := store.PendingUploads(10)
	if err != nil {
		t.Fatalf("pending uploads: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d; want 3", len(pending))
	}
	for i, q := range pending {
		if q.Seq != i {
			t.Errorf("pending[%d].Seq = %d; queue must keep selection order", i, q.Seq)
		}
	}

	if err := store.MarkUploadDone(pending[0].ID, "https://cdn.example.com/a.jpg", "obj-a"); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	if err := store.MarkUploadFailed(pending[1].ID, 2, "could not upload b.jpg, please retry"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	pending, _ = store.PendingUploads(10)
	if len(pending) != 2 {
		t.Errorf("pending after settle = %d; want 2 (failed stays claimable)", len(pending))
	}

	all, err := store.UploadsForDraft(draftID)
	if err != nil {
		t.Fatalf("uploads for draft: %v", err)
	}
	if all[0].Status != models.UploadStateUploaded || all[0].URL == "" {
		t.Errorf("uploaded row = %+v", all[0])
	}
	if all[1].Status != models.UploadStateFailed || all[1].Attempts != 2 {
		t.Errorf("failed row = %+v", all[1])
	}

	n, err := store.RequeueFailedUploads()
	if err != nil || n != 1 {
		t.Fatalf("requeue = %d, %v; want 1 row", n, err)
	}
	all, _ = store.UploadsForDraft(draftID)
	if all[1].Status != models.UploadStatePending || all[1].Attempts != 0 {
		t.Errorf("requeued row = %+v; want pending with fresh attempts", all[1])
	}
}

func TestCommandQueue(t *testing.T) {
	store := openTestStore(t)

	if err := store.EnqueueCommand(models.CmdRetryUploads, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	draftID := uuid.New().String()
	if err := store.EnqueueCommand(models.CmdPostDraft, &models.CommandParams{DraftID: draftID}); err != nil {
		t.Fatalf("enqueue with params: %v", err)
	}

	cmds, err := store.GetPendingCommands()
	if err != nil {
		t.Fatalf("pending commands: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("pending = %d; want 2", len(cmds))
	}

	params, err := store.ParseCommandParams(&cmds[1])
	if err != nil {
		t.Fatalf("parse params: %v", err)
	}
	if params.DraftID != draftID {
		t.Errorf("draft id = %q; want %q", params.DraftID, draftID)
	}

	if err := store.MarkCommandProcessed(cmds[0].ID); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	cmds, _ = store.GetPendingCommands()
	if len(cmds) != 1 || cmds[0].Command != models.CmdPostDraft {
		t.Errorf("pending after processing = %+v", cmds)
	}
}
