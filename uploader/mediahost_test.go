package uploader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestMediaHostUploadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("namespace"); got != "demo-cloud" {
			t.Errorf("namespace = %q; want demo-cloud", got)
		}
		if got := r.FormValue("upload_policy"); got != "unsigned-preset" {
			t.Errorf("upload_policy = %q; want unsigned-preset", got)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "jpeg-bytes" {
			t.Errorf("file payload = %q", data)
		}
		w.Write([]byte(`{"secure_url":"https://cdn.example.com/x.jpg","public_id":"x123"}`))
	}))
	defer srv.Close()

	u := NewMediaHostUploader(srv.URL, "demo-cloud", "unsigned-preset", srv.Client())

	var mu sync.Mutex
	var last int
	monotonic := true
	hosted, err := u.Upload(context.Background(), "x.jpg", []byte("jpeg-bytes"), "image/jpeg", func(pct int) {
		mu.Lock()
		if pct < last {
			monotonic = false
		}
		last = pct
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if hosted.URL != "https://cdn.example.com/x.jpg" || hosted.StorageID != "x123" {
		t.Errorf("hosted = %+v", hosted)
	}
	if !monotonic {
		t.Error("progress went backwards")
	}
	if last != 100 {
		t.Errorf("final progress = %d; want 100", last)
	}
}

func TestMediaHostUploadNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	u := NewMediaHostUploader(srv.URL, "ns", "pol", srv.Client())
	if _, err := u.Upload(context.Background(), "x.jpg", []byte("data"), "image/jpeg", nil); err == nil {
		t.Fatal("expected error on 403 response")
	}
}

func TestMediaHostUploadMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"public_id":"x123"}`))
	}))
	defer srv.Close()

	u := NewMediaHostUploader(srv.URL, "ns", "pol", srv.Client())
	if _, err := u.Upload(context.Background(), "x.jpg", []byte("data"), "image/jpeg", nil); err == nil {
		t.Fatal("expected error when secure_url is absent")
	}
}
