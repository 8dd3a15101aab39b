package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// MediaHostUploader posts blobs to the marketplace's image-hosting
// endpoint: an unauthenticated multipart POST parameterized by a public
// storage namespace and a pre-shared upload policy token. The response is
// JSON carrying the hosted URL and a storage object id.
type MediaHostUploader struct {
	endpoint  string
	namespace string
	policy    string
	client    *http.Client
}

// NewMediaHostUploader creates an uploader for the hosted storage endpoint.
// Credentials are fixed at construction; nothing downstream reads config.
func NewMediaHostUploader(endpoint, namespace, policy string, client *http.Client) *MediaHostUploader {
	if client == nil {
		client = &http.Client{}
	}
	return &MediaHostUploader{
		endpoint:  endpoint,
		namespace: namespace,
		policy:    policy,
		client:    client,
	}
}

type mediaHostResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload sends one blob and returns its hosted location.
func (u *MediaHostUploader) Upload(ctx context.Context, name string, data []byte, contentType string, progress func(pct int)) (Hosted, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("namespace", u.namespace); err != nil {
		return Hosted{}, err
	}
	if err := writer.WriteField("upload_policy", u.policy); err != nil {
		return Hosted{}, err
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return Hosted{}, err
	}
	if _, err := part.Write(data); err != nil {
		return Hosted{}, err
	}
	if err := writer.Close(); err != nil {
		return Hosted{}, err
	}

	reader := &progressReader{
		r:        bytes.NewReader(body.Bytes()),
		total:    int64(body.Len()),
		progress: progress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, reader)
	if err != nil {
		return Hosted{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ContentLength = int64(body.Len())

	resp, err := u.client.Do(req)
	if err != nil {
		return Hosted{}, fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Hosted{}, fmt.Errorf("storage error %d: %s", resp.StatusCode, respBody)
	}

	var parsed mediaHostResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Hosted{}, fmt.Errorf("decode storage response: %w", err)
	}
	if parsed.SecureURL == "" {
		return Hosted{}, fmt.Errorf("storage response missing secure_url")
	}

	return Hosted{URL: parsed.SecureURL, StorageID: parsed.PublicID}, nil
}
