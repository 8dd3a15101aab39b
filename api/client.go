// Package api is the client for the remote listings service. The service
// is the system of record; nothing here persists listing data locally.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"roomlister/models"
)

// SessionSource yields the locally persisted auth state attached to every
// request.
type SessionSource interface {
	CurrentSession() (models.Session, error)
}

// Client talks HTTP+JSON to the listings API.
type Client struct {
	baseURL string
	client  *http.Client
	session SessionSource
}

// NewClient creates a listings client. A nil httpClient gets a generous
// fixed timeout; image uploads do not go through this client and are not
// bound by it.
func NewClient(baseURL string, httpClient *http.Client, session SessionSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		client:  httpClient,
		session: session,
	}
}

// Create publishes a new listing and returns the stored copy.
func (c *Client) Create(ctx context.Context, payload models.ListingPayload) (*models.RemoteListing, error) {
	var out models.RemoteListing
	if err := c.do(ctx, http.MethodPost, "/listings", payload, &out); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return &out, nil
}

// Update replaces an existing listing owned by the current user.
func (c *Client) Update(ctx context.Context, id string, payload models.ListingPayload) (*models.RemoteListing, error) {
	var out models.RemoteListing
	if err := c.do(ctx, http.MethodPut, "/listings/"+url.PathEscape(id), payload, &out); err != nil {
		return nil, fmt.Errorf("update listing %s: %w", id, err)
	}
	return &out, nil
}

// Delete removes a listing owned by the current user.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/listings/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}
	return nil
}

// Get fetches one listing by id.
func (c *Client) Get(ctx context.Context, id string) (*models.RemoteListing, error) {
	var out models.RemoteListing
	if err := c.do(ctx, http.MethodGet, "/listings/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	return &out, nil
}

// Search queries listings by area, type, rent ceiling and gender.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) ([]models.RemoteListing, error) {
	var out []models.RemoteListing
	if err := c.do(ctx, http.MethodPost, "/listings/search", q, &out); err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return out, nil
}

// ListOwn fetches every listing belonging to the current user.
func (c *Client) ListOwn(ctx context.Context) ([]models.RemoteListing, error) {
	var out []models.RemoteListing
	if err := c.do(ctx, http.MethodGet, "/users/me/listings", nil, &out); err != nil {
		return nil, fmt.Errorf("list own listings: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	session, err := c.session.CurrentSession()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session.Token == "" {
		return fmt.Errorf("not signed in: no session token stored")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.Token)
	req.Header.Set("X-User-Id", session.UserID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("listings API error %d: %s", resp.StatusCode, respBody)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
