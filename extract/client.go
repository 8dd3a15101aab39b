package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"roomlister/models"
	"roomlister/normalize"
)

// Client calls the remote extraction API that turns a raw classified-ad
// message into structured listing fields.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	norm     *normalize.Normalizer
}

// NewClient creates an extraction client. The credentials are threaded in
// here once; nothing deeper reads the environment.
func NewClient(endpoint, apiKey string, httpClient *http.Client, norm *normalize.Normalizer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   httpClient,
		norm:     norm,
	}
}

type extractRequest struct {
	Message string `json:"message"`
}

// rawListing is the loosely typed shape the extraction service answers
// with. Rent and deposit may come back as numbers or as strings like "7k";
// amenities may contain junk entries.
type rawListing struct {
	Rent        flexAmount `json:"rent"`
	Deposit     flexAmount `json:"deposit"`
	Type        string     `json:"type"`
	Area        string     `json:"area"`
	Gender      string     `json:"gender"`
	Furnishing  string     `json:"furnishing"`
	Contact     string     `json:"contact"`
	Description string     `json:"description"`
	Amenities   []any      `json:"amenities"`
}

// flexAmount accepts a JSON number or a human-formatted string amount.
type flexAmount int

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = flexAmount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("amount is neither number nor string: %s", data)
	}
	*a = flexAmount(normalize.Money(s))
	return nil
}

// Extract sends the message to the extraction API and canonicalizes the
// response. The service tends to wrap its JSON in prose or code fences, so
// the first balanced object span is cut out before parsing and checked
// against the response schema.
func (c *Client) Extract(ctx context.Context, message string) (models.ExtractedListing, error) {
	var out models.ExtractedListing

	body, err := json.Marshal(extractRequest{Message: message})
	if err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return out, fmt.Errorf("extraction API error %d: %s", resp.StatusCode, respBody)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("read extraction response: %w", err)
	}

	span, ok := balancedObject(string(respBody))
	if !ok {
		return out, fmt.Errorf("no JSON object in extraction response")
	}

	if err := validateResponse(span); err != nil {
		return out, fmt.Errorf("extraction response schema: %w", err)
	}

	var raw rawListing
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return out, fmt.Errorf("decode extraction response: %w", err)
	}

	out = models.ExtractedListing{
		Rent:        int(raw.Rent),
		Deposit:     int(raw.Deposit),
		Type:        models.RoomType(raw.Type),
		Area:        raw.Area,
		Gender:      models.Gender(raw.Gender),
		Furnishing:  models.Furnishing(raw.Furnishing),
		Contact:     raw.Contact,
		Description: raw.Description,
		Amenities:   stringsOnly(raw.Amenities),
	}
	return c.norm.Listing(out), nil
}

// balancedObject returns the first balanced {...} span in s, tracking
// string literals and escapes so braces inside values do not break it.
func balancedObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}
	return "", false
}

func stringsOnly(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
