package extract

import (
	"context"
	"log"

	"roomlister/models"
	"roomlister/normalize"
)

// Extractor tries the remote extraction API first and silently degrades to
// the regex fallback when the call fails or the response is unusable.
type Extractor struct {
	client *Client
	norm   *normalize.Normalizer
}

// NewExtractor creates an Extractor. A nil client means the extraction API
// is not configured and every message goes straight to the fallback.
func NewExtractor(client *Client, norm *normalize.Normalizer) *Extractor {
	return &Extractor{client: client, norm: norm}
}

// Extract returns a fully populated candidate for the message. It never
// fails; the worst case is an all-defaults fallback candidate.
func (e *Extractor) Extract(ctx context.Context, message string) models.ExtractedListing {
	if e.client != nil {
		listing, err := e.client.Extract(ctx, message)
		if err == nil {
			return listing
		}
		log.Printf("Extraction API unusable, falling back to regex: %v", err)
	}
	return Fallback(message, e.norm)
}
