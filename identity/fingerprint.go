package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"roomlister/models"
)

var (
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Fingerprint derives a stable identity for a listing from the fields that
// survive rewording: contact number, area, rent and room type. Two drafts
// with the same fingerprint are treated as the same listing for dedupe.
func Fingerprint(listing *models.ExtractedListing) string {
	input := fmt.Sprintf("%s|%s|%d|%s",
		normalizeToken(listing.Contact),
		normalizeToken(listing.Area),
		listing.Rent,
		strings.ToLower(string(listing.Type)),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRegex.ReplaceAllString(s, " ")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
