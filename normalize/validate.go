package normalize

import (
	"fmt"
	"strings"

	"roomlister/models"
)

const (
	// MinRent is the lowest monthly rent the marketplace accepts.
	MinRent = 500
	// MinAreaLen guards against one- and two-letter locality typos.
	MinAreaLen = 3
	// MinDescriptionLen keeps listings from going out with empty blurbs.
	MinDescriptionLen = 20
	// ContactDigits is the expected subscriber-number length.
	ContactDigits = 10
)

// Validate inspects a normalized candidate and returns zero or more
// human-readable reasons it cannot be submitted. It never mutates the
// candidate; an empty result means submit-ready.
func Validate(l models.ExtractedListing) []string {
	var errs []string

	if l.Rent < MinRent {
		errs = append(errs, fmt.Sprintf("rent must be at least ₹%d per month", MinRent))
	}
	if l.Deposit < 0 {
		errs = append(errs, "deposit cannot be negative")
	}
	if l.Type == "" || l.Type == models.RoomTypeUnknown {
		errs = append(errs, "room type is missing: pick one of RK, 1/2/3 BHK, shared or PG")
	}
	if len(strings.TrimSpace(l.Area)) < MinAreaLen {
		errs = append(errs, "area is too short to locate the listing")
	}
	if l.Gender == "" {
		errs = append(errs, "gender preference is not set")
	}
	if l.Furnishing == "" {
		errs = append(errs, "furnishing level is not set")
	}
	if len(l.Contact) != ContactDigits {
		errs = append(errs, fmt.Sprintf("contact number must be exactly %d digits", ContactDigits))
	}
	if len(strings.TrimSpace(l.Description)) < MinDescriptionLen {
		errs = append(errs, fmt.Sprintf("description must be at least %d characters", MinDescriptionLen))
	}

	return errs
}
