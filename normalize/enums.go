package normalize

import (
	"regexp"
	"strings"

	"roomlister/models"
)

var typeTable = map[string]models.RoomType{
	"RK":           models.RoomTypeRK,
	"1RK":          models.RoomTypeRK,
	"1 RK":         models.RoomTypeRK,
	"1BHK":         models.RoomTypeBHK1,
	"1 BHK":        models.RoomTypeBHK1,
	"BHK1":         models.RoomTypeBHK1,
	"2BHK":         models.RoomTypeBHK2,
	"2 BHK":        models.RoomTypeBHK2,
	"BHK2":         models.RoomTypeBHK2,
	"3BHK":         models.RoomTypeBHK3,
	"3 BHK":        models.RoomTypeBHK3,
	"BHK3":         models.RoomTypeBHK3,
	"SHARED":       models.RoomTypeShared,
	"SHARING":      models.RoomTypeShared,
	"SHARED ROOM":  models.RoomTypeShared,
	"PG":           models.RoomTypePG,
	"PAYING GUEST": models.RoomTypePG,
	"UNKNOWN":      models.RoomTypeUnknown,
}

var genderTable = map[string]models.Gender{
	"BOYS":   models.GenderBoys,
	"BOY":    models.GenderBoys,
	"MALE":   models.GenderBoys,
	"MALES":  models.GenderBoys,
	"MEN":    models.GenderBoys,
	"GENTS":  models.GenderBoys,
	"GIRLS":  models.GenderGirls,
	"GIRL":   models.GenderGirls,
	"FEMALE": models.GenderGirls,
	"WOMEN":  models.GenderGirls,
	"LADIES": models.GenderGirls,
	"ANYONE": models.GenderAnyone,
	"ANY":    models.GenderAnyone,
	"ALL":    models.GenderAnyone,
	"FAMILY": models.GenderAnyone,
	"COED":   models.GenderAnyone,
}

var furnishingTable = map[string]models.Furnishing{
	"FURNISHED":       models.Furnished,
	"FULLY FURNISHED": models.Furnished,
	"FULL FURNISHED":  models.Furnished,
	"SEMI_FURNISHED":  models.SemiFurnished,
	"SEMI FURNISHED":  models.SemiFurnished,
	"SEMI-FURNISHED":  models.SemiFurnished,
	"SEMIFURNISHED":   models.SemiFurnished,
	"UNFURNISHED":     models.Unfurnished,
	"NOT FURNISHED":   models.Unfurnished,
	"NON FURNISHED":   models.Unfurnished,
}

// Type maps free text to a canonical room type; unmapped input falls back
// to SHARED rather than erroring.
func Type(s string) models.RoomType {
	if t, ok := typeTable[upperTrim(s)]; ok {
		return t
	}
	return models.RoomTypeShared
}

// Gender maps free text to a canonical gender preference, ANYONE by default.
func Gender(s string) models.Gender {
	if g, ok := genderTable[upperTrim(s)]; ok {
		return g
	}
	return models.GenderAnyone
}

// Furnishing maps free text to a canonical furnishing level, UNFURNISHED by
// default.
func Furnishing(s string) models.Furnishing {
	if f, ok := furnishingTable[upperTrim(s)]; ok {
		return f
	}
	return models.Unfurnished
}

// Amenities dedupes amenity tokens case/whitespace-insensitively and drops
// empties, keeping first-seen order of the canonical uppercase forms.
func Amenities(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		token := upperTrim(item)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

var nonDigitRe = regexp.MustCompile(`\D`)

// Contact strips everything but digits and keeps the last 10, so numbers
// with a leading country code still come out as the local subscriber number.
func Contact(s string) string {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// Normalizer canonicalizes free-text fields against a known-locality set.
type Normalizer struct {
	localities []string
}

// New creates a Normalizer with the given known localities.
func New(localities []string) *Normalizer {
	return &Normalizer{localities: localities}
}

// Area best-effort matches input against the known localities using
// case-insensitive bidirectional containment; the first match wins. Input
// that matches nothing is returned trimmed, never blanked.
func (n *Normalizer) Area(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return trimmed
	}
	upper := strings.ToUpper(trimmed)
	for _, loc := range n.localities {
		locUpper := strings.ToUpper(loc)
		if strings.Contains(upper, locUpper) || strings.Contains(locUpper, upper) {
			return loc
		}
	}
	return trimmed
}

// Localities returns the known-locality set backing Area.
func (n *Normalizer) Localities() []string {
	return n.localities
}

// Listing canonicalizes every enum and free-text field of a candidate in
// place, applying the documented defaults for unmapped values.
func (n *Normalizer) Listing(l models.ExtractedListing) models.ExtractedListing {
	l.Type = Type(string(l.Type))
	l.Gender = Gender(string(l.Gender))
	l.Furnishing = Furnishing(string(l.Furnishing))
	l.Area = n.Area(l.Area)
	l.Amenities = Amenities(l.Amenities)
	l.Contact = Contact(l.Contact)
	l.Description = strings.TrimSpace(l.Description)
	return l
}

func upperTrim(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
