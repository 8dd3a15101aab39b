package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"roomlister/models"
	"roomlister/normalize"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)
	rentRe       = regexp.MustCompile(`(?i)rent\D{0,12}?([\d,]+(?:\.\d+)?\s*(?:k|lakh|lac|cr)?)`)
	depositRe    = regexp.MustCompile(`(?i)(?:deposit|advance|security)\D{0,12}?([\d,]+(?:\.\d+)?\s*(?:k|lakh|lac|cr)?)`)
	phoneRunRe   = regexp.MustCompile(`\d{10,12}`)
	phoneStripRe = regexp.MustCompile(`[\s()+-]`)
)

// typeKeywords is ordered: more specific patterns first so "1 bhk" is not
// swallowed by a later match.
var typeKeywords = []struct {
	re    *regexp.Regexp
	value models.RoomType
}{
	{regexp.MustCompile(`(?i)\b3\s*bhk\b`), models.RoomTypeBHK3},
	{regexp.MustCompile(`(?i)\b2\s*bhk\b`), models.RoomTypeBHK2},
	{regexp.MustCompile(`(?i)\b1\s*bhk\b`), models.RoomTypeBHK1},
	{regexp.MustCompile(`(?i)\b1\s*rk\b|\brk\b`), models.RoomTypeRK},
	{regexp.MustCompile(`(?i)\bpg\b|paying\s+guest`), models.RoomTypePG},
	{regexp.MustCompile(`(?i)shar(?:ed|ing)`), models.RoomTypeShared},
}

var genderKeywords = []struct {
	re    *regexp.Regexp
	value models.Gender
}{
	{regexp.MustCompile(`(?i)\b(?:boys?|males?|gents|men)\b`), models.GenderBoys},
	{regexp.MustCompile(`(?i)\b(?:girls?|females?|ladies|women)\b`), models.GenderGirls},
}

// furnishingKeywords is ordered so "semi furnished" and "unfurnished" win
// over the bare "furnished" substring they both contain.
var furnishingKeywords = []struct {
	re    *regexp.Regexp
	value models.Furnishing
}{
	{regexp.MustCompile(`(?i)semi[\s_-]*furnished`), models.SemiFurnished},
	{regexp.MustCompile(`(?i)(?:un|not\s+|non[\s-]*)furnished`), models.Unfurnished},
	{regexp.MustCompile(`(?i)furnished`), models.Furnished},
}

// amenityKeywords maps message substrings to canonical amenity tokens.
var amenityKeywords = []struct {
	re    *regexp.Regexp
	token string
}{
	{regexp.MustCompile(`(?i)wi[\s-]*fi|internet|broadband`), "WIFI"},
	{regexp.MustCompile(`(?i)\ba\.?c\.?\b|air\s*condition`), "AC"},
	{regexp.MustCompile(`(?i)geyser|water\s*heater`), "GEYSER"},
	{regexp.MustCompile(`(?i)parking`), "PARKING"},
	{regexp.MustCompile(`(?i)\blift\b|elevator`), "LIFT"},
	{regexp.MustCompile(`(?i)washing\s*machine`), "WASHING_MACHINE"},
	{regexp.MustCompile(`(?i)fridge|refrigerator`), "FRIDGE"},
	{regexp.MustCompile(`(?i)power\s*back\s*-?up|generator|inverter`), "POWER_BACKUP"},
	{regexp.MustCompile(`(?i)cctv|security`), "SECURITY"},
	{regexp.MustCompile(`(?i)\bgym\b`), "GYM"},
	{regexp.MustCompile(`(?i)balcony`), "BALCONY"},
	{regexp.MustCompile(`(?i)\bcook\b|food|meals|tiffin`), "FOOD"},
}

// Fallback produces a low-confidence but fully populated candidate from a
// raw message using keyword and regex search only. It applies the same
// defaulting rules as the normalizer and never fails: with no recognizable
// keywords the result is all defaults.
func Fallback(message string, norm *normalize.Normalizer) models.ExtractedListing {
	text := Flatten(message)

	listing := models.ExtractedListing{
		Rent:        moneyAfter(rentRe, text),
		Deposit:     moneyAfter(depositRe, text),
		Type:        fallbackType(text),
		Area:        fallbackArea(text, norm),
		Gender:      fallbackGender(text),
		Furnishing:  fallbackFurnishing(text),
		Contact:     fallbackContact(text),
		Description: strings.TrimSpace(text),
		Amenities:   fallbackAmenities(text),
	}
	return norm.Listing(listing)
}

// Flatten reduces a pasted message to plain text. Messages copied out of
// web pages or chat exports arrive as HTML often enough that the fallback
// path strips markup before keyword search.
func Flatten(message string) string {
	if !htmlTagRe.MatchString(message) {
		return message
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(message))
	if err != nil {
		return message
	}
	doc.Find("script,style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func moneyAfter(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	return normalize.Money(m[1])
}

func fallbackType(text string) models.RoomType {
	for _, kw := range typeKeywords {
		if kw.re.MatchString(text) {
			return kw.value
		}
	}
	return normalize.Type("")
}

func fallbackGender(text string) models.Gender {
	for _, kw := range genderKeywords {
		if kw.re.MatchString(text) {
			return kw.value
		}
	}
	return models.GenderAnyone
}

func fallbackFurnishing(text string) models.Furnishing {
	for _, kw := range furnishingKeywords {
		if kw.re.MatchString(text) {
			return kw.value
		}
	}
	return models.Unfurnished
}

func fallbackArea(text string, norm *normalize.Normalizer) string {
	upper := strings.ToUpper(text)
	for _, loc := range norm.Localities() {
		if strings.Contains(upper, strings.ToUpper(loc)) {
			return loc
		}
	}
	return ""
}

// fallbackContact finds the first 10 to 12 digit run once separators are
// collapsed, then trims a leading country code down to 10 digits.
func fallbackContact(text string) string {
	collapsed := phoneStripRe.ReplaceAllString(text, "")
	run := phoneRunRe.FindString(collapsed)
	if run == "" {
		return ""
	}
	return normalize.Contact(run)
}

func fallbackAmenities(text string) []string {
	var found []string
	for _, kw := range amenityKeywords {
		if kw.re.MatchString(text) {
			found = append(found, kw.token)
		}
	}
	return found
}
