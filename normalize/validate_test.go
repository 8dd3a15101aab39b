package normalize

import (
	"reflect"
	"strings"
	"testing"

	"roomlister/models"
)

func validListing() models.ExtractedListing {
	return models.ExtractedListing{
		Rent:        8000,
		Deposit:     20000,
		Type:        models.RoomTypeBHK1,
		Area:        "Koramangala",
		Gender:      models.GenderAnyone,
		Furnishing:  models.SemiFurnished,
		Contact:     "9876543210",
		Description: "Spacious 1BHK near the metro station, ready to move in.",
		Amenities:   []string{"WIFI"},
	}
}

func TestValidateAcceptsCompleteListing(t *testing.T) {
	if errs := Validate(validListing()); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestValidateFlagsEachField(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ExtractedListing)
		keyword string
	}{
		{"low rent", func(l *models.ExtractedListing) { l.Rent = 100 }, "rent"},
		{"negative deposit", func(l *models.ExtractedListing) { l.Deposit = -1 }, "deposit"},
		{"unknown type", func(l *models.ExtractedListing) { l.Type = models.RoomTypeUnknown }, "type"},
		{"short area", func(l *models.ExtractedListing) { l.Area = "ab" }, "area"},
		{"unset gender", func(l *models.ExtractedListing) { l.Gender = "" }, "gender"},
		{"unset furnishing", func(l *models.ExtractedListing) { l.Furnishing = "" }, "furnishing"},
		{"short contact", func(l *models.ExtractedListing) { l.Contact = "12345" }, "contact"},
		{"short description", func(l *models.ExtractedListing) { l.Description = "tiny" }, "description"},
	}

	for _, tt := range tests {
		l := validListing()
		tt.mutate(&l)
		errs := Validate(l)
		if len(errs) == 0 {
			t.Errorf("%s: expected a validation error, got none", tt.name)
			continue
		}
		found := false
		for _, e := range errs {
			if strings.Contains(e, tt.keyword) {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: no error mentioning %q in %v", tt.name, tt.keyword, errs)
		}
	}
}

func TestValidateContactAlwaysReported(t *testing.T) {
	l := validListing()
	l.Contact = "98765"
	l.Rent = 100
	l.Type = models.RoomTypeUnknown

	errs := Validate(l)
	found := false
	for _, e := range errs {
		if strings.Contains(e, "contact") {
			found = true
		}
	}
	if !found {
		t.Fatalf("contact error missing from %v", errs)
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	l := validListing()
	before := validListing()
	Validate(l)
	if !reflect.DeepEqual(l, before) {
		t.Fatal("Validate mutated its input")
	}
}
