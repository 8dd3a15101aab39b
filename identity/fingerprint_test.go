package identity

import (
	"testing"

	"roomlister/models"
)

func TestFingerprintStableAcrossRewording(t *testing.T) {
	a := &models.ExtractedListing{
		Contact: "9876543210",
		Area:    "Koramangala",
		Rent:    9000,
		Type:    models.RoomTypeBHK1,
		// Description varies between posts of the same room.
		Description: "Spacious 1bhk near the metro, call now!",
	}
	b := &models.ExtractedListing{
		Contact:     "9876543210",
		Area:        "  KORAMANGALA ",
		Rent:        9000,
		Type:        models.RoomTypeBHK1,
		Description: "1BHK available immediately.",
	}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("same room with reworded text should share a fingerprint")
	}
}

func TestFingerprintDiffersOnIdentityFields(t *testing.T) {
	base := models.ExtractedListing{
		Contact: "9876543210",
		Area:    "Koramangala",
		Rent:    9000,
		Type:    models.RoomTypeBHK1,
	}

	otherRent := base
	otherRent.Rent = 12000
	otherContact := base
	otherContact.Contact = "9123456789"
	otherType := base
	otherType.Type = models.RoomTypeBHK2

	fp := Fingerprint(&base)
	for name, l := range map[string]models.ExtractedListing{
		"rent":    otherRent,
		"contact": otherContact,
		"type":    otherType,
	} {
		if Fingerprint(&l) == fp {
			t.Errorf("changing %s should change the fingerprint", name)
		}
	}
}
