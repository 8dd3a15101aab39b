package extract

import (
	"testing"

	"roomlister/models"
)

func TestFallbackFullMessage(t *testing.T) {
	msg := `2 BHK available in HSR Layout for rent 18k, deposit 1 lakh.
Semi furnished, wifi and parking available. Only for girls.
Contact: +91 98765 43210`

	got := Fallback(msg, testNormalizer())

	if got.Rent != 18000 {
		t.Errorf("rent = %d; want 18000", got.Rent)
	}
	if got.Deposit != 100000 {
		t.Errorf("deposit = %d; want 100000", got.Deposit)
	}
	if got.Type != models.RoomTypeBHK2 {
		t.Errorf("type = %s; want BHK2", got.Type)
	}
	if got.Area != "HSR Layout" {
		t.Errorf("area = %q; want HSR Layout", got.Area)
	}
	if got.Gender != models.GenderGirls {
		t.Errorf("gender = %s; want GIRLS", got.Gender)
	}
	if got.Furnishing != models.SemiFurnished {
		t.Errorf("furnishing = %s; want SEMI_FURNISHED", got.Furnishing)
	}
	if got.Contact != "9876543210" {
		t.Errorf("contact = %q; want 9876543210", got.Contact)
	}
	hasWifi, hasParking := false, false
	for _, a := range got.Amenities {
		if a == "WIFI" {
			hasWifi = true
		}
		if a == "PARKING" {
			hasParking = true
		}
	}
	if !hasWifi || !hasParking {
		t.Errorf("amenities = %v; want WIFI and PARKING present", got.Amenities)
	}
}

func TestFallbackNeverEmptyOnGibberish(t *testing.T) {
	got := Fallback("lorem ipsum dolor sit amet", testNormalizer())

	if got.Rent != 0 || got.Deposit != 0 {
		t.Errorf("rent/deposit = %d/%d; want 0/0", got.Rent, got.Deposit)
	}
	if got.Type != models.RoomTypeShared {
		t.Errorf("type = %s; want SHARED default", got.Type)
	}
	if got.Gender != models.GenderAnyone {
		t.Errorf("gender = %s; want ANYONE default", got.Gender)
	}
	if got.Furnishing != models.Unfurnished {
		t.Errorf("furnishing = %s; want UNFURNISHED default", got.Furnishing)
	}
	if got.Contact != "" {
		t.Errorf("contact = %q; want empty", got.Contact)
	}
	if got.Description == "" {
		t.Error("description should carry the original message")
	}
}

func TestFallbackFlattensHTMLPaste(t *testing.T) {
	msg := `<div><p>1 BHK in <b>Indiranagar</b></p><p>Rent 12k, fully furnished.</p>` +
		`<script>alert("x")</script><p>Call 9876543210</p></div>`

	got := Fallback(msg, testNormalizer())

	if got.Type != models.RoomTypeBHK1 {
		t.Errorf("type = %s; want BHK1", got.Type)
	}
	if got.Area != "Indiranagar" {
		t.Errorf("area = %q; want Indiranagar", got.Area)
	}
	if got.Rent != 12000 {
		t.Errorf("rent = %d; want 12000", got.Rent)
	}
	if got.Furnishing != models.Furnished {
		t.Errorf("furnishing = %s; want FURNISHED", got.Furnishing)
	}
	if got.Contact != "9876543210" {
		t.Errorf("contact = %q; want 9876543210", got.Contact)
	}
}

func TestFallbackUnfurnishedBeatsBareFurnished(t *testing.T) {
	got := Fallback("1bhk unfurnished, rent 10k", testNormalizer())
	if got.Furnishing != models.Unfurnished {
		t.Errorf("furnishing = %s; want UNFURNISHED", got.Furnishing)
	}
}
