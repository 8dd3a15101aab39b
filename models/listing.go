package models

import "time"

type RoomType string

const (
	RoomTypeRK      RoomType = "RK"
	RoomTypeBHK1    RoomType = "BHK1"
	RoomTypeBHK2    RoomType = "BHK2"
	RoomTypeBHK3    RoomType = "BHK3"
	RoomTypeShared  RoomType = "SHARED"
	RoomTypePG      RoomType = "PG"
	RoomTypeUnknown RoomType = "UNKNOWN"
)

type Gender string

const (
	GenderBoys   Gender = "BOYS"
	GenderGirls  Gender = "GIRLS"
	GenderAnyone Gender = "ANYONE"
)

type Furnishing string

const (
	Furnished     Furnishing = "FURNISHED"
	SemiFurnished Furnishing = "SEMI_FURNISHED"
	Unfurnished   Furnishing = "UNFURNISHED"
)

type ImageLabel string

const (
	LabelBedroom  ImageLabel = "BEDROOM"
	LabelHall     ImageLabel = "HALL"
	LabelKitchen  ImageLabel = "KITCHEN"
	LabelBathroom ImageLabel = "BATHROOM"
	LabelExterior ImageLabel = "EXTERIOR"
	LabelBalcony  ImageLabel = "BALCONY"
	LabelParking  ImageLabel = "PARKING"
	LabelOther    ImageLabel = "OTHER"
)

// ExtractedListing is the canonical structured form of a free-text rental
// message, produced either by the remote extraction API or by the local
// regex fallback. Enum fields always hold a value from their declared set.
type ExtractedListing struct {
	Rent        int        `json:"rent"`
	Deposit     int        `json:"deposit"`
	Type        RoomType   `json:"type"`
	Area        string     `json:"area"`
	Gender      Gender     `json:"gender"`
	Furnishing  Furnishing `json:"furnishing"`
	Contact     string     `json:"contact"`
	Description string     `json:"description"`
	Amenities   []string   `json:"amenities"`
}

// ImageMeta is the per-image metadata carried in a listing payload.
type ImageMeta struct {
	URL     string     `json:"url"`
	Label   ImageLabel `json:"label"`
	Caption string     `json:"caption,omitempty"`
	Seq     int        `json:"seq"`
}

// ListingPayload is the body submitted to the listings API.
type ListingPayload struct {
	Rent        int         `json:"rent"`
	Deposit     int         `json:"deposit"`
	Type        RoomType    `json:"type"`
	Area        string      `json:"area"`
	Gender      Gender      `json:"gender"`
	Furnishing  Furnishing  `json:"furnishing"`
	Contact     string      `json:"contact"`
	Description string      `json:"description"`
	Amenities   []string    `json:"amenities"`
	Images      []ImageMeta `json:"images"`
}

// RemoteListing is a listing as returned by the listings API.
type RemoteListing struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Active    bool           `json:"active"`
	ListingPayload
}

// SearchQuery narrows a listings search.
type SearchQuery struct {
	Area    string   `json:"area,omitempty"`
	Type    RoomType `json:"type,omitempty"`
	MaxRent int      `json:"max_rent,omitempty"`
	Gender  Gender   `json:"gender,omitempty"`
	Page    int      `json:"page,omitempty"`
	PerPage int      `json:"per_page,omitempty"`
}
