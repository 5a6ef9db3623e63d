package models

// Pandal represents a directory entry.
type Pandal struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Area       string    `json:"area"`
	Point      Point     `json:"point"`
	Rating     float64   `json:"rating"`
	CrowdLevel string    `json:"crowdLevel"`
	Category   string    `json:"category"`
	Features   []string  `json:"features"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	CreatedAt  Timestamp `json:"createdAt"`
	UpdatedAt  Timestamp `json:"updatedAt"`
}

// PandalCreateRequest is the request body for creating a pandal.
type PandalCreateRequest struct {
	Name       string   `json:"name" validate:"required,min=1,max=120"`
	Address    string   `json:"address" validate:"required,max=200"`
	Area       string   `json:"area" validate:"required,max=80"`
	Point      Point    `json:"point" validate:"required"`
	Rating     float64  `json:"rating" validate:"gte=0,lte=5"`
	CrowdLevel string   `json:"crowdLevel" validate:"required"`
	Category   string   `json:"category" validate:"required"`
	Features   []string `json:"features,omitempty" validate:"omitempty,max=10,dive,max=40"`
	ImageURL   *string  `json:"imageUrl,omitempty" validate:"omitempty,max=512"`
}

// PandalUpdateRequest is the request body for updating a pandal.
type PandalUpdateRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Address    *string  `json:"address,omitempty" validate:"omitempty,max=200"`
	Area       *string  `json:"area,omitempty" validate:"omitempty,max=80"`
	Point      *Point   `json:"point,omitempty"`
	Rating     *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	CrowdLevel *string  `json:"crowdLevel,omitempty"`
	Category   *string  `json:"category,omitempty"`
	Features   []string `json:"features,omitempty" validate:"omitempty,max=10,dive,max=40"`
	ImageURL   *string  `json:"imageUrl,omitempty" validate:"omitempty,max=512"`
}

// PagedPandals represents a paginated list of pandals.
type PagedPandals struct {
	Items []Pandal          `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// NearbyPandal is a pandal annotated with its distance from the query point.
type NearbyPandal struct {
	Pandal     Pandal  `json:"pandal"`
	DistanceKm float64 `json:"distanceKm"`
}

// NearbyPandals is the response for a proximity search.
type NearbyPandals struct {
	Items    []NearbyPandal `json:"items"`
	RadiusKm float64        `json:"radiusKm"`
}
