package models

import (
	"strings"
	"time"
)

type Purpose string

const (
	PurposeSale Purpose = "sale"
	PurposeRent Purpose = "rent"
)

type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Amenities are independent boolean flags shown on a listing.
type Amenities struct {
	Parking         bool `json:"parking"`
	SwimmingPool    bool `json:"swimming_pool"`
	Gym             bool `json:"gym"`
	Garden          bool `json:"garden"`
	Balcony         bool `json:"balcony"`
	Security        bool `json:"security"`
	Elevator        bool `json:"elevator"`
	Furnished       bool `json:"furnished"`
	AirConditioning bool `json:"air_conditioning"`
	Internet        bool `json:"internet"`
	PetFriendly     bool `json:"pet_friendly"`
	Laundry         bool `json:"laundry"`
}

// Property is stored in the "properties" collection keyed by UUID.
type Property struct {
	UUID         string        `json:"uuid"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        float64       `json:"price"`
	Currency     string        `json:"currency"`
	Purpose      Purpose       `json:"purpose"`
	Bedrooms     int           `json:"bedrooms"`
	Bathrooms    int           `json:"bathrooms"`
	Area         float64       `json:"area"`
	PropertyType string        `json:"property_type"`
	Address      Address       `json:"address"`
	ContactInfo  ContactInfo   `json:"contact_info"`
	Amenities    Amenities     `json:"amenities"`
	Images       []string      `json:"images"`
	IsListed     bool          `json:"is_listed"`
	IsSold       bool          `json:"is_sold"`
	IsFeatured   bool          `json:"is_featured"`
	OwnerID      string        `json:"owner_id,omitempty"`
	ListedAt     time.Time     `json:"listed_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Appointments []Appointment `json:"appointments"`
}

// Available reports whether the property should show up in browse results.
func (p Property) Available() bool {
	return p.IsListed && !p.IsSold
}

// PropertyType is a shared tag created ad hoc by any user ("propertytype" collection).
type PropertyType struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// NormalizeTypeName folds a property type name for duplicate checks.
func NormalizeTypeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ImageFile is an image picked by the user, not yet uploaded.
type ImageFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data"`
}
