package model

import "time"

// Restaurant is the public-facing info hub of a RESTAURANT account.
// Exactly one row exists per restaurant user; it carries the
// descriptive profile shown on the browse pages.  Image references
// are stored in the `restaurant_images` table.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – owning RESTAURANT account.
//  Name         – display name of the venue.
//  AboutUs      – free-text description.
//  OpeningHours – human-readable opening hours.
//  Phone        – contact phone number.
//  Address      – street address.
//  City         – city, used for discovery filtering.
//  State        – state/region, used for discovery filtering.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Restaurant struct {
	ID           uint64    // restaurants.id
	UserID       uint64    // restaurants.user_id
	Name         string    // restaurants.name
	AboutUs      *string   // restaurants.about_us (nullable)
	OpeningHours *string   // restaurants.opening_hours (nullable)
	Phone        *string   // restaurants.phone (nullable)
	Address      *string   // restaurants.address (nullable)
	City         *string   // restaurants.city (nullable)
	State        *string   // restaurants.state (nullable)
	CreatedAt    time.Time // restaurants.created_at
	UpdatedAt    time.Time // restaurants.updated_at
}

// RestaurantImage is a reference to an externally hosted image shown
// on a restaurant's info hub.  Kind distinguishes the logo from
// gallery photos.  Image bytes are never stored by this service.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant the image belongs to.
//  Kind         – "logo" or "gallery".
//  URL          – location of the hosted image.
//  CreatedAt    – creation timestamp.
type RestaurantImage struct {
	ID           uint64    // restaurant_images.id
	RestaurantID uint64    // restaurant_images.restaurant_id
	Kind         string    // restaurant_images.kind
	URL          string    // restaurant_images.url
	CreatedAt    time.Time // restaurant_images.created_at
}
