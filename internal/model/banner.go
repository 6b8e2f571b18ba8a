package model

import "time"

// Banner is a promotional banner shown on the storefront.  DisplayOrder
// ranks banners for rendering; Active doubles as the business status and as
// the filter applied before a drag-and-drop reorder.
type Banner struct {
	ID           ID        `json:"id"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"image_url"`
	LinkURL      string    `json:"link_url,omitempty"`
	DisplayOrder int       `json:"display_order"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
