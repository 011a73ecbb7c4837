package client

import (
	"github.com/google/uuid"
)

// User is a console user as listed by /v1/users/.
type User struct {
	ID          uuid.UUID `json:"ID"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"isActive"`
	IsSuperUser bool      `json:"isSuperUser"`
	IsAdmin     bool      `json:"isAdmin"`
	FullName    string    `json:"fullName,omitempty"`
	Acronym     string    `json:"acronym,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	LastSeenAt  string    `json:"lastSeenAt,omitempty"`
}

// Item is a catalog product as listed by /v1/items/.
type Item struct {
	ID       uuid.UUID `json:"ID"`
	Position int       `json:"position"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Images   []string  `json:"images"`
	Category string    `json:"category"`
	ItemURL  string    `json:"item_url"`
	Language string    `json:"language"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	Status   bool      `json:"status"`
	OwnerID  uuid.UUID `json:"owner_id"`
}

// Post is a blog post as listed by /v1/blog/.
type Post struct {
	ID       uuid.UUID `json:"ID"`
	Position int       `json:"position"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Images   []string  `json:"images"`
	Status   bool      `json:"status"`
	OwnerID  uuid.UUID `json:"owner_id"`
}

// ListResponse is the envelope of every list endpoint. Users answer with
// {"data", "count"}, items and posts with {"Data", "Count"}; JSON field
// matching is case-insensitive so one type decodes both.
type ListResponse[T any] struct {
	Data  []T  `json:"data"`
	Count *int `json:"count,omitempty"`
}
