// Package domain defines the core types shared across the application.
package domain

import "time"

// Subjects a listing can be filed under.
var Subjects = []string{
	"Computer Science",
	"Electrical Engineering",
	"Mechanical Engineering",
	"Civil Engineering",
	"Physics",
	"Chemistry",
	"Mathematics",
	"Biology",
	"Economics",
	"Business",
	"Others",
}

// Conditions a listed book can be in.
var Conditions = []string{
	"New",
	"Used - Like New",
	"Used - Good",
	"Used - Fair",
}

// ExchangeTypes supported for a listing.
var ExchangeTypes = []string{"Sell", "Lend"}

// Book is a textbook listing offered by a student.
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Subject      string    `json:"subject"`
	Condition    string    `json:"condition"`
	ExchangeType string    `json:"exchange_type"`
	Image        string    `json:"image"` // base64-encoded data URL
	ContactInfo  string    `json:"contact_info"`
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner_name,omitempty"`
	OwnerEmail   string    `json:"owner_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateBook is the input for creating a listing.
type CreateBook struct {
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	Condition    string `json:"condition"`
	ExchangeType string `json:"exchange_type"`
	Image        string `json:"image"`
	ContactInfo  string `json:"contact_info"`
}

// UpdateBook is the input for updating a listing. Nil fields are left unchanged.
type UpdateBook struct {
	Title        *string `json:"title,omitempty"`
	Subject      *string `json:"subject,omitempty"`
	Condition    *string `json:"condition,omitempty"`
	ExchangeType *string `json:"exchange_type,omitempty"`
	Image        *string `json:"image,omitempty"`
	ContactInfo  *string `json:"contact_info,omitempty"`
}
