package models

import "time"

// Item is one entry of the user's kit.
type Item struct {
	ID             int64     `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Category       string    `json:"category" yaml:"category"`
	Quantity       int64     `json:"quantity" yaml:"quantity"`
	Unit           string    `json:"unit" yaml:"unit"`
	ExpirationDate string    `json:"expiration_date,omitempty" yaml:"expiration_date"`
	Notes          string    `json:"notes,omitempty" yaml:"notes"`
	IsChecked      bool      `json:"is_checked" yaml:"is_checked"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
}

// HasExpiration reports whether the item carries an expiration date.
func (i Item) HasExpiration() bool {
	return i.ExpirationDate != ""
}

// NewItem is the input of a store insert: an item without id and timestamps.
type NewItem struct {
	Name           string `json:"name" yaml:"name"`
	Category       string `json:"category" yaml:"category"`
	Quantity       int64  `json:"quantity" yaml:"quantity"`
	Unit           string `json:"unit" yaml:"unit"`
	ExpirationDate string `json:"expiration_date,omitempty" yaml:"expiration_date"`
	Notes          string `json:"notes,omitempty" yaml:"notes"`
	IsChecked      bool   `json:"is_checked" yaml:"is_checked"`
}

// ItemPatch is a partial update. Nil fields are left untouched; an empty
// ExpirationDate or Notes clears the column.
type ItemPatch struct {
	Name           *string `json:"name,omitempty"`
	Category       *string `json:"category,omitempty"`
	Quantity       *int64  `json:"quantity,omitempty"`
	Unit           *string `json:"unit,omitempty"`
	ExpirationDate *string `json:"expiration_date,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	IsChecked      *bool   `json:"is_checked,omitempty"`
}

// IsEmpty reports whether the patch carries no field at all.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.Quantity == nil && p.Unit == nil &&
		p.ExpirationDate == nil && p.Notes == nil && p.IsChecked == nil
}
