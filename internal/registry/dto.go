package registry

import (
	"time"

	"github.com/google/uuid"
)

// CreatePCInput carries the fields for registering a PC asset.
type CreatePCInput struct {
	OKNumber string
	Model    string
	Notes    string
}

// UpdatePCInput carries the replacement fields for a PC asset.
type UpdatePCInput struct {
	OKNumber string
	Model    string
	Notes    string
}

// PCView is the read model for a PC asset, including the derived loan state.
type PCView struct {
	ID          uuid.UUID `json:"id"`
	OKNumber    string    `json:"ok_number"`
	Model       string    `json:"model"`
	Notes       string    `json:"notes"`
	IsLoanedOut bool      `json:"is_loaned_out"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateItemInput carries the fields for registering a stock item.
type CreateItemInput struct {
	Name  string
	Total int
}

// UpdateItemInput carries the replacement fields for a stock item.
type UpdateItemInput struct {
	Name  string
	Total int
}

// ItemView is the read model for a stock item.
type ItemView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Total     int       `json:"total"`
	Available int       `json:"available"`
	InUse     int       `json:"in_use"`
	LowStock  bool      `json:"low_stock"`
	CreatedAt time.Time `json:"created_at"`
}

// LowStockThreshold marks an item as running low when available drops to or
// below this count while total is positive.
const LowStockThreshold = 2
