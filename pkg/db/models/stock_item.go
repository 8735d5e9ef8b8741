package models

import (
	"time"

	"github.com/google/uuid"
)

// StockItem is a countable consumable (chargers, mice, ...).
// Invariant: 0 <= Available <= Total at all times.
type StockItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Total     int       `gorm:"column:total;not null;default:0"`
	Available int       `gorm:"column:available;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// InUse reports how many units are currently out on loan.
func (s StockItem) InUse() int {
	if n := s.Total - s.Available; n > 0 {
		return n
	}
	return 0
}
