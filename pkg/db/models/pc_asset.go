package models

import (
	"time"

	"github.com/google/uuid"
)

// PCAsset is a uniquely tagged physical machine. Whether it is loaned out is
// derived from the loans table, never stored here.
type PCAsset struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OKNumber string    `gorm:"column:ok_number;type:text;not null;uniqueIndex"`
	Model    string    `gorm:"column:model;type:text;not null"`
	Notes    string    `gorm:"column:notes;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PCAsset) TableName() string { return "pc_assets" }
