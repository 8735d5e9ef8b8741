package models

import (
	"time"

	"github.com/eliasfjaere/utlaan-backend/pkg/dates"
	"github.com/google/uuid"
)

// Loan is the central ledger record. Lifecycle: active -> returned (terminal)
// or deleted. Overdue is derived at read time, never stored.
type Loan struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BorrowerName  string     `gorm:"column:borrower_name;type:text;not null;index"`
	BorrowerPhone string     `gorm:"column:borrower_phone;type:text"`
	ClassLabel    string     `gorm:"column:class_label;type:text"`
	Item          string     `gorm:"column:item;type:text;not null"`
	Reason        string     `gorm:"column:reason;type:text"`
	ValueLabel    string     `gorm:"column:value_label;type:text"`
	CheckoutAt    time.Time  `gorm:"column:checkout_at;not null;index"`
	DueOn         *time.Time `gorm:"column:due_on;type:date"`
	ReturnedAt    *time.Time `gorm:"column:returned_at"`
	IsReturned    bool       `gorm:"column:is_returned;not null;default:false"`

	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	PCID        *uuid.UUID `gorm:"column:pc_id;type:uuid;index"`
	StockItemID *uuid.UUID `gorm:"column:stock_item_id;type:uuid;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	PC        *PCAsset   `gorm:"foreignKey:PCID"`
	StockItem *StockItem `gorm:"foreignKey:StockItemID"`
}

// Active reports whether the loan still holds its PC/stock reservation.
func (l Loan) Active() bool { return !l.IsReturned }

// OverdueOn reports whether the loan is overdue relative to the provided
// local calendar date. A returned loan is never overdue.
func (l Loan) OverdueOn(today time.Time) bool {
	if l.IsReturned || l.DueOn == nil {
		return false
	}
	return dates.BeforeDay(*l.DueOn, today)
}
