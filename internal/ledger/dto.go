package ledger

import (
	"time"

	"github.com/google/uuid"
)

// LoanInput carries the writable loan fields shared by create and edit.
type LoanInput struct {
	BorrowerName  string
	BorrowerPhone string
	ClassLabel    string
	Item          string
	Reason        string
	ValueLabel    string
	DueDate       string
	PCID          *uuid.UUID
	StockItemID   *uuid.UUID
}

// LoanView is the read model for a loan. Overdue is derived against the
// request's local "today", never stored.
type LoanView struct {
	ID            uuid.UUID  `json:"id"`
	BorrowerName  string     `json:"borrower_name"`
	BorrowerPhone string     `json:"borrower_phone"`
	ClassLabel    string     `json:"class_label"`
	Item          string     `json:"item"`
	Reason        string     `json:"reason"`
	ValueLabel    string     `json:"value_label"`
	CheckoutAt    time.Time  `json:"checkout_at"`
	DueOn         *string    `json:"due_on"`
	ReturnedAt    *time.Time `json:"returned_at"`
	IsReturned    bool       `json:"is_returned"`
	Overdue       bool       `json:"overdue"`
	UserID        uuid.UUID  `json:"user_id"`
	PCID          *uuid.UUID `json:"pc_id"`
	PCOKNumber    string     `json:"pc_ok_number,omitempty"`
	StockItemID   *uuid.UUID `json:"stock_item_id"`
	StockItemName string     `json:"stock_item_name,omitempty"`
}

// LoanList is a cursor page of loans.
type LoanList struct {
	Loans      []LoanView `json:"loans"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ListFilters narrows the loan listing.
type ListFilters struct {
	State string // "active", "returned" or "" for all
}

// ReturnResult reports the outcome of a return call. The operation is
// idempotent; a second call reports AlreadyReturned instead of failing.
type ReturnResult struct {
	AlreadyReturned bool     `json:"already_returned"`
	Loan            LoanView `json:"loan"`
}

// BorrowerDefaults is the auto-fill payload from a borrower's latest loan.
type BorrowerDefaults struct {
	BorrowerName  string     `json:"borrower_name"`
	BorrowerPhone string     `json:"borrower_phone"`
	ClassLabel    string     `json:"class_label"`
	Item          string     `json:"item"`
	PCID          *uuid.UUID `json:"pc_id"`
}
