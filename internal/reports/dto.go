package reports

import "github.com/google/uuid"

// LowStockItem is a stock item running low, surfaced on the dashboard.
type LowStockItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Total     int       `json:"total"`
	Available int       `json:"available"`
}

// Dashboard is the front-page summary, evaluated against one local "today".
type Dashboard struct {
	ActiveCount        int64          `json:"active_count"`
	OverdueCount       int64          `json:"overdue_count"`
	ReturnedTodayCount int64          `json:"returned_today_count"`
	TotalReturnedCount int64          `json:"total_returned_count"`
	LowStock           []LowStockItem `json:"low_stock"`
}

// CountRow is a label with its loan count, used for top-N rankings.
type CountRow struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// MonthRow is the loan count for one calendar month of checkouts.
type MonthRow struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

// Statistics is the statistics page payload.
type Statistics struct {
	TotalLoans        int64      `json:"total_loans"`
	ActiveLoans       int64      `json:"active_loans"`
	ReturnedLoans     int64      `json:"returned_loans"`
	DistinctBorrowers int64      `json:"distinct_borrowers"`
	DistinctItems     int64      `json:"distinct_items"`
	TopItems          []CountRow `json:"top_items"`
	TopClasses        []CountRow `json:"top_classes"`
	MonthlyTrend      []MonthRow `json:"monthly_trend"`
}
