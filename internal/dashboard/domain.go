package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusCount is the number of rows in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// LineTotals sums every service line in base currency.
type LineTotals struct {
	Lines    int             `json:"lines"`
	Purchase decimal.Decimal `json:"total_purchase"`
	Selling  decimal.Decimal `json:"total_selling"`
	Profit   decimal.Decimal `json:"total_profit"`
}

// InvoiceBucket aggregates invoices sharing a status.
type InvoiceBucket struct {
	Status string          `json:"status"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// PendingVendor is a vendor the agency still owes money to.
type PendingVendor struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	TotalPending decimal.Decimal `json:"total_pending"`
}

// VendorSummary covers the active vendor base.
type VendorSummary struct {
	Active       int             `json:"active"`
	TotalPending decimal.Decimal `json:"total_pending"`
	TopPending   []PendingVendor `json:"top_pending"`
}

// Overview is the dashboard payload.
type Overview struct {
	Queries     []StatusCount   `json:"queries_by_status"`
	Totals      LineTotals      `json:"totals"`
	Invoices    []InvoiceBucket `json:"invoices_by_status"`
	Vendors     VendorSummary   `json:"vendors"`
	GeneratedAt time.Time       `json:"generated_at"`
}
