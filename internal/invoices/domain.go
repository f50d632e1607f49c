package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle of an invoice.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusCancelled},
	StatusSent:  {StatusPaid, StatusCancelled},
}

// CanMove reports whether an invoice in from may move to to.
func CanMove(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invoice bills a client for a query. Amount is a snapshot of the query's
// selling total at issue time.
type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	QueryID       int64           `json:"query_id"`
	QueryNumber   string          `json:"query_number,omitempty"`
	ClientName    string          `json:"client_name,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        Status          `json:"status"`
	IssuedAt      time.Time       `json:"issued_at"`
	DueAt         time.Time       `json:"due_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     int64           `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IssueRequest is the payload of POST /invoices.
type IssueRequest struct {
	QueryID int64  `json:"query_id" validate:"required,gt=0"`
	DueDays int    `json:"due_days" validate:"gte=0,lte=365"`
	Notes   string `json:"notes"`
}

// ListRequest filters invoices.
type ListRequest struct {
	Status  Status
	QueryID *int64
	Page    int
	Limit   int
}
