// Package ledger builds vendor statements from service-line purchases and payments.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType distinguishes debit and credit rows.
type EntryType string

const (
	EntryPurchase EntryType = "purchase"
	EntryPayment  EntryType = "payment"
)

// Purchase is a service line attributed to the vendor.
type Purchase struct {
	LineID      int64
	QueryID     int64
	QueryNumber string
	ServiceType string
	Description string
	ServiceDate *time.Time
	CreatedAt   time.Time
	AmountBase  decimal.Decimal
	SellingBase decimal.Decimal
	Reference   string
}

// Payment is a settlement made to the vendor.
type Payment struct {
	ID          int64
	Amount      decimal.Decimal
	Method      string
	PaymentDate time.Time
	CreatedAt   time.Time
	Reference   string
	Notes       string
}

// Entry is one statement row.
type Entry struct {
	Date           time.Time       `json:"date"`
	Type           EntryType       `json:"type"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	Reference      string          `json:"reference"`
	SourceID       int64           `json:"source_id"`

	createdAt time.Time
}

// Summary totals a statement.
type Summary struct {
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	TotalPayments    decimal.Decimal `json:"total_payments"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	TransactionCount int             `json:"transaction_count"`
}

// Ledger is a vendor statement, newest entry first.
type Ledger struct {
	VendorID   int64   `json:"vendor_id"`
	VendorName string  `json:"vendor_name,omitempty"`
	Entries    []Entry `json:"entries"`
	Summary    Summary `json:"summary"`
}

// Chronological returns the entries oldest first.
func (l Ledger) Chronological() []Entry {
	out := make([]Entry, len(l.Entries))
	for i, e := range l.Entries {
		out[len(l.Entries)-1-i] = e
	}
	return out
}

// Build merges purchases (debits) and payments (credits), computes running
// balances in chronological order and only then reverses for presentation.
//
// Order: calendar day ascending, then creation time, then purchases before
// payments, then source id.
func Build(purchases []Purchase, payments []Payment) Ledger {
	entries := make([]Entry, 0, len(purchases)+len(payments))
	for _, p := range purchases {
		date := p.CreatedAt
		if p.ServiceDate != nil && !p.ServiceDate.IsZero() {
			date = *p.ServiceDate
		}
		entries = append(entries, Entry{
			Date:        dayOf(date),
			Type:        EntryPurchase,
			Description: purchaseDescription(p),
			Debit:       p.AmountBase,
			Credit:      decimal.Zero,
			Reference:   purchaseReference(p),
			SourceID:    p.LineID,
			createdAt:   p.CreatedAt,
		})
	}
	for _, p := range payments {
		entries = append(entries, Entry{
			Date:        dayOf(p.PaymentDate),
			Type:        EntryPayment,
			Description: paymentDescription(p),
			Debit:       decimal.Zero,
			Credit:      p.Amount,
			Reference:   p.Reference,
			SourceID:    p.ID,
			createdAt:   p.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		if a.Type != b.Type {
			return a.Type == EntryPurchase
		}
		return a.SourceID < b.SourceID
	})

	summary := Summary{TotalPurchases: decimal.Zero, TotalPayments: decimal.Zero}
	running := decimal.Zero
	for i := range entries {
		running = running.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].RunningBalance = running
		summary.TotalPurchases = summary.TotalPurchases.Add(entries[i].Debit)
		summary.TotalPayments = summary.TotalPayments.Add(entries[i].Credit)
	}
	summary.CurrentBalance = summary.TotalPurchases.Sub(summary.TotalPayments)
	summary.TransactionCount = len(entries)

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return Ledger{Entries: entries, Summary: summary}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func purchaseDescription(p Purchase) string {
	desc := p.Description
	if p.ServiceType != "" {
		desc = p.ServiceType + ": " + desc
	}
	if p.QueryNumber != "" {
		desc += " (" + p.QueryNumber + ")"
	}
	return desc
}

func purchaseReference(p Purchase) string {
	if p.Reference != "" {
		return p.Reference
	}
	return p.QueryNumber
}

func paymentDescription(p Payment) string {
	desc := "Payment"
	if p.Method != "" {
		desc += " via " + p.Method
	}
	if p.Notes != "" {
		desc += " - " + p.Notes
	}
	return desc
}
