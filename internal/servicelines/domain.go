package servicelines

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voyager-travel/voyager/internal/money"
)

// ServiceType classifies a purchased service.
type ServiceType string

const (
	TypeHotel     ServiceType = "Hotel"
	TypeFlight    ServiceType = "Flight"
	TypeTransport ServiceType = "Transport"
	TypeVisa      ServiceType = "Visa"
	TypeInsurance ServiceType = "Insurance"
	TypeTours     ServiceType = "Tours"
	TypeOther     ServiceType = "Other"
)

// ServiceTypes lists every accepted service type.
var ServiceTypes = []ServiceType{TypeHotel, TypeFlight, TypeTransport, TypeVisa, TypeInsurance, TypeTours, TypeOther}

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	for _, known := range ServiceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// LineStatus tracks a booking with the vendor.
type LineStatus string

const (
	LineDraft     LineStatus = "Draft"
	LineConfirmed LineStatus = "Confirmed"
	LineCancelled LineStatus = "Cancelled"
)

// ServiceLine is one purchased and resold service on a query.
type ServiceLine struct {
	ID               int64       `json:"id"`
	QueryID          int64       `json:"query_id"`
	VendorID         *int64      `json:"vendor_id"`
	VendorName       string      `json:"vendor_name,omitempty"`
	ServiceType      ServiceType `json:"service_type"`
	Description      string      `json:"description"`
	City             string      `json:"city,omitempty"`
	ServiceDate      *time.Time  `json:"service_date,omitempty"`
	Purchase         money.Money `json:"purchase"`
	Selling          money.Money `json:"selling"`
	BookingReference string      `json:"booking_reference,omitempty"`
	Status           LineStatus  `json:"status"`
	Notes            string      `json:"notes,omitempty"`
	CreatedBy        int64       `json:"created_by,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Profit is selling minus purchase in the base currency.
func (l ServiceLine) Profit() decimal.Decimal {
	return l.Selling.AmountBase.Sub(l.Purchase.AmountBase)
}

// ProfitMargin is profit as a percentage of selling, zero when nothing is sold.
func (l ServiceLine) ProfitMargin() decimal.Decimal {
	if l.Selling.AmountBase.IsZero() {
		return decimal.Zero
	}
	return l.Profit().Div(l.Selling.AmountBase).Mul(decimal.NewFromInt(100)).Round(2)
}

// LossWarning reports whether the line sells below cost.
func (l ServiceLine) LossWarning() bool {
	return l.Selling.AmountBase.LessThan(l.Purchase.AmountBase)
}

// MarshalJSON adds the derived figures to the stored fields.
func (l ServiceLine) MarshalJSON() ([]byte, error) {
	type stored ServiceLine
	return json.Marshal(struct {
		stored
		Profit       decimal.Decimal `json:"profit"`
		ProfitMargin decimal.Decimal `json:"profit_margin"`
		LossWarning  bool            `json:"loss_warning"`
	}{
		stored:       stored(l),
		Profit:       l.Profit(),
		ProfitMargin: l.ProfitMargin(),
		LossWarning:  l.LossWarning(),
	})
}

// MoneyInput is an amount as entered: original currency plus rate to base.
type MoneyInput struct {
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
}

// CreateRequest adds a service line to a query.
type CreateRequest struct {
	QueryID          int64      `json:"query_id" validate:"required,gt=0"`
	VendorID         *int64     `json:"vendor_id" validate:"omitempty,gt=0"`
	VendorName       string     `json:"vendor_name" validate:"omitempty,max=200"`
	ServiceType      string     `json:"service_type" validate:"required,oneof=Hotel Flight Transport Visa Insurance Tours Other"`
	Description      string     `json:"description" validate:"required,max=500"`
	City             string     `json:"city" validate:"omitempty,max=100"`
	ServiceDate      string     `json:"service_date" validate:"omitempty,datetime=2006-01-02"`
	Purchase         MoneyInput `json:"purchase"`
	Selling          MoneyInput `json:"selling"`
	BookingReference string     `json:"booking_reference" validate:"omitempty,max=100"`
	Status           string     `json:"status" validate:"omitempty,oneof=Draft Confirmed Cancelled"`
	Notes            string     `json:"notes"`
}

// UpdateRequest patches a service line. Nil fields are left untouched.
// vendor_name only applies to lines without a linked vendor; DetachVendor
// unlinks the vendor and keeps vendor_name, if sent, as free text.
type UpdateRequest struct {
	VendorID         *int64      `json:"vendor_id" validate:"omitempty,gt=0"`
	DetachVendor     bool        `json:"detach_vendor"`
	VendorName       *string     `json:"vendor_name" validate:"omitempty,max=200"`
	ServiceType      *string     `json:"service_type" validate:"omitempty,oneof=Hotel Flight Transport Visa Insurance Tours Other"`
	Description      *string     `json:"description" validate:"omitempty,max=500"`
	City             *string     `json:"city" validate:"omitempty,max=100"`
	ServiceDate      *string     `json:"service_date"`
	Purchase         *MoneyInput `json:"purchase"`
	Selling          *MoneyInput `json:"selling"`
	BookingReference *string     `json:"booking_reference" validate:"omitempty,max=100"`
	Status           *string     `json:"status" validate:"omitempty,oneof=Draft Confirmed Cancelled"`
	Notes            *string     `json:"notes"`
}

// PreviewRequest carries just the amounts needed to compute profit.
type PreviewRequest struct {
	Purchase MoneyInput `json:"purchase"`
	Selling  MoneyInput `json:"selling"`
}

// Preview is the derived outcome of a pair of amounts.
type Preview struct {
	Purchase     money.Money     `json:"purchase"`
	Selling      money.Money     `json:"selling"`
	Profit       decimal.Decimal `json:"profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
	LossWarning  bool            `json:"loss_warning"`
	Message      string          `json:"message,omitempty"`
}

// ListRequest filters service lines.
type ListRequest struct {
	QueryID  *int64
	VendorID *int64
}
