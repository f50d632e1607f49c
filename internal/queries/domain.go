package queries

import (
	"time"

	"github.com/shopspring/decimal"
)

// Query is a client travel inquiry and, once confirmed, the booking file.
type Query struct {
	ID          int64      `json:"id"`
	QueryNumber string     `json:"query_number"`
	ClientName  string     `json:"client_name"`
	ClientEmail string     `json:"client_email,omitempty"`
	ClientPhone string     `json:"client_phone,omitempty"`
	Destination string     `json:"destination,omitempty"`
	TravelDate  *time.Time `json:"travel_date,omitempty"`
	ReturnDate  *time.Time `json:"return_date,omitempty"`
	Adults      int        `json:"adults"`
	Children    int        `json:"children"`
	Infants     int        `json:"infants"`
	Source      string     `json:"source,omitempty"`
	Status      Status     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	CreatedBy   int64      `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Totals             *Totals     `json:"totals,omitempty"`
	Passengers         []Passenger `json:"passengers,omitempty"`
	AllowedTransitions []Status    `json:"allowed_transitions,omitempty"`
}

// PassengerCount is adults plus children plus infants.
func (q Query) PassengerCount() int {
	return q.Adults + q.Children + q.Infants
}

// LineSums aggregates the service lines of one query.
type LineSums struct {
	Purchase decimal.Decimal
	Selling  decimal.Decimal
	Count    int
}

// Totals are derived from current service lines on every read.
type Totals struct {
	TotalPurchase    decimal.Decimal `json:"total_purchase"`
	TotalSelling     decimal.Decimal `json:"total_selling"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	PerPassengerCost decimal.Decimal `json:"per_passenger_cost"`
	LineCount        int             `json:"line_count"`
}

// ComputeTotals derives query totals. Per-passenger cost is zero without passengers.
func ComputeTotals(sums LineSums, passengers int) Totals {
	t := Totals{
		TotalPurchase:    sums.Purchase,
		TotalSelling:     sums.Selling,
		TotalProfit:      sums.Selling.Sub(sums.Purchase),
		PerPassengerCost: decimal.Zero,
		LineCount:        sums.Count,
	}
	if passengers > 0 {
		t.PerPassengerCost = sums.Selling.Div(decimal.NewFromInt(int64(passengers))).Round(2)
	}
	return t
}

// PassengerType classifies a traveller by age band.
type PassengerType string

const (
	PassengerAdult  PassengerType = "ADULT"
	PassengerChild  PassengerType = "CHILD"
	PassengerInfant PassengerType = "INFANT"
)

// Passenger is a traveller on a query.
type Passenger struct {
	ID             int64         `json:"id"`
	QueryID        int64         `json:"query_id"`
	FullName       string        `json:"full_name"`
	PassengerType  PassengerType `json:"passenger_type"`
	PassportNumber string        `json:"passport_number,omitempty"`
	PassportExpiry *time.Time    `json:"passport_expiry,omitempty"`
	Nationality    string        `json:"nationality,omitempty"`
	DateOfBirth    *time.Time    `json:"date_of_birth,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ListRequest filters the query listing.
type ListRequest struct {
	Status Status
	Search string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// CreateQueryRequest is the intake payload.
type CreateQueryRequest struct {
	ClientName  string `json:"client_name" validate:"required,max=200"`
	ClientEmail string `json:"client_email" validate:"omitempty,email"`
	ClientPhone string `json:"client_phone" validate:"omitempty,max=40"`
	Destination string `json:"destination" validate:"omitempty,max=200"`
	TravelDate  string `json:"travel_date" validate:"omitempty,datetime=2006-01-02"`
	ReturnDate  string `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
	Adults      int    `json:"adults" validate:"gte=0,lte=500"`
	Children    int    `json:"children" validate:"gte=0,lte=500"`
	Infants     int    `json:"infants" validate:"gte=0,lte=500"`
	Source      string `json:"source" validate:"omitempty,max=60"`
	Notes       string `json:"notes"`
}

// ChangeStatusRequest moves a query through the workflow.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AddPassengerRequest adds a traveller to a query.
type AddPassengerRequest struct {
	FullName       string `json:"full_name" validate:"required,max=200"`
	PassengerType  string `json:"passenger_type" validate:"required,oneof=ADULT CHILD INFANT"`
	PassportNumber string `json:"passport_number" validate:"omitempty,max=30"`
	PassportExpiry string `json:"passport_expiry" validate:"omitempty,datetime=2006-01-02"`
	Nationality    string `json:"nationality" validate:"omitempty,max=60"`
	DateOfBirth    string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}
