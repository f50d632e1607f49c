package vendors

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vendor is a supplier of travel services. The total_* fields are a cache
// rebuilt from service lines and payments; nothing writes them directly.
type Vendor struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	ContactPerson     string          `json:"contact_person,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Email             string          `json:"email,omitempty"`
	Address           string          `json:"address,omitempty"`
	BankName          string          `json:"bank_name,omitempty"`
	AccountTitle      string          `json:"account_title,omitempty"`
	AccountNumber     string          `json:"account_number,omitempty"`
	IBAN              string          `json:"iban,omitempty"`
	CreditDays        int             `json:"credit_days"`
	Notes             string          `json:"notes,omitempty"`
	TotalBusiness     decimal.Decimal `json:"total_business"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalPending      decimal.Decimal `json:"total_pending"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
	TotalsRefreshedAt *time.Time      `json:"totals_refreshed_at,omitempty"`
	IsDeleted         bool            `json:"is_deleted"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
	CreatedBy         int64           `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Filter selects vendors by deletion state.
type Filter string

const (
	FilterActive  Filter = "active"
	FilterDeleted Filter = "deleted"
	FilterAll     Filter = "all"
)

// ParseFilter defaults unknown values to active.
func ParseFilter(v string) Filter {
	switch Filter(v) {
	case FilterDeleted, FilterAll:
		return Filter(v)
	default:
		return FilterActive
	}
}

// ListRequest holds listing filters.
type ListRequest struct {
	Filter Filter
	Search string
	Type   string
	Page   int
	Limit  int
}

// CreateVendorRequest is the payload for creating a vendor.
type CreateVendorRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Type          string `json:"type" validate:"omitempty,max=50"`
	ContactPerson string `json:"contact_person" validate:"omitempty,max=120"`
	Phone         string `json:"phone" validate:"omitempty,max=40"`
	Email         string `json:"email" validate:"omitempty,email"`
	Address       string `json:"address" validate:"omitempty,max=500"`
	BankName      string `json:"bank_name" validate:"omitempty,max=120"`
	AccountTitle  string `json:"account_title" validate:"omitempty,max=120"`
	AccountNumber string `json:"account_number" validate:"omitempty,max=60"`
	IBAN          string `json:"iban" validate:"omitempty,max=34"`
	CreditDays    int    `json:"credit_days" validate:"gte=0,lte=365"`
	Notes         string `json:"notes"`
}

// UpdateVendorRequest carries optional changes.
type UpdateVendorRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Type          *string `json:"type" validate:"omitempty,max=50"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=120"`
	Phone         *string `json:"phone" validate:"omitempty,max=40"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	BankName      *string `json:"bank_name" validate:"omitempty,max=120"`
	AccountTitle  *string `json:"account_title" validate:"omitempty,max=120"`
	AccountNumber *string `json:"account_number" validate:"omitempty,max=60"`
	IBAN          *string `json:"iban" validate:"omitempty,max=34"`
	CreditDays    *int    `json:"credit_days" validate:"omitempty,gte=0,lte=365"`
	Notes         *string `json:"notes"`
}

func (req UpdateVendorRequest) apply(v *Vendor) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&v.Name, req.Name)
	set(&v.Type, req.Type)
	set(&v.ContactPerson, req.ContactPerson)
	set(&v.Phone, req.Phone)
	set(&v.Email, req.Email)
	set(&v.Address, req.Address)
	set(&v.BankName, req.BankName)
	set(&v.AccountTitle, req.AccountTitle)
	set(&v.AccountNumber, req.AccountNumber)
	set(&v.IBAN, req.IBAN)
	set(&v.Notes, req.Notes)
	if req.CreditDays != nil {
		v.CreditDays = *req.CreditDays
	}
}
