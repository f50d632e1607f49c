package payments

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Method is how a vendor was paid.
type Method string

const (
	MethodCash         Method = "Cash"
	MethodBankTransfer Method = "Bank Transfer"
	MethodCheque       Method = "Cheque"
	MethodOnline       Method = "Online/UPI"
	MethodOther        Method = "Other"
)

// Methods lists accepted payment methods.
var Methods = []Method{MethodCash, MethodBankTransfer, MethodCheque, MethodOnline, MethodOther}

// ParseMethod matches a method case-insensitively.
func ParseMethod(raw string) (Method, bool) {
	for _, m := range Methods {
		if strings.EqualFold(string(m), strings.TrimSpace(raw)) {
			return m, true
		}
	}
	return "", false
}

// Payment is money sent to a vendor, in the base currency. Payments are
// never edited once recorded.
type Payment struct {
	ID                   int64           `json:"id"`
	VendorID             int64           `json:"vendor_id"`
	VendorName           string          `json:"vendor_name,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Method               Method          `json:"payment_method"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	PaymentDate          time.Time       `json:"payment_date"`
	Notes                string          `json:"notes,omitempty"`
	CreatedBy            int64           `json:"created_by,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// RecordRequest is the payload of POST /payments.
type RecordRequest struct {
	VendorID             int64           `json:"vendor_id" validate:"required,gt=0"`
	Amount               decimal.Decimal `json:"amount"`
	Method               string          `json:"payment_method" validate:"required"`
	TransactionReference string          `json:"transaction_reference" validate:"omitempty,max=100"`
	PaymentDate          string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Notes                string          `json:"notes"`
}

// ListRequest filters payments.
type ListRequest struct {
	VendorID *int64
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}
