package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voyager-travel/voyager/internal/money"
	"github.com/voyager-travel/voyager/web"
)

// ErrPDFUnavailable is returned when no renderer is configured.
var ErrPDFUnavailable = errors.New("ledger: pdf renderer not configured")

var statementTemplate = template.Must(template.New("vendor_statement.html").Funcs(template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006")
	},
	"formatAmount": func(d decimal.Decimal) string {
		if d.IsZero() {
			return "-"
		}
		return money.Format(d, money.Base, false)
	},
}).ParseFS(web.Templates, "templates/reports/vendor_statement.html"))

// WriteCSV writes the statement oldest first followed by the summary rows.
func WriteCSV(w io.Writer, l Ledger) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Type", "Description", "Reference", "Debit", "Credit", "Balance"}); err != nil {
		return err
	}
	for _, e := range l.Chronological() {
		if err := writer.Write([]string{
			e.Date.Format("2006-01-02"),
			string(e.Type),
			e.Description,
			e.Reference,
			e.Debit.StringFixed(2),
			e.Credit.StringFixed(2),
			e.RunningBalance.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	records := [][]string{
		{"", "", "Total Purchases", "", l.Summary.TotalPurchases.StringFixed(2), "", ""},
		{"", "", "Total Payments", "", "", l.Summary.TotalPayments.StringFixed(2), ""},
		{"", "", "Current Balance", "", "", "", l.Summary.CurrentBalance.StringFixed(2)},
		{"", "", "Transactions", "", "", "", strconv.Itoa(l.Summary.TransactionCount)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

type statementView struct {
	Ledger
	GeneratedAt time.Time
}

// RenderStatementHTML renders the printable statement, oldest entry first.
func RenderStatementHTML(l Ledger, generatedAt time.Time) (string, error) {
	view := statementView{Ledger: l, GeneratedAt: generatedAt}
	view.Entries = l.Chronological()
	buf := &bytes.Buffer{}
	if err := statementTemplate.Execute(buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportPDF builds the vendor ledger and renders it as a PDF statement.
func (s *Service) ExportPDF(ctx context.Context, vendorID int64) ([]byte, Ledger, error) {
	if s.renderer == nil {
		return nil, Ledger{}, ErrPDFUnavailable
	}
	l, err := s.BuildLedger(ctx, vendorID)
	if err != nil {
		return nil, Ledger{}, err
	}
	html, err := RenderStatementHTML(l, time.Now().In(s.loc))
	if err != nil {
		return nil, Ledger{}, err
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, Ledger{}, err
	}
	return pdf, l, nil
}
