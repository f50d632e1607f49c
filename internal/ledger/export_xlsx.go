package ledger

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const statementSheet = "Statement"

// WriteXLSX writes the statement as a workbook, oldest entry first, with the
// summary block under the entries.
func WriteXLSX(w io.Writer, l Ledger) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return err
	}
	header := []any{"Date", "Type", "Description", "Reference", "Debit", "Credit", "Balance"}
	if err := f.SetSheetRow(statementSheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, e := range l.Chronological() {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{
			e.Date.Format("2006-01-02"),
			string(e.Type),
			e.Description,
			e.Reference,
			e.Debit.InexactFloat64(),
			e.Credit.InexactFloat64(),
			e.RunningBalance.InexactFloat64(),
		}
		if err := f.SetSheetRow(statementSheet, cell, &values); err != nil {
			return err
		}
		row++
	}

	row++
	summary := [][]any{
		{"Total Purchases", l.Summary.TotalPurchases.InexactFloat64()},
		{"Total Payments", l.Summary.TotalPayments.InexactFloat64()},
		{"Current Balance", l.Summary.CurrentBalance.InexactFloat64()},
		{"Transactions", l.Summary.TransactionCount},
	}
	for _, values := range summary {
		cell, err := excelize.CoordinatesToCellName(3, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(statementSheet, cell, &values); err != nil {
			return err
		}
		row++
	}

	// 4 is the builtin "#,##0.00" format.
	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	if err := f.SetColStyle(statementSheet, "E:G", style); err != nil {
		return err
	}
	if err := f.SetColWidth(statementSheet, "C", "C", 48); err != nil {
		return err
	}
	return f.Write(w)
}
