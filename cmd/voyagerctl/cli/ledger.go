package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/voyager-travel/voyager/internal/ledger"
)

// statementExporter is the part of the ledger service export needs.
type statementExporter interface {
	BuildLedger(ctx context.Context, vendorID int64) (ledger.Ledger, error)
	ExportPDF(ctx context.Context, vendorID int64) ([]byte, ledger.Ledger, error)
}

func newLedgerCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Vendor ledger statements",
	}

	var (
		vendorID int64
		out      string
		format   string
	)
	export := &cobra.Command{
		Use:     "export",
		Short:   "Write a vendor statement as CSV, XLSX or PDF",
		Example: "  voyagerctl ledger export --vendor 12 --format pdf --out statement.pdf",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if vendorID <= 0 {
				return errors.New("--vendor is required")
			}
			switch format {
			case "csv", "xlsx", "pdf":
			default:
				return fmt.Errorf("unsupported format %q, use csv, xlsx or pdf", format)
			}
			services, err := rt.wire(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return exportStatement(cmd.Context(), services.Ledger, vendorID, format, w)
		},
	}
	export.Flags().Int64Var(&vendorID, "vendor", 0, "vendor id")
	export.Flags().StringVar(&out, "out", "-", "output file, - for stdout")
	export.Flags().StringVar(&format, "format", "csv", "csv, xlsx or pdf")

	cmd.AddCommand(export)
	return cmd
}

func exportStatement(ctx context.Context, svc statementExporter, vendorID int64, format string, w io.Writer) error {
	if format == "pdf" {
		pdf, _, err := svc.ExportPDF(ctx, vendorID)
		if err != nil {
			return err
		}
		_, err = w.Write(pdf)
		return err
	}
	l, err := svc.BuildLedger(ctx, vendorID)
	if err != nil {
		return err
	}
	if format == "xlsx" {
		return ledger.WriteXLSX(w, l)
	}
	return ledger.WriteCSV(w, l)
}
