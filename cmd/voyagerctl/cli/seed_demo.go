package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/voyager-travel/voyager/internal/app"
	"github.com/voyager-travel/voyager/internal/payments"
	"github.com/voyager-travel/voyager/internal/queries"
	"github.com/voyager-travel/voyager/internal/servicelines"
	"github.com/voyager-travel/voyager/internal/vendors"
)

func newSeedDemoCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Load sample vendors, queries, service lines and a payment",
		Long:  "Load sample records into an empty database. Vendor names are unique, so a second run fails with a conflict.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := rt.wire(cmd.Context())
			if err != nil {
				return err
			}
			return seedDemo(cmd.Context(), services, cmd.OutOrStdout())
		},
	}
}

func seedDemo(ctx context.Context, s *app.Services, out io.Writer) error {
	fmt.Fprintln(out, "→ Seeding vendors...")
	vendorIDs := map[string]int64{}
	for _, req := range []vendors.CreateVendorRequest{
		{Name: "Al Safwa Hotels", Type: "Hotel", ContactPerson: "Khalid", Phone: "+966 12 555 0101", CreditDays: 15},
		{Name: "Skyline Ticketing", Type: "Airline", ContactPerson: "Sana", Email: "desk@skyline.example", CreditDays: 7},
		{Name: "Makkah Transport Co", Type: "Transport", CreditDays: 0},
	} {
		v, err := s.Vendors.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("seed vendor %s: %w", req.Name, err)
		}
		vendorIDs[v.Name] = v.ID
	}

	fmt.Fprintln(out, "→ Seeding queries...")
	travel := time.Now().AddDate(0, 1, 0)
	q, err := s.Queries.Create(ctx, queries.CreateQueryRequest{
		ClientName:  "Ayesha Siddiqui",
		ClientPhone: "+92 300 5550101",
		Destination: "Makkah / Madinah",
		TravelDate:  travel.Format("2006-01-02"),
		ReturnDate:  travel.AddDate(0, 0, 14).Format("2006-01-02"),
		Adults:      2,
		Source:      "Walk-in",
	})
	if err != nil {
		return fmt.Errorf("seed query: %w", err)
	}

	fmt.Fprintln(out, "→ Seeding service lines...")
	hotel := vendorIDs["Al Safwa Hotels"]
	air := vendorIDs["Skyline Ticketing"]
	rate := decimal.NewFromInt(75)
	lines := []servicelines.CreateRequest{
		{
			QueryID: q.ID, VendorID: &hotel, ServiceType: "Hotel", Description: "5 nights, quad room", City: "Makkah",
			ServiceDate: travel.Format("2006-01-02"),
			Purchase:    servicelines.MoneyInput{Amount: decimal.NewFromInt(2400), Currency: "SAR", ExchangeRate: &rate},
			Selling:     servicelines.MoneyInput{Amount: decimal.NewFromInt(2900), Currency: "SAR", ExchangeRate: &rate},
			Status:      "Confirmed",
		},
		{
			QueryID: q.ID, VendorID: &air, ServiceType: "Flight", Description: "KHI-JED return x2",
			ServiceDate: travel.Format("2006-01-02"),
			Purchase:    servicelines.MoneyInput{Amount: decimal.NewFromInt(360000), Currency: "PKR"},
			Selling:     servicelines.MoneyInput{Amount: decimal.NewFromInt(395000), Currency: "PKR"},
			Status:      "Confirmed",
		},
	}
	for _, req := range lines {
		if _, err := s.ServiceLines.Create(ctx, req); err != nil {
			return fmt.Errorf("seed service line %q: %w", req.Description, err)
		}
	}

	fmt.Fprintln(out, "→ Seeding payments...")
	if _, err := s.Payments.Record(ctx, payments.RecordRequest{
		VendorID:    air,
		Amount:      decimal.NewFromInt(200000),
		Method:      string(payments.MethodBankTransfer),
		PaymentDate: time.Now().Format("2006-01-02"),
		Notes:       "Advance against group fares",
	}, ""); err != nil {
		return fmt.Errorf("seed payment: %w", err)
	}

	fmt.Fprintf(out, "✓ demo data ready, query %s\n", q.QueryNumber)
	return nil
}
