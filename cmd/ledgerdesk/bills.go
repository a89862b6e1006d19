package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/bills"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/shopspring/decimal"
)

func (a *app) runBill(args []string) {
	sub, args := subcommand("bill", args, "list", "show", "set")

	fs := flag.NewFlagSet("bill "+sub, flag.ExitOnError)
	company := a.companyFlag(fs)
	id := fs.String("id", "", "Bill ID")
	item := fs.Int("item", 0, "Line item number, starting at 1")
	units := fs.String("units", "", "New units for -item")
	rate := fs.String("rate", "", "New rate for -item")
	desc := fs.String("desc", "", "New description for -item")
	add := fs.String("add", "", "Add a line item as \"description;units;rate\"")
	remove := fs.Int("remove", 0, "Remove line item number")
	tax := fs.String("tax", "", "New tax amount")
	fees := fs.String("fees", "", "New fees amount")
	subtotal := fs.String("subtotal", "", "Override the subtotal")
	page := fs.Int("page", 0, "Page number")
	limit := fs.Int("limit", 0, "Page size")
	fs.Parse(args)

	svc := bills.NewService(bills.NewHTTPBackend(a.client), *company, a.log)
	ctx, cancel := a.context()
	defer cancel()

	switch sub {
	case "list":
		res, err := svc.List(ctx, api.PageRequest{Page: *page, Limit: *limit})
		if err != nil {
			a.fail(err, "Failed to load bills.")
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVENDOR\tDUE\tSTATUS\tTOTAL")
		for _, b := range res.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s (%s)\t%s %s\n", b.ID, b.Vendor, b.DueDate, b.Status, b.Status.Tone(), b.Total.StringFixed(2), b.Currency)
		}
		w.Flush()

	case "show":
		e, err := svc.Edit(ctx, a.billID(*id))
		if err != nil {
			a.fail(err, "Failed to load bill.")
		}
		printBill(e.Bill())

	case "set":
		e, err := svc.Edit(ctx, a.billID(*id))
		if err != nil {
			a.fail(err, "Failed to load bill.")
		}
		if err := applyBillEdits(e, billEdits{
			item: *item, units: *units, rate: *rate, desc: *desc,
			add: *add, remove: *remove, tax: *tax, fees: *fees, subtotal: *subtotal,
		}); err != nil {
			a.fail(err, "Invalid bill change.")
		}
		saved, err := svc.Save(ctx, e)
		if err != nil {
			a.fail(err, "Failed to save bill.")
		}
		printBill(*saved)
	}
}

func (a *app) billID(id string) string {
	if id == "" {
		a.log.Fatal().Msg("-id is required")
	}
	return id
}

// billEdits are the requested changes; empty strings and zero numbers mean unchanged.
type billEdits struct {
	item                int
	units, rate, desc   string
	add                 string
	remove              int
	tax, fees, subtotal string
}

func applyBillEdits(e *bills.Editor, ed billEdits) error {
	if ed.item > 0 {
		i := ed.item - 1
		if ed.units != "" {
			d, err := parseAmount("units", ed.units)
			if err != nil {
				return err
			}
			if err := e.SetUnits(i, d); err != nil {
				return err
			}
		}
		if ed.rate != "" {
			d, err := parseAmount("rate", ed.rate)
			if err != nil {
				return err
			}
			if err := e.SetRate(i, d); err != nil {
				return err
			}
		}
		if ed.desc != "" {
			if err := e.SetDescription(i, ed.desc); err != nil {
				return err
			}
		}
	}
	if ed.add != "" {
		parts := strings.Split(ed.add, ";")
		if len(parts) != 3 {
			return api.Validation("Use -add \"description;units;rate\".")
		}
		u, err := parseAmount("units", parts[1])
		if err != nil {
			return err
		}
		r, err := parseAmount("rate", parts[2])
		if err != nil {
			return err
		}
		e.AddItem(strings.TrimSpace(parts[0]), u, r)
	}
	if ed.remove > 0 {
		if err := e.RemoveItem(ed.remove - 1); err != nil {
			return err
		}
	}
	if ed.subtotal != "" {
		d, err := parseAmount("subtotal", ed.subtotal)
		if err != nil {
			return err
		}
		e.SetSubtotal(d)
	}
	if ed.tax != "" {
		d, err := parseAmount("tax", ed.tax)
		if err != nil {
			return err
		}
		e.SetTax(d)
	}
	if ed.fees != "" {
		d, err := parseAmount("fees", ed.fees)
		if err != nil {
			return err
		}
		e.SetFees(d)
	}
	return nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, api.Validation("%s must be a number, got %q.", field, s)
	}
	return d, nil
}

func printBill(b domain.Bill) {
	fmt.Printf("%s  %s  %s (%s)\n", b.Vendor, b.Number, b.Status, b.Status.Tone())
	fmt.Printf("Issued %s, due %s\n\n", b.IssueDate, b.DueDate)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tDESCRIPTION\tUNITS\tRATE\tAMOUNT\t")
	for i, it := range b.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", i+1, it.Description, it.Units.String(), it.Rate.StringFixed(2), it.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t\t%s\t%s\t\n", "Subtotal", b.Subtotal.StringFixed(2))
	fmt.Fprintf(w, "\t\t\t%s\t%s\t\n", "Tax", b.Tax.StringFixed(2))
	fmt.Fprintf(w, "\t\t\t%s\t%s\t\n", "Fees", b.Fees.StringFixed(2))
	fmt.Fprintf(w, "\t\t\t%s\t%s %s\t\n", "Total", b.Total.StringFixed(2), b.Currency)
	w.Flush()
}
