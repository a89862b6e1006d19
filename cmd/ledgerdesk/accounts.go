package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dvloznov/ledgerdesk/internal/accounts"
	"github.com/dvloznov/ledgerdesk/internal/domain"
)

const (
	bankAccounts = domain.AccountTypeBank
	creditCards  = domain.AccountTypeCreditCard
)

// registry loads the accounts of kind for companyID.
func (a *app) registry(kind domain.AccountType, companyID string) *accounts.Registry {
	reg := accounts.NewRegistry(accounts.NewHTTPService(a.client, kind), companyID, a.log)
	ctx, cancel := a.context()
	defer cancel()
	if err := reg.Load(ctx); err != nil {
		a.fail(err, "Failed to load accounts.")
	}
	return reg
}

func (a *app) resolve(reg *accounts.Registry, query string) domain.Account {
	acc, err := reg.Resolve(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: no single account matches %q\n", query)
		os.Exit(1)
	}
	return acc
}

func (a *app) runAccounts(kind domain.AccountType, args []string) {
	cmd := "accounts"
	if kind == creditCards {
		cmd = "cards"
	}
	sub, args := subcommand(cmd, args, "list", "create", "update", "delete")

	fs := flag.NewFlagSet(cmd+" "+sub, flag.ExitOnError)
	company := a.companyFlag(fs)
	account := fs.String("account", "", "Account ID, last four digits or name")
	name := fs.String("name", "", "Account name")
	institution := fs.String("institution", "", "Bank or card issuer")
	lastFour := fs.String("last4", "", "Last four digits of the account number")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	reg := a.registry(kind, *company)
	ctx, cancel := a.context()
	defer cancel()

	switch sub {
	case "list":
		printAccounts(reg)

	case "create":
		acc, err := reg.Create(ctx, domain.AccountInput{
			Name:        *name,
			Institution: *institution,
			LastFour:    *lastFour,
			Type:        kind,
		})
		if err != nil {
			a.fail(err, "Failed to create account.")
		}
		fmt.Printf("Created %s %q (%s)\n", kind.Label(), acc.Name, acc.ID)

	case "update":
		if *account == "" {
			a.log.Fatal().Msg("Usage: " + cmd + " update -account ID [-name N] [-institution I] [-last4 NNNN]")
		}
		cur := a.resolve(reg, *account)
		in := domain.AccountInput{
			CompanyID:   cur.CompanyID,
			Name:        cur.Name,
			Institution: cur.Institution,
			LastFour:    cur.LastFour,
			Type:        cur.Type,
		}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				in.Name = *name
			case "institution":
				in.Institution = *institution
			case "last4":
				in.LastFour = *lastFour
			}
		})
		acc, err := reg.Update(ctx, cur.ID, in)
		if err != nil {
			a.fail(err, "Failed to update account.")
		}
		fmt.Printf("Updated %q (%s)\n", acc.Name, acc.ID)

	case "delete":
		if *account == "" {
			a.log.Fatal().Msg("Usage: " + cmd + " delete -account ID [-yes]")
		}
		cur := a.resolve(reg, *account)
		if err := reg.Delete(ctx, cur.ID, a.confirm(*yes)); err != nil {
			a.fail(err, "Failed to delete account.")
		}
		fmt.Printf("Deleted %q\n", cur.Name)
		if sel, ok := reg.Selected(); ok {
			fmt.Printf("Selected: %s\n", sel.Name)
		}
	}
}

func printAccounts(reg *accounts.Registry) {
	items := reg.Accounts()
	if len(items) == 0 {
		fmt.Println("No accounts yet.")
		return
	}
	selected := reg.SelectedID()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tINSTITUTION\tNUMBER")
	for _, acc := range items {
		mark := ""
		if acc.ID == selected {
			mark = "*"
		}
		number := ""
		if acc.LastFour != "" {
			number = "•••• " + acc.LastFour
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, acc.ID, acc.Name, acc.Institution, number)
	}
	w.Flush()
}
