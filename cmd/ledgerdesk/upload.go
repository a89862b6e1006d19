package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/ledgerdesk/internal/accounts"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/upload"
)

// printNavigator shows where the user would be taken next.
type printNavigator struct{}

func (printNavigator) Navigate(route string) {
	fmt.Printf("Next: %s\n", route)
}

func (a *app) runUpload(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	company := a.companyFlag(fs)
	account := fs.String("account", "", "Account ID, last four digits, name, or \"new\"")
	kind := fs.String("type", "bank", "Account type: bank or card")
	name := fs.String("name", "", "Name of the new account (with -account new)")
	institution := fs.String("institution", "", "Institution of the new account (with -account new)")
	lastFour := fs.String("last4", "", "Last four digits of the new account (with -account new)")
	period := fs.String("period", "", "Statement period as YYYY-MM-DD..YYYY-MM-DD")
	fs.Parse(args)

	if fs.NArg() == 0 || *account == "" {
		fmt.Fprintln(os.Stderr, "Usage: ledgerdesk upload -account ID|new [-type bank|card] [-period START..END] FILE [FILE...]")
		os.Exit(1)
	}

	accountType, err := domain.ParseAccountType(*kind)
	if err != nil {
		a.log.Fatal().Err(err).Msg("Invalid -type")
	}

	sess := &upload.Session{
		Files:       fs.Args(),
		AccountType: accountType,
	}
	if *period != "" {
		p, err := domain.ParsePeriod(*period)
		if err != nil {
			a.log.Fatal().Err(err).Msg("Invalid -period")
		}
		sess.Period = p
	}

	reg := accounts.NewRegistry(accounts.NewHTTPService(a.client, accountType), *company, a.log)
	if *account == upload.NewAccountTarget {
		sess.Target = upload.NewAccountTarget
		sess.NewAccount = domain.AccountInput{
			Name:        *name,
			Institution: *institution,
			LastFour:    *lastFour,
			Type:        accountType,
		}
	} else {
		reg = a.registry(accountType, *company)
		sess.Target = a.resolve(reg, *account).ID
	}

	deps := upload.Deps{
		Accounts: reg,
		Loader:   upload.NewLoader(a.storage),
		Backend:  upload.NewHTTPBackend(a.client),
	}
	if a.cfg.Upload.ProgressEvents {
		deps.Events = a.subscriber()
	}
	orch := upload.NewOrchestrator(deps, *company, a.log,
		upload.WithProgress(upload.LogProgress{Log: a.log}),
		upload.WithNavigator(printNavigator{}),
		upload.WithSuccessDelay(a.cfg.Upload.SuccessDelay),
	)

	ctx, cancel := a.context()
	defer cancel()

	res, err := orch.Run(ctx, sess)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", sess.Message)
		os.Exit(1)
	}
	for _, f := range res.Ignored {
		fmt.Printf("Skipped %s: only one file is uploaded at a time\n", f)
	}
	fmt.Printf("Statement uploaded successfully. (%s, %s)\n", res.Statement.ID, res.Statement.Status)
}
