package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/dvloznov/ledgerdesk/internal/linking"
)

func (a *app) linker(companyID string) *linking.Linker {
	provider := linking.NewConsoleProvider(a.in, a.out)
	return linking.NewLinker(linking.NewHTTPBackend(a.client), provider, companyID, a.log)
}

func (a *app) runLink(args []string) {
	sub, args := subcommand("link", args, "connect", "sync")

	fs := flag.NewFlagSet("link "+sub, flag.ExitOnError)
	company := a.companyFlag(fs)
	item := fs.String("item", "", "Linked item ID (sync)")
	fs.Parse(args)

	ctx, cancel := a.context()
	defer cancel()
	l := a.linker(*company)

	switch sub {
	case "connect":
		a.connectAccounts(l)

	case "sync":
		if *item == "" {
			a.log.Fatal().Msg("Usage: link sync -item ITEM_ID")
		}
		res, err := l.Sync(ctx, *item)
		if err != nil {
			a.fail(err, "Failed to sync transactions.")
		}
		fmt.Printf("Synced: %d added, %d modified, %d removed\n", res.Added, res.Modified, res.Removed)
	}
}

// connectAccounts runs the link flow and prints the imported accounts. It reports
// whether any account was connected.
func (a *app) connectAccounts(l *linking.Linker) bool {
	ctx, cancel := a.context()
	defer cancel()

	res, err := l.Connect(ctx)
	if errors.Is(err, linking.ErrLinkExited) {
		fmt.Println("Connection cancelled.")
		return false
	}
	if err != nil {
		a.fail(err, "Failed to connect account.")
	}
	if res == nil {
		fmt.Println("No accounts connected.")
		return false
	}
	fmt.Printf("Connected %d account(s) (item %s):\n", len(res.Accounts), res.ItemID)
	for _, acc := range res.Accounts {
		fmt.Printf("  %s  %s  %s\n", acc.ID, acc.Type.Label(), acc.Name)
	}
	return len(res.Accounts) > 0
}
