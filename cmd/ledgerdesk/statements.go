package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/events"
	"github.com/dvloznov/ledgerdesk/internal/statements"
)

func (a *app) runStatements(args []string) {
	sub, args := subcommand("statements", args, "list", "delete", "watch")

	fs := flag.NewFlagSet("statements "+sub, flag.ExitOnError)
	company := a.companyFlag(fs)
	account := fs.String("account", "", "Only statements of this account ID")
	page := fs.Int("page", 0, "Page number")
	limit := fs.Int("limit", 0, "Page size")
	id := fs.String("id", "", "Statement ID (delete)")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	svc := statements.NewService(statements.NewHTTPBackend(a.client), a.log)
	filter := statements.Filter{
		CompanyID:   *company,
		AccountID:   *account,
		PageRequest: api.PageRequest{Page: *page, Limit: *limit},
	}

	ctx, cancel := a.context()
	defer cancel()

	switch sub {
	case "list":
		res, err := svc.List(ctx, filter)
		if err != nil {
			a.fail(err, "Failed to load statements.")
		}
		printStatements(res)

	case "delete":
		if *id == "" {
			a.log.Fatal().Msg("Usage: statements delete -id ID [-yes]")
		}
		current, err := svc.List(ctx, filter)
		if err != nil {
			a.fail(err, "Failed to load statements.")
		}
		target := domain.Statement{ID: *id, FileName: *id}
		for _, st := range current.Items {
			if st.ID == *id {
				target = st
				break
			}
		}
		res, err := svc.Delete(ctx, target, filter, a.confirm(*yes))
		if err != nil {
			a.fail(err, "Failed to delete statement.")
		}
		fmt.Printf("Deleted %s\n", target.FileName)
		printStatements(res)

	case "watch":
		if err := api.RequireCompany(*company); err != nil {
			a.fail(err, "")
		}
		stream, err := a.subscriber().Subscribe(ctx, *company)
		if err != nil {
			a.fail(err, "Failed to subscribe to events.")
		}
		defer stream.Close()
		fmt.Println("Watching statement events (Ctrl+C to stop)...")
		for ev := range stream.Events() {
			printEvent(ev)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			a.fail(err, "Event stream closed.")
		}
	}
}

func printStatements(res api.Page[domain.Statement]) {
	if len(res.Items) == 0 {
		fmt.Println("No statements yet.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tPERIOD\tSTATUS\tUPLOADED")
	for _, st := range res.Items {
		period := "-"
		if st.Period != nil {
			period = st.Period.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s (%s)\t%s\n",
			st.ID, st.FileName, period, st.Status, st.Status.Tone(), st.UploadedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	if res.Pagination.Total > 0 {
		fmt.Printf("Page %d, %d of %d", res.Pagination.Page, len(res.Items), res.Pagination.Total)
		if res.HasMore() {
			fmt.Print(" (more with -page)")
		}
		fmt.Println()
	}
}

func printEvent(ev events.Event) {
	switch ev.Type {
	case events.TypeDocumentStatus:
		fmt.Printf("%s  %s (%s)", ev.DocumentID, ev.Status, ev.Status.Tone())
	case events.TypeUploadProgress:
		fmt.Printf("%s  uploading %d%%", ev.RequestID, ev.Progress)
	}
	if ev.Message != "" {
		fmt.Printf("  %s", ev.Message)
	}
	fmt.Println()
}
