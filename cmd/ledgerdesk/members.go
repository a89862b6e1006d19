package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/members"
)

// permissionFlags maps CLI names to permission fields.
var permissionFlags = map[string]func(*domain.Permissions) *bool{
	"view-statements":   func(p *domain.Permissions) *bool { return &p.ViewStatements },
	"upload-statements": func(p *domain.Permissions) *bool { return &p.UploadStatements },
	"manage-accounts":   func(p *domain.Permissions) *bool { return &p.ManageAccounts },
	"manage-bills":      func(p *domain.Permissions) *bool { return &p.ManageBills },
	"view-reports":      func(p *domain.Permissions) *bool { return &p.ViewReports },
	"manage-members":    func(p *domain.Permissions) *bool { return &p.ManageMembers },
}

// parsePermissions reads a comma separated list such as "view-statements,manage-bills".
// "none" grants nothing.
func parsePermissions(s string) (domain.Permissions, error) {
	var p domain.Permissions
	s = strings.TrimSpace(s)
	if s == "none" {
		return p, nil
	}
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		field, ok := permissionFlags[name]
		if !ok {
			return p, fmt.Errorf("unknown permission %q (want %s)", name, strings.Join(permissionNames(), ", "))
		}
		*field(&p) = true
	}
	return p, nil
}

func permissionNames() []string {
	names := make([]string, 0, len(permissionFlags))
	for n := range permissionFlags {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func formatPermissions(p domain.Permissions) string {
	var on []string
	for _, n := range permissionNames() {
		if *permissionFlags[n](&p) {
			on = append(on, n)
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ",")
}

// actor is the configured member the CLI acts as.
func (a *app) actor() members.Actor {
	role, err := domain.ParseRole(a.cfg.Member.Role)
	if err != nil {
		a.log.Fatal().Err(err).Msg("Invalid member.role")
	}
	return members.Actor{
		MemberID:    a.cfg.Member.ID,
		Role:        role,
		Permissions: members.DefaultPermissions(role),
	}
}

func (a *app) memberService(companyID string) *members.Service {
	return members.NewService(members.NewHTTPBackend(a.client), companyID, a.actor(), a.sess, a.log)
}

// findMember pages through the members until one matches id or email.
func findMember(ctx context.Context, svc *members.Service, query string) (domain.Member, bool, error) {
	for page := 1; ; page++ {
		res, err := svc.List(ctx, api.PageRequest{Page: page, Limit: 100})
		if err != nil {
			return domain.Member{}, false, err
		}
		for _, m := range res.Items {
			if m.ID == query || strings.EqualFold(m.Email, query) {
				return m, true, nil
			}
		}
		if !res.HasMore() {
			return domain.Member{}, false, nil
		}
	}
}

func (a *app) runMembers(args []string) {
	sub, args := subcommand("members", args, "list", "invite", "update", "remove", "roles")

	fs := flag.NewFlagSet("members "+sub, flag.ExitOnError)
	company := a.companyFlag(fs)
	member := fs.String("member", "", "Member ID or email (update, remove)")
	email := fs.String("email", "", "Email to invite")
	role := fs.String("role", "", "Role: admin, accountant or viewer")
	perms := fs.String("perms", "", "Comma separated permissions; defaults follow the role")
	page := fs.Int("page", 0, "Page number")
	limit := fs.Int("limit", 0, "Page size")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	svc := a.memberService(*company)
	ctx, cancel := a.context()
	defer cancel()

	switch sub {
	case "list":
		res, err := svc.List(ctx, api.PageRequest{Page: *page, Limit: *limit})
		if err != nil {
			a.fail(err, "Failed to load members.")
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tPERMISSIONS")
		for _, m := range res.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Email, m.Name, m.Role, m.Status, formatPermissions(m.Permissions))
		}
		w.Flush()
		if res.HasMore() {
			fmt.Println("More members with -page.")
		}

	case "roles":
		roles := members.AssignableRoles(svc.Actor())
		if len(roles) == 0 {
			fmt.Printf("A %s cannot assign roles.\n", svc.Actor().Role)
			return
		}
		for _, r := range roles {
			fmt.Printf("%-11s %s\n", r, formatPermissions(members.DefaultPermissions(r)))
		}

	case "invite":
		r := a.parseRole(*role)
		var p *domain.Permissions
		if *perms != "" {
			parsed := a.parsePerms(*perms)
			p = &parsed
		}
		inv, err := svc.Invite(ctx, *email, r, p)
		if err != nil {
			a.fail(err, "Failed to send invitation.")
		}
		fmt.Printf("Invited %s as %s (invitation %s, expires %s)\n", inv.Email, inv.Role, inv.ID, inv.ExpiresAt.Format("2006-01-02"))

	case "update":
		target := a.member(ctx, svc, *member)
		r := target.Role
		if *role != "" {
			r = a.parseRole(*role)
		}
		p := target.Permissions
		switch {
		case *perms != "":
			p = a.parsePerms(*perms)
		case r != target.Role:
			p = members.DefaultPermissions(r)
		}
		updated, err := svc.Update(ctx, target, r, p)
		if err != nil {
			a.fail(err, "Failed to update member.")
		}
		fmt.Printf("Updated %s: %s, %s\n", updated.Email, updated.Role, formatPermissions(updated.Permissions))

	case "remove":
		target := a.member(ctx, svc, *member)
		if err := svc.Remove(ctx, target, a.confirm(*yes)); err != nil {
			a.fail(err, "Failed to remove member.")
		}
		fmt.Printf("Removed %s\n", target.Email)
	}
}

func (a *app) member(ctx context.Context, svc *members.Service, query string) domain.Member {
	if query == "" {
		a.log.Fatal().Msg("-member is required")
	}
	m, ok, err := findMember(ctx, svc, query)
	if err != nil {
		a.fail(err, "Failed to load members.")
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no member %q\n", query)
		os.Exit(1)
	}
	return m
}

func (a *app) parseRole(s string) domain.Role {
	r, err := domain.ParseRole(s)
	if err != nil {
		a.log.Fatal().Err(err).Msg("Invalid -role")
	}
	return r
}

func (a *app) parsePerms(s string) domain.Permissions {
	p, err := parsePermissions(s)
	if err != nil {
		a.log.Fatal().Err(err).Msg("Invalid -perms")
	}
	return p
}

func (a *app) runInvitations(args []string) {
	sub, args := subcommand("invitations", args, "list", "revoke", "accept", "decline")

	fs := flag.NewFlagSet("invitations "+sub, flag.ExitOnError)
	company := a.companyFlag(fs)
	id := fs.String("id", "", "Invitation ID (revoke)")
	token := fs.String("token", "", "Invitation token (accept, decline); defaults to the pending one")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	svc := a.memberService(*company)
	ctx, cancel := a.context()
	defer cancel()

	switch sub {
	case "list":
		invs, err := svc.Invitations(ctx)
		if err != nil {
			a.fail(err, "Failed to load invitations.")
		}
		if len(invs) == 0 {
			fmt.Println("No outstanding invitations.")
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tROLE\tEXPIRES")
		for _, inv := range invs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", inv.ID, inv.Email, inv.Role, inv.ExpiresAt.Format("2006-01-02"))
		}
		w.Flush()

	case "revoke":
		invs, err := svc.Invitations(ctx)
		if err != nil {
			a.fail(err, "Failed to load invitations.")
		}
		var target *domain.Invitation
		for i := range invs {
			if invs[i].ID == *id || strings.EqualFold(invs[i].Email, *id) {
				target = &invs[i]
				break
			}
		}
		if target == nil {
			fmt.Fprintf(os.Stderr, "Error: no invitation %q\n", *id)
			os.Exit(1)
		}
		if err := svc.Revoke(ctx, *target, a.confirm(*yes)); err != nil {
			a.fail(err, "Failed to revoke invitation.")
		}
		fmt.Printf("Revoked invitation for %s\n", target.Email)

	case "accept":
		m, err := svc.Accept(ctx, *token)
		if err != nil {
			a.fail(err, "Failed to accept invitation.")
		}
		fmt.Printf("Joined company %s as %s\n", m.CompanyID, m.Role)

	case "decline":
		if err := svc.Decline(ctx, *token); err != nil {
			a.fail(err, "Failed to decline invitation.")
		}
		fmt.Println("Invitation declined.")
	}
}
