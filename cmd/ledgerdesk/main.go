package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	a := newApp()
	defer a.close()

	switch cmd {
	case "accounts":
		a.runAccounts(bankAccounts, args)
	case "cards":
		a.runAccounts(creditCards, args)
	case "upload":
		a.runUpload(args)
	case "statements":
		a.runStatements(args)
	case "link":
		a.runLink(args)
	case "members":
		a.runMembers(args)
	case "invitations":
		a.runInvitations(args)
	case "signup":
		a.runSignup(args)
	case "bill":
		a.runBill(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("ledgerdesk")
	fmt.Println("\nUsage:")
	fmt.Println("  ledgerdesk <command> [subcommand] [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  accounts     list|create|update|delete bank accounts")
	fmt.Println("  cards        list|create|update|delete credit cards")
	fmt.Println("  upload       Upload a statement file (local path or gs:// URI)")
	fmt.Println("  statements   list|delete|watch uploaded statements")
	fmt.Println("  link         connect|sync accounts through the link provider")
	fmt.Println("  members      list|invite|update|remove|roles company members")
	fmt.Println("  invitations  list|revoke|accept|decline invitations")
	fmt.Println("  signup       Create a user account interactively")
	fmt.Println("  bill         show|set bill line items")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nConfiguration is read from $LEDGERDESK_CONFIG or ~/.config/ledgerdesk/config.toml;")
	fmt.Println("LEDGERDESK_* environment variables override it.")
	fmt.Println("\nRun 'ledgerdesk <command> <subcommand> -h' for more information on a command.")
}

// subcommand splits "list -flag" into its name and flags, printing usage when missing.
func subcommand(cmd string, args []string, names ...string) (string, []string) {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: ledgerdesk %s <%s> [options]\n", cmd, joinNames(names))
		os.Exit(1)
	}
	for _, n := range names {
		if args[0] == n {
			return n, args[1:]
		}
	}
	fmt.Fprintf(os.Stderr, "Unknown %s subcommand: %s (want %s)\n", cmd, args[0], joinNames(names))
	os.Exit(1)
	return "", nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += "|"
		}
		out += n
	}
	return out
}
