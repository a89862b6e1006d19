package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/signup"
)

func (a *app) runSignup(args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	company := a.companyFlag(fs)
	invitation := fs.String("invitation", "", "Invitation token to answer after signing up")
	fs.Parse(args)

	if *invitation != "" {
		a.sess.SetPendingInvitation(*invitation)
	}
	w := signup.NewWizard(signup.NewHTTPBackend(a.client), a.sess, a.log)
	if dest, ok := w.Guard(); ok {
		fmt.Printf("Already signed in. Next: %s\n", dest)
		return
	}

	ctx, cancel := a.context()
	defer cancel()

	for w.Step() == signup.StepCreateAccount {
		req := signup.RegisterRequest{
			Name:        a.prompt("Name"),
			Email:       a.prompt("Email"),
			Password:    a.prompt("Password"),
			CompanyName: a.prompt("Company name (optional)"),
		}
		if err := w.Register(ctx, req); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", api.UserMessage(err, "Registration failed."))
			if ctx.Err() != nil {
				os.Exit(1)
			}
		}
	}

	for w.Step() == signup.StepVerifyEmail {
		code := a.prompt(fmt.Sprintf("Code sent to %s (or \"resend\")", w.Email()))
		if code == "resend" {
			msg, err := w.Resend(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", api.UserMessage(err, "Failed to resend code."))
				continue
			}
			fmt.Println(msg)
			continue
		}
		if _, err := w.Verify(ctx, code); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", api.UserMessage(err, "Verification failed."))
			if ctx.Err() != nil {
				os.Exit(1)
			}
		}
	}
	a.reauth()

	if w.Step() == signup.StepConnectAccounts {
		connected := false
		if *company == "" {
			fmt.Println("Set company.id to connect bank accounts later with 'ledgerdesk link connect'.")
		} else if askYesNo(a.in, a.out, "Connect a bank account now?") {
			connected = a.connectAccounts(a.linker(*company))
		}

		var err error
		if connected {
			_, err = w.Continue()
		} else {
			_, err = w.Skip()
		}
		if err != nil {
			a.fail(err, "Signup failed.")
		}
	}

	dest, _ := w.Destination()
	if a.sess.Token() != "" {
		fmt.Println("Signed in. Set api.token (or LEDGERDESK_API_TOKEN) to stay signed in:")
		fmt.Println(a.sess.Token())
	}
	fmt.Printf("Next: %s\n", dest)
}
