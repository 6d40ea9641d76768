package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"consulting-marketplace/client/internal/api"
	"consulting-marketplace/client/internal/config"
	"consulting-marketplace/client/internal/negotiator"
	"consulting-marketplace/client/internal/onboarding"
	"consulting-marketplace/client/internal/otp"
	"consulting-marketplace/client/internal/refdata"
	"consulting-marketplace/client/internal/session"
	"consulting-marketplace/client/internal/telemetry"
	otelsetup "consulting-marketplace/client/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "marketplace-client", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	var emit telemetry.Emitter = otelsetup.NewFlowEmitter(providers.LoggerProvider)

	backend := api.NewHTTPClient(cfg.BackendBaseURL, cfg.HTTPTimeoutDuration())
	neg := negotiator.New(backend, emit)
	store := session.NewStore()
	cache := refdata.NewCache(backend)

	opts := []onboarding.MachineOption{
		onboarding.WithChallengeOptions(otp.WithResendSeconds(cfg.ResendSeconds)),
		onboarding.WithNavigateFunc(func(nav onboarding.Navigation) {
			fmt.Printf("-> %s", nav.Route)
			if nav.Status != "" {
				fmt.Printf(" (%s)", nav.Status)
			}
			fmt.Println()
		}),
	}

	var persist *session.Persister
	if key, _ := cfg.SealKey(); key != nil {
		persist, err = session.NewPersister(cfg.SessionFile, key)
		if err != nil {
			log.Fatalf("session: %v", err)
		}
		opts = append(opts, onboarding.WithPersister(persist))
	}

	machine := onboarding.NewMachine(neg, store, opts...)

	if persist != nil {
		if sess, err := persist.Load(); err != nil {
			log.Printf("session: restore: %v", err)
		} else if sess != nil {
			if err := machine.RestoreSession(*sess); err != nil {
				log.Printf("session: restore: %v", err)
			}
		}
	}

	go func() {
		<-ctx.Done()
		os.Stdin.Close()
	}()

	a := &app{
		ctx:     ctx,
		sc:      bufio.NewScanner(os.Stdin),
		machine: machine,
		store:   store,
		cache:   cache,
	}
	a.run()
}

type app struct {
	ctx     context.Context
	sc      *bufio.Scanner
	machine *onboarding.Machine
	store   *session.Store
	cache   *refdata.Cache
}

func (a *app) run() {
	fmt.Println("commands: login | otp | verify | resend | change | signup | complete | forgot | reset | categories | whoami | logout | quit")
	for fmt.Print("> "); a.sc.Scan(); fmt.Print("> ") {
		fields := strings.Fields(a.sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <identifier> <password>")
				continue
			}
			report(a.machine.LoginWithPassword(a.ctx, fields[1], fields[2]))
		case "otp":
			if len(fields) != 2 {
				fmt.Println("usage: otp <mobile>")
				continue
			}
			report(a.machine.RequestOTP(a.ctx, fields[1]))
			if chal := a.machine.Challenge(); chal != nil && chal.Step() == otp.StepCollectCode {
				fmt.Printf("resend available in %ds\n", chal.Remaining())
			}
		case "verify":
			if len(fields) != 2 {
				fmt.Println("usage: verify <code>")
				continue
			}
			report(a.machine.VerifyOTP(a.ctx, fields[1]))
		case "resend":
			report(a.machine.ResendOTP(a.ctx))
		case "change":
			a.machine.ChangeOTPNumber()
		case "signup":
			a.signup()
		case "complete":
			a.completeProfile()
		case "forgot":
			if len(fields) != 2 {
				fmt.Println("usage: forgot <email>")
				continue
			}
			if err := a.machine.ForgotPassword(a.ctx, fields[1]); err != nil {
				fmt.Println(err)
			} else {
				fmt.Println("reset email sent")
			}
		case "reset":
			if len(fields) != 3 {
				fmt.Println("usage: reset <token> <password>")
				continue
			}
			if err := a.machine.ResetPassword(a.ctx, fields[1], fields[2]); err != nil {
				fmt.Println(err)
			} else {
				fmt.Println("password updated")
			}
		case "categories":
			if err := a.cache.Load(a.ctx); err != nil {
				fmt.Println(err)
				continue
			}
			for _, cat := range a.cache.Categories() {
				fmt.Println(cat.Title)
				for _, sub := range cat.Subcategories {
					fmt.Printf("  %s\n", sub.Name)
				}
			}
		case "whoami":
			if sess, ok := a.store.Get(); ok {
				fmt.Printf("%s <%s> (%s)\n", sess.User.FullName, sess.User.Email, sess.User.Role)
			} else {
				fmt.Println("not signed in")
			}
		case "logout":
			a.machine.Logout()
		case "quit":
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

// signup collects a registration draft interactively. The mobile defaults to
// the identifier carried over from a failed login, if any.
func (a *app) signup() {
	prefill := a.machine.Nav().PrefillIdentifier
	if nav := a.machine.VisitSignup(); nav.Route != onboarding.RouteSignup {
		return
	}
	d := &onboarding.RegistrationDraft{
		FullName:        a.prompt("full name", ""),
		Email:           a.prompt("email", ""),
		Mobile:          a.prompt("mobile", prefill),
		Password:        a.prompt("password", ""),
		ConfirmPassword: a.prompt("confirm password", ""),
		Role:            a.promptRole(),
	}
	if d.Role == api.RoleConsultant {
		rows, err := a.pickSelections()
		if err != nil {
			fmt.Println(err)
			return
		}
		d.Selections = rows
	}
	d.AcceptedTerms = a.prompt("accept terms? (y/n)", "n") == "y"
	report(a.machine.SubmitSignup(a.ctx, d))
}

// completeProfile finishes a deferred registration using the token and mobile
// carried by the needs-signup navigation from an OTP verify.
func (a *app) completeProfile() {
	nav := a.machine.Nav()
	if nav.RegistrationToken == "" || nav.Mobile == "" {
		fmt.Println("no registration in progress; verify a code for a new number first")
		return
	}
	d := &onboarding.ProfileDraft{
		RegistrationToken: nav.RegistrationToken,
		Mobile:            nav.Mobile,
		FullName:          a.prompt("full name", ""),
		Email:             a.prompt("email", ""),
		Password:          a.prompt("password", ""),
		ConfirmPassword:   a.prompt("confirm password", ""),
		Role:              a.promptRole(),
	}
	if d.Role == api.RoleConsultant {
		rows, err := a.pickSelections()
		if err != nil {
			fmt.Println(err)
			return
		}
		d.Selections = rows
	}
	report(a.machine.SubmitProfile(a.ctx, d))
}

// pickSelections walks the category hierarchy row by row. Each row goes
// through the draft cascade, so a subcategory can only come from the chosen
// category and changing the category resets it.
func (a *app) pickSelections() ([]api.CategorySelection, error) {
	if err := a.cache.Load(a.ctx); err != nil {
		return nil, err
	}
	cats := a.cache.Categories()
	if len(cats) == 0 {
		return nil, fmt.Errorf("no categories available")
	}
	var draft onboarding.RegistrationDraft
	for row := 0; ; row++ {
		for i, cat := range cats {
			fmt.Printf("%2d) %s\n", i+1, cat.Title)
		}
		ci, ok := a.promptIndex("category", len(cats))
		if !ok {
			break
		}
		cat := cats[ci]
		if err := draft.SelectCategory(row, cat); err != nil {
			return nil, err
		}
		subs := a.cache.SubcategoriesFor(cat.ID)
		for i, sub := range subs {
			fmt.Printf("%2d) %s\n", i+1, sub.Name)
		}
		si, ok := a.promptIndex("subcategory", len(subs))
		if !ok {
			break
		}
		if err := draft.SelectSubcategory(row, a.cache, subs[si]); err != nil {
			return nil, err
		}
		if a.prompt("add another? (y/n)", "n") != "y" {
			break
		}
	}
	return draft.Selections, nil
}

func (a *app) prompt(label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	if !a.sc.Scan() {
		return def
	}
	line := strings.TrimSpace(a.sc.Text())
	if line == "" {
		return def
	}
	return line
}

func (a *app) promptRole() api.Role {
	if a.prompt("role (client/consultant)", "client") == "consultant" {
		return api.RoleConsultant
	}
	return api.RoleClient
}

// promptIndex reads a 1-based choice; empty input or anything out of range
// ends the selection.
func (a *app) promptIndex(label string, n int) (int, bool) {
	line := a.prompt(label+" #", "")
	i, err := strconv.Atoi(line)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func report(o negotiator.Outcome, err error) {
	if err != nil {
		fmt.Println(err)
		return
	}
	switch o.Kind {
	case negotiator.KindAuthenticated:
		fmt.Printf("signed in as %s\n", o.User.FullName)
	case negotiator.KindCodeSent:
		fmt.Println("code sent")
	case negotiator.KindNeedsSignup:
		fmt.Println("no account found; sign up to continue")
	case negotiator.KindStatusRedirect:
		fmt.Printf("account %s\n", o.Status)
	default:
		fmt.Println(o.Message)
	}
}
