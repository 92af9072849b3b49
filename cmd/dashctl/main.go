// Command dashctl is a terminal client of the Aiden dashboard.
//
// It keeps the signed-in session in a file so that successive invocations
// share it, and applies the same role guards as the web views. With
// AIDEN_DEMO=true it signs in against built-in demo accounts and needs no
// server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/client"
	"github.com/dimitrije/aiden-dashboard/internal/config"
)

const usage = `Usage: dashctl <command> [flags]

Commands:
  login <email>         sign in (password from -password, or prompted)
  logout                end the session
  whoami                show the signed-in user
  profile               update your profile (-name, -phone, -location, -skills, -strengths)
  stats                 headline dashboard numbers
  team                  team grid (-q, -status, -role, -cert, -from, -till, -sort, -group)
  projects              live projects and their members
  certs                 certification progress
  portfolio             portfolio projects (-category)
  reports               charts of the reports page
  export <dataset>      download team, projects, certifications or portfolio (-format, -o)
`

// app bundles everything a command may need.
type app struct {
	cfg     *config.ClientConfig
	machine *authstate.Machine
	api     *client.API
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		fmt.Print(usage)
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg)
	defer a.machine.Close()
	a.machine.Start(ctx)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(describe(err))
	}
}

func newApp(cfg *config.ClientConfig) *app {
	store := authstate.NewFileStore(cfg.SessionFile)
	a := &app{cfg: cfg}

	if cfg.Demo {
		provider := authstate.NewDemoProvider(store, cfg.DemoPassword)
		a.machine = authstate.NewMachine(provider, authstate.NewDemoProfiles(provider))
		return a
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	provider := client.NewIdentityProvider(cfg.APIURL, store, httpClient)
	profiles := client.NewProfileStore(cfg.APIURL, provider, httpClient)
	a.machine = authstate.NewMachine(provider, profiles)
	a.api = client.NewAPI(cfg.APIURL, provider, httpClient)
	return a
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "profile":
		return a.profile(ctx, args)
	case "stats":
		return a.stats(ctx)
	case "team":
		return a.team(ctx, args)
	case "projects":
		return a.projects(ctx)
	case "certs":
		return a.certs(ctx)
	case "portfolio":
		return a.portfolio(ctx, args)
	case "reports":
		return a.reports(ctx)
	case "export":
		return a.export(ctx, args)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

var errDemoMode = errors.New("not available in demo mode")

func describe(err error) string {
	switch {
	case errors.Is(err, authstate.ErrLoginRequired):
		return "Not signed in. Run: dashctl login <email>"
	case errors.Is(err, authstate.ErrAccessDenied):
		return "Access denied: your role cannot open this view"
	case errors.Is(err, authstate.ErrInvalidCredentials):
		return "Login failed: " + err.Error()
	case errors.Is(err, authstate.ErrSessionLoading):
		return "Session is still loading, try again"
	default:
		return err.Error()
	}
}
