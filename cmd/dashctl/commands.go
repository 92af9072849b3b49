package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/roster"
	"golang.org/x/term"
)

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dashctl login [-password p] <email>")
	}
	email := fs.Arg(0)

	if *password == "" {
		p, err := readPassword()
		if err != nil {
			return err
		}
		*password = p
	}

	if err := a.machine.Login(ctx, email, *password); err != nil {
		return err
	}
	state, err := a.machine.Settled(ctx)
	if err != nil {
		return err
	}
	return authstate.DefaultGuard().Enter(state, func(u *models.User) error {
		fmt.Printf("Signed in as %s (%s)\n", u.Name, u.Role)
		return nil
	})
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.machine.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func (a *app) whoami() error {
	return authstate.GuardFor("profile").Enter(a.machine.State(), func(u *models.User) error {
		printUser(os.Stdout, u)
		return nil
	})
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	avatar := fs.String("avatar", "", "avatar URL")
	phone := fs.String("phone", "", "phone number")
	location := fs.String("location", "", "location")
	skills := fs.String("skills", "", "comma separated skills")
	strengths := fs.String("strengths", "", "comma separated strengths")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var update models.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			update.Name = name
		case "avatar":
			update.AvatarURL = avatar
		case "phone", "location":
			if update.ContactInfo == nil {
				update.ContactInfo = &models.ContactInfo{}
			}
			if f.Name == "phone" {
				update.ContactInfo.Phone = phone
			} else {
				update.ContactInfo.Location = location
			}
		case "skills":
			update.Skills = splitList(*skills)
		case "strengths":
			update.Strengths = splitList(*strengths)
		}
	})
	if update.IsEmpty() {
		return fmt.Errorf("nothing to update; see dashctl profile -h")
	}

	return authstate.GuardFor("profile").Enter(a.machine.State(), func(*models.User) error {
		u, err := a.machine.UpdateUser(ctx, update)
		if err != nil {
			return err
		}
		printUser(os.Stdout, u)
		return nil
	})
}

// splitList never returns nil, so an empty flag value clears the list.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// guarded runs fn behind the guard of area. Views that need the API fail in
// demo mode once the guard has let the user through.
func (a *app) guarded(area string, fn func() error) error {
	return authstate.GuardFor(area).Enter(a.machine.State(), func(*models.User) error {
		if a.api == nil {
			return errDemoMode
		}
		return fn()
	})
}

func (a *app) stats(ctx context.Context) error {
	return a.guarded("dashboard", func() error {
		s, err := a.api.Stats(ctx)
		if err != nil {
			return err
		}
		printStats(os.Stdout, s)
		return nil
	})
}

func (a *app) team(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("team", flag.ContinueOnError)
	params := map[string]*string{
		"q":             fs.String("q", "", "search name, email, project or skills"),
		"status":        fs.String("status", "", "comma separated statuses"),
		"role":          fs.String("role", "", "comma separated roles"),
		"certification": fs.String("cert", "", "certification name"),
		"from":          fs.String("from", "", "allocation window start (YYYY-MM-DD)"),
		"till":          fs.String("till", "", "allocation window end (YYYY-MM-DD)"),
		"sort":          fs.String("sort", "", "sort keys, e.g. status,-name"),
		"group":         fs.String("group", "", "group by status, role or project"),
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	q, err := roster.ParseQuery(func(key string) string {
		if v, ok := params[key]; ok {
			return *v
		}
		return ""
	})
	if err != nil {
		return err
	}

	return a.guarded("team", func() error {
		res, err := a.api.Team(ctx, q)
		if err != nil {
			return err
		}
		printTeam(os.Stdout, res)
		return nil
	})
}

func (a *app) projects(ctx context.Context) error {
	return a.guarded("projects", func() error {
		projects, err := a.api.Projects(ctx)
		if err != nil {
			return err
		}
		printProjects(os.Stdout, projects)
		return nil
	})
}

func (a *app) certs(ctx context.Context) error {
	return a.guarded("certifications", func() error {
		progress, err := a.api.CertificationProgress(ctx)
		if err != nil {
			return err
		}
		printCertifications(os.Stdout, progress)
		return nil
	})
}

func (a *app) portfolio(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("portfolio", flag.ContinueOnError)
	category := fs.String("category", "", "insurance, finance, poc or other")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return a.guarded("portfolio", func() error {
		projects, err := a.api.Portfolio(ctx, models.PortfolioCategory(*category))
		if err != nil {
			return err
		}
		printPortfolio(os.Stdout, projects)
		return nil
	})
}

func (a *app) reports(ctx context.Context) error {
	return a.guarded("reports", func() error {
		report, err := a.api.Reports(ctx)
		if err != nil {
			return err
		}
		printReport(os.Stdout, report)
		return nil
	})
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "csv", "csv or json")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dashctl export [-format csv|json] [-o file] <dataset>")
	}
	dataset := fs.Arg(0)

	return a.guarded("export", func() error {
		var w io.Writer = os.Stdout
		if *out != "" {
			f, err := os.Create(*out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := a.api.Export(ctx, dataset, *format, w); err != nil {
			return err
		}
		if *out != "" {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", *out)
		}
		return nil
	})
}
