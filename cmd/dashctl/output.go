package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/roster"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func printUser(w io.Writer, u *models.User) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Name:\t%s\n", u.Name)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", u.Role)
	if u.ContactInfo != nil {
		if u.ContactInfo.Phone != nil {
			fmt.Fprintf(tw, "Phone:\t%s\n", orDash(*u.ContactInfo.Phone))
		}
		if u.ContactInfo.Location != nil {
			fmt.Fprintf(tw, "Location:\t%s\n", orDash(*u.ContactInfo.Location))
		}
	}
	fmt.Fprintf(tw, "Skills:\t%s\n", orDash(strings.Join(u.Skills, ", ")))
	fmt.Fprintf(tw, "Strengths:\t%s\n", orDash(strings.Join(u.Strengths, ", ")))
	tw.Flush()
}

func printStats(w io.Writer, s *models.DashboardStats) {
	tw := newTable(w)
	fmt.Fprintf(tw, "UX designers:\t%d\n", s.TotalUXD)
	fmt.Fprintf(tw, "UX engineers:\t%d\n", s.TotalUXE)
	fmt.Fprintf(tw, "Projects live:\t%d\n", s.ProjectsLive)
	fmt.Fprintf(tw, "Free resources:\t%d\n", s.FreeResources)
	fmt.Fprintf(tw, "Trainings pending:\t%d\n", s.TrainingsPending)
	tw.Flush()
}

func printTeam(w io.Writer, res *roster.Result) {
	tw := newTable(w)
	writeMembers := func(members []models.TeamMember) {
		for _, m := range members {
			project, from, till := "-", "-", "-"
			if m.Assignment != nil {
				project = orDash(m.Assignment.ProjectName)
				from, till = date(m.Assignment.AllocatedFrom), date(m.Assignment.AllocatedTill)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d%%\n",
				m.User.Name, m.User.Role, m.Status(), project, from, till, roster.CompletionRate(m))
		}
	}

	fmt.Fprintln(tw, "NAME\tROLE\tSTATUS\tPROJECT\tFROM\tTILL\tCERTS")
	if len(res.Groups) > 0 {
		for _, g := range res.Groups {
			fmt.Fprintf(tw, "[%s]\t\t\t\t\t\t\n", orDash(g.Key))
			writeMembers(g.Members)
		}
	} else {
		writeMembers(res.Members)
	}
	tw.Flush()

	s := res.Summary
	fmt.Fprintf(w, "\n%d members: %d allocated, %d free, %d training, %d on leave. Utilization %d%%, average completion %d%%\n",
		s.Total, s.Allocated, s.Free, s.Training, s.OnLeave, s.Utilization, res.AverageCompletion)
}

func printProjects(w io.Writer, projects []models.Project) {
	tw := newTable(w)
	fmt.Fprintln(tw, "PROJECT\tSTATUS\tFROM\tTILL\tMEMBERS")
	for _, p := range projects {
		names := make([]string, len(p.Members))
		for i, m := range p.Members {
			names[i] = m.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Name, p.Status, date(p.AllocatedFrom), date(p.AllocatedTill), strings.Join(names, ", "))
	}
	tw.Flush()
}

func printCertifications(w io.Writer, p *models.CertificationProgress) {
	fmt.Fprintf(w, "%d certifications, average completion %d%%, %d completed this month, %d in progress\n\n",
		p.TotalCertifications, p.AverageCompletion, p.CompletedThisMonth, p.InProgress)

	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tROLE\tCOMPLETION\tBAND")
	for _, m := range p.Members {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\n", m.Name, m.Role, m.CompletionRate, m.Band)
	}
	tw.Flush()
}

func printPortfolio(w io.Writer, projects []models.PortfolioProject) {
	tw := newTable(w)
	fmt.Fprintln(tw, "TITLE\tCATEGORY\tTECHNOLOGIES")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Title, p.Category, orDash(strings.Join(p.Technologies, ", ")))
	}
	tw.Flush()
}

func printReport(w io.Writer, r *models.Report) {
	printStats(w, &r.Stats)
	printChart(w, "Team status", r.StatusDistribution)
	printChart(w, "Portfolio by category", r.PortfolioByCategory)
	printChart(w, "Certification completion (%)", r.CertificationCompletion)
}

func printChart(w io.Writer, title string, data []models.ChartData) {
	fmt.Fprintf(w, "\n%s\n", title)
	tw := newTable(w)
	for _, d := range data {
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", d.Name, d.Value, bar(d.Value))
	}
	tw.Flush()
}

// bar draws one block per five units, capped at twenty blocks.
func bar(v int) string {
	n := v / 5
	if v > 0 && n == 0 {
		n = 1
	}
	return strings.Repeat("#", min(n, 20))
}
