package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var seedNamespace = uuid.MustParse("2b7d9c1e-4f3a-4e8b-a6d5-9c0f1e2d3b4a")

// SeedID returns the stable id of a seeded record.
func SeedID(key string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(key))
}

type seedAccount struct {
	email     string
	name      string
	role      string
	phone     string
	location  string
	skills    []string
	strengths []string
	project   string
	status    string
	from      string
	till      string
	certs     []seedProgress
}

// seedProgress is a progress percentage on a named certification; 100
// means completed.
type seedProgress struct {
	cert     string
	progress int
}

var seedCertifications = []struct {
	name        string
	description string
	category    string
}{
	{"UX Research Fundamentals", "Interviews, usability testing and synthesis", "cert1"},
	{"Advanced Figma", "Components, variants and design systems in Figma", "cert2"},
	{"React Development", "Building interfaces with React", "cert3"},
	{"TypeScript Mastery", "Typed JavaScript for product engineering", "cert4"},
}

var seedAccounts = []seedAccount{
	{
		email: "admin@aiden.ai", name: "Super Admin", role: "super_admin",
		skills: []string{"Design Ops", "Figma"}, strengths: []string{"Planning"},
		status: "free",
	},
	{
		email: "leader@aiden.ai", name: "UX/UI Lead", role: "leadership",
		skills: []string{"UX Research", "Figma"}, strengths: []string{"Mentoring", "Facilitation"},
		project: "Insurance Portal Redesign", status: "allocated", from: "2024-01-01", till: "2024-06-30",
		certs: []seedProgress{{"UX Research Fundamentals", 100}, {"Advanced Figma", 100}, {"React Development", 40}},
	},
	{
		email: "john.doe@aiden.ai", name: "John Doe", role: "employee",
		phone: "+12345678901", location: "Belgrade",
		skills: []string{"UX Research", "Figma"}, strengths: []string{"Interviews"},
		project: "Insurance Portal Redesign", status: "allocated", from: "2024-01-15", till: "2024-03-15",
		certs: []seedProgress{{"UX Research Fundamentals", 100}, {"Advanced Figma", 100}, {"React Development", 0}, {"TypeScript Mastery", 0}},
	},
	{
		email: "sarah.wilson@aiden.ai", name: "Sarah Wilson", role: "employee",
		phone: "+12345678902",
		skills: []string{"React", "TypeScript"}, strengths: []string{"Prototyping"},
		status: "free",
		certs: []seedProgress{{"UX Research Fundamentals", 30}, {"Advanced Figma", 100}, {"React Development", 100}, {"TypeScript Mastery", 100}},
	},
	{
		email: "mike.johnson@aiden.ai", name: "Mike Johnson", role: "employee",
		phone: "+12345678903",
		skills: []string{"Figma", "Illustration"}, strengths: []string{"Visual design"},
		project: "Certification Program", status: "training", from: "2024-01-20", till: "2024-02-20",
		certs: []seedProgress{{"UX Research Fundamentals", 100}, {"Advanced Figma", 60}, {"React Development", 0}, {"TypeScript Mastery", 0}},
	},
}

var seedPortfolio = []struct {
	title        string
	category     string
	description  string
	technologies []string
}{
	{"Customer Portal Redesign", "insurance", "Complete overhaul of the insurance customer portal", []string{"Figma", "React", "TypeScript"}},
	{"Claims Processing App", "insurance", "Mobile application for streamlined claims processing", []string{"Adobe XD", "React Native"}},
	{"Digital Banking Platform", "finance", "Banking platform with enhanced security and user experience", []string{"Sketch", "Vue.js", "Node.js"}},
	{"Investment Dashboard", "finance", "Investment tracking and analytics dashboard", []string{"Figma", "Angular", "D3.js"}},
	{"AI Assistant Interface", "poc", "Proof of concept for an AI customer service interface", []string{"Figma", "React", "Python"}},
	{"Blockchain Wallet Concept", "poc", "Conceptual design for a blockchain wallet", []string{"Adobe XD", "Prototype"}},
	{"Internal Analytics Tool", "other", "Business intelligence dashboard for internal operations", []string{"Figma", "React", "Chart.js"}},
}

// SeedDemo inserts the demo accounts and dashboard fixtures. Every account
// gets passwordHash. Existing rows are left untouched, so seeding twice is
// harmless.
func (db *DB) SeedDemo(ctx context.Context, passwordHash string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range seedCertifications {
		if _, err := tx.Exec(ctx, `
			INSERT INTO certifications (id, name, description, category)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, SeedID("cert:"+c.name), c.name, c.description, c.category); err != nil {
			return fmt.Errorf("failed to seed certification %s: %w", c.name, err)
		}
	}

	for _, a := range seedAccounts {
		if err := seedAccountRows(ctx, tx, a, passwordHash); err != nil {
			return err
		}
	}

	for _, p := range seedPortfolio {
		if _, err := tx.Exec(ctx, `
			INSERT INTO portfolio_projects (id, title, category, description, technologies)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING
		`, SeedID("portfolio:"+p.title), p.title, p.category, p.description, p.technologies); err != nil {
			return fmt.Errorf("failed to seed portfolio project %s: %w", p.title, err)
		}
	}

	return tx.Commit(ctx)
}

func seedAccountRows(ctx context.Context, tx pgx.Tx, a seedAccount, passwordHash string) error {
	id := SeedID("user:" + a.email)

	if _, err := tx.Exec(ctx, `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, id, a.email, passwordHash); err != nil {
		return fmt.Errorf("failed to seed user %s: %w", a.email, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO profiles (id, email, name, role, phone, location, skills, strengths)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		ON CONFLICT DO NOTHING
	`, id, a.email, a.name, a.role, a.phone, a.location, a.skills, a.strengths); err != nil {
		return fmt.Errorf("failed to seed profile %s: %w", a.email, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO project_assignments (id, user_id, project_name, status, allocated_from, allocated_till)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::date, NULLIF($6, '')::date)
		ON CONFLICT DO NOTHING
	`, SeedID("assignment:"+a.email), id, a.project, a.status, a.from, a.till); err != nil {
		return fmt.Errorf("failed to seed assignment %s: %w", a.email, err)
	}

	for _, c := range a.certs {
		completed := c.progress >= 100
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_certifications (user_id, certification_id, completed, completion_date, progress_percentage)
			VALUES ($1, $2, $3, CASE WHEN $3 THEN CURRENT_DATE END, $4)
			ON CONFLICT DO NOTHING
		`, id, SeedID("cert:"+c.cert), completed, c.progress); err != nil {
			return fmt.Errorf("failed to seed certification progress %s: %w", a.email, err)
		}
	}
	return nil
}
