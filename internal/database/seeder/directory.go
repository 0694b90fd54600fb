package seeder

import (
	"context"
	"fmt"
	"strings"

	"anti-ghosting/internal/database"

	"github.com/google/uuid"
)

// seedNamespace makes seeded ids stable across runs.
var seedNamespace = uuid.MustParse("6f1c9a52-4f0e-4c1d-9d0b-2b7f3e1a8c10")

func SeedID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.ToLower(name)))
}

type DemoPosting struct {
	Company    string
	OwnerName  string
	OwnerEmail string
	Jobs       []string
}

type DemoCandidate struct {
	Name  string
	Email string
}

func DemoPostings() []DemoPosting {
	return []DemoPosting{
		{Company: "Acme Logistics", OwnerName: "Maya Hart", OwnerEmail: "maya@acme.test", Jobs: []string{"Backend Engineer", "Data Analyst"}},
		{Company: "Northwind Health", OwnerName: "Idris Vale", OwnerEmail: "idris@northwind.test", Jobs: []string{"Site Reliability Engineer"}},
		{Company: "Bluefin Studio", OwnerName: "Noor Saleh", OwnerEmail: "noor@bluefin.test", Jobs: []string{"Product Designer", "Frontend Engineer"}},
	}
}

func DemoCandidates() []DemoCandidate {
	return []DemoCandidate{
		{Name: "Ana Ruiz", Email: "ana@candidate.test"},
		{Name: "Kenji Mori", Email: "kenji@candidate.test"},
		{Name: "Lea Brandt", Email: "lea@candidate.test"},
	}
}

// DirectorySeeder inserts users, companies and jobs. Rows that already exist
// are left untouched.
type DirectorySeeder struct {
	Postings   []DemoPosting
	Candidates []DemoCandidate
}

func (DirectorySeeder) Name() string { return "directory" }

func (s DirectorySeeder) Run(ctx context.Context, db database.DB) error {
	for table, cols := range map[string][]string{
		"users":     {"id", "name", "email"},
		"companies": {"id", "name", "owner_id"},
		"jobs":      {"id", "company_id", "title"},
	} {
		if err := EnsureTableColumns(ctx, db, table, cols...); err != nil {
			return err
		}
	}

	candidates := s.Candidates
	if candidates == nil {
		candidates = DemoCandidates()
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, c := range candidates {
			if err := insertUser(ctx, tx, c.Name, c.Email); err != nil {
				return err
			}
		}
		for _, p := range s.Postings {
			ownerID := SeedID("user", p.OwnerEmail)
			if err := insertUser(ctx, tx, p.OwnerName, p.OwnerEmail); err != nil {
				return err
			}
			companyID := SeedID("company", p.Company)
			if _, err := tx.Exec(ctx,
				`INSERT INTO companies (id, name, owner_id) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
				companyID, p.Company, ownerID,
			); err != nil {
				return fmt.Errorf("insert company %s: %w", p.Company, err)
			}
			for _, title := range p.Jobs {
				if _, err := tx.Exec(ctx,
					`INSERT INTO jobs (id, company_id, title) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
					SeedID("job", p.Company+"/"+title), companyID, title,
				); err != nil {
					return fmt.Errorf("insert job %s: %w", title, err)
				}
			}
		}
		return nil
	})
}

func insertUser(ctx context.Context, q database.Querier, name, email string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO users (id, name, email) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		SeedID("user", email), name, email,
	)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", email, err)
	}
	return nil
}
