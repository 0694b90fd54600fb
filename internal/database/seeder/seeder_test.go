package seeder

import (
	"context"
	"errors"
	"testing"

	"anti-ghosting/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSeeder struct {
	name  string
	err   error
	calls *[]string
}

func (s recordingSeeder) Name() string { return s.name }

func (s recordingSeeder) Run(context.Context, database.DB) error {
	*s.calls = append(*s.calls, s.name)
	return s.err
}

func TestRunner_NilDB(t *testing.T) {
	err := Runner{}.Run(context.Background(), nil)
	assert.ErrorIs(t, err, database.ErrNilDB)
}

func TestSeedID_Stable(t *testing.T) {
	assert.Equal(t, SeedID("user", "ana@candidate.test"), SeedID("user", "ANA@candidate.test"))
	assert.NotEqual(t, SeedID("user", "x"), SeedID("company", "x"))
}

func TestMissingColumns(t *testing.T) {
	existing := map[string]struct{}{"id": {}, "name": {}}

	require.NoError(t, missingColumns("users", existing, []string{"id", "name"}))

	err := missingColumns("users", existing, []string{"id", "email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users.email")
}

func TestDefaults_CoverDemoPostings(t *testing.T) {
	seeders := Defaults()
	require.Len(t, seeders, 1)
	dir, ok := seeders[0].(DirectorySeeder)
	require.True(t, ok)
	assert.NotEmpty(t, dir.Postings)
	assert.Equal(t, "directory", dir.Name())
}

func TestRunner_StopsOnFirstError(t *testing.T) {
	var calls []string
	r := Runner{Seeders: []Seeder{
		recordingSeeder{name: "a", calls: &calls},
		recordingSeeder{name: "b", err: errors.New("boom"), calls: &calls},
		recordingSeeder{name: "c", calls: &calls},
	}}

	// A non-nil DB is all the runner checks before delegating.
	err := r.Run(context.Background(), nopDB{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed b")
	assert.Equal(t, []string{"a", "b"}, calls)
}

type nopDB struct{ database.DB }
