package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eliasfjaere/utlaan-backend/pkg/migrate"
)

func TestCoreMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_core_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no core tables migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS stock_items",
		"CHECK (available >= 0)",
		"CHECK (available <= total)",
		"FOREIGN KEY (pc_id) REFERENCES pc_assets(id) ON DELETE RESTRICT",
		"DROP TABLE IF EXISTS loans",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestExclusivityMigrationIsPartialUnique(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_add_loan_pc_exclusivity.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no exclusivity migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	// The predicate must match the is_returned flag the active-loan queries
	// filter on, not the returned_at timestamp.
	for _, sub := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS loans_one_active_per_pc",
		"WHERE pc_id IS NOT NULL AND NOT is_returned",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
