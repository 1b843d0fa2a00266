package migrations

import (
	"testing"

	"github.com/clinic/rxengine/internal/platform/db"
)

func TestEmbeddedMigrationsLoad(t *testing.T) {
	migrations, err := db.NewMigrator(nil, FS).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Name != "001_catalog.sql" || migrations[1].Name != "002_patient_history.sql" {
		t.Errorf("unexpected migrations: %s, %s", migrations[0].Name, migrations[1].Name)
	}
}
