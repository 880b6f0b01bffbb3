package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestApplyRejectsUnknownDriver(t *testing.T) {
	err := Apply(nil, "mysql")
	if err == nil {
		t.Fatalf("expected unknown driver to be rejected")
	}
	if !strings.Contains(err.Error(), "mysql") {
		t.Fatalf("error should name the driver: %v", err)
	}
}

// Every dialect ships the same numbered migrations, each with an up and a
// down script.
func TestDialectsStayInStep(t *testing.T) {
	versions := map[string]map[string]bool{}

	for _, driver := range []string{"postgres", "sqlite3"} {
		entries, err := fs.ReadDir(files, "sql/"+driver)
		if err != nil {
			t.Fatalf("read %s migrations: %v", driver, err)
		}
		if len(entries) == 0 {
			t.Fatalf("no migrations embedded for %s", driver)
		}

		ups := map[string]bool{}
		for _, entry := range entries {
			name := entry.Name()
			switch {
			case strings.HasSuffix(name, ".up.sql"):
				ups[strings.TrimSuffix(name, ".up.sql")] = true
			case strings.HasSuffix(name, ".down.sql"):
				// paired below
			default:
				t.Fatalf("unexpected migration file %s/%s", driver, name)
			}
		}
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasSuffix(name, ".down.sql") {
				version := strings.TrimSuffix(name, ".down.sql")
				if !ups[version] {
					t.Fatalf("%s/%s has no matching up script", driver, name)
				}
			}
		}
		versions[driver] = ups
	}

	for version := range versions["postgres"] {
		if !versions["sqlite3"][version] {
			t.Fatalf("migration %s missing for sqlite3", version)
		}
	}
	for version := range versions["sqlite3"] {
		if !versions["postgres"][version] {
			t.Fatalf("migration %s missing for postgres", version)
		}
	}
}
