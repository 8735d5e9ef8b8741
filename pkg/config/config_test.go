package config

import (
	"strings"
	"testing"
)

func TestEnsureDSNKeepsExplicitValue(t *testing.T) {
	db := DBConfig{DSN: "postgres://u:p@localhost:5432/utlaan?sslmode=disable"}
	if err := db.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.DSN != "postgres://u:p@localhost:5432/utlaan?sslmode=disable" {
		t.Fatalf("dsn rewritten: %s", db.DSN)
	}
}

func TestEnsureDSNBuildsFromLegacyParts(t *testing.T) {
	db := DBConfig{
		LegacyHost:     "db.internal",
		LegacyPort:     5432,
		LegacyUser:     "utlaan",
		LegacyPassword: "hunter2",
		LegacyName:     "loans",
		LegacySSLMode:  "disable",
	}
	if err := db.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"postgres://", "utlaan:hunter2@", "db.internal:5432", "/loans", "sslmode=disable"} {
		if !strings.Contains(db.DSN, want) {
			t.Fatalf("dsn %q missing %q", db.DSN, want)
		}
	}
}

func TestEnsureDSNReportsMissingParts(t *testing.T) {
	db := DBConfig{LegacyHost: "db.internal"}
	err := db.ensureDSN()
	if err == nil {
		t.Fatal("expected error when user and name are missing")
	}
	if !strings.Contains(err.Error(), EnvDBUser) || !strings.Contains(err.Error(), EnvDBName) {
		t.Fatalf("error should name missing vars: %v", err)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "Dev"}).IsDev() {
		t.Fatal("expected IsDev for dev env")
	}
	if !(AppConfig{Env: "PROD"}).IsProd() {
		t.Fatal("expected IsProd for prod env")
	}
	if (AppConfig{Env: "staging"}).IsProd() {
		t.Fatal("staging must not be prod")
	}
}
