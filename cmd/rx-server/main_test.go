package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/rxengine/internal/config"
	"github.com/clinic/rxengine/internal/platform/db"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "status"},
		{"clinic", "create"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("find %v: %v", path, err)
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("find %v resolved to %q", path, cmd.Name())
		}
	}
}

func TestMigrateFlags(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"up", "status"} {
		cmd, _, err := root.Find([]string{"migrate", name})
		if err != nil {
			t.Fatalf("find migrate %s: %v", name, err)
		}
		schema := cmd.Flags().Lookup("schema")
		if schema == nil || schema.DefValue != "clinic_default" {
			t.Errorf("migrate %s: expected --schema default clinic_default, got %+v", name, schema)
		}
		if cmd.Flags().Lookup("dir") == nil {
			t.Errorf("migrate %s: expected --dir flag", name)
		}
	}
}

func TestClinicCreate_RequiresName(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"clinic", "create"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--name is required") {
		t.Fatalf("expected --name error, got %v", err)
	}
}

func TestMigrationsFS_EmbeddedByDefault(t *testing.T) {
	m := db.NewMigrator(nil, migrationsFS(""))
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(migs) == 0 {
		t.Fatal("expected embedded migrations")
	}
}

func TestMigrationsFS_Directory(t *testing.T) {
	dir := t.TempDir()
	m := db.NewMigrator(nil, migrationsFS(dir))
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("load from empty dir: %v", err)
	}
	if len(migs) != 0 {
		t.Errorf("expected no migrations in empty dir, got %d", len(migs))
	}
}

func TestPrintStatuses(t *testing.T) {
	applied := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatuses(&buf, "clinic_default", []db.MigrationStatus{
		{Version: 1, Name: "catalog", Applied: true, AppliedAt: &applied},
		{Version: 2, Name: "patient_history"},
	})

	out := buf.String()
	if !strings.Contains(out, "clinic_default") {
		t.Error("expected schema in output")
	}
	if !strings.Contains(out, "applied") || !strings.Contains(out, "2026-10-01 08:30:00") {
		t.Errorf("expected applied row, got:\n%s", out)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("expected pending row, got:\n%s", out)
	}
}

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:            env,
		AuthSigningKey: strings.Repeat("s", 32),
		CORSOrigins:    []string{"http://localhost:3000"},
		RequestTimeout: time.Second,
		BodyLimit:      "1K",
	}
}

func TestNewEcho_HealthIsPublic(t *testing.T) {
	e := newEcho(testConfig("production"), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on every response")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", rec.Header().Get("Cache-Control"))
	}
}

func TestNewEcho_ProductionRequiresToken(t *testing.T) {
	e := newEcho(testConfig("production"), zerolog.Nop())
	e.GET("/api/v1/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestNewEcho_DevelopmentAllowsAnonymous(t *testing.T) {
	e := newEcho(testConfig("development"), zerolog.Nop())
	e.GET("/api/v1/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewEcho_RejectsOversizedBody(t *testing.T) {
	e := newEcho(testConfig("development"), zerolog.Nop())
	e.POST("/api/v1/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ping", strings.NewReader(strings.Repeat("x", 2048)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
