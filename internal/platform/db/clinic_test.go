package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newClinicContext(target string, header string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set("X-Clinic-ID", header)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestExtractClinicID(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		jwt    string
		want   string
	}{
		{"default", "/", "", "", "default"},
		{"header", "/", "north_ward", "", "north_ward"},
		{"query", "/?clinic_id=south", "", "", "south"},
		{"jwt", "/", "", "from_jwt", "from_jwt"},
		{"jwt over header", "/?clinic_id=q", "h", "from_jwt", "from_jwt"},
		{"header over query", "/?clinic_id=q", "h", "", "h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClinicContext(tt.target, tt.header)
			if tt.jwt != "" {
				c.Set("jwt_clinic_id", tt.jwt)
			}
			if got := extractClinicID(c, "default"); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExtractClinicID_EmptyJWT(t *testing.T) {
	c := newClinicContext("/", "north")
	c.Set("jwt_clinic_id", "")

	if got := extractClinicID(c, "default"); got != "north" {
		t.Errorf("expected north, got %s", got)
	}
}

func TestClinicIDPattern(t *testing.T) {
	valid := []string{"default", "clinic_1", "ABC", "a1_b2"}
	invalid := []string{"", "clinic-1", "a;DROP TABLE", "a b", "x.y", "ü"}

	for _, id := range valid {
		if !clinicIDPattern.MatchString(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if clinicIDPattern.MatchString(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestClinicSchema(t *testing.T) {
	if got := ClinicSchema("north"); got != "clinic_north" {
		t.Errorf("expected clinic_north, got %s", got)
	}
}

func TestClinicMiddleware_RejectsInvalidID(t *testing.T) {
	c := newClinicContext("/", "bad-id")
	called := false
	h := ClinicMiddleware(nil, "default")(func(c echo.Context) error {
		called = true
		return nil
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if called {
		t.Error("handler should not run")
	}
}

func TestConnFromContext(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Error("expected nil connection")
	}
	ctx := context.WithValue(context.Background(), DBConnKey, "not-a-conn")
	if conn := ConnFromContext(ctx); conn != nil {
		t.Error("expected nil for wrong type")
	}
}

func TestClinicFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ClinicIDKey, "north")
	if got := ClinicFromContext(ctx); got != "north" {
		t.Errorf("expected north, got %s", got)
	}
	if got := ClinicFromContext(context.Background()); got != "" {
		t.Errorf("expected empty, got %s", got)
	}
}

func TestCreateClinicSchema_InvalidIDs(t *testing.T) {
	for _, id := range []string{"", "a-b", "x;y", "../etc"} {
		if err := CreateClinicSchema(context.Background(), nil, id, nil); err == nil {
			t.Errorf("expected error for %q", id)
		}
	}
}
