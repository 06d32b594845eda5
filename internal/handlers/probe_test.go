package handlers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestProbes(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]Pinger
		path     string
		want     int
		wantBody string
	}{
		{"liveness", nil, "/healthz", 200, `"ok"`},
		{"readiness without deps", nil, "/readyz", 200, `"ok"`},
		{"readiness nil dep skipped", map[string]Pinger{"database": nil}, "/readyz", 200, `"ok"`},
		{"readiness healthy", map[string]Pinger{"database": fakePinger{}}, "/readyz", 200, `"ok"`},
		{"readiness failing", map[string]Pinger{"database": fakePinger{err: errors.New("down")}}, "/readyz", 503, "database unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProbeHandler(tt.checks)
			app := fiber.New()
			app.Get("/healthz", h.Liveness)
			app.Get("/readyz", h.Readiness)

			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", body, tt.wantBody)
			}
		})
	}
}
