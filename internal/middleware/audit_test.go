package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func auditTestApp(buf *bytes.Buffer) *fiber.App {
	logger := slog.New(slog.NewJSONHandler(buf, nil))

	app := fiber.New()
	app.Use(Audit(logger))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "cuenta no encontrada")
	})
	return app
}

func auditEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit entry invalid json: %v (%s)", err, buf.String())
	}
	return entry
}

func TestAuditLogsSuccessStatus(t *testing.T) {
	var buf bytes.Buffer
	app := auditTestApp(&buf)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	entry := auditEntry(t, &buf)
	if entry["status"].(float64) != fiber.StatusOK {
		t.Fatalf("expected status 200 logged, got %v", entry["status"])
	}
	if entry["level"] != "INFO" {
		t.Fatalf("expected INFO level, got %v", entry["level"])
	}
}

func TestAuditLogsTranslatedErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := auditTestApp(&buf)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 response, got %d", resp.StatusCode)
	}

	// The entry must carry the code the client actually receives, not the
	// status before error translation.
	entry := auditEntry(t, &buf)
	if entry["status"].(float64) != fiber.StatusNotFound {
		t.Fatalf("expected status 404 logged, got %v", entry["status"])
	}
	if entry["level"] != "ERROR" {
		t.Fatalf("expected ERROR level, got %v", entry["level"])
	}
	if entry["error"] == nil {
		t.Fatal("expected error detail in entry")
	}
}
