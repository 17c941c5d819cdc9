package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func captureLog(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_AttachesUserAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	handler := Logger(logger)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "req-123")
	c.Set("user_id", "doctor-a")

	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	entry := captureLog(t, &buf)
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["user_id"] != "doctor-a" || entry["request_id"] != "req-123" {
		t.Errorf("identity fields = %v / %v", entry["user_id"], entry["request_id"])
	}
	if entry["path"] != "/api/v1/appointments" || entry["method"] != "POST" {
		t.Errorf("route fields = %v %v", entry["method"], entry["path"])
	}
}

func TestLogger_LevelsByStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		level  string
		status int
	}{
		{"client error warns", echo.NewHTTPError(http.StatusConflict, "slot taken"), "warn", http.StatusConflict},
		{"server error logs error", echo.NewHTTPError(http.StatusInternalServerError, "boom"), "error", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			e := echo.New()
			handler := Logger(logger)(func(c echo.Context) error {
				return tc.err
			})

			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if err := handler(c); err == nil {
				t.Fatal("expected handler error to propagate")
			}

			entry := captureLog(t, &buf)
			if entry["level"] != tc.level {
				t.Errorf("level = %v, want %s", entry["level"], tc.level)
			}
			if int(entry["status"].(float64)) != tc.status {
				t.Errorf("status = %v, want %d", entry["status"], tc.status)
			}
		})
	}
}
