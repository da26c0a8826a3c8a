package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wombatlabs/wombat"
)

func TestAccessLogWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := AccessLog(logger)(func(c *wombat.Ctx) error {
		return c.Text(http.StatusOK, "ok")
	})

	c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things", nil))
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	out := buf.String()
	if strings.Count(strings.TrimSpace(out), "\n") != 0 {
		t.Errorf("expected exactly one log line, got:\n%s", out)
	}
	for _, want := range []string{"method=GET", "path=/things", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q:\n%s", want, out)
		}
	}
}

func TestAccessLogReportsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sentinel := errors.New("storage offline")

	h := AccessLog(logger)(func(c *wombat.Ctx) error {
		return sentinel
	})

	c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err := h(c); !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want sentinel", err)
	}

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("expected ERROR level line:\n%s", out)
	}
	if !strings.Contains(out, "storage offline") {
		t.Errorf("log line missing error message:\n%s", out)
	}
}
