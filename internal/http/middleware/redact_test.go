package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestScrubQuery(t *testing.T) {
	cases := map[string]string{
		"":                            "",
		"name=run":                    "name=run",
		"name=jane.doe%40example.com": "name=[REDACTED:email]",
		"name=a@b.io&x=1":             "name=[REDACTED:email]&x=1",
		"name=call+212-555-1212":      "name=call [REDACTED:phone]",
		"name=%zz":                    "name=%zz", // undecodable → raw
	}
	for in, want := range cases {
		if got := scrubQuery(in); got != want {
			t.Fatalf("scrubQuery(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestLogger_ScrubsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger())
	r.GET("/api/habits/search", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/habits/search?name=jane%40example.com", nil)
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, "jane") || strings.Contains(out, "example.com") {
		t.Fatalf("e-mail leaked into logs:\n%s", out)
	}
	if !strings.Contains(out, "[REDACTED:email]") {
		t.Fatalf("expected redaction marker, got:\n%s", out)
	}
}
