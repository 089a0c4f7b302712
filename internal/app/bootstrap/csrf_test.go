package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

func TestCSRFMiddleware(t *testing.T) {
	var token string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = csrf.Token(r)
		w.WriteHeader(http.StatusOK)
	})
	h := csrfMiddleware("test-session-key-for-testing-only-32b", false, zap.NewNop())(next)

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/login", nil))
	if get.Code != http.StatusOK {
		t.Fatalf("GET status = %d", get.Code)
	}
	if token == "" {
		t.Fatal("expected a token on GET")
	}

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/forbidden" {
			t.Errorf("got %d %q, want 303 /forbidden", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("valid token", func(t *testing.T) {
		form := url.Values{"gorilla.csrf.Token": {token}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range get.Result().Cookies() {
			req.AddCookie(c)
		}
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
