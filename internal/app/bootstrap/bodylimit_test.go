package bootstrap

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	applyfeature "github.com/dalemusser/partnerportal/internal/app/features/apply"
	"github.com/dalemusser/partnerportal/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// endless never runs out of bytes.
type endless struct{}

func (endless) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'a'
	}
	return len(p), nil
}

// guardedRouter mirrors BuildHandler's middleware order with a stub
// submission handler that counts how often it is reached.
func guardedRouter(limiter *ratelimit.Limiter) (http.Handler, *int) {
	logger := zap.NewNop()
	applyHandler := &applyfeature.Handler{Limiter: limiter, Log: logger}

	reached := 0
	r := chi.NewRouter()
	useRequestGuards(r, applyHandler.LimitSubmissions, csrfMiddleware("test-session-key-for-testing-only-32b", false, logger), logger)
	r.Post("/apply", func(w http.ResponseWriter, r *http.Request) {
		reached++
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusOK)
	})
	return r, &reached
}

func oversizedUpload(contentLength int64) (*http.Request, *countingReader) {
	const boundary = "partnerportalboundary"
	head := "--" + boundary + "\r\n" +
		`Content-Disposition: form-data; name="registration_doc"; filename="reg.pdf"` + "\r\n" +
		"Content-Type: application/pdf\r\n\r\n"
	body := &countingReader{r: io.MultiReader(strings.NewReader(head), endless{})}
	req := httptest.NewRequest(http.MethodPost, "/apply", body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	req.ContentLength = contentLength
	return req, body
}

func TestRequestGuards_RejectsDeclaredOversizeUnread(t *testing.T) {
	h, reached := guardedRouter(nil)
	req, body := oversizedUpload(applyfeature.MaxFormSize + 1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if body.n != 0 {
		t.Errorf("read %d body bytes, want 0", body.n)
	}
	if *reached != 0 {
		t.Error("handler reached")
	}
}

func TestRequestGuards_StopsReadingStreamedOversize(t *testing.T) {
	h, reached := guardedRouter(nil)
	// Chunked upload with no declared length.
	req, body := oversizedUpload(-1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if body.n > applyfeature.MaxFormSize+1 {
		t.Errorf("read %d body bytes, limit is %d", body.n, applyfeature.MaxFormSize)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/forbidden" {
		t.Errorf("got %d %q, want 303 /forbidden", rec.Code, rec.Header().Get("Location"))
	}
	if *reached != 0 {
		t.Error("handler reached")
	}
}

func TestRequestGuards_DefaultBudgetOnOtherRoutes(t *testing.T) {
	h, reached := guardedRouter(nil)
	body := &countingReader{r: endless{}}
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.ContentLength = defaultBodyLimit + 1

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if body.n != 0 || *reached != 0 {
		t.Errorf("read %d bytes, reached %d times; want neither", body.n, *reached)
	}
}

func TestRequestGuards_LimiterRunsBeforeCSRF(t *testing.T) {
	h, reached := guardedRouter(ratelimit.New(1, time.Hour))

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/apply", strings.NewReader("company_name=Acme"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// The first tokenless post spends the budget and then fails CSRF.
	if rec := post(); rec.Code != http.StatusSeeOther {
		t.Fatalf("first post: status = %d, want 303", rec.Code)
	}
	// The second is refused by the limiter before CSRF parses anything.
	if rec := post(); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second post: status = %d, want 429", rec.Code)
	}
	if *reached != 0 {
		t.Error("handler reached")
	}
}
