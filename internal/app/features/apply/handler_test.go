package apply_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/features/apply"
	uierrors "github.com/dalemusser/partnerportal/internal/app/features/errors"
	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	"github.com/dalemusser/partnerportal/internal/app/system/docstore"
	"github.com/dalemusser/partnerportal/internal/app/system/ratelimit"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/dalemusser/partnerportal/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*apply.Handler, *docstore.Local) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	docs := docstore.NewLocal(t.TempDir(), "/files", "test-secret", logger)
	return apply.NewHandler(db, docs, uierrors.NewErrorLogger(logger), nil, logger), docs
}

type upload struct {
	field, name string
	body        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(f.body)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/apply", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func submit(h *apply.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	func() {
		// Form templates are not registered in tests.
		defer func() { _ = recover() }()
		h.HandleSubmit(rec, req)
	}()
	return rec
}

var pdf = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func TestHandleSubmit_StoresApplicationAndDocuments(t *testing.T) {
	h, docs := newTestHandler(t)

	req := multipartRequest(t, map[string]string{
		"company_name": "Acme <b>Ltd</b>",
		"contact_name": "Wile E.",
		"email":        "wile@acme.test",
		"phone":        "+1 555 010 2030",
		"notes":        "<p>Hi</p><script>alert(1)</script>",
	},
		upload{"registration_doc", "reg.pdf", pdf},
		upload{"tax_doc", "tax.pdf", pdf},
	)
	rec := submit(h, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/apply/thanks" {
		t.Errorf("Location = %q", loc)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	apps, err := h.Apps.List(ctx, applicationstore.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("expected 1 application, got %d", len(apps))
	}
	a := apps[0]
	if a.CompanyName != "Acme Ltd" {
		t.Errorf("CompanyName = %q", a.CompanyName)
	}
	if a.Notes != "<p>Hi</p>" {
		t.Errorf("Notes = %q", a.Notes)
	}
	if a.Status != models.ApplicationPending {
		t.Errorf("Status = %q", a.Status)
	}
	for _, p := range []string{a.RegistrationDocPath, a.TaxDocPath} {
		full, err := docs.FullPath(p)
		if err != nil {
			t.Fatalf("FullPath(%q): %v", p, err)
		}
		if _, err := os.Stat(full); err != nil {
			t.Errorf("document %q not stored: %v", p, err)
		}
	}
}

func TestHandleSubmit_RejectsBadInput(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		fields map[string]string
		files  []upload
	}{
		{"missing company", map[string]string{"contact_name": "W", "email": "w@acme.test"}, []upload{{"registration_doc", "r.pdf", pdf}}},
		{"no contact channel", map[string]string{"company_name": "Acme", "contact_name": "W"}, []upload{{"registration_doc", "r.pdf", pdf}}},
		{"missing document", map[string]string{"company_name": "Acme", "contact_name": "W", "email": "w@acme.test"}, nil},
		{"wrong document type", map[string]string{"company_name": "Acme", "contact_name": "W", "email": "w@acme.test"}, []upload{{"registration_doc", "r.pdf", []byte("just text")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := submit(h, multipartRequest(t, tt.fields, tt.files...))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	apps, _ := h.Apps.List(ctx, applicationstore.Filter{})
	if len(apps) != 0 {
		t.Errorf("expected no applications stored, got %d", len(apps))
	}
}

func TestLimitSubmissions(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Limiter = ratelimit.New(1, time.Hour)
	limited := h.LimitSubmissions(http.HandlerFunc(h.HandleSubmit))

	send := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		func() {
			// Form templates are not registered in tests.
			defer func() { _ = recover() }()
			limited.ServeHTTP(rec, req)
		}()
		return rec
	}

	fields := map[string]string{"contact_name": "W", "email": "w@acme.test"}
	if rec := send(multipartRequest(t, fields)); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("first submission: status = %d, want 422", rec.Code)
	}
	if rec := send(multipartRequest(t, fields)); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second submission: status = %d, want 429", rec.Code)
	}

	// The form page is never limited.
	if rec := send(httptest.NewRequest(http.MethodGet, "/apply", nil)); rec.Code == http.StatusTooManyRequests {
		t.Errorf("GET /apply was rate limited")
	}
}
