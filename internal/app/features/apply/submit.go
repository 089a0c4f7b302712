package apply

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/system/docstore"
	"github.com/dalemusser/partnerportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/partnerportal/internal/app/system/inputval"
	"github.com/dalemusser/partnerportal/internal/app/system/ratelimit"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// MaxFormSize bounds the whole multipart body (two documents plus fields).
const MaxFormSize = 2*docstore.MaxDocumentSize + (1 << 20)

// allowedDocTypes are the document formats accepted for upload.
var allowedDocTypes = []string{"application/pdf", "image/png", "image/jpeg"}

var errDocType = errors.New("unsupported document type")

// LimitSubmissions rejects POST /apply once the client IP has used up its
// Limiter budget. It is installed on the root router ahead of CSRF checks so
// rejected submissions are never parsed.
func (h *Handler) LimitSubmissions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || r.Method != http.MethodPost || (r.URL.Path != "/apply" && r.URL.Path != "/apply/") {
			next.ServeHTTP(w, r)
			return
		}
		ip := ratelimit.ClientIP(r)
		if !h.Limiter.Allow(ip) {
			h.Log.Warn("application submission rate limited", zap.String("ip", ip))
			http.Error(w, "Too many submissions. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeForm handles GET /apply.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "apply_form", formVM{Title: "Become a partner", CSRFToken: csrf.Token(r)})
}

// ServeThanks handles GET /apply/thanks.
func (h *Handler) ServeThanks(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "apply_thanks", formVM{Title: "Application received"})
}

// HandleSubmit handles POST /apply.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormSize)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data or files too large.", "/apply")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	vm := formVM{
		Title:       "Become a partner",
		CSRFToken:   csrf.Token(r),
		CompanyName: htmlsanitize.StripTags(r.FormValue("company_name")),
		ContactName: htmlsanitize.StripTags(r.FormValue("contact_name")),
		Email:       htmlsanitize.StripTags(r.FormValue("email")),
		Phone:       htmlsanitize.StripTags(r.FormValue("phone")),
		Notes:       htmlsanitize.Sanitize(r.FormValue("notes")),
	}
	reRender := func(msg string) {
		vm.Error = msg
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "apply_form", vm)
	}

	input := applyInput{
		CompanyName: vm.CompanyName,
		ContactName: vm.ContactName,
		Email:       vm.Email,
		Phone:       vm.Phone,
		Notes:       vm.Notes,
	}
	if result := inputval.Validate(input); result.HasErrors() {
		reRender(result.First())
		return
	}

	regFile, regHeader, err := r.FormFile("registration_doc")
	if err != nil {
		reRender("Registration document is required.")
		return
	}
	defer regFile.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	now := time.Now().UTC()
	regPath, err := h.storeDoc(ctx, regFile, regHeader.Filename, now)
	if err != nil {
		h.uploadFailed(w, r, reRender, "registration_doc", err)
		return
	}

	var taxPath string
	if taxFile, taxHeader, err := r.FormFile("tax_doc"); err == nil {
		defer taxFile.Close()
		taxPath, err = h.storeDoc(ctx, taxFile, taxHeader.Filename, now)
		if err != nil {
			h.uploadFailed(w, r, reRender, "tax_doc", err)
			return
		}
	}

	app, err := h.Apps.Create(ctx, models.Application{
		CompanyName:         vm.CompanyName,
		ContactName:         vm.ContactName,
		Email:               vm.Email,
		Phone:               vm.Phone,
		Notes:               vm.Notes,
		RegistrationDocPath: regPath,
		TaxDocPath:          taxPath,
		SubmittedAt:         now,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create application failed", err, "We could not save your application. Please try again.", "/apply")
		return
	}

	h.Log.Info("application submitted",
		zap.String("application_id", app.ID.Hex()),
		zap.String("company", app.CompanyName))
	h.AuditLog.ApplicationSubmitted(ctx, r, app.ID, app.CompanyName)

	http.Redirect(w, r, "/apply/thanks", http.StatusSeeOther)
}

func (h *Handler) uploadFailed(w http.ResponseWriter, r *http.Request, reRender func(string), field string, err error) {
	switch {
	case errors.Is(err, errDocType):
		reRender("Documents must be PDF, PNG or JPEG files.")
	case errors.Is(err, docstore.ErrTooLarge):
		reRender("Each document must be 10 MB or smaller.")
	default:
		h.Log.Error("document upload failed", zap.String("field", field), zap.Error(err))
		reRender("Failed to upload documents. Please try again.")
	}
}

// storeDoc checks the sniffed type of f and stores it under a fresh key.
func (h *Handler) storeDoc(ctx context.Context, f multipart.File, filename string, now time.Time) (string, error) {
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect type: %w", err)
	}
	if !mimetype.EqualsAny(mt.String(), allowedDocTypes...) {
		return "", fmt.Errorf("%w: %s", errDocType, mt.String())
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", err
	}

	key := docstore.NewKey("applications", filename, now)
	if err := h.Docs.Put(ctx, key, f, mt.String()); err != nil {
		return "", err
	}
	return key, nil
}
