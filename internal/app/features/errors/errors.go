// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string
	Message    string
	BackURL    string
}

func newPageData(r *http.Request, title, msg, backURL string) pageData {
	d := pageData{Title: title, Message: msg, BackURL: backURL}
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		d.IsLoggedIn = true
		d.Role = u.Role
		d.UserName = u.Name
	}
	return d
}

// Handler serves the static error pages. No DB needed.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_page", newPageData(r, "Access denied",
		"You don't have permission to view this page.", "/"))
}

// Unauthorized renders a "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_page", newPageData(r, "Sign in required",
		"Please sign in to continue.", "/login"))
}
