package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AdminSessionUser returns a signed-in admin for handler tests.
func AdminSessionUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Role:  "admin",
	}
}

// NewFormRequest builds a POST request with a urlencoded form body and the
// given user in context (nil for anonymous).
func NewFormRequest(target string, form url.Values, user *auth.SessionUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if user != nil {
		req = auth.WithTestUser(req, user)
	}
	return req
}

// RedirectQuery returns the parsed query of a redirect response's Location.
func RedirectQuery(rec *httptest.ResponseRecorder) (string, url.Values) {
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		return "", url.Values{}
	}
	return loc.Path, loc.Query()
}
