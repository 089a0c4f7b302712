package landing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/system/identity"
	"github.com/dalemusser/partnerportal/internal/app/system/membership"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const secret = "landing-test-secret"

type fakeResolver struct {
	res   membership.Resolution
	err   error
	gotID string
}

func (f *fakeResolver) Resolve(_ context.Context, identityID string) (membership.Resolution, error) {
	f.gotID = identityID
	return f.res, f.err
}

func signToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newHandler(r Resolver) *Handler {
	return NewHandler(identity.NewVerifier(secret), r, nil, zap.NewNop())
}

func TestServeLanding_Redirects(t *testing.T) {
	tenantID := primitive.NewObjectID()

	tests := []struct {
		name string
		res  membership.Resolution
		want string
	}{
		{"workspace", membership.Resolution{State: membership.StateWorkspace, TenantID: tenantID, Source: membership.SourceProfile}, "/workspace/" + tenantID.Hex()},
		{"activate", membership.Resolution{State: membership.StateActivate, TenantID: tenantID, Source: membership.SourceMembership}, "/activate?tenant=" + tenantID.Hex()},
		{"suspended", membership.Resolution{State: membership.StateSuspended, TenantID: tenantID}, "/suspended"},
		{"none", membership.Resolution{State: membership.StateNoMembership, Source: membership.SourceNone}, "/support"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &fakeResolver{res: tt.res}
			h := newHandler(fr)

			req := httptest.NewRequest(http.MethodGet, "/auth/landing", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, "user-123", time.Now().Add(time.Hour)))
			rec := httptest.NewRecorder()
			h.ServeLanding(rec, req)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
			assert.Equal(t, "user-123", fr.gotID)
		})
	}
}

func TestServeLanding_QueryToken(t *testing.T) {
	fr := &fakeResolver{res: membership.Resolution{State: membership.StateNoMembership}}
	h := newHandler(fr)

	tok := signToken(t, "user-q", time.Now().Add(time.Hour))
	rec := httptest.NewRecorder()
	h.ServeLanding(rec, httptest.NewRequest(http.MethodGet, "/auth/landing?access_token="+tok, nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "user-q", fr.gotID)
}

func TestServeLanding_Unauthorized(t *testing.T) {
	fr := &fakeResolver{}
	h := newHandler(fr)

	tests := map[string]string{
		"missing": "",
		"expired": "Bearer " + signToken(t, "user-1", time.Now().Add(-time.Hour)),
		"garbage": "Bearer not.a.jwt",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/landing", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeLanding(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		})
	}
	assert.Empty(t, fr.gotID, "resolver must not run without a valid token")
}

func TestServeLanding_ResolveError(t *testing.T) {
	h := newHandler(&fakeResolver{err: errors.New("deadline")})

	req := httptest.NewRequest(http.MethodGet, "/auth/landing", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	h.ServeLanding(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
