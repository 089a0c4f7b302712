package identity_test

import (
	"testing"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/system/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerifier_Parse(t *testing.T) {
	v := identity.NewVerifier("jwt-secret")
	valid := identity.Claims{
		Email: "a@b.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "identity-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	claims, err := v.Parse(sign(t, jwt.SigningMethodHS256, []byte("jwt-secret"), valid))
	require.NoError(t, err)
	assert.Equal(t, "identity-1", claims.Subject)
	assert.Equal(t, "a@b.test", claims.Email)

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noSub := valid
	noSub.Subject = ""
	noExp := valid
	noExp.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), valid)},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte("jwt-secret"), expired)},
		{"no subject", sign(t, jwt.SigningMethodHS256, []byte("jwt-secret"), noSub)},
		{"no expiry", sign(t, jwt.SigningMethodHS256, []byte("jwt-secret"), noExp)},
		{"wrong alg", sign(t, jwt.SigningMethodHS512, []byte("jwt-secret"), valid)},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Parse(tt.token)
			assert.ErrorIs(t, err, identity.ErrInvalidToken)
		})
	}

	_, err = v.Parse("")
	assert.ErrorIs(t, err, identity.ErrMissingToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", identity.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", identity.BearerToken("bearer  abc"))
	assert.Empty(t, identity.BearerToken("Basic abc"))
	assert.Empty(t, identity.BearerToken("Bearer "))
}
