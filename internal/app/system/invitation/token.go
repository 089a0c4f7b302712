package invitation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// SignatureLen is the number of hex characters kept from the HMAC.
const SignatureLen = 12

// Sign returns the truncated hex HMAC-SHA256 of token under secret.
func Sign(secret, token string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))[:SignatureLen]
}

// NewCode returns a fresh random token, its signature and the public code
// "token.signature".
func NewCode(secret string) (token, sig, code string) {
	token = uuid.NewString()
	sig = Sign(secret, token)
	return token, sig, token + "." + sig
}

// Verify reports whether code is a "token.signature" pair whose signature
// matches under secret. Expiry is not checked here.
func Verify(secret, code string) bool {
	i := strings.LastIndexByte(code, '.')
	if i <= 0 || i == len(code)-1 {
		return false
	}
	token, sig := code[:i], code[i+1:]
	return hmac.Equal([]byte(sig), []byte(Sign(secret, token)))
}
