package docstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Local stores documents on disk and signs /files URLs with HMAC-SHA256.
type Local struct {
	root      string
	urlPrefix string
	secret    []byte
	now       func() time.Time
	log       *zap.Logger
}

// NewLocal stores files under root; URLs are served under urlPrefix
// (e.g. "/files").
func NewLocal(root, urlPrefix, secret string, logger *zap.Logger) *Local {
	return &Local{
		root:      root,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		secret:    []byte(secret),
		now:       time.Now,
		log:       logger,
	}
}

// FullPath maps a key to its location on disk.
func (l *Local) FullPath(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(k)), nil
}

func (l *Local) Put(_ context.Context, key string, r io.Reader, _ string) error {
	full, err := l.FullPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, MaxDocumentSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxDocumentSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return err
	}
	return nil
}

func (l *Local) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, l.secret)
	fmt.Fprintf(mac, "%s\n%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

func (l *Local) PresignedURL(_ context.Context, key string, expires time.Duration) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	exp := l.now().Add(expires).Unix()
	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", l.sign(k, exp))
	return l.urlPrefix + "/" + (&url.URL{Path: k}).EscapedPath() + "?" + q.Encode(), nil
}

// Verify checks a signature produced by PresignedURL.
func (l *Local) Verify(key, expStr, sig string) bool {
	k, err := cleanKey(key)
	if err != nil {
		return false
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || l.now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(l.sign(k, exp)))
}

// ServeHTTP serves a signed document. Mount it with the URL prefix stripped.
func (l *Local) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	q := r.URL.Query()
	if !l.Verify(key, q.Get("exp"), q.Get("sig")) {
		http.Error(w, "link expired or invalid", http.StatusForbidden)
		return
	}
	full, err := l.FullPath(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(full); err != nil {
		l.log.Warn("signed document missing", zap.String("key", key), zap.Error(err))
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("Content-Disposition", "inline; filename=\""+filepath.Base(full)+"\"")
	http.ServeFile(w, r, full)
}
