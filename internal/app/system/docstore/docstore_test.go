package docstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewKey(t *testing.T) {
	now := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)
	key := NewKey("applications", "../Tax Return (2024).pdf", now)

	assert.True(t, strings.HasPrefix(key, "applications/2025/02/"), key)
	assert.True(t, strings.HasSuffix(key, "-Tax_Return__2024_.pdf"), key)
	assert.NotContains(t, key, "..")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a.pdf", SanitizeFilename(`C:\docs\a.pdf`))
	assert.Equal(t, "document", SanitizeFilename(".."))
	assert.Equal(t, "r__sum__.doc", SanitizeFilename("résumé.doc"))
}

func newLocal(t *testing.T) *Local {
	t.Helper()
	return NewLocal(t.TempDir(), "/files/", "secret", zap.NewNop())
}

func TestLocal_PutAndServeSigned(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()
	require.NoError(t, l.Put(ctx, "applications/2025/02/abc-reg.pdf", strings.NewReader("%PDF-1"), "application/pdf"))

	u, err := l.PresignedURL(ctx, "applications/2025/02/abc-reg.pdf", time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "/files/applications/2025/02/abc-reg.pdf?"), u)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(parsed.Path, "/files")+"?"+parsed.RawQuery, nil)
	rec := httptest.NewRecorder()
	l.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1", rec.Body.String())
}

func TestLocal_RejectsTamperedAndExpired(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()
	require.NoError(t, l.Put(ctx, "a/b.txt", strings.NewReader("x"), "text/plain"))

	u, err := l.PresignedURL(ctx, "a/b.txt", time.Minute)
	require.NoError(t, err)
	parsed, _ := url.Parse(u)
	q := parsed.Query()

	assert.True(t, l.Verify("a/b.txt", q.Get("exp"), q.Get("sig")))
	assert.False(t, l.Verify("a/c.txt", q.Get("exp"), q.Get("sig")))
	assert.False(t, l.Verify("a/b.txt", q.Get("exp")+"0", q.Get("sig")))

	l.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.False(t, l.Verify("a/b.txt", q.Get("exp"), q.Get("sig")))

	rec := httptest.NewRecorder()
	l.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a/b.txt?"+q.Encode(), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLocal_KeysStayUnderRoot(t *testing.T) {
	l := newLocal(t)
	full, err := l.FullPath("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.root, "etc", "passwd"), full)

	_, err = l.FullPath("/")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestLocal_PutTooLarge(t *testing.T) {
	l := newLocal(t)
	big := io.LimitReader(zeroReader{}, MaxDocumentSize+10)
	err := l.Put(context.Background(), "big.bin", big, "")
	assert.ErrorIs(t, err, ErrTooLarge)

	full, _ := l.FullPath("big.bin")
	_, statErr := os.Stat(full)
	assert.True(t, os.IsNotExist(statErr))
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func newTestS3(t *testing.T, endpoint string) *S3 {
	t.Helper()
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDTEST", SecretAccessKey: "secret"}, nil
		}),
	})
	return NewS3FromClient(client, "docs-bucket", "portal/")
}

func TestS3_PresignedURL(t *testing.T) {
	s := newTestS3(t, "http://s3.test")
	u, err := s.PresignedURL(context.Background(), "applications/2025/02/x.pdf", 15*time.Minute)
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "/docs-bucket/portal/applications/2025/02/x.pdf", parsed.Path)
	assert.NotEmpty(t, parsed.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "900", parsed.Query().Get("X-Amz-Expires"))
}

func TestS3_Put(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		ctype  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path, ctype = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestS3(t, srv.URL)
	require.NoError(t, s.Put(context.Background(), "a/b.pdf", strings.NewReader("%PDF"), "application/pdf"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/docs-bucket/portal/a/b.pdf", path)
	assert.Equal(t, "application/pdf", ctype)
}

type countingBackend struct {
	calls atomic.Int32
	fail  string
}

func (c *countingBackend) Put(context.Context, string, io.Reader, string) error { return nil }

func (c *countingBackend) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	c.calls.Add(1)
	if key == c.fail {
		return "", errors.New("boom")
	}
	return "https://signed.test/" + key, nil
}

func TestSigner_URLsParallelAndCached(t *testing.T) {
	b := &countingBackend{fail: "bad"}
	s := NewSigner(b, time.Minute, zap.NewNop())

	got := s.URLs(context.Background(), []string{"a", "b", "", "bad", "c"})
	assert.Equal(t, map[string]string{
		"a": "https://signed.test/a",
		"b": "https://signed.test/b",
		"c": "https://signed.test/c",
	}, got)

	before := b.calls.Load()
	u, err := s.URL(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/a", u)
	assert.Equal(t, before, b.calls.Load(), "cached URL should not be re-signed")
}
