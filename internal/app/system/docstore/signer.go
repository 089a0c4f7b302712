package docstore

import (
	"context"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Signer hands out viewing URLs for stored documents. URLs are cached for
// half their lifetime so a page reload does not re-sign every document.
type Signer struct {
	backend Backend
	expires time.Duration
	cache   *sturdyc.Client[string]
	log     *zap.Logger
	limit   int
}

// NewSigner builds a signer issuing URLs valid for expires.
func NewSigner(b Backend, expires time.Duration, logger *zap.Logger) *Signer {
	if expires <= 0 {
		expires = 15 * time.Minute
	}
	return &Signer{
		backend: b,
		expires: expires,
		cache:   sturdyc.New[string](10000, 8, expires/2, 10),
		log:     logger,
		limit:   8,
	}
}

// URL returns a signed URL for key.
func (s *Signer) URL(ctx context.Context, key string) (string, error) {
	return s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (string, error) {
		return s.backend.PresignedURL(ctx, key, s.expires)
	})
}

// URLs signs keys in parallel. Keys that fail to sign are logged and left
// out of the result; order of completion is not significant.
func (s *Signer) URLs(ctx context.Context, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, key := range keys {
		if key == "" {
			continue
		}
		g.Go(func() error {
			u, err := s.URL(gctx, key)
			if err != nil {
				s.log.Warn("document signing failed", zap.String("key", key), zap.Error(err))
				return nil
			}
			mu.Lock()
			out[key] = u
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
