package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"analytics-export/internal/components/telemetry"

	"golang.org/x/oauth2"
)

// Cached reuses a token persisted on disk, only falling back to the
// interactive flow when there is no usable token.
type Cached struct {
	interactive Interactive
	path        string
	tel         telemetry.API
}

func NewCached(interactive Interactive, path string, tel telemetry.API) Cached {
	return Cached{interactive: interactive, path: path, tel: tel}
}

func (c Cached) load() (*oauth2.Token, error) {
	contents, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	err = json.Unmarshal(contents, &token)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, errors.New("cached token is empty")
	}
	return &token, nil
}

func (c Cached) save(token *oauth2.Token) error {
	contents, err := json.Marshal(token)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(c.path), 0700)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, contents, 0600)
}

func (c Cached) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := c.interactive.OAuthConfig()
	if err != nil {
		return nil, err
	}

	token, err := c.load()
	if err == nil {
		source := &savingTokenSource{
			inner: cfg.TokenSource(ctx, token),
			last:  token.AccessToken,
			cache: c,
		}
		// a revoked grant only shows once the token is used or refreshed,
		// a refresh happening here is written back to the cache
		_, err = source.Token()
		if err == nil {
			return source, nil
		}
		err = fmt.Errorf("cached token is unusable: %w", err)
	}
	if !os.IsNotExist(err) {
		c.tel.ReportWarning(report_cached_load, err, c.path)
	}

	fresh, cfg, err := c.interactive.Token(ctx)
	if err != nil {
		return nil, err
	}
	err = c.save(fresh)
	if err != nil {
		c.tel.ReportBroken(report_cached_save, err, c.path)
		return nil, fmt.Errorf("save token cache: %w", err)
	}

	return &savingTokenSource{
		inner: cfg.TokenSource(ctx, fresh),
		last:  fresh.AccessToken,
		cache: c,
	}, nil
}

// savingTokenSource writes refreshed tokens back to the cache.
type savingTokenSource struct {
	inner oauth2.TokenSource
	cache Cached

	mutex sync.Mutex
	last  string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.inner.Token()
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		err = s.cache.save(token)
		if err != nil {
			s.cache.tel.ReportWarning(report_cached_save, err, s.cache.path)
		}
	}
	return token, nil
}
