package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/placify/placify/internal/store"
)

// PersistentJar is an http.CookieJar whose cookies for one server survive
// process restarts, so "placify login" carries over to later commands.
type PersistentJar struct {
	mu     sync.Mutex
	inner  *cookiejar.Jar
	repo   store.CookieRepo
	server *url.URL
}

// NewPersistentJar returns a jar for server preloaded with the cookies
// stored in repo.
func NewPersistentJar(ctx context.Context, server string, repo store.CookieRepo) (*PersistentJar, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	saved, err := repo.LoadCookies(ctx, u.Host)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	inner.SetCookies(u, saved)

	return &PersistentJar{inner: inner, repo: repo, server: u}, nil
}

// SetCookies stores cookies in memory and, for the configured server,
// in the local store. Cookies deleted by the server are saved as expired.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar().SetCookies(u, cookies)
	if u.Host != j.server.Host || len(cookies) == 0 {
		return
	}

	now := time.Now()
	persist := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cp := *c
		switch {
		case c.MaxAge < 0:
			cp.Expires = now.Add(-time.Second)
		case c.MaxAge > 0:
			cp.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		persist = append(persist, &cp)
	}

	// Persisting is best effort; the in-memory session still works.
	if err := j.repo.SaveCookies(context.Background(), u.Host, persist); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save session cookies: %v\n", err)
	}
}

// Cookies returns the cookies to send in a request for u.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar().Cookies(u)
}

func (j *PersistentJar) jar() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner
}

// Forget drops every stored cookie for the server. The in-memory jar is
// replaced so later requests go out without a session.
func (j *PersistentJar) Forget(ctx context.Context) error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
	if err := j.repo.ClearCookies(ctx, j.server.Host); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

// HasSession reports whether any cookie is held for the server.
func (j *PersistentJar) HasSession() bool {
	return len(j.jar().Cookies(j.server)) > 0
}
