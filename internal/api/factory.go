package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/placify/placify/internal/store"
)

// New builds a Gateway from cfg. Session cookies are kept in cookies;
// when calls is non-nil every request is journaled there.
func New(ctx context.Context, cfg Config, cookies store.CookieRepo, calls store.CallRepo) (*Gateway, *PersistentJar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("api config: %w", err)
	}

	jar, err := NewPersistentJar(ctx, cfg.BaseURL(), cookies)
	if err != nil {
		return nil, nil, err
	}

	var doer Doer = &http.Client{Jar: jar, Timeout: cfg.Timeout}
	if calls != nil {
		doer = WithJournal(doer, calls)
	}

	client := NewClient(cfg.BaseURL(), doer, UserAgent(cfg.Version))
	return NewGateway(client), jar, nil
}
