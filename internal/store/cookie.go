package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const cookieTable = "cookies"

// cookieRepo implements CookieRepo. Only name, value, path and expiry
// survive a round trip; the jar re-derives the rest from the host.
type cookieRepo struct {
	db *sql.DB
}

func (r *cookieRepo) SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}

	now := time.Now().UTC().UnixMilli()
	ins := builder().Insert(cookieTable).
		Columns("host", "name", "value", "path", "expires_ms", "updated_ms")
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.UTC().UnixMilli()
		}
		ins.Values(host, c.Name, c.Value, path, expires, now)
	}
	ins.OnConflict(
		entsql.ConflictColumns("host", "name"),
		entsql.ResolveWithNewValues(),
	)

	query, args := ins.Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save cookies: %w", err)
	}
	return nil
}

func (r *cookieRepo) LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error) {
	now := time.Now().UTC().UnixMilli()
	query, args := builder().Select("name", "value", "path", "expires_ms").
		From(entsql.Table(cookieTable)).
		Where(entsql.And(
			entsql.EQ("host", host),
			entsql.Or(entsql.EQ("expires_ms", 0), entsql.GT("expires_ms", now)),
		)).
		OrderBy("name").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	defer rows.Close()

	var out []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{}
		var expires int64
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &expires); err != nil {
			return nil, fmt.Errorf("scan cookie: %w", err)
		}
		if expires > 0 {
			c.Expires = time.UnixMilli(expires).UTC()
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *cookieRepo) ClearCookies(ctx context.Context, host string) error {
	query, args := builder().Delete(cookieTable).
		Where(entsql.EQ("host", host)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}
