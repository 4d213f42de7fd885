package store

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		require.NoError(t, err, "PRAGMA %s", tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	// Re-running the schema against an existing database must not fail.
	require.NoError(t, migrate(context.Background(), s.DB()))
}

func TestCallRepo_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.CallRepo()
	ctx := context.Background()

	calls := []CallEventData{
		{RequestID: "r1", Kind: KindAPI, Method: "GET", Endpoint: "/api/test_sections", StatusCode: 200, LatencyMs: 12, Success: true},
		{RequestID: "r2", Kind: KindAPI, Method: "POST", Endpoint: "/api/submit_test", StatusCode: 500, LatencyMs: 40, Success: false, ErrorMessage: "Network error"},
		{RequestID: "r3", Kind: KindLLM, Method: "", Endpoint: "mock", Purpose: "practice-plan", LatencyMs: 5, Success: true},
	}
	for _, c := range calls {
		require.NoError(t, repo.AppendCall(ctx, c))
	}

	all, err := repo.QueryCalls(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].RequestID, "newest first")
	assert.Equal(t, "r1", all[2].RequestID)
	assert.False(t, all[2].Timestamp.IsZero())

	failed, err := repo.QueryCalls(ctx, QueryOpts{FailOnly: true})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "/api/submit_test", failed[0].Endpoint)
	assert.Equal(t, "Network error", failed[0].ErrorMessage)
	assert.False(t, failed[0].Success)

	llmOnly, err := repo.QueryCalls(ctx, QueryOpts{Kind: KindLLM})
	require.NoError(t, err)
	require.Len(t, llmOnly, 1)
	assert.Equal(t, "practice-plan", llmOnly[0].Purpose)

	limited, err := repo.QueryCalls(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestCallRepo_GetCall(t *testing.T) {
	s := openTestStore(t)
	repo := s.CallRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendCall(ctx, CallEventData{
		RequestID:    "abc",
		Kind:         KindAPI,
		Method:       "POST",
		Endpoint:     "/api/login",
		Success:      true,
		RequestBody:  `{"username":"asha"}`,
		ResponseBody: `{"success":true}`,
	}))

	all, err := repo.QueryCalls(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	got, err := repo.GetCall(ctx, all[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"username":"asha"}`, got.RequestBody)
	assert.Equal(t, `{"success":true}`, got.ResponseBody)

	missing, err := repo.GetCall(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCallRepo_UsageByEndpoint(t *testing.T) {
	s := openTestStore(t)
	repo := s.CallRepo()
	ctx := context.Background()

	for _, lat := range []int64{10, 30} {
		require.NoError(t, repo.AppendCall(ctx, CallEventData{
			RequestID: "x", Kind: KindAPI, Method: "GET", Endpoint: "/api/user_scores", LatencyMs: lat, Success: true,
		}))
	}
	require.NoError(t, repo.AppendCall(ctx, CallEventData{
		RequestID: "y", Kind: KindAPI, Method: "GET", Endpoint: "/api/user_scores", LatencyMs: 20, Success: false,
	}))

	usage, err := repo.UsageByEndpoint(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, "/api/user_scores", usage[0].Endpoint)
	assert.Equal(t, 3, usage[0].Calls)
	assert.Equal(t, 1, usage[0].Failures)
	assert.Equal(t, int64(20), usage[0].AvgLatencyMs)
}

func TestCallRepo_Prune(t *testing.T) {
	s := openTestStore(t)
	repo := s.CallRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AppendCall(ctx, CallEventData{
			RequestID: fmt.Sprintf("r%d", i), Kind: KindAPI, Endpoint: "/api/logout", Success: true,
		}))
	}

	n, err := repo.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	left, err := repo.QueryCalls(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "r4", left[0].RequestID)
	assert.Equal(t, "r3", left[1].RequestID)

	n, err = repo.Prune(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing to prune when fewer rows than keep")

	n, err = repo.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCookieRepo_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.CookieRepo()
	ctx := context.Background()

	err := repo.SaveCookies(ctx, "localhost:5000", []*http.Cookie{
		{Name: "session", Value: "v1"},
		{Name: "stale", Value: "old", Expires: time.Now().Add(-time.Hour)},
	})
	require.NoError(t, err)

	got, err := repo.LoadCookies(ctx, "localhost:5000")
	require.NoError(t, err)
	require.Len(t, got, 1, "expired cookies are not loaded")
	assert.Equal(t, "session", got[0].Name)
	assert.Equal(t, "v1", got[0].Value)
	assert.Equal(t, "/", got[0].Path)

	// Upsert replaces the value.
	require.NoError(t, repo.SaveCookies(ctx, "localhost:5000", []*http.Cookie{{Name: "session", Value: "v2"}}))
	got, err = repo.LoadCookies(ctx, "localhost:5000")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v2", got[0].Value)

	other, err := repo.LoadCookies(ctx, "example.com")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, repo.ClearCookies(ctx, "localhost:5000"))
	got, err = repo.LoadCookies(ctx, "localhost:5000")
	require.NoError(t, err)
	assert.Empty(t, got)
}
