package store

import (
	"context"
	"net/http"
	"time"
)

// QueryOpts configures journal queries with filtering and pagination.
type QueryOpts struct {
	Limit    int       // max results (0 = unlimited)
	Kind     string    // "api" or "llm" ("" = all)
	Endpoint string    // exact endpoint match ("" = all)
	From     time.Time // timestamp >= From
	FailOnly bool      // only failed calls
}

// Call kinds recorded in the journal.
const (
	KindAPI = "api"
	KindLLM = "llm"
)

// CallEventData captures a single outbound call for the diagnostics journal.
type CallEventData struct {
	RequestID    string
	Kind         string
	Method       string
	Endpoint     string
	Purpose      string
	StatusCode   int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// CallEvent is a journaled call read back from the store.
type CallEvent struct {
	ID        int
	Timestamp time.Time
	CallEventData
}

// EndpointUsage aggregates journal entries for one endpoint.
type EndpointUsage struct {
	Kind         string
	Endpoint     string
	Calls        int
	Failures     int
	AvgLatencyMs int64
}

// CallRepo records and queries outbound API and LLM calls.
type CallRepo interface {
	// AppendCall records one call.
	AppendCall(ctx context.Context, data CallEventData) error

	// QueryCalls returns calls newest first.
	QueryCalls(ctx context.Context, opts QueryOpts) ([]CallEvent, error)

	// GetCall returns a single call by ID, or nil if not found.
	GetCall(ctx context.Context, id int) (*CallEvent, error)

	// UsageByEndpoint aggregates call counts and latency per endpoint.
	UsageByEndpoint(ctx context.Context) ([]EndpointUsage, error)

	// Prune deletes all but the keep most recent calls.
	Prune(ctx context.Context, keep int) (int64, error)
}

// CookieRepo persists the server session cookies between invocations.
type CookieRepo interface {
	// SaveCookies upserts cookies for host.
	SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error

	// LoadCookies returns the unexpired cookies stored for host.
	LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error)

	// ClearCookies removes every cookie stored for host.
	ClearCookies(ctx context.Context, host string) error
}
