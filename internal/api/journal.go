package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/placify/placify/internal/store"
)

// maxJournalBody caps how much of each body is kept in the journal.
const maxJournalBody = 64 << 10

type purposeKey struct{}

// WithPurpose tags ctx with the user action that triggers a call
// ("login", "submit-test", ...). The tag is stored in the call journal.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose tag of ctx, or "".
func PurposeFrom(ctx context.Context) string {
	p, _ := ctx.Value(purposeKey{}).(string)
	return p
}

// JournalDoer is a decorator that records every request in the call journal.
type JournalDoer struct {
	inner Doer
	repo  store.CallRepo
	now   func() time.Time
}

// WithJournal wraps a Doer with call journaling.
func WithJournal(d Doer, repo store.CallRepo) Doer {
	return &JournalDoer{inner: d, repo: repo, now: time.Now}
}

func (j *JournalDoer) Do(req *http.Request) (*http.Response, error) {
	start := j.now()

	data := store.CallEventData{
		RequestID:   uuid.NewString(),
		Kind:        store.KindAPI,
		Method:      req.Method,
		Endpoint:    req.URL.Path,
		Purpose:     PurposeFrom(req.Context()),
		RequestBody: requestBody(req),
	}

	resp, err := j.inner.Do(req)
	data.LatencyMs = j.now().Sub(start).Milliseconds()

	switch {
	case err != nil:
		data.ErrorMessage = err.Error()
	default:
		data.StatusCode = resp.StatusCode
		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		// Hand the caller a fresh reader over the same bytes.
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		data.ResponseBody = clip(raw)

		if readErr != nil {
			data.ErrorMessage = readErr.Error()
			break
		}
		if msg, failed := businessFailure(raw); failed {
			data.ErrorMessage = msg
			if msg == "" {
				data.ErrorMessage = "success: false"
			}
			break
		}
		if resp.StatusCode >= 400 {
			data.ErrorMessage = fmt.Sprintf("HTTP %d", resp.StatusCode)
			break
		}
		data.Success = true
	}

	// Log the call but don't fail the request if logging fails.
	if logErr := j.repo.AppendCall(context.WithoutCancel(req.Context()), data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to journal API call: %v\n", logErr)
	}

	return resp, err
}

// requestBody returns a copy of the request body without consuming it.
func requestBody(req *http.Request) string {
	if req.Body == nil || req.GetBody == nil {
		return ""
	}
	rc, err := req.GetBody()
	if err != nil {
		return ""
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, maxJournalBody))
	if err != nil {
		return ""
	}
	return string(raw)
}

func clip(raw []byte) string {
	if len(raw) > maxJournalBody {
		return string(raw[:maxJournalBody])
	}
	return string(raw)
}
