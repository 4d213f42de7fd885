package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/placify/placify/internal/store"
)

type retryProvider struct {
	inner Provider
	cfg   RetryConfig
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry retries transient failures of p with jittered exponential
// backoff. Rate limits honor RetryAfter. An invalid response is retried
// once; truncation and context errors are returned immediately.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &retryProvider{inner: p, cfg: cfg, sleep: sleepCtx}
}

func (r *retryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.cfg.MaxAttempts, 1)
	retriedInvalid := false

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err, &retriedInvalid) || attempt == attempts-1 {
			return nil, err
		}
		if serr := r.sleep(ctx, r.wait(attempt, err)); serr != nil {
			return nil, serr
		}
	}
	return nil, err
}

func (r *retryProvider) ModelID() string { return r.inner.ModelID() }

func retryable(err error, retriedInvalid *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var truncated *ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return false
	}
	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		if *retriedInvalid {
			return false
		}
		*retriedInvalid = true
	}
	return true
}

func (r *retryProvider) wait(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	mult := r.cfg.Multiplier
	if mult <= 0 {
		mult = 1
	}
	d := float64(r.cfg.InitialWait) * math.Pow(mult, float64(attempt))
	if r.cfg.MaxWait > 0 && d > float64(r.cfg.MaxWait) {
		d = float64(r.cfg.MaxWait)
	}
	d += d * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(d, 0))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type journalProvider struct {
	inner Provider
	repo  store.CallRepo
	now   func() time.Time
}

// WithLogging records every call of p in the call journal as an "llm"
// event keyed by model. Journal write failures only print a warning.
func WithLogging(p Provider, repo store.CallRepo) Provider {
	return &journalProvider{inner: p, repo: repo, now: time.Now}
}

func (j *journalProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := j.now()
	resp, err := j.inner.Generate(ctx, req)

	data := store.CallEventData{
		RequestID:   uuid.NewString(),
		Kind:        store.KindLLM,
		Method:      "GENERATE",
		Endpoint:    j.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   j.now().Sub(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		data.ResponseBody = string(resp.Content)
		if resp.Model != "" {
			data.Endpoint = resp.Model
		}
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}
	if jerr := j.repo.AppendCall(context.WithoutCancel(ctx), data); jerr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to journal LLM call: %v\n", jerr)
	}
	return resp, err
}

func (j *journalProvider) ModelID() string { return j.inner.ModelID() }

// describeRequest renders req as readable text for the journal.
func describeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
