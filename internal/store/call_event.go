package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const callTable = "call_events"

var callColumns = []string{
	"id", "request_id", "timestamp_ms", "kind", "method", "endpoint", "purpose",
	"status_code", "latency_ms", "success", "error_message", "request_body", "response_body",
}

// callRepo implements CallRepo on top of the ent SQL builder.
type callRepo struct {
	db *sql.DB
}

func (r *callRepo) AppendCall(ctx context.Context, data CallEventData) error {
	query, args := builder().Insert(callTable).
		Columns(callColumns[1:]...).
		Values(
			data.RequestID,
			time.Now().UTC().UnixMilli(),
			data.Kind,
			data.Method,
			data.Endpoint,
			data.Purpose,
			data.StatusCode,
			data.LatencyMs,
			boolInt(data.Success),
			data.ErrorMessage,
			data.RequestBody,
			data.ResponseBody,
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save call event: %w", err)
	}
	return nil
}

func (r *callRepo) QueryCalls(ctx context.Context, opts QueryOpts) ([]CallEvent, error) {
	sel := builder().Select(callColumns...).From(entsql.Table(callTable))
	if opts.Kind != "" {
		sel.Where(entsql.EQ("kind", opts.Kind))
	}
	if opts.Endpoint != "" {
		sel.Where(entsql.EQ("endpoint", opts.Endpoint))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp_ms", opts.From.UTC().UnixMilli()))
	}
	if opts.FailOnly {
		sel.Where(entsql.EQ("success", 0))
	}
	sel.OrderBy(entsql.Desc("id"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query call events: %w", err)
	}
	defer rows.Close()

	var out []CallEvent
	for rows.Next() {
		e, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *callRepo) GetCall(ctx context.Context, id int) (*CallEvent, error) {
	query, args := builder().Select(callColumns...).
		From(entsql.Table(callTable)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get call event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	e, err := scanCall(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *callRepo) UsageByEndpoint(ctx context.Context) ([]EndpointUsage, error) {
	query, args := builder().Select(
		"kind",
		"endpoint",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As("SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END)", "failures"),
		entsql.As(entsql.Avg("latency_ms"), "avg_ms"),
	).
		From(entsql.Table(callTable)).
		GroupBy("kind", "endpoint").
		OrderBy("kind", "endpoint").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query endpoint usage: %w", err)
	}
	defer rows.Close()

	var out []EndpointUsage
	for rows.Next() {
		var u EndpointUsage
		var avg float64
		if err := rows.Scan(&u.Kind, &u.Endpoint, &u.Calls, &u.Failures, &avg); err != nil {
			return nil, fmt.Errorf("scan endpoint usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *callRepo) Prune(ctx context.Context, keep int) (int64, error) {
	del := builder().Delete(callTable)

	if keep > 0 {
		query, args := builder().Select("id").
			From(entsql.Table(callTable)).
			OrderBy(entsql.Desc("id")).
			Limit(1).
			Offset(keep - 1).
			Query()

		var cutoff int64
		err := r.db.QueryRowContext(ctx, query, args...).Scan(&cutoff)
		if err == sql.ErrNoRows {
			// Fewer than keep rows exist.
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("find prune cutoff: %w", err)
		}
		del.Where(entsql.LT("id", cutoff))
	}

	query, args := del.Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune call events: %w", err)
	}
	return res.RowsAffected()
}

func scanCall(rows *sql.Rows) (CallEvent, error) {
	var e CallEvent
	var tsMs int64
	var success int
	err := rows.Scan(
		&e.ID,
		&e.RequestID,
		&tsMs,
		&e.Kind,
		&e.Method,
		&e.Endpoint,
		&e.Purpose,
		&e.StatusCode,
		&e.LatencyMs,
		&success,
		&e.ErrorMessage,
		&e.RequestBody,
		&e.ResponseBody,
	)
	if err != nil {
		return CallEvent{}, fmt.Errorf("scan call event: %w", err)
	}
	e.Timestamp = time.UnixMilli(tsMs).UTC()
	e.Success = success != 0
	return e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
