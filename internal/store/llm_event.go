package store

import (
	"context"
	"fmt"
	"time"
)

// LLMRequestData captures a single LLM API call for the request log.
type LLMRequestData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestRecord is a logged request as read back from the store.
type LLMRequestRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestData
}

// LLMEventRepo appends to and queries the LLM request log.
type LLMEventRepo struct {
	s *Store
}

// Append records one LLM API call.
func (r *LLMEventRepo) Append(ctx context.Context, data LLMRequestData) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO llm_requests
			(provider, model, purpose, input_tokens, output_tokens, latency_ms,
			 success, error_message, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs,
		data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if err != nil {
		return fmt.Errorf("append llm request: %w", err)
	}
	return nil
}

// List returns the most recent requests, newest first. limit <= 0 returns
// everything.
func (r *LLMEventRepo) List(ctx context.Context, limit int) ([]LLMRequestRecord, error) {
	q := `SELECT id, timestamp, provider, model, purpose, input_tokens,
	             output_tokens, latency_ms, success, error_message, '', ''
	      FROM llm_requests ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list llm requests: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestRecord
	for rows.Next() {
		rec, err := scanLLMRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one request with its full request/response bodies, or nil
// if the id is unknown.
func (r *LLMEventRepo) Get(ctx context.Context, id int) (*LLMRequestRecord, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT id, timestamp, provider, model, purpose, input_tokens,
		       output_tokens, latency_ms, success, error_message,
		       request_body, response_body
		FROM llm_requests WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get llm request: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanLLMRequest(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LLMUsage is an aggregate row over the request log.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int
}

// UsageByPurpose sums token usage per request purpose.
func (r *LLMEventRepo) UsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "purpose")
}

// UsageByModel sums token usage per model, for cost estimation.
func (r *LLMEventRepo) UsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

func (r *LLMEventRepo) usage(ctx context.Context, column string) ([]LLMUsage, error) {
	// column is one of the two fixed names above, never user input.
	q := fmt.Sprintf(`
		SELECT %s, COUNT(*), SUM(input_tokens), SUM(output_tokens),
		       CAST(AVG(latency_ms) AS INTEGER)
		FROM llm_requests GROUP BY %s ORDER BY %s`, column, column, column)

	rows, err := r.s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("aggregate llm usage: %w", err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var u LLMUsage
		var key string
		if err := rows.Scan(&key, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan llm usage: %w", err)
		}
		if column == "model" {
			u.Model = key
		} else {
			u.Purpose = key
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLLMRequest(row rowScanner) (LLMRequestRecord, error) {
	var rec LLMRequestRecord
	var ts string
	err := row.Scan(&rec.ID, &ts, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs,
		&rec.Success, &rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody)
	if err != nil {
		return rec, fmt.Errorf("scan llm request: %w", err)
	}
	if t, perr := time.Parse("2006-01-02 15:04:05", ts); perr == nil {
		rec.Timestamp = t
	}
	return rec, nil
}
