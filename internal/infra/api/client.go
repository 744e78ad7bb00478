// File: internal/infra/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"docuparse-client/internal/config"
	"docuparse-client/internal/domain"
	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
	"docuparse-client/internal/infra/logging"
	"docuparse-client/internal/infra/metrics"
)

var _ adapter.JobAPI = (*Client)(nil)

// TokenProvider supplies the bearer token attached to every request. Token
// issuance itself belongs to the identity provider; the client only carries
// the credential.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client implements the JobAPI port over HTTP. Transient failures (network
// errors, 5xx, 429) are retried up to the configured attempt count with a
// short linear backoff; 4xx responses are terminal and map to domain errors.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	retries int
	log     *zerolog.Logger
}

func NewClient(cfg config.APIConfig, tokens TokenProvider, log *zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api base url empty")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		retries: retries,
		log:     log,
	}, nil
}

func (c *Client) InitiateJob(ctx context.Context, name string) (string, error) {
	var out struct {
		JobID string `json:"job_id"`
	}
	err := c.do(ctx, "initiate_job", http.MethodPost, "/jobs/initiate", nil,
		map[string]any{"name": name}, &out)
	if err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", errors.New("initiate job: empty job_id in response")
	}
	return out.JobID, nil
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	if err := c.do(ctx, "get_job", http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	return c.do(ctx, "delete_job", http.MethodDelete, "/jobs/"+url.PathEscape(jobID), nil, nil, nil)
}

func (c *Client) UpdateFields(ctx context.Context, jobID string, payload adapter.FieldsPayload) error {
	return c.do(ctx, "update_fields", http.MethodPut, "/jobs/"+url.PathEscape(jobID)+"/fields", nil, payload, nil)
}

func (c *Client) UpdateConfigStep(ctx context.Context, jobID string, step model.ConfigStep) error {
	return c.do(ctx, "update_config_step", http.MethodPut, "/jobs/"+url.PathEscape(jobID)+"/config-step", nil,
		map[string]any{"config_step": step}, nil)
}

func (c *Client) ListFiles(ctx context.Context, jobID string) ([]model.JobFile, error) {
	var out struct {
		Files []model.JobFile `json:"files"`
	}
	q := url.Values{"processable": {"true"}}
	if err := c.do(ctx, "list_files", http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/files", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *Client) ListRuns(ctx context.Context, jobID string) ([]model.Run, error) {
	var out struct {
		Runs []model.Run `json:"runs"`
	}
	if err := c.do(ctx, "list_runs", http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/runs", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Runs, nil
}

func (c *Client) CreateRun(ctx context.Context, jobID string, req adapter.CreateRunRequest) (string, error) {
	var out struct {
		RunID string `json:"run_id"`
	}
	err := c.do(ctx, "create_run", http.MethodPost, "/jobs/"+url.PathEscape(jobID)+"/runs", nil, req, &out)
	if err != nil {
		return "", err
	}
	if out.RunID == "" {
		return "", errors.New("create run: empty run_id in response")
	}
	return out.RunID, nil
}

func (c *Client) ImportStatus(ctx context.Context, jobID, runID string) (*model.OperationStatus, error) {
	var q url.Values
	if runID != "" {
		q = url.Values{"run_id": {runID}}
	}
	var status model.OperationStatus
	if err := c.do(ctx, "import_status", http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/import-status", q, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ListFieldTypes(ctx context.Context) ([]string, error) {
	var out struct {
		FieldTypes []string `json:"field_types"`
	}
	if err := c.do(ctx, "list_field_types", http.MethodGet, "/field-types", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.FieldTypes, nil
}

func (c *Client) Results(ctx context.Context, jobID, runID string) ([]adapter.ResultRow, error) {
	var q url.Values
	if runID != "" {
		q = url.Values{"run_id": {runID}}
	}
	var out struct {
		Rows []adapter.ResultRow `json:"rows"`
	}
	if err := c.do(ctx, "results", http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/results", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

// do issues one logical request with per-sample retry. 401/403 map to
// ErrUnauthorized, 404 to ErrNotFound, 400/422 to ErrValidation; none of
// these are retried — the condition will not clear by asking again.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
	}

	start := time.Now()
	defer func() {
		metrics.ObserveAPILatency(op, float64(time.Since(start).Milliseconds()))
	}()

	// One key per logical request, stable across retries, so the server can
	// dedupe a create that actually landed before the connection dropped.
	var idemKey string
	if method == http.MethodPost {
		idemKey = uuid.NewString()
	}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			metrics.IncAPIRetry(op)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
		}
		retryable, err := c.attempt(ctx, op, method, path, query, payload, idemKey, out)
		if err == nil {
			metrics.IncAPIRequest(op, "ok")
			return nil
		}
		lastErr = err
		if !retryable {
			metrics.IncAPIRequest(op, outcomeLabel(err))
			return err
		}
		c.log.Debug().Err(err).Str("op", op).Int("attempt", attempt).Msg("retryable api failure")
	}
	metrics.IncAPIRequest(op, "error")
	return fmt.Errorf("%s: %w", op, lastErr)
}

func (c *Client) attempt(ctx context.Context, op, method, path string, query url.Values, payload []byte, idemKey string, out any) (retryable bool, err error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return false, err
	}
	reqID := ulid.Make().String()
	ctx = logging.WithRequestID(ctx, reqID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, terr := c.tokens.Token(ctx)
		if terr != nil {
			return false, fmt.Errorf("bearer token: %w", terr)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logging.With(ctx, c.log).Debug().Err(err).Str("op", op).Msg("transport failure")
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("%s: decode response: %w", op, err)
		}
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, fmt.Errorf("%s: %s: %w", op, resp.Status, domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return false, fmt.Errorf("%s: %s: %w", op, readErrorBody(resp.Body), domain.ErrValidation)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("%s: server returned %s", op, resp.Status)
	default:
		return false, fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "error"
	}
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return strings.TrimSpace(string(b))
}
