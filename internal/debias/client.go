package debias

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultRequestTimeout = 45 * time.Second

// ClientConfig configures the HTTP annotation client.
type ClientConfig struct {
	// URL is the full endpoint of the De-bias API, e.g.
	// "https://debias-api.example.org/simple".
	URL string

	// HTTPClient overrides the underlying client. Useful for tests.
	HTTPClient *http.Client

	// Timeout applies per request when HTTPClient is not supplied.
	Timeout time.Duration

	Logger *slog.Logger
}

// Client calls the remote De-bias annotation service. One POST per file batch;
// no local state is mutated.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("debias: API URL is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{url: url, http: hc, logger: logger}, nil
}

type annotateRequest struct {
	Language string   `json:"language"`
	UseNER   bool     `json:"useNER"`
	UseLLM   bool     `json:"useLLM"`
	Values   []string `json:"values"`
}

// Annotate sends the full ordered batch of record texts for one file and
// returns the parsed result. Failures are classified: 429 is throttled,
// 5xx and transport errors are transient, everything else is permanent.
func (c *Client) Annotate(ctx context.Context, language string, records []Record, flags Flags) (Result, error) {
	values := make([]string, 0, len(records))
	for _, r := range records {
		values = append(values, r.Text)
	}

	body, err := json.Marshal(annotateRequest{
		Language: language,
		UseNER:   flags.UseNER,
		UseLLM:   flags.UseLLM,
		Values:   values,
	})
	if err != nil {
		return Result{}, &PermanentError{Err: fmt.Errorf("encode annotation request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, &PermanentError{Err: fmt.Errorf("build annotation request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	reqID := uuid.New().String()
	start := time.Now()
	c.logger.Info("debias.request",
		"req_id", reqID,
		"language", language,
		"records", len(records),
		"use_ner", flags.UseNER,
		"use_llm", flags.UseLLM,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.logger.Warn("debias.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, &TransientError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &TransientError{Err: fmt.Errorf("read annotation response: %w", err)}
	}

	c.logger.Info("debias.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{}, &ThrottledError{Err: newAPIError("annotate", resp, raw)}
	case resp.StatusCode/100 == 5:
		return Result{}, &TransientError{Err: newAPIError("annotate", resp, raw)}
	case resp.StatusCode/100 != 2:
		return Result{}, &PermanentError{Err: newAPIError("annotate", resp, raw)}
	}

	if err := ValidateResponse(raw); err != nil {
		return Result{}, &PermanentError{Err: err}
	}
	res, err := ParseResult(raw)
	if err != nil {
		return Result{}, &PermanentError{Err: err}
	}
	return res, nil
}
