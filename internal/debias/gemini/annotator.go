// Package gemini implements the annotation contract on top of the Gemini API,
// as an alternative backend to the remote De-bias service.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Annotator asks a Gemini model for flagged-language findings and shapes the
// reply into the same result envelope the remote service produces. The NER
// flag has no meaning for this backend and is ignored.
type Annotator struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Annotator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Annotator{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"results": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"literal": {Type: genai.TypeString},
					"tags": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"literal": {Type: genai.TypeString},
								"issue":   {Type: genai.TypeString},
								"source":  {Type: genai.TypeString},
							},
							Required: []string{"literal", "issue", "source"},
						},
					},
				},
				Required: []string{"literal", "tags"},
			},
		},
	},
	Required: []string{"results"},
}

func (a *Annotator) Annotate(ctx context.Context, language string, records []debias.Record, flags debias.Flags) (debias.Result, error) {
	if len(records) == 0 {
		return debias.EmptyResult(), nil
	}

	resp, err := a.client.Models.GenerateContent(
		ctx,
		a.model,
		genai.Text(buildPrompt(language, records)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return debias.Result{}, classifyErr(err)
	}

	raw := []byte(resp.Text())
	if err := debias.ValidateResponse(raw); err != nil {
		return debias.Result{}, &debias.PermanentError{Err: err}
	}
	res, err := debias.ParseResult(raw)
	if err != nil {
		return debias.Result{}, &debias.PermanentError{Err: err}
	}
	if len(res.Entries) != len(records) {
		return debias.Result{}, &debias.TransientError{
			Err: fmt.Errorf("gemini: got %d results for %d records", len(res.Entries), len(records)),
		}
	}
	return res, nil
}

func buildPrompt(language string, records []debias.Record) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(`
You review text for biased or contentious language. For every input line,
produce one result object with the line echoed verbatim as "literal" and a
"tags" array of findings. Each finding has:
- literal: the exact flagged phrase from the line
- issue: a short description of why the phrase is problematic
- source: the vocabulary or guideline the finding is based on

Lines with no problematic phrases get an empty tags array. Return results in
input order, one per line, and nothing else.
`))
	b.WriteString("\n\nLanguage: " + language + "\n\nLines:\n")
	for _, r := range records {
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func classifyErr(err error) error {
	// Map rate-limit and server-side failures onto the retryable classes so
	// the invoker backs off instead of failing the file.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return &debias.ThrottledError{Err: err}
		}
		if apiErr.Code/100 == 5 {
			return &debias.TransientError{Err: err}
		}
		return &debias.PermanentError{Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &debias.TransientError{Err: err}
	}
	return err
}
