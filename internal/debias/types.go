package debias

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// SupportedLanguages is the fixed set of language codes the De-bias service
// accepts. Input folders with any other name are ignored, not rejected.
var SupportedLanguages = map[string]struct{}{
	"nl": {},
	"en": {},
	"de": {},
	"fr": {},
	"it": {},
}

// IsSupportedLanguage reports whether code names a supported input folder.
func IsSupportedLanguage(code string) bool {
	_, ok := SupportedLanguages[code]
	return ok
}

// LanguageCodes returns the supported codes in lexicographic order.
func LanguageCodes() []string {
	out := make([]string, 0, len(SupportedLanguages))
	for code := range SupportedLanguages {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Record is one non-empty input line, addressed by its 1-based position among
// the non-empty lines of its file.
type Record struct {
	Index int
	Text  string
}

// Flags are the per-run feature toggles forwarded to the service.
type Flags struct {
	UseNER bool
	UseLLM bool
}

// Tag is one flagged-language finding attached to an entry.
type Tag struct {
	Literal string `json:"literal"`
	Issue   string `json:"issue"`
	Source  string `json:"source"`
}

// Entry is one annotated record in the service response. Literal carries the
// full input line; Tags may be empty for clean records.
type Entry struct {
	Language string `json:"language,omitempty"`
	Literal  string `json:"literal"`
	Tags     []Tag  `json:"tags"`
}

// Result is the parsed view of one annotation response plus the verbatim
// response body. The raw bytes are what gets persisted: the service may send
// fields beyond the ones modeled here and they must survive round-tripping.
type Result struct {
	Entries []Entry
	Raw     []byte
}

// Flagged reports whether any entry carries at least one tag.
func (r Result) Flagged() bool {
	for _, e := range r.Entries {
		if len(e.Tags) > 0 {
			return true
		}
	}
	return false
}

// TagCount returns the total number of tags across all entries.
func (r Result) TagCount() int {
	n := 0
	for _, e := range r.Entries {
		n += len(e.Tags)
	}
	return n
}

type resultEnvelope struct {
	Results []Entry `json:"results"`
}

// ParseResult decodes a raw service response body into a Result, keeping the
// body verbatim alongside the parsed entries.
func ParseResult(raw []byte) (Result, error) {
	var env resultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Result{}, fmt.Errorf("parse annotation response: %w", err)
	}
	return Result{Entries: env.Results, Raw: raw}, nil
}

// EmptyResult is the synthesized response for a file with zero records; the
// remote service is not called for those.
func EmptyResult() Result {
	return Result{Entries: nil, Raw: []byte(`{"results":[]}`)}
}

// Annotator is the single-call contract to the remote annotation service:
// one ordered batch of records per file, one classified result or failure.
type Annotator interface {
	Annotate(ctx context.Context, language string, records []Record, flags Flags) (Result, error)
}
