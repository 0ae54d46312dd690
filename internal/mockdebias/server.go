// Package mockdebias implements a minimal stand-in for the De-bias annotation
// API, for tests and local runs without network access.
package mockdebias

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Request records one annotation call made to the mock service.
type Request struct {
	Language string   `json:"language"`
	UseNER   bool     `json:"useNER"`
	UseLLM   bool     `json:"useLLM"`
	Values   []string `json:"values"`
}

type finding struct {
	issue  string
	source string
}

// Server serves deterministic canned annotations: any value containing a
// registered term gets one tag per matching term.
type Server struct {
	mu       sync.Mutex
	calls    []Request
	failLeft int
	failCode int
	terms    map[string]finding
}

func New() *Server {
	return &Server{terms: make(map[string]finding)}
}

// Flag registers a term: any record whose text contains it (case-insensitive)
// is annotated with one tag carrying the given issue and source.
func (s *Server) Flag(term, issue, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms[strings.ToLower(term)] = finding{issue: issue, source: source}
}

// FailFirst makes the next n calls respond with the given HTTP status before
// the server starts answering normally.
func (s *Server) FailFirst(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLeft = n
	s.failCode = status
}

// Calls returns the annotation requests received so far.
func (s *Server) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.calls))
	copy(out, s.calls)
	return out
}

type responseTag struct {
	Literal string `json:"literal"`
	Issue   string `json:"issue"`
	Source  string `json:"source"`
}

type responseEntry struct {
	Language string        `json:"language"`
	Literal  string        `json:"literal"`
	Tags     []responseTag `json:"tags"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, req)
	if s.failLeft > 0 {
		s.failLeft--
		code := s.failCode
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "scripted failure"})
		return
	}
	terms := make(map[string]finding, len(s.terms))
	for k, v := range s.terms {
		terms[k] = v
	}
	s.mu.Unlock()

	results := make([]responseEntry, 0, len(req.Values))
	for _, value := range req.Values {
		results = append(results, responseEntry{
			Language: req.Language,
			Literal:  value,
			Tags:     matchTags(value, terms),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
}

func matchTags(value string, terms map[string]finding) []responseTag {
	lower := strings.ToLower(value)
	matched := make([]string, 0, 2)
	for term := range terms {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	// Stable tag order regardless of map iteration.
	sort.Strings(matched)

	tags := make([]responseTag, 0, len(matched))
	for _, term := range matched {
		f := terms[term]
		tags = append(tags, responseTag{Literal: term, Issue: f.issue, Source: f.source})
	}
	return tags
}
