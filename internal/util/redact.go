package util

import (
	"regexp"
	"strings"
)

var (
	// Authorization headers quoted back inside HTTP error bodies.
	bearerRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Credential query parameters on annotation endpoint URLs. Upstream
	// errors quote the full request URL, key included.
	urlCredParamRe = regexp.MustCompile(`(?i)([?&](?:key|token|api[_-]?key)=)[^\s&"']+`)

	// Key/value credential forms: GEMINI_API_KEY from the environment, the
	// x-goog-api-key header the SDK sends, and generic api_key pairs.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b((?:gemini[_-]?)?api[_-]?key)\b\s*[:=]\s*[^\s"']+`)
)

// RedactSecrets scrubs credential-bearing fragments out of a message before
// it reaches stderr or the log. Error strings from the annotation clients may
// quote request URLs and headers verbatim, so every user-facing error passes
// through here first.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := bearerRe.ReplaceAllString(s, "Bearer <redacted>")
	out = urlCredParamRe.ReplaceAllString(out, "$1<redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "$1=<redacted>")
	return strings.TrimSpace(out)
}
