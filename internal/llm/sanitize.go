package llm

import (
	"regexp"
	"strings"
)

var (
	openFenceRegex     = regexp.MustCompile("(?i)^```(?:json)?")
	closeFenceRegex    = regexp.MustCompile("```$")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[\]}])`)

	curlyQuotes = strings.NewReplacer(
		"“", `"`, // left double
		"”", `"`, // right double
		"‘", `'`, // left single
		"’", `'`, // right single
	)
)

// SanitizeJSON repairs the common ways models mangle JSON output before it
// is parsed: a surrounding markdown code fence, curly quotes, and trailing
// commas before a closing bracket or brace. It does not guarantee the
// result is valid JSON.
func SanitizeJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = openFenceRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = closeFenceRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = curlyQuotes.Replace(s)
	s = trailingCommaRegex.ReplaceAllString(s, "$1")
	return s
}
