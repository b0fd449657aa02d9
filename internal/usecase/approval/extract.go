package approval

import (
	"regexp"
	"strings"
)

// A Pattern extracts a tool name from a dialog's description text. The
// submatch at group 1 is the tool name.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// DefaultPatterns covers the two phrasings the chat page is known to use:
//
//	"Run <tool> from <source>"
//	"<source>から<tool>を実行"
//
// The list is closed but configurable; the first pattern that matches
// wins.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Name: "en", re: regexp.MustCompile(`Run\s+(\S+)\s+from\s+`)},
		{Name: "ja", re: regexp.MustCompile(`から\s*(\S+?)\s*を実行`)},
	}
}

// CompilePatterns builds a pattern list from raw regular expressions,
// for operators who need to cover a phrasing DefaultPatterns does not.
func CompilePatterns(exprs []string) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, Pattern{Name: expr, re: re})
	}
	return patterns, nil
}

// ExtractToolName runs the patterns against the description text and
// returns the first captured tool name, or "" when none match.
func ExtractToolName(patterns []Pattern, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(text); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
