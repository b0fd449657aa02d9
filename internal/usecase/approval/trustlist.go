package approval

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// TrustList decides whether a tool may be auto-approved. It is built once
// at startup and never mutated afterwards.
//
// Membership is: exact name match, OR any configured prefix is a string
// prefix of the name, OR any configured glob pattern matches.
type TrustList struct {
	exact    map[string]bool
	prefixes []string
	patterns []glob.Glob
}

// NewTrustList compiles a trust list. Pattern entries use gobwas/glob
// syntax; a bad pattern fails construction rather than silently matching
// nothing.
func NewTrustList(exact, prefixes, patterns []string) (*TrustList, error) {
	tl := &TrustList{
		exact:    make(map[string]bool, len(exact)),
		prefixes: make([]string, 0, len(prefixes)),
	}

	for _, name := range exact {
		name = strings.TrimSpace(name)
		if name != "" {
			tl.exact[name] = true
		}
	}

	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p != "" {
			tl.prefixes = append(tl.prefixes, p)
		}
	}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad trust pattern %q: %w", p, err)
		}
		tl.patterns = append(tl.patterns, g)
	}

	return tl, nil
}

// Trusted reports whether the named tool may be auto-approved.
func (tl *TrustList) Trusted(name string) bool {
	if name == "" {
		return false
	}
	if tl.exact[name] {
		return true
	}
	for _, p := range tl.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, g := range tl.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the list has no rules at all. An empty list
// approves nothing; the agent warns about it at startup.
func (tl *TrustList) IsEmpty() bool {
	return len(tl.exact) == 0 && len(tl.prefixes) == 0 && len(tl.patterns) == 0
}
