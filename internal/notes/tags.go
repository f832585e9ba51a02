package notes

import (
	"strings"
	"unicode/utf8"

	"github.com/alfaphoenix/notio/internal/errs"
)

// MaxTagLength is the longest tag name accepted, in characters.
const MaxTagLength = 100

// NormalizeTags trims every name, drops the ones left empty and collapses
// duplicates to their first occurrence. Matching is case-sensitive.
func NormalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > MaxTagLength {
			return nil, errs.Invalid("tag %q is longer than %d characters", name, MaxTagLength)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}
