package notes

import (
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/alfaphoenix/notio/internal/errs"
)

// rawTagGenerator produces tag names with surrounding blanks, mixed case and
// empty strings.
func rawTagGenerator() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.Just(""),
		rapid.Just("   "),
		rapid.StringMatching(`[ \t]{0,2}[A-Za-z]{1,4}[ \t]{0,2}`),
	)
}

func TestNormalizeTagsKeepsCase(t *testing.T) {
	got, err := NormalizeTags([]string{"go", " go ", "Go"})
	if err != nil {
		t.Fatalf("NormalizeTags: %v", err)
	}
	if len(got) != 2 || got[0] != "go" || got[1] != "Go" {
		t.Fatalf("expected [go Go], got %v", got)
	}
}

func TestNormalizeTagsDropsBlank(t *testing.T) {
	got, err := NormalizeTags([]string{"", "  ", "\t", "x"})
	if err != nil {
		t.Fatalf("NormalizeTags: %v", err)
	}
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("expected [x], got %v", got)
	}
}

func TestNormalizeTagsRejectsLongNames(t *testing.T) {
	_, err := NormalizeTags([]string{strings.Repeat("a", MaxTagLength+1)})
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := NormalizeTags([]string{strings.Repeat("é", MaxTagLength)}); err != nil {
		t.Fatalf("expected %d multibyte characters to be accepted: %v", MaxTagLength, err)
	}
}

func TestNormalizeTags_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rawTagGenerator(), 0, 12).Draw(t, "raw")

		once, err := NormalizeTags(raw)
		if err != nil {
			t.Fatalf("NormalizeTags: %v", err)
		}
		twice, err := NormalizeTags(once)
		if err != nil {
			t.Fatalf("NormalizeTags twice: %v", err)
		}

		// Property: normalizing is idempotent.
		if strings.Join(once, "\x00") != strings.Join(twice, "\x00") {
			t.Fatalf("not idempotent: %q then %q", once, twice)
		}

		distinct := map[string]struct{}{}
		for _, name := range raw {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				distinct[trimmed] = struct{}{}
			}
		}
		// Property: one canonical name per distinct trimmed non-empty input.
		if len(once) > len(distinct) {
			t.Fatalf("got %d names for %d distinct inputs", len(once), len(distinct))
		}
		for _, name := range once {
			if name == "" || name != strings.TrimSpace(name) {
				t.Fatalf("name %q is not trimmed and non-empty", name)
			}
			if _, ok := distinct[name]; !ok {
				t.Fatalf("name %q does not come from the input", name)
			}
		}
	})
}
