package textmatch

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Detects reports whether a comment contains the trigger phrase. A
// case-insensitive containment check runs first; for phrases of four or more
// characters a fuzzy pass then tolerates a single typo per token. Recall
// matters more than precision here, but the one-edit bound keeps unrelated
// short words from matching.
func Detects(commentText, triggerPhrase string) bool {
	phrase := strings.ToLower(strings.TrimSpace(triggerPhrase))
	if phrase == "" {
		return false
	}

	comment := strings.ToLower(commentText)
	if strings.Contains(comment, phrase) {
		return true
	}

	if utf8.RuneCountInString(phrase) < 4 {
		return false
	}

	target := []rune(phrase)
	for _, token := range strings.Fields(comment) {
		if withinOneEdit([]rune(token), target) {
			return true
		}
	}
	return false
}

// withinOneEdit reports whether a and b are exactly one substitution,
// insertion or deletion apart. It exits as soon as a second difference is
// found, so no full distance matrix is ever built.
func withinOneEdit(a, b []rune) bool {
	la, lb := len(a), len(b)
	switch la - lb {
	case 0:
		diffs := 0
		for i := range a {
			if a[i] != b[i] {
				diffs++
				if diffs > 1 {
					return false
				}
			}
		}
		return diffs == 1
	case 1:
		a, b = b, a // ensure a is the shorter
		la, lb = lb, la
		fallthrough
	case -1:
		// one deletion from b yields a
		i, j := 0, 0
		skipped := false
		for i < la && j < lb {
			if a[i] == b[j] {
				i++
				j++
				continue
			}
			if skipped {
				return false
			}
			skipped = true
			j++
		}
		return true
	default:
		return false
	}
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// ExtractEmail pulls the first email address out of free text. It is a
// best-effort heuristic for invitation notes, not a validator.
func ExtractEmail(text string) (string, bool) {
	match := emailPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return strings.ToLower(match), true
}
