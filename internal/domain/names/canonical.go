package names

import (
	"fmt"
	"sort"
	"strings"
)

// Key is the normalized form of a player name used as the join key across
// every feed. A Key is always derived with Canonicalize and never persisted
// without an accompanying display name.
type Key = string

const minKeyLength = 2

var ErrNameTooShort = fmt.Errorf("name too short after normalization")

var generationalSuffixes = map[string]struct{}{
	"jr":  {},
	"sr":  {},
	"ii":  {},
	"iii": {},
	"iv":  {},
	"v":   {},
}

// nonPlayerTokens flags roster rows that describe staff rather than players.
// Records carrying any of these tokens are excluded before identity
// resolution.
var nonPlayerTokens = map[string]struct{}{
	"coach":       {},
	"coordinator": {},
	"trainer":     {},
	"staff":       {},
	"owner":       {},
	"assistant":   {},
	"scout":       {},
	"gm":          {},
	"president":   {},
}

// Canonicalize reduces a raw player name to its canonical key. The
// transformation is a pure function of the input and idempotent:
// Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(raw string) (Key, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", ErrNameTooShort
	}

	var builder strings.Builder
	for _, r := range value {
		switch r {
		case '.', '\'', '’', '-':
			continue
		default:
			builder.WriteRune(r)
		}
	}

	tokens := strings.Fields(builder.String())
	tokens = dropTrailingNoise(tokens)
	if len(tokens) == 0 {
		return "", ErrNameTooShort
	}

	key := strings.Join(tokens, " ")
	if len(key) < minKeyLength {
		return "", ErrNameTooShort
	}

	return key, nil
}

// dropTrailingNoise strips generational suffixes and jersey-number-like
// tokens from the end of a token list. Suffixes can stack ("smith jr ii").
func dropTrailingNoise(tokens []string) []string {
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if _, ok := generationalSuffixes[last]; ok {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		if isJerseyToken(last) {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		break
	}
	return tokens
}

func isJerseyToken(token string) bool {
	token = strings.TrimPrefix(token, "#")
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Variants returns additional lookup keys for a name: first-initial plus
// last-name forms, middle-name-dropped forms, and nickname substitutions.
// Output is sorted and deduplicated so callers can rely on a deterministic
// order. The canonical key itself is not included.
func Variants(raw string) []string {
	key, err := Canonicalize(raw)
	if err != nil {
		return nil
	}

	tokens := strings.Fields(key)
	if len(tokens) < 2 {
		return nil
	}

	first := tokens[0]
	last := tokens[len(tokens)-1]

	seen := map[string]struct{}{key: {}}
	out := make([]string, 0, 6)
	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if len(candidate) < minKeyLength {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	// "p mahomes" covers abbreviated feed forms like "P. Mahomes".
	add(first[:1] + " " + last)

	// Middle names and middle initials dropped.
	if len(tokens) > 2 {
		add(first + " " + last)
		add(first[:1] + " " + last)
	}

	for _, nick := range nicknameForms(first) {
		add(nick + " " + last)
		add(nick[:1] + " " + last)
	}

	sort.Strings(out)
	return out
}

// IsNonPlayer reports whether a raw name describes a non-player role.
func IsNonPlayer(raw string) bool {
	for _, token := range strings.Fields(strings.ToLower(raw)) {
		token = strings.Trim(token, ".,()")
		if _, ok := nonPlayerTokens[token]; ok {
			return true
		}
	}
	return false
}

// DisplayScore ranks candidate display names. Longer, punctuation-complete
// forms score higher so the merger can keep "D'Andre Swift" over "dandre
// swift".
func DisplayScore(raw string) int {
	raw = strings.TrimSpace(raw)
	score := len(raw) * 4
	for _, r := range raw {
		switch r {
		case '.', '\'', '’', '-':
			score += 2
		}
	}
	if raw != strings.ToLower(raw) {
		score += 8
	}
	return score
}

// LastName returns the final token of the canonical form, or "" when the
// name does not canonicalize.
func LastName(raw string) string {
	key, err := Canonicalize(raw)
	if err != nil {
		return ""
	}
	tokens := strings.Fields(key)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}
