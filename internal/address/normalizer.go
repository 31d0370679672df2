// Package address normalizes free-form Russian addresses to a canonical
// lowercase key used as the grouping key in duplicate/repost history
// lookups (spec.md §4.1).
package address

import (
	"context"
	"regexp"
	"strings"
)

// SuggestionClient is the pluggable external address-suggestion interface
// spec.md §4.1 describes ("when an external suggestion service is
// available it is consulted first"). A nil SuggestionClient skips straight
// to the regex pipeline.
type SuggestionClient interface {
	Suggest(ctx context.Context, raw string) (string, error)
}

// Go's regexp word-boundary assertion (\b) is defined in terms of ASCII
// word characters ([A-Za-z0-9_]); a Cyrillic letter is never a "word
// character" to it, so \b never fires at the edge of a Cyrillic token.
// Every pattern below replaces \b with an explicit, Unicode-aware boundary:
// a leading group matching start-of-string or any non-letter/non-digit
// rune, and (where needed) a trailing group matching the mirror case. The
// boundary runes themselves are captured and re-emitted in the replacement
// so the surrounding text — and the separator between adjacent tokens —
// survives; the whitespace/punctuation collapse at the end of pipeline
// mops up anything left doubled or dangling.
var (
	cityPrefixRe     = regexp.MustCompile(`(^|[^\p{L}\p{N}])(россия|российская федерация|москва)(,)?`)
	cityAbbrevRe     = regexp.MustCompile(`(^|[^\p{L}\p{N}])г\.\s*`)
	streetTypeRe     = regexp.MustCompile(`(^|[^\p{L}\p{N}])(улица|ул\.|проспект|пр-т|пр\.|переулок|пер\.|бульвар|б-р|шоссе|ш\.|набережная|наб\.)([^\p{L}\p{N}]|$)`)
	houseRe          = regexp.MustCompile(`(^|[^\p{L}\p{N}])(дом|д\.)([^\p{L}\p{N}]|$)`)
	apartmentRe      = regexp.MustCompile(`(^|[^\p{L}\p{N}])кв\.?\s*\d+[а-я]?([^\p{L}\p{N}]|$)`)
	corpusRe         = regexp.MustCompile(`(^|[^\p{L}\p{N}])корпус\s*(\d+[а-я]?)([^\p{L}\p{N}]|$)`)
	buildingRe       = regexp.MustCompile(`(^|[^\p{L}\p{N}])строение\s*(\d+[а-я]?)([^\p{L}\p{N}]|$)`)
	corpusAbbrevRe   = regexp.MustCompile(`(^|[^\p{L}\p{N}])к(?:орп)?\.?\s*(\d+[а-я]?)([^\p{L}\p{N}]|$)`)
	buildingAbbrevRe = regexp.MustCompile(`(^|[^\p{L}\p{N}])стр\.?\s*(\d+[а-я]?)([^\p{L}\p{N}]|$)`)
	punctRe          = regexp.MustCompile(`[,;]+`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
	trailingPunctRe  = regexp.MustCompile(`[\s.,;:-]+$`)
)

// Normalizer produces canonical address keys via a deterministic regex
// pipeline, optionally preceded by an external suggestion lookup.
type Normalizer struct {
	suggest SuggestionClient
}

// New builds a Normalizer. Pass nil to use only the regex pipeline.
func New(suggest SuggestionClient) *Normalizer {
	return &Normalizer{suggest: suggest}
}

// Normalize returns the canonical key for raw. It never fails fatally: if
// the external suggestion service is unreachable, it falls back to the
// deterministic regex path over the raw input, per spec.md §7
// NormalizationFailed semantics.
func (n *Normalizer) Normalize(ctx context.Context, raw string) string {
	input := raw
	if n.suggest != nil {
		if suggested, err := n.suggest.Suggest(ctx, raw); err == nil && strings.TrimSpace(suggested) != "" {
			input = suggested
		}
	}
	return pipeline(input)
}

// pipeline runs the same regex transforms regardless of whether the input
// came from an external suggestion or raw user text, so both paths
// converge on identical keys (spec.md §4.1).
func pipeline(s string) string {
	s = strings.ToLower(s)
	s = cityPrefixRe.ReplaceAllString(s, "${1}")
	s = cityAbbrevRe.ReplaceAllString(s, "${1}")
	s = streetTypeRe.ReplaceAllString(s, "${1}${3}")
	s = houseRe.ReplaceAllString(s, "${1}${3}")
	s = apartmentRe.ReplaceAllString(s, "${1}${2}")

	// Fold corpus/building to single-letter suffixes before collapsing the
	// generic abbreviation patterns, so "корпус 2" and "к2" converge.
	s = corpusRe.ReplaceAllString(s, "${1}к${2}${3}")
	s = buildingRe.ReplaceAllString(s, "${1}с${2}${3}")
	s = corpusAbbrevRe.ReplaceAllString(s, "${1}к${2}${3}")
	s = buildingAbbrevRe.ReplaceAllString(s, "${1}с${2}${3}")

	s = punctRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = trailingPunctRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
