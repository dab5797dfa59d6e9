package catalog

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/kodi/pkg/models"
)

// MatchStrategy decides when an existing bilingual entity counts as the same business key.
type MatchStrategy string

const (
	// MatchEither treats a hit on either language code as the same entity. Two different
	// entities sharing an accidental code in one language are unified.
	MatchEither MatchStrategy = "either"
	// MatchBoth requires both language codes to match.
	MatchBoth MatchStrategy = "both"
)

func ParseMatchStrategy(s string) (MatchStrategy, error) {
	switch MatchStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case MatchEither, "":
		return MatchEither, nil
	case MatchBoth:
		return MatchBoth, nil
	default:
		return "", fmt.Errorf("unknown match strategy %q (use either or both)", s)
	}
}

// Pick selects the entity identified by (codeNL, codeEN) among candidates returned by an OR lookup.
// partial reports candidates that collide on one language only, which MatchBoth cannot resolve.
func Pick[T any](strategy MatchStrategy, candidates []T, codes func(T) models.Bilingual, codeNL, codeEN string) (match *T, partial bool) {
	for i := range candidates {
		b := codes(candidates[i])
		nlHit := b.CodeNL == codeNL
		enHit := b.CodeEN == codeEN
		switch {
		case nlHit && enHit:
			return &candidates[i], false
		case strategy == MatchEither && (nlHit || enHit):
			if match == nil {
				match = &candidates[i]
			}
		case nlHit || enHit:
			partial = true
		}
	}
	return match, partial
}
