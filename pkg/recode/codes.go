package recode

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/normalizer"
)

// Canonical rewrites a code as upper-case letters and digits separated by single underscores.
// A code with nothing left becomes UNKNOWN.
func Canonical(code string) string {
	var result strings.Builder
	pendingSeparator := false
	for _, r := range strings.ToUpper(strings.TrimSpace(code)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSeparator && result.Len() > 0 {
				result.WriteRune('_')
			}
			result.WriteRune(r)
			pendingSeparator = false
			continue
		}
		pendingSeparator = true
	}
	if result.Len() == 0 {
		return normalizer.UnknownCode
	}
	return result.String()
}

type entity struct {
	id    int64
	codes models.Bilingual
}

// plan computes the recoded names and codes of every entity whose value changes.
// Entities are visited in id order so the lowest id keeps the bare canonical code
// and later collisions get _2, _3, ... suffixes.
func plan(entities []entity) map[int64]models.Bilingual {
	sorted := append([]entity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id < sorted[j].id })

	takenNL := map[string]bool{}
	takenEN := map[string]bool{}
	changes := map[int64]models.Bilingual{}
	for _, e := range sorted {
		next := models.Bilingual{
			CodeNL: claim(takenNL, Canonical(e.codes.CodeNL)),
			CodeEN: claim(takenEN, Canonical(e.codes.CodeEN)),
			NameNL: e.codes.NameNL,
			NameEN: e.codes.NameEN,
		}
		if strings.TrimSpace(next.NameNL) == "" {
			next.NameNL = next.CodeNL
		}
		if strings.TrimSpace(next.NameEN) == "" {
			next.NameEN = next.CodeEN
		}
		if next != e.codes {
			changes[e.id] = next
		}
	}
	return changes
}

func claim(taken map[string]bool, base string) string {
	candidate := base
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
	taken[candidate] = true
	return candidate
}

// placeholder is a code no canonical code can equal, used to free codes while swapping.
func placeholder(id int64) models.Bilingual {
	code := fmt.Sprintf("__RECODE_%d", id)
	return models.Bilingual{CodeNL: code, CodeEN: code, NameNL: code, NameEN: code}
}
