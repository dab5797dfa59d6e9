package normalizer

import (
	"github.com/Ramsey-B/kodi/pkg/models"
)

// UnknownCode is the last resort of every code fallback chain.
const UnknownCode = "UNKNOWN"

// firstNonEmpty walks a fallback chain and returns the first non-empty candidate.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// ResolveCodes derives the bilingual business key and names of an entity from raw fragments.
// Per language the code chain is: own code, own name, UNKNOWN.
// Names fall back to the resolved code of the same language.
func ResolveCodes(codeNL, codeEN, nameNL, nameEN string) models.Bilingual {
	return bilingual(
		firstNonEmpty(codeNL, nameNL, UnknownCode),
		firstNonEmpty(codeEN, nameEN, UnknownCode),
		nameNL, nameEN,
	)
}

// ResolveCodesCrossLanguage extends each chain with the other language's code and name
// before UNKNOWN.
func ResolveCodesCrossLanguage(codeNL, codeEN, nameNL, nameEN string) models.Bilingual {
	return bilingual(
		firstNonEmpty(codeNL, nameNL, codeEN, nameEN, UnknownCode),
		firstNonEmpty(codeEN, nameEN, codeNL, nameNL, UnknownCode),
		nameNL, nameEN,
	)
}

func bilingual(codeNL, codeEN, nameNL, nameEN string) models.Bilingual {
	return models.Bilingual{
		CodeNL: codeNL,
		CodeEN: codeEN,
		NameNL: firstNonEmpty(nameNL, codeNL),
		NameEN: firstNonEmpty(nameEN, codeEN),
	}
}

type resolveFunc func(codeNL, codeEN, nameNL, nameEN string) models.Bilingual

func (r Row) Category(resolve resolveFunc) models.Bilingual {
	return resolve(r.CategoryCodeNL, r.CategoryCodeEN, r.CategoryNameNL, r.CategoryNameEN)
}

func (r Row) DamageType(resolve resolveFunc) models.Bilingual {
	return resolve(r.TypeCodeNL, r.TypeCodeEN, r.TypeNameNL, r.TypeNameEN)
}

func (r Row) Activity(resolve resolveFunc) models.Bilingual {
	return resolve(r.ActivityCodeNL, r.ActivityCodeEN, r.ActivityNameNL, r.ActivityNameEN)
}

// BandUnit is the unit symbol a row's severity range is expressed in.
func (r Row) BandUnit() string {
	return firstNonEmpty(r.SeverityUnit, r.LaborUnit, r.MaterialUnit)
}

// UnitSymbols lists the distinct unit symbols a row references.
func (r Row) UnitSymbols() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range []string{r.LaborUnit, r.MaterialUnit, r.SeverityUnit} {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
