package models

import (
	"fmt"
	"strings"
)

// Language selects which half of a bilingual code or name is used.
type Language string

const (
	LanguageNL Language = "nl"
	LanguageEN Language = "en"
)

// Languages lists the supported languages in resolution order.
var Languages = []Language{LanguageNL, LanguageEN}

func (l Language) Valid() bool {
	return l == LanguageNL || l == LanguageEN
}

// Other returns the opposite language.
func (l Language) Other() Language {
	if l == LanguageEN {
		return LanguageNL
	}
	return LanguageEN
}

func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unsupported language %q (use nl or en)", s)
	}
	return l, nil
}

// Bilingual carries the per-language business key and display name of a catalog entity.
type Bilingual struct {
	CodeNL string `db:"code_nl" json:"code_nl"`
	CodeEN string `db:"code_en" json:"code_en"`
	NameNL string `db:"name_nl" json:"name_nl"`
	NameEN string `db:"name_en" json:"name_en"`
}

func (b Bilingual) Code(lang Language) string {
	if lang == LanguageEN {
		return b.CodeEN
	}
	return b.CodeNL
}

func (b Bilingual) Name(lang Language) string {
	if lang == LanguageEN {
		return b.NameEN
	}
	return b.NameNL
}
