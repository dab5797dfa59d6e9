package normalizer

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/kodi/pkg/models"
)

// Row is one input record after trimming. An empty string stands for an absent value.
type Row struct {
	Ref string

	CategoryCodeNL, CategoryCodeEN string
	CategoryNameNL, CategoryNameEN string

	TypeCodeNL, TypeCodeEN string
	TypeNameNL, TypeNameEN string

	ActivityCodeNL, ActivityCodeEN string
	ActivityNameNL, ActivityNameEN string

	PriceYear string

	SeverityLabel string
	SeverityMin   string
	SeverityMax   string
	SeverityUnit  string

	LaborUnit        string
	MaterialUnit     string
	LaborUnitCost    string
	LaborCostMin     string
	LaborCostMax     string
	MaterialUnitCost string
	MaterialCostMin  string
	MaterialCostMax  string

	Notes string
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// FromStaging converts a staging buffer record.
func FromStaging(r models.StagingRow) Row {
	return Row{
		Ref:              fmt.Sprintf("staging:%d", r.ID),
		CategoryCodeNL:   str(r.CategoryCodeNL),
		CategoryCodeEN:   str(r.CategoryCodeEN),
		CategoryNameNL:   str(r.CategoryNameNL),
		CategoryNameEN:   str(r.CategoryNameEN),
		TypeCodeNL:       str(r.TypeCodeNL),
		TypeCodeEN:       str(r.TypeCodeEN),
		TypeNameNL:       str(r.TypeNameNL),
		TypeNameEN:       str(r.TypeNameEN),
		ActivityCodeNL:   str(r.ActivityCodeNL),
		ActivityCodeEN:   str(r.ActivityCodeEN),
		ActivityNameNL:   str(r.ActivityNameNL),
		ActivityNameEN:   str(r.ActivityNameEN),
		PriceYear:        str(r.PriceYear),
		SeverityLabel:    str(r.SeverityLabel),
		SeverityMin:      str(r.SeverityMin),
		SeverityMax:      str(r.SeverityMax),
		SeverityUnit:     str(r.SeverityUnit),
		LaborUnit:        str(r.LaborUnit),
		MaterialUnit:     str(r.MaterialUnit),
		LaborUnitCost:    str(r.LaborUnitCost),
		LaborCostMin:     str(r.LaborCostMin),
		LaborCostMax:     str(r.LaborCostMax),
		MaterialUnitCost: str(r.MaterialUnitCost),
		MaterialCostMin:  str(r.MaterialCostMin),
		MaterialCostMax:  str(r.MaterialCostMax),
		Notes:            str(r.Notes),
	}
}

// joinFragments composes a child code from its parent fragment. A missing fragment
// yields an empty code so the fallback chain takes over.
func joinFragments(parent, child string) string {
	if parent == "" || child == "" {
		return ""
	}
	return parent + "_" + child
}

// FromLegacy converts a row of the flat spreadsheet table. Type codes are composed
// as category fragment + "_" + subcategory fragment.
func FromLegacy(r models.LegacyRow) Row {
	catNL, catEN := str(r.Hoofdcategorie), str(r.HoofdcategorieEN)
	subNL, subEN := str(r.Subcategorie), str(r.SubcategorieEN)

	return Row{
		Ref:              fmt.Sprintf("legacy:%d", r.ID),
		CategoryCodeNL:   catNL,
		CategoryCodeEN:   catEN,
		CategoryNameNL:   catNL,
		CategoryNameEN:   catEN,
		TypeCodeNL:       joinFragments(catNL, subNL),
		TypeCodeEN:       joinFragments(catEN, subEN),
		TypeNameNL:       subNL,
		TypeNameEN:       subEN,
		ActivityCodeNL:   str(r.Activiteit),
		ActivityCodeEN:   str(r.ActiviteitEN),
		ActivityNameNL:   str(r.Omschrijving),
		ActivityNameEN:   str(r.OmschrijvingEN),
		PriceYear:        str(r.Jaar),
		SeverityLabel:    str(r.Ernst),
		SeverityMin:      str(r.ErnstMin),
		SeverityMax:      str(r.ErnstMax),
		LaborUnit:        str(r.Eenheid),
		MaterialUnit:     str(r.EenheidMateriaal),
		LaborUnitCost:    str(r.ArbeidPerEenheid),
		LaborCostMin:     str(r.ArbeidMin),
		LaborCostMax:     str(r.ArbeidMax),
		MaterialUnitCost: str(r.MateriaalPerEenh),
		MaterialCostMin:  str(r.MateriaalMin),
		MaterialCostMax:  str(r.MateriaalMax),
		Notes:            str(r.Opmerking),
	}
}
