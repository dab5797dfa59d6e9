package models

// StagingRow is one raw record of the staging buffer. Every column is optional text;
// numbers are parsed by the stage that needs them.
type StagingRow struct {
	ID int64 `db:"staging_id" json:"id"`

	CategoryCodeNL *string `db:"category_code_nl" json:"category_code_nl,omitempty"`
	CategoryCodeEN *string `db:"category_code_en" json:"category_code_en,omitempty"`
	CategoryNameNL *string `db:"category_name_nl" json:"category_name_nl,omitempty"`
	CategoryNameEN *string `db:"category_name_en" json:"category_name_en,omitempty"`

	TypeCodeNL *string `db:"type_code_nl" json:"type_code_nl,omitempty"`
	TypeCodeEN *string `db:"type_code_en" json:"type_code_en,omitempty"`
	TypeNameNL *string `db:"type_name_nl" json:"type_name_nl,omitempty"`
	TypeNameEN *string `db:"type_name_en" json:"type_name_en,omitempty"`

	ActivityCodeNL *string `db:"activity_code_nl" json:"activity_code_nl,omitempty"`
	ActivityCodeEN *string `db:"activity_code_en" json:"activity_code_en,omitempty"`
	ActivityNameNL *string `db:"activity_name_nl" json:"activity_name_nl,omitempty"`
	ActivityNameEN *string `db:"activity_name_en" json:"activity_name_en,omitempty"`

	PriceYear *string `db:"price_year" json:"price_year,omitempty"`

	SeverityLabel *string `db:"severity_label" json:"severity_label,omitempty"`
	SeverityMin   *string `db:"severity_min" json:"severity_min,omitempty"`
	SeverityMax   *string `db:"severity_max" json:"severity_max,omitempty"`
	SeverityUnit  *string `db:"severity_unit" json:"severity_unit,omitempty"`

	LaborUnit        *string `db:"labor_unit" json:"labor_unit,omitempty"`
	MaterialUnit     *string `db:"material_unit" json:"material_unit,omitempty"`
	LaborUnitCost    *string `db:"labor_unit_cost" json:"labor_unit_cost,omitempty"`
	LaborCostMin     *string `db:"labor_cost_min" json:"labor_cost_min,omitempty"`
	LaborCostMax     *string `db:"labor_cost_max" json:"labor_cost_max,omitempty"`
	MaterialUnitCost *string `db:"material_unit_cost" json:"material_unit_cost,omitempty"`
	MaterialCostMin  *string `db:"material_cost_min" json:"material_cost_min,omitempty"`
	MaterialCostMax  *string `db:"material_cost_max" json:"material_cost_max,omitempty"`

	Notes *string `db:"notes" json:"notes,omitempty"`
}

// LegacyRow is one record of the pre-existing flat spreadsheet table. Type codes are not
// stored; they are composed from the category and subcategory fragments.
type LegacyRow struct {
	ID int64 `db:"id"`

	Hoofdcategorie   *string `db:"hoofdcategorie"`
	HoofdcategorieEN *string `db:"hoofdcategorie_en"`
	Subcategorie     *string `db:"subcategorie"`
	SubcategorieEN   *string `db:"subcategorie_en"`
	Omschrijving     *string `db:"omschrijving"`
	OmschrijvingEN   *string `db:"omschrijving_en"`
	Activiteit       *string `db:"activiteit"`
	ActiviteitEN     *string `db:"activiteit_en"`

	Jaar     *string `db:"jaar"`
	Ernst    *string `db:"ernst"`
	ErnstMin *string `db:"ernst_min"`
	ErnstMax *string `db:"ernst_max"`

	Eenheid          *string `db:"eenheid"`
	EenheidMateriaal *string `db:"eenheid_materiaal"`
	ArbeidPerEenheid *string `db:"arbeid_per_eenheid"`
	ArbeidMin        *string `db:"arbeid_min"`
	ArbeidMax        *string `db:"arbeid_max"`
	MateriaalPerEenh *string `db:"materiaal_per_eenheid"`
	MateriaalMin     *string `db:"materiaal_min"`
	MateriaalMax     *string `db:"materiaal_max"`
	Opmerking        *string `db:"opmerking"`
}

// StagingLoadedEvent announces that an external loader filled a staging source.
type StagingLoadedEvent struct {
	Source   string `json:"source"`
	LoadID   string `json:"load_id"`
	RowCount int    `json:"row_count"`
}

// CatalogNormalizedEvent is published after a normalization pass completes.
type CatalogNormalizedEvent struct {
	RunID      string         `json:"run_id"`
	Source     string         `json:"source"`
	LoadID     string         `json:"load_id,omitempty"`
	RowsSeen   int            `json:"rows_seen"`
	Created    map[string]int `json:"created"`
	DurationMS int64          `json:"duration_ms"`
}
