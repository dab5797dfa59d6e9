package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// Kind classifies a catalog failure that callers are expected to act on.
type Kind string

const (
	KindDamageTypeNotFound  Kind = "damage_type_not_found"
	KindDamageTypeAmbiguous Kind = "damage_type_ambiguous"
	KindPriceBookNotFound   Kind = "price_book_not_found"
	KindUnitNotFound        Kind = "unit_not_found"
	KindSeverityBandMissing Kind = "severity_band_missing"
	KindNoCosts             Kind = "no_costs"
	KindSourceMissing       Kind = "source_missing"
	KindCodeConflict        Kind = "code_conflict"
	KindInvalidInput        Kind = "invalid_input"
)

var statusByKind = map[Kind]int{
	KindDamageTypeNotFound:  http.StatusNotFound,
	KindDamageTypeAmbiguous: http.StatusConflict,
	KindPriceBookNotFound:   http.StatusNotFound,
	KindUnitNotFound:        http.StatusNotFound,
	KindSeverityBandMissing: http.StatusUnprocessableEntity,
	KindNoCosts:             http.StatusUnprocessableEntity,
	KindSourceMissing:       http.StatusPreconditionFailed,
	KindCodeConflict:        http.StatusConflict,
	KindInvalidInput:        http.StatusBadRequest,
}

// CatalogError is a domain failure of the normalizer or the estimator.
type CatalogError struct {
	Kind    Kind
	Message string
	meta    map[string]any
}

func New(kind Kind, message string) *CatalogError {
	return &CatalogError{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *CatalogError {
	return &CatalogError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// With attaches a detail surfaced in HTTP error metadata.
func (e *CatalogError) With(key string, value any) *CatalogError {
	if e.meta == nil {
		e.meta = map[string]any{}
	}
	e.meta[key] = value
	return e
}

func (e *CatalogError) Meta() map[string]any {
	return e.meta
}

func (e *CatalogError) StatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (e *CatalogError) ToHTTPError() *httperror.HTTPError {
	httpErr := httperror.NewHTTPError(e.StatusCode(), e.Message).AddMetaValue("kind", string(e.Kind))
	for k, v := range e.meta {
		httpErr = httpErr.AddMetaValue(k, v)
	}
	return httpErr
}

// As returns the CatalogError in err's chain, if any.
func As(err error) (*CatalogError, bool) {
	var catalogErr *CatalogError
	if errors.As(err, &catalogErr) {
		return catalogErr, true
	}
	return nil, false
}

// Is reports whether err carries a CatalogError of the given kind.
func Is(err error, kind Kind) bool {
	catalogErr, ok := As(err)
	return ok && catalogErr.Kind == kind
}

func DamageTypeNotFound(code string) *CatalogError {
	return Newf(KindDamageTypeNotFound, "damage type code %q not found", code).With("damage_code", code)
}

func DamageTypeAmbiguous(code string, matches int) *CatalogError {
	return Newf(KindDamageTypeAmbiguous, "damage type code %q matches %d types", code, matches).
		With("damage_code", code).With("matches", matches)
}

func PriceBookNotFound(year int) *CatalogError {
	return Newf(KindPriceBookNotFound, "price book for year %d not found", year).With("price_year", year)
}

func UnitNotFound(symbol string) *CatalogError {
	return Newf(KindUnitNotFound, "unit %q not found", symbol).With("unit", symbol)
}

func SeverityBandMissing(code string) *CatalogError {
	return Newf(KindSeverityBandMissing, "no severity bands configured for damage type %q", code).With("damage_code", code)
}

func NoCosts(code string, year int) *CatalogError {
	return Newf(KindNoCosts, "no costs found for damage type %q in price year %d", code, year).
		With("damage_code", code).With("price_year", year)
}

func SourceMissing(table string) *CatalogError {
	return Newf(KindSourceMissing, "source table %s does not exist", table).With("table", table)
}

func CodeConflict(entity string, codeNL, codeEN string) *CatalogError {
	return Newf(KindCodeConflict, "%s codes %q/%q collide with an existing %s in one language only", entity, codeNL, codeEN, entity).
		With("entity", entity).With("code_nl", codeNL).With("code_en", codeEN)
}

func InvalidInput(format string, args ...any) *CatalogError {
	return Newf(KindInvalidInput, format, args...)
}
