package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/pkg/catalog/memory"
	"github.com/Ramsey-B/kodi/pkg/estimation"
	kwservice "github.com/Ramsey-B/kodi/pkg/keywords"
	"github.com/Ramsey-B/kodi/pkg/middleware"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/normalizer"
	"github.com/Ramsey-B/kodi/pkg/processor"
	"github.com/Ramsey-B/kodi/pkg/recode"
	"github.com/Ramsey-B/kodi/pkg/routes/catalog"
	"github.com/Ramsey-B/kodi/pkg/routes/estimate"
	"github.com/Ramsey-B/kodi/pkg/routes/health"
	"github.com/Ramsey-B/kodi/pkg/routes/keywords"
)

var silent = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

type testServer struct {
	e       *echo.Echo
	store   *memory.Store
	checker *health.Checker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	rows := []normalizer.Row{{
		Ref:            "1",
		CategoryCodeNL: "DAK",
		CategoryCodeEN: "ROOF",
		TypeCodeNL:     "DAK_LEK",
		TypeCodeEN:     "ROOF_LEAK",
		ActivityCodeNL: "DAKPAN_VERVANGEN",
		ActivityCodeEN: "REPLACE_TILE",
		PriceYear:      "2017",
		SeverityLabel:  "klein",
		SeverityMin:    "0",
		SeverityMax:    "100",
		LaborUnit:      "m2",
		LaborUnitCost:  "10",
	}}

	n := normalizer.New(store, nil, silent, normalizer.Options{})
	catalogSvc := processor.NewCatalog(n, recode.New(store, silent), []normalizer.Source{
		normalizer.StaticSource{SourceName: normalizer.SourceStaging, Data: rows},
	}, silent, processor.Options{})

	checker := health.NewChecker("test")
	checker.AddCheck("catalog", func(context.Context) error { return nil })

	e := NewServer("kodi-test", Handlers{
		Estimate: estimate.NewHandler(estimation.NewEngine(store, nil, silent, models.LanguageNL)),
		Catalog:  catalog.NewHandler(catalogSvc),
		Keywords: keywords.NewHandler(kwservice.NewService(store, silent)),
		Health:   checker,
	}, silent)

	return &testServer{e: e, store: store, checker: checker}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestEstimateRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/normalize", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/estimate?damage_code=DAK_LEK&size=12&unit=m2&price_year=2017", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got models.Estimate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "120", got.Totals.GrandTotal.String())
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "DAKPAN_VERVANGEN", got.Lines[0].ActivityCode)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = s.do(http.MethodPost, "/api/v1/estimate", `{"damage_code":"ROOF_LEAK","language":"en","size":"3","unit":"m2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "REPLACE_TILE", got.Lines[0].ActivityCode)
	assert.Equal(t, "30", got.Totals.Labor.String())
}

func TestEstimateRoutes_Errors(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/normalize", "").Code)

	tests := []struct {
		name   string
		target string
		status int
		kind   string
	}{
		{"unknown code", "/api/v1/estimate?damage_code=NOPE&size=1&unit=m2", http.StatusNotFound, "damage_type_not_found"},
		{"unknown year", "/api/v1/estimate?damage_code=DAK_LEK&size=1&unit=m2&price_year=1999", http.StatusNotFound, "price_book_not_found"},
		{"unknown unit", "/api/v1/estimate?damage_code=DAK_LEK&size=1&unit=km", http.StatusNotFound, "unit_not_found"},
		{"missing unit", "/api/v1/estimate?damage_code=DAK_LEK&size=1", http.StatusBadRequest, ""},
		{"bad language", "/api/v1/estimate?damage_code=DAK_LEK&size=1&unit=m2&language=de", http.StatusBadRequest, ""},
		{"bad size", "/api/v1/estimate?damage_code=DAK_LEK&size=abc&unit=m2", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.kind != "" {
				assert.Equal(t, tt.kind, decodeError(t, rec).Meta["kind"])
			}
		})
	}
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/normalize", `{"source":"excel"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/normalize", `{"source":"legacy"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "invalid_input", decodeError(t, rec).Meta["kind"])

	rec = s.do(http.MethodPost, "/api/v1/normalize", `{"source":"staging"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result normalizer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.RowsSeen)
	assert.Equal(t, 1, result.Created[normalizer.KindCost])

	rec = s.do(http.MethodPost, "/api/v1/recode", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recoded recode.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recoded))
	assert.Zero(t, recoded.Total())
}

func TestKeywordRoutes(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/normalize", "").Code)

	types, err := s.store.FindDamageTypesByCode(context.Background(), "DAK_LEK", models.LanguageNL)
	require.NoError(t, err)
	require.Len(t, types, 1)
	path := fmt.Sprintf("/api/v1/damage-types/%d/keywords", types[0].ID)

	rec := s.do(http.MethodPost, path, `{"language":"nl","text":"lekkage"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, path, `{"language":"nl","text":" lekkage "}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, path, `{"language":"fr","text":"fuite"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/api/v1/damage-types/999/keywords", `{"language":"nl","text":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/damage-types/abc/keywords", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.DamageTypeKeyword
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "lekkage", list[0].KeywordText)
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/health", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/health/live", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/api/v1/health/ready", "").Code)

	s.checker.SetReady(true)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/health/ready", "").Code)

	s.checker.AddCheck("redis", func(context.Context) error { return assert.AnError })
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/api/v1/health", "").Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", "").Code)
}
