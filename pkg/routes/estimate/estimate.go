package estimate

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/kodi/pkg/estimation"
	"github.com/Ramsey-B/kodi/pkg/models"
)

var validate = validator.New()

type Handler struct {
	engine *estimation.Engine
}

func NewHandler(engine *estimation.Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/estimate", h.GetEstimate)
	g.POST("/estimate", h.PostEstimate)
}

// GetEstimate answers ?damage_code=&size=&unit=[&language=&price_year=&verbose=]
func (h *Handler) GetEstimate(c echo.Context) error {
	var q models.EstimateQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	return h.estimate(c, q)
}

func (h *Handler) PostEstimate(c echo.Context) error {
	var q models.EstimateQuery
	if err := c.Bind(&q); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return h.estimate(c, q)
}

func (h *Handler) estimate(c echo.Context, q models.EstimateQuery) error {
	if err := validate.Struct(q); err != nil {
		return err
	}

	estimate, err := h.engine.Estimate(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, estimate)
}
