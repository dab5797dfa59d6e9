package catalog

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/kodi/pkg/processor"
)

var validate = validator.New()

type Handler struct {
	catalog *processor.Catalog
}

func NewHandler(catalog *processor.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/normalize", h.Normalize)
	g.POST("/recode", h.Recode)
}

// Normalize runs a normalization pass. An empty body normalizes the staging buffer.
func (h *Handler) Normalize(c echo.Context) error {
	var req processor.NormalizeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	result, err := h.catalog.Normalize(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Recode(c echo.Context) error {
	result, err := h.catalog.Recode(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
