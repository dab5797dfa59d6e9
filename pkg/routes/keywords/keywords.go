package keywords

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/kodi/pkg/keywords"
	"github.com/Ramsey-B/kodi/pkg/models"
)

var validate = validator.New()

type Handler struct {
	service *keywords.Service
}

func NewHandler(service *keywords.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/damage-types/:id/keywords", h.ListKeywords)
	g.POST("/damage-types/:id/keywords", h.AddKeyword)
}

type AddKeywordRequest struct {
	Language models.Language `json:"language" validate:"required,oneof=nl en"`
	Text     string          `json:"text" validate:"required"`
}

type AddKeywordResponse struct {
	Created bool `json:"created"`
}

func damageTypeID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "damage type id must be a positive integer")
	}
	return id, nil
}

func (h *Handler) ListKeywords(c echo.Context) error {
	id, err := damageTypeID(c)
	if err != nil {
		return err
	}

	keywords, err := h.service.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, keywords)
}

func (h *Handler) AddKeyword(c echo.Context) error {
	id, err := damageTypeID(c)
	if err != nil {
		return err
	}

	var req AddKeywordRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	created, err := h.service.Add(c.Request().Context(), id, req.Language, req.Text)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, AddKeywordResponse{Created: created})
}
