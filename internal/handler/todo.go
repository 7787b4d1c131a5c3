package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tresh-api/internal/logging"
	"github.com/iliyamo/tresh-api/internal/model"
	"github.com/iliyamo/tresh-api/internal/repository"
	"github.com/iliyamo/tresh-api/internal/service"
)

// ItemStore is implemented by repository.ItemRepo.
type ItemStore interface {
	List(ctx context.Context) ([]model.Item, error)
	GetByID(ctx context.Context, id uint64) (*model.Item, error)
	Create(ctx context.Context, it *model.Item) error
	Update(ctx context.Context, it *model.Item) error
	Delete(ctx context.Context, id uint64) error
}

type TodoHandler struct {
	Items ItemStore
	Log   logging.Logger
}

func NewTodoHandler(items ItemStore, log logging.Logger) *TodoHandler {
	return &TodoHandler{Items: items, Log: log}
}

// itemReq requires both title and description to be present.
type itemReq struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Done        bool    `json:"done"`
}

func (h *TodoHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	items, err := h.Items.List(ctx)
	if err != nil {
		return h.internal(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *TodoHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	it, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return h.itemError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *TodoHandler) Create(c echo.Context) error {
	var req itemReq
	if err := bindAndValidate(c, &req); err != nil {
		return validationFailed(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	it := &model.Item{Title: req.Title, Description: *req.Description, Done: req.Done}
	if err := h.Items.Create(ctx, it); err != nil {
		return h.internal(c, err)
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/todo/"+strconv.FormatUint(it.ID, 10))
	return c.JSON(http.StatusCreated, it)
}

// Update replaces title, description and done and returns the stored item.
func (h *TodoHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req itemReq
	if err := bindAndValidate(c, &req); err != nil {
		return validationFailed(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	it := &model.Item{ID: id, Title: req.Title, Description: *req.Description, Done: req.Done}
	if err := h.Items.Update(ctx, it); err != nil {
		return h.itemError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

// Delete removes the item; 204 on success.
func (h *TodoHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Items.Delete(ctx, id); err != nil {
		return h.itemError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TodoHandler) itemError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
	}
	return h.internal(c, err)
}

func (h *TodoHandler) internal(c echo.Context, err error) error {
	h.Log.Error(c.Request().Context(), "todo: request failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

func validationFailed(c echo.Context, err error) error {
	msgs := service.FailureMessages(err)
	if len(msgs) == 0 {
		msgs = []string{"Invalid payload"}
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"errors": msgs})
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
