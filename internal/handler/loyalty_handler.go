package handler

import (
	"net/http"

	"stockengine/internal/usecase"

	"github.com/labstack/echo/v4"
)

type LoyaltyHandler struct {
	uc *usecase.LoyaltyUsecase
}

func NewLoyaltyHandler(uc *usecase.LoyaltyUsecase) *LoyaltyHandler {
	return &LoyaltyHandler{uc: uc}
}

func (h *LoyaltyHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/loyalty/:customer_id", h.get)
	admin.POST("/loyalty/:customer_id/sync", h.sync)
}

func (h *LoyaltyHandler) get(c echo.Context) error {
	id, ok := paramID(c, "customer_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid customer id"})
	}
	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoyaltyHandler) sync(c echo.Context) error {
	id, ok := paramID(c, "customer_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid customer id"})
	}
	out, err := h.uc.Sync(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
