package handler

import (
	"net/http"

	"stockengine/internal/domain/model"
	"stockengine/internal/usecase"

	"github.com/labstack/echo/v4"
)

type GiftCreateRequest struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	MinPurchase int64   `json:"min_purchase"`
	IsActive    *bool   `json:"is_active"`
}

type GiftRollRequest struct {
	OrderTotal int64 `json:"order_total"`
}

type GiftRollResponse struct {
	Gift *model.GiftDefinition `json:"gift"`
}

type GiftHandler struct {
	uc *usecase.GiftUsecase
}

func NewGiftHandler(uc *usecase.GiftUsecase) *GiftHandler {
	return &GiftHandler{uc: uc}
}

func (h *GiftHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/gifts", h.create)
	admin.POST("/gifts/roll", h.roll)
}

func (h *GiftHandler) create(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req GiftCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateGift(c.Request().Context(), adminID, usecase.AdminCreateGiftInput{
		Name:        req.Name,
		Probability: req.Probability,
		MinPurchase: req.MinPurchase,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// 注文に紐づけない抽選（ハズレはgift: null）
func (h *GiftHandler) roll(c echo.Context) error {
	var req GiftRollRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	g, err := h.uc.Roll(c.Request().Context(), req.OrderTotal)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, GiftRollResponse{Gift: g})
}
