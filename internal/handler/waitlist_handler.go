package handler

import (
	"net/http"

	"stockengine/internal/usecase"

	"github.com/labstack/echo/v4"
)

type NotifyMeRequest struct {
	Email      string `json:"email"`
	ProductID  int64  `json:"product_id"`
	VariantKey string `json:"variant_key"`
}

// 再入荷通知の登録（ログイン不要）
type WaitlistHandler struct {
	uc *usecase.BackInStockUsecase
}

func NewWaitlistHandler(uc *usecase.BackInStockUsecase) *WaitlistHandler {
	return &WaitlistHandler{uc: uc}
}

func (h *WaitlistHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/notify-me", h.subscribe)
}

func (h *WaitlistHandler) subscribe(c echo.Context) error {
	var req NotifyMeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Subscribe(c.Request().Context(), req.Email, req.ProductID, req.VariantKey)
	if err != nil {
		return writeError(c, err)
	}
	if out.Created {
		return c.JSON(http.StatusCreated, out)
	}
	return c.JSON(http.StatusOK, out)
}
