package handler

import (
	"net/http"

	"stockengine/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ProductCreateRequest struct {
	Name             string                            `json:"name"`
	Price            int64                             `json:"price"`
	MinOrderQuantity int64                             `json:"min_order_quantity"`
	IsActive         bool                              `json:"is_active"`
	Stock            int64                             `json:"stock"`
	Variants         []usecase.AdminCreateVariantInput `json:"variants"`
}

// 在庫の上書き（stock）か入荷（quantity）
type InventoryUpdateRequest struct {
	VariantKey string `json:"variant_key"`
	Stock      int64  `json:"stock"`
	Reason     string `json:"reason"`
}

type RestockRequest struct {
	VariantKey string `json:"variant_key"`
	Quantity   int64  `json:"quantity"`
	Reason     string `json:"reason"`
}

type NotifyRequest struct {
	VariantKey string `json:"variant_key"`
}

// /admin/products と /admin/inventory をまとめる
type AdminInventoryHandler struct {
	uc       *usecase.InventoryUsecase
	notifier *usecase.BackInStockUsecase
}

func NewAdminInventoryHandler(uc *usecase.InventoryUsecase, notifier *usecase.BackInStockUsecase) *AdminInventoryHandler {
	return &AdminInventoryHandler{uc: uc, notifier: notifier}
}

func (h *AdminInventoryHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/products", h.createProduct)

	admin.PUT("/inventory/:product_id", h.setStock)
	admin.POST("/inventory/:product_id/restock", h.restock)
	admin.GET("/inventory/:product_id/logs", h.logs)
	admin.GET("/inventory/:product_id/verify", h.verify)
	admin.POST("/inventory/:product_id/notify", h.notify)
}

func (h *AdminInventoryHandler) createProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, usecase.AdminCreateProductInput{
		Name:             req.Name,
		Price:            req.Price,
		MinOrderQuantity: req.MinOrderQuantity,
		IsActive:         req.IsActive,
		Stock:            req.Stock,
		Variants:         req.Variants,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminInventoryHandler) setStock(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.SetStock(c.Request().Context(), adminID, productID, req.VariantKey, req.Stock, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminInventoryHandler) restock(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	var req RestockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Restock(c.Request().Context(), adminID, productID, req.VariantKey, req.Quantity, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminInventoryHandler) logs(c echo.Context) error {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	out, err := h.uc.RecentLogs(c.Request().Context(), productID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminInventoryHandler) verify(c echo.Context) error {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	out, err := h.uc.VerifyConservation(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 手動で再入荷通知を流す
func (h *AdminInventoryHandler) notify(c echo.Context) error {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	var req NotifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.notifier.NotifyRestock(c.Request().Context(), productID, req.VariantKey)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
