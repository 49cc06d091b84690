package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stockengine/internal/domain/model"
	"stockengine/internal/metrics"
	repo "stockengine/internal/repository"
)

// 同時に同じキーの注文が入った（txを作り直して読み直す）
var errIdempotencyRace = errors.New("idempotency race")

type OrderUsecase struct {
	tx    repo.TransactionManager
	stock *OrderStockUsecase
	log   *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, stock *OrderStockUsecase, log *slog.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, stock: stock, log: log}
}

type PlaceOrderItemInput struct {
	ProductID  int64  `json:"product_id"`
	VariantKey string `json:"variant_key"`
	Quantity   int64  `json:"quantity"`
}

type PlaceOrderInput struct {
	IdempotencyKey string
	PaidAmount     int64
	Items          []PlaceOrderItemInput
}

type OrderItemOutput struct {
	ProductID  int64  `json:"product_id"`
	VariantKey string `json:"variant_key"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
}

type OrderOutput struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	Status         string            `json:"status"`
	StockProcessed bool              `json:"stock_processed"`
	TotalAmount    int64             `json:"total_amount"`
	PaidAmount     int64             `json:"paid_amount"`
	DueAmount      int64             `json:"due_amount"`
	CreatedAt      time.Time         `json:"created_at"`
	Items          []OrderItemOutput `json:"items"`
}

// 注文作成と在庫減算を1トランザクションで行う。
// 1つでも在庫が足りなければ注文ごと作らない
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "items empty")
	}
	if in.PaidAmount < 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid paid_amount")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
	}

	var (
		out      OrderOutput
		replayed bool
		applied  applyOutput
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			out = toOrderOutput(existing, items)
			replayed = true
			return nil
		}

		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var total int64
		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "product inactive")
			}
			v, err := r.Inventory().FindVariant(ctx, it.ProductID, it.VariantKey)
			if err != nil {
				return err
			}
			if it.Quantity < v.EffectiveMOQ(p) {
				return NewHTTPError(http.StatusBadRequest, "below minimum order quantity")
			}

			price := v.Price
			if price <= 0 {
				price = p.Price
			}
			line := model.OrderItem{
				ProductID:           p.ID,
				VariantKey:          v.VariantKey,
				ProductNameSnapshot: p.Name,
				UnitPrice:           price,
				Quantity:            it.Quantity,
			}
			orderItems = append(orderItems, line)
			total += line.LineTotal()
		}

		o := model.Order{
			UserID:         userID,
			Status:         model.OrderStatusPending,
			TotalAmount:    total,
			PaidAmount:     in.PaidAmount,
			DueAmount:      model.DueFor(total, in.PaidAmount),
			IdempotencyKey: key,
		}
		orderID, err := r.Orders().Create(ctx, o)
		if errors.Is(err, repo.ErrDuplicate) {
			return errIdempotencyRace
		}
		if err != nil {
			return err
		}
		o.ID = orderID

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		applied, err = u.stock.applyOrder(ctx, r, o, orderItems)
		if errors.Is(err, errStockShortage) {
			return NewHTTPError(http.StatusConflict, "out of stock")
		}
		if err != nil {
			return err
		}

		o.StockProcessed = true
		o.Status = model.OrderStatusProcessing
		o.CreatedAt = time.Now()
		out = toOrderOutput(o, orderItems)
		return nil
	})

	if errors.Is(err, errIdempotencyRace) {
		//失敗したtxは使えないので読み直しは別tx
		return u.findByKey(ctx, userID, key)
	}
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}

	if !replayed {
		metrics.OrdersProcessed.WithLabelValues(string(model.StockProcessed)).Inc()
		u.stock.afterCommit(ctx, applied.items, applied.alerts)
		u.log.InfoContext(ctx, "order placed", "order_id", out.ID, "user_id", userID, "total", out.TotalAmount)
	}
	return out, nil
}

func (u *OrderUsecase) findByKey(ctx context.Context, userID int64, key string) (OrderOutput, error) {
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if !found {
			return NewHTTPError(http.StatusConflict, "idempotency conflict")
		}
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, toHTTPError(err)
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return repo.ErrNotFound
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:  it.ProductID,
			VariantKey: it.VariantKey,
			Name:       it.ProductNameSnapshot,
			Price:      it.UnitPrice,
			Quantity:   it.Quantity,
		})
	}

	return OrderOutput{
		ID:             o.ID,
		UserID:         o.UserID,
		Status:         string(o.Status),
		StockProcessed: o.StockProcessed,
		TotalAmount:    o.TotalAmount,
		PaidAmount:     o.PaidAmount,
		DueAmount:      o.DueAmount,
		CreatedAt:      o.CreatedAt,
		Items:          outItems,
	}
}
