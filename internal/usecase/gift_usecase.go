package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"stockengine/internal/domain/model"
	"stockengine/internal/metrics"
	repo "stockengine/internal/repository"
)

type GiftUsecase struct {
	tx     repo.TransactionManager
	roller Roller
	log    *slog.Logger
}

func NewGiftUsecase(tx repo.TransactionManager, log *slog.Logger) *GiftUsecase {
	return &GiftUsecase{tx: tx, roller: defaultRoller{}, log: log}
}

type AdminCreateGiftInput struct {
	Name        string
	Probability float64
	MinPurchase int64
	//nilなら有効
	IsActive *bool
}

type GiftAwardOutput struct {
	OrderID int64                 `json:"order_id"`
	Gift    *model.GiftDefinition `json:"gift"`
	//既に抽選済みだった
	Replayed bool `json:"replayed"`
}

// r は [0,100)。id順に確率を足していき、r < 累計になった最初の景品。
// 合計が100未満なら残りはハズレ
func PickGift(gifts []model.GiftDefinition, r float64) *model.GiftDefinition {
	var cumulative float64
	for i := range gifts {
		cumulative += gifts[i].Probability
		if r < cumulative {
			return &gifts[i]
		}
	}
	return nil
}

// 注文金額で抽選する。当たればusage_countを+1
func (u *GiftUsecase) Roll(ctx context.Context, orderTotal int64) (*model.GiftDefinition, error) {
	if orderTotal < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid order total")
	}
	var won *model.GiftDefinition
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		won, err = u.rollWith(ctx, r, orderTotal)
		return err
	})
	if err != nil {
		return nil, toHTTPError(err)
	}
	return won, nil
}

func (u *GiftUsecase) rollWith(ctx context.Context, r repo.TxRepos, orderTotal int64) (*model.GiftDefinition, error) {
	gifts, err := r.Gifts().ListEligible(ctx, orderTotal)
	if err != nil {
		return nil, err
	}
	won := PickGift(gifts, u.roller.Float64()*100)
	if won == nil {
		metrics.GiftRolls.WithLabelValues("none").Inc()
		return nil, nil
	}

	ok, err := r.Gifts().IncrementUsage(ctx, won.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		//抽選中に無効化された
		metrics.GiftRolls.WithLabelValues("none").Inc()
		return nil, nil
	}
	won.UsageCount++
	metrics.GiftRolls.WithLabelValues("won").Inc()
	return won, nil
}

// 注文1件につき1回だけ抽選する。2回目以降は最初の結果を返す
func (u *GiftUsecase) RollForOrder(ctx context.Context, orderID int64) (GiftAwardOutput, error) {
	if orderID <= 0 {
		return GiftAwardOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	out := GiftAwardOutput{OrderID: orderID}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusConflict, "order cancelled")
		}
		if o.StockState() != model.StockProcessed {
			return NewHTTPError(http.StatusConflict, "order not processed")
		}

		award, found, err := r.Gifts().FindAward(ctx, orderID)
		if err != nil {
			return err
		}
		if found {
			out.Replayed = true
			if award.GiftID == nil {
				return nil
			}
			g, err := r.Gifts().FindByID(ctx, *award.GiftID)
			if err != nil {
				return err
			}
			out.Gift = &g
			return nil
		}

		won, err := u.rollWith(ctx, r, o.TotalAmount)
		if err != nil {
			return err
		}
		a := model.GiftAward{OrderID: orderID}
		if won != nil {
			a.GiftID = &won.ID
		}
		if err := r.Gifts().CreateAward(ctx, a); err != nil {
			return err
		}
		out.Gift = won
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) {
		//同時に抽選された。結果は読み直す
		return u.RollForOrder(ctx, orderID)
	}
	if err != nil {
		return GiftAwardOutput{}, toHTTPError(err)
	}
	if !out.Replayed {
		u.log.InfoContext(ctx, "gift rolled", "order_id", orderID, "won", out.Gift != nil)
	}
	return out, nil
}

func (u *GiftUsecase) CreateGift(ctx context.Context, adminUserID int64, in AdminCreateGiftInput) (model.GiftDefinition, error) {
	if adminUserID <= 0 {
		return model.GiftDefinition{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.GiftDefinition{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if math.IsNaN(in.Probability) || in.Probability < 0 || in.Probability > 100 {
		return model.GiftDefinition{}, NewHTTPError(http.StatusBadRequest, "probability must be 0..100")
	}
	if in.MinPurchase < 0 {
		return model.GiftDefinition{}, NewHTTPError(http.StatusBadRequest, "min_purchase must be >= 0")
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	var out model.GiftDefinition
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		g, err := r.Gifts().Create(ctx, model.GiftDefinition{
			Name:        name,
			Probability: in.Probability,
			MinPurchase: in.MinPurchase,
			IsActive:    active,
		})
		if err != nil {
			return err
		}
		out = g
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionCreateGift,
			ResourceType: model.AuditResourceGift,
			ResourceID:   g.ID,
			BeforeJSON:   "{}",
			AfterJSON:    auditJSON(map[string]any{"name": g.Name, "probability": g.Probability, "min_purchase": g.MinPurchase}),
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		return model.GiftDefinition{}, toHTTPError(err)
	}
	return out, nil
}
