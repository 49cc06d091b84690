package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync/atomic"
	"time"

	"stockengine/internal/domain/model"
	"stockengine/internal/metrics"
	repo "stockengine/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// 占有したまま落ちたエントリを取り直せるまでの時間
	DefaultClaimTTL = 5 * time.Minute
	// 同時送信数
	DefaultNotifyConcurrency = 4
)

type BackInStockUsecase struct {
	tx          repo.TransactionManager
	mailer      Mailer
	clock       Clock
	log         *slog.Logger
	claimTTL    time.Duration
	concurrency int
}

func NewBackInStockUsecase(tx repo.TransactionManager, mailer Mailer, log *slog.Logger) *BackInStockUsecase {
	return &BackInStockUsecase{
		tx:          tx,
		mailer:      mailer,
		clock:       SystemClock{},
		log:         log,
		claimTTL:    DefaultClaimTTL,
		concurrency: DefaultNotifyConcurrency,
	}
}

type SubscribeOutput struct {
	Entry   model.WaitlistEntry `json:"entry"`
	Created bool                `json:"created"`
}

type NotifyResult struct {
	ProductID  int64  `json:"product_id"`
	VariantKey string `json:"variant_key"`
	Pending    int    `json:"pending"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	//他の送信処理が占有中だった件数
	Skipped int `json:"skipped"`
	//MOQ未満で送らなかったとき
	BelowMOQ bool `json:"below_moq"`
}

// 再入荷通知の登録。在庫切れかMOQ未満のときだけ受け付ける。
// 同じメールのPENDINGがあればそれを返す
func (u *BackInStockUsecase) Subscribe(ctx context.Context, email string, productID int64, variantKey string) (SubscribeOutput, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return SubscribeOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if productID <= 0 {
		return SubscribeOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	key := model.NormalizeVariantKey(variantKey)

	var out SubscribeOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		v, err := r.Inventory().FindVariant(ctx, productID, key)
		if err != nil {
			return err
		}
		if v.Stock >= v.EffectiveMOQ(p) {
			return NewHTTPError(http.StatusConflict, "in stock")
		}

		existing, found, err := r.Waitlist().FindPending(ctx, addr.Address, productID, key)
		if err != nil {
			return err
		}
		if found {
			out = SubscribeOutput{Entry: existing}
			return nil
		}

		e, err := r.Waitlist().Create(ctx, model.WaitlistEntry{
			Email:      addr.Address,
			ProductID:  productID,
			VariantKey: key,
			Status:     model.WaitlistStatusPending,
		})
		if err != nil {
			return err
		}
		out = SubscribeOutput{Entry: e, Created: true}
		return nil
	})
	if err != nil {
		return SubscribeOutput{}, toHTTPError(err)
	}
	return out, nil
}

// 在庫がMOQ以上ならPENDINGの全員に送る。
// 1件ごとに占有→送信→NOTIFIEDで、送信失敗はPENDINGに戻す
func (u *BackInStockUsecase) NotifyRestock(ctx context.Context, productID int64, variantKey string) (NotifyResult, error) {
	key := model.NormalizeVariantKey(variantKey)
	res := NotifyResult{ProductID: productID, VariantKey: key}

	var (
		product model.Product
		pending []model.WaitlistEntry
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		v, err := r.Inventory().FindVariant(ctx, productID, key)
		if err != nil {
			return err
		}
		if v.Stock < v.EffectiveMOQ(p) {
			res.BelowMOQ = true
			return nil
		}
		product = p
		pending, err = r.Waitlist().ListPending(ctx, productID, key)
		return err
	})
	if err != nil {
		return res, toHTTPError(err)
	}
	if res.BelowMOQ || len(pending) == 0 {
		return res, nil
	}
	res.Pending = len(pending)

	var sent, failed, skipped atomic.Int64
	var g errgroup.Group
	g.SetLimit(u.concurrency)
	for _, e := range pending {
		g.Go(func() error {
			switch u.notifyOne(ctx, product, e) {
			case notifySent:
				sent.Add(1)
			case notifyFailed:
				failed.Add(1)
			default:
				skipped.Add(1)
			}
			//1件の失敗で他を止めない
			return nil
		})
	}
	_ = g.Wait()

	res.Sent = int(sent.Load())
	res.Failed = int(failed.Load())
	res.Skipped = int(skipped.Load())
	u.log.InfoContext(ctx, "back in stock notified",
		"product_id", productID, "variant", key, "sent", res.Sent, "failed", res.Failed, "skipped", res.Skipped)
	return res, nil
}

// コミット後に呼ぶ。エラーはログだけ
func (u *BackInStockUsecase) AfterRestock(ctx context.Context, refs []VariantRef) {
	for _, ref := range refs {
		if _, err := u.NotifyRestock(ctx, ref.ProductID, ref.VariantKey); err != nil {
			u.log.WarnContext(ctx, "back in stock scan failed",
				"product_id", ref.ProductID, "variant", ref.VariantKey, "error", err)
		}
	}
}

type notifyOutcome int

const (
	notifySkipped notifyOutcome = iota
	notifySent
	notifyFailed
)

func (u *BackInStockUsecase) notifyOne(ctx context.Context, p model.Product, e model.WaitlistEntry) notifyOutcome {
	token := uuid.NewString()
	now := u.clock.Now().UTC()

	var claimed bool
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		claimed, err = r.Waitlist().Claim(ctx, e.ID, token, now, now.Add(-u.claimTTL))
		return err
	})
	if err != nil {
		u.log.WarnContext(ctx, "waitlist claim failed", "entry_id", e.ID, "error", err)
		return notifyFailed
	}
	if !claimed {
		return notifySkipped
	}

	sendErr := u.mailer.SendBackInStockEmail(ctx, BackInStockMail{
		Email:       e.Email,
		ProductID:   p.ID,
		ProductName: p.Name,
		VariantKey:  e.VariantKey,
	})
	if sendErr != nil {
		metrics.Notifications.WithLabelValues("back_in_stock", "failed").Inc()
		u.log.WarnContext(ctx, "back in stock mail failed", "entry_id", e.ID, "email", e.Email, "error", sendErr)
		if err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			return r.Waitlist().Release(ctx, e.ID, token)
		}); err != nil {
			u.log.WarnContext(ctx, "waitlist release failed", "entry_id", e.ID, "error", err)
		}
		return notifyFailed
	}

	//送信済みなので記録は1回だけやり直す
	marked, err := u.markNotified(ctx, e.ID, token)
	if err != nil {
		marked, err = u.markNotified(ctx, e.ID, token)
	}
	if err != nil || !marked {
		//占有が期限切れになると再送されうる
		u.log.ErrorContext(ctx, "waitlist mark notified failed", "entry_id", e.ID, "marked", marked, "error", err)
	}
	metrics.Notifications.WithLabelValues("back_in_stock", "sent").Inc()
	return notifySent
}

func (u *BackInStockUsecase) markNotified(ctx context.Context, entryID int64, token string) (bool, error) {
	var marked bool
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		marked, err = r.Waitlist().MarkNotified(ctx, entryID, token, u.clock.Now().UTC())
		return err
	})
	return marked, err
}
