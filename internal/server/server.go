package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stockengine/internal/app"
	"stockengine/internal/config"
	"stockengine/internal/handler"
	"stockengine/internal/metrics"
	"stockengine/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ルート登録まで済んだechoを返す
func New(cfg config.Config, a *app.App, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	handler.NewWaitlistHandler(a.BackInStock).RegisterRoutes(e)

	//ログイン済み
	orders := e.Group("/orders", middleware.AuthJWT(cfg))
	handler.NewOrderHandler(a.Orders).RegisterRoutes(orders)

	//管理者
	admin := e.Group("/admin", middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	handler.NewAdminOrderHandler(a.AdminOrders, a.OrderStock, a.Gifts).RegisterRoutes(admin)
	handler.NewAdminInventoryHandler(a.Inventory, a.BackInStock).RegisterRoutes(admin)
	handler.NewLoyaltyHandler(a.Loyalty).RegisterRoutes(admin)
	handler.NewGiftHandler(a.Gifts).RegisterRoutes(admin)

	return e
}

// ctxが終わったら10秒待って止める
func Run(ctx context.Context, e *echo.Echo, addr string, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("server shutting down")
	return e.Shutdown(shutdownCtx)
}
