package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shinyyama/goods-backend/internal/app"
	"github.com/shinyyama/goods-backend/internal/authz"
	"github.com/shinyyama/goods-backend/internal/handler"
	"github.com/shinyyama/goods-backend/internal/lock"
	appmw "github.com/shinyyama/goods-backend/internal/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	DB                  *gorm.DB
	Log                 *zap.Logger
	Services            *app.Services
	Auth                *appmw.AuthMiddleware
	Authz               *authz.Authorizer
	Locker              *lock.Locker
	Gatherer            prometheus.Gatherer
	CORSAllowedSuffixes []string
	SHA                 string
	BuildTime           string
}

type Server struct {
	e *echo.Echo
}

func allowOrigin(suffixes []string) func(origin string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		for _, s := range suffixes {
			s = strings.TrimSpace(s)
			if s != "" && (host == s || strings.HasSuffix(host, "."+strings.TrimPrefix(s, "."))) {
				return true, nil
			}
		}
		return false, nil
	}
}

func New(p Params) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLogger(p.Log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(p.CORSAllowedSuffixes),
	}))

	orderHandler := handler.NewOrderHandler(p.Services.Orders, p.Authz)
	pointsHandler := handler.NewPointsHandler(p.Services.Points, p.Authz)
	priceHandler := handler.NewPriceHandler(p.Services.Prices)
	clickHandler := handler.NewClickHandler(p.Services.Clicks)
	rankingHandler := handler.NewRankingHandler(p.Services.Rankings)

	e.GET("/healthz", func(c echo.Context) error {
		body := map[string]string{
			"ok":         "true",
			"git_sha":    p.SHA,
			"build_time": p.BuildTime,
			"db":         "ok",
			"redis":      "disabled",
		}
		status := http.StatusOK
		if err := pingDB(c.Request().Context(), p.DB); err != nil {
			body["ok"], body["db"] = "false", err.Error()
			status = http.StatusServiceUnavailable
		}
		if p.Locker != nil {
			body["redis"] = "ok"
			if err := p.Locker.Ping(c.Request().Context()); err != nil {
				body["redis"] = err.Error()
			}
		}
		return c.JSON(status, body)
	})
	if p.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := p.Auth.RequireAuth
	perm := func(object, action string) echo.MiddlewareFunc {
		return appmw.RequirePermission(p.Authz, object, action)
	}

	api := e.Group("/api")
	api.GET("/products/:id/price", priceHandler.Quote)
	api.GET("/products/:id/price-tiers", priceHandler.ListTiers)
	api.POST("/products/:id/click", clickHandler.Record, p.Auth.OptionalAuth)
	api.GET("/rankings/weekly", rankingHandler.Weekly)

	api.POST("/orders", orderHandler.Create, auth)
	api.GET("/orders", orderHandler.ListMine, auth)
	api.GET("/orders/:id", orderHandler.Get, auth)
	api.POST("/orders/:id/payment-complete", orderHandler.CompletePayment, auth)
	api.POST("/orders/:id/cancel", orderHandler.Cancel, auth)

	api.GET("/users/:id/points", pointsHandler.Get, auth)
	api.GET("/users/:id/points/history", pointsHandler.History, auth)

	admin := api.Group("/admin", auth)
	admin.PUT("/products/:id/price-tiers", priceHandler.ReplaceTiers, perm(authz.ObjectPriceTier, authz.ActionPriceTierReplace))
	admin.POST("/orders/:id/cancel", orderHandler.AdminCancel, perm(authz.ObjectOrder, authz.ActionOrderCancelAny))
	admin.POST("/users/:id/points/adjust", pointsHandler.AdminAdjust, perm(authz.ObjectPoints, authz.ActionPointsAdjust))
	admin.POST("/points/expire", pointsHandler.AdminExpire, perm(authz.ObjectPoints, authz.ActionPointsExpire))
	admin.POST("/rankings/recompute", rankingHandler.AdminRecompute, perm(authz.ObjectRanking, authz.ActionRankingRecompute))

	return &Server{e: e}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}
