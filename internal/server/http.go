// Package server assembles the HTTP transport.
package server

import (
	"context"
	nethttp "net/http"
	"strconv"

	"TradeSentry/internal/conf"
	"TradeSentry/internal/server/middleware"
	"TradeSentry/internal/service"
	pkglog "TradeSentry/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	auth *conf.Auth,
	tradeService *service.TradeService,
	marketService *service.MarketService,
	alertService *service.AlertService,
	accountService *service.AccountService,
	guardService *service.GuardService,
	logger log.Logger,
) *http.Server {
	logHelper := pkglog.NewLogHelper(logger)

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logHelper),
			middleware.Auth(auth, logHelper),
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	// Liveness probe, outside the middleware chain.
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	registerTradeRoutes(srv, tradeService)
	registerMarketRoutes(srv, marketService)
	registerAlertRoutes(srv, alertService)
	registerAccountRoutes(srv, accountService)
	registerGuardRoutes(srv, guardService)

	return srv
}

func registerTradeRoutes(srv *http.Server, svc *service.TradeService) {
	r := srv.Route("/api/v1")

	r.POST("/orders", func(ctx http.Context) error {
		var req service.PlaceOrderRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		// The Idempotency-Key header wins over the body field.
		if key := ctx.Header().Get("Idempotency-Key"); key != "" {
			req.IdempotencyKey = key
		}
		h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
			return svc.PlaceOrder(c, in.(*service.PlaceOrderRequest))
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(201, out)
	})

	r.GET("/trades/{id}", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.GetTrade(c, id)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/trades", func(ctx http.Context) error {
		q := ctx.Query()
		symbol := q.Get("symbol")
		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.ListTrades(c, symbol, offset, limit)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})
}

func registerMarketRoutes(srv *http.Server, svc *service.MarketService) {
	r := srv.Route("/api/v1")

	r.GET("/quotes/{symbol}", func(ctx http.Context) error {
		symbol := ctx.Vars().Get("symbol")
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.GetQuote(c, symbol)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/quotes/{symbol}/history", func(ctx http.Context) error {
		symbol := ctx.Vars().Get("symbol")
		limit, _ := strconv.Atoi(ctx.Query().Get("limit"))
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.GetHistory(c, symbol, limit)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})
}

func registerAlertRoutes(srv *http.Server, svc *service.AlertService) {
	r := srv.Route("/api/v1")

	r.POST("/alerts", func(ctx http.Context) error {
		var req service.CreateAlertRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
			return svc.CreateAlert(c, in.(*service.CreateAlertRequest))
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(201, out)
	})

	r.GET("/alerts", func(ctx http.Context) error {
		q := ctx.Query()
		symbol := q.Get("symbol")
		activeOnly := q.Get("active") == "true"
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.ListAlerts(c, symbol, activeOnly)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/alerts/{id}", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.GetAlert(c, id)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/alerts/{id}/reactivate", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.ReactivateAlert(c, id)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.DELETE("/alerts/{id}", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return nil, svc.DeleteAlert(c, id)
		})
		if _, err := h(ctx, nil); err != nil {
			return err
		}
		return ctx.Result(204, nil)
	})
}

func registerAccountRoutes(srv *http.Server, svc *service.AccountService) {
	r := srv.Route("/api/v1")

	r.POST("/accounts", func(ctx http.Context) error {
		var req service.LinkAccountRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
			return svc.LinkAccount(c, in.(*service.LinkAccountRequest))
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(201, out)
	})

	r.GET("/accounts", func(ctx http.Context) error {
		activeOnly := ctx.Query().Get("active") == "true"
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.ListAccounts(c, activeOnly)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/accounts/{id}", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.GetAccount(c, id)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.PUT("/accounts/{id}/status", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		var req service.UpdateAccountStatusRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
			return svc.UpdateAccountStatus(c, id, in.(*service.UpdateAccountStatusRequest))
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.DELETE("/accounts/{id}", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return nil, svc.UnlinkAccount(c, id)
		})
		if _, err := h(ctx, nil); err != nil {
			return err
		}
		return ctx.Result(204, nil)
	})
}

func registerGuardRoutes(srv *http.Server, svc *service.GuardService) {
	r := srv.Route("/api/v1")

	r.GET("/guards", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.ListGuards(c)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/guards/{name}", func(ctx http.Context) error {
		name := ctx.Vars().Get("name")
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.GetGuard(c, name)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/guards/{name}/reset", func(ctx http.Context) error {
		name := ctx.Vars().Get("name")
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.ResetGuard(c, name)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})
}

func pathID(ctx http.Context, name string) (int64, error) {
	return strconv.ParseInt(ctx.Vars().Get(name), 10, 64)
}
