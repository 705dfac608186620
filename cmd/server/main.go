package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitebuddy-be/internal/config"
	"bitebuddy-be/internal/db"
	"bitebuddy-be/internal/handler"
	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/menu"
	"bitebuddy-be/internal/metrics"
	"bitebuddy-be/internal/middleware"
	"bitebuddy-be/internal/notify"
	"bitebuddy-be/internal/order"
	"bitebuddy-be/internal/user"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const (
	tokenTTL        = 24 * time.Hour
	notifyTimeout   = 5 * time.Second
	shutdownTimeout = 15 * time.Second
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

type app struct {
	router   http.Handler
	limiter  *middleware.RateLimiter
	notifier *notify.Async
	nc       *nats.Conn
	users    user.Service
}

// close waits for in-flight notifications before draining NATS.
func (a *app) close() {
	a.notifier.Wait()
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			logger.L().Warn("nats drain failed", zap.Error(err))
		}
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	conn := initDBFunc(cfg)
	defer conn.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := newServer(cfg, conn, reg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := bootstrapAdmin(ctx, cfg, a.users); err != nil {
		return err
	}

	go a.limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.L().Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, srv)
}

func newServer(cfg *config.Config, conn *sql.DB, reg *prometheus.Registry) (*app, error) {
	log := logger.L()

	orderMetrics, err := metrics.NewOrderMetrics(reg)
	if err != nil {
		return nil, err
	}
	httpMetrics, err := metrics.NewHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}

	a := &app{}

	var base notify.Notifier = notify.LogNotifier{}
	if cfg.NATSURL != "" {
		nc, err := notify.Connect(cfg.NATSURL, log)
		if err != nil {
			log.Warn("nats unavailable, delivery codes will only be logged", zap.Error(err))
		} else {
			a.nc = nc
			base = notify.NewNATSNotifier(nc)
		}
	}
	a.notifier = notify.NewAsync(base, notifyTimeout)

	tokens := user.NewTokenManager(cfg.JWTSecret, tokenTTL)

	userRepo := user.NewRepository(conn)
	userSvc := user.NewService(userRepo, tokens)
	a.users = userSvc

	menuRepo := menu.NewRepository(conn)

	orderRepo := order.NewRepository(conn)
	orderSvc := order.NewService(orderRepo, menuRepo, userSvc, order.Options{
		Policy:              cfg.OTPPolicy(),
		CancelCustomerUntil: cfg.CustomerCancelUntil(),
		Notifier:            a.notifier,
		Metrics:             orderMetrics,
	})

	gate := cfg.GestureConfig()
	a.limiter = middleware.NewRateLimiter(nil, []string{gate.PrivilegedPath}, []string{"/verify-otp"})

	h := handler.New(userSvc, orderSvc, menuRepo, tokens, cfg.AppEnv == "production")
	a.router = handler.NewRouter(h, handler.RouterOptions{
		AdminLoginPath: gate.PrivilegedPath,
		AllowedOrigins: cfg.CORSOrigins,
		Limiter:        a.limiter,
		HTTPMetrics:    httpMetrics,
		Gatherer:       reg,
	})

	return a, nil
}

// bootstrapAdmin creates the admin from ADMIN_EMAIL/ADMIN_PASSWORD so a fresh
// database has someone who can add staff.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users user.Service) error {
	if cfg.AdminEmail == "" {
		return nil
	}

	u, err := users.EnsureAdmin(ctx, user.StaffInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	logger.L().Info("admin account ready", zap.Int64("user_id", u.ID))
	return nil
}

// startServer serves until ctx is cancelled, then shuts down gracefully.
func startServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
