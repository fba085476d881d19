package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "outpost-credit/internal/adapter/http"
	"outpost-credit/internal/adapter/middleware"
	"outpost-credit/internal/adapter/notify"
	"outpost-credit/internal/adapter/repository/mysql"
	"outpost-credit/internal/adapter/settings"
	"outpost-credit/internal/adapter/world"
	"outpost-credit/internal/config"
	"outpost-credit/internal/infrastructure/cache"
	"outpost-credit/internal/infrastructure/db"
	"outpost-credit/internal/infrastructure/metrics"
	"outpost-credit/internal/usecase/account"
	"outpost-credit/internal/usecase/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	m := metrics.New()
	w := world.NewStore(rdb)
	terms := settings.NewStore(rdb, cfg.DefaultTerms())
	guow := mysql.NewGormUoW(gdb)
	notifier := notify.New(mysql.NewNoticeRepository(gdb), log)

	sched := scheduler.New(scheduler.Deps{
		UoW:       guow,
		Terms:     terms,
		Notifier:  notifier,
		Enforcer:  w,
		Directory: w,
		Metrics:   m,
		Log:       log,
	})
	runner := scheduler.NewRunner(sched, w, cfg.SchedulerUnitTicks, cfg.SchedulerInterval)
	uc := account.NewUsecase(account.Deps{
		UoW:       guow,
		Terms:     terms,
		Treasury:  w,
		Directory: w,
		Notifier:  notifier,
		Clock:     w,
		Metrics:   m,
		Log:       log,
	})

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency.String()}
			if v.Error != nil {
				attrs = append(attrs, "err", v.Error)
			}
			log.Info("request", attrs...)
			return nil
		},
	}))

	httpadp.Register(e, httpadp.Routes{
		Health:      httpadp.NewHandler(w),
		Contract:    httpadp.NewContractHandler(uc),
		Settings:    httpadp.NewSettingsHandler(terms),
		Sim:         httpadp.NewSimHandler(runner, w),
		World:       httpadp.NewWorldHandler(w),
		Idempotency: middleware.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL()),
		Metrics:     echo.WrapHandler(m.Handler()),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SchedulerEnabled {
		go func() { _ = runner.Run(ctx) }()
	}

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
