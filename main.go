// Package main book rental API.
//
// @title           Book Rental API
// @version         1.0
// @description     Book catalog and multi-book rentals.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

//go:generate swag init --output docs --outputTypes go

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookrental/app/echoServer"
	bookctrl "bookrental/app/echoServer/controller/book"
	rentalctrl "bookrental/app/echoServer/controller/rental"
	"bookrental/app/echoServer/validation"
	"bookrental/config"
	_ "bookrental/docs"
	"bookrental/repository"
	"bookrental/repository/memory"
	booksvc "bookrental/service/book"
	rentalsvc "bookrental/service/rental"
	"bookrental/util/database"
	"bookrental/util/lock"
	"bookrental/util/logger"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	log := logger.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	locker, closeLocker, err := openLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	mode, err := rentalsvc.ParseMode(cfg.RentalMode)
	if err != nil {
		return err
	}

	// services
	bs := booksvc.New(st)
	rs := rentalsvc.New(st,
		rentalsvc.WithLocker(locker),
		rentalsvc.WithMode(mode),
		rentalsvc.WithLogger(log),
		rentalsvc.WithLockTimeout(cfg.LockTimeout),
	)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	echoServer.RegisterMiddlewares(e, echoServer.MiddlewareConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	echoServer.Register(e, echoServer.C{
		Book:      &bookctrl.Controller{Svc: bs, Rentals: rs, Log: log},
		Rental:    &rentalctrl.Controller{Svc: rs, Log: log},
		Health:    st,
		JWTSecret: cfg.JWTSecret,
	})

	log.Info("starting server",
		"port", cfg.Port,
		"env", cfg.Env,
		"store", cfg.StoreBackend,
		"lock", cfg.LockBackend,
		"rental_mode", string(mode),
		"auth", cfg.JWTSecret != "",
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.App, log *slog.Logger) (repository.Store, func(), error) {
	if cfg.StoreBackend == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.Migrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("db migrate: %w", err)
		}
		log.Info("schema applied")
	}
	return repository.NewPostgres(db), db.Close, nil
}

func openLocker(ctx context.Context, cfg config.App) (lock.Locker, func(), error) {
	switch cfg.LockBackend {
	case config.LockMemory:
		return lock.NewMemory(), func() {}, nil
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		l, err := lock.NewRedis(client, lock.WithTTL(cfg.LockTTL))
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return l, func() { _ = client.Close() }, nil
	default:
		return lock.Noop{}, func() {}, nil
	}
}
