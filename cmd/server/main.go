package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library for startup failures before zap exists
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/booking"
	"github.com/iliyamo/cinema-backoffice/internal/checkin"
	"github.com/iliyamo/cinema-backoffice/internal/config" // Internal config loader
	"github.com/iliyamo/cinema-backoffice/internal/database"
	"github.com/iliyamo/cinema-backoffice/internal/handler"
	"github.com/iliyamo/cinema-backoffice/internal/logger"
	"github.com/iliyamo/cinema-backoffice/internal/media"
	"github.com/iliyamo/cinema-backoffice/internal/middleware"
	"github.com/iliyamo/cinema-backoffice/internal/queue"
	"github.com/iliyamo/cinema-backoffice/internal/remote"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
	"github.com/iliyamo/cinema-backoffice/internal/router" // Internal router setup
	"github.com/iliyamo/cinema-backoffice/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	defer db.Close()

	// Redis is optional: without it caching and rate limiting pass through.
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		zl.Warn("redis unavailable, cache and rate limit disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, zl)
	limiter := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, zl)

	cinemas := repository.NewCinemaRepo(db)
	halls := repository.NewHallRepo(db)
	seats := repository.NewSeatRepo(db)
	banners := repository.NewBannerRepo(db)
	orders := repository.NewOrderRepo(db)

	var ownership booking.OwnershipSource = cinemas
	if cfg.OwnershipURL != "" {
		ownership = remote.NewOwnershipClient(cfg.OwnershipURL)
		zl.Info("using remote ownership directory", zap.String("url", cfg.OwnershipURL))
	}

	var uploader media.Uploader
	if cfg.S3Bucket != "" {
		s3u, err := media.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			zl.Fatal("s3", zap.Error(err))
		}
		uploader = s3u
	}

	var events service.Publisher = service.LogPublisher{Log: zl}
	if cfg.RabbitURL != "" {
		events = service.NewRabbitPublisher(cfg.RabbitURL, zl)
		consumer := &queue.Consumer{URL: cfg.RabbitURL, LogPath: cfg.EventLogPath, Log: zl}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	layoutH := handler.NewLayoutHandler(cinemas, halls, seats, cache, zl)
	bannerH := handler.NewBannerHandler(banners, uploader, cache, events, zl, cfg.UploadMaxBytes)
	bookingH := handler.NewBookingHandler(
		booking.NewLoader(orders, ownership, zl),
		orders, ownership,
		checkin.NewEncoder(cfg.Timezone),
		events, zl,
	)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(zl))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("10M"))

	guard := router.Guard{JWTSecret: cfg.JWTSecret, Cache: cache, Limiter: limiter}
	router.RegisterRoutes(e)
	router.RegisterPublic(e, guard, layoutH, bannerH)
	router.RegisterManager(e, guard, layoutH, bookingH)
	router.RegisterAdmin(e, guard, bannerH)

	addr := ":" + cfg.Port
	zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}
