package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/crypto/bcrypt"

	"workhub-api/activity"
	"workhub-api/api"
	"workhub-api/domain"
	"workhub-api/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("load .env: %v", err)
	}
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)

	ctx := context.Background()

	var (
		boards  domain.BoardStorage
		users   domain.UserStorage
		pingers []api.Pinger
		closers []func(context.Context) error
	)
	if cfg.MongoURI == "" {
		logger.Warn("MONGODB_URI not set; using in-memory storage")
		mem := storage.NewMemory()
		boards, users = mem, mem
		pingers = append(pingers, mem)
	} else {
		store, err := storage.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.StorageTimeout)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatalf("storage indexes: %v", err)
		}
		boards, users = store, store
		pingers = append(pingers, store)
		closers = append(closers, store.Close)
	}

	var joinLimiter api.RateLimiter = api.NewMemoryRateLimiter()
	if cfg.RedisConn != "" {
		rc := redis.NewClient(redisOptions(cfg.RedisConn))
		boards = storage.NewCache(boards, rc, cfg.BoardCacheTTL)
		joinLimiter = api.NewRedisRateLimiter(rc, logger)
		closers = append(closers, func(context.Context) error { return rc.Close() })
	} else {
		logger.Info("REDIS_CONNECTION_STRING not set; board cache disabled, join limiter is per instance")
	}

	var recorder domain.ActivityRecorder = domain.NoopRecorder
	if cfg.ActivityConn != "" {
		sender, err := activity.NewQueueSender(cfg.ActivityConn, cfg.ActivityQueue)
		if err != nil {
			log.Fatalf("activity queue: %v", err)
		}
		dispatcher := activity.NewDispatcher(sender, activity.Config{
			Workers:        cfg.ActivityWorkers,
			Buffer:         cfg.ActivityBuffer,
			HandoffTimeout: cfg.ActivityHandoffTimeout,
		}, logger)
		recorder = dispatcher
		// Drain before the stores close.
		closers = append([]func(context.Context) error{dispatcher.Close}, closers...)
	}

	hasher := domain.NewHasher(bcrypt.DefaultCost)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))
	e.Use(middleware.Recover())
	e.Use(api.GzipRequestMiddleware())
	e.Use(api.RequestMetrics(logger))
	e.Use(echoprometheus.NewMiddleware("workhub"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, api.Deps{
		Boards:      domain.NewBoardService(boards, users, hasher, recorder, logger),
		Tasks:       domain.NewTaskService(boards, recorder, logger),
		Users:       domain.NewUserService(users, hasher, logger),
		Auth:        api.NewAuth(cfg.JWTSecret, cfg.TokenTTL),
		JoinLimiter: joinLimiter,
		JoinLimit:   cfg.JoinLimit,
		JoinWindow:  cfg.JoinWindow,
		Health:      pingers,
		Logger:      logger,
	})

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(shutdownCtx); err != nil {
			logger.Errorf("close: %v", err)
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("tracer shutdown: %v", err)
	}
}
