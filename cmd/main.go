package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/publica-app/publica/internal/cache"
	"github.com/publica-app/publica/internal/config"
	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/internal/events"
	"github.com/publica-app/publica/internal/handler"
	"github.com/publica-app/publica/internal/metrics"
	"github.com/publica-app/publica/internal/middleware"
	"github.com/publica-app/publica/internal/repository"
	"github.com/publica-app/publica/internal/service"
	"github.com/publica-app/publica/pkg/database"
	pkglog "github.com/publica-app/publica/pkg/log"
	"github.com/publica-app/publica/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		ServiceName: "publica",
	})
	logger := pkglog.L()

	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db,
		&domain.AuthorModel{},
		&domain.GroupModel{},
		&domain.PostModel{},
		&domain.CommentModel{},
		&domain.FollowModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	postRepo := repository.NewGormPostRepository(db)
	groupRepo := repository.NewGormGroupRepository(db)
	authorRepo := repository.NewGormAuthorRepository(db)
	commentRepo := repository.NewGormCommentRepository(db)
	followRepo := repository.NewGormFollowRepository(db)

	var (
		listingCache cache.ListingCache
		counterStore cache.CounterStore
	)
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		listingCache = redisCache
		counterStore = redisCache
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis cache enabled")
	} else {
		logger.Info().Msg("cache disabled, listings served from database")
	}

	store, err := newStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Events.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info().Strs("brokers", cfg.Events.Brokers).Str("topic", cfg.Events.Topic).Msg("kafka publisher enabled")
	}

	m := metrics.New()

	postService := service.NewPostService(postRepo, groupRepo, authorRepo, commentRepo, service.PostServiceOptions{
		ListingCache: listingCache,
		CacheTTL:     time.Duration(cfg.Cache.TTL) * time.Second,
		Store:        store,
		Publisher:    publisher,
		Metrics:      m,
		PageSize:     cfg.Posts.PageSize,
	})
	followService := service.NewFollowService(followRepo, authorRepo, counterStore,
		time.Duration(cfg.Cache.CounterTTL)*time.Second)

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)
	h := handler.NewHandler(postService, followService, authMiddleware, m)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(pkglog.GinMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if cfg.Storage.Backend == "local" {
		router.Static(cfg.Storage.Local.PublicURL, cfg.Storage.Local.BasePath)
	}

	h.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Str("address", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "local":
		return storage.NewLocalStorage(cfg.Storage.Local)
	case "s3":
		return storage.NewS3Storage(context.Background(), cfg.Storage.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
