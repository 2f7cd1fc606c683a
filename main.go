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

	"github.com/careercoach/careercoach/backend/go-services/handlers"
	"github.com/careercoach/careercoach/backend/go-services/internal/config"
	"github.com/careercoach/careercoach/backend/go-services/internal/database"
	"github.com/careercoach/careercoach/backend/go-services/internal/oauth"
	"github.com/careercoach/careercoach/backend/go-services/internal/sessions"
	"github.com/careercoach/careercoach/backend/go-services/internal/tokens"
	"github.com/careercoach/careercoach/backend/go-services/internal/users"
	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"github.com/careercoach/careercoach/backend/go-services/pkg/metrics"
	"github.com/careercoach/careercoach/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: env=%s db=%s mongo=%v redis=%v providers=%d",
		cfg.Server.Environment, cfg.Database.Driver, cfg.MongoDB.URI != "", cfg.Redis.Host != "", len(cfg.OAuth.EnabledProviders()))

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	ctx := context.Background()
	var checks []handlers.ReadyCheck

	// Connect to Redis early so the rate limiter can use it when configured
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			rdb = client
			defer func() { _ = rdb.Close() }()
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			checks = append(checks, handlers.ReadyCheck{Name: "redis", Probe: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}})
		}
	}

	issuer := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)

	// Optional global rate limiter, keyed per user for valid bearer tokens and per IP otherwise
	if cfg.RateLimit.Enabled {
		r.Use(middleware.IdentifyBearer(issuer))
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
			logger.Infof("rate limiter enabled (redis, window=%s)", win)
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
			logger.Infof("rate limiter enabled (in-process, rps=%.1f burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	db, err := database.Retry(ctx, cfg.Database.Driver, maxConnectAttempts, time.Second, func(ctx context.Context) (*gorm.DB, error) {
		return database.OpenSQL(ctx, cfg.Database.Driver, cfg.Database.URL, 10*time.Second)
	})
	if err != nil {
		logger.Fatalf("could not connect to the user database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.Driver, cfg.Database.URL); err != nil {
			logger.Fatalf("database migrations failed: %v", err)
		}
		logger.Infof("database migrations applied")
	}

	checks = append(checks, handlers.ReadyCheck{Name: "database", Probe: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}})

	// Session storage: Redis when available, then MongoDB, else process memory
	var store sessions.Repository
	if rdb != nil {
		store = sessions.NewRedisRepository(rdb, "sess:")
		logger.Infof("using Redis for session storage")
	} else if cfg.MongoDB.URI != "" {
		client, err := database.Retry(ctx, "MongoDB", maxConnectAttempts, time.Second, func(ctx context.Context) (*mongo.Client, error) {
			return database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		})
		if err != nil {
			logger.Warnf("could not connect to MongoDB: %v", err)
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			repo := sessions.NewMongoRepository(database.Sessions(client, cfg.MongoDB.Database))
			if err := repo.EnsureIndexes(ctx); err != nil {
				logger.Warnf("could not create session indexes: %v", err)
			}
			store = repo
			checks = append(checks, handlers.ReadyCheck{Name: "mongo", Probe: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			}})
			logger.Infof("using MongoDB for session storage")
		}
	}
	if store == nil {
		if cfg.Server.IsProduction() {
			logger.Warn("no shared session store configured; sessions are kept in process memory")
		}
		store = sessions.NewMemoryRepository()
	}

	userSvc := users.NewService(users.NewGormUserRepository(db), users.WithLinkPolicy(cfg.OAuth.LinkPolicy))
	sessionSvc := sessions.NewService(store, cfg.Session.TTL)
	serializer := sessions.NewSerializer(sessionSvc, userSvc)
	cookie := &handlers.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
		TTL:    sessionSvc.TTL(),
		Codec:  sessions.NewCookieCodec(cfg.Session.Secret),
	}

	registry, err := oauth.NewRegistry(ctx, []config.ProviderConfig{cfg.OAuth.Google, cfg.OAuth.LinkedIn})
	if err != nil {
		logger.Fatalf("failed to initialize OAuth providers: %v", err)
	}
	if len(registry.Enabled()) == 0 {
		logger.Warn("no OAuth provider is configured; only password sign-in is available")
	}

	api := r.Group("/api")
	handlers.NewOAuthHandler(registry, sessionSvc, serializer, userSvc, issuer, cookie, cfg.FrontendURL).Register(api)
	handlers.NewAuthHandler(userSvc, issuer, issuer, sessionSvc, serializer, cookie).Register(api)
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterSystem(r, startTime, checks...)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("starting auth service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// connection attempts per database at startup
const maxConnectAttempts = 5
