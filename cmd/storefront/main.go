package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/storevia/storefront/internal/gateway"
	"github.com/storevia/storefront/internal/localstate"
	"github.com/storevia/storefront/internal/poller"
	"github.com/storevia/storefront/internal/session"
	"github.com/storevia/storefront/internal/store"
	"github.com/storevia/storefront/internal/web"
)

type Config struct {
	HTTPPort        string
	CartAPIBaseURL  string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CartAPIBaseURL:  getEnv("CART_API_BASE_URL", "http://localhost:9000/api"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{}

	ctx := context.Background()

	// Local persisted state: Redis when configured, in-process otherwise.
	var state localstate.Store
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		log.Infof("Connected to Redis at %s", cfg.RedisAddr)
		state = localstate.NewRedisStore(redisClient)
	} else {
		log.Info("REDIS_ADDR not set, using in-memory local state")
		state = localstate.NewMemoryStore()
	}

	remote := gateway.NewHTTPGateway(cfg.CartAPIBaseURL, cfg.RequestTimeout, log)
	cartStores := store.NewRegistry(remote, session.ContextProvider{}, state, log)
	cartHandler := web.NewCartHandler(cartStores, cfg.RequestTimeout, log)

	// Order-completed consumer resets the badge after a purchase lands.
	pollerCtx, cancelPoller := context.WithCancel(ctx)
	defer cancelPoller()
	if cfg.KafkaBrokers != "" {
		p := poller.NewPoller(state, log, strings.Split(cfg.KafkaBrokers, ",")...)
		defer p.Close()
		go p.Run(pollerCtx)
		log.Infof("Order-completed poller running against %s", cfg.KafkaBrokers)
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(web.RequestIDMiddleware)
	r.Use(session.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/select-all", cartHandler.SelectAll)
			r.Delete("/selected", cartHandler.RemoveSelected)
			r.Post("/promo", cartHandler.ApplyPromo)
			r.Route("/lines/{line_id}", func(r chi.Router) {
				r.Post("/toggle", cartHandler.ToggleSelect)
				r.Patch("/", cartHandler.ChangeQuantity)
				r.Delete("/", cartHandler.RemoveLine)
			})
		})
		r.Post("/checkout", cartHandler.BeginCheckout)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Storefront listening on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	cancelPoller()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Forced shutdown: %v", err)
	}
	log.Info("Storefront stopped")
}
