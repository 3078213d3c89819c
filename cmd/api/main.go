// api runs the REST API: registration, login, document CRUD and sharing,
// and user lookup.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/api"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/config"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/db"
	dochandler "github.com/7shantanu7/CodeSync-CMPE-281/internal/document/handler"
	docrepo "github.com/7shantanu7/CodeSync-CMPE-281/internal/document/repository"
	docservice "github.com/7shantanu7/CodeSync-CMPE-281/internal/document/service"
	healthhandler "github.com/7shantanu7/CodeSync-CMPE-281/internal/health/handler"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/ratelimit"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/telemetry/otel"
	userhandler "github.com/7shantanu7/CodeSync-CMPE-281/internal/user/handler"
	userrepo "github.com/7shantanu7/CodeSync-CMPE-281/internal/user/repository"
	userservice "github.com/7shantanu7/CodeSync-CMPE-281/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("api: DATABASE_URL is required")
	}
	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "codesync-api", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	tokens, err := security.NewTokenProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	users := userrepo.NewPostgresRepository(database)
	docs := docrepo.NewPostgresRepository(database)

	userH := userhandler.New(userservice.New(users, security.NewHasher(cfg.BcryptCost), tokens), tokens)
	docH := dochandler.New(docservice.New(docs, users))

	limiter := ratelimit.NewLimiter(ratelimit.NewRedisCounter(redisClient), cfg.RateLimitPerMinute, time.Minute)
	health := healthhandler.New("api", database, nil)

	router := api.NewRouter(tokens, limiter, health,
		[]api.PublicRegistrar{userH},
		[]api.ProtectedRegistrar{userH, docH},
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("api: shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api: http shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("api: telemetry shutdown: %v", err)
	}
	log.Println("api: stopped")
}
