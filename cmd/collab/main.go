// collab runs the real-time collaboration server: WebSocket sessions,
// presence, cross-instance edit fan-out, and write-back persistence.
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
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/collab"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/config"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/db"
	docrepo "github.com/7shantanu7/CodeSync-CMPE-281/internal/document/repository"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/fanout"
	healthhandler "github.com/7shantanu7/CodeSync-CMPE-281/internal/health/handler"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/presence"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/telemetry/otel"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("collab: DATABASE_URL is required")
	}
	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "codesync-collab", cfg.OTLPInsecure)
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
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	instanceID := uuid.New().String()
	var bus fanout.Bus
	switch cfg.FanoutDriver {
	case "nats":
		natsBus, err := fanout.NewNATSBus(cfg.NATSURL, "codesync-collab-"+instanceID)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		bus = natsBus
	default:
		bus = fanout.NewRedisBus(redisClient)
	}
	defer bus.Close()

	activity := newActivityProducer(cfg, providers)
	if activity != nil {
		defer activity.Close()
	}

	tokens, err := security.NewTokenProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	service := collab.New(
		instanceID,
		collab.NewRegistry(cfg.EditHistoryLimit),
		collab.NewHub(),
		docrepo.NewPostgresRepository(database),
		presence.NewRedisStore(redisClient, cfg.PresenceTTL()),
		bus,
		activity,
	)
	if err := service.Start(ctx); err != nil {
		log.Fatalf("fanout subscribe: %v", err)
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if idleFor := cfg.IdleTimeoutDuration(); idleFor > 0 {
		go service.RunIdleSweep(sweepCtx, idleFor/2, idleFor)
	}

	wsHandler := collab.NewHandler(tokens, service)
	router := mux.NewRouter()
	router.Handle("/ws", wsHandler)
	router.Handle("/health", healthhandler.New("collab-service", database, func() map[string]interface{} {
		return map[string]interface{}{"connections": wsHandler.ConnectionCount()}
	})).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.CollabAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket writes manage their own deadlines
	}

	go func() {
		log.Printf("collab server listening on %s (instance %s)", cfg.CollabAddr, instanceID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("collab: shutting down...")
	wsHandler.StopAccepting()
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("collab: http shutdown: %v", err)
	}
	stopSweep()
	service.Shutdown(shutdownCtx)
	time.Sleep(producer.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("collab: telemetry shutdown: %v", err)
	}
	log.Println("collab: stopped")
}

// newActivityProducer picks the activity sink: Kafka when brokers are
// configured, else direct Loki push, else OTel logs, else none.
func newActivityProducer(cfg *config.Config, providers *otel.Providers) producer.Producer {
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		p, err := producer.NewKafkaProducer(brokers, cfg.ActivityKafkaTopic)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		if p != nil {
			return p
		}
	}
	if p := producer.NewLokiProducer(cfg.LokiURL); p != nil {
		return p
	}
	if cfg.OTLPEndpoint != "" {
		if p := producer.NewOTelProducer(providers.LoggerProvider); p != nil {
			return p
		}
	}
	return nil
}
