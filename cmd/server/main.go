package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	accounthandler "docregistry/internal/account/handler"
	accountmetrics "docregistry/internal/account/metrics"
	accountservice "docregistry/internal/account/service"
	accountstore "docregistry/internal/account/store"
	dochandler "docregistry/internal/document/handler"
	docmetrics "docregistry/internal/document/metrics"
	docservice "docregistry/internal/document/service"
	docstore "docregistry/internal/document/store"
	jwttoken "docregistry/internal/jwt_token"
	"docregistry/internal/pinning"
	"docregistry/internal/platform/config"
	"docregistry/internal/platform/database"
	"docregistry/internal/platform/health"
	"docregistry/internal/platform/kafka"
	"docregistry/internal/platform/kafka/producer"
	"docregistry/internal/platform/logger"
	"docregistry/internal/platform/redis"
	httptransport "docregistry/internal/transport/http"
	verifycache "docregistry/internal/verification/cache"
	verifyhandler "docregistry/internal/verification/handler"
	verifymetrics "docregistry/internal/verification/metrics"
	verifyservice "docregistry/internal/verification/service"
	"docregistry/pkg/platform/audit"
	auditmetrics "docregistry/pkg/platform/audit/metrics"
	"docregistry/pkg/platform/audit/publisher"
	"docregistry/pkg/platform/middleware/request"
	"docregistry/pkg/platform/tracer"
)

const (
	auditBufferSize    = 1024
	auditTopicParts    = 3
	redisStatsInterval = 15 * time.Second
	producerFlushWait  = 5 * time.Second
)

// main wires dependencies and runs the HTTP server until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	log.Info("initializing docregistry",
		"addr", cfg.Server.Addr,
		"version", health.Version,
	)
	reg := prometheus.DefaultRegisterer

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close() //nolint:errcheck // shutdown path
	if cfg.Database.MigrateOnStart {
		if err := migrateUp(cfg.Database.URL, log); err != nil {
			return err
		}
	}

	redisClient, err := redis.New(ctx, cfg.Redis, reg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // shutdown path
	}

	// Without Kafka, audit events are only written to the log by audit.Logger.
	var auditEmitter audit.Emitter
	kafkaProducer, err := buildKafkaProducer(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close(producerFlushWait)
		auditPublisher := publisher.NewPublisher(kafka.NewAuditSink(kafkaProducer, cfg.Kafka.AuditTopic),
			publisher.WithAsyncBuffer(auditBufferSize),
			publisher.WithPublisherLogger(log),
			publisher.WithMetrics(auditmetrics.New(reg)),
		)
		defer auditPublisher.Close()
		auditEmitter = auditPublisher
	}

	tr := tracer.NewOTel()
	accounts := accountstore.NewPostgres(pool.DB())
	documents := docstore.NewPostgres(pool.DB())
	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, jwttoken.DefaultTokenTTL)

	pinClient := pinning.New(pinning.Config{
		URL:          cfg.Pinning.URL,
		APIKey:       cfg.Pinning.APIKey,
		SecretAPIKey: cfg.Pinning.SecretAPIKey,
		Timeout:      cfg.Pinning.Timeout,
		Tracer:       tr,
		Metrics:      pinning.NewMetrics(reg),
		Logger:       log,
	})

	accountSvc := accountservice.New(accounts, tokens,
		accountservice.WithLogger(log),
		accountservice.WithAuditPublisher(auditEmitter),
		accountservice.WithMetrics(accountmetrics.New(reg)),
	)
	documentSvc := docservice.New(documents, pinClient,
		docservice.WithLogger(log),
		docservice.WithAuditPublisher(auditEmitter),
		docservice.WithMetrics(docmetrics.New(reg)),
	)

	var cache verifyservice.Cache = verifycache.Noop{}
	if redisClient != nil {
		cache = verifycache.NewRedis(redisClient.Client, cfg.Redis.VerifyCacheTTL)
	}
	verifySvc := verifyservice.New(documents,
		verifyservice.WithCache(cache),
		verifyservice.WithTracer(tr),
		verifyservice.WithLogger(log),
		verifyservice.WithMetrics(verifymetrics.New(reg)),
	)

	healthHandler := health.New(log)
	healthHandler.RegisterCheck("database", pool.Health)
	healthHandler.RegisterAdvisory("pinning", pinClient.Degraded)
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}
	if kafkaProducer != nil {
		healthHandler.RegisterCheck("kafka", kafkaProducer.Health)
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return err
	}
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger: log,
		Health: healthHandler,
		Public: []httptransport.Routes{
			accounthandler.New(accountSvc, log),
			verifyhandler.New(verifySvc, log),
		},
		Protected: []httptransport.Routes{
			dochandler.New(documentSvc, log),
		},
		TokenValidator: jwttoken.NewJWTServiceAdapter(tokens),
		Metrics:        request.NewMetrics(reg),
		MetricsHandler: promhttp.Handler(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: trustedProxies,
		UploadMaxBytes: cfg.Upload.MaxBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if redisClient != nil {
		g.Go(func() error {
			return redisClient.RunStatsLoop(gctx, redisStatsInterval)
		})
	}
	return g.Wait()
}

func migrateUp(databaseURL string, log *slog.Logger) error {
	m, err := database.NewMigrator(databaseURL, nil, log)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck // migrator holds no pending work
	return m.Up()
}

// buildKafkaProducer connects to the configured brokers and makes sure the audit topic
// exists. It returns nil when no brokers are configured.
func buildKafkaProducer(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (*producer.Producer, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("kafka not configured, audit events written to the log only")
		return nil, nil
	}

	p, err := producer.New(producer.Config{
		Brokers:         cfg.Brokers,
		ClientID:        cfg.ClientID,
		DeliveryTimeout: 10 * time.Second,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := kafka.EnsureTopic(ctx, p.Client(), cfg.AuditTopic, auditTopicParts, 1); err != nil {
		p.Close(producerFlushWait)
		return nil, err
	}
	log.Info("audit events published to kafka", "topic", cfg.AuditTopic)
	return p, nil
}
