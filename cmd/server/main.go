package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/laurelqa/laurel/config"
	bugreportrepo "github.com/laurelqa/laurel/internal/repositories/bugreport"
	checklistrepo "github.com/laurelqa/laurel/internal/repositories/checklist"
	featurerepo "github.com/laurelqa/laurel/internal/repositories/feature"
	featurelinkrepo "github.com/laurelqa/laurel/internal/repositories/featurelink"
	projectrepo "github.com/laurelqa/laurel/internal/repositories/project"
	releaserepo "github.com/laurelqa/laurel/internal/repositories/release"
	snapshotrepo "github.com/laurelqa/laurel/internal/repositories/snapshot"
	testcaserepo "github.com/laurelqa/laurel/internal/repositories/testcase"
	testrunrepo "github.com/laurelqa/laurel/internal/repositories/testrun"
	testsuiterepo "github.com/laurelqa/laurel/internal/repositories/testsuite"
	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/coverage"
	"github.com/laurelqa/laurel/pkg/database"
	"github.com/laurelqa/laurel/pkg/events"
	"github.com/laurelqa/laurel/pkg/graph"
	"github.com/laurelqa/laurel/pkg/kafka"
	"github.com/laurelqa/laurel/pkg/results"
	bugreportroutes "github.com/laurelqa/laurel/pkg/routes/bugreport"
	checklistroutes "github.com/laurelqa/laurel/pkg/routes/checklist"
	coverageroutes "github.com/laurelqa/laurel/pkg/routes/coverage"
	featureroutes "github.com/laurelqa/laurel/pkg/routes/feature"
	"github.com/laurelqa/laurel/pkg/routes/health"
	projectroutes "github.com/laurelqa/laurel/pkg/routes/project"
	releaseroutes "github.com/laurelqa/laurel/pkg/routes/release"
	testcaseroutes "github.com/laurelqa/laurel/pkg/routes/testcase"
	testrunroutes "github.com/laurelqa/laurel/pkg/routes/testrun"
	testsuiteroutes "github.com/laurelqa/laurel/pkg/routes/testsuite"
	"github.com/laurelqa/laurel/pkg/tracing"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName: cfg.AppName,
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.TracingOTLPEndpoint,
		Protocol:    cfg.TracingOTLPProtocol,
		Insecure:    cfg.TracingOTLPInsecure,
		Timeout:     cfg.TracingTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Failed to shut down tracing", zap.Error(err))
		}
	}()

	db, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(cfg, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	projects := projectrepo.NewRepository(db, logger)
	features := featurerepo.NewRepository(db, logger)
	suites := testsuiterepo.NewRepository(db, logger)
	cases := testcaserepo.NewRepository(db, logger)
	links := featurelinkrepo.NewRepository(db, logger)
	snapshots := snapshotrepo.NewRepository(db, logger)
	runs := testrunrepo.NewRepository(db, logger)
	bugs := bugreportrepo.NewRepository(db, logger)
	checklists := checklistrepo.NewRepository(db, logger)
	releases := releaserepo.NewRepository(db, logger)

	// Optional graph projection
	var projector *graph.Projector
	var graphPinger health.GraphPinger
	if cfg.GraphDBEnabled {
		client, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create graph client: %w", err)
		}
		defer client.Close(context.Background())
		projector = graph.NewProjector(client, logger)
		graphPinger = client
		logger.Info("Graph projection enabled", zap.String("host", cfg.GraphDBHost))
	}

	// Optional event emission
	var emitter *events.Emitter
	if cfg.KafkaEventsEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	var linkObservers []coverage.LinkObserver
	var snapshotObservers []coverage.SnapshotObserver
	if emitter != nil {
		linkObservers = append(linkObservers, emitter)
		snapshotObservers = append(snapshotObservers, emitter)
	}
	if projector != nil {
		linkObservers = append(linkObservers, projector)
	}

	// Coverage engine
	aggregator := coverage.NewAggregator(logger, features, cases, links)
	linker := coverage.NewLinker(logger, features, cases, links, linkObservers...)
	recorder := coverage.NewRecorder(logger, aggregator, snapshots, snapshotObservers...)

	// Runner result ingestion
	if cfg.KafkaConsumerEnabled {
		var notifier results.RunNotifier
		if emitter != nil {
			notifier = emitter
		}
		processor := results.NewProcessor(logger, runs, cases, notifier)
		consumer := kafka.NewConsumer(cfg, logger, processor.Process)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start results consumer: %w", err)
		}
		defer func() {
			if err := consumer.Stop(); err != nil {
				logger.Warn("Failed to stop results consumer", zap.Error(err))
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(db, graphPinger, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1", appcontext.WorkspaceMiddleware())
	projectGroup := api.Group("/projects")
	featureGroup := api.Group("/features")
	suiteGroup := api.Group("/suites")
	caseGroup := api.Group("/cases")
	runGroup := api.Group("/runs")
	bugGroup := api.Group("/bugs")
	checklistGroup := api.Group("/checklists")
	releaseGroup := api.Group("/releases")

	projectroutes.NewHandler(projects).Register(projectGroup)
	featureroutes.NewHandler(features, links, cases, suites, linkObservers...).Register(projectGroup, featureGroup)
	testsuiteroutes.NewHandler(suites).Register(projectGroup, suiteGroup)
	testcaseroutes.NewHandler(cases).Register(projectGroup, suiteGroup, caseGroup)
	testrunroutes.NewHandler(runs).Register(projectGroup, runGroup)
	bugreportroutes.NewHandler(bugs).Register(projectGroup, bugGroup)
	checklistroutes.NewHandler(checklists).Register(projectGroup, checklistGroup)
	releaseroutes.NewHandler(releases).Register(projectGroup, releaseGroup)

	var uncovered coverageroutes.UncoveredSource
	if projector != nil {
		uncovered = projector
	}
	coverageroutes.NewHandler(
		aggregator, linker, recorder, features, snapshots, uncovered,
		cfg.SnapshotHistoryDefaultLimit, cfg.SnapshotHistoryMaxLimit,
	).Register(projectGroup)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("Starting server", zap.String("addr", addr))
		checker.SetReady(true)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
