package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/resolveiq/internal/api/http"
	"github.com/spec-kit/resolveiq/internal/api/http/handlers"
	"github.com/spec-kit/resolveiq/internal/auth"
	"github.com/spec-kit/resolveiq/internal/config"
	"github.com/spec-kit/resolveiq/internal/embedding"
	"github.com/spec-kit/resolveiq/internal/events"
	"github.com/spec-kit/resolveiq/internal/observability"
	"github.com/spec-kit/resolveiq/internal/persistence"
	"github.com/spec-kit/resolveiq/internal/repository"
	"github.com/spec-kit/resolveiq/internal/scoring"
	"github.com/spec-kit/resolveiq/internal/service"
	"github.com/spec-kit/resolveiq/internal/sla"
	"github.com/spec-kit/resolveiq/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required to serve the API")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	ticketRepo := repository.NewTicketRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	analysisRepo := repository.NewAnalysisRepository(pool)
	policyRepo := repository.NewSLAPolicyRepository(pool)

	var policies sla.PolicyLookup = policyRepo
	if cfg.SLA.PolicyFile != "" {
		static, err := sla.LoadPolicyFile(cfg.SLA.PolicyFile)
		if err != nil {
			logger.Fatal("failed to load sla policy file", zap.Error(err))
		}
		logger.Info("sla policies loaded from file", zap.String("path", cfg.SLA.PolicyFile), zap.Int("policies", static.Len()))
		policies = static
		policyRepo = nil
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	embedder := embedding.FromConfig(cfg.Embedding, redis.Client, logger)
	analyzer := scoring.NewAnalyzer(embedder, cfg.Embedding.Timeout())

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: ticketRepo,
		TeamRepo:   teamRepo,
		StaffRepo:  staffRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	slaService := service.NewSLAService(service.SLADependencies{
		TicketRepo: ticketRepo,
		Policies:   policies,
		Workload:   assignmentService.AgentWorkload,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		SweepBatch: cfg.SLA.SweepBatch,
	})
	analysisService := service.NewAnalysisService(service.AnalysisDependencies{
		TicketRepo:       ticketRepo,
		AnalysisRepo:     analysisRepo,
		Full:             scoring.FullAnalysis{Analyzer: analyzer},
		Quick:            scoring.QuickHeuristic{},
		SLA:              slaService,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
		HistoryLimit:     cfg.Scoring.HistoryLimit,
		FallbackToQuick:  cfg.Scoring.FallbackToQuick,
		CreationStrategy: cfg.Scoring.CreationStrategy,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		DepartmentRepo: departmentRepo,
		Scorer:         analysisService,
		SLA:            slaService,
		Assignment:     assignmentService,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	// A nil PolicyRepo makes the policy table read-only over the API.
	rosterService := service.NewRosterService(service.RosterDependencies{
		DepartmentRepo: departmentRepo,
		TeamRepo:       teamRepo,
		StaffRepo:      staffRepo,
		PolicyRepo:     policyRepo,
	})

	worker.StartNotificationWorker(dispatcher, logger, cfg.Notification, nil)

	sweeper, err := worker.NewSLASweeper(slaService, cfg.SLA.SweepSchedule, time.Minute, logger)
	if err != nil {
		logger.Fatal("failed to schedule sla sweep", zap.Error(err))
	}
	sweeper.Start()

	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), cfg.Auth.Disabled)
	if cfg.Auth.Disabled {
		logger.Warn("authentication disabled; every request runs as the system principal")
	}

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	deps := map[string]handlers.Pinger{"postgres": pg, "redis": nil}
	if redis.Enabled() {
		deps["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, slaService, assignmentService),
		Analysis:       handlers.NewAnalysisHandler(analysisService),
		Roster:         handlers.NewRosterHandler(rosterService, assignmentService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	sweeper.Stop(shutdownCtx)
	_ = app.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
