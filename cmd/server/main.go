package main

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/api"
	v1 "github.com/classbank/classbank/internal/api/v1"
	"github.com/classbank/classbank/internal/cache"
	"github.com/classbank/classbank/internal/config"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	"github.com/classbank/classbank/internal/repository"
	"github.com/classbank/classbank/internal/service"
	"github.com/classbank/classbank/internal/tenant"
	"github.com/classbank/classbank/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// Tenant guard
			tenant.NewGuard,

			// Repositories
			repository.NewLedgerRepository,
			repository.NewPolicyRepository,
			repository.NewEnrollmentRepository,
			repository.NewClaimRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewLedgerService,
			service.NewPolicyService,
			service.NewEnrollmentService,
			service.NewClaimService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	ledgerService service.LedgerService,
	policyService service.PolicyService,
	enrollmentService service.EnrollmentService,
	claimService service.ClaimService,
) api.Handlers {
	return api.Handlers{
		Ledger:     v1.NewLedgerHandler(ledgerService, logger),
		Policy:     v1.NewPolicyHandler(policyService, logger),
		Enrollment: v1.NewEnrollmentHandler(enrollmentService, logger),
		Claim:      v1.NewClaimHandler(claimService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
