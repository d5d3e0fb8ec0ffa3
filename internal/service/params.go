package service

import (
	"github.com/classbank/classbank/internal/config"
	"github.com/classbank/classbank/internal/domain/claim"
	"github.com/classbank/classbank/internal/domain/enrollment"
	"github.com/classbank/classbank/internal/domain/ledger"
	"github.com/classbank/classbank/internal/domain/policy"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	"github.com/classbank/classbank/internal/tenant"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Guard  *tenant.Guard

	// Repositories
	LedgerRepo     ledger.Repository
	PolicyRepo     policy.Repository
	EnrollmentRepo enrollment.Repository
	ClaimRepo      claim.Repository
}

func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	guard *tenant.Guard,
	ledgerRepo ledger.Repository,
	policyRepo policy.Repository,
	enrollmentRepo enrollment.Repository,
	claimRepo claim.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:         logger,
		Config:         config,
		DB:             db,
		Guard:          guard,
		LedgerRepo:     ledgerRepo,
		PolicyRepo:     policyRepo,
		EnrollmentRepo: enrollmentRepo,
		ClaimRepo:      claimRepo,
	}
}
