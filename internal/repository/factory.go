package repository

import (
	"github.com/classbank/classbank/internal/cache"
	"github.com/classbank/classbank/internal/domain/claim"
	"github.com/classbank/classbank/internal/domain/enrollment"
	"github.com/classbank/classbank/internal/domain/ledger"
	"github.com/classbank/classbank/internal/domain/policy"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	postgresRepo "github.com/classbank/classbank/internal/repository/postgres"
)

func NewLedgerRepository(db postgres.IClient, logger *logger.Logger) ledger.Repository {
	return postgresRepo.NewLedgerRepository(db, logger)
}

func NewPolicyRepository(db postgres.IClient, logger *logger.Logger, cache cache.Cache) policy.Repository {
	return postgresRepo.NewPolicyRepository(db, logger, cache)
}

func NewEnrollmentRepository(db postgres.IClient, logger *logger.Logger) enrollment.Repository {
	return postgresRepo.NewEnrollmentRepository(db, logger)
}

func NewClaimRepository(db postgres.IClient, logger *logger.Logger) claim.Repository {
	return postgresRepo.NewClaimRepository(db, logger)
}
