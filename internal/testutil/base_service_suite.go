package testutil

import (
	"context"
	"time"

	"github.com/classbank/classbank/internal/config"
	"github.com/classbank/classbank/internal/domain/claim"
	"github.com/classbank/classbank/internal/domain/enrollment"
	"github.com/classbank/classbank/internal/domain/ledger"
	"github.com/classbank/classbank/internal/domain/policy"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	"github.com/classbank/classbank/internal/tenant"
	"github.com/classbank/classbank/internal/types"
	"github.com/classbank/classbank/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	LedgerRepo     ledger.Repository
	PolicyRepo     policy.Repository
	EnrollmentRepo enrollment.Repository
	ClaimRepo      claim.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     postgres.IClient
	logger *logger.Logger
	config *config.Configuration
	guard  *tenant.Guard
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
	}
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
	s.guard = tenant.NewGuard(s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.db = NewMockPostgresClient(s.logger)
	s.stores = Stores{
		LedgerRepo:     NewInMemoryLedgerStore(),
		PolicyRepo:     NewInMemoryPolicyStore(),
		EnrollmentRepo: NewInMemoryEnrollmentStore(),
		ClaimRepo:      NewInMemoryClaimStore(),
	}
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetGuard() *tenant.Guard {
	return s.guard
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
