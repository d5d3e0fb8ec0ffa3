package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/postgres"
	"github.com/jmoiron/sqlx"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient is a mock implementation of postgres client for
// testing. Services under test run against in-memory repositories, so
// WithTx simply executes the function; raw SQL calls are not supported.
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (c *MockPostgresClient) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return nil, fmt.Errorf("mock postgres client does not execute SQL")
}

func (c *MockPostgresClient) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return nil, fmt.Errorf("mock postgres client does not execute SQL")
}

func (c *MockPostgresClient) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("mock postgres client does not execute SQL")
}

func (c *MockPostgresClient) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("mock postgres client does not execute SQL")
}

func (c *MockPostgresClient) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, fmt.Errorf("mock postgres client does not execute SQL")
}
