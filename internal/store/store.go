package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// Querier is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the candidate store: the only component that touches the
// profiles, matches, precomputed_scores, daily_picks, user_interactions and
// algorithm_metrics tables.
type Store struct {
	db     Querier
	logger *logrus.Logger
}

func New(db Querier, logger *logrus.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}
