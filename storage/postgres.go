package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DBTX is the slice of *pgx.Conn the store uses.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// PostgresStore owns exactly one connection for the lifetime of an invocation.
type PostgresStore struct {
	conn DBTX
}

const connectTimeout = 10 * time.Second

func Connect(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.ConnectTimeout = connectTimeout

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &PostgresStore{conn: conn}, nil
}

func NewPostgresStore(conn DBTX) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func queryStrings(ctx context.Context, db DBTX, query string, args ...any) ([]string, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func queryInt64s(ctx context.Context, db DBTX, query string, args ...any) ([]int64, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// queryChanged runs an UPDATE ... RETURNING <changed bool> and folds the
// returned rows into affected/changed counts.
func queryChanged(ctx context.Context, db DBTX, query string, args ...any) (int64, int64, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return 0, 0, err
	}
	flags, err := pgx.CollectRows(rows, pgx.RowTo[bool])
	if err != nil {
		return 0, 0, err
	}

	var changed int64
	for _, f := range flags {
		if f {
			changed++
		}
	}
	return int64(len(flags)), changed, nil
}
