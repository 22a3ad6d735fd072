package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/plazita/internal/observability/logger"
)

type Store struct{ pool *pgxpool.Pool }

// Tuning opcional desde config.Storage.Postgres.
type Tuning struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

func New(ctx context.Context, dsn string, t Tuning) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if t.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(t.MaxOpenConns)
	}
	// Mapear MaxIdleConns → MinConns (pgxpool)
	if t.MaxIdleConns > 0 {
		pcfg.MinConns = int32(t.MaxIdleConns)
	}
	if t.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(t.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	// Non-blocking startup: ping best-effort para no impedir el arranque
	// si la DB está temporalmente caída.
	if err := pool.Ping(ctx); err != nil {
		logger.Named("pg").Warn("startup ping failed", logger.Err(err))
	} else {
		logger.Named("pg").Info("pool ready", logger.Int("max_conns", int(pcfg.MaxConns)))
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Pool expone el pool interno para usos avanzados (migraciones/metrics).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}
