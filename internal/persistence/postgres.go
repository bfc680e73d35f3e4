package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/config"
	"github.com/coralises/guildflow/internal/domain"
)

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required for the postgres store driver")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return &Postgres{Pool: pool}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool not configured")
	}
	return p.Pool.Ping(ctx)
}

// PostgresStore keeps the document as a single JSONB row, so Save is the
// atomic swap the Driver contract requires.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a postgres-backed driver.
func NewPostgresStore(pg *Postgres, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pg.Pool, logger: logger}
}

// EnsureSchema creates the document table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS engine_document (
            id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
            doc JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure document table: %w", err)
	}
	return nil
}

// Load reads the document row, initializing the empty schema on first run.
func (s *PostgresStore) Load(ctx context.Context) (*domain.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM engine_document WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			doc := domain.NewDocument()
			if err := s.Save(ctx, doc); err != nil {
				return nil, err
			}
			s.logger.Info("initialized empty document row")
			return doc, nil
		}
		return nil, fmt.Errorf("read document row: %w", err)
	}

	doc := domain.NewDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode document row: %w", err)
	}
	return doc, nil
}

// Save upserts the document row.
func (s *PostgresStore) Save(ctx context.Context, doc *domain.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	const query = `
        INSERT INTO engine_document (id, doc, updated_at) VALUES (1, $1, NOW())
        ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`
	if _, err := s.pool.Exec(ctx, query, raw); err != nil {
		return fmt.Errorf("write document row: %w", err)
	}
	return nil
}
