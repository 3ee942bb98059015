package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func MustOpen(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect fail")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping fail")
	}
	return pool
}

const schema = `
CREATE TABLE IF NOT EXISTS payment_attempts (
	id          TEXT PRIMARY KEY,
	status      TEXT        NOT NULL DEFAULT 'pending',
	amount      BIGINT      NOT NULL DEFAULT 0,
	currency    TEXT        NOT NULL DEFAULT '',
	payer_name  TEXT        NOT NULL DEFAULT '',
	payer_email TEXT        NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the attempts table if it is missing
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
