package outbox

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// A single-active relay pins its work to the connection holding the advisory
// lock; otherwise the pool is used directly.

func (r *Relay) begin(ctx context.Context, conn *pgxpool.Conn) (pgx.Tx, error) {
	if conn != nil {
		return conn.BeginTx(ctx, pgx.TxOptions{})
	}
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

func (r *Relay) exec(ctx context.Context, conn *pgxpool.Conn, sql string, args ...any) (pgconn.CommandTag, error) {
	if conn != nil {
		return conn.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *Relay) queryRowScan(ctx context.Context, conn *pgxpool.Conn, sql string, dest any) error {
	if conn != nil {
		return conn.QueryRow(ctx, sql).Scan(dest)
	}
	return r.pool.QueryRow(ctx, sql).Scan(dest)
}
