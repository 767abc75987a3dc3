package service

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stubTx is a pgx.Tx for tests whose repositories are mocked.
type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *stubTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}
