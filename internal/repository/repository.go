// Package repository is the Postgres record store. It satisfies the same
// contracts as storage.MemoryStore.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

const uniqueViolation = "23505"

// Repository wraps all SQL used by the API, the worker and the CLI.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// mapError turns driver errors into model sentinels.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, model.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// requireRow reports ErrNotFound when an UPDATE touched nothing.
func requireRow(op string, tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	return nil
}
