// Package postgres implements the domain storage interfaces on PostgreSQL.
package postgres

import (
	"context"

	"github.com/fiolab/fio-fetcher/fetcher"
	"github.com/fiolab/fio-fetcher/pkg/db"
)

type Storage struct {
	db *db.DB
}

func New(db *db.DB) *Storage {
	return &Storage{
		db: db,
	}
}

// WithinTransaction runs f against a transactional view of the storage;
// rollback on error covers everything f did.
func (s *Storage) WithinTransaction(ctx context.Context, f func(ctx context.Context, tx fetcher.Storage) error) error {
	return s.db.RunInTransaction(ctx, func(ctx context.Context, txDB *db.DB) error {
		return f(ctx, &Storage{db: txDB})
	})
}
