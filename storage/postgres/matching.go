package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/fiolab/fio-fetcher/matching"
	"github.com/fiolab/fio-fetcher/pkg/db"
)

// ReplaceMatchingRows swaps the whole expectation set for the given one
// atomically. An upload never merges with what was there before.
func (s *Storage) ReplaceMatchingRows(ctx context.Context, rows []matching.Row) error {
	err := s.db.RunInTransaction(ctx, func(ctx context.Context, txDB *db.DB) error {
		if _, err := txDB.Delete(ctx, sq.Delete("matching_rows")); err != nil {
			return fmt.Errorf("clear matching rows: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}

		now := time.Now().UTC()
		query := sq.
			Insert("matching_rows").
			Columns("variable_symbol", "specific_symbol", "constant_symbol", "raw_row", "created_at")

		for _, row := range rows {
			query = query.Values(
				row.VariableSymbol,
				row.SpecificSymbol,
				row.ConstantSymbol,
				row.RawRow,
				now,
			)
		}

		if err := txDB.Insert(ctx, query, nil); err != nil {
			return fmt.Errorf("insert matching rows: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("replace matching rows: %w", err)
	}

	return nil
}

func (s *Storage) ListMatchingRows(ctx context.Context) ([]matching.Row, error) {
	query := sq.
		Select("id", "variable_symbol", "specific_symbol", "constant_symbol", "raw_row", "created_at").
		From("matching_rows").
		OrderBy("id asc")

	var rows []*matching.Row
	err := s.db.Select(ctx, query, db.ScanAll(&rows, func(row *matching.Row) db.ScanArgs {
		return db.ScanArgs{
			&row.ID,
			&row.VariableSymbol,
			&row.SpecificSymbol,
			&row.ConstantSymbol,
			&row.RawRow,
			&row.CreatedAt,
		}
	}))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("db select: %w", err)
	}

	out := make([]matching.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}

	return out, nil
}

func (s *Storage) DeleteMatchingRows(ctx context.Context) (int64, error) {
	count, err := s.db.Delete(ctx, sq.Delete("matching_rows"))
	if err != nil {
		return 0, fmt.Errorf("db delete: %w", err)
	}

	return count, nil
}
