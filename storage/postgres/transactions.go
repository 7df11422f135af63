package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/fiolab/fio-fetcher/fetcher"
	"github.com/fiolab/fio-fetcher/pkg/db"
)

var transactionColumns = []string{
	"fio_id",
	"date",
	"amount",
	"currency",
	"counter_account",
	"counter_account_name",
	"bank_code",
	"bank_name",
	"bic",
	"constant_symbol",
	"variable_symbol",
	"specific_symbol",
	"user_identification",
	"recipient_message",
	"type",
	"executor",
	"specification",
	"comment",
	"instruction_id",
	"payer_reference",
}

func (s *Storage) CreateTransaction(ctx context.Context, tx fetcher.Transaction) error {
	query := sq.
		Insert("transactions").
		Columns(transactionColumns...).
		Values(
			tx.FioID,
			tx.Date,
			tx.Amount,
			tx.Currency,
			tx.CounterAccount,
			tx.CounterAccountName,
			tx.BankCode,
			tx.BankName,
			tx.BIC,
			tx.ConstantSymbol,
			tx.VariableSymbol,
			tx.SpecificSymbol,
			tx.UserIdentification,
			tx.RecipientMessage,
			tx.Type,
			tx.Executor,
			tx.Specification,
			tx.Comment,
			tx.InstructionID,
			tx.PayerReference,
		)

	if err := s.db.Insert(ctx, query, nil); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// TransactionExists checks the natural key; it's the whole idempotence story.
func (s *Storage) TransactionExists(ctx context.Context, fioID string) (bool, error) {
	query := `select id from transactions where fio_id = $1;`

	var txID int64
	err := s.db.RawQuery(ctx, db.ScanOnce(&txID), query, fioID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("db select: %w", err)
	}

	return true, nil
}

// TransactionFilter narrows listing and counting. Zero values mean no
// constraint; Limit 0 means no page limit.
type TransactionFilter struct {
	FioID              string
	VariableSymbol     string
	SpecificSymbol     string
	ConstantSymbol     string
	CounterAccount     string
	CounterAccountName string
	BankCode           string
	BankName           string
	Executor           string
	Offset             uint64
	Limit              uint64
}

func (f TransactionFilter) apply(query sq.SelectBuilder) sq.SelectBuilder {
	eq := sq.Eq{}
	if f.FioID != "" {
		eq["fio_id"] = f.FioID
	}
	if f.VariableSymbol != "" {
		eq["variable_symbol"] = f.VariableSymbol
	}
	if f.SpecificSymbol != "" {
		eq["specific_symbol"] = f.SpecificSymbol
	}
	if f.ConstantSymbol != "" {
		eq["constant_symbol"] = f.ConstantSymbol
	}
	if f.CounterAccount != "" {
		eq["counter_account"] = f.CounterAccount
	}
	if f.CounterAccountName != "" {
		eq["counter_account_name"] = f.CounterAccountName
	}
	if f.BankCode != "" {
		eq["bank_code"] = f.BankCode
	}
	if f.BankName != "" {
		eq["bank_name"] = f.BankName
	}
	if f.Executor != "" {
		eq["executor"] = f.Executor
	}

	if len(eq) > 0 {
		query = query.Where(eq)
	}

	return query
}

func (s *Storage) ListTransactions(ctx context.Context, f TransactionFilter) ([]fetcher.Transaction, error) {
	query := sq.
		Select(append([]string{"id"}, transactionColumns...)...).
		From("transactions").
		OrderBy("date desc", "id desc")

	query = f.apply(query)
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var txs []*fetcher.Transaction
	err := s.db.Select(ctx, query, db.ScanAll(&txs, func(tx *fetcher.Transaction) db.ScanArgs {
		return db.ScanArgs{
			&tx.ID,
			&tx.FioID,
			&tx.Date,
			&tx.Amount,
			&tx.Currency,
			&tx.CounterAccount,
			&tx.CounterAccountName,
			&tx.BankCode,
			&tx.BankName,
			&tx.BIC,
			&tx.ConstantSymbol,
			&tx.VariableSymbol,
			&tx.SpecificSymbol,
			&tx.UserIdentification,
			&tx.RecipientMessage,
			&tx.Type,
			&tx.Executor,
			&tx.Specification,
			&tx.Comment,
			&tx.InstructionID,
			&tx.PayerReference,
		}
	}))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("db select: %w", err)
	}

	out := make([]fetcher.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, *tx)
	}

	return out, nil
}

func (s *Storage) CountTransactions(ctx context.Context, f TransactionFilter) (int, error) {
	query := f.apply(sq.Select("count(*)").From("transactions"))

	var count int
	if err := s.db.Select(ctx, query, db.ScanOnce(&count)); err != nil {
		return 0, fmt.Errorf("db select: %w", err)
	}

	return count, nil
}

// DeleteAllTransactions wipes the table and returns the removed count.
func (s *Storage) DeleteAllTransactions(ctx context.Context) (int64, error) {
	count, err := s.db.Delete(ctx, sq.Delete("transactions"))
	if err != nil {
		return 0, fmt.Errorf("db delete: %w", err)
	}

	return count, nil
}
