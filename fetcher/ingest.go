package fetcher

import (
	"context"
	"fmt"
)

// progressFunc receives coarse run progress; the final call always carries
// current == total.
type progressFunc func(current, total int, message string)

const (
	savingReportEvery   = 5
	skippingReportEvery = 10
)

// ingest performs one fetch: pull the statement window, map it and insert
// the records not yet stored, as a single database transaction. Returns the
// count of newly persisted transactions.
func (s *Service) ingest(ctx context.Context, report progressFunc) (int, error) {
	var (
		txs []Transaction
		err error
	)

	if !s.source.Configured() {
		report(0, 0, "no API token configured, loading example statement")
		txs, err = s.source.Example()
		if err != nil {
			return 0, fmt.Errorf("load example statement: %w", err)
		}
	} else {
		to := s.now()
		from := to.AddDate(0, 0, -s.cfg.LookbackDays)

		report(0, 0, "connecting to statement API")
		txs, err = s.source.Statement(ctx, from, to)
		if err != nil {
			report(0, 0, "error: "+s.source.Sanitize(err.Error()))
			return 0, fmt.Errorf("fetch statement: %w", err)
		}
	}

	total := len(txs)
	report(0, total, fmt.Sprintf("fetched %d transaction(s), saving", total))

	var saved int
	err = s.storage.WithinTransaction(ctx, func(ctx context.Context, tx Storage) error {
		for i, candidate := range txs {
			exists, err := tx.TransactionExists(ctx, candidate.FioID)
			if err != nil {
				return fmt.Errorf("check transaction existence: %w", err)
			}

			if exists {
				if i%skippingReportEvery == 0 {
					report(i+1, total, "processing")
				}
				continue
			}

			if err := tx.CreateTransaction(ctx, candidate); err != nil {
				return fmt.Errorf("insert transaction %s: %w", candidate.FioID, err)
			}
			saved++

			if i%savingReportEvery == 0 {
				report(i+1, total, "saving")
			}
		}

		return nil
	})
	if err != nil {
		report(total, total, "error saving to database")
		return 0, err
	}

	report(total, total, fmt.Sprintf("done, saved %d new transaction(s)", saved))

	return saved, nil
}
