// Package matching reconciles stored bank transactions against uploaded
// expected-payment rows identified by Czech banking symbols (VS/SS/KS).
package matching

import (
	"strings"
	"time"

	"github.com/fiolab/fio-fetcher/fetcher"
)

// Row is one uploaded expected payment. RawRow keeps the original uploaded
// record for display and audit; it takes no part in matching.
type Row struct {
	ID             int64
	VariableSymbol *string
	SpecificSymbol *string
	ConstantSymbol *string
	RawRow         *string
	CreatedAt      time.Time
}

// Stats summarizes one reconciliation pass.
type Stats struct {
	TotalRows           int `json:"total_matching_rows"`
	MatchedTransactions int `json:"matched_transactions"`
	TotalTransactions   int `json:"total_transactions"`
}

// Normalize canonicalizes a raw banking symbol for comparison. Blank values
// and the usual spreadsheet placeholders ("-", "null", "undefined", "n/a")
// collapse to the empty string so both sides of a comparison are symmetric.
func Normalize(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "-" {
		return ""
	}

	switch strings.ToLower(trimmed) {
	case "null", "undefined", "n/a":
		return ""
	}

	return trimmed
}

// NormalizePtr is Normalize for nullable columns.
func NormalizePtr(value *string) string {
	if value == nil {
		return ""
	}
	return Normalize(*value)
}

// MatchedIDs returns ids of transactions satisfied by at least one row.
//
// A row with an empty normalized VS or SS is skipped entirely: an
// under-specified expectation never matches. A transaction matches a row
// when its normalized VS and SS both equal the row's, and, only if the row
// carries a non-empty normalized KS, its normalized KS equals that too.
// An empty transaction KS cannot satisfy a row that specifies one.
//
// Linear in rows*transactions, which is fine for the expected hundreds of
// each; callers outgrowing that should pre-index transactions by
// normalized VS first.
func MatchedIDs(txs []fetcher.Transaction, rows []Row) map[int64]struct{} {
	matched := make(map[int64]struct{})

	for _, row := range rows {
		rowVS := NormalizePtr(row.VariableSymbol)
		rowSS := NormalizePtr(row.SpecificSymbol)
		if rowVS == "" || rowSS == "" {
			continue
		}
		rowKS := NormalizePtr(row.ConstantSymbol)

		for _, tx := range txs {
			if NormalizePtr(tx.VariableSymbol) != rowVS {
				continue
			}
			if NormalizePtr(tx.SpecificSymbol) != rowSS {
				continue
			}
			if rowKS != "" && NormalizePtr(tx.ConstantSymbol) != rowKS {
				continue
			}
			matched[tx.ID] = struct{}{}
		}
	}

	return matched
}

// ComputeStats runs the matcher and counts the result.
func ComputeStats(txs []fetcher.Transaction, rows []Row) Stats {
	return Stats{
		TotalRows:           len(rows),
		MatchedTransactions: len(MatchedIDs(txs, rows)),
		TotalTransactions:   len(txs),
	}
}
