package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fiolab/fio-fetcher/fetcher"
	"github.com/fiolab/fio-fetcher/matching"
	"github.com/fiolab/fio-fetcher/storage/postgres"
)

const defaultPageLimit = 100

// transactionOut mirrors the wire shape of the original API.
type transactionOut struct {
	ID                 int64   `json:"id"`
	TransactionID      string  `json:"transaction_id"`
	Date               *string `json:"date"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	CounterAccount     *string `json:"counter_account"`
	CounterAccountName *string `json:"counter_account_name"`
	BankCode           *string `json:"bank_code"`
	BankName           *string `json:"bank_name"`
	ConstantSymbol     *string `json:"constant_symbol"`
	VariableSymbol     *string `json:"variable_symbol"`
	SpecificSymbol     *string `json:"specific_symbol"`
	UserIdentification *string `json:"user_identification"`
	RecipientMessage   *string `json:"message_for_recipient"`
	Type               *string `json:"type"`
	Executor           *string `json:"executor"`
	Specification      *string `json:"specification"`
	Comment            *string `json:"comment"`
	BIC                *string `json:"bic"`
	InstructionID      *string `json:"instruction_id"`
	PayerReference     *string `json:"payer_reference"`
}

func toTransactionOut(tx fetcher.Transaction) transactionOut {
	var date *string
	if tx.Date != nil {
		formatted := tx.Date.Format(time.DateOnly)
		date = &formatted
	}

	return transactionOut{
		ID:                 tx.ID,
		TransactionID:      tx.FioID,
		Date:               date,
		Amount:             tx.Amount.InexactFloat64(),
		Currency:           tx.Currency,
		CounterAccount:     tx.CounterAccount,
		CounterAccountName: tx.CounterAccountName,
		BankCode:           tx.BankCode,
		BankName:           tx.BankName,
		ConstantSymbol:     tx.ConstantSymbol,
		VariableSymbol:     tx.VariableSymbol,
		SpecificSymbol:     tx.SpecificSymbol,
		UserIdentification: tx.UserIdentification,
		RecipientMessage:   tx.RecipientMessage,
		Type:               tx.Type,
		Executor:           tx.Executor,
		Specification:      tx.Specification,
		Comment:            tx.Comment,
		BIC:                tx.BIC,
		InstructionID:      tx.InstructionID,
		PayerReference:     tx.PayerReference,
	}
}

func filterFromQuery(r *http.Request) postgres.TransactionFilter {
	q := r.URL.Query()
	return postgres.TransactionFilter{
		FioID:              q.Get("transaction_id"),
		VariableSymbol:     q.Get("variable_symbol"),
		SpecificSymbol:     q.Get("specific_symbol"),
		ConstantSymbol:     q.Get("constant_symbol"),
		CounterAccount:     q.Get("counter_account"),
		CounterAccountName: q.Get("counter_account_name"),
		BankCode:           q.Get("bank_code"),
		BankName:           q.Get("bank_name"),
		Executor:           q.Get("executor"),
	}
}

func queryUint(r *http.Request, name string, fallback uint64) uint64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func hideMatched(r *http.Request) bool {
	v := r.URL.Query().Get("hide_matched")
	return v == "true" || v == "1"
}

// withoutMatched filters out transactions satisfied by the current
// expectation set. Done in memory over the filtered set; both sets stay in
// the hundreds.
func (s *Server) withoutMatched(r *http.Request, txs []fetcher.Transaction) ([]fetcher.Transaction, error) {
	rows, err := s.store.ListMatchingRows(r.Context())
	if err != nil {
		return nil, err
	}

	matched := matching.MatchedIDs(txs, rows)
	kept := make([]fetcher.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, ok := matched[tx.ID]; !ok {
			kept = append(kept, tx)
		}
	}

	return kept, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	skip := queryUint(r, "skip", 0)
	limit := queryUint(r, "limit", defaultPageLimit)

	if !hideMatched(r) {
		filter.Offset = skip
		filter.Limit = limit
		txs, err := s.store.ListTransactions(r.Context(), filter)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to list transactions")
			return
		}
		writeJSON(w, http.StatusOK, toTransactionOuts(txs))
		return
	}

	// Matched rows are dropped before paging, so pages stay full.
	txs, err := s.store.ListTransactions(r.Context(), filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to list transactions")
		return
	}

	txs, err = s.withoutMatched(r, txs)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to load matching data")
		return
	}

	if skip >= uint64(len(txs)) {
		writeJSON(w, http.StatusOK, []transactionOut{})
		return
	}
	txs = txs[skip:]
	if limit > 0 && limit < uint64(len(txs)) {
		txs = txs[:limit]
	}

	writeJSON(w, http.StatusOK, toTransactionOuts(txs))
}

func toTransactionOuts(txs []fetcher.Transaction) []transactionOut {
	out := make([]transactionOut, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionOut(tx))
	}
	return out
}

func (s *Server) handleCountTransactions(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	if !hideMatched(r) {
		count, err := s.store.CountTransactions(r.Context(), filter)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to count transactions")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": count})
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to count transactions")
		return
	}

	txs, err = s.withoutMatched(r, txs)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to load matching data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": len(txs)})
}

func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.DeleteAllTransactions(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to delete transactions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}
