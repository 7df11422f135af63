package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fiolab/fio-fetcher/matching"
	"github.com/fiolab/fio-fetcher/storage/postgres"
)

type matchingRowIn struct {
	VariableSymbol *string         `json:"variable_symbol"`
	SpecificSymbol *string         `json:"specific_symbol"`
	ConstantSymbol *string         `json:"constant_symbol"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

type matchingUploadIn struct {
	Rows []matchingRowIn `json:"rows"`
}

type matchingRowOut struct {
	ID             int64   `json:"id"`
	VariableSymbol *string `json:"variable_symbol"`
	SpecificSymbol *string `json:"specific_symbol"`
	ConstantSymbol *string `json:"constant_symbol"`
	Raw            *string `json:"raw,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// handleUploadMatchingData replaces the whole expectation set with the
// uploaded rows and confirms how many were accepted.
func (s *Server) handleUploadMatchingData(w http.ResponseWriter, r *http.Request) {
	var in matchingUploadIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_payload", "request body must be a JSON object with a rows array")
		return
	}

	rows := make([]matching.Row, 0, len(in.Rows))
	for _, rowIn := range in.Rows {
		row := matching.Row{
			VariableSymbol: rowIn.VariableSymbol,
			SpecificSymbol: rowIn.SpecificSymbol,
			ConstantSymbol: rowIn.ConstantSymbol,
		}
		if len(rowIn.Raw) > 0 {
			raw := string(rowIn.Raw)
			row.RawRow = &raw
		}
		rows = append(rows, row)
	}

	if err := s.store.ReplaceMatchingRows(r.Context(), rows); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to store matching data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accepted": len(rows),
		"message":  "matching data replaced",
	})
}

func (s *Server) handleListMatchingData(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListMatchingRows(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to list matching data")
		return
	}

	out := make([]matchingRowOut, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchingRowOut{
			ID:             row.ID,
			VariableSymbol: row.VariableSymbol,
			SpecificSymbol: row.SpecificSymbol,
			ConstantSymbol: row.ConstantSymbol,
			Raw:            row.RawRow,
			CreatedAt:      row.CreatedAt.Format(time.DateOnly),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

// handleMatchingStats reconciles the current transaction set against the
// expectation set and reports the counts.
func (s *Server) handleMatchingStats(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListMatchingRows(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to list matching data")
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), postgres.TransactionFilter{})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, matching.ComputeStats(txs, rows))
}

func (s *Server) handleDeleteMatchingData(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.DeleteMatchingRows(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to delete matching data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}
