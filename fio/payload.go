package fio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiolab/fio-fetcher/fetcher"
)

// ErrMalformedPayload means the response body is not the expected JSON
// object at all. A body that is valid JSON but lacks the accountStatement
// wrapper is not an error; it simply carries zero transactions.
var ErrMalformedPayload = errors.New("malformed statement payload")

// Statement entries come keyed as indexed "columns", each an object with a
// value field. The ids are fixed by the Fio export format.
const (
	colDate               = 0
	colAmount             = 1
	colCounterAccount     = 2
	colBankCode           = 3
	colConstantSymbol     = 4
	colVariableSymbol     = 5
	colSpecificSymbol     = 6
	colUserIdentification = 7
	colType               = 8
	colExecutor           = 9
	colCounterAccountName = 10
	colBankName           = 12
	colCurrency           = 14
	colRecipientMessage   = 16
	colInstructionID      = 17
	colSpecification      = 18
	colFioID              = 22
	colComment            = 25
	colBIC                = 26
	colPayerReference     = 27
)

type envelope struct {
	AccountStatement *accountStatement `json:"accountStatement"`
}

type accountStatement struct {
	TransactionList *transactionList `json:"transactionList"`
}

type transactionList struct {
	Transaction []statementEntry `json:"transaction"`
}

type column struct {
	Value json.RawMessage `json:"value"`
}

type statementEntry map[string]*column

// ParseStatement maps the raw API payload into canonical transactions.
func ParseStatement(body []byte) ([]fetcher.Transaction, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}

	if env.AccountStatement == nil || env.AccountStatement.TransactionList == nil {
		return nil, nil
	}

	entries := env.AccountStatement.TransactionList.Transaction
	txs := make([]fetcher.Transaction, 0, len(entries))
	for _, entry := range entries {
		tx, ok := mapEntry(entry)
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// mapEntry builds one transaction candidate. Entries without the natural
// key are unusable and dropped.
func mapEntry(entry statementEntry) (fetcher.Transaction, bool) {
	fioID := entry.str(colFioID)
	if fioID == nil || *fioID == "" {
		return fetcher.Transaction{}, false
	}

	tx := fetcher.Transaction{
		FioID:  *fioID,
		Date:   entry.date(colDate),
		Amount: entry.amount(colAmount),

		CounterAccount:     entry.str(colCounterAccount),
		CounterAccountName: entry.str(colCounterAccountName),
		BankCode:           entry.str(colBankCode),
		BankName:           entry.str(colBankName),
		BIC:                entry.str(colBIC),

		ConstantSymbol: entry.str(colConstantSymbol),
		VariableSymbol: entry.str(colVariableSymbol),
		SpecificSymbol: entry.str(colSpecificSymbol),

		UserIdentification: entry.str(colUserIdentification),
		RecipientMessage:   entry.str(colRecipientMessage),
		Type:               entry.str(colType),
		Executor:           entry.str(colExecutor),
		Specification:      entry.str(colSpecification),
		Comment:            entry.str(colComment),
		InstructionID:      entry.str(colInstructionID),
		PayerReference:     entry.str(colPayerReference),
	}

	if currency := entry.str(colCurrency); currency != nil {
		tx.Currency = *currency
	}

	return tx, true
}

// raw returns the column value, treating a JSON null the same as an absent
// column. Unmarshaling null into a non-pointer target is a no-op, so it must
// never reach the typed readers below.
func (e statementEntry) raw(id int) json.RawMessage {
	col := e["column"+strconv.Itoa(id)]
	if col == nil {
		return nil
	}
	if len(col.Value) == 0 || bytes.Equal(col.Value, []byte("null")) {
		return nil
	}
	return col.Value
}

// str reads a column value as a string regardless of its JSON type; numeric
// ids like the movement id come as numbers.
func (e statementEntry) str(id int) *string {
	raw := e.raw(id)
	if raw == nil {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		s = n.String()
		return &s
	}

	return nil
}

func (e statementEntry) amount(id int) decimal.Decimal {
	raw := e.raw(id)
	if raw == nil {
		return decimal.Zero
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}

	return d
}

// date accepts a millisecond epoch timestamp or a YYYY-MM-DD[+HHMM] string.
// Anything unparseable maps to nil, never an error.
func (e statementEntry) date(id int) *time.Time {
	raw := e.raw(id)
	if raw == nil {
		return nil
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		d := time.UnixMilli(ms).UTC()
		d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}

	for _, layout := range []string{"2006-01-02-0700", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			d := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}

	return nil
}
