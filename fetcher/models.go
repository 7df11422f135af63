package fetcher

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one bank account movement as reported by the statement
// source. FioID is the source-assigned natural key used for deduplication;
// a persisted transaction is immutable and only ever removed by bulk delete.
type Transaction struct {
	ID     int64
	FioID  string
	Date   *time.Time
	Amount decimal.Decimal

	Currency string

	CounterAccount     *string
	CounterAccountName *string
	BankCode           *string
	BankName           *string
	BIC                *string

	ConstantSymbol *string
	VariableSymbol *string
	SpecificSymbol *string

	UserIdentification *string
	RecipientMessage   *string
	Type               *string
	Executor           *string
	Specification      *string
	Comment            *string
	InstructionID      *string
	PayerReference     *string
}

// Event statuses published through the Broadcaster.
const (
	StatusStarted   = "started"
	StatusProgress  = "progress"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Event is one progress notification of a fetch run.
type Event struct {
	Status          string `json:"status"`
	Current         int    `json:"current,omitempty"`
	Total           int    `json:"total,omitempty"`
	Message         string `json:"message"`
	NewTransactions int    `json:"new_transactions,omitempty"`
}

// Outcome kinds of a run request. RateLimited and AlreadyRunning are
// expected conditions, reported as data rather than errors.
type OutcomeStatus string

const (
	OutcomeStarted        OutcomeStatus = "started"
	OutcomeRateLimited    OutcomeStatus = "rate_limited"
	OutcomeAlreadyRunning OutcomeStatus = "already_running"
)

// Outcome is the immediate answer to a run request; the run itself
// completes asynchronously and reports through the Broadcaster.
type Outcome struct {
	Status     OutcomeStatus
	RetryAfter time.Duration // set for OutcomeRateLimited
}
