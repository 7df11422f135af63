// Package fetcher pulls bank account transactions from the statement
// source, stores missing ones idempotently and streams run progress to
// observers.
package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/fiolab/fio-fetcher/pkg/timeutil"
)

// Storage is the persistence needed by a fetch run. WithinTransaction runs
// f against a transactional view; every insert of a run commits or rolls
// back as one unit.
type Storage interface {
	WithinTransaction(ctx context.Context, f func(ctx context.Context, tx Storage) error) error
	// TransactionExists checks whether a transaction with the given natural key is already stored
	TransactionExists(ctx context.Context, fioID string) (bool, error)
	// CreateTransaction inserts one transaction
	CreateTransaction(ctx context.Context, tx Transaction) error
}

// Source is the remote statement API. Sanitize must strip the access token
// (including its URL-encoded form) out of any message before it leaves the
// run boundary.
type Source interface {
	Configured() bool
	Statement(ctx context.Context, from, to time.Time) ([]Transaction, error)
	Example() ([]Transaction, error)
	Sanitize(message string) string
}

// Service owns the single process-wide run slot and the rate-limit clock.
// It is constructed once and shared explicitly with whoever may trigger a
// run; there is no hidden global instance.
type Service struct {
	cfg     Config
	storage Storage
	source  Source
	bc      *Broadcaster
	logger  *zap.Logger
	now     func() time.Time

	mu               sync.Mutex
	running          bool
	lastRunStartedAt time.Time
}

func New(s Storage, src Source, bc *Broadcaster, l *zap.Logger, cfg Config) *Service {
	return &Service{
		storage: s,
		source:  src,
		bc:      bc,
		logger:  l,
		cfg:     cfg,
		now:     time.Now,
	}
}

// RequestRun asks for a fetch run. The cooldown and the run-slot checks and
// the transition to running happen atomically under one lock, so two
// concurrent requests can never both pass. A rejected request is never
// queued. On acceptance the run proceeds in the background, detached from
// the caller's cancelation, and reports through the Broadcaster.
func (s *Service) RequestRun(ctx context.Context) Outcome {
	s.mu.Lock()

	now := s.now()
	if !s.lastRunStartedAt.IsZero() {
		if wait := s.cfg.MinFetchInterval - now.Sub(s.lastRunStartedAt); wait > 0 {
			s.mu.Unlock()
			return Outcome{Status: OutcomeRateLimited, RetryAfter: wait}
		}
	}

	if s.running {
		s.mu.Unlock()
		return Outcome{Status: OutcomeAlreadyRunning}
	}

	s.running = true
	s.lastRunStartedAt = now // measured from run start so a slow run doesn't shorten the spacing
	s.mu.Unlock()

	go s.run(context.WithoutCancel(ctx))

	return Outcome{Status: OutcomeStarted}
}

// run executes one fetch. Whatever happens inside, including a panic, the
// run slot is released and the failure leaves only as a sanitized event.
func (s *Service) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.bc.Publish(Event{Status: StatusStarted, Message: "fetch started"})

	var (
		count int
		err   error
	)

	var pc panics.Catcher
	pc.Try(func() {
		count, err = s.ingest(ctx, func(current, total int, message string) {
			s.bc.Publish(Event{Status: StatusProgress, Current: current, Total: total, Message: message})
		})
	})
	if recovered := pc.Recovered().AsError(); recovered != nil {
		err = recovered
	}

	if err != nil {
		msg := s.source.Sanitize(err.Error())
		s.logger.Error("fetch run failed", zap.String("reason", msg))
		s.bc.Publish(Event{Status: StatusError, Message: "fetch failed: " + msg})
		return
	}

	s.logger.Info("fetch run completed", zap.Int("new_transactions", count))
	s.bc.Publish(Event{
		Status:          StatusCompleted,
		NewTransactions: count,
		Message:         fmt.Sprintf("fetch completed, saved %d new transaction(s)", count),
	})
}

// AutoRun triggers runs on a fixed interval until the context is canceled.
// Disabled when the interval is zero. Rejections obey the same rules as
// manual triggers and are only logged.
func (s *Service) AutoRun(ctx context.Context) {
	if s.cfg.AutoFetchInterval <= 0 {
		return
	}

	for range timeutil.TickWithCtx(ctx, s.cfg.AutoFetchInterval) {
		outcome := s.RequestRun(ctx)
		if outcome.Status != OutcomeStarted {
			s.logger.Debug("scheduled fetch skipped", zap.String("outcome", string(outcome.Status)))
		}
	}
}

type Config struct {
	MinFetchInterval  time.Duration `env:"MIN_INTERVAL, default=30s"` // Minimum spacing between run starts
	LookbackDays      int           `env:"LOOKBACK_DAYS, default=14"` // How many days back the statement window reaches
	AutoFetchInterval time.Duration `env:"AUTO_INTERVAL, default=0"`  // Scheduled trigger period, 0 disables
	EventBuffer       int           `env:"EVENT_BUFFER, default=64"`  // Pending events between producer and fan-out
}
