package gojob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-creddef/adapters/gologger"
	"github.com/goliatone/go-creddef/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	workerLoggerName   = "jobs"
	defaultIdleBackoff = time.Second
)

type RecordStorer interface {
	StoreCredentialDefinitionRecord(ctx context.Context, req core.StoreCredentialDefinitionRequest) (core.CredentialDefinition, error)
}

// StoreRecordWorker drains store-record jobs into the credential definition
// service. Requests the service rejects as bad input, conflicting or missing
// their schema are dead-lettered without retry.
type StoreRecordWorker struct {
	dequeuer    queue.Dequeuer
	storer      RecordStorer
	policy      RetryPolicy
	hooks       []worker.Hook
	idleBackoff time.Duration

	logger            glog.Logger
	jobLoggerProvider job.LoggerProvider

	mu       sync.Mutex
	attempts map[string]int
}

type WorkerOption func(*StoreRecordWorker)

func WithRetryPolicy(policy RetryPolicy) WorkerOption {
	return func(w *StoreRecordWorker) {
		w.policy = policy
	}
}

func WithHook(hook worker.Hook) WorkerOption {
	return func(w *StoreRecordWorker) {
		if hook != nil {
			w.hooks = append(w.hooks, hook)
		}
	}
}

func WithIdleBackoff(delay time.Duration) WorkerOption {
	return func(w *StoreRecordWorker) {
		if delay > 0 {
			w.idleBackoff = delay
		}
	}
}

// WithLogging resolves the worker logger with provider > logger > nop
// precedence.
func WithLogging(provider glog.LoggerProvider, logger glog.Logger) WorkerOption {
	return func(w *StoreRecordWorker) {
		_, resolved, jobProvider, _ := gologger.ResolveForJob(workerLoggerName, provider, logger)
		w.logger = resolved
		w.jobLoggerProvider = jobProvider
	}
}

func NewStoreRecordWorker(dequeuer queue.Dequeuer, storer RecordStorer, opts ...WorkerOption) (*StoreRecordWorker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if storer == nil {
		return nil, fmt.Errorf("gojob: record storer is required")
	}
	w := &StoreRecordWorker{
		dequeuer:    dequeuer,
		storer:      storer,
		policy:      DefaultRetryPolicy(),
		idleBackoff: defaultIdleBackoff,
		attempts:    map[string]int{},
	}
	WithLogging(nil, nil)(w)
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// JobLoggerProvider exposes the worker logger to go-job runtimes hosting the
// queue backend.
func (w *StoreRecordWorker) JobLoggerProvider() job.LoggerProvider {
	if w == nil {
		return nil
	}
	return w.jobLoggerProvider
}

// Run processes deliveries until ctx is cancelled. Dequeue and nack failures
// are logged and retried after the idle backoff.
func (w *StoreRecordWorker) Run(ctx context.Context) error {
	if w == nil {
		return fmt.Errorf("gojob: worker is not configured")
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := w.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Warn("store record worker iteration failed", "error", err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.idleBackoff):
			}
		}
	}
}

// ProcessNext handles a single delivery and settles it with ack or nack.
func (w *StoreRecordWorker) ProcessNext(ctx context.Context) error {
	if w == nil || w.dequeuer == nil || w.storer == nil {
		return fmt.Errorf("gojob: worker is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return fmt.Errorf("gojob: dequeue: %w", err)
	}
	if delivery == nil {
		return nil
	}

	msg := delivery.Message()
	key := attemptKey(msg)
	attempt := w.nextAttempt(key)
	event := worker.Event{
		Message:   msg,
		Delivery:  delivery,
		Attempt:   attempt,
		StartedAt: time.Now().UTC(),
	}
	w.emit(func(hook worker.Hook) { hook.OnStart(ctx, event) })

	req, err := StoreRecordRequestFromMessage(msg)
	retryable := err == nil
	if err == nil {
		var saved core.CredentialDefinition
		saved, err = w.storer.StoreCredentialDefinitionRecord(ctx, req)
		if err == nil {
			event.Duration = time.Since(event.StartedAt)
			w.resetAttempts(key)
			w.emit(func(hook worker.Hook) { hook.OnSuccess(ctx, event) })
			w.logger.Info("credential definition record stored",
				"credential_definition_id", saved.CredentialDefinitionID,
				"attempt", attempt,
			)
			return delivery.Ack(ctx)
		}
		retryable = isRetryable(err)
	}

	event.Duration = time.Since(event.StartedAt)
	event.Err = err
	nack := queue.NackOptions{
		Disposition: queue.NackDispositionRetry,
		Delay:       w.policy.Backoff(attempt),
		Reason:      err.Error(),
	}
	if !retryable {
		nack.Disposition = queue.NackDispositionDeadLetter
	}
	nack = w.policy.NormalizeAttempt(nack, attempt)
	event.Delay = nack.Delay

	if nack.Disposition == queue.NackDispositionRetry {
		w.emit(func(hook worker.Hook) { hook.OnRetry(ctx, event) })
		w.logger.Warn("store record job will be retried",
			"job_id", JobIDStoreRecord,
			"attempt", attempt,
			"delay", nack.Delay.String(),
			"error", err.Error(),
		)
	} else {
		w.resetAttempts(key)
		w.emit(func(hook worker.Hook) { hook.OnFailure(ctx, event) })
		w.logger.Error("store record job failed",
			"job_id", JobIDStoreRecord,
			"attempt", attempt,
			"disposition", string(nack.Disposition),
			"error", err.Error(),
		)
	}
	return delivery.Nack(ctx, nack)
}

func (w *StoreRecordWorker) emit(call func(worker.Hook)) {
	for _, hook := range w.hooks {
		call(hook)
	}
}

func (w *StoreRecordWorker) nextAttempt(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[key]++
	return w.attempts[key]
}

func (w *StoreRecordWorker) resetAttempts(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.attempts, key)
}

func attemptKey(msg *job.ExecutionMessage) string {
	if msg == nil {
		return ""
	}
	if msg.IdempotencyKey != "" {
		return msg.IdempotencyKey
	}
	return msg.JobID
}

func isRetryable(err error) bool {
	return !core.IsBadInput(err) && !core.IsConflict(err) && !core.IsNotFound(err)
}
