package gojob

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-creddef/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const JobIDStoreRecord = "creddef.store_record"

const (
	paramOrgID                  = "org_id"
	paramUserID                 = "user_id"
	paramSchemaLedgerID         = "schema_ledger_id"
	paramTag                    = "tag"
	paramIssuerID               = "issuer_id"
	paramCredentialDefinitionID = "credential_definition_id"
	paramRevocable              = "revocable"
)

// RetryPolicy bounds store-record retries. Delays double from BaseDelay and
// never exceed MaxDelay.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		BaseDelay:       2 * time.Second,
		MaxDelay:        time.Minute,
		DeadLetterOnMax: true,
	}
}

// Backoff returns the requeue delay for a 1-based attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt < 1 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation. A
// retry on the last allowed attempt becomes a dead letter, or a failure when
// DeadLetterOnMax is off. Terminal dispositions carry no delay.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Disposition == "" {
		out.Disposition = queue.NackDispositionRetry
	}
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.Disposition == queue.NackDispositionRetry && p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Disposition = queue.NackDispositionFailed
		if p.DeadLetterOnMax {
			out.Disposition = queue.NackDispositionDeadLetter
		}
	}
	if out.Disposition != queue.NackDispositionRetry {
		out.Delay = 0
	}
	return out
}

// NewStoreRecordMessage encodes a store-record request as a go-job message.
// The idempotency key is the (schema ledger id, tag) pair the store enforces
// as unique.
func NewStoreRecordMessage(req core.StoreCredentialDefinitionRequest) (*job.ExecutionMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gojob: %w", err)
	}
	schemaLedgerID := strings.TrimSpace(req.SchemaLedgerID)
	tag := strings.TrimSpace(req.Tag)
	return &job.ExecutionMessage{
		JobID:      JobIDStoreRecord,
		ScriptPath: JobIDStoreRecord,
		Parameters: map[string]any{
			paramOrgID:                  strings.TrimSpace(req.OrgID),
			paramUserID:                 strings.TrimSpace(req.UserID),
			paramSchemaLedgerID:         schemaLedgerID,
			paramTag:                    tag,
			paramIssuerID:               strings.TrimSpace(req.IssuerID),
			paramCredentialDefinitionID: strings.TrimSpace(req.CredentialDefinitionID),
			paramRevocable:              req.Revocable,
		},
		IdempotencyKey: "store_record:" + schemaLedgerID + ":" + tag,
	}, nil
}

// StoreRecordRequestFromMessage decodes a message built by NewStoreRecordMessage.
// Parameters that passed through a JSON queue backend are accepted as well.
func StoreRecordRequestFromMessage(msg *job.ExecutionMessage) (core.StoreCredentialDefinitionRequest, error) {
	if msg == nil {
		return core.StoreCredentialDefinitionRequest{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDStoreRecord {
		return core.StoreCredentialDefinitionRequest{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	revocable, err := boolParam(msg.Parameters, paramRevocable)
	if err != nil {
		return core.StoreCredentialDefinitionRequest{}, err
	}
	req := core.StoreCredentialDefinitionRequest{
		OrgID:                  stringParam(msg.Parameters, paramOrgID),
		UserID:                 stringParam(msg.Parameters, paramUserID),
		SchemaLedgerID:         stringParam(msg.Parameters, paramSchemaLedgerID),
		Tag:                    stringParam(msg.Parameters, paramTag),
		IssuerID:               stringParam(msg.Parameters, paramIssuerID),
		CredentialDefinitionID: stringParam(msg.Parameters, paramCredentialDefinitionID),
		Revocable:              revocable,
	}
	if err := req.Validate(); err != nil {
		return core.StoreCredentialDefinitionRequest{}, fmt.Errorf("gojob: %w", err)
	}
	return req, nil
}

type StoreRecordEnqueuer struct {
	enqueuer queue.Enqueuer
}

func NewStoreRecordEnqueuer(enqueuer queue.Enqueuer) *StoreRecordEnqueuer {
	return &StoreRecordEnqueuer{enqueuer: enqueuer}
}

// Enqueue returns the queue receipt so callers can track the dispatch id.
func (e *StoreRecordEnqueuer) Enqueue(ctx context.Context, req core.StoreCredentialDefinitionRequest) (queue.EnqueueReceipt, error) {
	if e == nil || e.enqueuer == nil {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: enqueuer is not configured")
	}
	msg, err := NewStoreRecordMessage(req)
	if err != nil {
		return queue.EnqueueReceipt{}, err
	}
	return e.enqueuer.Enqueue(ctx, msg)
}

func stringParam(params map[string]any, key string) string {
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func boolParam(params map[string]any, key string) (bool, error) {
	value, ok := params[key]
	if !ok || value == nil {
		return false, nil
	}
	switch typed := value.(type) {
	case bool:
		return typed, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return false, fmt.Errorf("gojob: parameter %s: %w", key, err)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("gojob: parameter %s has unsupported type %T", key, value)
	}
}
