package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-creddef/core"
	"github.com/redis/go-redis/v9"
)

// CommandHandler serves one command. Returning a *core.RemoteError replies
// with that fault; any other error replies with a 500 fault.
type CommandHandler func(ctx context.Context, payload json.RawMessage) (any, error)

// RedisResponder is the agent side of RedisChannel: it pops request envelopes
// for its registered commands and pushes replies to each ReplyTo key.
type RedisResponder struct {
	client       redis.UniversalClient
	prefix       string
	pollInterval time.Duration

	mu       sync.RWMutex
	handlers map[string]CommandHandler
}

func NewRedisResponder(client redis.UniversalClient, prefix string) (*RedisResponder, error) {
	if client == nil {
		return nil, fmt.Errorf("transport: redis client is required")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisResponder{
		client:       client,
		prefix:       prefix,
		pollInterval: time.Second,
		handlers:     map[string]CommandHandler{},
	}, nil
}

func (r *RedisResponder) Handle(command string, handler CommandHandler) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("transport: command is required")
	}
	if handler == nil {
		return fmt.Errorf("transport: handler for %q is nil", command)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[command]; exists {
		return fmt.Errorf("transport: handler for %q already registered", command)
	}
	r.handlers[command] = handler
	return nil
}

// Serve blocks until ctx is cancelled.
func (r *RedisResponder) Serve(ctx context.Context) error {
	keys := r.commandKeys()
	if len(keys) == 0 {
		return fmt.Errorf("transport: responder has no handlers")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		result, err := r.client.BRPop(ctx, r.pollInterval, keys...).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport: pop request: %w", err)
		}
		if len(result) != 2 {
			continue
		}
		if err := r.serveOne(ctx, result[1]); err != nil {
			return err
		}
	}
}

func (r *RedisResponder) serveOne(ctx context.Context, raw string) error {
	var request RequestEnvelope
	if err := json.Unmarshal([]byte(raw), &request); err != nil {
		// undecodable requests have no reply key
		return nil
	}
	if strings.TrimSpace(request.ReplyTo) == "" {
		return nil
	}

	r.mu.RLock()
	handler := r.handlers[request.Command]
	r.mu.RUnlock()

	reply := ReplyEnvelope{OK: true}
	if handler == nil {
		reply = faultReply(&core.RemoteError{StatusCode: http.StatusNotFound, Message: "unknown command " + request.Command})
	} else if result, err := handler(ctx, request.Payload); err != nil {
		reply = faultReply(err)
	} else {
		encoded, encodeErr := json.Marshal(result)
		if encodeErr != nil {
			reply = faultReply(encodeErr)
		} else {
			reply.Result = encoded
		}
	}

	encoded, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("transport: encode reply: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, request.ReplyTo, encoded)
	pipe.Expire(ctx, request.ReplyTo, defaultReplyKeyRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("transport: push reply: %w", err)
	}
	return nil
}

func (r *RedisResponder) commandKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.handlers))
	for command := range r.handlers {
		keys = append(keys, CommandKey(r.prefix, command))
	}
	sort.Strings(keys)
	return keys
}

func faultReply(err error) ReplyEnvelope {
	var remoteErr *core.RemoteError
	if errors.As(err, &remoteErr) {
		return ReplyEnvelope{Error: &ReplyFault{
			StatusCode: remoteErr.StatusCode,
			Message:    remoteErr.Message,
			Reason:     remoteErr.Reason,
		}}
	}
	return ReplyEnvelope{Error: &ReplyFault{
		StatusCode: http.StatusInternalServerError,
		Message:    err.Error(),
	}}
}
