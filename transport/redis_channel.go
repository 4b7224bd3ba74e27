package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-creddef/core"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const KindRedis = "redis"

const (
	defaultRedisPrefix       = "creddef"
	defaultReplyKeyRetention = time.Minute
)

// RedisChannel pushes request envelopes onto <prefix>:<command> and waits for
// the reply on <prefix>:reply:<id>.
type RedisChannel struct {
	client         redis.UniversalClient
	prefix         string
	requestTimeout time.Duration
}

type RedisOption func(*RedisChannel)

func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisChannel) {
		if trimmed := strings.Trim(strings.TrimSpace(prefix), ":"); trimmed != "" {
			c.prefix = trimmed
		}
	}
}

func WithRedisRequestTimeout(timeout time.Duration) RedisOption {
	return func(c *RedisChannel) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

func NewRedisChannel(client redis.UniversalClient, opts ...RedisOption) (*RedisChannel, error) {
	if client == nil {
		return nil, fmt.Errorf("transport: redis client is required")
	}
	channel := &RedisChannel{
		client:         client,
		prefix:         defaultRedisPrefix,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(channel)
		}
	}
	return channel, nil
}

func (*RedisChannel) Kind() string {
	return KindRedis
}

func (c *RedisChannel) Send(ctx context.Context, command string, payload any) (json.RawMessage, error) {
	if c == nil || c.client == nil {
		return nil, transportError(
			"transport: redis channel requires a client",
			goerrors.CategoryInternal,
			map[string]any{"channel": KindRedis},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, transportError(
			"transport: command is required",
			goerrors.CategoryBadInput,
			map[string]any{"channel": KindRedis},
		)
	}

	id := uuid.NewString()
	envelope, err := newRequestEnvelope(id, command, payload)
	if err != nil {
		return nil, err
	}
	envelope.ReplyTo = ReplyKey(c.prefix, id)
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput, "transport: encode request envelope", nil)
	}

	if err := c.client.LPush(ctx, CommandKey(c.prefix, command), raw).Err(); err != nil {
		return nil, remoteErrorFromFault(http.StatusBadGateway, "push request: "+err.Error(), "")
	}

	result, err := c.client.BRPop(ctx, c.requestTimeout, envelope.ReplyTo).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, remoteErrorFromFault(http.StatusGatewayTimeout, fmt.Sprintf("no reply for %s within %s", command, c.requestTimeout), "")
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("transport: %s: %w", command, err)
		}
		return nil, remoteErrorFromFault(http.StatusBadGateway, "await reply: "+err.Error(), "")
	}
	if len(result) != 2 {
		return nil, transportError(
			fmt.Sprintf("transport: unexpected BRPOP result length: %d", len(result)),
			goerrors.CategoryExternal,
			map[string]any{"channel": KindRedis, "command": command},
		)
	}

	var reply ReplyEnvelope
	if err := json.Unmarshal([]byte(result[1]), &reply); err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode reply envelope",
			map[string]any{"channel": KindRedis, "command": command},
		)
	}
	if !reply.OK {
		if reply.Error == nil {
			return nil, remoteErrorFromFault(http.StatusBadGateway, "", "")
		}
		return nil, remoteErrorFromFault(reply.Error.StatusCode, reply.Error.Message, reply.Error.Reason)
	}
	if len(reply.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return reply.Result, nil
}

func CommandKey(prefix string, command string) string {
	return prefix + ":" + strings.TrimSpace(command)
}

func ReplyKey(prefix string, id string) string {
	return prefix + ":reply:" + id
}

var _ core.RPCChannel = (*RedisChannel)(nil)
