package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-creddef/core"
	"github.com/redis/go-redis/v9"
)

// Channel is an RPC channel that reports its transport kind.
type Channel interface {
	core.RPCChannel
	Kind() string
}

type ChannelFactory func(config map[string]any) (Channel, error)

type Registry struct {
	mu        sync.RWMutex
	channels  map[string]Channel
	factories map[string]ChannelFactory
}

func NewRegistry() *Registry {
	return &Registry{
		channels:  map[string]Channel{},
		factories: map[string]ChannelFactory{},
	}
}

// NewDefaultRegistry registers factories for the http and redis kinds.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	_ = registry.RegisterFactory(KindHTTP, httpChannelFactory)
	_ = registry.RegisterFactory(KindRedis, redisChannelFactory)
	return registry
}

func (r *Registry) Register(channel Channel) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if channel == nil {
		return fmt.Errorf("transport: channel is nil")
	}
	kind := normalizeKind(channel.Kind())
	if kind == "" {
		return fmt.Errorf("transport: channel kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[kind]; exists {
		return fmt.Errorf("transport: channel kind %q already registered", kind)
	}
	r.channels[kind] = channel
	return nil
}

func (r *Registry) RegisterFactory(kind string, factory ChannelFactory) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return fmt.Errorf("transport: channel kind is required")
	}
	if factory == nil {
		return fmt.Errorf("transport: channel factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("transport: channel factory kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Build returns the registered channel for kind, or builds one from its
// factory. Unknown kinds yield an UnsupportedChannel so callers fail on Send
// with a descriptive error.
func (r *Registry) Build(kind string, config map[string]any) (Channel, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return nil, fmt.Errorf("transport: channel kind is required")
	}

	r.mu.RLock()
	channel, ok := r.channels[kind]
	factory := r.factories[kind]
	r.mu.RUnlock()
	if ok {
		return channel, nil
	}
	if factory == nil {
		reason := strings.TrimSpace(stringValue(config, "reason"))
		if reason == "" {
			reason = "no factory registered"
		}
		return NewUnsupportedChannel(kind, reason), nil
	}
	built, err := factory(cloneMap(config))
	if err != nil {
		return nil, err
	}
	if built == nil {
		return nil, fmt.Errorf("transport: factory for %q returned nil channel", kind)
	}
	return built, nil
}

func (r *Registry) Get(kind string) (Channel, bool) {
	if r == nil {
		return nil, false
	}
	kind = normalizeKind(kind)
	r.mu.RLock()
	defer r.mu.RUnlock()
	channel, ok := r.channels[kind]
	return channel, ok
}

func (r *Registry) List() []Channel {
	if r == nil {
		return []Channel{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.channels))
	for kind := range r.channels {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	result := make([]Channel, 0, len(kinds))
	for _, kind := range kinds {
		result = append(result, r.channels[kind])
	}
	return result
}

// UnsupportedChannel fails every Send with the configured reason.
type UnsupportedChannel struct {
	kind   string
	reason string
}

func NewUnsupportedChannel(kind string, reason string) *UnsupportedChannel {
	return &UnsupportedChannel{
		kind:   normalizeKind(kind),
		reason: strings.TrimSpace(reason),
	}
}

func (c *UnsupportedChannel) Kind() string {
	if c == nil {
		return ""
	}
	return c.kind
}

func (c *UnsupportedChannel) Send(context.Context, string, any) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("transport: channel is nil")
	}
	if c.reason != "" {
		return nil, fmt.Errorf("transport: %s channel is not configured: %s", c.kind, c.reason)
	}
	return nil, fmt.Errorf("transport: %s channel is not configured", c.kind)
}

func httpChannelFactory(config map[string]any) (Channel, error) {
	baseURL := strings.TrimSpace(stringValue(config, "base_url"))
	if baseURL == "" {
		return nil, fmt.Errorf("transport: http channel requires base_url")
	}
	opts := []HTTPOption{}
	if timeout, err := durationValue(config, "timeout"); err != nil {
		return nil, err
	} else if timeout > 0 {
		opts = append(opts, WithRequestTimeout(timeout))
	}
	if limit, ok := config["max_response_body_bytes"].(int); ok && limit > 0 {
		opts = append(opts, WithResponseBodyLimit(int64(limit)))
	}
	if headers, ok := config["headers"].(map[string]any); ok {
		for key, value := range headers {
			opts = append(opts, WithHeader(key, fmt.Sprint(value)))
		}
	}
	return NewHTTPChannel(baseURL, opts...), nil
}

func redisChannelFactory(config map[string]any) (Channel, error) {
	var client redis.UniversalClient
	if provided, ok := config["client"].(redis.UniversalClient); ok && provided != nil {
		client = provided
	} else {
		addr := strings.TrimSpace(stringValue(config, "addr"))
		if addr == "" {
			return nil, fmt.Errorf("transport: redis channel requires addr or client")
		}
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: stringValue(config, "password"),
		})
	}
	opts := []RedisOption{WithRedisPrefix(stringValue(config, "prefix"))}
	if timeout, err := durationValue(config, "timeout"); err != nil {
		return nil, err
	} else if timeout > 0 {
		opts = append(opts, WithRedisRequestTimeout(timeout))
	}
	return NewRedisChannel(client, opts...)
}

func normalizeKind(kind string) string {
	return strings.TrimSpace(strings.ToLower(kind))
}

func stringValue(config map[string]any, key string) string {
	value, ok := config[key]
	if !ok || value == nil {
		return ""
	}
	if typed, ok := value.(string); ok {
		return typed
	}
	return fmt.Sprint(value)
}

func durationValue(config map[string]any, key string) (time.Duration, error) {
	switch typed := config[key].(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return typed, nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return 0, nil
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(typed))
		if err != nil {
			return 0, fmt.Errorf("transport: invalid %s %q: %w", key, typed, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("transport: unsupported %s type %T", key, typed)
	}
}

func cloneMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

var (
	_ Channel = (*HTTPChannel)(nil)
	_ Channel = (*RedisChannel)(nil)
	_ Channel = (*UnsupportedChannel)(nil)
)
