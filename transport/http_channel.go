package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-creddef/core"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const KindHTTP = "http"

const defaultRequestTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPChannel posts request envelopes to <BaseURL>/<command>. A 2xx body is
// the command result.
type HTTPChannel struct {
	BaseURL              string
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
	RequestTimeout       time.Duration
}

type HTTPOption func(*HTTPChannel)

func WithHTTPClient(client HTTPDoer) HTTPOption {
	return func(c *HTTPChannel) {
		if client != nil {
			c.Client = client
		}
	}
}

func WithRequestTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPChannel) {
		if timeout > 0 {
			c.RequestTimeout = timeout
		}
	}
}

func WithResponseBodyLimit(limit int64) HTTPOption {
	return func(c *HTTPChannel) {
		if limit > 0 {
			c.MaxResponseBodyBytes = limit
		}
	}
}

func WithHeader(key string, value string) HTTPOption {
	return func(c *HTTPChannel) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		c.DefaultHeaders[key] = strings.TrimSpace(value)
	}
}

func NewHTTPChannel(baseURL string, opts ...HTTPOption) *HTTPChannel {
	channel := &HTTPChannel{
		BaseURL:              strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Client:               &http.Client{},
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
		RequestTimeout:       defaultRequestTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(channel)
		}
	}
	return channel
}

func (*HTTPChannel) Kind() string {
	return KindHTTP
}

func (c *HTTPChannel) Send(ctx context.Context, command string, payload any) (json.RawMessage, error) {
	if c == nil || c.Client == nil {
		return nil, transportError(
			"transport: http channel requires an http client",
			goerrors.CategoryInternal,
			map[string]any{"channel": KindHTTP},
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
			map[string]any{"channel": KindHTTP},
		)
	}

	endpoint, err := c.endpoint(command)
	if err != nil {
		return nil, err
	}
	envelope, err := newRequestEnvelope(uuid.NewString(), command, payload)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput, "transport: encode request envelope", nil)
	}

	requestCtx := ctx
	cancel := func() {}
	if c.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			map[string]any{"channel": KindHTTP, "command": command},
		)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range c.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	httpRes, err := c.Client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("transport: %s: %w", command, err)
		}
		return nil, remoteErrorFromFault(http.StatusBadGateway, err.Error(), "")
	}
	defer httpRes.Body.Close()

	maxBodyBytes := c.MaxResponseBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultResponseBodyLimit
	}
	resBody, err := io.ReadAll(io.LimitReader(httpRes.Body, maxBodyBytes+1))
	if err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			map[string]any{"channel": KindHTTP, "status_code": httpRes.StatusCode},
		)
	}
	if int64(len(resBody)) > maxBodyBytes {
		return nil, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", maxBodyBytes),
			goerrors.CategoryExternal,
			map[string]any{
				"channel":          KindHTTP,
				"status_code":      httpRes.StatusCode,
				"response_limit_b": maxBodyBytes,
			},
		)
	}

	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		return nil, decodeHTTPFault(httpRes.StatusCode, resBody)
	}
	if len(bytes.TrimSpace(resBody)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(resBody) {
		return nil, transportError(
			"transport: response body is not valid json",
			goerrors.CategoryExternal,
			map[string]any{"channel": KindHTTP, "command": command},
		)
	}
	return json.RawMessage(resBody), nil
}

func (c *HTTPChannel) endpoint(command string) (string, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", transportError(
			"transport: http channel base url is required",
			goerrors.CategoryBadInput,
			map[string]any{"channel": KindHTTP},
		)
	}
	endpoint, err := url.JoinPath(c.BaseURL, command)
	if err != nil {
		return "", transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid base url",
			map[string]any{"channel": KindHTTP, "base_url": c.BaseURL},
		)
	}
	return endpoint, nil
}

var _ core.RPCChannel = (*HTTPChannel)(nil)
