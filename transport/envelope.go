package transport

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-creddef/core"
	goerrors "github.com/goliatone/go-errors"
)

// RequestEnvelope is the wire shape of a command sent to an agent or sibling
// service. ReplyTo is only set on queue transports.
type RequestEnvelope struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
	ReplyTo string          `json:"replyTo,omitempty"`
}

// ReplyEnvelope carries either a result or a fault.
type ReplyEnvelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ReplyFault     `json:"error,omitempty"`
}

type ReplyFault struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"`
}

// faultBody is the error body returned by HTTP peers on non-2xx responses.
type faultBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      *struct {
		Reason string `json:"reason"`
	} `json:"error"`
}

func newRequestEnvelope(id string, command string, payload any) (RequestEnvelope, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return RequestEnvelope{}, err
	}
	return RequestEnvelope{
		ID:      id,
		Command: strings.TrimSpace(command),
		Payload: raw,
	}, nil
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch typed := payload.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		if len(typed) == 0 {
			return json.RawMessage("null"), nil
		}
		return typed, nil
	case []byte:
		if !json.Valid(typed) {
			return nil, transportError(
				"transport: payload bytes are not valid json",
				goerrors.CategoryBadInput,
				nil,
			)
		}
		return json.RawMessage(typed), nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput, "transport: encode payload", nil)
	}
	return raw, nil
}

// remoteErrorFromFault maps a peer fault onto core.RemoteError. A missing
// status becomes 502 Bad Gateway.
func remoteErrorFromFault(statusCode int, message string, reason string) *core.RemoteError {
	if statusCode <= 0 {
		statusCode = http.StatusBadGateway
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &core.RemoteError{
		StatusCode: statusCode,
		Message:    message,
		Reason:     strings.TrimSpace(reason),
	}
}

func decodeHTTPFault(statusCode int, body []byte) *core.RemoteError {
	var fault faultBody
	if err := json.Unmarshal(body, &fault); err != nil {
		return remoteErrorFromFault(statusCode, strings.TrimSpace(string(body)), "")
	}
	if fault.StatusCode <= 0 {
		fault.StatusCode = statusCode
	}
	reason := ""
	if fault.Error != nil {
		reason = fault.Error.Reason
	}
	return remoteErrorFromFault(fault.StatusCode, fault.Message, reason)
}
