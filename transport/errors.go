package transport

import (
	"net/http"

	"github.com/goliatone/go-creddef/core"
	goerrors "github.com/goliatone/go-errors"
)

// channelFault describes how a transport failure category surfaces to callers.
type channelFault struct {
	status   int
	textCode string
}

var channelFaults = map[goerrors.Category]channelFault{
	goerrors.CategoryBadInput:   {status: http.StatusBadRequest, textCode: core.ErrorBadInput},
	goerrors.CategoryValidation: {status: http.StatusBadRequest, textCode: core.ErrorBadInput},
	goerrors.CategoryNotFound:   {status: http.StatusNotFound, textCode: core.ErrorNotFound},
	goerrors.CategoryExternal:   {status: http.StatusBadGateway, textCode: core.ErrorRemoteFault},
}

func faultFor(category goerrors.Category) channelFault {
	if fault, ok := channelFaults[category]; ok {
		return fault
	}
	return channelFault{status: http.StatusInternalServerError, textCode: core.ErrorUnexpected}
}

func transportError(message string, category goerrors.Category, metadata map[string]any) error {
	fault := faultFor(category)
	err := goerrors.New(message, category).
		WithCode(fault.status).
		WithTextCode(fault.textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(source error, category goerrors.Category, message string, metadata map[string]any) error {
	if source == nil {
		return transportError(message, category, metadata)
	}
	fault := faultFor(category)
	err := goerrors.Wrap(source, category, message).
		WithCode(fault.status).
		WithTextCode(fault.textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
