package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultLoggerName roots every component logger name.
const DefaultLoggerName = "creddef"

// LoggerName places a component under DefaultLoggerName: "jobs" becomes
// "creddef.jobs" and a blank component yields the root name.
func LoggerName(component string) string {
	component = strings.Trim(strings.TrimSpace(component), ".")
	switch {
	case component == "", component == DefaultLoggerName:
		return DefaultLoggerName
	case strings.HasPrefix(component, DefaultLoggerName+"."):
		return component
	default:
		return DefaultLoggerName + "." + component
	}
}

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(component string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(LoggerName(component), provider, logger)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves the glog pair once and bridges both into go-job, so
// store-record workers and the queue runtime log through the same sink.
func ResolveForJob(
	component string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(component, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
