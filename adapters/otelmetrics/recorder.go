package otelmetrics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-creddef/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the meter name used by NewRecorderFromProvider.
const InstrumentationName = "github.com/goliatone/go-creddef"

// Recorder maps core metrics onto OpenTelemetry instruments. Instruments are
// created on first use and reused by name; tags become attributes.
type Recorder struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
	onError    func(error)
}

type Option func(*Recorder)

// WithErrorHandler receives instrument creation failures. The metric sample
// that triggered the failure is dropped.
func WithErrorHandler(handler func(error)) Option {
	return func(r *Recorder) {
		if handler != nil {
			r.onError = handler
		}
	}
}

func NewRecorder(meter metric.Meter, opts ...Option) (*Recorder, error) {
	if meter == nil {
		return nil, fmt.Errorf("otelmetrics: meter is required")
	}
	r := &Recorder{
		meter:      meter,
		counters:   map[string]metric.Int64Counter{},
		histograms: map[string]metric.Float64Histogram{},
		onError:    func(error) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

func NewRecorderFromProvider(provider metric.MeterProvider, opts ...Option) (*Recorder, error) {
	if provider == nil {
		return nil, fmt.Errorf("otelmetrics: meter provider is required")
	}
	return NewRecorder(provider.Meter(InstrumentationName), opts...)
}

func (r *Recorder) IncCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if r == nil {
		return
	}
	counter, err := r.counter(name)
	if err != nil {
		r.onError(err)
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attributes(tags)...))
}

func (r *Recorder) ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	histogram, err := r.histogram(name)
	if err != nil {
		r.onError(err)
		return
	}
	histogram.Record(ctx, value, metric.WithAttributes(attributes(tags)...))
}

func (r *Recorder) counter(name string) (metric.Int64Counter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("otelmetrics: counter name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if counter, ok := r.counters[name]; ok {
		return counter, nil
	}
	counter, err := r.meter.Int64Counter(name, metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("otelmetrics: create counter %s: %w", name, err)
	}
	r.counters[name] = counter
	return counter, nil
}

func (r *Recorder) histogram(name string) (metric.Float64Histogram, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("otelmetrics: histogram name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if histogram, ok := r.histograms[name]; ok {
		return histogram, nil
	}
	opts := []metric.Float64HistogramOption{}
	if strings.HasSuffix(name, "_ms") {
		opts = append(opts, metric.WithUnit("ms"))
	}
	histogram, err := r.meter.Float64Histogram(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("otelmetrics: create histogram %s: %w", name, err)
	}
	r.histograms[name] = histogram
	return histogram, nil
}

func attributes(tags map[string]string) []attribute.KeyValue {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for key := range tags {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := make([]attribute.KeyValue, 0, len(keys))
	for _, key := range keys {
		out = append(out, attribute.String(strings.TrimSpace(key), tags[key]))
	}
	return out
}

var _ core.MetricsRecorder = (*Recorder)(nil)
