package telemetry

import (
	"context"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelEntity     = "entity"
	ProfilingLabelOperation  = "operation"
)

// MaxLabelValueLength caps label values to keep profile series small
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped from profiling labels. Record ids and
// identification numbers belong on spans, not on profiles.
var HighCardinalityLabels = map[string]bool{
	"request_id":            true,
	"trace_id":              true,
	"span_id":               true,
	"person_id":             true,
	"invoice_id":            true,
	"identification_number": true,
}

// WithProfilingLabels runs fn with the sanitized labels attached to the
// goroutine, so samples taken inside fn can be filtered in Pyroscope.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels is WithProfilingLabels for plain pprof consumers
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

// sanitizeLabels returns key/value pairs in input key order with empty and
// high-cardinality entries removed, keys in snake_case and values truncated.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, k := range keys {
		v := labels[k]
		key := sanitizeLabelKey(k)
		if key == "" || v == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, v)
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		switch c := key[i]; {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		case c == ' ', c == '-', c == '.':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// RequestLabels labels an HTTP request; empty arguments are omitted
func RequestLabels(controller, route, method string) map[string]string {
	labels := make(map[string]string, 3)
	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	return labels
}

// OperationLabels labels a service operation on entity
func OperationLabels(entity Entity, operation string) map[string]string {
	return map[string]string{
		ProfilingLabelEntity:    string(entity),
		ProfilingLabelOperation: operation,
	}
}
