// internal/utils/metrics.go
package utils

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector collects in-process counters, gauges and histograms.
type MetricsCollector struct {
	counters   map[string]*int64
	gauges     map[string]*int64
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Histogram tracks count, sum, min and max.
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// NewMetricsCollector returns an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
	return globalMetrics
}

// cell returns the value cell for name, creating it under the write lock
// only on first use.
func (m *MetricsCollector) cell(set map[string]*int64, name string) *int64 {
	m.mu.RLock()
	v, ok := set[name]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = set[name]; !ok {
		v = new(int64)
		set[name] = v
	}
	return v
}

func (m *MetricsCollector) IncrementCounter(name string) {
	atomic.AddInt64(m.cell(m.counters, name), 1)
}

func (m *MetricsCollector) AddCounter(name string, value int64) {
	atomic.AddInt64(m.cell(m.counters, name), value)
}

func (m *MetricsCollector) GetCounterValue(name string) int64 {
	return atomic.LoadInt64(m.cell(m.counters, name))
}

func (m *MetricsCollector) SetGauge(name string, value int64) {
	atomic.StoreInt64(m.cell(m.gauges, name), value)
}

func (m *MetricsCollector) IncGauge(name string) {
	atomic.AddInt64(m.cell(m.gauges, name), 1)
}

func (m *MetricsCollector) DecGauge(name string) {
	atomic.AddInt64(m.cell(m.gauges, name), -1)
}

func (m *MetricsCollector) GetGauge(name string) int64 {
	return atomic.LoadInt64(m.cell(m.gauges, name))
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()

	if !ok {
		m.mu.Lock()
		if h, ok = m.histograms[name]; !ok {
			h = &Histogram{min: value, max: value}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// GetMetrics returns a snapshot of all metrics
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, v := range m.counters {
		counters[name] = atomic.LoadInt64(v)
	}
	gauges := make(map[string]int64, len(m.gauges))
	for name, v := range m.gauges {
		gauges[name] = atomic.LoadInt64(v)
	}
	histograms := make(map[string]map[string]int64, len(m.histograms))
	for name, h := range m.histograms {
		h.mu.Lock()
		histograms[name] = map[string]int64{
			"count": h.count,
			"sum":   h.sum,
			"min":   h.min,
			"max":   h.max,
		}
		h.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}

// ===== 业务指标 =====

// FunnelMetrics records request, LLM and blueprint metrics onto a collector.
type FunnelMetrics struct {
	metrics *MetricsCollector
	logger  *Logger
}

// NewFunnelMetrics wraps collector; nil means the global collector.
func NewFunnelMetrics(collector *MetricsCollector) *FunnelMetrics {
	if collector == nil {
		collector = GetMetricsCollector()
	}
	return &FunnelMetrics{metrics: collector, logger: GetLogger()}
}

// Collector exposes the underlying collector.
func (fm *FunnelMetrics) Collector() *MetricsCollector {
	return fm.metrics
}

// RecordAPIRequest records metrics for an API request
func (fm *FunnelMetrics) RecordAPIRequest(route, method string, statusCode int, duration time.Duration) {
	fm.metrics.IncrementCounter("api_requests_total")
	fm.metrics.IncrementCounter("api_requests_" + method + "_" + route)
	fm.metrics.IncrementCounter("api_responses_" + strconv.Itoa(statusCode/100) + "xx")
	fm.metrics.RecordHistogram("api_response_time_ms", duration.Milliseconds())

	fm.logger.Debug("API request completed", map[string]interface{}{
		"route":    route,
		"method":   method,
		"status":   statusCode,
		"duration": duration.Milliseconds(),
	})
}

// RecordLLMRequest records metrics for an LLM request
func (fm *FunnelMetrics) RecordLLMRequest(provider, model string, tokensUsed int, duration time.Duration, err error) {
	fm.metrics.IncrementCounter("llm_requests_total")
	fm.metrics.IncrementCounter("llm_requests_" + provider)
	fm.metrics.AddCounter("llm_tokens_total", int64(tokensUsed))
	fm.metrics.RecordHistogram("llm_response_time_ms", duration.Milliseconds())
	if err != nil {
		fm.metrics.IncrementCounter("llm_errors_total")
	}

	fm.logger.Info("LLM request completed", map[string]interface{}{
		"provider": provider,
		"model":    model,
		"tokens":   tokensUsed,
		"duration": duration.Milliseconds(),
		"failed":   err != nil,
	})
}

// RecordBlueprintGenerated counts a generated document by source
// ("template" or "llm").
func (fm *FunnelMetrics) RecordBlueprintGenerated(source string, saved bool) {
	fm.metrics.IncrementCounter("blueprints_generated_total")
	fm.metrics.IncrementCounter("blueprints_generated_" + source)
	if !saved {
		fm.metrics.IncrementCounter("blueprint_save_failures_total")
	}
}

// GenerationStarted and GenerationFinished track running LLM generations.
func (fm *FunnelMetrics) GenerationStarted() {
	fm.metrics.IncGauge("llm_generations_running")
}

func (fm *FunnelMetrics) GenerationFinished() {
	fm.metrics.DecGauge("llm_generations_running")
}

// SetCraftSessions reports how many craft sessions are held in memory.
func (fm *FunnelMetrics) SetCraftSessions(n int) {
	fm.metrics.SetGauge("craft_sessions_active", int64(n))
}

// RecordParse records how long parsing a stored document took.
func (fm *FunnelMetrics) RecordParse(duration time.Duration) {
	fm.metrics.IncrementCounter("blueprints_parsed_total")
	fm.metrics.RecordHistogram("blueprint_parse_time_us", duration.Microseconds())
}

// RecordError records an error metric
func (fm *FunnelMetrics) RecordError(errorType, component string) {
	fm.metrics.IncrementCounter("errors_total")
	fm.metrics.IncrementCounter("errors_" + errorType)
	fm.metrics.IncrementCounter("errors_" + component)
}

// StartMetricsCollection logs a metrics summary every interval until ctx
// is done.
func (fm *FunnelMetrics) StartMetricsCollection(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fm.logger.Info("Periodic metrics report", map[string]interface{}{
					"metrics": fm.metrics.GetMetrics(),
				})
			}
		}
	}()
}
