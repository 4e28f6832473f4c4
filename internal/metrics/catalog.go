package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records fetch, mutation and click-tracking activity. A nil
// *CatalogMetrics is valid and records nothing.
type CatalogMetrics struct {
	fetchWindows    *prometheus.CounterVec
	fetchTruncated  prometheus.Counter
	mutations       *prometheus.CounterVec
	clicksRecorded  prometheus.Counter
	clickWriteFails *prometheus.CounterVec
	clickDrift      prometheus.Gauge
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	m := &CatalogMetrics{
		fetchWindows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_fetch_windows_total",
			Help: "Bounded product windows requested from the database.",
		}, []string{"mode"}),
		fetchTruncated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_full_fetch_truncated_total",
			Help: "Full fetches stopped by the row safety ceiling.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_mutations_total",
			Help: "Product mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		clicksRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_clicks_recorded_total",
			Help: "Clicks whose event and counter writes both succeeded.",
		}),
		clickWriteFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_click_write_failures_total",
			Help: "Failed click tracking writes by write kind.",
		}, []string{"write"}),
		clickDrift: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_click_counter_drift_products",
			Help: "Products whose click counter disagreed with the event log at the last reconcile.",
		}),
	}
	reg.MustRegister(m.fetchWindows, m.fetchTruncated, m.mutations, m.clicksRecorded, m.clickWriteFails, m.clickDrift)
	return m
}

// IncFetchWindow counts one backend window for mode ("page" or "full")
func (m *CatalogMetrics) IncFetchWindow(mode string) {
	if m == nil || m.fetchWindows == nil {
		return
	}
	m.fetchWindows.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncFetchTruncated counts a full fetch that hit the safety ceiling
func (m *CatalogMetrics) IncFetchTruncated() {
	if m == nil || m.fetchTruncated == nil {
		return
	}
	m.fetchTruncated.Inc()
}

// ObserveMutation counts a product mutation
func (m *CatalogMetrics) ObserveMutation(op string, err error) {
	if m == nil || m.mutations == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.mutations.WithLabelValues(normalizeLabel(op), outcome).Inc()
}

// IncClickRecorded counts a fully recorded click
func (m *CatalogMetrics) IncClickRecorded() {
	if m == nil || m.clicksRecorded == nil {
		return
	}
	m.clicksRecorded.Inc()
}

// IncClickWriteFailure counts a failed click write ("event" or "counter")
func (m *CatalogMetrics) IncClickWriteFailure(write string) {
	if m == nil || m.clickWriteFails == nil {
		return
	}
	m.clickWriteFails.WithLabelValues(normalizeLabel(write)).Inc()
}

// SetClickDrift records how many counters the last reconcile repaired
func (m *CatalogMetrics) SetClickDrift(products int64) {
	if m == nil || m.clickDrift == nil {
		return
	}
	m.clickDrift.Set(float64(products))
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
