package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa os coletores do app. Métodos aceitam receptor nil.
type Metrics struct {
	registry        *prometheus.Registry
	roleResolutions *prometheus.CounterVec
	staleResults    *prometheus.CounterVec
	pageFetches     *prometheus.CounterVec
	pageFetchTime   *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
}

// New registra coletores em um registry próprio.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		roleResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vku",
			Name:      "role_resolutions_total",
			Help:      "Resoluções de papel concluídas, por status final.",
		}, []string{"status"}),
		staleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vku",
			Name:      "stale_results_total",
			Help:      "Resultados descartados por pertencerem a sessão ou página antiga.",
		}, []string{"component"}),
		pageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vku",
			Name:      "page_fetches_total",
			Help:      "Leituras paginadas por coleção e resultado.",
		}, []string{"collection", "outcome"}),
		pageFetchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vku",
			Name:      "page_fetch_duration_seconds",
			Help:      "Duração das leituras paginadas.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vku",
			Name:      "http_requests_total",
			Help:      "Requisições HTTP por método e status.",
		}, []string{"method", "status"}),
	}
	reg.MustRegister(m.roleResolutions, m.staleResults, m.pageFetches, m.pageFetchTime, m.httpRequests)
	return m
}

// Handler expõe /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry devolve o registry (testes).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RoleResolved(status string) {
	if m == nil {
		return
	}
	m.roleResolutions.WithLabelValues(status).Inc()
}

func (m *Metrics) StaleResult(component string) {
	if m == nil {
		return
	}
	m.staleResults.WithLabelValues(component).Inc()
}

func (m *Metrics) PageFetched(collection, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.pageFetches.WithLabelValues(collection, outcome).Inc()
	m.pageFetchTime.WithLabelValues(collection).Observe(dur.Seconds())
}

func (m *Metrics) HTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
