package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Métricas del flujo de autorización. Paquete standalone para evitar ciclos
// de import entre las capas HTTP y los services.

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "janus_http_requests_total",
		Help: "Requests HTTP por path y status",
	}, []string{"path", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "janus_http_request_duration_ms",
		Help:    "Latencia HTTP en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"path", "method"})

	AuthCodesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "janus_auth_codes_issued_total",
		Help: "Authorization codes emitidos",
	})

	AuthCodeReplays = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "janus_auth_code_replays_total",
		Help: "Intentos de canje repetido (código revocado)",
	})

	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "janus_tokens_issued_total",
		Help: "Tokens emitidos por tipo",
	}, []string{"type"})
)

// Register registra las métricas en el registry dado (o el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		HTTPRequests, HTTPDuration, AuthCodesIssued, AuthCodeReplays, TokensIssued,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusWriter captura el status para las métricas HTTP.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	return sw.ResponseWriter.Write(b)
}

// Middleware instrumenta requests HTTP con contador y latencia por ruta.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.URL.Path, r.Method).Observe(float64(time.Since(start).Milliseconds()))
	})
}
