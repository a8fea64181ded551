package exporter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const scrapeReadHeaderTimeout = 5 * time.Second

// newScrapeServer serves reg on path at addr.
func newScrapeServer(addr, path string, reg *prometheus.Registry, selfInstrument bool) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           scrapeMux(path, reg, selfInstrument),
		ReadHeaderTimeout: scrapeReadHeaderTimeout,
	}
}

// scrapeMux routes path to the registry. With selfInstrument the promhttp
// request counters are registered on reg as well.
func scrapeMux(path string, reg *prometheus.Registry, selfInstrument bool) *http.ServeMux {
	// A name reported with two types still yields every consistent family.
	var h http.Handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	})
	if selfInstrument {
		h = promhttp.InstrumentMetricHandler(reg, h)
	}

	mux := http.NewServeMux()
	mux.Handle(path, logScrapes(h))
	return mux
}

// logScrapes logs every served scrape at debug level.
func logScrapes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Debug("served scrape",
			"remote", r.RemoteAddr,
			"status", sw.status,
			"duration", time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
