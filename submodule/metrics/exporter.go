package metrics

import (
	"net/http"
	"sync"

	"contrib.go.opencensus.io/exporter/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/stats/view"

	logging "github.com/memoio/go-betawallet/lib/log"
)

var logger = logging.Logger("metrics")

var (
	exportOnce sync.Once
	exporter   http.Handler
)

// Exporter registers the default views and serves them in prometheus format.
// The collector is registered once per process.
func Exporter() http.Handler {
	exportOnce.Do(func() {
		exporter = newExporter()
	})
	return exporter
}

func newExporter() http.Handler {
	err := view.Register(DefaultViews...)
	if err != nil {
		logger.Warnf("register metric views: %s", err)
	}

	registry, ok := promclient.DefaultRegisterer.(*promclient.Registry)
	if !ok {
		logger.Warnf("failed to export default prometheus registry; some metrics will be unavailable; unexpected type: %T", promclient.DefaultRegisterer)
	}
	pe, err := prometheus.NewExporter(prometheus.Options{
		Registry:  registry,
		Namespace: "bwallet",
	})
	if err != nil {
		logger.Errorf("could not create the prometheus stats exporter: %v", err)
		return http.NotFoundHandler()
	}

	return pe
}
