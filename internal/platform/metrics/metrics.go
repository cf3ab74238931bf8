package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes the default Prometheus registry; module metrics register
// themselves via promauto.
func Handler() http.Handler {
	return promhttp.Handler()
}
