package api

// EnablePrometheusMetrics enables go-chi prometheus metrics under the
// specified ID. If ID is empty, the default "gochi_http" is used. Must be
// called before Start.
func (a *API) EnablePrometheusMetrics(prometheusID string) {
	if prometheusID == "" {
		prometheusID = "gochi_http"
	}
	a.prometheusID = prometheusID
}
