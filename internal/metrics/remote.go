package metrics

import (
	"strconv"
	"time"
)

// RemoteRequest records one catalog API call. Status is the HTTP status
// code, or 0 when the request never got a response.
func RemoteRequest(resource string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	RemoteRequestsTotal.WithLabelValues(resource, label).Inc()
	RemoteRequestDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// PreloadSource records how long a named preload source took to settle.
func PreloadSource(source string, duration time.Duration) {
	PreloadSourceDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// PreloadCompleted records a finished orchestration.
func PreloadCompleted(failed bool) {
	if failed {
		PreloadRunsTotal.WithLabelValues("partial").Inc()
		return
	}
	PreloadRunsTotal.WithLabelValues("ok").Inc()
}

// Submission records an edit form submission outcome.
func Submission(outcome string) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// TableFetch records a table fetch outcome.
func TableFetch(failed bool) {
	if failed {
		TableFetchesTotal.WithLabelValues("failed").Inc()
		return
	}
	TableFetchesTotal.WithLabelValues("ok").Inc()
}
