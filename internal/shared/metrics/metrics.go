package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	submissionStartedTotal    atomic.Uint64
	submissionSucceededTotal  atomic.Uint64
	submissionFailedTotal     atomic.Uint64
	submissionRejectedTotal   atomic.Uint64
	submissionSupersededTotal atomic.Uint64

	submissionDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncSubmissionStarted increments the started counter.
func IncSubmissionStarted() {
	submissionStartedTotal.Add(1)
}

// IncSubmissionSucceeded increments the succeeded counter.
func IncSubmissionSucceeded() {
	submissionSucceededTotal.Add(1)
}

// IncSubmissionFailed increments the failed counter (transport, status or malformed body).
func IncSubmissionFailed() {
	submissionFailedTotal.Add(1)
}

// IncSubmissionRejected counts submissions stopped by local validation.
func IncSubmissionRejected() {
	submissionRejectedTotal.Add(1)
}

// IncSubmissionSuperseded counts responses discarded because a newer submission started.
func IncSubmissionSuperseded() {
	submissionSupersededTotal.Add(1)
}

// ObserveSubmissionDurationMs records the round trip to the analysis service in milliseconds.
func ObserveSubmissionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	submissionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "submission_started_total", "Total submissions started", submissionStartedTotal.Load())
	writeCounter(&buf, "submission_succeeded_total", "Total submissions that produced feedback", submissionSucceededTotal.Load())
	writeCounter(&buf, "submission_failed_total", "Total submissions that failed remotely", submissionFailedTotal.Load())
	writeCounter(&buf, "submission_rejected_total", "Total submissions rejected by local validation", submissionRejectedTotal.Load())
	writeCounter(&buf, "submission_superseded_total", "Total responses discarded for a newer submission", submissionSupersededTotal.Load())
	writeHistogram(&buf, "submission_duration_ms", "Analysis round trip in milliseconds", submissionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	// Observe already counts every bucket whose bound covers the value.
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), snap.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
