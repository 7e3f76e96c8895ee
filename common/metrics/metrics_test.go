package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"cemas.ai/backend/common/metrics"
)

func counterValue(reg *prometheus.Registry, name string, labels map[string]string) float64 {
	families, err := reg.Gather()
	Expect(err).NotTo(HaveOccurred())

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

var _ = Describe("Metrics", func() {
	var (
		reg *prometheus.Registry
		m   *metrics.Metrics
	)

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
		m = metrics.New(reg)
	})

	It("counts completion attempts per outcome", func() {
		m.RecordCompletionAttempt("success", 10*time.Millisecond)
		m.RecordCompletionAttempt("provider_unavailable", time.Millisecond)
		m.RecordCompletionAttempt("provider_unavailable", time.Millisecond)

		Expect(counterValue(reg, "cemas_completion_attempts_total", map[string]string{"outcome": "success"})).To(Equal(1.0))
		Expect(counterValue(reg, "cemas_completion_attempts_total", map[string]string{"outcome": "provider_unavailable"})).To(Equal(2.0))
	})

	It("counts replies, insights and requests", func() {
		m.RecordAssistantReply("failed")
		m.RecordInsight("success")
		m.RecordHTTPRequest("POST", "/api/v1/conversations/:id/messages", "201", time.Millisecond)

		Expect(counterValue(reg, "cemas_assistant_replies_total", map[string]string{"status": "failed"})).To(Equal(1.0))
		Expect(counterValue(reg, "cemas_insights_total", map[string]string{"outcome": "success"})).To(Equal(1.0))
		Expect(counterValue(reg, "cemas_http_requests_total", map[string]string{"route": "/api/v1/conversations/:id/messages", "status": "201"})).To(Equal(1.0))
	})

	It("ignores calls on a nil receiver", func() {
		var nilMetrics *metrics.Metrics
		Expect(func() {
			nilMetrics.RecordCompletionAttempt("success", time.Second)
			nilMetrics.RecordAssistantReply("generated")
			nilMetrics.RecordInsight("failed")
			nilMetrics.RecordHTTPRequest("GET", "/", "200", time.Second)
		}).NotTo(Panic())
	})
})
