package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SMSAttempt(true)
	m.SMSAttempt(true)
	m.SMSAttempt(false)
	m.ImportRow("insert", true)
	m.CampaignFinished("sent")
	m.RequestStarted()
	m.RequestFinished("GET", "/members", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.smsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.smsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues("insert", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.campaignsTotal.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/members", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SMSAttempt(true)
		m.ImportRow("update", false)
		m.CampaignFinished("failed")
		m.JobProcessed(true)
		m.RequestStarted()
		m.RequestFinished("POST", "/sms/send", 500, time.Second)
	})
}
