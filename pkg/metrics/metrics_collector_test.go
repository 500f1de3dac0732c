package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue 从注册表中读取带指定标签的计数器值
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRecordAPICall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsCollector(reg)

	m.RecordAPICall("PUT", 200, 10*time.Millisecond)
	m.RecordAPICall("PUT", 500, 10*time.Millisecond)
	m.RecordAPICall("PUT", 0, 10*time.Millisecond)

	name := "learnhub_api_calls_total"
	assert.Equal(t, 1.0, counterValue(t, reg, name, map[string]string{"method": "PUT", "status": "2xx"}))
	assert.Equal(t, 1.0, counterValue(t, reg, name, map[string]string{"method": "PUT", "status": "5xx"}))
	assert.Equal(t, 1.0, counterValue(t, reg, name, map[string]string{"method": "PUT", "status": "transport_error"}))
}

func TestRecordInteraction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsCollector(reg)

	m.RecordInteraction("like_toggle", "success")
	m.RecordInteraction("like_toggle", "success")
	m.RecordInteraction("like_toggle", "in_flight")

	name := "learnhub_interactions_total"
	assert.Equal(t, 2.0, counterValue(t, reg, name, map[string]string{"operation": "like_toggle", "outcome": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, name, map[string]string{"operation": "like_toggle", "outcome": "in_flight"}))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", getStatusCategory(204))
	assert.Equal(t, "4xx", getStatusCategory(404))
	assert.Equal(t, "transport_error", getStatusCategory(0))
}
