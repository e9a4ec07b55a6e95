package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvass-labs/survey-cli/internal/config"
)

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FallbackRateThreshold: 0.25,
		MinAvgConfidence:      0.5,
	})

	snap := &MetricsSnapshot{
		RunsTotal:     100,
		FallbackRate:  0.05,
		AvgConfidence: 0.8,
		LookbackHours: 24,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_FallbackRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FallbackRateThreshold: 0.25,
	})

	snap := &MetricsSnapshot{
		RunsTotal:     20,
		FallbackRate:  0.4,
		AvgConfidence: 0.8,
		LookbackHours: 24,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertFallbackRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "40.0%")
}

func TestAlerter_Evaluate_LowConfidence(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		MinAvgConfidence: 0.5,
	})

	snap := &MetricsSnapshot{
		RunsTotal:     20,
		FallbackRate:  0.0,
		AvgConfidence: 0.3,
		ByStrategy:    map[string]int{"pattern_reconstruct": 20},
		LookbackHours: 24,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLowConfidence, alerts[0].Type)
	assert.Equal(t, "medium", alerts[0].Severity)
}

func TestAlerter_Evaluate_SmallSampleSkipped(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FallbackRateThreshold: 0.25,
		MinAvgConfidence:      0.5,
	})

	// Everything is terrible, but only 2 runs. No alerts.
	snap := &MetricsSnapshot{
		RunsTotal:     2,
		FallbackRate:  1.0,
		AvgConfidence: 0.05,
		LookbackHours: 24,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_BothThresholds(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FallbackRateThreshold: 0.25,
		MinAvgConfidence:      0.5,
	})

	snap := &MetricsSnapshot{
		RunsTotal:     50,
		FallbackRate:  0.5,
		AvgConfidence: 0.2,
		LookbackHours: 24,
	}

	alerts := a.Evaluate(snap)
	assert.Len(t, alerts, 2)
}

func TestSendAlerts_Webhook(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		assert.Equal(t, AlertFallbackRate, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	alerts := []Alert{{Type: AlertFallbackRate, Severity: "high", Message: "test"}}

	sent := a.SendAlerts(context.Background(), alerts)
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
}

func TestSendAlerts_WebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertLowConfidence}})
	assert.Equal(t, 0, sent)
}

func TestSendAlerts_NoWebhookConfigured(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertFallbackRate}})
	assert.Equal(t, 0, sent)
}
