package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric は指定名・ラベル値のメトリクスを返す。ラベルが空の場合は最初の1件。
func findMetric(t *testing.T, reg *prometheus.Registry, name, labelValue string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue == "" {
				return m
			}
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == labelValue {
					return m
				}
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, labelValue)
	return nil
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if NewCollector(reg) == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordHandshake_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHandshakeStarted()
	c.RecordHandshakeStarted()
	c.RecordHandshakeCompleted()
	c.RecordHandshakeFailed("missing_token")

	if v := findMetric(t, reg, "wikicontest_oauth_handshake_started_total", "").GetCounter().GetValue(); v != 2 {
		t.Errorf("started = %v, want 2", v)
	}
	if v := findMetric(t, reg, "wikicontest_oauth_handshake_completed_total", "").GetCounter().GetValue(); v != 1 {
		t.Errorf("completed = %v, want 1", v)
	}
	if v := findMetric(t, reg, "wikicontest_oauth_handshake_failed_total", "missing_token").GetCounter().GetValue(); v != 1 {
		t.Errorf("failed{missing_token} = %v, want 1", v)
	}
}

func TestRecordContestCreateFailed_LabelsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordContestCreateFailed("invalid_date")
	c.RecordContestCreateFailed("invalid_date")
	c.RecordContestCreateFailed("persistence_failure")

	if v := findMetric(t, reg, "wikicontest_contest_create_failed_total", "invalid_date").GetCounter().GetValue(); v != 2 {
		t.Errorf("invalid_date = %v, want 2", v)
	}
	if v := findMetric(t, reg, "wikicontest_contest_create_failed_total", "persistence_failure").GetCounter().GetValue(); v != 1 {
		t.Errorf("persistence_failure = %v, want 1", v)
	}
}

func TestRecordContestsDeactivated_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordContestsDeactivated(3)
	c.RecordContestsDeactivated(0)

	if v := findMetric(t, reg, "wikicontest_contest_deactivated_total", "").GetCounter().GetValue(); v != 3 {
		t.Errorf("deactivated = %v, want 3", v)
	}
}

func TestRecordHTTPStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordHTTPStatus(404)

	if v := findMetric(t, reg, "wikicontest_http_status_total", "404").GetCounter().GetValue(); v != 2 {
		t.Errorf("404 = %v, want 2", v)
	}
}
