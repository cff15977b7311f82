package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveMappingOp("ConfirmMapping", nil, time.Millisecond)
	m.ObserveImport(1, 2)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestMetricsWritePrometheus(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("POST", "/api/mapping/categories/confirm", "500", 20*time.Millisecond)
	m.ObserveMappingOp("ConfirmMapping", nil, time.Millisecond)
	m.ObserveMappingOp("ConfirmMapping", errors.New("boom"), time.Millisecond)
	m.ObserveImport(3, 1)
	m.ObserveValidation(map[string]int{"mismatch": 2})

	if got := m.mappingOps.Value("ConfirmMapping", "error"); got != 1 {
		t.Fatalf("error ops: want=1 got=%v", got)
	}
	if got := m.apiErrors.Value(); got != 1 {
		t.Fatalf("server errors: want=1 got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`cm_mapping_operations_total{op="ConfirmMapping",outcome="ok"} 1`,
		`cm_import_rows_total{outcome="applied"} 3`,
		`cm_validation_issues_total{reason="mismatch"} 2`,
		`cm_api_request_duration_seconds_bucket{method="POST",route="/api/mapping/categories/confirm",status="500",le="+Inf"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in exposition:\n%s", want, out)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders("a=1, b = 2,broken,=x")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("unexpected headers: %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
