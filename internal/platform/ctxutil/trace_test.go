package ctxutil

import (
	"context"
	"testing"
)

func TestLogFields(t *testing.T) {
	if got := LogFields(context.Background()); got != nil {
		t.Fatalf("expected no fields, got %v", got)
	}
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1"})
	got := LogFields(ctx)
	if len(got) != 2 || got[0] != "trace_id" || got[1] != "t1" {
		t.Fatalf("unexpected fields: %v", got)
	}
	ctx = WithTraceData(ctx, &TraceData{TraceID: "t2", RequestID: "r2"})
	if got := LogFields(ctx); len(got) != 4 {
		t.Fatalf("expected trace and request id, got %v", got)
	}
}

func TestLogFieldsIncludesShopPair(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{MasterShopID: "m", TargetShopID: "t"})
	got := LogFields(ctx)
	if len(got) != 4 || got[0] != "master_shop_id" || got[3] != "t" {
		t.Fatalf("unexpected fields: %v", got)
	}
}
