package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies the request an operation runs for and, when the
// caller named one, the shop pair it acts on.
type TraceData struct {
	TraceID      string
	RequestID    string
	MasterShopID string
	TargetShopID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns the non-empty identifiers of ctx as logger key/value pairs.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var fields []interface{}
	for _, f := range []struct{ key, val string }{
		{"trace_id", td.TraceID},
		{"request_id", td.RequestID},
		{"master_shop_id", td.MasterShopID},
		{"target_shop_id", td.TargetShopID},
	} {
		if f.val != "" {
			fields = append(fields, f.key, f.val)
		}
	}
	return fields
}
