package logger

import (
	"strings"
	"testing"
)

func TestSanitizeMasksCredentials(t *testing.T) {
	l := &Logger{maxValueLen: 8}
	out := l.sanitize([]interface{}{"postgres_dsn", "host=db password=x", "OTLP_Headers", "a=b", "scope", "categories:a->b", "dangling"})

	if out[1] != "[REDACTED]" || out[3] != "[REDACTED]" {
		t.Fatalf("credentials not masked: %v", out)
	}
	if s, _ := out[5].(string); !strings.HasPrefix(s, "categori...") || !strings.HasSuffix(s, "(15 bytes)") {
		t.Fatalf("long value not truncated: %q", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("odd trailing key dropped: %v", out)
	}
}

func TestParseLevelFallsBack(t *testing.T) {
	if got := parseLevel("bogus", 1); got != 1 {
		t.Fatalf("want fallback, got %v", got)
	}
	if got := parseLevel(" WARN ", 0); got.String() != "warn" {
		t.Fatalf("want warn, got %v", got)
	}
	if maxValueLen("-3") != defaultMaxValueLen || maxValueLen("64") != 64 {
		t.Fatalf("maxValueLen parsing")
	}
}
