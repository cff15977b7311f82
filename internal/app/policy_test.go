package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
	"github.com/yungbote/catalog-mapping-backend/internal/services"
)

func TestLoadPolicyDefaults(t *testing.T) {
	t.Setenv("AI_APPLY_THRESHOLD", "")
	got, err := LoadPolicy(logger.NewNop(), "")
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if got != services.DefaultMappingPolicy() {
		t.Fatalf("unexpected policy %+v", got)
	}
}

func TestLoadPolicyFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	doc := "threshold: 0.6\npreserve_confirmed: true\nmax_reported_warnings: 2\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	t.Setenv("AI_APPLY_THRESHOLD", "")
	got, err := LoadPolicy(logger.NewNop(), path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if got.Threshold != 0.6 || !got.PreserveConfirmed || got.MaxReportedWarnings != 2 {
		t.Fatalf("file not applied: %+v", got)
	}

	t.Setenv("AI_APPLY_THRESHOLD", "0.9")
	got, err = LoadPolicy(logger.NewNop(), path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if got.Threshold != 0.9 {
		t.Fatalf("env threshold not applied: %v", got.Threshold)
	}
}

func TestLoadPolicyRejectsOutOfRangeThreshold(t *testing.T) {
	t.Setenv("AI_APPLY_THRESHOLD", "1.5")
	if _, err := LoadPolicy(logger.NewNop(), ""); err == nil {
		t.Fatalf("expected error")
	}
}
