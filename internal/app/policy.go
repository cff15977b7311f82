package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/catalog-mapping-backend/internal/platform/envutil"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
	"github.com/yungbote/catalog-mapping-backend/internal/services"
)

// LoadPolicy starts from the default policy, overlays the YAML file at path
// when set, then AI_APPLY_THRESHOLD when set.
func LoadPolicy(log *logger.Logger, path string) (services.MappingPolicy, error) {
	policy := services.DefaultMappingPolicy()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return policy, fmt.Errorf("read mapping policy: %w", err)
		}
		if err := yaml.Unmarshal(raw, &policy); err != nil {
			return policy, fmt.Errorf("parse mapping policy %s: %w", path, err)
		}
		log.Info("Loaded mapping policy", "path", path)
	}
	if strings.TrimSpace(os.Getenv("AI_APPLY_THRESHOLD")) != "" {
		policy.Threshold = envutil.Float("AI_APPLY_THRESHOLD", policy.Threshold, log)
	}
	if policy.Threshold < 0 || policy.Threshold > 1 {
		return policy, fmt.Errorf("mapping policy threshold %.3f outside [0,1]", policy.Threshold)
	}
	return policy, nil
}
