package app

import (
	"strings"

	"github.com/yungbote/catalog-mapping-backend/internal/observability"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/envutil"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
	"github.com/yungbote/catalog-mapping-backend/internal/realtime/bus"
)

type Config struct {
	Port        string
	CORSOrigins []string

	// CatalogFile is the JSON fixture served as catalog data; empty serves nothing.
	CatalogFile string
	PolicyFile  string

	RedisAddr    string
	RedisChannel string

	MetricsEnabled bool
	MetricsAddr    string
	Otel           observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:           envutil.String("PORT", "8080", log),
		CORSOrigins:    splitList(envutil.String("CORS_ORIGINS", "", log)),
		CatalogFile:    envutil.String("CATALOG_FILE", "", log),
		PolicyFile:     envutil.String("MAPPING_POLICY_FILE", "", log),
		RedisAddr:      envutil.String("REDIS_ADDR", "", log),
		RedisChannel:   envutil.String("REDIS_CHANNEL", bus.DefaultChannel, log),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true, log),
		MetricsAddr:    envutil.String("METRICS_ADDR", "", log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "catalog-mapping", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "", log),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1, log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.Secret("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
