package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/catalog-mapping-backend/internal/http/handlers"
	httpMW "github.com/yungbote/catalog-mapping-backend/internal/http/middleware"
	"github.com/yungbote/catalog-mapping-backend/internal/observability"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	HealthHandler  *httpH.HealthHandler
	MappingHandler *httpH.MappingHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins...))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	h := cfg.MappingHandler
	if h == nil {
		return r
	}
	api := r.Group("/api/mapping")
	{
		// Categories
		api.GET("/categories", h.GetCategoryTree)
		api.POST("/categories/confirm", h.ConfirmCategory)
		api.POST("/categories/reject", h.RejectCategory)
		api.POST("/categories/clear", h.ClearCategory)
		api.POST("/categories/save", h.SaveCategories)
		api.POST("/categories/reset", h.ResetCategories)
		api.POST("/categories/suggestions", h.LoadCategorySuggestions)
		api.POST("/categories/suggestions/apply", h.ApplyCategorySuggestion)
		api.POST("/categories/suggestions/apply-all", h.ApplyAllCategorySuggestions)
		api.DELETE("/categories/suggestions/:masterId", h.DismissCategorySuggestion)

		// Attributes
		attrs := api.Group("/attributes/:type")
		attrs.GET("", h.GetAttributeState)
		attrs.POST("/assign", h.AssignAttribute)
		attrs.POST("/clear", h.ClearAttribute)
		attrs.POST("/values/assign", h.AssignAttributeValue)
		attrs.POST("/save", h.SaveAttributes)
		attrs.POST("/reset", h.ResetAttributes)
		attrs.POST("/import", h.ImportAttributes)
		attrs.GET("/export", h.ExportAttributes)
		attrs.POST("/suggestions", h.LoadAttributeSuggestions)
		attrs.POST("/suggestions/apply", h.ApplyAttributeSuggestion)
		attrs.POST("/suggestions/apply-all", h.ApplyAllAttributeSuggestions)
		attrs.DELETE("/suggestions/:masterKey", h.DismissAttributeSuggestion)

		// Default categories
		api.POST("/default-categories/validate", h.ValidateDefaultCategories)
		api.POST("/default-categories/apply", h.ApplyDefaultCategory)
	}

	return r
}
