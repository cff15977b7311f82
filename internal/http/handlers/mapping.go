package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/catalog-mapping-backend/internal/http/response"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
	"github.com/yungbote/catalog-mapping-backend/internal/services"
)

type MappingHandler struct {
	log     *logger.Logger
	mapping services.MappingService
}

func NewMappingHandler(log *logger.Logger, mappingService services.MappingService) *MappingHandler {
	return &MappingHandler{log: log.With("handler", "MappingHandler"), mapping: mappingService}
}

// categoryScope reads the shop pair from the query string.
func categoryScope(c *gin.Context) (mapping.Scope, error) {
	scope := mapping.CategoryScope(c.Query("master_shop_id"), c.Query("target_shop_id"))
	return scope, scope.Validate()
}

// attributeScope adds the :type path parameter to the shop pair.
func attributeScope(c *gin.Context) (mapping.Scope, error) {
	typ, err := mapping.ParseAttributeType(c.Param("type"))
	if err != nil {
		return mapping.Scope{}, fmt.Errorf("%w: %v", mapping.ErrMissingSelection, err)
	}
	scope := mapping.AttributeScope(typ, c.Query("master_shop_id"), c.Query("target_shop_id"))
	return scope, scope.Validate()
}

func (h *MappingHandler) fail(c *gin.Context, err error) {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		h.log.Error("Mapping request failed", "path", c.FullPath(), "error", err)
	}
	response.RespondAPIError(c, ae)
}

// bind decodes the JSON body into dst and answers 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func requireField(c *gin.Context, name, value string) bool {
	if strings.TrimSpace(value) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("%s is required", name))
		return false
	}
	return true
}

// GET /api/mapping/categories
func (h *MappingHandler) GetCategoryTree(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.mapping.CategoryTree(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, view)
}

type confirmRequest struct {
	MasterID string `json:"master_id"`
	TargetID string `json:"target_id"`
}

// POST /api/mapping/categories/confirm
func (h *MappingHandler) ConfirmCategory(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req confirmRequest
	if !bind(c, &req) || !requireField(c, "master_id", req.MasterID) || !requireField(c, "target_id", req.TargetID) {
		return
	}
	change, err := h.mapping.ConfirmMapping(c.Request.Context(), scope, req.MasterID, req.TargetID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, change)
}

type rejectRequest struct {
	MasterID string `json:"master_id"`
	Reason   string `json:"reason"`
}

// POST /api/mapping/categories/reject
func (h *MappingHandler) RejectCategory(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req rejectRequest
	if !bind(c, &req) || !requireField(c, "master_id", req.MasterID) {
		return
	}
	change, err := h.mapping.RejectMapping(c.Request.Context(), scope, req.MasterID, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, change)
}

// POST /api/mapping/categories/clear
func (h *MappingHandler) ClearCategory(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req rejectRequest
	if !bind(c, &req) || !requireField(c, "master_id", req.MasterID) {
		return
	}
	change, err := h.mapping.ClearCategoryMapping(c.Request.Context(), scope, req.MasterID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, change)
}

// POST /api/mapping/categories/save
func (h *MappingHandler) SaveCategories(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	change, err := h.mapping.SaveCategoryMappings(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, change)
}

// POST /api/mapping/categories/reset
func (h *MappingHandler) ResetCategories(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.mapping.ResetCategoryMappings(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, view)
}

type categorySuggestionsRequest struct {
	Suggestions []suggest.CategorySuggestion `json:"suggestions"`
}

// POST /api/mapping/categories/suggestions
func (h *MappingHandler) LoadCategorySuggestions(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req categorySuggestionsRequest
	if !bind(c, &req) {
		return
	}
	loaded, err := h.mapping.LoadCategorySuggestions(c.Request.Context(), scope, req.Suggestions)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, loaded)
}

type applySuggestionRequest struct {
	MasterRef string `json:"master_ref"`
}

type applyAllRequest struct {
	Threshold *float64 `json:"threshold"`
}

func (h *MappingHandler) applySuggestion(c *gin.Context, scope mapping.Scope) {
	var req applySuggestionRequest
	if !bind(c, &req) || !requireField(c, "master_ref", req.MasterRef) {
		return
	}
	outcome, err := h.mapping.ApplySuggestion(c.Request.Context(), scope, req.MasterRef)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, outcome)
}

func (h *MappingHandler) applyAll(c *gin.Context, scope mapping.Scope) {
	var req applyAllRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	summary, err := h.mapping.ApplySuggestionsAboveThreshold(c.Request.Context(), scope, req.Threshold)
	if err != nil {
		if summary == nil {
			h.fail(c, err)
			return
		}
		// cancelled mid-run: report what was applied
		h.failWith(c, err, "summary", summary)
		return
	}
	response.RespondOK(c, summary)
}

func (h *MappingHandler) dismiss(c *gin.Context, scope mapping.Scope, ref string) {
	if _, err := h.mapping.DismissSuggestion(c.Request.Context(), scope, ref); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/mapping/categories/suggestions/apply
func (h *MappingHandler) ApplyCategorySuggestion(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.applySuggestion(c, scope)
}

// POST /api/mapping/categories/suggestions/apply-all
func (h *MappingHandler) ApplyAllCategorySuggestions(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.applyAll(c, scope)
}

// DELETE /api/mapping/categories/suggestions/:masterId
func (h *MappingHandler) DismissCategorySuggestion(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.dismiss(c, scope, c.Param("masterId"))
}

// failWith renders the error envelope plus a partial result under key.
func (h *MappingHandler) failWith(c *gin.Context, err error, key string, result any) {
	ae := toAPIError(err)
	c.JSON(ae.Status, gin.H{"error": response.APIError{Message: err.Error(), Code: ae.Code}, key: result})
}
