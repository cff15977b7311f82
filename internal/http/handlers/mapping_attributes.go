package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/catalog-mapping-backend/internal/http/response"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"
)

// maxImportBytes bounds the size of an uploaded mapping document.
const maxImportBytes = 8 << 20

// GET /api/mapping/attributes/:type
func (h *MappingHandler) GetAttributeState(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	state, err := h.mapping.AttributeState(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, state)
}

type assignAttributeRequest struct {
	MasterKey string `json:"master_key"`
	TargetKey string `json:"target_key"`
}

// POST /api/mapping/attributes/:type/assign
func (h *MappingHandler) AssignAttribute(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req assignAttributeRequest
	if !bind(c, &req) || !requireField(c, "master_key", req.MasterKey) || !requireField(c, "target_key", req.TargetKey) {
		return
	}
	change, err := h.mapping.AssignAttribute(c.Request.Context(), scope, req.MasterKey, req.TargetKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, change)
}

// POST /api/mapping/attributes/:type/clear
func (h *MappingHandler) ClearAttribute(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req assignAttributeRequest
	if !bind(c, &req) || !requireField(c, "master_key", req.MasterKey) {
		return
	}
	change, err := h.mapping.ClearAttribute(c.Request.Context(), scope, req.MasterKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, change)
}

type assignValueRequest struct {
	MasterKey      string  `json:"master_key"`
	MasterValueKey string  `json:"master_value_key"`
	TargetValueKey *string `json:"target_value_key"`
}

// POST /api/mapping/attributes/:type/values/assign
func (h *MappingHandler) AssignAttributeValue(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req assignValueRequest
	if !bind(c, &req) || !requireField(c, "master_key", req.MasterKey) || !requireField(c, "master_value_key", req.MasterValueKey) {
		return
	}
	change, err := h.mapping.AssignAttributeValue(c.Request.Context(), scope, req.MasterKey, req.MasterValueKey, req.TargetValueKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, change)
}

type saveAttributesRequest struct {
	Mappings         mapping.AttributeMapping `json:"mappings"`
	ExpectedRevision int64                    `json:"expected_revision"`
}

// POST /api/mapping/attributes/:type/save
func (h *MappingHandler) SaveAttributes(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req saveAttributesRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.mapping.SaveAttributeMappings(c.Request.Context(), scope, req.Mappings, req.ExpectedRevision)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, result)
}

// POST /api/mapping/attributes/:type/reset
func (h *MappingHandler) ResetAttributes(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	state, err := h.mapping.ResetAttributeMappings(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, state)
}

// POST /api/mapping/attributes/:type/import
// The body is the raw mapping document.
func (h *MappingHandler) ImportAttributes(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(raw) > maxImportBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "document_too_large", fmt.Errorf("document exceeds %d bytes", maxImportBytes))
		return
	}
	summary, err := h.mapping.ImportAttributeMappings(c.Request.Context(), scope, raw)
	if err != nil {
		if summary == nil {
			h.fail(c, err)
			return
		}
		h.failWith(c, err, "result", summary)
		return
	}
	response.RespondOK(c, summary)
}

// GET /api/mapping/attributes/:type/export
func (h *MappingHandler) ExportAttributes(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	bundle, err := h.mapping.ExportAttributeMappings(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, bundle)
}

type attributeSuggestionsRequest struct {
	Suggestions []suggest.AttributeSuggestion `json:"suggestions"`
}

// POST /api/mapping/attributes/:type/suggestions
func (h *MappingHandler) LoadAttributeSuggestions(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req attributeSuggestionsRequest
	if !bind(c, &req) {
		return
	}
	loaded, err := h.mapping.LoadAttributeSuggestions(c.Request.Context(), scope, req.Suggestions)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, loaded)
}

// POST /api/mapping/attributes/:type/suggestions/apply
func (h *MappingHandler) ApplyAttributeSuggestion(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.applySuggestion(c, scope)
}

// POST /api/mapping/attributes/:type/suggestions/apply-all
func (h *MappingHandler) ApplyAllAttributeSuggestions(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.applyAll(c, scope)
}

// DELETE /api/mapping/attributes/:type/suggestions/:masterKey
func (h *MappingHandler) DismissAttributeSuggestion(c *gin.Context) {
	scope, err := attributeScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.dismiss(c, scope, c.Param("masterKey"))
}
