package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/catalog-mapping-backend/internal/http/response"
)

const defaultPageLimit = 50

type validateDefaultsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// POST /api/mapping/default-categories/validate
func (h *MappingHandler) ValidateDefaultCategories(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	req := validateDefaultsRequest{Limit: defaultPageLimit}
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Limit <= 0 {
		req.Limit = defaultPageLimit
	}
	page, err := h.mapping.ValidateDefaultCategories(c.Request.Context(), scope, req.Offset, req.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, page)
}

type applyDefaultRequest struct {
	ProductID  string  `json:"product_id"`
	Target     string  `json:"target"`
	CategoryID *string `json:"category_id"`
}

// POST /api/mapping/default-categories/apply
func (h *MappingHandler) ApplyDefaultCategory(c *gin.Context) {
	scope, err := categoryScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req applyDefaultRequest
	if !bind(c, &req) || !requireField(c, "product_id", req.ProductID) {
		return
	}
	row, err := h.mapping.ApplyDefaultCategory(c.Request.Context(), scope, req.ProductID, req.Target, req.CategoryID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"default_category": row})
}
