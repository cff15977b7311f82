package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/catalog-mapping-backend/internal/data/repos"
	"github.com/yungbote/catalog-mapping-backend/internal/data/repos/testutil"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/validation"
	"github.com/yungbote/catalog-mapping-backend/internal/realtime/bus"
	"github.com/yungbote/catalog-mapping-backend/internal/services"
)

type apiFixture struct {
	router *gin.Engine
	query  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	master := "m-" + uuid.NewString()
	target := "t-" + uuid.NewString()
	source := services.NewStaticCatalogSource(services.CatalogFixture{
		Canonical: map[string][]taxonomy.CanonicalNode{
			master: {{ID: "c1", GUID: "g1", Name: "Clothing", Children: []taxonomy.CanonicalNode{{ID: "c2", GUID: "g2", Name: "Shirts"}}}},
		},
		Shops: map[string][]taxonomy.ShopNode{
			target: {{ID: "s1", Name: "Apparel", Children: []taxonomy.ShopNode{{ID: "s2", Name: "T-Shirts"}}}},
		},
		Attributes: map[string]map[string][]mapping.AttributeMappingItem{
			"variants": {
				master: {{Key: "color", Label: "Color", Values: []mapping.AttributeValue{{Key: "red", Label: "Red"}}}},
				target: {{Key: "barva", Label: "Barva", Values: []mapping.AttributeValue{{Key: "cervena", Label: "Cervena"}}}},
			},
		},
		Products: map[string][]validation.ProductSnapshot{
			target: {{ProductID: "p1", SKU: "A-1", MasterCategoryGUID: "g2", Target: &validation.TargetSnapshot{ActualCategoryID: "s1"}}},
		},
	})

	log := testutil.Logger(t)
	db := testutil.DB(t)
	svc := services.NewMappingService(
		db,
		log,
		source,
		repos.NewCategoryMappingRepo(db, log),
		repos.NewAttributeMappingSetRepo(db, log),
		repos.NewProductDefaultCategoryRepo(db, log),
		bus.NewMemoryBus(),
		services.DefaultMappingPolicy(),
	)
	h := NewMappingHandler(log, svc)

	r := gin.New()
	api := r.Group("/api/mapping")
	api.GET("/categories", h.GetCategoryTree)
	api.POST("/categories/confirm", h.ConfirmCategory)
	api.DELETE("/categories/suggestions/:masterId", h.DismissCategorySuggestion)
	api.GET("/attributes/:type", h.GetAttributeState)
	api.POST("/attributes/:type/assign", h.AssignAttribute)
	api.POST("/attributes/:type/save", h.SaveAttributes)
	api.POST("/attributes/:type/import", h.ImportAttributes)
	api.POST("/default-categories/validate", h.ValidateDefaultCategories)

	q := url.Values{}
	q.Set("master_shop_id", master)
	q.Set("target_shop_id", target)
	return &apiFixture{router: r, query: "?" + q.Encode()}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func errorCode(t *testing.T, out map[string]any) string {
	t.Helper()
	envelope, ok := out["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", out)
	}
	code, _ := envelope["code"].(string)
	return code
}

func TestMissingShopSelection(t *testing.T) {
	f := newAPIFixture(t)
	rec, out := f.do(t, http.MethodGet, "/api/mapping/categories", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, out); code != "missing_selection" {
		t.Fatalf("code=%q", code)
	}
}

func TestConfirmCategoryFlow(t *testing.T) {
	f := newAPIFixture(t)

	rec, out := f.do(t, http.MethodPost, "/api/mapping/categories/confirm"+f.query, map[string]string{"master_id": "c2", "target_id": "s2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := out["committed"]; got != float64(1) {
		t.Fatalf("committed=%v want 1", got)
	}

	rec, out = f.do(t, http.MethodPost, "/api/mapping/categories/confirm"+f.query, map[string]string{"master_id": "nope", "target_id": "s2"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown node status=%d", rec.Code)
	}
	if code := errorCode(t, out); code != "reference_not_found" {
		t.Fatalf("code=%q", code)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/mapping/categories/confirm"+f.query, map[string]string{"master_id": "c2"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing target status=%d", rec.Code)
	}
}

func TestDismissUnknownSuggestion(t *testing.T) {
	f := newAPIFixture(t)
	rec, out := f.do(t, http.MethodDelete, "/api/mapping/categories/suggestions/c2"+f.query, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	if code := errorCode(t, out); code != "suggestion_not_found" {
		t.Fatalf("code=%q", code)
	}
}

func TestAttributeAssignAndSave(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/mapping/attributes/colors"+f.query, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type status=%d", rec.Code)
	}

	rec, out := f.do(t, http.MethodPost, "/api/mapping/attributes/variants/assign"+f.query, map[string]string{"master_key": "color", "target_key": "barva"})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status=%d body=%s", rec.Code, rec.Body.String())
	}
	if out["dirty"] != true {
		t.Fatalf("expected dirty draft, got %v", out)
	}

	rec, out = f.do(t, http.MethodPost, "/api/mapping/attributes/variants/save"+f.query, map[string]any{"expected_revision": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rec.Code, rec.Body.String())
	}
	if out["revision"] != float64(1) {
		t.Fatalf("revision=%v want 1", out["revision"])
	}

	rec, out = f.do(t, http.MethodPost, "/api/mapping/attributes/variants/save"+f.query, map[string]any{"expected_revision": 0})
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale save status=%d", rec.Code)
	}
	if code := errorCode(t, out); code != "persistence_conflict" {
		t.Fatalf("code=%q", code)
	}
}

func TestImportErrors(t *testing.T) {
	f := newAPIFixture(t)

	rec, out := f.do(t, http.MethodPost, "/api/mapping/attributes/variants/import"+f.query, "not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage status=%d", rec.Code)
	}
	if code := errorCode(t, out); code != "invalid_document" {
		t.Fatalf("code=%q", code)
	}

	rec, out = f.do(t, http.MethodPost, "/api/mapping/attributes/variants/import"+f.query, `[{"master_key":"nope","target_key":"barva"}]`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("nothing imported status=%d body=%s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, out); code != "nothing_to_import" {
		t.Fatalf("code=%q", code)
	}
	if _, ok := out["result"]; !ok {
		t.Fatalf("expected partial result in %v", out)
	}
}

func TestValidateDefaultCategoriesEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	rec, out := f.do(t, http.MethodPost, "/api/mapping/default-categories/validate"+f.query, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if out == nil {
		t.Fatalf("expected a report page")
	}
}

func TestToAPIErrorSeparatesKeyAndValueInjectivity(t *testing.T) {
	keyLevel := toAPIError(&mapping.InjectivityError{Target: "barva", MasterKeys: [2]string{"color", "shade"}})
	if keyLevel.Status != http.StatusUnprocessableEntity || keyLevel.Code != "injectivity_violation" {
		t.Fatalf("key-level: status=%d code=%q", keyLevel.Status, keyLevel.Code)
	}
	valueLevel := toAPIError(&mapping.InjectivityError{Item: "color", Target: "modra", MasterKeys: [2]string{"blue", "red"}})
	if valueLevel.Code != "duplicate_value_usage" {
		t.Fatalf("value-level: code=%q", valueLevel.Code)
	}
}
