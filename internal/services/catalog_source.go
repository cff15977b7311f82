package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/validation"
)

// CatalogSource supplies the catalog snapshots the mapping engine reconciles.
// Fetching and normalizing shop data happens behind it.
type CatalogSource interface {
	CanonicalTree(ctx context.Context, masterShopID string) ([]taxonomy.CanonicalNode, error)
	ShopTree(ctx context.Context, shopID string) ([]taxonomy.ShopNode, error)
	Attributes(ctx context.Context, typ mapping.AttributeType, shopID string) ([]mapping.AttributeMappingItem, error)
	Products(ctx context.Context, masterShopID, targetShopID string) ([]validation.ProductSnapshot, error)
}

// CatalogFixture is the JSON document behind StaticCatalogSource.
type CatalogFixture struct {
	Canonical  map[string][]taxonomy.CanonicalNode                  `json:"canonical"`
	Shops      map[string][]taxonomy.ShopNode                       `json:"shops"`
	Attributes map[string]map[string][]mapping.AttributeMappingItem `json:"attributes"`
	Products   map[string][]validation.ProductSnapshot              `json:"products"`
}

// StaticCatalogSource serves a fixed fixture. Products are keyed by target shop id.
type StaticCatalogSource struct {
	fixture CatalogFixture
}

func NewStaticCatalogSource(fixture CatalogFixture) *StaticCatalogSource {
	return &StaticCatalogSource{fixture: fixture}
}

func LoadCatalogFixture(path string) (*StaticCatalogSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog fixture: %w", err)
	}
	var fx CatalogFixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decode catalog fixture %s: %w", path, err)
	}
	return NewStaticCatalogSource(fx), nil
}

func (s *StaticCatalogSource) Fixture() CatalogFixture { return s.fixture }

func (s *StaticCatalogSource) CanonicalTree(ctx context.Context, masterShopID string) ([]taxonomy.CanonicalNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fixture.Canonical[masterShopID], nil
}

func (s *StaticCatalogSource) ShopTree(ctx context.Context, shopID string) ([]taxonomy.ShopNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fixture.Shops[shopID], nil
}

func (s *StaticCatalogSource) Attributes(ctx context.Context, typ mapping.AttributeType, shopID string) ([]mapping.AttributeMappingItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fixture.Attributes[typ.String()][shopID], nil
}

func (s *StaticCatalogSource) Products(ctx context.Context, _ string, targetShopID string) ([]validation.ProductSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fixture.Products[targetShopID], nil
}
