package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/catalog-mapping-backend/internal/domain"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/session"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/validation"
	"github.com/yungbote/catalog-mapping-backend/internal/observability"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-mapping-backend/internal/realtime/bus"
)

// ValidateDefaultCategories checks every product of the target shop against the
// persisted category mapping and returns one page of the aggregated report.
// Defaults applied through ApplyDefaultCategory override the catalog snapshot.
func (s *mappingService) ValidateDefaultCategories(ctx context.Context, scope mapping.Scope, offset, limit int) (page validation.Page, err error) {
	ctx, span := s.startSpan(ctx, "ValidateDefaultCategories", scope)
	defer func() { endSpan(span, err) }()
	if err = scope.Validate(); err != nil {
		return page, err
	}
	products, err := s.source.Products(ctx, scope.MasterShopID, scope.TargetShopID)
	if err != nil {
		return page, fmt.Errorf("fetch products: %w", err)
	}
	products, err = s.overlayDefaults(ctx, scope, products)
	if err != nil {
		return page, err
	}
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		report := cs.Validator().Run(products)
		page = report.Page(offset, limit)
		stats := make(map[string]int, len(report.Stats))
		for reason, n := range report.Stats {
			stats[reason.String()] = n
		}
		observability.Current().ObserveValidation(stats)
		span.SetAttributes(attribute.Int("validation.products", len(products)), attribute.Int("validation.issues", report.Total))
		s.log.Info("Default categories validated", "scope", scope.Key(), "products", len(products), "issues", report.Total)
		return nil
	})
	return page, err
}

// overlayDefaults replaces snapshot defaults with the ones recorded locally.
func (s *mappingService) overlayDefaults(ctx context.Context, scope mapping.Scope, products []validation.ProductSnapshot) ([]validation.ProductSnapshot, error) {
	if len(products) == 0 {
		return products, nil
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ProductID)
	}
	var masterRows, shopRows []*types.ProductDefaultCategory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		masterRows, err = s.defaultsRepo.ListByProducts(dbctx.Context{Ctx: gctx}, types.SideMaster, scope.MasterShopID, ids)
		return err
	})
	g.Go(func() error {
		var err error
		shopRows, err = s.defaultsRepo.ListByProducts(dbctx.Context{Ctx: gctx}, types.SideShop, scope.TargetShopID, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load default categories: %w", err)
	}
	if len(masterRows) == 0 && len(shopRows) == 0 {
		return products, nil
	}
	master := indexDefaults(masterRows)
	shop := indexDefaults(shopRows)

	out := make([]validation.ProductSnapshot, len(products))
	for i, p := range products {
		if id, ok := master[p.ProductID]; ok {
			p.MasterCategoryGUID = id
		}
		if id, ok := shop[p.ProductID]; ok {
			target := validation.TargetSnapshot{}
			if p.Target != nil {
				target = *p.Target
			}
			target.ActualCategoryID = id
			p.Target = &target
		}
		out[i] = p
	}
	return out, nil
}

func indexDefaults(rows []*types.ProductDefaultCategory) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.CategoryID != nil {
			out[r.ProductID] = *r.CategoryID
		} else {
			out[r.ProductID] = ""
		}
	}
	return out
}

// ApplyDefaultCategory records the default category of a product on one side.
// categoryID must exist in the matching tree; nil removes the default.
func (s *mappingService) ApplyDefaultCategory(ctx context.Context, scope mapping.Scope, productID, side string, categoryID *string) (row *types.ProductDefaultCategory, err error) {
	ctx, span := s.startSpan(ctx, "ApplyDefaultCategory", scope)
	defer func() { endSpan(span, err) }()
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product not selected", mapping.ErrMissingSelection)
	}
	side = strings.ToLower(strings.TrimSpace(side))
	if side != types.SideMaster && side != types.SideShop {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidSide, side)
	}
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		var resolved *string
		if categoryID != nil && strings.TrimSpace(*categoryID) != "" {
			ref := strings.TrimSpace(*categoryID)
			var (
				id string
				ok bool
			)
			if side == types.SideMaster {
				id, ok = cs.Merger().Canonical().Resolve(ref)
				if !ok {
					return &mapping.ReferenceError{Kind: mapping.RefCanonicalNode, Key: ref}
				}
			} else {
				id, ok = cs.Merger().Shop().Resolve(ref)
				if !ok {
					return &mapping.ReferenceError{Kind: mapping.RefShopNode, Key: ref}
				}
			}
			resolved = &id
		}
		shopID := scope.TargetShopID
		if side == types.SideMaster {
			shopID = scope.MasterShopID
		}
		stored, err := s.defaultsRepo.Upsert(dbctx.Context{Ctx: ctx}, &types.ProductDefaultCategory{
			ProductID:  productID,
			Side:       side,
			ShopID:     shopID,
			CategoryID: resolved,
		})
		if err != nil {
			return fmt.Errorf("store default category: %w", err)
		}
		row = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Default category applied", "scope", scope.Key(), "product_id", productID, "side", side)
	s.publish(ctx, bus.Event{
		Type:         bus.EventDefaultCategory,
		Scope:        scope.Key(),
		MasterShopID: scope.MasterShopID,
		TargetShopID: scope.TargetShopID,
		Changed:      1,
	})
	return row, nil
}
