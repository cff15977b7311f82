package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/catalog-mapping-backend/internal/data/repos"
	types "github.com/yungbote/catalog-mapping-backend/internal/domain"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/importer"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/session"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/validation"
	"github.com/yungbote/catalog-mapping-backend/internal/observability"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
	"github.com/yungbote/catalog-mapping-backend/internal/realtime/bus"
)

var (
	ErrInvalidDocument = errors.New("invalid import document")
	ErrInvalidSide     = errors.New("side must be master or shop")
)

type MappingService interface {
	CategoryTree(ctx context.Context, scope mapping.Scope) (session.TreeView, error)
	ConfirmMapping(ctx context.Context, scope mapping.Scope, masterRef, targetRef string) (*CategoryChange, error)
	RejectMapping(ctx context.Context, scope mapping.Scope, masterRef, reason string) (*CategoryChange, error)
	ClearCategoryMapping(ctx context.Context, scope mapping.Scope, masterRef string) (*CategoryChange, error)
	SaveCategoryMappings(ctx context.Context, scope mapping.Scope) (*CategoryChange, error)
	ResetCategoryMappings(ctx context.Context, scope mapping.Scope) (session.TreeView, error)

	AttributeState(ctx context.Context, scope mapping.Scope) (session.AttributeState, error)
	AssignAttribute(ctx context.Context, scope mapping.Scope, masterKey, targetKey string) (*AttributeChange, error)
	ClearAttribute(ctx context.Context, scope mapping.Scope, masterKey string) (*AttributeChange, error)
	AssignAttributeValue(ctx context.Context, scope mapping.Scope, masterKey, masterValueKey string, targetValueKey *string) (*AttributeChange, error)
	SaveAttributeMappings(ctx context.Context, scope mapping.Scope, mappings mapping.AttributeMapping, expectedRevision int64) (*SaveResult, error)
	ResetAttributeMappings(ctx context.Context, scope mapping.Scope) (session.AttributeState, error)
	ImportAttributeMappings(ctx context.Context, scope mapping.Scope, raw []byte) (*ImportSummary, error)
	ExportAttributeMappings(ctx context.Context, scope mapping.Scope) (importer.Bundle, error)

	LoadCategorySuggestions(ctx context.Context, scope mapping.Scope, suggestions []suggest.CategorySuggestion) (*SuggestionsLoaded, error)
	LoadAttributeSuggestions(ctx context.Context, scope mapping.Scope, suggestions []suggest.AttributeSuggestion) (*SuggestionsLoaded, error)
	ApplySuggestion(ctx context.Context, scope mapping.Scope, masterRef string) (*suggest.Outcome, error)
	ApplySuggestionsAboveThreshold(ctx context.Context, scope mapping.Scope, threshold *float64) (*BulkSummary, error)
	DismissSuggestion(ctx context.Context, scope mapping.Scope, masterRef string) (bool, error)

	ValidateDefaultCategories(ctx context.Context, scope mapping.Scope, offset, limit int) (validation.Page, error)
	ApplyDefaultCategory(ctx context.Context, scope mapping.Scope, productID, side string, categoryID *string) (*types.ProductDefaultCategory, error)

	HandleEvent(ev bus.Event)
}

// CategoryChange is the result of a category mutation.
type CategoryChange struct {
	MasterID  string            `json:"master_id,omitempty"`
	Mapping   *taxonomy.Mapping `json:"mapping"`
	Displaced []string          `json:"displaced,omitempty"`
	Committed int               `json:"committed"`
	Summary   taxonomy.Summary  `json:"summary"`
	Dirty     bool              `json:"dirty"`
}

// AttributeChange is the result of an attribute draft mutation.
type AttributeChange struct {
	MasterKey string   `json:"master_key"`
	Displaced []string `json:"displaced,omitempty"`
	Dirty     bool     `json:"dirty"`
}

type SaveResult struct {
	Revision int64 `json:"revision"`
	Changed  bool  `json:"changed"`
}

type ImportSummary struct {
	Result   importer.Result `json:"result"`
	Message  string          `json:"message"`
	Warnings []string        `json:"warnings"`
	Dirty    bool            `json:"dirty"`
}

type SuggestionsLoaded struct {
	Pending int `json:"pending"`
	Dropped int `json:"dropped"`
}

type BulkSummary struct {
	Threshold float64           `json:"threshold"`
	Applied   int               `json:"applied"`
	Eligible  int               `json:"eligible"`
	Failed    int               `json:"failed"`
	Message   string            `json:"message"`
	Warnings  []string          `json:"warnings"`
	Outcomes  []suggest.Outcome `json:"outcomes,omitempty"`
	Failures  []suggest.Failure `json:"failures,omitempty"`
	Pending   int               `json:"pending"`
	Dirty     bool              `json:"dirty"`
}

type mappingService struct {
	db           *gorm.DB
	log          *logger.Logger
	source       CatalogSource
	categoryRepo repos.CategoryMappingRepo
	setRepo      repos.AttributeMappingSetRepo
	defaultsRepo repos.ProductDefaultCategoryRepo
	events       bus.Bus
	policy       MappingPolicy
	sessions     *SessionRegistry
	tracer       trace.Tracer
	instanceID   string
}

func NewMappingService(
	db *gorm.DB,
	log *logger.Logger,
	source CatalogSource,
	categoryRepo repos.CategoryMappingRepo,
	setRepo repos.AttributeMappingSetRepo,
	defaultsRepo repos.ProductDefaultCategoryRepo,
	events bus.Bus,
	policy MappingPolicy,
) MappingService {
	serviceLog := log.With("service", "MappingService")
	return &mappingService{
		db:           db,
		log:          serviceLog,
		source:       source,
		categoryRepo: categoryRepo,
		setRepo:      setRepo,
		defaultsRepo: defaultsRepo,
		events:       events,
		policy:       policy.normalized(),
		sessions:     NewSessionRegistry(),
		tracer:       otel.Tracer("catalog-mapping/services"),
		instanceID:   uuid.NewString(),
	}
}

// opSpan pairs a trace span with the data needed to record the operation metric.
type opSpan struct {
	trace.Span
	op    string
	start time.Time
}

func (s *mappingService) startSpan(ctx context.Context, name string, scope mapping.Scope) (context.Context, *opSpan) {
	ctx, span := s.tracer.Start(ctx, "MappingService."+name, trace.WithAttributes(
		attribute.String("mapping.scope", scope.Key()),
	))
	return ctx, &opSpan{Span: span, op: name, start: time.Now()}
}

func endSpan(span *opSpan, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	observability.Current().ObserveMappingOp(span.op, err, time.Since(span.start))
	span.End()
}

// withCategory runs fn on the category session of scope while holding the scope lock.
func (s *mappingService) withCategory(ctx context.Context, scope mapping.Scope, fn func(*session.CategorySession) error) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if !scope.IsCategory() {
		return fmt.Errorf("%w: category scope required", mapping.ErrMissingSelection)
	}
	entry, unlock := s.sessions.acquire(scope)
	defer unlock()
	cs, err := s.categorySession(ctx, entry, scope)
	if err != nil {
		return err
	}
	return fn(cs)
}

func (s *mappingService) withAttribute(ctx context.Context, scope mapping.Scope, fn func(*session.AttributeSession) error) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if scope.IsCategory() {
		return fmt.Errorf("%w: attribute type not selected", mapping.ErrMissingSelection)
	}
	entry, unlock := s.sessions.acquire(scope)
	defer unlock()
	as, err := s.attributeSession(ctx, entry, scope)
	if err != nil {
		return err
	}
	return fn(as)
}

// categorySession loads both trees and the persisted rows concurrently on first use.
func (s *mappingService) categorySession(ctx context.Context, entry *scopeEntry, scope mapping.Scope) (*session.CategorySession, error) {
	if entry.category != nil {
		return entry.category, nil
	}
	var (
		canonical []taxonomy.CanonicalNode
		shop      []taxonomy.ShopNode
		rows      []*types.CategoryMapping
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		canonical, err = s.source.CanonicalTree(gctx, scope.MasterShopID)
		if err != nil {
			return fmt.Errorf("fetch canonical tree: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		shop, err = s.source.ShopTree(gctx, scope.TargetShopID)
		if err != nil {
			return fmt.Errorf("fetch shop tree: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rows, err = s.categoryRepo.ListByScope(dbctx.Context{Ctx: gctx}, scope.MasterShopID, scope.TargetShopID)
		if err != nil {
			return fmt.Errorf("load category mappings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cs, err := session.NewCategorySession(scope, canonical, shop, s.categoryMappingsFromRows(rows), s.policy.suggestOptions())
	if err != nil {
		return nil, err
	}
	s.log.Debug("Category session opened", "scope", scope.Key(), "canonical", len(canonical), "shop", len(shop), "mappings", len(rows))
	entry.category = cs
	return cs, nil
}

func (s *mappingService) categoryMappingsFromRows(rows []*types.CategoryMapping) mapping.CategoryMappings {
	out := make(mapping.CategoryMappings, len(rows))
	for _, row := range rows {
		if row == nil || row.CanonicalNodeID == "" {
			continue
		}
		status, err := taxonomy.ParseMappingStatus(row.Status)
		if err != nil {
			s.log.Warn("Skipping category mapping with unknown status", "canonical_node_id", row.CanonicalNodeID, "status", row.Status)
			continue
		}
		m := taxonomy.Mapping{
			Status:             status,
			ShopCategoryNodeID: row.ShopCategoryNodeID,
			Similarity:         row.Similarity,
			Reason:             row.Reason,
		}
		if err := m.Validate(); err != nil {
			s.log.Warn("Skipping invalid category mapping", "canonical_node_id", row.CanonicalNodeID, "error", err)
			continue
		}
		out[row.CanonicalNodeID] = m.Clone()
	}
	return out
}

func categoryRow(scope mapping.Scope, canonicalID string, m taxonomy.Mapping) *types.CategoryMapping {
	m = m.Clone()
	return &types.CategoryMapping{
		MasterShopID:       scope.MasterShopID,
		TargetShopID:       scope.TargetShopID,
		CanonicalNodeID:    canonicalID,
		ShopCategoryNodeID: m.ShopCategoryNodeID,
		Status:             m.Status.String(),
		Similarity:         m.Similarity,
		Reason:             m.Reason,
	}
}

// commitCategories persists the draft of the given canonical ids in one
// transaction and rebases the baseline on them. A nil keys slice commits the
// whole draft. Draft edits of other ids stay unsaved; on failure the draft is
// left untouched.
func (s *mappingService) commitCategories(ctx context.Context, cs *session.CategorySession, keys []string) (int, error) {
	store := cs.Store()
	persisted, working := store.Persisted(), store.Working()
	next := working
	if keys != nil {
		next = persisted.Rebased(working, keys)
	}
	upserts, removed := persisted.Diff(next)
	if len(upserts) == 0 && len(removed) == 0 {
		return 0, nil
	}
	scope := cs.Scope()
	rows := make([]*types.CategoryMapping, 0, len(upserts))
	for _, id := range upserts {
		rows = append(rows, categoryRow(scope, id, next[id]))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.categoryRepo.Upsert(dbc, rows); err != nil {
			return err
		}
		if _, err := s.categoryRepo.DeleteByCanonicalNodes(dbc, scope.MasterShopID, scope.TargetShopID, removed); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.log.Error("Category mapping commit failed", "scope", scope.Key(), "error", err)
		return 0, fmt.Errorf("commit category mappings: %w", err)
	}
	store.Rebase(next)
	changed := len(upserts) + len(removed)
	s.publish(ctx, bus.Event{
		Type:         bus.EventMappingCommitted,
		Scope:        scope.Key(),
		MasterShopID: scope.MasterShopID,
		TargetShopID: scope.TargetShopID,
		Changed:      changed,
	})
	return changed, nil
}

func (s *mappingService) publish(ctx context.Context, ev bus.Event) {
	if s.events == nil {
		return
	}
	ev.Origin = s.instanceID
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("Mapping event publish failed", "type", ev.Type, "scope", ev.Scope, "error", err)
		return
	}
	observability.Current().IncBusEvent(ev.Type, "out")
}

// HandleEvent drops clean sessions of scopes committed by another instance.
func (s *mappingService) HandleEvent(ev bus.Event) {
	if ev.Origin == s.instanceID || ev.Scope == "" {
		return
	}
	observability.Current().IncBusEvent(ev.Type, "in")
	if s.sessions.Invalidate(ev.Scope) {
		s.log.Info("Session invalidated by remote commit", "scope", ev.Scope, "type", ev.Type)
	}
}

func resolveCanonical(cs *session.CategorySession, ref string) string {
	if id, ok := cs.Merger().Canonical().Resolve(ref); ok {
		return id
	}
	return ref
}

func resolveShop(cs *session.CategorySession, ref string) string {
	if id, ok := cs.Merger().Shop().Resolve(ref); ok {
		return id
	}
	return ref
}

func (s *mappingService) CategoryTree(ctx context.Context, scope mapping.Scope) (view session.TreeView, err error) {
	ctx, span := s.startSpan(ctx, "CategoryTree", scope)
	defer func() { endSpan(span, err) }()
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		view = cs.Tree()
		return nil
	})
	return view, err
}

func (s *mappingService) changeOf(cs *session.CategorySession, masterID string, displaced []string, committed int) *CategoryChange {
	out := &CategoryChange{
		MasterID:  masterID,
		Displaced: displaced,
		Committed: committed,
		Summary:   cs.Merger().Summary(),
		Dirty:     cs.Store().IsDirty(),
	}
	if m, ok := cs.Merger().Current(masterID); ok {
		out.Mapping = &m
	}
	return out
}

// ConfirmMapping links masterRef to targetRef as a human-confirmed mapping and
// commits that link together with the links it displaced.
func (s *mappingService) ConfirmMapping(ctx context.Context, scope mapping.Scope, masterRef, targetRef string) (change *CategoryChange, err error) {
	ctx, span := s.startSpan(ctx, "ConfirmMapping", scope)
	defer func() { endSpan(span, err) }()
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		masterID, targetID := resolveCanonical(cs, masterRef), resolveShop(cs, targetRef)
		displaced, err := cs.Merger().Confirm(masterID, targetID, mapping.AssignOptions{})
		if err != nil {
			return err
		}
		if len(displaced) > 0 {
			s.log.Info("Category mapping displaced", "scope", scope.Key(), "master_id", masterID, "target_id", targetID, "displaced", displaced)
		}
		committed, err := s.commitCategories(ctx, cs, append([]string{masterID}, displaced...))
		if err != nil {
			return err
		}
		change = s.changeOf(cs, masterID, displaced, committed)
		return nil
	})
	return change, err
}

func (s *mappingService) RejectMapping(ctx context.Context, scope mapping.Scope, masterRef, reason string) (change *CategoryChange, err error) {
	ctx, span := s.startSpan(ctx, "RejectMapping", scope)
	defer func() { endSpan(span, err) }()
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		masterID := resolveCanonical(cs, masterRef)
		if err := cs.Merger().Reject(masterID, reason); err != nil {
			return err
		}
		committed, err := s.commitCategories(ctx, cs, []string{masterID})
		if err != nil {
			return err
		}
		change = s.changeOf(cs, masterID, nil, committed)
		return nil
	})
	return change, err
}

func (s *mappingService) ClearCategoryMapping(ctx context.Context, scope mapping.Scope, masterRef string) (change *CategoryChange, err error) {
	ctx, span := s.startSpan(ctx, "ClearCategoryMapping", scope)
	defer func() { endSpan(span, err) }()
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		masterID := resolveCanonical(cs, masterRef)
		if err := cs.Merger().Clear(masterID); err != nil {
			return err
		}
		committed, err := s.commitCategories(ctx, cs, []string{masterID})
		if err != nil {
			return err
		}
		change = s.changeOf(cs, masterID, nil, committed)
		return nil
	})
	return change, err
}

// SaveCategoryMappings commits the draft, including AI suggestions applied to it.
func (s *mappingService) SaveCategoryMappings(ctx context.Context, scope mapping.Scope) (change *CategoryChange, err error) {
	ctx, span := s.startSpan(ctx, "SaveCategoryMappings", scope)
	defer func() { endSpan(span, err) }()
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		committed, err := s.commitCategories(ctx, cs, nil)
		if err != nil {
			return err
		}
		change = s.changeOf(cs, "", nil, committed)
		return nil
	})
	return change, err
}

func (s *mappingService) ResetCategoryMappings(ctx context.Context, scope mapping.Scope) (view session.TreeView, err error) {
	ctx, span := s.startSpan(ctx, "ResetCategoryMappings", scope)
	defer func() { endSpan(span, err) }()
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		cs.Store().Reset()
		view = cs.Tree()
		return nil
	})
	return view, err
}
