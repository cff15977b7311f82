package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/catalog-mapping-backend/internal/data/repos"
	types "github.com/yungbote/catalog-mapping-backend/internal/domain"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/importer"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/session"
	"github.com/yungbote/catalog-mapping-backend/internal/observability"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-mapping-backend/internal/realtime/bus"
)

func (s *mappingService) attributeSession(ctx context.Context, entry *scopeEntry, scope mapping.Scope) (*session.AttributeSession, error) {
	if entry.attribute != nil {
		return entry.attribute, nil
	}
	var (
		master, target []mapping.AttributeMappingItem
		row            *types.AttributeMappingSet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		master, err = s.source.Attributes(gctx, scope.Type, scope.MasterShopID)
		if err != nil {
			return fmt.Errorf("fetch master %s: %w", scope.Type, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		target, err = s.source.Attributes(gctx, scope.Type, scope.TargetShopID)
		if err != nil {
			return fmt.Errorf("fetch target %s: %w", scope.Type, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		row, err = s.setRepo.Get(dbctx.Context{Ctx: gctx}, scope.Type.String(), scope.MasterShopID, scope.TargetShopID)
		if err != nil {
			return fmt.Errorf("load attribute mapping: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	persisted := mapping.AttributeMapping{}
	var revision int64
	if row != nil {
		decoded, err := mapping.DecodeAttributeMapping(row.Mappings)
		if err != nil {
			return nil, fmt.Errorf("decode stored %s mapping: %w", scope.Type, err)
		}
		persisted, revision = decoded, row.Revision
	}
	if s.policy.FlagMasterLanguage {
		target = mapping.FlagLikelyMasterLanguage(master, target)
	}
	as, err := session.NewAttributeSession(scope, master, target, persisted, revision, s.policy.suggestOptions())
	if err != nil {
		return nil, err
	}
	s.log.Debug("Attribute session opened", "scope", scope.Key(), "master", len(master), "target", len(target), "revision", revision)
	entry.attribute = as
	return as, nil
}

func (s *mappingService) AttributeState(ctx context.Context, scope mapping.Scope) (state session.AttributeState, err error) {
	ctx, span := s.startSpan(ctx, "AttributeState", scope)
	defer func() { endSpan(span, err) }()
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		state = as.State()
		return nil
	})
	return state, err
}

func (s *mappingService) AssignAttribute(ctx context.Context, scope mapping.Scope, masterKey, targetKey string) (change *AttributeChange, err error) {
	ctx, span := s.startSpan(ctx, "AssignAttribute", scope)
	defer func() { endSpan(span, err) }()
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		displaced, err := as.Engine().Assign(masterKey, targetKey)
		if err != nil {
			return err
		}
		change = &AttributeChange{MasterKey: masterKey, Displaced: displaced, Dirty: as.Store().IsDirty()}
		return nil
	})
	return change, err
}

func (s *mappingService) ClearAttribute(ctx context.Context, scope mapping.Scope, masterKey string) (change *AttributeChange, err error) {
	ctx, span := s.startSpan(ctx, "ClearAttribute", scope)
	defer func() { endSpan(span, err) }()
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		if err := as.Engine().Clear(masterKey); err != nil {
			return err
		}
		change = &AttributeChange{MasterKey: masterKey, Dirty: as.Store().IsDirty()}
		return nil
	})
	return change, err
}

// AssignAttributeValue links a master value to a target value; a nil target clears it.
func (s *mappingService) AssignAttributeValue(ctx context.Context, scope mapping.Scope, masterKey, masterValueKey string, targetValueKey *string) (change *AttributeChange, err error) {
	ctx, span := s.startSpan(ctx, "AssignAttributeValue", scope)
	defer func() { endSpan(span, err) }()
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		var displaced []string
		if targetValueKey == nil || strings.TrimSpace(*targetValueKey) == "" {
			if err := as.Engine().ClearValue(masterKey, masterValueKey); err != nil {
				return err
			}
		} else {
			var err error
			displaced, err = as.Engine().AssignValue(masterKey, masterValueKey, *targetValueKey)
			if err != nil {
				return err
			}
		}
		change = &AttributeChange{MasterKey: masterKey, Displaced: displaced, Dirty: as.Store().IsDirty()}
		return nil
	})
	return change, err
}

// SaveAttributeMappings persists the working mapping, or mappings when non-nil,
// under optimistic concurrency. The draft only changes once the write succeeds;
// a stale expectedRevision fails with mapping.ErrPersistenceConflict.
func (s *mappingService) SaveAttributeMappings(ctx context.Context, scope mapping.Scope, mappings mapping.AttributeMapping, expectedRevision int64) (result *SaveResult, err error) {
	ctx, span := s.startSpan(ctx, "SaveAttributeMappings", scope)
	defer func() { endSpan(span, err) }()
	if expectedRevision < 0 {
		return nil, fmt.Errorf("%w: expected revision must not be negative", mapping.ErrMissingSelection)
	}
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		candidate := as.Store().Working()
		if mappings != nil {
			if err := as.Engine().Check(mappings); err != nil {
				return err
			}
			candidate = mappings.Clone()
		}
		changed := !bytes.Equal(candidate.Canonical(), as.Store().Persisted().Canonical())
		row, err := s.setRepo.Save(dbctx.Context{Ctx: ctx}, scope.Type.String(), scope.MasterShopID, scope.TargetShopID, datatypes.JSON(candidate.Canonical()), expectedRevision)
		if err != nil {
			if errors.Is(err, repos.ErrRevisionConflict) {
				return fmt.Errorf("%w: %s was saved elsewhere since revision %d", mapping.ErrPersistenceConflict, scope.Key(), expectedRevision)
			}
			s.log.Error("Attribute mapping save failed", "scope", scope.Key(), "error", err)
			return fmt.Errorf("save attribute mappings: %w", err)
		}
		saved, err := mapping.DecodeAttributeMapping(row.Mappings)
		if err != nil {
			return fmt.Errorf("decode saved %s mapping: %w", scope.Type, err)
		}
		as.Commit(saved, row.Revision)
		s.log.Info("Attribute mappings saved", "scope", scope.Key(), "revision", row.Revision, "entries", len(saved))
		s.publish(ctx, bus.Event{
			Type:          bus.EventMappingCommitted,
			Scope:         scope.Key(),
			MasterShopID:  scope.MasterShopID,
			TargetShopID:  scope.TargetShopID,
			AttributeType: scope.Type.String(),
			Revision:      row.Revision,
			Changed:       len(saved),
		})
		result = &SaveResult{Revision: row.Revision, Changed: changed}
		return nil
	})
	return result, err
}

func (s *mappingService) ResetAttributeMappings(ctx context.Context, scope mapping.Scope) (state session.AttributeState, err error) {
	ctx, span := s.startSpan(ctx, "ResetAttributeMappings", scope)
	defer func() { endSpan(span, err) }()
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		as.Store().Reset()
		state = as.State()
		return nil
	})
	return state, err
}

// ImportAttributeMappings applies an external document to the working mapping.
// When nothing could be imported the summary is returned with
// mapping.ErrNothingToImport.
func (s *mappingService) ImportAttributeMappings(ctx context.Context, scope mapping.Scope, raw []byte) (summary *ImportSummary, err error) {
	ctx, span := s.startSpan(ctx, "ImportAttributeMappings", scope)
	defer func() { endSpan(span, err) }()
	doc, err := importer.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Type != "" {
		typ, perr := mapping.ParseAttributeType(doc.Type)
		if perr != nil || typ != scope.Type {
			return nil, fmt.Errorf("%w: document type %q does not match %s", ErrInvalidDocument, doc.Type, scope.Type)
		}
	}
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		res, ierr := as.Import(ctx, doc)
		summary = &ImportSummary{
			Result:   res,
			Message:  res.Summary(),
			Warnings: res.FirstWarnings(s.policy.MaxReportedWarnings),
			Dirty:    as.Store().IsDirty(),
		}
		observability.Current().ObserveImport(res.AppliedCount, res.SkippedCount)
		s.log.Info("Attribute mappings imported", "scope", scope.Key(), "applied", res.AppliedCount, "skipped", res.SkippedCount)
		return ierr
	})
	return summary, err
}

func (s *mappingService) ExportAttributeMappings(ctx context.Context, scope mapping.Scope) (bundle importer.Bundle, err error) {
	ctx, span := s.startSpan(ctx, "ExportAttributeMappings", scope)
	defer func() { endSpan(span, err) }()
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		var err error
		bundle, err = as.Export()
		return err
	})
	return bundle, err
}
