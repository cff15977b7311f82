package session

import (
	"context"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/importer"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"
)

// AttributeSession owns the attribute mapping of one shop pair and attribute type.
// It is not safe for concurrent use; callers serialize access per scope.
type AttributeSession struct {
	scope       mapping.Scope
	engine      *mapping.MergeEngine
	suggestions *suggest.Reconciler[suggest.AttributeSuggestion]
	importer    *importer.Validator
	revision    int64
}

// AttributeState is the attribute fetch contract plus draft bookkeeping.
type AttributeState struct {
	Type      mapping.AttributeType          `json:"type"`
	Master    []mapping.AttributeMappingItem `json:"master"`
	Target    []mapping.AttributeMappingItem `json:"target"`
	Mappings  mapping.AttributeMapping       `json:"mappings"`
	Available []mapping.AttributeMappingItem `json:"available_targets"`
	Dirty     bool                           `json:"dirty"`
	Revision  int64                          `json:"revision"`
}

func NewAttributeSession(scope mapping.Scope, master, target []mapping.AttributeMappingItem, persisted mapping.AttributeMapping, revision int64, opts suggest.Options) (*AttributeSession, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if scope.IsCategory() {
		return nil, mapping.ErrMissingSelection
	}
	if persisted == nil {
		persisted = mapping.AttributeMapping{}
	}
	engine := mapping.NewMergeEngine(scope.Type, mapping.NewItemIndex(master), mapping.NewItemIndex(target), mapping.NewStore(persisted))
	return &AttributeSession{
		scope:       scope,
		engine:      engine,
		suggestions: suggest.NewAttributeReconciler(engine, opts),
		importer:    importer.NewValidator(engine),
		revision:    revision,
	}, nil
}

func (s *AttributeSession) Scope() mapping.Scope                            { return s.scope }
func (s *AttributeSession) Engine() *mapping.MergeEngine                    { return s.engine }
func (s *AttributeSession) Store() *mapping.Store[mapping.AttributeMapping] { return s.engine.Store() }
func (s *AttributeSession) Suggestions() *suggest.Reconciler[suggest.AttributeSuggestion] {
	return s.suggestions
}
func (s *AttributeSession) Revision() int64 { return s.revision }

func (s *AttributeSession) State() AttributeState {
	return AttributeState{
		Type:      s.scope.Type,
		Master:    s.engine.Master().Items(),
		Target:    s.engine.Target().Items(),
		Mappings:  s.Store().Working(),
		Available: s.engine.AvailableTargets(),
		Dirty:     s.Store().IsDirty(),
		Revision:  s.revision,
	}
}

// Import routes a parsed document through the import validator.
func (s *AttributeSession) Import(ctx context.Context, doc importer.Document) (importer.Result, error) {
	return s.importer.Apply(ctx, doc)
}

// Export serializes the lists and the working mapping for AI round-tripping.
func (s *AttributeSession) Export() (importer.Bundle, error) {
	return importer.Export(s.scope.Type, s.engine.Master(), s.engine.Target(), s.Store().Working())
}

// Commit installs a saved mapping and its new revision as the baseline.
func (s *AttributeSession) Commit(saved mapping.AttributeMapping, revision int64) {
	s.Store().Commit(saved)
	s.revision = revision
}
