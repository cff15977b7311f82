package session

import (
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/validation"
)

// CategorySession owns everything needed to reconcile the category trees of one
// shop pair: both tree indexes, the mapping store and the pending AI suggestions.
// It is not safe for concurrent use; callers serialize access per scope.
type CategorySession struct {
	scope       mapping.Scope
	canonical   []taxonomy.CanonicalNode
	shop        []taxonomy.ShopNode
	merger      *mapping.CategoryMerger
	suggestions *suggest.Reconciler[suggest.CategorySuggestion]
}

// TreeView is the tree fetch contract: both forests plus counters.
type TreeView struct {
	Canonical []taxonomy.CanonicalNode `json:"canonical"`
	Shop      []taxonomy.ShopNode      `json:"shop"`
	Summary   taxonomy.Summary         `json:"summary"`
	Dirty     bool                     `json:"dirty"`
}

func NewCategorySession(scope mapping.Scope, canonical []taxonomy.CanonicalNode, shop []taxonomy.ShopNode, persisted mapping.CategoryMappings, opts suggest.Options) (*CategorySession, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if persisted == nil {
		persisted = mapping.CategoryMappings{}
	}
	store := mapping.NewStore(persisted)
	merger := mapping.NewCategoryMerger(taxonomy.BuildCanonical(canonical), taxonomy.BuildShop(shop), store)
	return &CategorySession{
		scope:       scope,
		canonical:   canonical,
		shop:        shop,
		merger:      merger,
		suggestions: suggest.NewCategoryReconciler(merger, opts),
	}, nil
}

func (s *CategorySession) Scope() mapping.Scope                            { return s.scope }
func (s *CategorySession) Merger() *mapping.CategoryMerger                 { return s.merger }
func (s *CategorySession) Store() *mapping.Store[mapping.CategoryMappings] { return s.merger.Store() }
func (s *CategorySession) Suggestions() *suggest.Reconciler[suggest.CategorySuggestion] {
	return s.suggestions
}

// Tree renders the canonical forest with the working mappings attached.
func (s *CategorySession) Tree() TreeView {
	return TreeView{
		Canonical: taxonomy.AttachMappings(s.canonical, s.Store().Working()),
		Shop:      s.shop,
		Summary:   s.merger.Summary(),
		Dirty:     s.Store().IsDirty(),
	}
}

// FilteredTree keeps only canonical nodes matching keep, plus their ancestors.
func (s *CategorySession) FilteredTree(keep func(taxonomy.CanonicalNode) bool) TreeView {
	view := s.Tree()
	view.Canonical = taxonomy.Filter(view.Canonical, keep)
	return view
}

// Validator checks products against the persisted mapping; unsaved edits do not count.
func (s *CategorySession) Validator() *validation.Engine {
	return validation.New(s.merger.Canonical(), s.merger.Shop(), s.Store().Persisted())
}
