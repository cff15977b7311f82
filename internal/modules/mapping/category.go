package mapping

import (
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
)

// ReasonNoMatch is stored on a rejection recorded because the AI found no counterpart.
const ReasonNoMatch = "ai_no_match"

// CategoryMerger is the merge engine of a category scope: one master taxonomy
// mapped onto one shop taxonomy.
type CategoryMerger struct {
	canonical *taxonomy.CanonicalIndex
	shop      *taxonomy.ShopIndex
	store     *Store[CategoryMappings]
}

func NewCategoryMerger(canonical *taxonomy.CanonicalIndex, shop *taxonomy.ShopIndex, store *Store[CategoryMappings]) *CategoryMerger {
	if canonical == nil {
		canonical = taxonomy.BuildCanonical(nil)
	}
	if shop == nil {
		shop = taxonomy.BuildShop(nil)
	}
	return &CategoryMerger{canonical: canonical, shop: shop, store: store}
}

func (m *CategoryMerger) Canonical() *taxonomy.CanonicalIndex { return m.canonical }
func (m *CategoryMerger) Shop() *taxonomy.ShopIndex           { return m.shop }
func (m *CategoryMerger) Store() *Store[CategoryMappings]     { return m.store }

// AssignOptions carries provenance stored next to a link.
type AssignOptions struct {
	Similarity *float64
	Reason     string
}

// Confirm links masterID to shopNodeID with status confirmed. Confirming an
// existing confirmed link again changes nothing, provenance included.
func (m *CategoryMerger) Confirm(masterID, shopNodeID string, opts AssignOptions) ([]string, error) {
	return m.assign(masterID, shopNodeID, taxonomy.StatusConfirmed, opts)
}

// Suggest links masterID to shopNodeID with status suggested. A suggested link
// occupies its target exactly like a confirmed one.
func (m *CategoryMerger) Suggest(masterID, shopNodeID string, opts AssignOptions) ([]string, error) {
	return m.assign(masterID, shopNodeID, taxonomy.StatusSuggested, opts)
}

func (m *CategoryMerger) assign(masterID, shopNodeID string, status taxonomy.MappingStatus, opts AssignOptions) ([]string, error) {
	if !m.canonical.Has(masterID) {
		return nil, refNotFound(RefCanonicalNode, masterID)
	}
	if !m.shop.Has(shopNodeID) {
		return nil, refNotFound(RefShopNode, shopNodeID)
	}
	next := taxonomy.Mapping{
		Status:             status,
		ShopCategoryNodeID: strPtr(shopNodeID),
		Reason:             opts.Reason,
	}
	if opts.Similarity != nil {
		sim := clampSimilarity(*opts.Similarity)
		next.Similarity = &sim
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	w := m.store.draft()
	if prev, ok := w[masterID]; ok && prev.Status == status {
		if t, linked := prev.Target(); linked && t == shopNodeID {
			return nil, nil
		}
	}
	var displaced []string
	for _, holder := range w.Holders(shopNodeID) {
		if holder == masterID {
			continue
		}
		delete(w, holder)
		displaced = append(displaced, holder)
	}
	w[masterID] = next
	return displaced, nil
}

// Reject records that masterID has been evaluated and has no counterpart. The
// rejected shop node, if any, is remembered but released.
func (m *CategoryMerger) Reject(masterID string, reason string) error {
	if !m.canonical.Has(masterID) {
		return refNotFound(RefCanonicalNode, masterID)
	}
	w := m.store.draft()
	prev, had := w[masterID]
	next := taxonomy.Mapping{Status: taxonomy.StatusRejected, Reason: reason}
	if had {
		next.ShopCategoryNodeID = clonePtr(prev.ShopCategoryNodeID)
	}
	w[masterID] = next
	return nil
}

// Clear forgets any mapping of masterID, returning it to "never evaluated".
func (m *CategoryMerger) Clear(masterID string) error {
	if !m.canonical.Has(masterID) {
		return refNotFound(RefCanonicalNode, masterID)
	}
	delete(m.store.draft(), masterID)
	return nil
}

// Current returns the mapping of masterID in the draft.
func (m *CategoryMerger) Current(masterID string) (taxonomy.Mapping, bool) {
	mp, ok := m.store.draft()[masterID]
	if !ok {
		return taxonomy.Mapping{}, false
	}
	return mp.Clone(), true
}

// HolderOf returns the master node occupying shopNodeID and its mapping.
func (m *CategoryMerger) HolderOf(shopNodeID string) (string, taxonomy.Mapping, bool) {
	w := m.store.draft()
	id, ok := w.Holder(shopNodeID)
	if !ok {
		return "", taxonomy.Mapping{}, false
	}
	return id, w[id].Clone(), true
}

// Summary counts nodes and mapping states of the draft. Only mappings of nodes
// present in the current canonical tree are counted.
func (m *CategoryMerger) Summary() taxonomy.Summary {
	s := taxonomy.Summary{
		CanonicalCount: m.canonical.Len(),
		ShopCount:      m.shop.Len(),
	}
	for id, mp := range m.store.draft() {
		if !m.canonical.Has(id) {
			continue
		}
		s.Mappings.Add(mp.Status)
	}
	return s
}

// Coverage is the share of canonical nodes with a confirmed mapping.
func (m *CategoryMerger) Coverage() float64 {
	total := m.canonical.Len()
	if total == 0 {
		return 0
	}
	confirmed := 0
	for id, mp := range m.store.draft() {
		if !m.canonical.Has(id) {
			continue
		}
		switch mp.Status {
		case taxonomy.StatusConfirmed:
			confirmed++
		case taxonomy.StatusSuggested, taxonomy.StatusRejected:
		}
	}
	return float64(confirmed) / float64(total)
}

func clampSimilarity(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
