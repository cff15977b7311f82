package suggest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
)

func ptr[T any](v T) *T { return &v }

func newMerger() *mapping.CategoryMerger {
	canonical := taxonomy.BuildCanonical([]taxonomy.CanonicalNode{
		{ID: "c1", Children: []taxonomy.CanonicalNode{{ID: "c2"}, {ID: "c3"}}},
	})
	shop := taxonomy.BuildShop([]taxonomy.ShopNode{{ID: "s1"}, {ID: "s2"}})
	return mapping.NewCategoryMerger(canonical, shop, mapping.NewStore(mapping.CategoryMappings{}))
}

func catSuggestion(master, target string, sim float64) CategorySuggestion {
	s := CategorySuggestion{Canonical: CanonicalRef{ID: master}, Similarity: sim}
	if target != "" {
		s.Suggested = &ShopRef{ID: target}
	}
	return s
}

func TestLoadDedupesAndDropsBlankRefs(t *testing.T) {
	r := NewCategoryReconciler(newMerger(), Options{})
	dropped := r.Load([]CategorySuggestion{
		catSuggestion("c2", "s1", 0.5),
		catSuggestion(" ", "s1", 0.9),
		catSuggestion("c3", "s2", 0.7),
		catSuggestion("c2", "s2", 0.95),
	})

	require.Equal(t, 1, dropped)
	require.Equal(t, 2, r.Len())
	pending := r.Pending()
	require.Equal(t, "c2", pending[0].MasterRef(), "first-seen order is kept")
	require.Equal(t, "s2", pending[0].Suggested.ID, "later suggestion replaces the earlier one")
}

func TestApplyOneConfirmsAndRemovesSuggestion(t *testing.T) {
	m := newMerger()
	r := NewCategoryReconciler(m, Options{})
	r.Load([]CategorySuggestion{catSuggestion("c2", "s1", 0.8)})

	out, err := r.ApplyOne("c2")
	require.NoError(t, err)
	require.Equal(t, "s1", out.TargetRef)
	require.Equal(t, 0, r.Len())

	cur, ok := m.Current("c2")
	require.True(t, ok)
	require.Equal(t, taxonomy.StatusConfirmed, cur.Status)
	require.InDelta(t, 0.8, *cur.Similarity, 1e-9)

	_, err = r.ApplyOne("c2")
	require.ErrorIs(t, err, ErrSuggestionNotFound)
}

func TestNoCounterpartRecordsRejection(t *testing.T) {
	m := newMerger()
	r := NewCategoryReconciler(m, Options{})
	r.Load([]CategorySuggestion{{Canonical: CanonicalRef{ID: "c3"}, Similarity: 0.99, Reason: "nothing similar"}})

	out, err := r.ApplyOne("c3")
	require.NoError(t, err)
	require.True(t, out.Cleared)
	cur, _ := m.Current("c3")
	require.Equal(t, taxonomy.StatusRejected, cur.Status)
	require.Equal(t, mapping.ReasonNoMatch+": nothing similar", cur.Reason)
}

func TestFailedApplyStaysPending(t *testing.T) {
	r := NewCategoryReconciler(newMerger(), Options{})
	r.Load([]CategorySuggestion{catSuggestion("c2", "missing", 0.9)})

	_, err := r.ApplyOne("c2")
	require.ErrorIs(t, err, mapping.ErrReferenceNotFound)
	require.Equal(t, 1, r.Len())
}

func TestBulkApplyRespectsThresholdAndOrder(t *testing.T) {
	m := newMerger()
	r := NewCategoryReconciler(m, Options{})
	r.Load([]CategorySuggestion{
		catSuggestion("c2", "s1", 0.95),
		catSuggestion("c3", "s1", 0.92),
		catSuggestion("c1", "s2", 0.4),
		catSuggestion("c1", "", 0.4),
	})
	r.Load(append(r.Pending(), catSuggestion("c1", "missing", 0.91)))

	res, err := r.ApplyAllAboveThreshold(context.Background(), 0.9)
	require.NoError(t, err)
	require.Equal(t, 3, res.Eligible)
	require.Equal(t, 2, res.Applied)
	require.Len(t, res.Failures, 1)
	require.Equal(t, "c1", res.Failures[0].MasterRef)

	holder, _, ok := m.HolderOf("s1")
	require.True(t, ok)
	require.Equal(t, "c3", holder, "later suggestions win contested targets")
	require.Equal(t, []string{"c2"}, res.Outcomes[1].Displaced)
	require.Equal(t, 1, r.Len(), "failed suggestion stays pending")
}

func TestBulkApplyStopsOnCancel(t *testing.T) {
	r := NewCategoryReconciler(newMerger(), Options{})
	r.Load([]CategorySuggestion{catSuggestion("c2", "s1", 1), catSuggestion("c3", "s2", 1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := r.ApplyAllAboveThreshold(ctx, 0.9)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, res.Eligible)
	require.Equal(t, 0, res.Applied)
	require.Equal(t, 2, r.Len())
}

func TestPreserveConfirmedProtectsHumanLinks(t *testing.T) {
	m := newMerger()
	_, err := m.Confirm("c2", "s1", mapping.AssignOptions{})
	require.NoError(t, err)

	r := NewCategoryReconciler(m, Options{PreserveConfirmed: true})
	r.Load([]CategorySuggestion{catSuggestion("c3", "s1", 0.99)})
	_, err = r.ApplyOne("c3")
	require.ErrorIs(t, err, ErrConfirmedMappingProtected)

	loose := NewCategoryReconciler(m, Options{})
	loose.Load([]CategorySuggestion{catSuggestion("c3", "s1", 0.99)})
	out, err := loose.ApplyOne("c3")
	require.NoError(t, err)
	require.Equal(t, []string{"c2"}, out.Displaced)
}

func TestDismiss(t *testing.T) {
	r := NewCategoryReconciler(newMerger(), Options{})
	r.Load([]CategorySuggestion{catSuggestion("c2", "s1", 1), catSuggestion("c3", "s2", 1)})
	require.True(t, r.Dismiss("c2"))
	require.False(t, r.Dismiss("c2"))
	_, ok := r.Get("c2")
	require.False(t, ok)
	require.Equal(t, "c3", r.Pending()[0].MasterRef())
}

func newAttributeEngine(persisted mapping.AttributeMapping) *mapping.MergeEngine {
	master := mapping.NewItemIndex([]mapping.AttributeMappingItem{
		{Key: "color", Values: []mapping.AttributeValue{{Key: "red"}, {Key: "blue"}}},
		{Key: "shade"},
	})
	target := mapping.NewItemIndex([]mapping.AttributeMappingItem{
		{Key: "barva", Values: []mapping.AttributeValue{{Key: "cervena"}, {Key: "modra"}}},
	})
	return mapping.NewMergeEngine(mapping.AttributeVariants, master, target, mapping.NewStore(persisted))
}

func TestAttributeSuggestionAppliesValuesAboveThreshold(t *testing.T) {
	e := newAttributeEngine(mapping.AttributeMapping{})
	r := NewAttributeReconciler(e, Options{})
	r.Load([]AttributeSuggestion{{
		MasterKey:  "color",
		TargetKey:  ptr("barva"),
		Similarity: 0.95,
		Values: []ValueSuggestion{
			{MasterKey: "red", TargetKey: ptr("cervena"), Similarity: 0.97},
			{MasterKey: "blue", TargetKey: ptr("modra"), Similarity: 0.5},
			{MasterKey: "green", TargetKey: ptr("zelena"), Similarity: 0.99},
		},
	}})

	res, err := r.ApplyAllAboveThreshold(context.Background(), 0.9)
	require.NoError(t, err)
	require.Equal(t, 1, res.Applied)
	require.Len(t, res.Outcomes[0].Warnings, 1, "unknown value is a warning, not a failure")

	entry := e.Store().Working()["color"]
	tv, ok := entry.ValueTarget("red")
	require.True(t, ok)
	require.Equal(t, "cervena", tv)
	_, ok = entry.ValueTarget("blue")
	require.False(t, ok, "value below threshold is skipped")
}

func TestAttributeSuggestionNullTargetClears(t *testing.T) {
	e := newAttributeEngine(mapping.AttributeMapping{})
	_, err := e.Assign("color", "barva")
	require.NoError(t, err)

	r := NewAttributeReconciler(e, Options{})
	r.Load([]AttributeSuggestion{{MasterKey: "color", Similarity: 1}})
	out, err := r.ApplyOne("color")
	require.NoError(t, err)
	require.True(t, out.Cleared)
	_, linked := e.Store().Working().Current("color")
	require.False(t, linked)
}

func TestAttributePreserveConfirmedUsesBaseline(t *testing.T) {
	e := newAttributeEngine(mapping.AttributeMapping{"color": {TargetKey: ptr("barva")}})
	r := NewAttributeReconciler(e, Options{PreserveConfirmed: true})
	r.Load([]AttributeSuggestion{{MasterKey: "shade", TargetKey: ptr("barva"), Similarity: 1}})

	_, err := r.ApplyOne("shade")
	require.ErrorIs(t, err, ErrConfirmedMappingProtected)
	current, _ := e.Store().Working().Current("color")
	require.Equal(t, "barva", current)
}

func TestBulkApplyNullSuggestionUnmapsAndRemoves(t *testing.T) {
	m := newMerger()
	_, err := m.Suggest("c2", "s1", mapping.AssignOptions{})
	require.NoError(t, err)

	r := NewCategoryReconciler(m, Options{})
	r.Load([]CategorySuggestion{catSuggestion("c2", "", 0.95)})
	res, err := r.ApplyAllAboveThreshold(context.Background(), 0.9)
	require.NoError(t, err)
	require.Equal(t, 1, res.Applied)
	require.Equal(t, 0, r.Len())

	cur, ok := m.Current("c2")
	require.True(t, ok, "explicitly unmapped, not forgotten")
	require.Equal(t, taxonomy.StatusRejected, cur.Status)
	_, holds := cur.Target()
	require.False(t, holds)
	_, _, taken := m.HolderOf("s1")
	require.False(t, taken)
}
