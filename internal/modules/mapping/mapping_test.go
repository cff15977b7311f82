package mapping

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
)

func masterItems() []AttributeMappingItem {
	return []AttributeMappingItem{
		{Key: "color", Label: "Color", Values: []AttributeValue{{Key: "red", Label: "Red"}, {Key: "blue", Label: "Blue"}}},
		{Key: "shade", Label: "Shade", Values: []AttributeValue{{Key: "dark", Label: "Dark"}}},
		{Key: "size", Label: "Size"},
	}
}

func targetItems() []AttributeMappingItem {
	return []AttributeMappingItem{
		{Key: "barva", Label: "Barva", Values: []AttributeValue{{Key: "cervena", Label: "Cervena"}, {Key: "modra", Label: "Modra"}}},
		{Key: "odstin", Label: "Odstin", Values: []AttributeValue{{Key: "tmava", Label: "Tmava"}}},
		{Key: "velikost", Label: "Velikost"},
	}
}

func newEngine(t *testing.T, typ AttributeType, persisted AttributeMapping) *MergeEngine {
	t.Helper()
	if persisted == nil {
		persisted = AttributeMapping{}
	}
	return NewMergeEngine(typ, NewItemIndex(masterItems()), NewItemIndex(targetItems()), NewStore(persisted))
}

func targetOf(t *testing.T, e *MergeEngine, masterKey string) string {
	t.Helper()
	got, _ := e.Store().Working().Current(masterKey)
	return got
}

func TestAssignDisplacesPreviousHolder(t *testing.T) {
	e := newEngine(t, AttributeVariants, nil)

	displaced, err := e.Assign("color", "barva")
	require.NoError(t, err)
	require.Empty(t, displaced)

	displaced, err = e.Assign("shade", "barva")
	require.NoError(t, err)
	require.Equal(t, []string{"color"}, displaced)
	require.Equal(t, "barva", targetOf(t, e, "shade"))
	require.Empty(t, targetOf(t, e, "color"))
	require.Equal(t, []string{"shade"}, e.Store().Working().HolderOf("barva"))
}

func TestAssignResetsValuesOnlyWhenLinkChanges(t *testing.T) {
	e := newEngine(t, AttributeVariants, nil)
	_, err := e.Assign("color", "barva")
	require.NoError(t, err)
	_, err = e.AssignValue("color", "red", "cervena")
	require.NoError(t, err)

	_, err = e.Assign("color", "barva")
	require.NoError(t, err)
	tv, ok := e.Store().Working()["color"].ValueTarget("red")
	require.True(t, ok, "re-assigning the same target keeps values")
	require.Equal(t, "cervena", tv)

	_, err = e.Assign("color", "odstin")
	require.NoError(t, err)
	entry := e.Store().Working()["color"]
	_, ok = entry.ValueTarget("red")
	require.False(t, ok)
	require.Contains(t, entry.Values, "blue", "sub-map is reset to all master values")
}

func TestAssignUnknownReferencesMutateNothing(t *testing.T) {
	e := newEngine(t, AttributeVariants, nil)

	_, err := e.Assign("nope", "barva")
	var ref *ReferenceError
	require.ErrorAs(t, err, &ref)
	require.Equal(t, RefMasterItem, ref.Kind)
	require.ErrorIs(t, err, ErrReferenceNotFound)

	_, err = e.Assign("color", "nope")
	require.ErrorAs(t, err, &ref)
	require.Equal(t, RefTargetItem, ref.Kind)
	require.False(t, e.Store().IsDirty())
}

func TestValueSubMapIsInjectivePerMasterKey(t *testing.T) {
	e := newEngine(t, AttributeVariants, nil)
	_, err := e.Assign("color", "barva")
	require.NoError(t, err)

	_, err = e.AssignValue("color", "red", "cervena")
	require.NoError(t, err)
	displaced, err := e.AssignValue("color", "blue", "cervena")
	require.NoError(t, err)
	require.Equal(t, []string{"red"}, displaced)

	entry := e.Store().Working()["color"]
	_, ok := entry.ValueTarget("red")
	require.False(t, ok)
	tv, _ := entry.ValueTarget("blue")
	require.Equal(t, "cervena", tv)

	_, err = e.AssignValue("color", "blue", "tmava")
	require.ErrorIs(t, err, ErrReferenceNotFound, "values come from the linked target only")

	require.NoError(t, e.ClearValue("color", "blue"))
	_, ok = e.Store().Working()["color"].ValueTarget("blue")
	require.False(t, ok)
}

func TestAssignValueNeedsLinkedTarget(t *testing.T) {
	e := newEngine(t, AttributeVariants, nil)
	_, err := e.AssignValue("color", "red", "cervena")
	require.ErrorIs(t, err, ErrMissingSelection)
}

func TestFlagsHaveNoValues(t *testing.T) {
	e := newEngine(t, AttributeFlags, nil)
	_, err := e.Assign("color", "barva")
	require.NoError(t, err)
	require.Nil(t, e.Store().Working()["color"].Values)

	_, err = e.AssignValue("color", "red", "cervena")
	require.ErrorIs(t, err, ErrValuesNotSupported)
	require.ErrorIs(t, e.ClearValue("color", "red"), ErrValuesNotSupported)
}

func TestClearIsIdempotentAndUndoesDirty(t *testing.T) {
	e := newEngine(t, AttributeVariants, nil)
	_, err := e.Assign("size", "velikost")
	require.NoError(t, err)
	require.True(t, e.Store().IsDirty())

	require.NoError(t, e.Clear("size"))
	require.NoError(t, e.Clear("size"))
	require.False(t, e.Store().IsDirty(), "a null link equals an absent one")
	require.ErrorIs(t, e.Clear("nope"), ErrReferenceNotFound)
}

func TestCheckRejectsWholeMapping(t *testing.T) {
	e := newEngine(t, AttributeVariants, nil)
	_, err := e.Assign("size", "velikost")
	require.NoError(t, err)
	before := e.Store().Working()

	err = e.Check(AttributeMapping{
		"color": {TargetKey: strPtr("barva")},
		"shade": {TargetKey: strPtr("barva")},
	})
	var inj *InjectivityError
	require.ErrorAs(t, err, &inj)
	require.Equal(t, "barva", inj.Target)
	require.ErrorIs(t, err, ErrInjectivityViolation)
	require.NotErrorIs(t, err, ErrDuplicateValueUsage)

	err = e.Check(AttributeMapping{
		"color": {TargetKey: strPtr("barva"), Values: map[string]*string{"red": strPtr("modra"), "blue": strPtr("modra")}},
	})
	require.ErrorAs(t, err, &inj)
	require.Equal(t, "color", inj.Item)
	require.ErrorIs(t, err, ErrDuplicateValueUsage)

	err = e.Check(AttributeMapping{"color": {TargetKey: strPtr("missing")}})
	require.ErrorIs(t, err, ErrReferenceNotFound)

	err = e.Check(AttributeMapping{
		"color": {TargetKey: strPtr("barva"), Values: map[string]*string{"red": strPtr("cervena")}},
		"size":  {TargetKey: nil},
	})
	require.NoError(t, err)
	require.Equal(t, before, e.Store().Working(), "Check never touches the draft")
}

func TestAvailableTargetsSkipUsedAndMasterLanguage(t *testing.T) {
	target := targetItems()
	target[2].LikelyMasterLanguage = true
	e := NewMergeEngine(AttributeVariants, NewItemIndex(masterItems()), NewItemIndex(target), NewStore(AttributeMapping{}))
	_, err := e.Assign("color", "barva")
	require.NoError(t, err)

	var keys []string
	for _, it := range e.AvailableTargets() {
		keys = append(keys, it.Key)
	}
	require.Equal(t, []string{"odstin"}, keys)

	_, err = e.AssignValue("color", "red", "cervena")
	require.NoError(t, err)
	vals := e.AvailableTargetValues("color")
	require.Len(t, vals, 1)
	require.Equal(t, "modra", vals[0].Key)
	require.Nil(t, e.AvailableTargetValues("shade"))
}

func TestCanonicalRoundTripIgnoresNulls(t *testing.T) {
	m := AttributeMapping{
		"b":    {TargetKey: strPtr("x"), Values: map[string]*string{"v2": nil, "v1": strPtr("w1")}},
		"a":    {TargetKey: strPtr("y")},
		"gone": {TargetKey: nil, Values: map[string]*string{"v": strPtr("w")}},
	}
	require.Equal(t, `{"a":{"t":"y"},"b":{"t":"x","v":{"v1":"w1"}}}`, string(m.Canonical()))

	decoded, err := DecodeAttributeMapping(m.Canonical())
	require.NoError(t, err)
	require.Equal(t, m.Canonical(), decoded.Canonical())

	empty, err := DecodeAttributeMapping(nil)
	require.NoError(t, err)
	require.Empty(t, empty)
	_, err = DecodeAttributeMapping([]byte("{"))
	require.Error(t, err)
}

func TestStoreCommitAndReset(t *testing.T) {
	s := NewStore(AttributeMapping{"a": {TargetKey: strPtr("x")}})
	s.draft()["b"] = MappingEntry{TargetKey: strPtr("y")}
	require.True(t, s.IsDirty())

	s.Reset()
	require.False(t, s.IsDirty())
	require.NotContains(t, s.Working(), "b")

	s.Commit(AttributeMapping{"c": {TargetKey: strPtr("z")}})
	require.False(t, s.IsDirty())
	require.Contains(t, s.Persisted(), "c")

	w := s.Working()
	w["d"] = MappingEntry{TargetKey: strPtr("q")}
	require.False(t, s.IsDirty(), "Working returns a copy")
}

func newMerger(t *testing.T) *CategoryMerger {
	t.Helper()
	canonical := taxonomy.BuildCanonical([]taxonomy.CanonicalNode{
		{ID: "c1", GUID: "g1", Children: []taxonomy.CanonicalNode{{ID: "c2", GUID: "g2"}, {ID: "c3", GUID: "g3"}}},
	})
	shop := taxonomy.BuildShop([]taxonomy.ShopNode{{ID: "s1"}, {ID: "s2"}})
	return NewCategoryMerger(canonical, shop, NewStore(CategoryMappings{}))
}

func TestCategoryConfirmDisplacesAndRejectReleases(t *testing.T) {
	m := newMerger(t)

	sim := 1.4
	_, err := m.Suggest("c2", "s1", AssignOptions{Similarity: &sim})
	require.NoError(t, err)
	cur, _ := m.Current("c2")
	require.Equal(t, 1.0, *cur.Similarity, "similarity is clamped")

	displaced, err := m.Confirm("c3", "s1", AssignOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"c2"}, displaced)
	_, ok := m.Current("c2")
	require.False(t, ok, "displaced nodes return to unevaluated")

	require.NoError(t, m.Reject("c3", ReasonNoMatch))
	cur, _ = m.Current("c3")
	require.Equal(t, taxonomy.StatusRejected, cur.Status)
	require.Equal(t, "s1", *cur.ShopCategoryNodeID, "rejected target is remembered")
	_, _, held := m.HolderOf("s1")
	require.False(t, held, "but no longer occupied")

	_, err = m.Confirm("c2", "s1", AssignOptions{})
	require.NoError(t, err)
	require.Equal(t, taxonomy.StatusCounters{Confirmed: 1, Rejected: 1}, m.Summary().Mappings)
	require.InDelta(t, 1.0/3.0, m.Coverage(), 1e-9)

	require.NoError(t, m.Clear("c3"))
	require.ErrorIs(t, m.Clear("zzz"), ErrReferenceNotFound)
	_, err = m.Confirm("c1", "nope", AssignOptions{})
	require.True(t, errors.Is(err, ErrReferenceNotFound))
}

func TestCategoryReconfirmKeepsProvenance(t *testing.T) {
	m := newMerger(t)
	sim := 0.9
	_, err := m.Confirm("c2", "s1", AssignOptions{Similarity: &sim, Reason: "same name"})
	require.NoError(t, err)
	m.Store().Commit(m.Store().Working())

	displaced, err := m.Confirm("c2", "s1", AssignOptions{})
	require.NoError(t, err)
	require.Empty(t, displaced)
	require.False(t, m.Store().IsDirty())
	cur, _ := m.Current("c2")
	require.Equal(t, "same name", cur.Reason)
	require.InDelta(t, 0.9, *cur.Similarity, 1e-9)

	_, err = m.Suggest("c2", "s1", AssignOptions{})
	require.NoError(t, err)
	require.True(t, m.Store().IsDirty(), "a status change is still an edit")
}

func TestRebasedTakesOnlyListedKeys(t *testing.T) {
	base := CategoryMappings{
		"c1": {Status: taxonomy.StatusConfirmed, ShopCategoryNodeID: strPtr("s1")},
		"c2": {Status: taxonomy.StatusConfirmed, ShopCategoryNodeID: strPtr("s2")},
	}
	working := CategoryMappings{
		"c1": {Status: taxonomy.StatusConfirmed, ShopCategoryNodeID: strPtr("s9")},
		"c3": {Status: taxonomy.StatusConfirmed, ShopCategoryNodeID: strPtr("s1")},
		"c4": {Status: taxonomy.StatusSuggested, ShopCategoryNodeID: strPtr("s4")},
	}

	next := base.Rebased(working, []string{"c3", "c2"})
	require.Equal(t, []string{"c3"}, next.Holders("s1"), "baseline holder of a taken target is dropped")
	_, ok := next["c1"]
	require.False(t, ok)
	_, ok = next["c2"]
	require.False(t, ok, "absent from working means removed")
	_, ok = next["c4"]
	require.False(t, ok, "unlisted draft edits stay out of the baseline")
	require.Len(t, base, 2, "receiver is not modified")
}

func requireInjective(t *testing.T, w AttributeMapping, targets []string, seed int64, step int) {
	t.Helper()
	for _, target := range targets {
		require.LessOrEqual(t, len(w.HolderOf(target)), 1, "seed=%d step=%d target=%s", seed, step, target)
	}
	for mk, entry := range w {
		seen := map[string]string{}
		for mv := range entry.Values {
			tv, ok := entry.ValueTarget(mv)
			if !ok {
				continue
			}
			other, dup := seen[tv]
			require.False(t, dup, "seed=%d step=%d %s: %s and %s share %s", seed, step, mk, other, mv, tv)
			seen[tv] = mv
		}
	}
}

func TestAssignSequencesStayInjective(t *testing.T) {
	masters := []string{"color", "shade", "size"}
	targets := []string{"barva", "odstin", "velikost"}
	masterValues := []string{"red", "blue", "dark"}
	targetValues := []string{"cervena", "modra", "tmava"}

	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		e := newEngine(t, AttributeVariants, nil)
		for step := 0; step < 40; step++ {
			mk := masters[rng.Intn(len(masters))]
			switch rng.Intn(4) {
			case 0:
				_, _ = e.Assign(mk, targets[rng.Intn(len(targets))])
			case 1:
				_ = e.Clear(mk)
			case 2:
				_, _ = e.AssignValue(mk, masterValues[rng.Intn(len(masterValues))], targetValues[rng.Intn(len(targetValues))])
			default:
				_ = e.ClearValue(mk, masterValues[rng.Intn(len(masterValues))])
			}
			requireInjective(t, e.Store().Working(), targets, seed, step)
		}
	}
}

func TestCategorySequencesStayInjective(t *testing.T) {
	masters := []string{"c1", "c2", "c3"}
	shops := []string{"s1", "s2"}

	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		m := newMerger(t)
		for step := 0; step < 40; step++ {
			id := masters[rng.Intn(len(masters))]
			switch rng.Intn(4) {
			case 0:
				_, _ = m.Confirm(id, shops[rng.Intn(len(shops))], AssignOptions{})
			case 1:
				_, _ = m.Suggest(id, shops[rng.Intn(len(shops))], AssignOptions{})
			case 2:
				_ = m.Reject(id, "")
			default:
				_ = m.Clear(id)
			}
			w := m.Store().Working()
			for _, s := range shops {
				require.LessOrEqual(t, len(w.Holders(s)), 1, "seed=%d step=%d shop=%s", seed, step, s)
			}
		}
	}
}

func TestCategoryDiff(t *testing.T) {
	base := CategoryMappings{
		"c1": {Status: taxonomy.StatusConfirmed, ShopCategoryNodeID: strPtr("s1")},
		"c2": {Status: taxonomy.StatusRejected},
	}
	next := base.Clone()
	next["c1"] = taxonomy.Mapping{Status: taxonomy.StatusConfirmed, ShopCategoryNodeID: strPtr("s2")}
	delete(next, "c2")
	next["c3"] = taxonomy.Mapping{Status: taxonomy.StatusSuggested, ShopCategoryNodeID: strPtr("s1")}

	upserts, removed := base.Diff(next)
	require.Equal(t, []string{"c1", "c3"}, upserts)
	require.Equal(t, []string{"c2"}, removed)

	upserts, removed = base.Diff(base.Clone())
	require.Empty(t, upserts)
	require.Empty(t, removed)
}

func TestScopeValidateAndKey(t *testing.T) {
	require.ErrorIs(t, CategoryScope("", "t").Validate(), ErrMissingSelection)
	require.ErrorIs(t, CategoryScope("m", " ").Validate(), ErrMissingSelection)
	require.ErrorIs(t, CategoryScope("m", "m").Validate(), ErrMissingSelection)
	require.ErrorIs(t, AttributeScope(9, "m", "t").Validate(), ErrMissingSelection)

	require.NoError(t, CategoryScope(" m ", "t").Validate())
	require.Equal(t, "categories:m->t", CategoryScope("m", "t").Key())
	require.Equal(t, "filtering_parameters:m->t", AttributeScope(AttributeFilteringParameters, "m", "t").Key())
}

func TestParseAttributeType(t *testing.T) {
	typ, err := ParseAttributeType(" Filtering-Parameters ")
	require.NoError(t, err)
	require.Equal(t, AttributeFilteringParameters, typ)
	_, err = ParseAttributeType("colors")
	require.Error(t, err)
}

func TestFlagLikelyMasterLanguage(t *testing.T) {
	target := []AttributeMappingItem{
		{Key: "t1", Label: "COLOR", Values: []AttributeValue{{Key: "v1", Label: "réd"}, {Key: "v2", Label: "Cervena"}}},
		{Key: "t2", Label: "Velikost", LikelyMasterLanguage: true},
	}
	out := FlagLikelyMasterLanguage(masterItems(), target)

	require.True(t, out[0].LikelyMasterLanguage)
	require.True(t, out[0].Values[0].LikelyMasterLanguage)
	require.False(t, out[0].Values[1].LikelyMasterLanguage)
	require.True(t, out[1].LikelyMasterLanguage, "source flags are kept")
	require.False(t, target[0].LikelyMasterLanguage, "input is not modified")
}
