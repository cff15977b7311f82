package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/importer"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/validation"
)

func ptr[T any](v T) *T { return &v }

func newCategorySession(t *testing.T, persisted mapping.CategoryMappings) *CategorySession {
	t.Helper()
	s, err := NewCategorySession(
		mapping.CategoryScope("master", "target"),
		[]taxonomy.CanonicalNode{{ID: "c1", GUID: "g1", Name: "Clothing", Children: []taxonomy.CanonicalNode{
			{ID: "c2", GUID: "g2", Name: "Shirts"},
		}}},
		[]taxonomy.ShopNode{{ID: "s1", Name: "Apparel"}, {ID: "s2", Name: "Shirts"}},
		persisted,
		suggest.Options{},
	)
	require.NoError(t, err)
	return s
}

func TestCategorySessionRequiresSelection(t *testing.T) {
	_, err := NewCategorySession(mapping.CategoryScope("same", "same"), nil, nil, nil, suggest.Options{})
	require.ErrorIs(t, err, mapping.ErrMissingSelection)
}

func TestCategoryTreeReflectsWorkingCopy(t *testing.T) {
	s := newCategorySession(t, nil)
	view := s.Tree()
	require.False(t, view.Dirty)
	require.Nil(t, view.Canonical[0].Mapping)

	_, err := s.Merger().Confirm("c2", "s2", mapping.AssignOptions{})
	require.NoError(t, err)

	view = s.Tree()
	require.True(t, view.Dirty)
	require.Equal(t, taxonomy.StatusConfirmed, view.Canonical[0].Children[0].Mapping.Status)
	require.Equal(t, 1, view.Summary.Mappings.Confirmed)

	filtered := s.FilteredTree(func(n taxonomy.CanonicalNode) bool { return strings.HasPrefix(n.Name, "Shirt") })
	require.Len(t, filtered.Canonical, 1)
	require.Len(t, filtered.Canonical[0].Children, 1)
}

func TestValidatorUsesPersistedMapping(t *testing.T) {
	s := newCategorySession(t, mapping.CategoryMappings{
		"c2": {Status: taxonomy.StatusConfirmed, ShopCategoryNodeID: ptr("s2")},
	})
	product := validation.ProductSnapshot{ProductID: "p1", MasterCategoryGUID: "g2", Target: &validation.TargetSnapshot{ActualCategoryID: "s2"}}

	require.Empty(t, s.Validator().Check(product))

	require.NoError(t, s.Merger().Clear("c2"))
	require.Empty(t, s.Validator().Check(product), "unsaved edits do not affect validation")

	s.Store().Commit(s.Store().Working())
	issues := s.Validator().Check(product)
	require.Len(t, issues, 1)
	require.Equal(t, validation.ReasonMissingMapping, issues[0].Reason)
}

func newAttributeSession(t *testing.T, typ mapping.AttributeType) *AttributeSession {
	t.Helper()
	s, err := NewAttributeSession(
		mapping.AttributeScope(typ, "master", "target"),
		[]mapping.AttributeMappingItem{{Key: "color", Label: "Color", Values: []mapping.AttributeValue{{Key: "red", Label: "Red"}}}},
		[]mapping.AttributeMappingItem{{Key: "barva", Label: "Barva", Values: []mapping.AttributeValue{{Key: "cervena", Label: "Cervena"}}}},
		nil, 3, suggest.Options{},
	)
	require.NoError(t, err)
	return s
}

func TestAttributeSessionRejectsCategoryScope(t *testing.T) {
	_, err := NewAttributeSession(mapping.CategoryScope("a", "b"), nil, nil, nil, 0, suggest.Options{})
	require.ErrorIs(t, err, mapping.ErrMissingSelection)
}

func TestAttributeSessionImportAndCommit(t *testing.T) {
	s := newAttributeSession(t, mapping.AttributeVariants)
	state := s.State()
	require.Equal(t, int64(3), state.Revision)
	require.Len(t, state.Available, 1)
	require.False(t, state.Dirty)

	res, err := s.Import(context.Background(), importer.Document{Mappings: []importer.Row{{
		MasterKey: "color", TargetKey: ptr("barva"),
		Values: []importer.ValueRow{{MasterKey: "red", TargetKey: ptr("cervena")}},
	}}})
	require.NoError(t, err)
	require.Equal(t, 1, res.AppliedCount)

	state = s.State()
	require.True(t, state.Dirty)
	require.Empty(t, state.Available)

	bundle, err := s.Export()
	require.NoError(t, err)
	require.Len(t, bundle.Sources.Mappings, 1)

	s.Commit(s.Store().Working(), 4)
	require.Equal(t, int64(4), s.Revision())
	require.False(t, s.Store().IsDirty())
}
