package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
)

func ptr[T any](v T) *T { return &v }

func newEngine(typ mapping.AttributeType) *mapping.MergeEngine {
	master := mapping.NewItemIndex([]mapping.AttributeMappingItem{
		{Key: "color", Label: "Color", Values: []mapping.AttributeValue{{Key: "red", Label: "Red"}, {Key: "blue", Label: "Blue"}}},
		{Key: "size", Label: "Size"},
	})
	target := mapping.NewItemIndex([]mapping.AttributeMappingItem{
		{Key: "barva", Label: "Barva", Values: []mapping.AttributeValue{{Key: "cervena", Label: "Cervena"}, {Key: "modra", Label: "Modra"}}},
		{Key: "velikost", Label: "Velikost"},
		{Key: "size_en", Label: "Size", LikelyMasterLanguage: true},
	})
	return mapping.NewMergeEngine(typ, master, target, mapping.NewStore(mapping.AttributeMapping{}))
}

func TestParseAcceptsArrayOrObject(t *testing.T) {
	doc, err := Parse([]byte(` [{"master_key":"color","target_key":"barva"}]`))
	require.NoError(t, err)
	require.Len(t, doc.Mappings, 1)
	require.Empty(t, doc.Type)

	doc, err = Parse([]byte(`{"type":"flags","mappings":[{"master_key":"size","target_key":null}]}`))
	require.NoError(t, err)
	require.Equal(t, "flags", doc.Type)
	require.Nil(t, doc.Mappings[0].TargetKey)

	for _, bad := range []string{"", "  ", "42", "[{", `{"mappings":3}`} {
		_, err := Parse([]byte(bad))
		require.Error(t, err, "input %q", bad)
	}
}

func TestApplySkipsBadRowsAndKeepsGoing(t *testing.T) {
	e := newEngine(mapping.AttributeVariants)
	v := NewValidator(e)

	res, err := v.Apply(context.Background(), Document{Mappings: []Row{
		{MasterKey: "color", TargetKey: ptr("barva"), Values: []ValueRow{
			{MasterKey: "red", TargetKey: ptr("cervena")},
			{MasterKey: "blue", TargetKey: ptr("cervena")},
			{MasterKey: "green", TargetKey: ptr("modra")},
		}},
		{MasterKey: "", TargetKey: ptr("velikost")},
		{MasterKey: "size", TargetKey: ptr("nope")},
		{MasterKey: "size", TargetKey: ptr("velikost")},
	}})
	require.NoError(t, err)
	require.Equal(t, 2, res.AppliedCount)
	require.Equal(t, 2, res.SkippedCount)
	require.Len(t, res.Warnings, 4)
	require.Equal(t, "imported 2, skipped 2", res.Summary())
	require.Len(t, res.FirstWarnings(1), 1)
	require.Len(t, res.FirstWarnings(0), 4)

	w := e.Store().Working()
	tv, _ := w["color"].ValueTarget("red")
	require.Equal(t, "cervena", tv)
	_, ok := w["color"].ValueTarget("blue")
	require.False(t, ok, "duplicate value inside a row is skipped")
	size, _ := w.Current("size")
	require.Equal(t, "velikost", size)
}

func TestApplyNothingToImport(t *testing.T) {
	v := NewValidator(newEngine(mapping.AttributeVariants))
	res, err := v.Apply(context.Background(), Document{Mappings: []Row{{MasterKey: "ghost", TargetKey: ptr("barva")}}})
	require.ErrorIs(t, err, mapping.ErrNothingToImport)
	require.Equal(t, 1, res.SkippedCount)

	_, err = v.Apply(context.Background(), Document{})
	require.ErrorIs(t, err, mapping.ErrNothingToImport)
}

func TestApplyNullTargetClears(t *testing.T) {
	e := newEngine(mapping.AttributeVariants)
	_, err := e.Assign("size", "velikost")
	require.NoError(t, err)

	res, err := NewValidator(e).Apply(context.Background(), Document{Mappings: []Row{{MasterKey: "size"}}})
	require.NoError(t, err)
	require.Equal(t, 1, res.AppliedCount)
	_, linked := e.Store().Working().Current("size")
	require.False(t, linked)
}

func TestApplyFlagsIgnoresValues(t *testing.T) {
	e := newEngine(mapping.AttributeFlags)
	res, err := NewValidator(e).Apply(context.Background(), Document{Mappings: []Row{
		{MasterKey: "color", TargetKey: ptr("barva"), Values: []ValueRow{{MasterKey: "red", TargetKey: ptr("cervena")}}},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, res.AppliedCount)
	require.Len(t, res.Warnings, 1)
}

func TestApplyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewValidator(newEngine(mapping.AttributeVariants)).Apply(ctx, Document{Mappings: []Row{{MasterKey: "size", TargetKey: ptr("velikost")}}})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, res.AppliedCount)
}

func TestExportRoundTripsThroughImport(t *testing.T) {
	e := newEngine(mapping.AttributeVariants)
	_, err := e.Assign("color", "barva")
	require.NoError(t, err)
	_, err = e.AssignValue("color", "blue", "modra")
	require.NoError(t, err)

	bundle, err := Export(e.Type(), e.Master(), e.Target(), e.Store().Working())
	require.NoError(t, err)
	require.Contains(t, bundle.Prompt, "variants")
	require.Contains(t, bundle.Prompt, `"mappings"`)
	require.Len(t, bundle.Sources.Target, 2, "master-language targets are not offered")
	require.Equal(t, []Row{{MasterKey: "color", TargetKey: ptr("barva"), Values: []ValueRow{{MasterKey: "blue", TargetKey: ptr("modra")}}}}, bundle.Sources.Mappings)

	fresh := newEngine(mapping.AttributeVariants)
	_, err = NewValidator(fresh).Apply(context.Background(), bundle.Sources.Document())
	require.NoError(t, err)
	require.Equal(t, e.Store().Working().Canonical(), fresh.Store().Working().Canonical())
}

func TestImportIsIdempotent(t *testing.T) {
	e := newEngine(mapping.AttributeVariants)
	v := NewValidator(e)
	doc := Document{Mappings: []Row{
		{MasterKey: "color", TargetKey: ptr("barva"), Values: []ValueRow{{MasterKey: "red", TargetKey: ptr("cervena")}}},
		{MasterKey: "size", TargetKey: ptr("t9")},
	}}

	first, err := v.Apply(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, []string{`target parameter "t9" does not exist`}, first.Warnings)
	after := e.Store().Working().Canonical()

	second, err := v.Apply(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, first.AppliedCount, second.AppliedCount)
	require.Equal(t, first.Warnings, second.Warnings)
	require.Empty(t, second.Displaced)
	require.Equal(t, after, e.Store().Working().Canonical())
}
