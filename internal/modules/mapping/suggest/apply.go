package suggest

import (
	"errors"
	"fmt"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/taxonomy"
)

// NewCategoryReconciler applies category suggestions through merger. A suggestion
// with a counterpart becomes a confirmed link carrying its similarity; one without
// is recorded as a rejection so the node reads as evaluated, not pending.
func NewCategoryReconciler(merger *mapping.CategoryMerger, opts Options) *Reconciler[CategorySuggestion] {
	return newReconciler(func(s CategorySuggestion, _ float64) (Outcome, error) {
		return applyCategory(merger, s, opts)
	})
}

func applyCategory(merger *mapping.CategoryMerger, s CategorySuggestion, o Options) (Outcome, error) {
	masterID := s.Canonical.ID
	out := Outcome{MasterRef: masterID}
	if s.Suggested == nil || s.Suggested.ID == "" {
		reason := mapping.ReasonNoMatch
		if s.Reason != "" {
			reason = mapping.ReasonNoMatch + ": " + s.Reason
		}
		if err := merger.Reject(masterID, reason); err != nil {
			return out, err
		}
		out.Cleared = true
		return out, nil
	}

	target := s.Suggested.ID
	if o.PreserveConfirmed {
		if holder, mp, ok := merger.HolderOf(target); ok && holder != masterID && isHumanConfirmed(mp) {
			return out, fmt.Errorf("%w: %s is confirmed for %s", ErrConfirmedMappingProtected, target, holder)
		}
	}
	sim := normalizeScore(s.Similarity)
	displaced, err := merger.Confirm(masterID, target, mapping.AssignOptions{Similarity: &sim, Reason: s.Reason})
	if err != nil {
		return out, err
	}
	out.TargetRef = target
	out.Displaced = displaced
	return out, nil
}

// isHumanConfirmed treats confirmed links without an AI similarity as human decisions.
func isHumanConfirmed(m taxonomy.Mapping) bool {
	switch m.Status {
	case taxonomy.StatusConfirmed:
		return m.Similarity == nil
	case taxonomy.StatusSuggested, taxonomy.StatusRejected:
		return false
	default:
		return false
	}
}

// NewAttributeReconciler applies attribute suggestions through engine. Value
// proposals are applied after the key link; during a bulk run they are gated by
// the same threshold as the key. With PreserveConfirmed, links present in the
// persisted baseline count as confirmed.
func NewAttributeReconciler(engine *mapping.MergeEngine, opts Options) *Reconciler[AttributeSuggestion] {
	return newReconciler(func(s AttributeSuggestion, threshold float64) (Outcome, error) {
		return applyAttribute(engine, s, opts, threshold)
	})
}

func applyAttribute(engine *mapping.MergeEngine, s AttributeSuggestion, o Options, valueThreshold float64) (Outcome, error) {
	out := Outcome{MasterRef: s.MasterKey}
	if s.TargetKey == nil || *s.TargetKey == "" {
		if err := engine.Clear(s.MasterKey); err != nil {
			return out, err
		}
		out.Cleared = true
		return out, nil
	}
	if o.PreserveConfirmed {
		for _, holder := range engine.Store().Persisted().HolderOf(*s.TargetKey) {
			if holder != s.MasterKey {
				return out, fmt.Errorf("%w: %s is saved for %s", ErrConfirmedMappingProtected, *s.TargetKey, holder)
			}
		}
	}
	displaced, err := engine.Assign(s.MasterKey, *s.TargetKey)
	if err != nil {
		return out, err
	}
	out.TargetRef = *s.TargetKey
	out.Displaced = displaced
	if !engine.Type().SupportsValues() {
		if len(s.Values) > 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("values ignored for %s", engine.Type()))
		}
		return out, nil
	}
	for _, v := range s.Values {
		if normalizeScore(v.Similarity) < valueThreshold {
			continue
		}
		var verr error
		if v.TargetKey == nil || *v.TargetKey == "" {
			verr = engine.ClearValue(s.MasterKey, v.MasterKey)
		} else {
			_, verr = engine.AssignValue(s.MasterKey, v.MasterKey, *v.TargetKey)
		}
		if verr != nil {
			var ref *mapping.ReferenceError
			if errors.As(verr, &ref) {
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", s.MasterKey, ref.Error()))
				continue
			}
			out.Warnings = append(out.Warnings, verr.Error())
		}
	}
	return out, nil
}
