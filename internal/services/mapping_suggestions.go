package services

import (
	"context"
	"fmt"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/session"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"
	"github.com/yungbote/catalog-mapping-backend/internal/observability"
)

// LoadCategorySuggestions replaces the pending category suggestions of scope.
func (s *mappingService) LoadCategorySuggestions(ctx context.Context, scope mapping.Scope, suggestions []suggest.CategorySuggestion) (loaded *SuggestionsLoaded, err error) {
	ctx, span := s.startSpan(ctx, "LoadCategorySuggestions", scope)
	defer func() { endSpan(span, err) }()
	err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
		dropped := cs.Suggestions().Load(suggestions)
		loaded = &SuggestionsLoaded{Pending: cs.Suggestions().Len(), Dropped: dropped}
		return nil
	})
	if err == nil && loaded.Dropped > 0 {
		s.log.Warn("Dropped malformed category suggestions", "scope", scope.Key(), "dropped", loaded.Dropped)
	}
	return loaded, err
}

func (s *mappingService) LoadAttributeSuggestions(ctx context.Context, scope mapping.Scope, suggestions []suggest.AttributeSuggestion) (loaded *SuggestionsLoaded, err error) {
	ctx, span := s.startSpan(ctx, "LoadAttributeSuggestions", scope)
	defer func() { endSpan(span, err) }()
	err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
		dropped := as.Suggestions().Load(suggestions)
		loaded = &SuggestionsLoaded{Pending: as.Suggestions().Len(), Dropped: dropped}
		return nil
	})
	if err == nil && loaded.Dropped > 0 {
		s.log.Warn("Dropped malformed attribute suggestions", "scope", scope.Key(), "dropped", loaded.Dropped)
	}
	return loaded, err
}

// ApplySuggestion applies the pending suggestion of masterRef to the working
// mapping. The result is not persisted until the scope is saved.
func (s *mappingService) ApplySuggestion(ctx context.Context, scope mapping.Scope, masterRef string) (outcome *suggest.Outcome, err error) {
	ctx, span := s.startSpan(ctx, "ApplySuggestion", scope)
	defer func() { endSpan(span, err) }()
	apply := func(out suggest.Outcome, err error) error {
		if err != nil {
			return err
		}
		outcome = &out
		return nil
	}
	if scope.IsCategory() {
		err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
			return apply(cs.Suggestions().ApplyOne(masterRef))
		})
	} else {
		err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
			return apply(as.Suggestions().ApplyOne(masterRef))
		})
	}
	return outcome, err
}

// ApplySuggestionsAboveThreshold applies every pending suggestion scoring at or
// above threshold, or the policy threshold when nil. Failures are collected and
// do not stop the run.
func (s *mappingService) ApplySuggestionsAboveThreshold(ctx context.Context, scope mapping.Scope, threshold *float64) (summary *BulkSummary, err error) {
	ctx, span := s.startSpan(ctx, "ApplySuggestionsAboveThreshold", scope)
	defer func() { endSpan(span, err) }()
	cut := s.policy.Threshold
	if threshold != nil {
		if *threshold < 0 || *threshold > 1 {
			return nil, fmt.Errorf("%w: threshold %.3f outside [0,1]", mapping.ErrMissingSelection, *threshold)
		}
		cut = *threshold
	}
	run := func(res suggest.BulkResult, runErr error, pending int, dirty bool) error {
		summary = s.bulkSummary(cut, res, pending, dirty)
		observability.Current().ObserveBulkApply(res.Applied, len(res.Failures))
		s.log.Info("Bulk suggestion apply finished", "scope", scope.Key(), "threshold", cut, "applied", res.Applied, "eligible", res.Eligible, "failed", len(res.Failures))
		return runErr
	}
	if scope.IsCategory() {
		err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
			res, runErr := cs.Suggestions().ApplyAllAboveThreshold(ctx, cut)
			return run(res, runErr, cs.Suggestions().Len(), cs.Store().IsDirty())
		})
	} else {
		err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
			res, runErr := as.Suggestions().ApplyAllAboveThreshold(ctx, cut)
			return run(res, runErr, as.Suggestions().Len(), as.Store().IsDirty())
		})
	}
	return summary, err
}

func (s *mappingService) bulkSummary(threshold float64, res suggest.BulkResult, pending int, dirty bool) *BulkSummary {
	warnings := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		if len(warnings) == s.policy.MaxReportedWarnings {
			break
		}
		warnings = append(warnings, fmt.Sprintf("%s: %s", f.MasterRef, f.Message))
	}
	for _, o := range res.Outcomes {
		for _, w := range o.Warnings {
			if len(warnings) == s.policy.MaxReportedWarnings {
				break
			}
			warnings = append(warnings, w)
		}
	}
	msg := fmt.Sprintf("applied %d of %d", res.Applied, res.Eligible)
	if len(res.Failures) > 0 {
		msg = fmt.Sprintf("%s, %d failed", msg, len(res.Failures))
	}
	return &BulkSummary{
		Threshold: threshold,
		Applied:   res.Applied,
		Eligible:  res.Eligible,
		Failed:    len(res.Failures),
		Message:   msg,
		Warnings:  warnings,
		Outcomes:  res.Outcomes,
		Failures:  res.Failures,
		Pending:   pending,
		Dirty:     dirty,
	}
}

// DismissSuggestion drops a pending suggestion without touching the mapping.
func (s *mappingService) DismissSuggestion(ctx context.Context, scope mapping.Scope, masterRef string) (dismissed bool, err error) {
	ctx, span := s.startSpan(ctx, "DismissSuggestion", scope)
	defer func() { endSpan(span, err) }()
	if scope.IsCategory() {
		err = s.withCategory(ctx, scope, func(cs *session.CategorySession) error {
			dismissed = cs.Suggestions().Dismiss(masterRef)
			return nil
		})
	} else {
		err = s.withAttribute(ctx, scope, func(as *session.AttributeSession) error {
			dismissed = as.Suggestions().Dismiss(masterRef)
			return nil
		})
	}
	if err == nil && !dismissed {
		err = suggest.ErrSuggestionNotFound
	}
	return dismissed, err
}
