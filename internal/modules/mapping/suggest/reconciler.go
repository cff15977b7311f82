package suggest

import (
	"context"
	"fmt"
	"strings"
)

// Reconciler holds the pending AI suggestions of one session and turns accepted
// ones into merge operations. Suggestions live only here; applying one changes
// the working mapping and removes it from the pending list.
type Reconciler[S Suggestion] struct {
	order []string
	items map[string]S
	apply func(s S, threshold float64) (Outcome, error)
}

func newReconciler[S Suggestion](apply func(S, float64) (Outcome, error)) *Reconciler[S] {
	return &Reconciler[S]{items: make(map[string]S), apply: apply}
}

// Load replaces the pending list. A later suggestion for the same master
// reference replaces an earlier one; first-seen order is kept. Entries with a
// blank master reference are dropped and counted.
func (r *Reconciler[S]) Load(suggestions []S) (dropped int) {
	r.order = r.order[:0]
	r.items = make(map[string]S, len(suggestions))
	for _, s := range suggestions {
		ref := strings.TrimSpace(s.MasterRef())
		if ref == "" {
			dropped++
			continue
		}
		if _, seen := r.items[ref]; !seen {
			r.order = append(r.order, ref)
		}
		r.items[ref] = s
	}
	return dropped
}

// Pending returns the pending suggestions in load order.
func (r *Reconciler[S]) Pending() []S {
	out := make([]S, 0, len(r.order))
	for _, ref := range r.order {
		out = append(out, r.items[ref])
	}
	return out
}

func (r *Reconciler[S]) Len() int { return len(r.order) }

func (r *Reconciler[S]) Get(masterRef string) (S, bool) {
	s, ok := r.items[masterRef]
	return s, ok
}

// ApplyOne applies the pending suggestion for masterRef. It stays pending when
// the merge fails.
func (r *Reconciler[S]) ApplyOne(masterRef string) (Outcome, error) {
	return r.applyOne(masterRef, 0)
}

func (r *Reconciler[S]) applyOne(masterRef string, threshold float64) (Outcome, error) {
	s, ok := r.items[masterRef]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrSuggestionNotFound, masterRef)
	}
	out, err := r.apply(s, threshold)
	if err != nil {
		return Outcome{MasterRef: masterRef}, err
	}
	r.Dismiss(masterRef)
	return out, nil
}

// ApplyAllAboveThreshold applies every pending suggestion with a score at or
// above threshold, one after the other. Each merge completes before the next
// starts so contested targets resolve in load order. ctx is checked between
// suggestions; on cancellation the partial result is returned with ctx.Err().
// Per-suggestion failures are collected and do not stop the run.
func (r *Reconciler[S]) ApplyAllAboveThreshold(ctx context.Context, threshold float64) (BulkResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var res BulkResult
	var eligible []string
	for _, ref := range r.order {
		if normalizeScore(r.items[ref].Score()) >= threshold {
			eligible = append(eligible, ref)
		}
	}
	res.Eligible = len(eligible)
	for _, ref := range eligible {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out, err := r.applyOne(ref, threshold)
		if err != nil {
			res.Failures = append(res.Failures, Failure{MasterRef: ref, Err: err, Message: err.Error()})
			continue
		}
		res.Applied++
		res.Outcomes = append(res.Outcomes, out)
	}
	return res, nil
}

// Dismiss drops the suggestion for masterRef without touching the mapping.
func (r *Reconciler[S]) Dismiss(masterRef string) bool {
	if _, ok := r.items[masterRef]; !ok {
		return false
	}
	delete(r.items, masterRef)
	for i, ref := range r.order {
		if ref == masterRef {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}
