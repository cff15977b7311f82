package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping"
)

// Result is the summary of one import run.
type Result struct {
	AppliedCount int      `json:"applied_count"`
	SkippedCount int      `json:"skipped_count"`
	Displaced    []string `json:"displaced,omitempty"`
	Warnings     []string `json:"warnings"`
}

// Summary renders the short user-facing line, e.g. "imported 3, skipped 1".
func (r Result) Summary() string {
	return fmt.Sprintf("imported %d, skipped %d", r.AppliedCount, r.SkippedCount)
}

// FirstWarnings returns at most n warnings.
func (r Result) FirstWarnings(n int) []string {
	if n <= 0 || len(r.Warnings) <= n {
		return r.Warnings
	}
	return r.Warnings[:n]
}

// Validator routes an external mapping document through a MergeEngine row by row.
// A bad row is reported and skipped; the batch keeps going.
type Validator struct {
	engine *mapping.MergeEngine
}

func NewValidator(engine *mapping.MergeEngine) *Validator {
	return &Validator{engine: engine}
}

// Apply imports doc sequentially. ctx is checked between rows; a cancelled run
// keeps the rows applied so far and returns ctx.Err(). When no row could be
// applied the result is returned together with mapping.ErrNothingToImport.
func (v *Validator) Apply(ctx context.Context, doc Document) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res := Result{Warnings: []string{}}
	for i, row := range doc.Mappings {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if v.applyRow(i+1, row, &res) {
			res.AppliedCount++
		} else {
			res.SkippedCount++
		}
	}
	if res.AppliedCount == 0 {
		return res, mapping.ErrNothingToImport
	}
	return res, nil
}

// applyRow reports whether the row was applied. Row-level problems skip the
// whole row; value-level problems skip only that value entry.
func (v *Validator) applyRow(n int, row Row, res *Result) bool {
	masterKey := strings.TrimSpace(row.MasterKey)
	if masterKey == "" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: missing master parameter key", n))
		return false
	}
	if !v.engine.Master().Has(masterKey) {
		res.Warnings = append(res.Warnings, refWarning(mapping.RefMasterItem, masterKey))
		return false
	}
	targetKey := ""
	if row.TargetKey != nil {
		targetKey = strings.TrimSpace(*row.TargetKey)
	}
	if targetKey == "" {
		if err := v.engine.Clear(masterKey); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			return false
		}
		return true
	}
	if !v.engine.Target().Has(targetKey) {
		res.Warnings = append(res.Warnings, refWarning(mapping.RefTargetItem, targetKey))
		return false
	}
	displaced, err := v.engine.Assign(masterKey, targetKey)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		return false
	}
	res.Displaced = append(res.Displaced, displaced...)

	if len(row.Values) == 0 {
		return true
	}
	if !v.engine.Type().SupportsValues() {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: values ignored for %s", masterKey, v.engine.Type()))
		return true
	}
	used := make(map[string]struct{}, len(row.Values))
	for _, vr := range row.Values {
		mv := strings.TrimSpace(vr.MasterKey)
		if !v.engine.Master().HasValue(masterKey, mv) {
			res.Warnings = append(res.Warnings, refWarning(mapping.RefMasterValue, mv))
			continue
		}
		tv := ""
		if vr.TargetKey != nil {
			tv = strings.TrimSpace(*vr.TargetKey)
		}
		if tv == "" {
			if err := v.engine.ClearValue(masterKey, mv); err != nil {
				res.Warnings = append(res.Warnings, err.Error())
			}
			continue
		}
		if !v.engine.Target().HasValue(targetKey, tv) {
			res.Warnings = append(res.Warnings, refWarning(mapping.RefTargetValue, tv))
			continue
		}
		if _, dup := used[tv]; dup {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: value %q used more than once", masterKey, tv))
			continue
		}
		used[tv] = struct{}{}
		if _, err := v.engine.AssignValue(masterKey, mv, tv); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		}
	}
	return true
}

func refWarning(kind mapping.RefKind, key string) string {
	return (&mapping.ReferenceError{Kind: kind, Key: key}).Error()
}
