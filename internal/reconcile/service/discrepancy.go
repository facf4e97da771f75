package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"namerecon-service/internal/reconcile/model"
)

// Aggregate суммирует количества по исходной метке (не по id записи справочника)
// и запоминает метки, встретившиеся в нескольких строках.
func Aggregate(results []model.MatchResult) model.Aggregation {
	agg := model.Aggregation{
		Quantities: make(map[string]decimal.Decimal, len(results)),
		Duplicates: make(map[string]struct{}),
	}
	for _, r := range results {
		key := r.SourceItem.RawLabel
		q := decimal.NewFromFloat(model.SanitizeQuantity(r.SourceItem.Quantity))
		if ex, ok := agg.Quantities[key]; ok {
			agg.Quantities[key] = ex.Add(q)
			agg.Duplicates[key] = struct{}{}
		} else {
			agg.Quantities[key] = q
		}
	}
	return agg
}

// Reconcile сравнивает две агрегации и классифицирует расхождения.
// Все итоги считаются из входных данных.
func Reconcile(source, registered map[string]decimal.Decimal, duplicates map[string]struct{}) model.Report {
	// 1) Объединение ключей
	keys := make([]string, 0, len(source)+len(registered))
	seen := make(map[string]struct{}, len(source)+len(registered))
	for _, m := range []map[string]decimal.Decimal{source, registered} {
		for k := range m {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys) // детерминированный порядок

	rep := model.Report{
		Records: make([]model.DiscrepancyRecord, 0),
		Stats: model.DiscrepancyStats{
			SourceTotal:     decimal.Zero,
			RegisteredTotal: decimal.Zero,
			NetDifference:   decimal.Zero,
		},
	}

	for _, k := range keys {
		src := nonNegative(source[k])
		reg := nonNegative(registered[k])
		rep.Stats.SourceTotal = rep.Stats.SourceTotal.Add(src)
		rep.Stats.RegisteredTotal = rep.Stats.RegisteredTotal.Add(reg)

		diff := src.Sub(reg)
		if diff.IsZero() {
			continue
		}

		kind := classify(src, reg)
		if _, dup := duplicates[k]; dup {
			kind = model.KindDuplicateIssue
		}
		rep.Records = append(rep.Records, model.DiscrepancyRecord{
			Identity:           k,
			SourceQuantity:     src,
			RegisteredQuantity: reg,
			Difference:         diff,
			Kind:               kind,
		})
		rep.Stats.NetDifference = rep.Stats.NetDifference.Add(diff)
		countKind(&rep.Stats, kind)
	}
	rep.Stats.TotalDiscrepancy = len(rep.Records)
	return rep
}

func classify(src, reg decimal.Decimal) model.DiscrepancyKind {
	switch {
	case src.IsZero():
		return model.KindExtra
	case reg.IsZero():
		return model.KindMissing
	default:
		return model.KindQuantityDiff
	}
}

func countKind(st *model.DiscrepancyStats, k model.DiscrepancyKind) {
	switch k {
	case model.KindMissing:
		st.Missing++
	case model.KindExtra:
		st.Extra++
	case model.KindQuantityDiff:
		st.QuantityDiff++
	case model.KindDuplicateIssue:
		st.DuplicateIssue++
	}
}

// nil-значение decimal и отрицательные → 0
func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
