package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namerecon-service/internal/reconcile/model"
)

func qty(m map[string]int64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = decimal.NewFromInt(v)
	}
	return out
}

func TestReconcile(t *testing.T) {
	t.Run("identical maps have no discrepancies", func(t *testing.T) {
		rep := Reconcile(qty(map[string]int64{"A": 10, "B": 5}), qty(map[string]int64{"A": 10, "B": 5}), nil)
		assert.Empty(t, rep.Records)
		assert.Equal(t, 0, rep.Stats.TotalDiscrepancy)
		assert.True(t, rep.Stats.SourceTotal.Equal(decimal.NewFromInt(15)))
	})

	t.Run("missing on registered side", func(t *testing.T) {
		rep := Reconcile(qty(map[string]int64{"A": 10}), map[string]decimal.Decimal{}, nil)
		require.Len(t, rep.Records, 1)
		r := rep.Records[0]
		assert.Equal(t, "A", r.Identity)
		assert.Equal(t, model.KindMissing, r.Kind)
		assert.True(t, r.Difference.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, 1, rep.Stats.Missing)
	})

	t.Run("extra and quantity diff", func(t *testing.T) {
		rep := Reconcile(
			qty(map[string]int64{"A": 3}),
			qty(map[string]int64{"A": 5, "B": 2}),
			nil,
		)
		require.Len(t, rep.Records, 2)
		assert.Equal(t, "A", rep.Records[0].Identity)
		assert.Equal(t, model.KindQuantityDiff, rep.Records[0].Kind)
		assert.True(t, rep.Records[0].Difference.Equal(decimal.NewFromInt(-2)))
		assert.Equal(t, "B", rep.Records[1].Identity)
		assert.Equal(t, model.KindExtra, rep.Records[1].Kind)
		assert.Equal(t, 1, rep.Stats.Extra)
		assert.Equal(t, 1, rep.Stats.QuantityDiff)
	})

	t.Run("duplicates override the kind", func(t *testing.T) {
		dups := map[string]struct{}{"A": {}, "C": {}}
		rep := Reconcile(
			qty(map[string]int64{"A": 3, "C": 1}),
			qty(map[string]int64{"A": 6, "C": 1}),
			dups,
		)
		require.Len(t, rep.Records, 1)
		assert.Equal(t, model.KindDuplicateIssue, rep.Records[0].Kind)
		assert.Equal(t, 1, rep.Stats.DuplicateIssue)
	})

	t.Run("negative inputs clamp to zero", func(t *testing.T) {
		rep := Reconcile(qty(map[string]int64{"A": -4}), qty(map[string]int64{"A": 2}), nil)
		require.Len(t, rep.Records, 1)
		assert.Equal(t, model.KindExtra, rep.Records[0].Kind)
		assert.True(t, rep.Records[0].SourceQuantity.IsZero())
	})

	t.Run("conservation", func(t *testing.T) {
		src := map[string]decimal.Decimal{
			"A": decimal.RequireFromString("10.1"),
			"B": decimal.RequireFromString("0.2"),
			"C": decimal.RequireFromString("7"),
			"E": decimal.RequireFromString("1.3"),
		}
		reg := map[string]decimal.Decimal{
			"A": decimal.RequireFromString("9.9"),
			"C": decimal.RequireFromString("7"),
			"D": decimal.RequireFromString("4.4"),
			"E": decimal.RequireFromString("0.1"),
		}
		rep := Reconcile(src, reg, map[string]struct{}{"E": {}})

		sum := decimal.Zero
		for _, r := range rep.Records {
			sum = sum.Add(r.Difference)
		}
		want := rep.Stats.SourceTotal.Sub(rep.Stats.RegisteredTotal)
		assert.True(t, sum.Equal(want), "sum=%s want=%s", sum, want)
		assert.True(t, rep.Stats.NetDifference.Equal(want))
		assert.True(t, rep.Stats.SourceTotal.Equal(decimal.RequireFromString("18.6")))
		assert.True(t, rep.Stats.RegisteredTotal.Equal(decimal.RequireFromString("21.4")))
		assert.Equal(t, 4, rep.Stats.TotalDiscrepancy)
		assert.Equal(t,
			rep.Stats.TotalDiscrepancy,
			rep.Stats.Missing+rep.Stats.Extra+rep.Stats.QuantityDiff+rep.Stats.DuplicateIssue)
	})
}

func TestAggregate(t *testing.T) {
	res := MatchAll([]model.SourceItem{
		{RawLabel: "パスタ", Quantity: 2},
		{RawLabel: "ジャワカレー", Quantity: 1.5},
		{RawLabel: "パスタ", Quantity: 3},
		{RawLabel: "謎の品", Quantity: -1},
	}, catalog(), nil, model.DefaultMatchConfig())

	agg := Aggregate(res)
	assert.Len(t, agg.Quantities, 3)
	assert.True(t, agg.Quantities["パスタ"].Equal(decimal.NewFromInt(5)))
	assert.True(t, agg.Quantities["ジャワカレー"].Equal(decimal.RequireFromString("1.5")))
	assert.True(t, agg.Quantities["謎の品"].IsZero())
	assert.Contains(t, agg.Duplicates, "パスタ")
	assert.NotContains(t, agg.Duplicates, "ジャワカレー")
}
