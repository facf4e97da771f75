package service

import (
	"namerecon-service/internal/reconcile/model"
)

// MatchAll — основная сверка меток с справочником.
// Длина и порядок результата всегда совпадают с items. Ничего не пишет:
// выученные связки только читаются.
func MatchAll(items []model.SourceItem, masters []model.MasterRecord, learned []model.LearnedMapping, cfg model.MatchConfig) []model.MatchResult {
	cfg = cfg.WithDefaults()

	// 1) Индексы: id → запись, метка → id
	byID := make(map[string]int, len(masters))
	for i := range masters {
		if _, ok := byID[masters[i].ID]; !ok {
			byID[masters[i].ID] = i
		}
	}
	learnedBy := make(map[string]string, len(learned))
	for _, m := range learned {
		learnedBy[m.RawLabel] = m.MasterID
	}

	// 2) Формы имён справочника считаем один раз на прогон
	cands := make([]candidate, len(masters))
	for i := range masters {
		cands[i] = newCandidate(masters[i].Name)
	}

	out := make([]model.MatchResult, 0, len(items))
	for _, it := range items {
		it.Quantity = model.SanitizeQuantity(it.Quantity)

		// (1) выученная связка — без подсчёта очков
		if id, ok := learnedBy[it.RawLabel]; ok {
			if idx, ok := byID[id]; ok {
				m := masters[idx]
				out = append(out, model.MatchResult{
					SourceItem: it,
					Matched:    &m,
					Confidence: 100,
					MatchType:  model.MatchLearned,
				})
				continue
			}
			// связка на удалённую запись → обычный каскад
		}

		// (2) каскад по всем записям
		out = append(out, bestOf(it, cands, masters, cfg))
	}
	return out
}

// bestOf выбирает максимум по справочнику; при равенстве — первая запись.
func bestOf(it model.SourceItem, cands []candidate, masters []model.MasterRecord, cfg model.MatchConfig) model.MatchResult {
	res := model.MatchResult{SourceItem: it, MatchType: model.MatchNone}
	if len(masters) == 0 {
		return res
	}

	a := newCandidate(it.RawLabel)
	bestIdx := -1
	best := -1.0
	bestType := model.MatchNone
	for i := range cands {
		s, t := scoreNormalized(a, cands[i], cfg)
		if s > best {
			best, bestIdx, bestType = s, i, t
		}
		if best >= 100 {
			break // выше не бывает, а равные дальше не выигрывают
		}
	}

	res.Confidence = clampScore(best)
	m := masters[bestIdx]
	if res.Confidence >= cfg.Threshold {
		res.Matched = &m
		res.MatchType = bestType
		return res
	}
	if res.Confidence > 0 {
		res.Suggestion = &m
	}
	return res
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	default:
		return s
	}
}

// Summary — счётчики по типам сопоставления для шапки отчёта.
func Summary(results []model.MatchResult) model.MatchSummary {
	sum := model.MatchSummary{Total: len(results), ByType: make(map[model.MatchType]int)}
	for _, r := range results {
		sum.ByType[r.MatchType]++
		if r.Matched != nil {
			sum.Matched++
		} else {
			sum.Unmatched++
		}
	}
	return sum
}
