package service

import (
	"strings"
	"unicode/utf8"

	"namerecon-service/internal/reconcile/model"
)

// Score — уверенность 0..100 для пары (метка кандидата, имя из справочника).
// Каскад: exact → brand → substring → similarity; побеждает первый сработавший ярус.
// Несимметрична: a — исходная метка, b — имя записи справочника.
func Score(a, b string, cfg model.MatchConfig) (float64, model.MatchType) {
	return scoreNormalized(newCandidate(a), newCandidate(b), cfg.WithDefaults())
}

// candidate — заранее посчитанные формы имени, чтобы не нормализовать
// одну и ту же метку заново для каждой записи справочника.
type candidate struct {
	norm  string
	brand string
	n     int // длина norm в рунах
}

func newCandidate(raw string) candidate {
	norm := Normalize(raw)
	return candidate{
		norm:  norm,
		brand: ExtractBrand(raw),
		n:     utf8.RuneCountInString(norm),
	}
}

func scoreNormalized(a, b candidate, cfg model.MatchConfig) (float64, model.MatchType) {
	// пустая метка ни с чем не совпадает
	if a.n == 0 || b.n == 0 {
		return 0, model.MatchNone
	}

	// (1) точное совпадение нормализованных
	if a.norm == b.norm {
		return 100, model.MatchExact
	}

	// (2) ядро бренда
	if utf8.RuneCountInString(a.brand) >= cfg.MinBrandCoreLength && a.brand == b.brand {
		return cfg.BrandScore, model.MatchBrand
	}

	shorter, longer := min(a.n, b.n), max(a.n, b.n)

	// (3) вхождение одной строки в другую
	if strings.Contains(a.norm, b.norm) || strings.Contains(b.norm, a.norm) {
		return float64(shorter) / float64(longer) * cfg.ContainmentMaxScore, model.MatchSubstring
	}

	// (4) наибольшая общая подстрока
	if l := longestCommonSubstring(a.norm, b.norm); l >= cfg.MinLCSLength {
		return float64(l) / float64(longer) * cfg.LCSMaxScore, model.MatchSimilarity
	}

	return 0, model.MatchNone
}
