package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d\.\-]`)

// Счётные суффиксы, которые встречаются в колонке количества: "3個", "12本".
var qtyCounters = strings.NewReplacer("個", "", "本", "", "袋", "", "箱", "", "点", "", "枚", "", "pcs", "", "PCS", "")

// ParseQuantity парсит "1,234", "１２", "3個", " 5 " и т.п.
// Мусор, NaN/Inf и отрицательные значения дают 0: количество не бывает ошибкой.
func ParseQuantity(s string) float64 {
	f, _ := ParseNumber(s)
	return f
}

// ParseNumber — то же, но ok=false, если в ячейке не число (пусто, "要見積", "-3").
// Нужен там, где 0 и «нет значения» различаются, например для цены.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// полноширинные цифры/знаки → ASCII
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '０' && r <= '９':
			return r - '０' + '0'
		case r == '．':
			return '.'
		case r == '，', r == '、':
			return ','
		case r == '－', r == '−':
			return '-'
		case r == ' ', r == '\u00A0', r == '\u3000', r == '\u202F', r == '\t':
			return -1
		default:
			return r
		}
	}, s)
	s = qtyCounters.Replace(s)
	// запятая — разделитель тысяч
	s = strings.ReplaceAll(s, ",", "")
	// оставить только цифры, точку и минус (на случай мусора)
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
