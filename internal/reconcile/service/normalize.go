package service

import (
	"regexp"
	"strings"
	"unicode"
)

// Число + единица фасовки: "1kg", "500ml", "2L". Регистр — строго как в списке.
var rePackSize = regexp.MustCompile(`[0-9]+(?:kg|Kg|ml|ML|mL|g|G|l|L)`)

// Рекламные/упаковочные слова. "お徳用" раньше "徳用", иначе остаётся "お".
var reQualifier = regexp.MustCompile(`お徳用|徳用|業務用|大容量`)

// Внутренняя пометка полуфабриката.
const intermediateMarker = "【P】"

// Normalize — главный конвейер канонизации наименования.
// Чистая и тотальная функция: любая строка, включая пустую, даёт строку.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// 1) Пробелы (включая U+3000) удаляем целиком, не схлопываем
	out := stripSpaces(s)

	// 2) Полноширинные цифры → ASCII
	out = narrowDigits(out)

	// 3–5) Вырезания повторяем до неподвижной точки:
	// удаление одного токена может склеить другой ("5徳用g" → "5g")
	prev := ""
	for out != prev {
		prev = out
		out = rePackSize.ReplaceAllString(out, "")
		out = reQualifier.ReplaceAllString(out, "")
		out = strings.ReplaceAll(out, intermediateMarker, "")
	}
	return out
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ０-９ → 0-9 фиксированным сдвигом кодовой точки
func narrowDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - '０' + '0'
		}
		return r
	}, s)
}

// Звонкие/полузвонкие кана → базовая форма.
var dakuten = map[rune]rune{
	// хирагана
	'が': 'か', 'ぎ': 'き', 'ぐ': 'く', 'げ': 'け', 'ご': 'こ',
	'ざ': 'さ', 'じ': 'し', 'ず': 'す', 'ぜ': 'せ', 'ぞ': 'そ',
	'だ': 'た', 'ぢ': 'ち', 'づ': 'つ', 'で': 'て', 'ど': 'と',
	'ば': 'は', 'び': 'ひ', 'ぶ': 'ふ', 'べ': 'へ', 'ぼ': 'ほ',
	'ぱ': 'は', 'ぴ': 'ひ', 'ぷ': 'ふ', 'ぺ': 'へ', 'ぽ': 'ほ',
	'ゔ': 'う',
	// катакана
	'ガ': 'カ', 'ギ': 'キ', 'グ': 'ク', 'ゲ': 'ケ', 'ゴ': 'コ',
	'ザ': 'サ', 'ジ': 'シ', 'ズ': 'ス', 'ゼ': 'セ', 'ゾ': 'ソ',
	'ダ': 'タ', 'ヂ': 'チ', 'ヅ': 'ツ', 'デ': 'テ', 'ド': 'ト',
	'バ': 'ハ', 'ビ': 'ヒ', 'ブ': 'フ', 'ベ': 'ヘ', 'ボ': 'ホ',
	'パ': 'ハ', 'ピ': 'ヒ', 'プ': 'フ', 'ペ': 'ヘ', 'ポ': 'ホ',
	'ヴ': 'ウ', 'ヷ': 'ワ', 'ヺ': 'ヲ',
}

// RemoveDakuten складывает звонкие кана в глухие; остальное без изменений.
func RemoveDakuten(s string) string {
	return strings.Map(func(r rune) rune {
		if base, ok := dakuten[r]; ok {
			return base
		}
		return r
	}, s)
}
