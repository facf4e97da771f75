package service

import "regexp"

// Словарь типов продукта, срезаемых ради «ядра бренда».
// Длинные формы раньше коротких в альтернации.
var reCategorySuffix = regexp.MustCompile(`ドレッシング|マヨネーズ|ケチャップ|フレーク|ペースト|カレー|ソース|スープ|ルウ|ルー|だし|タレ|たれ`)

// ExtractBrand — ядро бренда: нормализованное имя без словаря типов продукта,
// со снятыми дакутэн. Сигнал намеренно грубый.
func ExtractBrand(raw string) string {
	out := Normalize(raw)
	prev := ""
	for out != prev {
		prev = out
		out = reCategorySuffix.ReplaceAllString(out, "")
	}
	return RemoveDakuten(out)
}
