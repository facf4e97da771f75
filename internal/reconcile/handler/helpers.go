package handler

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/width"

	"namerecon-service/internal/reconcile/model"
	"namerecon-service/internal/utils"
)

// Колонки по умолчанию, если в форме ничего не передали.
const (
	defaultNameKey = "商品名|品名|名称|name"
	defaultQtyKey  = "数量|個数|qty|quantity"
	defaultTagKey  = "チャネル|販売先|channel|source"

	defaultIDKey        = "id|商品コード|コード|code"
	defaultPriceKey     = "単価|価格|price"
	defaultMaterialsKey = "原材料|原材料名|materials"
	defaultAllergensKey = "アレルゲン|アレルギー|allergens"
)

var reHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// errColumnNotFound — обязательную колонку не удалось сопоставить заголовку файла.
var errColumnNotFound = errors.New("column not found")

// headerTypo: не больше одной правки (с транспозицией), и только для заголовков от 3 символов.
func headerTypo(a, b string) bool {
	if len([]rune(a)) < 3 || len([]rune(b)) < 3 {
		return false
	}
	return matchr.DamerauLevenshtein(a, b) <= 1
}

// нормализуем имя колонки: ширина, нижний регистр, убираем служ.символы/множественные пробелы
func normHeaderKey(s string) string {
	s = width.Fold.String(strings.TrimSpace(s)) // ＱＴＹ → QTY, ｼｮｳﾋﾝ → ショウヒン
	s = strings.ToLower(s)
	s = reHeaderJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ищем реальный ключ в записи по желаемому имени.
// Поддерживает варианты через "|" (например: "商品名|品名")
func resolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	// 1) точное совпадение (как есть), в порядке альтернатив
	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	nAlts := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			nAlts = append(nAlts, n)
		}
	}

	// 2) нормализованное / частичное / опечатка — берём лучший ключ.
	// Ключи перебираем отсортированными: порядок map случаен.
	bestKey := ""
	bestScore := 0
	for _, k := range sortedKeys(rec) {
		nk := normHeaderKey(k)
		if nk == "" {
			continue
		}
		score := 0
		for _, n := range nAlts {
			switch {
			case nk == n:
				score = max(score, 1000)
			case strings.Contains(nk, n) || strings.Contains(n, nk):
				score = max(score, 100+len([]rune(n)))
			case headerTypo(nk, n):
				score = max(score, 50)
			}
		}
		if score > bestScore {
			bestScore, bestKey = score, k
		}
	}
	return bestKey
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// toSourceItems — адаптер на границе: строки таблицы → SourceItem, одна к одной.
// Пустое наименование не повод терять строку: она уйдёт в несопоставленные,
// а её количество останется в итогах. Количество не бывает ошибкой.
func toSourceItems(maps []map[string]string, m model.Mapping) ([]model.SourceItem, error) {
	items := make([]model.SourceItem, 0, len(maps))
	if len(maps) == 0 {
		return items, nil
	}
	// колонки определяем по первой записи: у всех строк одинаковые ключи
	want := orDefault(m.NameKey, defaultNameKey)
	nameKey := resolveKey(maps[0], want)
	if nameKey == "" {
		return nil, fmt.Errorf("%w: name (%s)", errColumnNotFound, want)
	}
	qtyKey := resolveKey(maps[0], orDefault(m.QtyKey, defaultQtyKey))
	tagKey := resolveKey(maps[0], orDefault(m.TagKey, defaultTagKey))

	for _, rec := range maps {
		var qty float64
		if qtyKey != "" {
			qty = utils.ParseQuantity(rec[qtyKey])
		}
		tag := m.Tag
		if tagKey != "" {
			if v := strings.TrimSpace(rec[tagKey]); v != "" {
				tag = v
			}
		}
		items = append(items, model.NewSourceItem(strings.TrimSpace(rec[nameKey]), qty, tag))
	}
	return items, nil
}

// toMasters — строки файла справочника → MasterRecord. Строка без id или имени — пропуск,
// файл без колонки id или имени — ошибка.
func toMasters(maps []map[string]string, m model.CatalogMapping) ([]model.MasterRecord, error) {
	out := make([]model.MasterRecord, 0, len(maps))
	if len(maps) == 0 {
		return out, nil
	}
	wantID := orDefault(m.IDKey, defaultIDKey)
	idKey := resolveKey(maps[0], wantID)
	if idKey == "" {
		return nil, fmt.Errorf("%w: id (%s)", errColumnNotFound, wantID)
	}
	wantName := orDefault(m.NameKey, defaultNameKey)
	nameKey := resolveKey(maps[0], wantName)
	if nameKey == "" {
		return nil, fmt.Errorf("%w: name (%s)", errColumnNotFound, wantName)
	}
	priceKey := resolveKey(maps[0], orDefault(m.PriceKey, defaultPriceKey))
	matKey := resolveKey(maps[0], orDefault(m.MaterialsKey, defaultMaterialsKey))
	algKey := resolveKey(maps[0], orDefault(m.AllergensKey, defaultAllergensKey))

	for _, rec := range maps {
		id := strings.TrimSpace(rec[idKey])
		name := strings.TrimSpace(rec[nameKey])
		if id == "" || name == "" {
			continue
		}
		mr := model.MasterRecord{ID: id, Name: name}
		if priceKey != "" {
			// "要見積" и прочий мусор — цены нет, а не 0
			if p, ok := utils.ParseNumber(rec[priceKey]); ok {
				mr.UnitPrice = &p
			}
		}
		if matKey != "" {
			mr.RawMaterialsText = strings.TrimSpace(rec[matKey])
		}
		if algKey != "" {
			mr.AllergenText = strings.TrimSpace(rec[algKey])
		}
		out = append(out, mr)
	}
	return out, nil
}
