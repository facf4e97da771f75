package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// MasterRecord — запись справочника, с которой сверяются свободные наименования.
type MasterRecord struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	UnitPrice        *float64 `json:"unitPrice,omitempty"`
	RawMaterialsText string   `json:"rawMaterialsText,omitempty"`
	AllergenText     string   `json:"allergenText,omitempty"`
}

// SourceItem — одна строка внешнего документа.
type SourceItem struct {
	RawLabel  string  `json:"rawLabel"`
	Quantity  float64 `json:"quantity"`
	SourceTag string  `json:"sourceTag,omitempty"`
}

// NewSourceItem строит SourceItem, приводя количество к безопасному значению.
func NewSourceItem(rawLabel string, qty float64, tag string) SourceItem {
	return SourceItem{RawLabel: rawLabel, Quantity: SanitizeQuantity(qty), SourceTag: tag}
}

// SanitizeQuantity: NaN, ±Inf и отрицательные → 0.
func SanitizeQuantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return 0
	}
	return q
}

// LearnedMapping — подтверждённая человеком связка «исходная метка → запись справочника».
type LearnedMapping struct {
	RawLabel string `json:"rawLabel"`
	MasterID string `json:"masterId"`
}

type MatchType string

const (
	MatchLearned    MatchType = "learned"
	MatchExact      MatchType = "exact"
	MatchBrand      MatchType = "brand"
	MatchSubstring  MatchType = "substring"
	MatchSimilarity MatchType = "similarity"
	MatchNone       MatchType = "none"
)

type MatchResult struct {
	SourceItem SourceItem    `json:"sourceItem"`
	Matched    *MasterRecord `json:"matched"`
	Confidence float64       `json:"confidence"`
	MatchType  MatchType     `json:"matchType"`
	// Suggestion — ближайший кандидат ниже порога (для ручного разбора).
	Suggestion *MasterRecord `json:"suggestion,omitempty"`
}

// MatchConfig — настраиваемые константы каскада.
type MatchConfig struct {
	Threshold           float64 `json:"threshold"`
	BrandScore          float64 `json:"brandScore"`
	ContainmentMaxScore float64 `json:"containmentMaxScore"`
	LCSMaxScore         float64 `json:"lcsMaxScore"`
	MinBrandCoreLength  int     `json:"minBrandCoreLength"`
	MinLCSLength        int     `json:"minLcsLength"`
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Threshold:           40,
		BrandScore:          90,
		ContainmentMaxScore: 80,
		LCSMaxScore:         70,
		MinBrandCoreLength:  2,
		MinLCSLength:        3,
	}
}

// WithDefaults подставляет значения по умолчанию вместо нулевых/некорректных.
// Порог не выше 100, иначе выученная связка (100) оказалась бы «ниже порога».
func (c MatchConfig) WithDefaults() MatchConfig {
	d := DefaultMatchConfig()
	if c.Threshold <= 0 || math.IsNaN(c.Threshold) {
		c.Threshold = d.Threshold
	}
	if c.Threshold > 100 {
		c.Threshold = 100
	}
	if c.BrandScore <= 0 {
		c.BrandScore = d.BrandScore
	}
	if c.ContainmentMaxScore <= 0 {
		c.ContainmentMaxScore = d.ContainmentMaxScore
	}
	if c.LCSMaxScore <= 0 {
		c.LCSMaxScore = d.LCSMaxScore
	}
	if c.MinBrandCoreLength <= 0 {
		c.MinBrandCoreLength = d.MinBrandCoreLength
	}
	if c.MinLCSLength <= 0 {
		c.MinLCSLength = d.MinLCSLength
	}
	return c
}

type DiscrepancyKind string

const (
	KindMissing        DiscrepancyKind = "missing"
	KindExtra          DiscrepancyKind = "extra"
	KindQuantityDiff   DiscrepancyKind = "quantity_diff"
	KindDuplicateIssue DiscrepancyKind = "duplicate_issue"
)

type DiscrepancyRecord struct {
	Identity           string          `json:"identity"`
	SourceQuantity     decimal.Decimal `json:"sourceQuantity"`
	RegisteredQuantity decimal.Decimal `json:"registeredQuantity"`
	Difference         decimal.Decimal `json:"difference"`
	Kind               DiscrepancyKind `json:"kind"`
}

type DiscrepancyStats struct {
	TotalDiscrepancy int             `json:"totalDiscrepancy"` // число записей
	Missing          int             `json:"missing"`
	Extra            int             `json:"extra"`
	QuantityDiff     int             `json:"quantityDiff"`
	DuplicateIssue   int             `json:"duplicateIssue"`
	SourceTotal      decimal.Decimal `json:"sourceTotal"`
	RegisteredTotal  decimal.Decimal `json:"registeredTotal"`
	NetDifference    decimal.Decimal `json:"netDifference"`
}

type Report struct {
	Records []DiscrepancyRecord `json:"records"`
	Stats   DiscrepancyStats    `json:"stats"`
}

// Aggregation — количества по исходной метке плюс метки, встретившиеся в нескольких строках.
type Aggregation struct {
	Quantities map[string]decimal.Decimal
	Duplicates map[string]struct{}
}

type MatchSummary struct {
	Total     int               `json:"total"`
	Matched   int               `json:"matched"`
	Unmatched int               `json:"unmatched"`
	ByType    map[MatchType]int `json:"byType"`
}

// Mapping — какие колонки файла читать.
type Mapping struct {
	NameKey   string // колонка с наименованием
	QtyKey    string // колонка с количеством
	TagKey    string // колонка с каналом/источником (опционально)
	Tag       string // постоянный тег, если колонки нет
	HeaderRow int    // строка заголовков (1-based)
}

// CatalogMapping — колонки файла справочника.
type CatalogMapping struct {
	IDKey        string
	NameKey      string
	PriceKey     string
	MaterialsKey string
	AllergensKey string
	HeaderRow    int
}
