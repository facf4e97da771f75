package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ReadAnyMaps — выберет парсер по расширению и вернёт строки как срез map[header]value.
// headerRow — номер строки заголовков (1-based). Порядок строк сохраняется.
func ReadAnyMaps(r io.Reader, filename string, headerRow int) ([]map[string]string, error) {
	if headerRow <= 0 {
		headerRow = 1
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		return readXLSX(r, headerRow)
	case ".xls":
		return readXLS(r, headerRow)
	case ".csv", ".txt":
		return readCSV(r, headerRow, ',')
	case ".tsv":
		return readCSV(r, headerRow, '\t')
	default:
		return nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// pickHeader — берёт строку заголовков и подставляет Column N для пустых.
// Строка заголовков за концом файла — ошибка, а не пустой результат.
func pickHeader(rows [][]string, headerRow int) ([]string, error) {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		return nil, fmt.Errorf("header row %d out of range: file has %d rows", headerRow, len(rows))
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = strings.TrimSpace(strings.TrimPrefix(v, "\uFEFF"))
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
	}
	return out, nil
}

// rowsToMaps — конвертирует AoA в []map по заголовкам, пропуская полностью пустые строки.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	start := headerRow // первая строка после заголовков
	var out []map[string]string
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := 0; c < len(headers); c++ {
			var v string
			if c < len(rec) {
				v = rec[c]
			}
			m[headers[c]] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}
