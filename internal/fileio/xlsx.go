package fileio

import (
	"io"

	excelize "github.com/xuri/excelize/v2"
)

// readXLSX читает первый непустой лист книги.
func readXLSX(r io.Reader, headerRow int) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		h, err := pickHeader(rows, headerRow)
		if err != nil {
			return nil, err
		}
		return rowsToMaps(rows, h, headerRow), nil
	}
	return nil, nil
}
