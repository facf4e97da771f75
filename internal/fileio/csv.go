package fileio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV reads CSV/TSV with headerRow (1-based), auto-detecting encoding and converting to UTF-8.
// Marketplace exports are usually Shift_JIS; EUC-JP and ISO-2022-JP are handled too.
func readCSV(r io.Reader, headerRow int, comma rune) ([]map[string]string, error) {
	br := bufio.NewReader(r)

	// Excel пишет BOM в UTF-8 выгрузках
	if peek, _ := br.Peek(3); bytes.Equal(peek, utf8BOM) {
		_, _ = br.Discard(3)
	}

	// Peek a bit to detect encoding
	peek, _ := br.Peek(4096)
	var dec io.Reader = br
	if enc := detectEncoding(peek); enc != nil {
		dec = transform.NewReader(br, enc.NewDecoder())
	}

	cr := csv.NewReader(dec)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h, err := pickHeader(rows, headerRow)
	if err != nil {
		return nil, err
	}
	return rowsToMaps(rows, h, headerRow), nil
}

// detectEncoding — nil значит UTF-8 (или ASCII), декодер не нужен.
func detectEncoding(peek []byte) encoding.Encoding {
	if len(peek) == 0 || validUTF8Prefix(peek) {
		return nil
	}
	det, err := chardet.NewTextDetector().DetectBest(peek)
	if err != nil || det == nil {
		return nil
	}
	switch strings.ToLower(det.Charset) {
	case "shift_jis", "windows-31j", "cp932":
		return japanese.ShiftJIS
	case "euc-jp":
		return japanese.EUCJP
	case "iso-2022-jp":
		return japanese.ISO2022JP
	default:
		// assume UTF-8
		return nil
	}
}

// хвост окна мог оборваться посреди руны
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return false
}
