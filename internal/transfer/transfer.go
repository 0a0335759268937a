// Package transfer reads and writes the comma-separated interchange format
// used by import and export.
package transfer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/validation"
)

var (
	// Columns is the fixed export column order.
	Columns = []string{"date", "customer", "hours", "description", "created_at"}
	// RequiredColumns must all be present in an import header.
	RequiredColumns = []string{"date", "customer", "hours", "description"}
)

const (
	MsgEmpty          = "The file appears to be empty."
	msgMissingColumns = "Missing required columns: %s."
	msgUnparseable    = "Could not parse CSV: %v"
	msgBadRow         = "Row %d: could not parse row: %v"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM decodes raw upload or file bytes, dropping a leading UTF-8 byte
// order mark.
func StripBOM(b []byte) string {
	return string(bytes.TrimPrefix(b, utf8BOM))
}

// Write encodes entries with a header row. Only the five known columns are
// written.
func Write(w io.Writer, entries []models.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.Date,
			e.Customer,
			strconv.FormatFloat(e.Hours, 'f', -1, 64),
			e.Description,
			e.CreatedAt,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func Serialize(entries []models.Entry) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Parse decodes import text. Rows that fail validation are reported in the
// returned messages and left out of the accepted set; they never stop the
// rows after them from being read.
func Parse(text string) ([]models.ImportRow, []string) {
	if strings.TrimSpace(text) == "" {
		return nil, []string{MsgEmpty}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	// Stray quotes inside unquoted fields are kept as text.
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, []string{MsgEmpty}
	}
	if err != nil {
		return nil, []string{fmt.Sprintf(msgUnparseable, err)}
	}

	index := map[string]int{}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, []string{fmt.Sprintf(msgMissingColumns, strings.Join(missing, ", "))}
	}

	var (
		rows []models.ImportRow
		msgs []string
	)
	// The header is row 1.
	for rowNum := 2; ; rowNum++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			msgs = append(msgs, fmt.Sprintf(msgBadRow, rowNum, perr.Err))
			continue
		}
		if err != nil {
			return nil, []string{fmt.Sprintf(msgUnparseable, err)}
		}
		fields := make(map[string]string, len(Columns))
		for _, col := range Columns {
			if i, ok := index[col]; ok && i < len(record) {
				fields[col] = record[i]
			}
		}

		row, rowMsgs := validation.ValidateRow(rowNum, fields)
		if len(rowMsgs) > 0 {
			msgs = append(msgs, rowMsgs...)
			continue
		}
		rows = append(rows, row)
	}

	return rows, msgs
}
