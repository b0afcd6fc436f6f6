// Package dataset reads labelled claim datasets.
//
// A dataset needs a "statement" column with the claim text and a "label"
// column holding the ordinal truth rating. Other columns are ignored. Column
// names are matched case-insensitively.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

// Format is a dataset file format.
type Format string

// Supported formats.
const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

const (
	columnStatement = "statement"
	columnLabel     = "label"
	utf8BOM         = "\ufeff"
	maxJSONLLine    = 1 << 20
)

// FormatFromName picks a format from a file name. Unknown extensions are CSV.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatCSV
	}
}

// Read parses r in the given format.
func Read(r io.Reader, format Format) ([]domain.ClaimRow, error) {
	switch format {
	case FormatJSONL:
		return ReadJSONL(r)
	case FormatCSV, "":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: unknown dataset format %q", apperrors.ErrConfiguration, format)
	}
}

// ReadCSV parses a CSV dataset. Fully blank records are skipped. Any other
// record with an empty statement or a non-integer label fails with
// ErrInvalidInput naming its line.
func ReadCSV(r io.Reader) ([]domain.ClaimRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: dataset is empty", apperrors.ErrInvalidInput)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", apperrors.ErrInvalidInput, err)
	}

	statementIdx, labelIdx, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.ClaimRow

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
		}

		line, _ := reader.FieldPos(0)

		if blankRecord(record) {
			continue
		}

		row, err := buildRow(field(record, statementIdx), field(record, labelIdx), line)
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// ReadJSONL parses one JSON object per line. The label may be a number or a
// numeric string. Blank lines and objects without either field are skipped.
func ReadJSONL(r io.Reader) ([]domain.ClaimRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	var (
		rows []domain.ClaimRow
		line int
	)

	caser := cases.Fold()

	for scanner.Scan() {
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", apperrors.ErrInvalidInput, line, err)
		}

		var statement, label string

		for key, val := range obj {
			switch caser.String(strings.TrimSpace(key)) {
			case columnStatement:
				statement = jsonScalar(val)
			case columnLabel:
				label = jsonScalar(val)
			}
		}

		if strings.TrimSpace(statement) == "" && strings.TrimSpace(label) == "" {
			continue
		}

		row, err := buildRow(statement, label, line)
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}

	return rows, nil
}

func locateColumns(header []string) (int, int, error) {
	caser := cases.Fold()
	statementIdx, labelIdx := -1, -1

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}

		switch caser.String(strings.TrimSpace(name)) {
		case columnStatement:
			if statementIdx < 0 {
				statementIdx = i
			}
		case columnLabel:
			if labelIdx < 0 {
				labelIdx = i
			}
		}
	}

	var missing []string

	if statementIdx < 0 {
		missing = append(missing, columnStatement)
	}

	if labelIdx < 0 {
		missing = append(missing, columnLabel)
	}

	if len(missing) > 0 {
		return 0, 0, fmt.Errorf("%w: missing column(s): %s", apperrors.ErrInvalidInput, strings.Join(missing, ", "))
	}

	return statementIdx, labelIdx, nil
}

func buildRow(statement, rawLabel string, line int) (domain.ClaimRow, error) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return domain.ClaimRow{}, fmt.Errorf("%w: line %d: empty statement", apperrors.ErrInvalidInput, line)
	}

	label, err := parseLabel(rawLabel)
	if err != nil {
		return domain.ClaimRow{}, fmt.Errorf("%w: line %d: %w", apperrors.ErrInvalidInput, line, err)
	}

	return domain.NewClaimRow(statement, label), nil
}

// parseLabel accepts integers and integral floats such as "4.0", which
// spreadsheet exports often produce.
func parseLabel(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty label")
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("label %q is not an integer", raw)
	}

	return int(f), nil
}

func jsonScalar(val json.RawMessage) string {
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(val, &n); err == nil {
		return n.String()
	}

	return ""
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}

	return true
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}

	return record[idx]
}
