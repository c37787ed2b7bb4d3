package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/telecuidado/backend/internal/normalizer"
	"github.com/telecuidado/backend/internal/types"
)

// Batch describes the outcome of one workbook import.
type Batch struct {
	ID       string
	Kind     string
	Rows     int
	Skipped  int
	Imported time.Time
}

func newBatch(kind string, rows, skipped int) Batch {
	return Batch{
		ID:       uuid.New().String(),
		Kind:     kind,
		Rows:     rows,
		Skipped:  skipped,
		Imported: time.Now(),
	}
}

// columnMap holds the detected column index per logical field, -1 when the
// sheet has no such column.
type columnMap struct {
	date, result, duration, beneficiary, phone, operator, commune int
}

// detectColumns matches headers by normalized keywords. The exports this
// tool receives come from several municipalities, so header names and
// ordering drift; matching is by containment on the folded header text.
func detectColumns(header []string) columnMap {
	cols := columnMap{date: -1, result: -1, duration: -1, beneficiary: -1, phone: -1, operator: -1, commune: -1}
	for i, h := range header {
		n := normalizer.NormalizeName(h)
		switch {
		case cols.date == -1 && (strings.Contains(n, "fecha") || strings.Contains(n, "date")):
			cols.date = i
		case cols.result == -1 && (strings.Contains(n, "resultado") || strings.Contains(n, "estado") || strings.Contains(n, "result")):
			cols.result = i
		case cols.duration == -1 && (strings.Contains(n, "duracion") || strings.Contains(n, "segundos") || strings.Contains(n, "duration")):
			cols.duration = i
		case cols.beneficiary == -1 && (strings.Contains(n, "beneficiario") || strings.Contains(n, "adulto mayor") || strings.Contains(n, "usuario") || strings.Contains(n, "nombre")):
			cols.beneficiary = i
		case cols.phone == -1 && (strings.Contains(n, "telefono") || strings.Contains(n, "fono") || strings.Contains(n, "celular") || strings.Contains(n, "phone")):
			cols.phone = i
		case cols.operator == -1 && (strings.Contains(n, "operador") || strings.Contains(n, "teleoperador") || strings.Contains(n, "ejecutiv")):
			cols.operator = i
		case cols.commune == -1 && strings.Contains(n, "comuna"):
			cols.commune = i
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// flexCell wraps a cell as a FlexValue, tagging numeric text as a number so
// Excel date serials survive the round trip through GetRows.
func flexCell(row []string, idx int) types.FlexValue {
	s := cell(row, idx)
	if s == "" {
		return types.FlexValue{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return types.FlexValue{Num: f, IsNum: true}
	}
	return types.FlexValue{Str: s}
}

func firstSheetRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("workbook has no data rows")
	}
	return rows, nil
}

// ReadCalls parses a call-results workbook into raw call records. Rows with
// neither a beneficiary nor a phone are export noise and are skipped; the
// batch reports how many.
func ReadCalls(r io.Reader) ([]types.RawCallRecord, Batch, error) {
	rows, err := firstSheetRows(r)
	if err != nil {
		return nil, Batch{}, err
	}

	cols := detectColumns(rows[0])
	if cols.result == -1 && cols.date == -1 {
		return nil, Batch{}, fmt.Errorf("sheet does not look like a call export: no result or date column")
	}

	records := make([]types.RawCallRecord, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		rec := types.RawCallRecord{
			Date:        flexCell(row, cols.date),
			Result:      cell(row, cols.result),
			Duration:    flexCell(row, cols.duration),
			Beneficiary: cell(row, cols.beneficiary),
			Operator:    cell(row, cols.operator),
		}
		if phone := cell(row, cols.phone); phone != "" {
			rec.Phones = types.NewPhoneField(phone)
		}
		if rec.Beneficiary == "" && len(rec.Phones.Candidates()) == 0 {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, newBatch("calls", len(records), skipped), nil
}

// ReadAssignments parses an operator-assignment workbook.
func ReadAssignments(r io.Reader) ([]types.Assignment, Batch, error) {
	rows, err := firstSheetRows(r)
	if err != nil {
		return nil, Batch{}, err
	}

	cols := detectColumns(rows[0])
	if cols.beneficiary == -1 || cols.operator == -1 {
		return nil, Batch{}, fmt.Errorf("sheet does not look like an assignment export: missing beneficiary or operator column")
	}

	assignments := make([]types.Assignment, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		a := types.Assignment{
			OperatorName: cell(row, cols.operator),
			Beneficiary:  cell(row, cols.beneficiary),
			Commune:      cell(row, cols.commune),
		}
		if phone := cell(row, cols.phone); phone != "" {
			a.Phones = types.NewPhoneField(phone)
		}
		if a.Beneficiary == "" || a.OperatorName == "" {
			skipped++
			continue
		}
		assignments = append(assignments, a)
	}
	return assignments, newBatch("assignments", len(assignments), skipped), nil
}
