package converter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/BatmanBruc/morph-bot/internal/formats"
	"github.com/xuri/excelize/v2"
)

// TabularCodec пересериализует табличные данные (csv/xlsx/json) внутри
// процесса. Первая строка таблицы считается заголовком.
type TabularCodec struct{}

func (c *TabularCodec) Encode(ctx context.Context, inputPath, targetExt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rows, err := readTable(inputPath)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("input table is empty")
	}

	outputPath := siblingPath(inputPath, targetExt)
	if err := writeTable(outputPath, rows, formats.Normalize(targetExt)); err != nil {
		_ = os.Remove(outputPath)
		return "", err
	}
	return outputPath, nil
}

func readTable(path string) ([][]string, error) {
	switch formats.Normalize(filepath.Ext(path)) {
	case "csv":
		return readCSV(path)
	case "xlsx":
		return readXLSX(path)
	case "json":
		return readJSON(path)
	default:
		return nil, fmt.Errorf("unsupported tabular input: %s", path)
	}
}

func writeTable(path string, rows [][]string, target string) error {
	switch target {
	case "csv":
		return writeCSV(path, rows)
	case "xlsx":
		return writeXLSX(path, rows)
	case "json":
		return writeJSON(path, rows)
	default:
		return fmt.Errorf("unsupported tabular output: %s", target)
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// JSON-таблица — массив записей: колонки берутся из ключей первой записи.
func readJSON(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("expected an array of objects: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("input table is empty")
	}

	header := make([]string, 0, len(records[0]))
	for k := range records[0] {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, rec := range records {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = stringifyCell(rec[col])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeJSON(path string, rows [][]string) error {
	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func stringifyCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
