package converter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestTabularCSVToJSON(t *testing.T) {
	src := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(src, []byte("name,age\nAlice,30\nBob,25\n"), 0o644))

	codec := &TabularCodec{}
	out, err := codec.Encode(context.Background(), src, "json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(src), "people.json"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Alice", records[0]["name"])
	assert.Equal(t, "30", records[0]["age"])
	assert.Equal(t, "Bob", records[1]["name"])
}

func TestTabularJSONToCSV(t *testing.T) {
	src := filepath.Join(t.TempDir(), "people.json")
	payload := `[{"name":"Alice","age":30},{"name":"Bob","age":25}]`
	require.NoError(t, os.WriteFile(src, []byte(payload), 0o644))

	codec := &TabularCodec{}
	out, err := codec.Encode(context.Background(), src, "csv")
	require.NoError(t, err)

	rows, err := readCSV(out)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// колонки отсортированы по имени ключа
	assert.Equal(t, []string{"age", "name"}, rows[0])
	assert.Equal(t, []string{"30", "Alice"}, rows[1])
	assert.Equal(t, []string{"25", "Bob"}, rows[2])
}

func TestTabularCSVToXLSXAndBack(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(src, []byte("id,value\n1,alpha\n2,beta\n"), 0o644))

	codec := &TabularCodec{}
	out, err := codec.Encode(context.Background(), src, "xlsx")
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "value"}, rows[0])
	assert.Equal(t, []string{"2", "beta"}, rows[2])
}

func TestTabularRejectsMalformedJSON(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"not":"an array"}`), 0o644))

	codec := &TabularCodec{}
	_, err := codec.Encode(context.Background(), src, "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array of objects")
}

func TestTabularRejectsEmptyInput(t *testing.T) {
	src := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(src, []byte(""), 0o644))

	codec := &TabularCodec{}
	_, err := codec.Encode(context.Background(), src, "json")
	require.Error(t, err)
}
