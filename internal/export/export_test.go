package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"jobportal/internal/domain/job"
)

func sampleJobs() []job.Job {
	return []job.Job{{
		ID:        "b3c1c7a2-4a43-4a57-9d5f-2a8f0c1e9d11",
		Title:     "Data, Scientist",
		Company:   "Acme",
		Status:    job.StatusActive,
		Salary:    job.Range{Min: 10, Max: 20},
		CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}}
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("")
	assert.True(t, ok)
	assert.Equal(t, FormatJSON, f)

	f, ok = ParseFormat("XLSX")
	assert.True(t, ok)
	assert.Equal(t, FormatXLSX, f)

	_, ok = ParseFormat("pdf")
	assert.False(t, ok)
}

func TestEncodeCSVQuotesValues(t *testing.T) {
	data, err := Encode(FormatCSV, JobsTable(sampleJobs()))
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "title", records[0][1])
	assert.Equal(t, "Data, Scientist", records[1][1])
	assert.Equal(t, "2026-02-01T09:00:00Z", records[1][12])
}

func TestEncodeXLSX(t *testing.T) {
	data, err := Encode(FormatXLSX, JobsTable(sampleJobs()))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("jobs")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "Acme", rows[1][2])
}

func TestEncodeJSONUsesRecords(t *testing.T) {
	data, err := Encode(FormatJSON, JobsTable(sampleJobs()))
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Data, Scientist", decoded[0]["title"])
}
