// internal/reporting/report_test.go
package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/linkforge-cli/internal/flow"
)

func sampleResults() []flow.Result {
	return []flow.Result{
		{SiteName: "Test Site", Domain: "example.test", Status: flow.StatusSuccess,
			ProfileURL: "https://example.test/listing/1", Timestamp: "2026-09-01T10:00:00Z"},
		{SiteName: "Other Site", Domain: "other.test", Status: flow.StatusPartial,
			Error: "could not retrieve profile URL", Timestamp: "2026-09-01T10:05:00Z"},
		{SiteName: "Broken Site", Domain: "broken.test", Status: flow.StatusFailed,
			Error: "failed to load registration page", Timestamp: "2026-09-01T10:10:00Z"},
		{SiteName: "ignored", Status: flow.StatusSkipped, Error: "unknown site"},
	}
}

func TestBuildCountsStatuses(t *testing.T) {
	r := Build(sampleResults())

	assert.NotEmpty(t, r.RunID)
	assert.NotEmpty(t, r.GeneratedAt)
	assert.Equal(t, 4, r.TotalSites)
	assert.Equal(t, 1, r.Successful)
	assert.Equal(t, 1, r.Partial)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.Skipped)
	assert.Len(t, r.Results, 4)
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r := Build(sampleResults())

	require.NoError(t, r.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, loaded.RunID)
	assert.Equal(t, r.TotalSites, loaded.TotalSites)
	require.Len(t, loaded.Results, 4)
	assert.Equal(t, "https://example.test/listing/1", loaded.Results[0].ProfileURL)
	assert.Equal(t, flow.StatusFailed, loaded.Results[2].Status)
}

func TestWriteProducesExpectedJSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, Build(sampleResults()).Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{
		`"run_id"`, `"generated_at"`, `"total_sites"`, `"successful"`,
		`"results"`, `"site_name"`, `"profile_url"`, `"status"`,
	} {
		assert.Contains(t, string(data), key)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	Build(sampleResults()).PrintSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "success: 1")
	assert.Contains(t, out, "Test Site")
	assert.Contains(t, out, "https://example.test/listing/1")
	assert.Contains(t, out, "failed to load registration page")
}
