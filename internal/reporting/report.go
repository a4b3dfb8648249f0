// internal/reporting/report.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/linkforge-cli/internal/flow"
)

// Report is the end-of-run summary written to disk. One report per run,
// written even when the run is cancelled partway through.
type Report struct {
	RunID       string        `json:"run_id"`
	GeneratedAt string        `json:"generated_at"`
	TotalSites  int           `json:"total_sites"`
	Successful  int           `json:"successful"`
	Partial     int           `json:"partial"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Results     []flow.Result `json:"results"`
}

// Build aggregates per-site results into a report.
func Build(results []flow.Result) Report {
	r := Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().Format(time.RFC3339),
		TotalSites:  len(results),
		Results:     results,
	}
	for _, res := range results {
		switch res.Status {
		case flow.StatusSuccess:
			r.Successful++
		case flow.StatusPartial:
			r.Partial++
		case flow.StatusFailed:
			r.Failed++
		case flow.StatusSkipped:
			r.Skipped++
		}
	}
	return r
}

// Write persists the report as indented JSON.
func (r Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return nil
}

// Load reads a previously written report.
func Load(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("reading report from %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return r, nil
}

// PrintSummary renders the operator-facing run summary.
func (r Report) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\nRun %s (%s)\n", r.RunID, r.GeneratedAt)
	fmt.Fprintf(w, "Sites: %d  success: %d  partial: %d  failed: %d  skipped: %d\n\n",
		r.TotalSites, r.Successful, r.Partial, r.Failed, r.Skipped)
	for _, res := range r.Results {
		line := fmt.Sprintf("  [%-7s] %s", res.Status, res.SiteName)
		if res.ProfileURL != "" {
			line += "  " + res.ProfileURL
		}
		if res.Error != "" {
			line += "  (" + res.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
}
