package summary

import (
	"encoding/json"
	"fmt"
	"os"
)

// DiagnosticFile is the fixed name of the write-only summary artifact.
const DiagnosticFile = "repo_summary.json"

// WriteDiagnostic dumps the summary as indented JSON. The file is a
// diagnostic artifact only: regenerated every session, never read back.
func WriteDiagnostic(path string, sum *RepoSummary) error {
	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("summary: encode diagnostic: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("summary: write diagnostic: %w", err)
	}
	return nil
}
