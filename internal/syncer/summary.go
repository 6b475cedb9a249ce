package syncer

import "github.com/morozRed/boardsync/internal/codegen"

// Identifiers are the names derived from the primary file and reused by every collaborator.
type Identifiers struct {
	BoardModel   string `json:"board_model"`
	ModelPattern string `json:"model_pattern"`
	Customer     string `json:"customer"`
	EepromMacro  string `json:"eeprom_macro"`
	FileStem     string `json:"file_stem"`
}

// Summary aggregates the outcomes of one run. It makes no claim of atomicity:
// files written before a failure stay written.
type Summary struct {
	RunID        string          `json:"run_id"`
	PrimaryPath  string          `json:"primary_path"`
	Reference    string          `json:"reference"`
	NewName      string          `json:"new_name"`
	DryRun       bool            `json:"dry_run"`
	Identifiers  Identifiers     `json:"identifiers"`
	Outcomes     []Outcome       `json:"outcomes"`
	ChangedFiles []string        `json:"changed_files,omitempty"`
	Codegen      *codegen.Result `json:"codegen,omitempty"`
	Warnings     int             `json:"warnings"`
	Errors       int             `json:"errors"`
	DurationMS   int64           `json:"duration_ms"`
}

func (s *Summary) Count(status Status) int {
	n := 0
	for _, outcome := range s.Outcomes {
		if outcome.Status == status {
			n++
		}
	}
	return n
}

// OK reports whether no step failed.
func (s *Summary) OK() bool {
	return s.Count(StatusFailed) == 0
}

func (s *Summary) Outcome(role Role) (Outcome, bool) {
	for _, outcome := range s.Outcomes {
		if outcome.Role == role {
			return outcome, true
		}
	}
	return Outcome{}, false
}
