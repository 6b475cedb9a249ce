package syncer

import (
	"errors"

	"github.com/morozRed/boardsync/internal/codegen"
	"github.com/morozRed/boardsync/internal/cpp"
	"github.com/morozRed/boardsync/internal/insert"
	"github.com/morozRed/boardsync/internal/naming"
	"github.com/morozRed/boardsync/internal/parser"
)

var (
	// ErrCollaboratorMissing marks a secondary file that does not exist; the step is skipped.
	ErrCollaboratorMissing = errors.New("collaborator file missing")
	// ErrAlreadyPresent marks an entry that a previous run already added; the step is skipped.
	ErrAlreadyPresent = errors.New("already present")
)

type Role string

const (
	RolePrimary       Role = "primary"
	RoleCustomization Role = "customization"
	RoleBuildScript   Role = "build_script"
	RoleParameter     Role = "parameter"
	RoleCodegen       Role = "codegen"
)

type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the result of one per-file step.
type Outcome struct {
	Role    Role   `json:"role"`
	File    string `json:"file,omitempty"`
	Status  Status `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Line    int    `json:"line,omitempty"` // 1-based line the new text starts on
	Written bool   `json:"written"`

	err error
}

func (o Outcome) Err() error {
	return o.err
}

func applied(role Role, file string, line int, written bool, reason string) Outcome {
	return Outcome{Role: role, File: file, Status: StatusApplied, Line: line, Written: written, Reason: reason}
}

func skipped(role Role, file string, err error) Outcome {
	return Outcome{Role: role, File: file, Status: StatusSkipped, Kind: Kind(err), Reason: err.Error(), err: err}
}

// notRun marks a step that was deliberately not attempted.
func notRun(role Role, file, reason string) Outcome {
	return Outcome{Role: role, File: file, Status: StatusSkipped, Reason: reason}
}

func failed(role Role, file string, err error) Outcome {
	return Outcome{Role: role, File: file, Status: StatusFailed, Kind: Kind(err), Reason: err.Error(), err: err}
}

// Kind names the error class of err for reports.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyPresent):
		return "AlreadyPresent"
	case errors.Is(err, ErrCollaboratorMissing):
		return "CollaboratorFileMissing"
	case errors.Is(err, parser.ErrNoBlocks):
		return "ParseError"
	case errors.Is(err, parser.ErrBlockNotFound):
		return "BlockNotFound"
	case errors.Is(err, naming.ErrExtraction):
		return "ExtractionError"
	case errors.Is(err, naming.ErrMissingField):
		return "MissingRequiredField"
	case errors.Is(err, insert.ErrNoInsertionPoint):
		return "NoInsertionPoint"
	case errors.Is(err, cpp.ErrStructure):
		return "StructureError"
	case errors.Is(err, codegen.ErrScriptMissing):
		return "ScriptMissing"
	default:
		return "Error"
	}
}
