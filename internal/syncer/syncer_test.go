package syncer

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/boardsync/internal/config"
	"github.com/morozRed/boardsync/internal/insert"
	"github.com/morozRed/boardsync/internal/logging"
	"github.com/morozRed/boardsync/internal/naming"
	"github.com/morozRed/boardsync/internal/parser"
)

const primaryFixture = `#ifndef USER_CONFIG_H
#define USER_CONFIG_H

#if PGEL_KFW72C_4_12K_3S_001
#define SW_VERSION          0x01000001
#define EEPROMDATA_PGEL_72C_4_1980
#define CODE_NAME           "Falcon"   // marketing name

#elif PGEL_KFW35C_7_AC_001
#define SW_VERSION          0x01000002
#define EEPROMDATA_PGEL_35C_7_1975
#else
#error "no board selected"
#endif

#endif
`

const customizeFixture = `#if PGEL_KFW72C_4_12K_3S_001
    #define MOTOR1_TYPE    MOTOR_A
    #define MOTOR2_TYPE    MOTOR_B
#elif PGEL_KFW35C_7_AC_001
    #define MOTOR1_TYPE    MOTOR_C
#endif
`

const buildFixture = `@echo off
bin2hex.exe pgel_72C_4_1980.bin
`

const parameterFixture = `#ifndef EEPROM_PARAM_H
#define EEPROM_PARAM_H

#if EEPROMDATA_PGEL_72C_4_1980
#include "eeprom/pgel_72C_4_1980.h"
#elif EEPROMDATA_PGEL_35C_7_1975
#include "eeprom/pgel_35C_7_1975.h"
#else
#error "no eeprom data"
#endif

#endif
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func fullProject(t *testing.T) string {
	t.Helper()
	return writeProject(t, map[string]string{
		"User_Config.h":    primaryFixture,
		"Customize.h":      customizeFixture,
		"build_eeprom.bat": buildFixture,
		"EepromParam.h":    parameterFixture,
	})
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newRequest(dir string) Request {
	return Request{
		PrimaryPath:     filepath.Join(dir, "User_Config.h"),
		Reference:       "PGEL_KFW72C_4_12K_3S_001",
		NewName:         "PGEL_KFW72C_4_12K_3S_002",
		SoftwareVersion: "0x01000003",
		EepromVersion:   "1981",
		CodeName:        "Osprey",
		Motors:          []string{"MOTOR_D", "MOTOR_E"},
	}
}

func mustRun(t *testing.T, s *Synchronizer, req Request) *Summary {
	t.Helper()
	summary, err := s.Run(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, summary)
	return summary
}

func requireOutcome(t *testing.T, summary *Summary, role Role) Outcome {
	t.Helper()
	outcome, ok := summary.Outcome(role)
	require.True(t, ok, "no outcome for %s", role)
	return outcome
}

func TestRunPropagatesToEveryCollaborator(t *testing.T) {
	dir := fullProject(t)
	run := logging.Nop()
	summary := mustRun(t, New(config.DefaultConfig(), run), newRequest(dir))

	assert.Equal(t, Identifiers{
		BoardModel:   "KFW72C_4",
		ModelPattern: "prefixed",
		Customer:     "PGEL",
		EepromMacro:  "EEPROMDATA_PGEL_72C_4_1981",
		FileStem:     "pgel_72C_4_1981",
	}, summary.Identifiers)

	primary := readFile(t, filepath.Join(dir, "User_Config.h"))
	assert.Contains(t, primary, strings.Join([]string{
		`#define CODE_NAME           "Falcon"   // marketing name`,
		"",
		"#elif PGEL_KFW72C_4_12K_3S_002",
		"#define SW_VERSION          0x01000003",
		"#define EEPROMDATA_PGEL_72C_4_1981",
		`#define CODE_NAME           "Osprey"   // marketing name`,
		"#elif PGEL_KFW35C_7_AC_001",
	}, "\n"))

	customize := readFile(t, filepath.Join(dir, "Customize.h"))
	assert.Contains(t, customize, strings.Join([]string{
		"    #define MOTOR2_TYPE    MOTOR_B",
		"#elif PGEL_KFW72C_4_12K_3S_002",
		"    #define MOTOR1_TYPE    MOTOR_D",
		"    #define MOTOR2_TYPE    MOTOR_E",
		"#elif PGEL_KFW35C_7_AC_001",
	}, "\n"))

	assert.Equal(t, buildFixture+"bin2hex.exe pgel_72C_4_1981.bin\n", readFile(t, filepath.Join(dir, "build_eeprom.bat")))

	parameter := readFile(t, filepath.Join(dir, "EepromParam.h"))
	assert.Contains(t, parameter, strings.Join([]string{
		`#include "eeprom/pgel_72C_4_1980.h"`,
		"#elif EEPROMDATA_PGEL_72C_4_1981",
		`#include "eeprom/pgel_72C_4_1981.h"`,
		"#elif EEPROMDATA_PGEL_35C_7_1975",
	}, "\n"))

	for role, line := range map[Role]int{
		RolePrimary:       9,
		RoleCustomization: 4,
		RoleBuildScript:   3,
		RoleParameter:     6,
	} {
		outcome := requireOutcome(t, summary, role)
		assert.Equal(t, StatusApplied, outcome.Status, "role %s", role)
		assert.True(t, outcome.Written, "role %s", role)
		assert.Equal(t, line, outcome.Line, "role %s", role)
	}
	assert.Len(t, summary.ChangedFiles, 4)

	codegen := requireOutcome(t, summary, RoleCodegen)
	assert.Equal(t, StatusSkipped, codegen.Status)
	assert.Equal(t, "ScriptMissing", codegen.Kind)
	assert.True(t, summary.OK())
	assert.Equal(t, run.ID, summary.RunID)
}

func TestRunSecondTimeSkipsEverything(t *testing.T) {
	dir := fullProject(t)
	s := New(config.DefaultConfig(), nil)
	mustRun(t, s, newRequest(dir))

	before := map[string]string{}
	for _, name := range []string{"User_Config.h", "Customize.h", "build_eeprom.bat", "EepromParam.h"} {
		before[name] = readFile(t, filepath.Join(dir, name))
	}

	summary := mustRun(t, s, newRequest(dir))
	for _, role := range []Role{RolePrimary, RoleCustomization, RoleBuildScript, RoleParameter} {
		outcome := requireOutcome(t, summary, role)
		assert.Equal(t, StatusSkipped, outcome.Status, "role %s", role)
		assert.Equal(t, "AlreadyPresent", outcome.Kind, "role %s", role)
		assert.True(t, errors.Is(outcome.Err(), ErrAlreadyPresent))
	}
	assert.Empty(t, summary.ChangedFiles)
	assert.Equal(t, "no file changed", requireOutcome(t, summary, RoleCodegen).Reason)

	for name, content := range before {
		assert.Equal(t, content, readFile(t, filepath.Join(dir, name)), name)
	}
}

func TestRunContinuesPastAlreadyPresentParameterArm(t *testing.T) {
	parameter := strings.Replace(parameterFixture,
		"#elif EEPROMDATA_PGEL_35C_7_1975",
		"#elif EEPROMDATA_PGEL_72C_4_1981\n#include \"eeprom/pgel_72C_4_1981.h\"\n#elif EEPROMDATA_PGEL_35C_7_1975", 1)
	dir := writeProject(t, map[string]string{
		"User_Config.h": primaryFixture,
		"EepromParam.h": parameter,
	})

	summary := mustRun(t, New(config.DefaultConfig(), nil), newRequest(dir))

	assert.Equal(t, StatusApplied, requireOutcome(t, summary, RolePrimary).Status)
	param := requireOutcome(t, summary, RoleParameter)
	assert.Equal(t, StatusSkipped, param.Status)
	assert.Equal(t, "AlreadyPresent", param.Kind)
	assert.Equal(t, parameter, readFile(t, filepath.Join(dir, "EepromParam.h")))
}

func TestRunCompletesPartialEarlierRun(t *testing.T) {
	dir := fullProject(t)
	s := New(config.DefaultConfig(), nil)
	mustRun(t, s, newRequest(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EepromParam.h"), []byte(parameterFixture), 0644))

	summary := mustRun(t, s, newRequest(dir))
	assert.Equal(t, StatusSkipped, requireOutcome(t, summary, RolePrimary).Status)
	assert.Equal(t, StatusApplied, requireOutcome(t, summary, RoleParameter).Status)
	assert.Equal(t, []string{filepath.Join(dir, "EepromParam.h")}, summary.ChangedFiles)
}

func TestRunSkipsMissingCollaborators(t *testing.T) {
	dir := writeProject(t, map[string]string{"User_Config.h": primaryFixture})
	summary := mustRun(t, New(config.DefaultConfig(), nil), newRequest(dir))

	assert.Equal(t, StatusApplied, requireOutcome(t, summary, RolePrimary).Status)
	for _, role := range []Role{RoleCustomization, RoleBuildScript, RoleParameter} {
		outcome := requireOutcome(t, summary, role)
		assert.Equal(t, StatusSkipped, outcome.Status, "role %s", role)
		assert.Equal(t, "CollaboratorFileMissing", outcome.Kind, "role %s", role)
		assert.NoFileExists(t, outcome.File)
	}
	assert.True(t, summary.OK())
	assert.Equal(t, 4, summary.Warnings) // three collaborators plus the missing script
}

func TestRunUnconfiguredCollaboratorIsNotRun(t *testing.T) {
	dir := writeProject(t, map[string]string{"User_Config.h": primaryFixture})
	cfg := config.DefaultConfig()
	cfg.Files.BuildScript = ""

	summary := mustRun(t, New(cfg, nil), newRequest(dir))
	outcome := requireOutcome(t, summary, RoleBuildScript)
	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, "not configured", outcome.Reason)
	assert.Empty(t, outcome.Kind)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := fullProject(t)
	req := newRequest(dir)
	req.DryRun = true

	summary := mustRun(t, New(config.DefaultConfig(), nil), req)

	for _, role := range []Role{RolePrimary, RoleCustomization, RoleBuildScript, RoleParameter} {
		outcome := requireOutcome(t, summary, role)
		assert.Equal(t, StatusApplied, outcome.Status, "role %s", role)
		assert.Equal(t, "dry run", outcome.Reason, "role %s", role)
		assert.False(t, outcome.Written, "role %s", role)
	}
	assert.Equal(t, "dry run", requireOutcome(t, summary, RoleCodegen).Reason)
	assert.Empty(t, summary.ChangedFiles)
	assert.True(t, summary.DryRun)

	assert.Equal(t, primaryFixture, readFile(t, filepath.Join(dir, "User_Config.h")))
	assert.Equal(t, customizeFixture, readFile(t, filepath.Join(dir, "Customize.h")))
	assert.Equal(t, buildFixture, readFile(t, filepath.Join(dir, "build_eeprom.bat")))
	assert.Equal(t, parameterFixture, readFile(t, filepath.Join(dir, "EepromParam.h")))
}

func TestRunPreservesCRLF(t *testing.T) {
	crlf := func(s string) string { return strings.ReplaceAll(s, "\n", "\r\n") }
	dir := writeProject(t, map[string]string{
		"User_Config.h":    crlf(primaryFixture),
		"Customize.h":      crlf(customizeFixture),
		"build_eeprom.bat": strings.TrimSuffix(crlf(buildFixture), "\r\n"),
		"EepromParam.h":    crlf(parameterFixture),
	})

	mustRun(t, New(config.DefaultConfig(), nil), newRequest(dir))

	for _, name := range []string{"User_Config.h", "Customize.h", "build_eeprom.bat", "EepromParam.h"} {
		content := readFile(t, filepath.Join(dir, name))
		assert.Equal(t, strings.Count(content, "\n"), strings.Count(content, "\r\n"), "%s has bare line feeds", name)
	}
	assert.Equal(t, crlf(buildFixture)+"bin2hex.exe pgel_72C_4_1981.bin\r\n", readFile(t, filepath.Join(dir, "build_eeprom.bat")))
}

func TestRunFatalPrimaryErrorsWriteNothing(t *testing.T) {
	cases := []struct {
		name      string
		primary   string
		reference string
		target    error
		kind      string
	}{
		{
			name:      "no blocks",
			primary:   "#define SW_VERSION 0x01000001\n",
			reference: "PGEL_KFW72C_4_12K_3S_001",
			target:    parser.ErrNoBlocks,
			kind:      "ParseError",
		},
		{
			name:      "unknown reference",
			primary:   primaryFixture,
			reference: "PGEL_KFW99Z_1_001",
			target:    parser.ErrBlockNotFound,
			kind:      "BlockNotFound",
		},
		{
			name:      "no board model",
			primary:   "#if PGEL_DEFAULT\n#define EEPROMDATA_PGEL_X_1\n#endif\n",
			reference: "PGEL_DEFAULT",
			target:    naming.ErrExtraction,
			kind:      "ExtractionError",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeProject(t, map[string]string{
				"User_Config.h":    tc.primary,
				"Customize.h":      customizeFixture,
				"build_eeprom.bat": buildFixture,
				"EepromParam.h":    parameterFixture,
			})
			req := newRequest(dir)
			req.Reference = tc.reference

			summary, err := New(config.DefaultConfig(), nil).Run(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.target), "unexpected error %v", err)
			require.Len(t, summary.Outcomes, 1)
			assert.Equal(t, StatusFailed, summary.Outcomes[0].Status)
			assert.Equal(t, tc.kind, summary.Outcomes[0].Kind)

			assert.Equal(t, tc.primary, readFile(t, filepath.Join(dir, "User_Config.h")))
			assert.Equal(t, buildFixture, readFile(t, filepath.Join(dir, "build_eeprom.bat")))
		})
	}
}

func TestRunCustomerOverride(t *testing.T) {
	dir := writeProject(t, map[string]string{"User_Config.h": primaryFixture})
	req := newRequest(dir)
	req.Customer = "acme"

	summary := mustRun(t, New(config.DefaultConfig(), nil), req)
	assert.Equal(t, "EEPROMDATA_ACME_72C_4_1981", summary.Identifiers.EepromMacro)
	assert.Contains(t, readFile(t, req.PrimaryPath), "#define EEPROMDATA_ACME_72C_4_1981")
}

func TestRunParameterFallsBackToFamilyThenElse(t *testing.T) {
	t.Run("family arm", func(t *testing.T) {
		parameter := strings.Replace(parameterFixture, "EEPROMDATA_PGEL_72C_4_1980", "EEPROMDATA_PGEL_72C_4_1970", 1)
		dir := writeProject(t, map[string]string{
			"User_Config.h": primaryFixture,
			"EepromParam.h": parameter,
		})
		summary := mustRun(t, New(config.DefaultConfig(), nil), newRequest(dir))
		assert.Equal(t, 6, requireOutcome(t, summary, RoleParameter).Line)
	})

	t.Run("before else", func(t *testing.T) {
		parameter := strings.Replace(parameterFixture, "EEPROMDATA_PGEL_72C_4_1980", "EEPROMDATA_ACME_10A_1_1", 1)
		dir := writeProject(t, map[string]string{
			"User_Config.h": primaryFixture,
			"EepromParam.h": parameter,
		})
		summary := mustRun(t, New(config.DefaultConfig(), nil), newRequest(dir))
		assert.Equal(t, 8, requireOutcome(t, summary, RoleParameter).Line)
		assert.Contains(t, readFile(t, filepath.Join(dir, "EepromParam.h")), strings.Join([]string{
			`#include "eeprom/pgel_35C_7_1975.h"`,
			"#elif EEPROMDATA_PGEL_72C_4_1981",
			`#include "pgel_72C_4_1981.h"`,
			"#else",
		}, "\n"))
	})

	t.Run("no insertion point", func(t *testing.T) {
		dir := writeProject(t, map[string]string{
			"User_Config.h": primaryFixture,
			"EepromParam.h": "#if EEPROMDATA_ACME_10A_1_1\n#include \"acme_10A_1_1.h\"\n#endif\n",
		})
		summary := mustRun(t, New(config.DefaultConfig(), nil), newRequest(dir))
		outcome := requireOutcome(t, summary, RoleParameter)
		assert.Equal(t, StatusFailed, outcome.Status)
		assert.Equal(t, "NoInsertionPoint", outcome.Kind)
		assert.True(t, errors.Is(outcome.Err(), insert.ErrNoInsertionPoint))
		assert.False(t, summary.OK())
		assert.Equal(t, StatusApplied, requireOutcome(t, summary, RolePrimary).Status)
	})
}

func TestRunCustomizationMissingReferenceFailsStep(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"User_Config.h": primaryFixture,
		"Customize.h":   "#if PGEL_KFW35C_7_AC_001\n    #define MOTOR1_TYPE    MOTOR_C\n#endif\n",
	})
	summary := mustRun(t, New(config.DefaultConfig(), nil), newRequest(dir))

	outcome := requireOutcome(t, summary, RoleCustomization)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, "BlockNotFound", outcome.Kind)
	assert.Equal(t, 1, summary.Errors)
}

func TestRunCodegenAfterChanges(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := fullProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gen.sh"), []byte("echo generated\n"), 0755))

	cfg := config.DefaultConfig()
	cfg.Codegen.Interpreter = "sh"
	cfg.Codegen.Script = "gen.sh"

	summary := mustRun(t, New(cfg, nil), newRequest(dir))
	outcome := requireOutcome(t, summary, RoleCodegen)
	assert.Equal(t, StatusApplied, outcome.Status)
	require.NotNil(t, summary.Codegen)
	assert.Equal(t, "generated", strings.TrimSpace(summary.Codegen.Stdout))
	assert.Equal(t, dir, summary.Codegen.Dir)

	req := newRequest(dir)
	req.NewName = "PGEL_KFW72C_4_12K_3S_003"
	req.EepromVersion = "1982"
	req.SkipCodegen = true
	summary = mustRun(t, New(cfg, nil), req)
	assert.Equal(t, "disabled", requireOutcome(t, summary, RoleCodegen).Reason)
	assert.Nil(t, summary.Codegen)
}

func TestRunFailingCodegenIsReported(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := fullProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gen.sh"), []byte("echo boom >&2\nexit 3\n"), 0755))

	cfg := config.DefaultConfig()
	cfg.Codegen.Interpreter = "sh"
	cfg.Codegen.Script = "gen.sh"

	summary := mustRun(t, New(cfg, nil), newRequest(dir))
	outcome := requireOutcome(t, summary, RoleCodegen)
	assert.Equal(t, StatusFailed, outcome.Status)
	require.NotNil(t, summary.Codegen)
	assert.Equal(t, 3, summary.Codegen.ExitCode)
	assert.Equal(t, "boom", strings.TrimSpace(summary.Codegen.Stderr))
}

func TestRunLogsEveryStep(t *testing.T) {
	dir := writeProject(t, map[string]string{"User_Config.h": primaryFixture})
	run := logging.Nop()
	mustRun(t, New(config.DefaultConfig(), run), newRequest(dir))

	messages := map[string]int{}
	for _, entry := range run.Entries() {
		messages[entry.Message]++
	}
	assert.Equal(t, 1, messages["step applied"])
	assert.Equal(t, 4, messages["step skipped"])
	assert.Equal(t, 1, messages["identifiers derived"])
}

func TestRequestValidate(t *testing.T) {
	valid := newRequest("/tmp")
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Request){
		"missing primary":   func(r *Request) { r.PrimaryPath = "" },
		"missing reference": func(r *Request) { r.Reference = "" },
		"bad name":          func(r *Request) { r.NewName = "pgel-new" },
		"same as reference": func(r *Request) { r.NewName = r.Reference },
		"bad sw version":    func(r *Request) { r.SoftwareVersion = "1.2.3" },
		"missing eeprom":    func(r *Request) { r.EepromVersion = "" },
		"long code name":    func(r *Request) { r.CodeName = strings.Repeat("x", naming.MaxCodeNameLength+1) },
		"too many motors":   func(r *Request) { r.Motors = []string{"A", "B", "C"} },
		"lowercase motor":   func(r *Request) { r.Motors = []string{"motor_a"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := newRequest("/tmp")
			mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}
