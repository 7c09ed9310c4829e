package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanbt/buildmon/internal/buildlog"
	"github.com/tuanbt/buildmon/internal/config"
	"github.com/tuanbt/buildmon/internal/ingest"
	"github.com/tuanbt/buildmon/internal/report"
)

const okLog = `{"type":"build_status_changed","status":"running"}
{"type":"total_edges","total":2}
{"type":"build_edge_started","edge_id":1,"command":"cc -c src/a.c -o a.o","start_time_millis":10,"inputs":[{"path":"src/a.c","kind":"explicit"}],"outputs":[{"path":"a.o","kind":"explicit"}]}
{"type":"build_edge_finished","edge_id":1,"end_time_millis":30,"success":true,"output":""}
{"type":"build_edge_started","edge_id":2,"command":"ld -o app a.o","start_time_millis":40,"inputs":[{"path":"a.o","kind":"explicit"}],"outputs":[{"path":"app","kind":"explicit"}]}
{"type":"build_edge_finished","edge_id":2,"end_time_millis":45,"success":true,"output":""}
{"type":"build_status_changed","status":"finished"}
`

const failedLog = `{"type":"build_status_changed","status":"running"}
{"type":"build_edge_started","edge_id":1,"command":"cc -c b.c -o b.o","start_time_millis":10,"inputs":[{"path":"b.c","kind":"explicit"}],"outputs":[{"path":"b.o","kind":"explicit"}]}
{"type":"build_edge_finished","edge_id":1,"end_time_millis":20,"success":false,"output":"b.c:1: error: nope\n"}
{"type":"build_status_changed","status":"finished"}
`

const badLog = `{"type":"build_edge_started","edge_id":1,"command":"cc a.c","start_time_millis":1,"inputs":[],"outputs":[]}
{"type":"build_edge_finished","edge_id":1,"end_time_millis":2,"success":true,"output":""}
not json
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, isTerminal bool, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand(func() bool { return isTerminal })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestReportSucceededBuild(t *testing.T) {
	out, stderr, err := execute(t, true, "report", "--log-file", writeLog(t, okLog))
	require.NoError(t, err)
	assert.Contains(t, out, "Finished - 2 / 2 edges (2 succeeded, 0 failed, 0 running)")
	assert.Contains(t, out, "[ok]      cc: a.c -> a.o (20ms)")
	assert.Contains(t, stderr, "build log stream ended")
}

func TestReportFailedBuildExitsWithFailure(t *testing.T) {
	out, _, err := execute(t, true, "report", "--log-file", writeLog(t, failedLog))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "[FAILED]  cc: b.c -> b.o (10ms)")
	assert.Contains(t, out, "b.c:1: error: nope")
}

func TestReportJSON(t *testing.T) {
	out, _, err := execute(t, true, "report", "--format", "json", "-l", writeLog(t, okLog))
	require.NoError(t, err)

	var snap report.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, buildlog.PhaseFinished, snap.Phase)
	assert.Equal(t, buildlog.Counts{Succeeded: 2}, snap.Counts)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "ld", snap.Entries[1].Compiler)
}

func TestReportDecodeErrorKeepsAppliedState(t *testing.T) {
	out, _, err := execute(t, true, "report", "--log-file", writeLog(t, badLog))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, buildlog.IsDecodeError(err))
	assert.Contains(t, out, "[ok]      cc:  ->  (1ms)")
	assert.Contains(t, out, "error: decode error at line 3")
}

func TestReportInvalidFormat(t *testing.T) {
	_, _, err := execute(t, true, "report", "--format", "xml", "--log-file", writeLog(t, okLog))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReportMissingLogFile(t *testing.T) {
	_, _, err := execute(t, true, "report", "--log-file", filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, ingest.IsSourceUnavailable(err))
}

func TestFollowRequiresLogFile(t *testing.T) {
	_, _, err := execute(t, true, "report", "--follow")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--follow requires --log-file")
}

func TestUnknownFlagIsCommandError(t *testing.T) {
	_, _, err := execute(t, true, "report", "--bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootFallsBackToReportWithoutTerminal(t *testing.T) {
	out, _, err := execute(t, false, "--log-file", writeLog(t, okLog))
	require.NoError(t, err)
	assert.Contains(t, out, "Finished - 2 / 2 edges")
}

func TestReportSpawnsNinjaWithArgs(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "ninja")
	argsFile := filepath.Join(dir, "args.txt")
	logFile := writeLog(t, okLog)
	script := "#!/bin/sh\n" +
		"echo \"$@\" > " + argsFile + "\n" +
		"cat " + logFile + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0755))

	out, _, err := execute(t, true, "report", "--ninja-binary", bin, "-C", dir, "--", "-j", "2", "app")
	require.NoError(t, err)
	assert.Contains(t, out, "2 succeeded")

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "-d structlog -j 2 app\n", string(args))
}

func TestConfigCommandPrintsAndWrites(t *testing.T) {
	t.Setenv("BUILDMON_NINJA_BINARY", "ninja-1.12")

	out, _, err := execute(t, true, "config", "--log-level", "debug")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "ninja-1.12", cfg.NinjaBinary)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, filepath.IsAbs(cfg.LogDirectory))

	path := filepath.Join(t.TempDir(), "buildmon.json")
	_, stderr, err := execute(t, true, "config", "--write", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Config written to")

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ninja-1.12", loaded.NinjaBinary)
}

func TestInvalidLogLevelFlag(t *testing.T) {
	_, _, err := execute(t, true, "config", "--log-level", "loud")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("bad flag"), ExitCommandError},
		{"failure", &ExitError{Code: ExitFailure, Message: "build failed"}, ExitFailure},
		{"wrapped", WrapExitError(ExitCommandError, "cannot open", errors.New("x")), ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := WrapExitError(ExitFailure, "monitoring stopped", errors.New("boom"))
	assert.Equal(t, "monitoring stopped: boom", err.Error())
	assert.Equal(t, "build failed", (&ExitError{Message: "build failed"}).Error())
}
