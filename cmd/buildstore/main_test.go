package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/packit/buildstore/pkg/store"
)

func TestBuildRef_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ref     buildRef
		wantErr string
	}{
		{name: "by id", ref: buildRef{id: 3}},
		{name: "by build id and target", ref: buildRef{buildID: "123456", target: "fedora-42-x86_64"}},
		{name: "nothing", ref: buildRef{}, wantErr: "either --id or --build-id"},
		{name: "build id without target", ref: buildRef{buildID: "123456"}, wantErr: "--target is required"},
		{name: "both", ref: buildRef{id: 3, buildID: "123456"}, wantErr: "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTimeFlag(t *testing.T) {
	before := time.Now().UTC()

	now, err := parseTimeFlag("")
	require.NoError(t, err)
	assert.False(t, now.Before(before))

	parsed, err := parseTimeFlag("2024-03-01T10:20:30Z")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)))

	_, err = parseTimeFlag("yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing time")
}

func TestReadLogs(t *testing.T) {
	logs, err := readLogs(strings.NewReader("asd\nqwe\n"), "-")
	require.NoError(t, err)
	assert.Equal(t, "asd\nqwe\n", logs)

	path := filepath.Join(t.TempDir(), "build.log")
	require.NoError(t, os.WriteFile(path, []byte("from file\n"), 0o600))

	logs, err = readLogs(strings.NewReader("ignored"), path)
	require.NoError(t, err)
	assert.Equal(t, "from file\n", logs)

	_, err = readLogs(nil, filepath.Join(t.TempDir(), "missing.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading logs file")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, writeYAML(&buf, &store.GitProject{ID: 7, Namespace: "nirvana", RepoName: "lithium"}))
	assert.Equal(t, "id: 7\nnamespace: nirvana\nrepo_name: lithium\n", buf.String())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "yes", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer

			got, err := confirm(strings.NewReader(tt.input), &out, "Sure? ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Sure? ", out.String())
		})
	}
}

// execute runs the root command against a fresh output buffer. Flag values
// persist between runs, so callers pass every flag they rely on.
func execute(t *testing.T, stdin io.Reader, args ...string) string {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	return out.String()
}

func TestCLI_BuildLifecycle(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("BUILDSTORE_DATABASE_DRIVER", "sqlite")
	t.Setenv("BUILDSTORE_DATABASE_SQLITE_PATH", filepath.Join(dir, "buildstore.db"))

	logsPath := filepath.Join(dir, "srpm.log")
	require.NoError(t, os.WriteFile(logsPath, []byte("asd\nqwe\n"), 0o600))

	var srpm store.SRPMBuild
	require.NoError(t, yaml.Unmarshal(
		[]byte(execute(t, nil, "srpm", "create", "--logs-file", logsPath)), &srpm))
	require.NotZero(t, srpm.ID)
	assert.Equal(t, "asd\nqwe\n", srpm.Logs)

	args := []string{
		"build", "create",
		"--pr-id", "1",
		"--namespace", "nirvana",
		"--repo", "lithium",
		"--build-id", "123456",
		"--target", "fedora-42-x86_64",
		"--commit-sha", "687abc76d67d",
		"--srpm-build-id", "1",
	}

	var created store.CoprBuild
	require.NoError(t, yaml.Unmarshal([]byte(execute(t, nil, args...)), &created))
	require.NotNil(t, created.PullRequest)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 1, created.PullRequest.PRID)

	// Recording the same build twice yields the same row.
	var again store.CoprBuild
	require.NoError(t, yaml.Unmarshal([]byte(execute(t, nil, args...)), &again))
	assert.Equal(t, created.ID, again.ID)

	var updated store.CoprBuild
	require.NoError(t, yaml.Unmarshal([]byte(execute(t, nil,
		"build", "set-status",
		"--build-id", "123456",
		"--target", "fedora-42-x86_64",
		"--status", "success",
	)), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "success", updated.Status)

	var builds []store.CoprBuild
	require.NoError(t, yaml.Unmarshal([]byte(execute(t, nil, "build", "list", "--status", "success")), &builds))
	require.Len(t, builds, 1)

	// Declining the prompt keeps every record.
	execute(t, strings.NewReader("n\n"), "purge", "--force=false")

	builds = nil
	require.NoError(t, yaml.Unmarshal([]byte(execute(t, nil, "build", "list", "--status=")), &builds))
	require.Len(t, builds, 1)

	execute(t, nil, "purge", "--force")

	builds = nil
	require.NoError(t, yaml.Unmarshal([]byte(execute(t, nil, "build", "list", "--status=")), &builds))
	assert.Empty(t, builds)

	var kept store.SRPMBuild
	require.NoError(t, yaml.Unmarshal(
		[]byte(execute(t, nil, "srpm", "get", "--id", "1")), &kept))
	assert.Equal(t, srpm.ID, kept.ID)
}

func TestCLI_LogsGoToStderr(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("BUILDSTORE_DATABASE_DRIVER", "sqlite")
	t.Setenv("BUILDSTORE_DATABASE_SQLITE_PATH", filepath.Join(dir, "buildstore.db"))

	// Run at the configured default level instead of the quiet one execute uses.
	logLevel = ""

	var stdout, stderr bytes.Buffer

	rootCmd.SetArgs([]string{"srpm", "create", "--logs-file", "-"})
	rootCmd.SetIn(strings.NewReader("hi\n"))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var srpm store.SRPMBuild
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &srpm))
	assert.Equal(t, "hi\n", srpm.Logs)
	assert.NotContains(t, stdout.String(), "Database connected")
	assert.Contains(t, stderr.String(), "Database connected")
}
