package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/templatize/internal/apply"
	"github.com/harrison/templatize/internal/casing"
	"github.com/harrison/templatize/internal/config"
	"github.com/harrison/templatize/internal/filelock"
	"github.com/harrison/templatize/internal/history"
	"github.com/harrison/templatize/internal/variant"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// testEnv isolates TEMPLATIZE_HOME and fixes terminal detection.
func testEnv(t *testing.T, terminal bool) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)

	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return terminal }
	t.Cleanup(func() { stdinIsTerminal = prev })
	return home
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "my-project")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package my_project\n\n// MyProject is great.\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# my-project\n"), 0644))
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRootCommand(t *testing.T) {
	testEnv(t, false)
	out, err := execute(t, "", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "templatize")
	for _, sub := range []string{"exact", "shapes", "escape", "history"} {
		assert.Contains(t, out, sub)
	}
}

func TestShapesCommand(t *testing.T) {
	testEnv(t, false)
	root := writeProject(t)

	out, err := execute(t, "", "shapes", "my-project", "{{ project_name }}", root, "-p", "-c")
	require.NoError(t, err)

	assert.Equal(t, "package {{ project_name }}\n\n// {{ ProjectName }} is great.\n",
		readFile(t, filepath.Join(root, "{{ project-name }}", "main.go")))
	assert.Equal(t, "# {{ project-name }}\n", readFile(t, filepath.Join(root, "README.md")))
	assert.NoDirExists(t, filepath.Join(root, "my-project"))

	assert.Contains(t, out, "Paths renamed: 1")
	assert.Contains(t, out, "Content changes: 2")
	assert.Contains(t, out, "Run ID:")
}

func TestShapesCommand_NonTerminalEnablesBoth(t *testing.T) {
	testEnv(t, false)
	root := writeProject(t)

	_, err := execute(t, "", "shapes", "my-project", "{{ project_name }}", root)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, "{{ project-name }}"))
	assert.Equal(t, "# {{ project-name }}\n", readFile(t, filepath.Join(root, "README.md")))
}

func TestShapesCommand_PromptsForSelection(t *testing.T) {
	testEnv(t, true)
	root := writeProject(t)

	out, err := execute(t, "n\ny\n", "shapes", "my-project", "{{ project_name }}", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Enable path templating (-p)?")
	assert.Contains(t, out, "Enable contents templating (-c)?")
	assert.DirExists(t, filepath.Join(root, "my-project"))
	assert.Equal(t, "# {{ project-name }}\n", readFile(t, filepath.Join(root, "README.md")))
}

func TestShapesCommand_DecliningBothIsUsageError(t *testing.T) {
	testEnv(t, true)
	root := writeProject(t)

	_, err := execute(t, "n\nn\n", "shapes", "my-project", "{{ project_name }}", root)
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestShapesCommand_DryRun(t *testing.T) {
	home := testEnv(t, false)
	root := writeProject(t)

	out, err := execute(t, "", "shapes", "my-project", "{{ project_name }}", root, "--dry-run")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, "my-project"))
	assert.Equal(t, "# my-project\n", readFile(t, filepath.Join(root, "README.md")))
	assert.Contains(t, out, "Would rename my-project -> {{ project-name }}")
	assert.Contains(t, out, "dry run")

	store, err := history.NewStore(filepath.Join(home, "history.db"))
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "dry-run", runs[0].Mode)

	changes, err := store.GetChanges(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestExactCommand_Interactive(t *testing.T) {
	testEnv(t, true)
	dir := t.TempDir()
	file := filepath.Join(dir, "about.txt")
	require.NoError(t, os.WriteFile(file, []byte("MyCompany Inc builds MyCompanyApp\n"), 0644))

	out, err := execute(t, "y\n", "exact", "MyCompany", "{{ company_name }}", dir, "-c", "-i")
	require.NoError(t, err)

	assert.Contains(t, out, "Apply 1 change to about.txt?")
	assert.Equal(t, "{{ company_name }} Inc builds MyCompanyApp\n", readFile(t, file))
}

func TestExactCommand_InteractiveQuitIsNotAnError(t *testing.T) {
	testEnv(t, true)
	dir := t.TempDir()
	file := filepath.Join(dir, "about.txt")
	require.NoError(t, os.WriteFile(file, []byte("MyCompany\n"), 0644))

	out, err := execute(t, "q\n", "exact", "MyCompany", "{{ company_name }}", dir, "-c", "-i")
	require.NoError(t, err)

	assert.Equal(t, "MyCompany\n", readFile(t, file))
	assert.Contains(t, out, "Stopped early")
}

func TestEscapeCommand(t *testing.T) {
	testEnv(t, false)
	dir := t.TempDir()
	file := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(file, []byte("Hello {{ name }}!\n"), 0644))

	_, err := execute(t, "", "escape", file)
	require.NoError(t, err)

	assert.Equal(t, "Hello {{'{'}}{ name }!\n", readFile(t, file))
}

func TestEscapeCommand_WarnsWhenAlreadyEscaped(t *testing.T) {
	testEnv(t, false)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte("{{'{'}}{ name }\n"), 0644))

	out, err := execute(t, "", "escape", dir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "already contain escaped delimiters")
}

func TestNoHistoryFlag(t *testing.T) {
	home := testEnv(t, false)
	root := writeProject(t)

	out, err := execute(t, "", "--no-history", "shapes", "my-project", "{{ project_name }}", root)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(home, "history.db"))
	assert.NotContains(t, out, "Run ID:")
}

func TestQuietFlag(t *testing.T) {
	testEnv(t, false)
	root := writeProject(t)

	out, err := execute(t, "", "-q", "shapes", "my-project", "{{ project_name }}", root)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExitCodes(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name     string
		terminal bool
		args     []string
		want     int
	}{
		{"token not compound", false, []string{"shapes", "example", "{{ project_name }}", "."}, ExitUsage},
		{"malformed replacement", false, []string{"shapes", "my-project", "{{ project_name", "."}, ExitUsage},
		{"empty token", false, []string{"exact", "", "{{ x }}", "."}, ExitUsage},
		{"missing target", false, []string{"exact", "a", "b", filepath.Join(t.TempDir(), "missing")}, ExitUsage},
		{"file target", false, []string{"shapes", "my-project", "{{ project_name }}", file}, ExitUsage},
		{"unknown flag", false, []string{"shapes", "--bogus"}, ExitUsage},
		{"too many args", false, []string{"exact", "a", "b", "c", "d"}, ExitUsage},
		{"interactive without terminal", false, []string{"exact", "a", "b", ".", "-i"}, ExitUsage},
		{"dry run and interactive", true, []string{"exact", "a", "b", ".", "-i", "--dry-run"}, ExitUsage},
		{"verbose and quiet", false, []string{"-v", "-q", "exact", "a", "b", "."}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEnv(t, tt.terminal)
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, ExitCode(err), "error: %v", err)
		})
	}
}

func TestExitCode_Locked(t *testing.T) {
	testEnv(t, false)
	root := writeProject(t)

	lockDir, err := config.GetLockDir()
	require.NoError(t, err)
	held, err := filelock.AcquireRunLock(lockDir, root)
	require.NoError(t, err)
	defer held.Unlock()

	_, err = execute(t, "", "shapes", "my-project", "{{ project_name }}", root)
	require.Error(t, err)
	assert.Equal(t, ExitLocked, ExitCode(err))
	assert.DirExists(t, filepath.Join(root, "my-project"))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("disk full"), ExitFailure},
		{fmt.Errorf("target: %w", apply.ErrLocked), ExitLocked},
		{&casing.NotCompoundError{Token: "example"}, ExitUsage},
		{fmt.Errorf("wrapped: %w", variant.ErrEmptyToken), ExitUsage},
		{&variant.MalformedReplacementTemplateError{Template: "{{", Reason: "unbalanced"}, ExitUsage},
		{usageErrorf("bad"), ExitUsage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "error: %v", tt.err)
	}
}

func TestConfigFile(t *testing.T) {
	testEnv(t, false)
	root := t.TempDir()
	hidden := filepath.Join(root, ".config")
	require.NoError(t, os.MkdirAll(hidden, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(hidden, "my-project.toml"), []byte("name = \"my-project\"\n"), 0644))

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("include_hidden: true\nhistory:\n  enabled: false\n"), 0644))

	_, err := execute(t, "", "--config", cfgPath, "shapes", "my-project", "{{ project_name }}", root, "-c")
	require.NoError(t, err)
	assert.Equal(t, "name = \"{{ project-name }}\"\n", readFile(t, filepath.Join(hidden, "my-project.toml")))
}

func TestConfigFile_Invalid(t *testing.T) {
	testEnv(t, false)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: loud\n"), 0644))

	_, err := execute(t, "", "--config", cfgPath, "escape", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))
}
