package apply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/templatize/internal/filelock"
	"github.com/harrison/templatize/internal/models"
	"github.com/harrison/templatize/internal/transform"
)

func init() {
	color.NoColor = true
}

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+" "+msg)
}

func (l *recordingLogger) LogDebug(m string) { l.add("DEBUG", m) }
func (l *recordingLogger) LogInfo(m string)  { l.add("INFO", m) }
func (l *recordingLogger) LogWarn(m string)  { l.add("WARN", m) }
func (l *recordingLogger) LogChange(rec models.ChangeRecord, dryRun bool) {
	l.add("CHANGE", fmt.Sprintf("%v %s %s -> %s", dryRun, rec.Location.Path, rec.Before, rec.After))
}

func (l *recordingLogger) contains(sub string) bool {
	for _, m := range l.messages {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

type scriptedConfirmer struct {
	content []models.Decision
	spans   []models.Decision
	renames []models.Decision
	asked   []string
}

func pop(q *[]models.Decision) models.Decision {
	if len(*q) == 0 {
		return models.DecisionAccept
	}
	d := (*q)[0]
	*q = (*q)[1:]
	return d
}

func (c *scriptedConfirmer) ConfirmContent(path, before, after string, changes int) (models.Decision, error) {
	c.asked = append(c.asked, "content "+path)
	return pop(&c.content), nil
}

func (c *scriptedConfirmer) ConfirmSpan(rec models.ChangeRecord, lineBefore, lineAfter string) (models.Decision, error) {
	c.asked = append(c.asked, "span "+rec.Before)
	return pop(&c.spans), nil
}

func (c *scriptedConfirmer) ConfirmRename(oldPath, newPath string) (models.Decision, error) {
	c.asked = append(c.asked, "rename "+oldPath+" -> "+newPath)
	return pop(&c.renames), nil
}

var projectTree = map[string]string{
	"my-project/src/my_project.rs": "use my_project::MyProject;\n",
	"my-project/README.md":         "# MyProject\n",
	"logo.png":                     "\x89PNG\x00\x00binary",
	"notes.txt":                    "nothing to change\n",
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func shapesEngine(t *testing.T) *transform.Engine {
	t.Helper()
	eng, err := transform.New(transform.Shapes("my-project", "{{ project_name }}"))
	require.NoError(t, err)
	return eng
}

func allChanges() transform.Options {
	return transform.Options{IncludePaths: true, IncludeContents: true}
}

func TestRun_Direct(t *testing.T) {
	root := writeTree(t, projectTree)
	log := &recordingLogger{}

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		Mode:      ModeDirect,
	}, log)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"{{ project-name }}/src/{{ project_name }}.rs": "use {{ project_name }}::{{ ProjectName }};\n",
		"{{ project-name }}/README.md":                 "# {{ ProjectName }}\n",
		"logo.png":                                     "\x89PNG\x00\x00binary",
		"notes.txt":                                    "nothing to change\n",
	}, readTree(t, root))

	assert.Equal(t, models.ModeDirect, result.Mode)
	assert.Equal(t, 4, result.FilesProcessed)
	assert.Equal(t, 2, result.PathsRenamed)
	assert.Equal(t, 2, result.ContentChanges)
	assert.Equal(t, 1, result.Skipped)
	assert.False(t, result.Quit)

	// 3 content spans plus 2 renames.
	assert.Len(t, result.Committed, 5)
	assert.True(t, log.contains("Updated my-project/README.md (1 change)"))
}

func TestRun_DirectoryRenamedAfterDescendants(t *testing.T) {
	root := writeTree(t, map[string]string{
		"my-project/my-project/my-project.txt": "my-project",
		"my-project/empty-my-project/.keep":    "",
	})

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		Scan:      scanAll(),
	}, &recordingLogger{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"{{ project-name }}/{{ project-name }}/{{ project-name }}.txt": "{{ project-name }}",
		"{{ project-name }}/empty-{{ project-name }}/.keep":            "",
	}, readTree(t, root))
	assert.Equal(t, 4, result.PathsRenamed)

	// Committed renames run deepest first.
	var renamed []string
	for _, c := range result.Committed {
		if c.Kind == models.KindPath {
			renamed = append(renamed, c.Location.Path)
		}
	}
	assert.Equal(t, []string{
		"my-project/my-project/my-project.txt",
		"my-project/my-project",
		"my-project/empty-my-project",
		"my-project",
	}, renamed)
}

func TestRun_DryRunLeavesTreeUntouched(t *testing.T) {
	root := writeTree(t, projectTree)
	before := readTree(t, root)
	log := &recordingLogger{}

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		Mode:      ModeDryRun,
	}, log)
	require.NoError(t, err)

	assert.Equal(t, before, readTree(t, root))
	assert.Equal(t, models.ModeDryRun, result.Mode)
	assert.Equal(t, 2, result.PathsRenamed)
	assert.Equal(t, 2, result.ContentChanges)
	assert.Empty(t, result.Committed)
	assert.True(t, log.contains("CHANGE true my-project my-project -> {{ project-name }}"))
}

func TestRun_Interactive(t *testing.T) {
	root := writeTree(t, projectTree)
	confirmer := &scriptedConfirmer{
		content: []models.Decision{models.DecisionDecline, models.DecisionEach},
		spans:   []models.Decision{models.DecisionAccept, models.DecisionDecline},
	}

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		Mode:      ModeInteractive,
		Confirmer: confirmer,
	}, &recordingLogger{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"{{ project-name }}/src/{{ project_name }}.rs": "use {{ project_name }}::MyProject;\n",
		"{{ project-name }}/README.md":                 "# MyProject\n",
		"logo.png":                                     "\x89PNG\x00\x00binary",
		"notes.txt":                                    "nothing to change\n",
	}, readTree(t, root))

	assert.Equal(t, []string{
		"content my-project/README.md",
		"content my-project/src/my_project.rs",
		"span my_project",
		"span MyProject",
		"rename my-project/src/my_project.rs -> my-project/src/{{ project_name }}.rs",
		"rename my-project -> {{ project-name }}",
	}, confirmer.asked)
	assert.Equal(t, 2, result.Declined)
	assert.Equal(t, 1, result.ContentChanges)
	assert.Equal(t, 2, result.PathsRenamed)
}

func TestRun_InteractiveAcceptAll(t *testing.T) {
	root := writeTree(t, projectTree)
	confirmer := &scriptedConfirmer{content: []models.Decision{models.DecisionAcceptAll}}

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		Mode:      ModeInteractive,
		Confirmer: confirmer,
	}, &recordingLogger{})
	require.NoError(t, err)

	assert.Equal(t, []string{"content my-project/README.md"}, confirmer.asked)
	assert.Equal(t, 2, result.ContentChanges)
	assert.Equal(t, 2, result.PathsRenamed)
}

func TestRun_InteractiveQuit(t *testing.T) {
	root := writeTree(t, projectTree)
	before := readTree(t, root)
	confirmer := &scriptedConfirmer{content: []models.Decision{models.DecisionQuit}}
	var warnings bytes.Buffer

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		Mode:      ModeInteractive,
		Confirmer: confirmer,
		Warnings:  &warnings,
	}, &recordingLogger{})
	require.ErrorIs(t, err, ErrQuit)
	require.NotNil(t, result)

	assert.True(t, result.Quit)
	assert.Equal(t, before, readTree(t, root))
	assert.Empty(t, warnings.String())
}

func TestRun_InteractiveRequiresConfirmer(t *testing.T) {
	_, err := Run(context.Background(), shapesEngine(t), Options{Target: t.TempDir(), Mode: ModeInteractive}, &recordingLogger{})
	assert.Error(t, err)
}

func TestRun_PathsOnly(t *testing.T) {
	root := writeTree(t, projectTree)

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: transform.Options{IncludePaths: true},
	}, &recordingLogger{})
	require.NoError(t, err)

	tree := readTree(t, root)
	assert.Equal(t, "# MyProject\n", tree["{{ project-name }}/README.md"])
	assert.Equal(t, 0, result.ContentChanges)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 2, result.PathsRenamed)
}

func TestRun_ContentsOnly(t *testing.T) {
	root := writeTree(t, projectTree)

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: transform.Options{IncludeContents: true},
	}, &recordingLogger{})
	require.NoError(t, err)

	tree := readTree(t, root)
	assert.Equal(t, "# {{ ProjectName }}\n", tree["my-project/README.md"])
	assert.Equal(t, 0, result.PathsRenamed)
}

func TestRun_RenameRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "my-project")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0644))

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:     root,
		Transform:  allChanges(),
		RenameRoot: true,
	}, &recordingLogger{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.PathsRenamed)
	assert.NoDirExists(t, root)
	assert.FileExists(t, filepath.Join(parent, "{{ project-name }}", "a.txt"))
}

func TestRun_SkipsOversizedFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"big.txt":   strings.Repeat("my-project ", 100),
		"small.txt": "my-project",
	})

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:      root,
		Transform:   transform.Options{IncludeContents: true},
		MaxFileSize: 100,
	}, &recordingLogger{})
	require.NoError(t, err)

	tree := readTree(t, root)
	assert.Equal(t, "{{ project-name }}", tree["small.txt"])
	assert.True(t, strings.HasPrefix(tree["big.txt"], "my-project "))
	assert.Equal(t, 1, result.Skipped)
}

func TestRun_RenameCollisionSkipped(t *testing.T) {
	root := writeTree(t, map[string]string{
		"my-project.txt":         "a",
		"{{ project-name }}.txt": "b",
	})
	log := &recordingLogger{}

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: transform.Options{IncludePaths: true},
	}, log)
	require.NoError(t, err)

	assert.Equal(t, 0, result.PathsRenamed)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, log.contains("already exists"))
	assert.Equal(t, "b", readTree(t, root)["{{ project-name }}.txt"])
}

func TestRun_Workers(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 40; i++ {
		files[fmt.Sprintf("pkg%02d/my_project_%02d.go", i, i)] = "package my_project\n"
	}

	seqRoot := writeTree(t, files)
	parRoot := writeTree(t, files)

	seq, err := Run(context.Background(), shapesEngine(t), Options{Target: seqRoot, Transform: allChanges(), Workers: 1}, &recordingLogger{})
	require.NoError(t, err)
	par, err := Run(context.Background(), shapesEngine(t), Options{Target: parRoot, Transform: allChanges(), Workers: 4}, &recordingLogger{})
	require.NoError(t, err)

	assert.Equal(t, readTree(t, seqRoot), readTree(t, parRoot))
	assert.Equal(t, seq.ContentChanges, par.ContentChanges)
	assert.Equal(t, 40, par.ContentChanges)
	assert.Equal(t, seq.Committed, par.Committed)
}

func TestRun_Locked(t *testing.T) {
	root := writeTree(t, projectTree)
	lockDir := t.TempDir()

	held, err := filelock.AcquireRunLock(lockDir, root)
	require.NoError(t, err)
	defer held.Unlock()

	_, err = Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		LockDir:   lockDir,
	}, &recordingLogger{})
	assert.True(t, errors.Is(err, ErrLocked))
}

func TestRun_LockReleasedAfterRun(t *testing.T) {
	root := writeTree(t, projectTree)
	lockDir := t.TempDir()
	opts := Options{Target: root, Transform: allChanges(), Mode: ModeDryRun, LockDir: lockDir}

	_, err := Run(context.Background(), shapesEngine(t), opts, &recordingLogger{})
	require.NoError(t, err)
	_, err = Run(context.Background(), shapesEngine(t), opts, &recordingLogger{})
	require.NoError(t, err)
}

func TestRun_EscapeSingleFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"tpl.txt":   "Hello {{ name }}!\n",
		"other.txt": "{{ untouched }}",
	})
	eng, err := transform.New(transform.Escape())
	require.NoError(t, err)

	result, err := Run(context.Background(), eng, Options{
		Target:    filepath.Join(root, "tpl.txt"),
		Transform: allChanges(),
	}, &recordingLogger{})
	require.NoError(t, err)

	tree := readTree(t, root)
	assert.Equal(t, "Hello {{'{'}}{ name }!\n", tree["tpl.txt"])
	assert.Equal(t, "{{ untouched }}", tree["other.txt"])
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 0, result.PathsRenamed)
}

func TestRun_EscapeWarnsOnAlreadyEscaped(t *testing.T) {
	root := writeTree(t, map[string]string{"tpl.txt": "Hello {{'{'}}{ name }!\n"})
	eng, err := transform.New(transform.Escape())
	require.NoError(t, err)
	var warnings bytes.Buffer

	_, err = Run(context.Background(), eng, Options{
		Target:    root,
		Transform: transform.Options{IncludeContents: true},
		Mode:      ModeDryRun,
		Warnings:  &warnings,
	}, &recordingLogger{})
	require.NoError(t, err)

	assert.Contains(t, warnings.String(), "already contain escaped delimiters")
	assert.Contains(t, warnings.String(), "tpl.txt")
}

func TestRun_NoMatchesWarning(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "nothing"})
	var warnings bytes.Buffer

	result, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		Warnings:  &warnings,
	}, &recordingLogger{})
	require.NoError(t, err)

	assert.False(t, result.Changed())
	assert.Contains(t, warnings.String(), "no matches found")
}

func TestRun_MissingTarget(t *testing.T) {
	_, err := Run(context.Background(), shapesEngine(t), Options{Target: filepath.Join(t.TempDir(), "missing")}, &recordingLogger{})
	assert.Error(t, err)
}

func TestRun_PreservesFileMode(t *testing.T) {
	root := writeTree(t, map[string]string{"run.sh": "echo my-project\n"})
	script := filepath.Join(root, "run.sh")
	require.NoError(t, os.Chmod(script, 0755))

	_, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: transform.Options{IncludeContents: true},
	}, &recordingLogger{})
	require.NoError(t, err)

	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestRun_Progress(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "my-project", "b.txt": "x"})
	var progress bytes.Buffer

	_, err := Run(context.Background(), shapesEngine(t), Options{
		Target:    root,
		Transform: allChanges(),
		Mode:      ModeDryRun,
		Progress:  &progress,
	}, &recordingLogger{})
	require.NoError(t, err)

	out := progress.String()
	assert.Contains(t, out, "Scanning 2 files in")
	assert.Contains(t, out, "[1/2] a.txt")
	assert.Contains(t, out, "[2/2] b.txt")
	assert.Contains(t, out, "Processed 2 files")
}
