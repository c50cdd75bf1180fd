// Package transform applies a templatize command to file names and file
// contents, producing change records without touching storage.
package transform

import (
	"fmt"
	"strings"

	"github.com/harrison/templatize/internal/escape"
	"github.com/harrison/templatize/internal/models"
	"github.com/harrison/templatize/internal/replace"
	"github.com/harrison/templatize/internal/variant"
)

// FileView is the read-only view of one file the engine plans against.
type FileView interface {
	// Name is the file's base name.
	Name() string
	// ParentPath is the slash-separated directory relative to the root,
	// empty for files directly under it.
	ParentPath() string
	// Content returns the file text and whether the file is text at all.
	Content() (string, bool)
}

// Options selects which change kinds Plan produces.
type Options struct {
	IncludePaths    bool
	IncludeContents bool
}

// Engine holds a command and its prebuilt mapping. It is safe for
// concurrent use.
type Engine struct {
	command Command
	mapping *variant.Mapping
}

// New validates cmd and builds its mapping once.
func New(cmd Command) (*Engine, error) {
	e := &Engine{command: cmd}

	var err error
	switch cmd.Kind {
	case CommandEscape:
	case CommandShapes:
		e.mapping, err = variant.BuildShapes(cmd.Token, cmd.Replacement)
	case CommandExact:
		e.mapping, err = variant.BuildExact(cmd.Token, cmd.Replacement)
	default:
		err = fmt.Errorf("unknown command %s", cmd.Kind)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Command returns the command the engine was built for.
func (e *Engine) Command() Command {
	return e.command
}

// Mapping returns the variant mapping, nil for escape.
func (e *Engine) Mapping() *variant.Mapping {
	return e.mapping
}

// TransformSegment rewrites a single path segment. Escape never renames.
func (e *Engine) TransformSegment(name string) (string, bool) {
	if e.command.Kind == CommandEscape || name == "" {
		return name, false
	}
	out, spans := replace.Replace(name, e.mapping)
	return out, len(spans) > 0
}

// TransformContent rewrites file text.
func (e *Engine) TransformContent(text string) (string, []models.ChangeRecord) {
	if e.command.Kind == CommandEscape {
		return escape.Escape(text)
	}
	return replace.Replace(text, e.mapping)
}

// PlanDir returns the rename record for the directory at relPath, if any.
func (e *Engine) PlanDir(relPath string) (models.ChangeRecord, bool) {
	return e.planPath(relPath, true)
}

// Plan returns the change records for file: renames of each ancestor
// directory (outermost first) and of the file itself, then content spans.
// Ancestor records repeat across files in the same directory.
func (e *Engine) Plan(file FileView, opts Options) ([]models.ChangeRecord, error) {
	if file == nil {
		return nil, fmt.Errorf("plan: nil file")
	}

	parent := strings.Trim(file.ParentPath(), "/")
	relPath := joinRel(parent, file.Name())

	var records []models.ChangeRecord
	if opts.IncludePaths {
		if parent != "" {
			segments := strings.Split(parent, "/")
			for i := range segments {
				dir := strings.Join(segments[:i+1], "/")
				if rec, ok := e.planPath(dir, true); ok {
					records = append(records, rec)
				}
			}
		}
		if rec, ok := e.planPath(relPath, false); ok {
			records = append(records, rec)
		}
	}

	if opts.IncludeContents {
		if text, isText := file.Content(); isText {
			_, spans := e.TransformContent(text)
			for _, s := range spans {
				records = append(records, s.InPath(relPath))
			}
		}
	}

	return records, nil
}

func (e *Engine) planPath(relPath string, isDir bool) (models.ChangeRecord, bool) {
	name := relPath
	if i := strings.LastIndex(relPath, "/"); i >= 0 {
		name = relPath[i+1:]
	}

	renamed, ok := e.TransformSegment(name)
	if !ok || renamed == name {
		return models.ChangeRecord{}, false
	}

	rule := e.command.Kind.String()
	return models.ChangeRecord{
		Kind: models.KindPath,
		Location: models.Location{
			Path:  relPath,
			IsDir: isDir,
			Depth: strings.Count(relPath, "/") + 1,
		},
		Before: name,
		After:  renamed,
		Rule:   rule,
	}, true
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
