package apply

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"unicode/utf8"

	"github.com/harrison/templatize/internal/escape"
	"github.com/harrison/templatize/internal/models"
	"github.com/harrison/templatize/internal/transform"
)

// sniffLen is how much of a file is checked for NUL bytes.
const sniffLen = 8000

// diskFile is the transform.FileView of a file read from disk.
type diskFile struct {
	rel     string
	content string
	text    bool
}

func (f *diskFile) Name() string       { return path.Base(f.rel) }
func (f *diskFile) ParentPath() string { return parentOf(f.rel) }
func (f *diskFile) Content() (string, bool) {
	return f.content, f.text
}

// filePlan is everything needed to commit one file.
type filePlan struct {
	rel     string
	abs     string
	content string
	spans   []models.ChangeRecord
	rename  *models.ChangeRecord
	dirs    []models.ChangeRecord
	skipped string // reason content was not processed, empty otherwise
	escaped bool   // content already contains escaped delimiters
	err     error
}

// planFile reads one file and asks the engine for its change records.
func planFile(eng *transform.Engine, abs, rel string, opts Options) filePlan {
	p := filePlan{rel: rel, abs: abs}
	view := &diskFile{rel: rel}

	if opts.Transform.IncludeContents {
		data, reason, err := readText(abs, opts.MaxFileSize)
		if err != nil {
			p.skipped = err.Error()
		} else if reason != "" {
			p.skipped = reason
		} else {
			view.content, view.text = string(data), true
			p.content = view.content
			p.escaped = eng.Command().Kind == transform.CommandEscape && escape.AlreadyEscaped(view.content)
		}
	}

	records, err := eng.Plan(view, opts.Transform)
	if err != nil {
		p.err = fmt.Errorf("plan %s: %w", rel, err)
		return p
	}

	for i := range records {
		r := records[i]
		switch {
		case r.Kind == models.KindContent:
			p.spans = append(p.spans, r)
		case r.Location.IsDir:
			p.dirs = append(p.dirs, r)
		default:
			p.rename = &r
		}
	}
	return p
}

// readText returns the file contents, or a skip reason for files that are
// too large or not UTF-8 text.
func readText(abs string, maxSize int64) ([]byte, string, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, "", fmt.Errorf("stat: %w", err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Sprintf("larger than %d bytes", maxSize), nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, "", fmt.Errorf("read: %w", err)
	}
	if !isText(data) {
		return nil, "binary", nil
	}
	return data, "", nil
}

// isText treats UTF-8 without NUL bytes in the first sniffLen bytes as text.
func isText(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	return utf8.Valid(data)
}

func parentOf(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return ""
	}
	return dir
}
