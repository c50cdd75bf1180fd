package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanOptions configures the tree walk
type ScanOptions struct {
	// ExcludeDirs lists directory names to prune (e.g., ".git", "node_modules")
	ExcludeDirs []string
	// IncludeHidden descends into dot-directories that are not excluded
	IncludeHidden bool
	// MaxDepth limits recursion depth (0 = unlimited, 1 = root entries only)
	MaxDepth int
}

// ScanResult contains the results of a tree walk
type ScanResult struct {
	// Root is the absolute path that was walked
	Root string
	// Files contains slash-separated paths of regular files relative to Root
	Files []string
	// Dirs contains slash-separated paths of directories relative to Root
	Dirs []string
	// Errors contains non-fatal errors encountered during the walk
	Errors []error
}

// Abs returns the absolute path of a relative entry.
func (r *ScanResult) Abs(rel string) string {
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}

// ScanTree walks root and collects its files and directories
func ScanTree(root string, opts ScanOptions) (*ScanResult, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	result := &ScanResult{
		Root:   absRoot,
		Files:  make([]string, 0),
		Dirs:   make([]string, 0),
		Errors: make([]error, 0),
	}

	excludeMap := make(map[string]bool, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		excludeMap[name] = true
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}

		if path == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to relativize %s: %w", path, err))
			return nil
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1

		if d.IsDir() {
			if excludeMap[d.Name()] || (!opts.IncludeHidden && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && depth > opts.MaxDepth {
				return filepath.SkipDir
			}
			result.Dirs = append(result.Dirs, rel)
			return nil
		}

		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		result.Files = append(result.Files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Files)
	sort.Strings(result.Dirs)

	return result, nil
}
