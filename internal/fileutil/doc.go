// Package fileutil enumerates the files and directories of a target tree.
//
// ScanTree walks a root directory and returns every regular file and
// directory below it as slash-separated paths relative to the root, sorted
// so runs are deterministic. Excluded directory names and, unless
// IncludeHidden is set, dot-directories are pruned together with their
// contents. Symlinks and other non-regular files are never returned.
//
// Access errors below the root are collected in ScanResult.Errors and the
// walk continues; only an unreadable or missing root fails the scan.
//
//	result, err := fileutil.ScanTree("/path/to/project", fileutil.ScanOptions{
//	    ExcludeDirs: []string{".git", "node_modules", "target"},
//	})
//	if err != nil {
//	    return err
//	}
//	for _, rel := range result.Files {
//	    fmt.Println(rel)
//	}
package fileutil
