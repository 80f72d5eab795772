// Package security guards the file names the analysis tools write to.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrOutsideDir is returned when a figure path resolves outside its output
// folder.
var ErrOutsideDir = errors.New("path escapes output folder")

// maxNameLen bounds sanitised file names.
const maxNameLen = 128

// WithinDir reports an error unless path resolves inside dir, following
// symlinks in whatever part of either path already exists. An output folder
// that has not been created yet is compared lexically.
func WithinDir(path, dir string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}

	root, err := filepath.EvalSymlinks(absDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		root = canonical(absDir)
	case err != nil:
		return fmt.Errorf("resolve %s: %w", dir, err)
	}

	rel, err := filepath.Rel(root, canonical(absPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is not under %s", ErrOutsideDir, path, dir)
	}
	return nil
}

// canonical resolves symlinks in the longest existing prefix of an absolute
// path and re-attaches the rest, so out/link/new.png is judged by where link
// points.
func canonical(abs string) string {
	for prefix := abs; ; {
		if resolved, err := filepath.EvalSymlinks(prefix); err == nil {
			tail, _ := filepath.Rel(prefix, abs)
			return filepath.Join(resolved, tail)
		}
		parent := filepath.Dir(prefix)
		if parent == prefix {
			return abs
		}
		prefix = parent
	}
}

// FigurePath joins name onto outputDir and rejects names that would land
// outside it.
func FigurePath(outputDir, name string) (string, error) {
	p := filepath.Join(outputDir, name)
	if err := WithinDir(p, outputDir); err != nil {
		return "", err
	}
	return p, nil
}

// SanitizeFilename turns an image name into something safe to build a figure
// name from. Runs of characters other than ASCII letters, digits, dot,
// underscore and dash become a single underscore, and leading or trailing
// dots and underscores are dropped.
func SanitizeFilename(s string) string {
	var b strings.Builder
	gap := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		if safeRune(r) {
			b.WriteRune(r)
			gap = false
			continue
		}
		if !gap {
			b.WriteByte('_')
			gap = true
		}
	}
	if out := strings.Trim(b.String(), "._"); out != "" {
		return out
	}
	return "unknown"
}

func safeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return r == '.' || r == '_' || r == '-'
}
