package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/errors"
)

// PathCheckMode says whether a checked path will be read or written.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import
	PathCheckWrite                      // export
)

// ValidatePath checks a path given to import or export.
//
//   - No ".." components.
//   - The extension equals ext, ignoring case.
//   - Unless allow_unsafe_paths is set, the file sits directly in
//     ~/.globs/exports or in an allowed_paths entry, and that directory is
//     not a symlink.
//   - The file itself is never a symlink. For reads it must exist.
//
// Files must sit directly in an allowed directory, never below it, so no
// intermediate component can be swapped for a symlink between this check and
// openNoFollow.
func ValidatePath(path string, mode PathCheckMode, ext string, cfg *config.Config) error {
	abs, err := cleanPath(path, ext)
	if err != nil {
		return err
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkDirectory(filepath.Dir(abs), cfg); err != nil {
			return err
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(abs) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// cleanPath rejects traversal and a wrong extension, and returns the
// absolute form of path.
func cleanPath(path, ext string) (string, error) {
	if path == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !strings.EqualFold(filepath.Ext(cleaned), ext) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("path must have %s extension", ext))
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	return abs, nil
}

// checkDirectory requires dir to be one of the allowed directories and not a
// symlink.
func checkDirectory(dir string, cfg *config.Config) error {
	allowed, err := allowedDirs(cfg)
	if err != nil {
		return err
	}

	dir = filepath.Clean(dir)
	found := false
	for _, d := range allowed {
		if dir == d {
			found = true
			break
		}
	}
	if !found {
		return errors.NewInvalidRequest(fmt.Sprintf(
			"file must be directly in an allowed directory (no subdirectories); allowed: %v", allowed))
	}

	if isSymlink(dir) {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return nil
}

// allowedDirs returns the exports directory plus every absolute
// allowed_paths entry, cleaned. Entries that are symlinks are resolved to
// their targets.
func allowedDirs(cfg *config.Config) ([]string, error) {
	exports, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}
	dirs := []string{exports}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, p)
			}
		}
	}

	for i, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			if abs, err = filepath.EvalSymlinks(abs); err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
		}
		dirs[i] = abs
	}
	return dirs, nil
}

// isSymlink reports whether path exists and is a symlink.
func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// DefaultExportsDir returns ~/.globs/exports.
func DefaultExportsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(home, ".globs", "exports"), nil
}

// containsTraversal reports whether any component of path is "..". Both
// separators count on every platform.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}

var (
	filenameReplacer = strings.NewReplacer("/", "-", "\\", "-", "..", "-")
	dashRuns         = regexp.MustCompile(`-{2,}`)
)

// SanitizeForFilename turns a document name into a safe file name stem.
func SanitizeForFilename(s string) string {
	s = filenameReplacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	s = strings.Trim(dashRuns.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "unnamed"
	}
	return s
}
