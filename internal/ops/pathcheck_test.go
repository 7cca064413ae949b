package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()

	for _, path := range []string{
		"../sketch.json",
		"../../etc/sketch.json",
		"/tmp/../etc/sketch.json",
	} {
		t.Run(path, func(t *testing.T) {
			err := ValidatePath(path, PathCheckWrite, ".json", cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("ValidatePath() error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestValidatePath_Extension(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	tests := []struct {
		name string
		file string
		ext  string
		ok   bool
	}{
		{"json", "a.json", ".json", true},
		{"svg", "a.svg", ".svg", true},
		{"upper case", "a.PNG", ".png", true},
		{"none", "a", ".json", false},
		{"format mismatch", "a.svg", ".png", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(filepath.Join(dir, tc.file), PathCheckWrite, tc.ext, cfg)
			if tc.ok && err != nil {
				t.Errorf("ValidatePath() error = %v, want nil", err)
			}
			if !tc.ok && !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("ValidatePath() error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	allowed := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowed}

	if err := ValidatePath(filepath.Join(t.TempDir(), "out.svg"), PathCheckWrite, ".svg", cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("outside allowed dirs: error = %v, want INVALID_REQUEST", err)
	}

	sub := filepath.Join(allowed, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := ValidatePath(filepath.Join(sub, "out.svg"), PathCheckWrite, ".svg", cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("nested dir: error = %v, want INVALID_REQUEST", err)
	}

	cfg.AllowUnsafePaths = true
	if err := ValidatePath(filepath.Join(sub, "out.svg"), PathCheckWrite, ".svg", cfg); err != nil {
		t.Errorf("unsafe paths: error = %v, want nil", err)
	}
}

func TestValidatePath_ReadMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	err := ValidatePath(filepath.Join(dir, "missing.json"), PathCheckRead, ".json", cfg)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("ValidatePath() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.json")
	if err := os.WriteFile(target, []byte("{}"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	for _, unsafe := range []bool{false, true} {
		cfg := config.DefaultConfig()
		cfg.AllowedPaths = []string{dir}
		cfg.AllowUnsafePaths = unsafe
		for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
			if err := ValidatePath(link, mode, ".json", cfg); !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("unsafe=%v mode=%d: error = %v, want INVALID_REQUEST", unsafe, mode, err)
			}
		}
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/home/user/sketch.json", false},
		{"../sketch.json", true},
		{"/home/../etc/passwd", true},
		{"./sketch.json", false},
		{"sketch..v2.json", false},
	}
	for _, tc := range tests {
		if got := containsTraversal(tc.path); got != tc.want {
			t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"logo", "logo"},
		{"my logo", "my logo"},
		{"path/to/file", "path-to-file"},
		{"path\\to\\file", "path-to-file"},
		{"../../../etc/passwd", "etc-passwd"},
		{"foo\x00bar", "foobar"},
		{"../../..", "unnamed"},
		{"a---b", "a-b"},
	}
	for _, tc := range tests {
		if got := SanitizeForFilename(tc.input); got != tc.want {
			t.Errorf("SanitizeForFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
