package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWithinDir(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	if err := os.MkdirAll(safeDir, 0755); err != nil {
		t.Fatalf("Failed to create safe directory: %v", err)
	}
	if err := os.MkdirAll(unsafeDir, 0755); err != nil {
		t.Fatalf("Failed to create unsafe directory: %v", err)
	}

	// Create a symlink inside safe directory pointing to unsafe directory
	symlinkPath := filepath.Join(safeDir, "evil-symlink")
	if err := os.Symlink(unsafeDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{
			name:      "figure within output folder",
			filePath:  filepath.Join(safeDir, "532_OR_55_index0-hist.png"),
			safeDir:   safeDir,
			wantError: false,
		},
		{
			name:      "nested path",
			filePath:  filepath.Join(safeDir, "sub", "a-violin.png"),
			safeDir:   safeDir,
			wantError: false,
		},
		{
			name:      "path traversal with ..",
			filePath:  filepath.Join(safeDir, "..", "a-hist.png"),
			safeDir:   safeDir,
			wantError: true,
		},
		{
			name:      "absolute path outside safe dir",
			filePath:  "/etc/passwd",
			safeDir:   safeDir,
			wantError: true,
		},
		{
			name:      "symlink escape to outside dir",
			filePath:  filepath.Join(symlinkPath, "a-hist.png"),
			safeDir:   safeDir,
			wantError: true,
		},
		{
			name:      "output folder not created yet",
			filePath:  filepath.Join(tmpDir, "later", "a-hist.png"),
			safeDir:   filepath.Join(tmpDir, "later"),
			wantError: false,
		},
		{
			name:      "escape from folder not created yet",
			filePath:  filepath.Join(tmpDir, "later", "..", "a-hist.png"),
			safeDir:   filepath.Join(tmpDir, "later"),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WithinDir(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("WithinDir(%q, %q) error = %v, wantError %v", tt.filePath, tt.safeDir, err, tt.wantError)
			}
			if err != nil && !errors.Is(err, ErrOutsideDir) {
				t.Errorf("expected ErrOutsideDir, got %v", err)
			}
		})
	}
}

func TestFigurePath(t *testing.T) {
	dir := t.TempDir()

	got, err := FigurePath(dir, "sample-hist.png")
	if err != nil {
		t.Fatalf("FigurePath failed: %v", err)
	}
	if got != filepath.Join(dir, "sample-hist.png") {
		t.Errorf("unexpected path %q", got)
	}

	if _, err := FigurePath(dir, "../escape-hist.png"); !errors.Is(err, ErrOutsideDir) {
		t.Errorf("expected traversal to be rejected, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"532_OR_47_index0.jpeg", "532_OR_47_index0.jpeg"},
		{"scan 01 (left).png", "scan_01_left_.png"},
		{"../../etc/passwd", "etc_passwd"},
		{"", "unknown"},
		{"///", "unknown"},
		{"__a__", "a"},
		{string(make([]byte, 300)), "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
