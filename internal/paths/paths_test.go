package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRelative(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src", "Shop")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"existing dir", sub, "src/Shop"},
		{"missing file", filepath.Join(sub, "Cart.cs"), "src/Shop/Cart.cs"},
		{"root itself", root, "."},
		{"outside", filepath.Dir(root), ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Relative(root, tt.path)
			if err != nil {
				t.Fatalf("Relative() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Relative() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRelative_Symlink(t *testing.T) {
	real := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.WriteFile(filepath.Join(real, "A.cs"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Relative(real, filepath.Join(link, "A.cs"))
	if err != nil {
		t.Fatalf("Relative() error = %v", err)
	}
	if got != "A.cs" {
		t.Errorf("Relative() = %q, want A.cs", got)
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a", "b.cs"), true},
		{root, true},
		{filepath.Join(root, "..", "other"), false},
		{filepath.Join(root, "..dotted"), true},
	}

	for _, tt := range tests {
		if got := IsWithin(root, tt.path); got != tt.want {
			t.Errorf("IsWithin(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(`src\Shop\Cart.cs`); got != "src/Shop/Cart.cs" {
		t.Errorf("Normalize() = %q", got)
	}
}

func TestMatch(t *testing.T) {
	patterns := []string{"**/bin/**", "**/obj/**", "**/*.Designer.cs"}

	tests := []struct {
		rel  string
		want bool
	}{
		{"bin", true},
		{"src/bin/Debug/A.cs", true},
		{"src/obj", true},
		{"src/Form1.Designer.cs", true},
		{"src/Cart.cs", false},
		{"binary/Cart.cs", false},
		{`src\obj\A.cs`, true},
	}

	for _, tt := range tests {
		if got := Match(patterns, tt.rel); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
	if Match(nil, "anything") {
		t.Error("no patterns should match nothing")
	}
}

func TestValidatePatterns(t *testing.T) {
	if err := ValidatePatterns([]string{"**/bin/**", "*.cs"}); err != nil {
		t.Errorf("ValidatePatterns(valid) = %v", err)
	}
	if err := ValidatePatterns([]string{"[unterminated"}); err == nil {
		t.Error("ValidatePatterns should reject a malformed pattern")
	}
}
