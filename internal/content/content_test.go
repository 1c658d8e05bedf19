package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func makeModule(t *testing.T, root, name string, files ...string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
}

func TestListModules(t *testing.T) {
	root := t.TempDir()
	makeModule(t, root, "02-advanced", "slides.pdf", "demo.mp4", "trophy.png")
	makeModule(t, root, "01-intro", "intro.pdf")
	makeModule(t, root, "99-empty", "notes.txt") // no PDF, not a module
	if err := os.WriteFile(filepath.Join(root, "stray.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	modules, err := ListModules(root)
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	// Sorted by name.
	if modules[0].Name != "01-intro" || modules[1].Name != "02-advanced" {
		t.Errorf("unexpected order: %q, %q", modules[0].Name, modules[1].Name)
	}
	if modules[0].HasVideo() || modules[0].HasTrophy() {
		t.Error("01-intro should have no video or trophy")
	}
	if !modules[1].HasVideo() {
		t.Error("02-advanced should have a video")
	}
	if !modules[1].HasTrophy() {
		t.Error("02-advanced should have a trophy")
	}
	if filepath.Base(modules[1].DocumentPath) != "slides.pdf" {
		t.Errorf("unexpected document path %q", modules[1].DocumentPath)
	}
}

func TestListModulesMissingRoot(t *testing.T) {
	_, err := ListModules(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestFindModule(t *testing.T) {
	root := t.TempDir()
	makeModule(t, root, "a", "a.pdf")
	modules, err := ListModules(root)
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}

	if _, ok := FindModule(modules, "a"); !ok {
		t.Error("expected to find module a")
	}
	if _, ok := FindModule(modules, "b"); ok {
		t.Error("did not expect to find module b")
	}
}

func TestNextModule(t *testing.T) {
	root := t.TempDir()
	makeModule(t, root, "a", "a.pdf")
	makeModule(t, root, "b", "b.pdf")
	makeModule(t, root, "c", "c.pdf")
	modules, err := ListModules(root)
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}

	tests := []struct {
		current string
		want    string
		wantOK  bool
	}{
		{"a", "b", true},
		{"b", "c", true},
		{"c", "", false},        // last module
		{"missing", "", false},  // unknown module
	}
	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			got, ok := NextModule(modules, tt.current)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NextModule(%q) = (%q, %v), want (%q, %v)", tt.current, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractPagesMissingFile(t *testing.T) {
	_, err := ExtractPages(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *ExtractionError, got %T", err)
	}
	if extErr.Path == "" {
		t.Error("expected path in extraction error")
	}
}

func TestJoinPages(t *testing.T) {
	got := JoinPages([]PageText{
		{Page: 1, Text: "first"},
		{Page: 3, Text: "third"},
	})
	want := "[Page 1]\nfirst\n[Page 3]\nthird\n"
	if got != want {
		t.Errorf("JoinPages = %q, want %q", got, want)
	}
}
