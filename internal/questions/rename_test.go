package questions

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRenameImages(t *testing.T) {
	t.Run("sequential rename with prefix", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "scan_b.png", "scan_a.jpg", "scan_c.webp", "notes.txt")

		n, err := RenameImages(dir, RenameOptions{Prefix: "img"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 renames, got %d", n)
		}

		got := listDir(t, dir)
		want := []string{"img_0001.jpg", "img_0002.png", "img_0003.webp", "notes.txt"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("expected %v, got %v", want, got)
				break
			}
		}
	})

	t.Run("empty prefix and custom width", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "a.jpg", "b.jpg")

		if _, err := RenameImages(dir, RenameOptions{StartIndex: 5, Digits: 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := listDir(t, dir)
		if got[0] != "05.jpg" || got[1] != "06.jpg" {
			t.Errorf("unexpected names: %v", got)
		}
	})

	t.Run("idempotent on second run", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "photo.jpeg")

		if _, err := RenameImages(dir, RenameOptions{Prefix: "img"}); err != nil {
			t.Fatal(err)
		}
		n, err := RenameImages(dir, RenameOptions{Prefix: "img"})
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("expected no renames on second run, got %d", n)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := RenameImages(filepath.Join(t.TempDir(), "nope"), RenameOptions{}); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
