package input

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func zipNames(t *testing.T, b []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestResolve_FilesAsIs(t *testing.T) {
	dir := t.TempDir()
	j := filepath.Join(dir, "Map001.json")
	writeFile(t, j, `{"events":[]}`)
	src, err := Resolve(j)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if src.Filename != "Map001.json" || string(src.Content) != `{"events":[]}` {
		t.Fatalf("src=%+v", src)
	}

	z := filepath.Join(dir, "game.ZIP")
	writeFile(t, z, "PK")
	if src, err := Resolve(z); err != nil || src.Filename != "game.ZIP" {
		t.Fatalf("zip src=%+v err=%v", src, err)
	}
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	writeFile(t, txt, "x")
	if _, err := Resolve(txt); err == nil {
		t.Fatal("expected unsupported type error")
	}
	empty := filepath.Join(dir, "empty.json")
	writeFile(t, empty, "")
	if _, err := Resolve(empty); err == nil {
		t.Fatal("expected empty file error")
	}
	if _, err := Resolve(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected stat error")
	}
	if _, err := Resolve(filepath.Join(t.TempDir())); err == nil {
		t.Fatal("expected no-files error for empty dir")
	}
}

func TestResolve_ProjectDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "MyGame")
	writeFile(t, filepath.Join(dir, "data", "Map001.json"), "{}")
	writeFile(t, filepath.Join(dir, "data", "Items.json"), "[]")
	writeFile(t, filepath.Join(dir, "data", "readme.txt"), "x")
	writeFile(t, filepath.Join(dir, "package.json"), "{}")

	src, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if src.Filename != "MyGame.zip" || len(src.Files) != 2 {
		t.Fatalf("src filename=%q files=%v", src.Filename, src.Files)
	}
	names := zipNames(t, src.Content)
	if len(names) != 2 || names[0] != "data/Items.json" || names[1] != "data/Map001.json" {
		t.Fatalf("zip names=%v", names)
	}
}

func TestFindDataFiles_SearchOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "System.json"), "{}")
	files, err := FindDataFiles(root)
	if err != nil || len(files) != 1 || filepath.Base(files[0]) != "System.json" {
		t.Fatalf("root files=%v err=%v", files, err)
	}

	nested := t.TempDir()
	writeFile(t, filepath.Join(nested, "Game", "data", "Actors.json"), "[]")
	files, err = FindDataFiles(nested)
	if err != nil || len(files) != 1 || filepath.Base(files[0]) != "Actors.json" {
		t.Fatalf("nested files=%v err=%v", files, err)
	}

	ambiguous := t.TempDir()
	writeFile(t, filepath.Join(ambiguous, "A", "data", "x.json"), "{}")
	writeFile(t, filepath.Join(ambiguous, "B", "data", "y.json"), "{}")
	files, err = FindDataFiles(ambiguous)
	if err != nil || len(files) != 0 {
		t.Fatalf("ambiguous files=%v err=%v", files, err)
	}
}
