package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestArtifactPath_Generated(t *testing.T) {
	dir := t.TempDir()
	p, err := ArtifactPath(dir, "", "id", "abc")
	if err != nil {
		t.Fatalf("ArtifactPath error: %v", err)
	}
	base := filepath.Base(p)
	if !strings.HasPrefix(base, "id_abc_") || !strings.HasSuffix(base, ".zip") {
		t.Fatalf("unexpected name: %s", base)
	}
	if len(strings.TrimSuffix(strings.TrimPrefix(base, "id_abc_"), ".zip")) != 8 {
		t.Fatalf("random part should be 8 chars: %s", base)
	}
}

func TestArtifactPath_PreferredAndCollision(t *testing.T) {
	dir := t.TempDir()
	p, err := ArtifactPath(dir, "translated_id.zip", "id", "abc")
	if err != nil || p != filepath.Join(dir, "translated_id.zip") {
		t.Fatalf("p=%q err=%v", p, err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p2, err := ArtifactPath(dir, "translated_id.zip", "id", "abc")
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Base(p2)
	if p2 == p || !strings.HasPrefix(base, "translated_id_") || !strings.HasSuffix(base, ".zip") {
		t.Fatalf("collision name: %s", base)
	}

	p3, err := ArtifactPath(dir, "../../etc/passwd", "id", "abc")
	if err != nil || filepath.Dir(p3) != dir {
		t.Fatalf("escaped out dir: %q err=%v", p3, err)
	}
}

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p, err := WriteArtifact(dir, "", "ja", "a/b", []byte("PK"))
	if err != nil {
		t.Fatalf("WriteArtifact error: %v", err)
	}
	if strings.Contains(filepath.Base(p), "/") || !strings.HasPrefix(filepath.Base(p), "ja_a_b_") {
		t.Fatalf("name=%s", filepath.Base(p))
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "PK" {
		t.Fatalf("content=%q err=%v", b, err)
	}
}

func TestArtifactPath_MkdirError(t *testing.T) {
	dir := t.TempDir()
	fileAsDir := filepath.Join(dir, "file")
	if err := os.WriteFile(fileAsDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ArtifactPath(fileAsDir, "", "id", "abc"); err == nil {
		t.Fatal("expected mkdir error")
	}
}
