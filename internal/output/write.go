package output

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func random8() (string, error) {
	b := make([]byte, 8)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}

// ArtifactPath picks a file path in outDir that does not exist yet. The
// service-provided name is preferred; otherwise <target>_<jobID>_<rand8>.zip.
// A taken preferred name gets a random suffix before its extension.
func ArtifactPath(outDir, preferred, target, jobID string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	preferred = filepath.Base(strings.TrimSpace(preferred))
	if preferred == "." || preferred == string(filepath.Separator) {
		preferred = ""
	}
	if preferred != "" {
		p := filepath.Join(outDir, preferred)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p, nil
		}
	}
	for i := 0; i < 100; i++ {
		s, err := random8()
		if err != nil {
			return "", err
		}
		var name string
		if preferred != "" {
			ext := filepath.Ext(preferred)
			name = fmt.Sprintf("%s_%s%s", strings.TrimSuffix(preferred, ext), s, ext)
		} else {
			name = fmt.Sprintf("%s_%s_%s.zip", nameOr(target, "translated"), nameOr(jobID, "job"), s)
		}
		p := filepath.Join(outDir, name)
		if _, err := os.Stat(p); err == nil {
			continue
		}
		return p, nil
	}
	return "", fmt.Errorf("could not pick a unique output file name")
}

// WriteArtifact stores data under ArtifactPath and returns the path written.
func WriteArtifact(outDir, preferred, target, jobID string, data []byte) (string, error) {
	p, err := ArtifactPath(outDir, preferred, target, jobID)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}

func nameOr(s, fallback string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == filepath.Separator {
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return fallback
	}
	return s
}
