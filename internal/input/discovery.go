package input

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is an upload-ready payload.
type Source struct {
	Path     string
	Filename string
	Content  []byte
	// Files lists the JSON files packed from a project directory.
	Files []string
}

// Resolve turns a user argument into an upload. A .zip or .json file is sent
// as-is; a project directory is packed into a zip of its data/*.json files.
func Resolve(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	if info.IsDir() {
		return packProject(path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".zip" && ext != ".json" {
		return Source{}, fmt.Errorf("unsupported upload %s: expected a .zip, a .json or a project directory", filepath.Base(path))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Source{}, err
	}
	if len(b) == 0 {
		return Source{}, fmt.Errorf("upload %s is empty", filepath.Base(path))
	}
	return Source{Path: path, Filename: filepath.Base(path), Content: b}, nil
}

// FindDataFiles locates the RPG Maker data files of a project: data/ first,
// then the directory itself, then data/ inside a single sub-directory.
func FindDataFiles(dir string) ([]string, error) {
	files, err := jsonFilesIn(filepath.Join(dir, "data"))
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		return files, nil
	}
	if files, err = jsonFilesIn(dir); err != nil || len(files) > 0 {
		return files, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
		}
	}
	if len(subdirs) == 1 {
		return jsonFilesIn(filepath.Join(dir, subdirs[0], "data"))
	}
	return nil, nil
}

func jsonFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func packProject(dir string) (Source, error) {
	files, err := FindDataFiles(dir)
	if err != nil {
		return Source{}, err
	}
	if len(files) == 0 {
		return Source{}, fmt.Errorf("no RPG Maker .json files found in %s", dir)
	}
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			_ = zw.Close()
			return Source{}, err
		}
		w, err := zw.Create("data/" + filepath.Base(f))
		if err != nil {
			_ = zw.Close()
			return Source{}, err
		}
		if _, err := w.Write(b); err != nil {
			_ = zw.Close()
			return Source{}, err
		}
	}
	if err := zw.Close(); err != nil {
		return Source{}, err
	}
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) {
		name = "project"
	}
	return Source{Path: dir, Filename: name + ".zip", Content: buf.Bytes(), Files: files}, nil
}
