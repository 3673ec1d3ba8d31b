package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

type entry struct {
	name    string
	content string
	dir     bool
}

func createArchive(t *testing.T, entries []entry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		if e.dir {
			h := &zip.FileHeader{Name: e.name}
			h.SetMode(os.ModeDir | 0755)
			if _, err := w.CreateHeader(h); err != nil {
				t.Fatalf("Failed to create directory %s: %v", e.name, err)
			}
			continue
		}
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return zipPath
}

func collect(t *testing.T, zipPath, pattern string) []string {
	t.Helper()
	var visited []string
	err := Walk(zipPath, pattern, func(archive string, file *zip.File) error {
		if archive != zipPath {
			t.Errorf("archive = %s, want %s", archive, zipPath)
		}
		visited = append(visited, file.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return visited
}

func TestWalk(t *testing.T) {
	zipPath := createArchive(t, []entry{
		{name: "reports/q1.odt", content: "q1"},
		{name: "reports/annual.odt", content: "annual"},
		{name: "letters/a.fodt", content: "a"},
		{name: "letters/b.fodt", content: "b"},
		{name: "index.txt", content: "index"},
	})

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"reports prefix", "reports/", []string{"reports/annual.odt", "reports/q1.odt"}},
		{"letters prefix", "letters/", []string{"letters/a.fodt", "letters/b.fodt"}},
		{"no match", "nonexistent/", nil},
		{"empty prefix", "", []string{"index.txt", "letters/a.fodt", "letters/b.fodt", "reports/annual.odt", "reports/q1.odt"}},
		{"case sensitive", "Reports/", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collect(t, zipPath, tt.pattern); !slices.Equal(got, tt.want) {
				t.Errorf("visited %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalk_NaturalOrder(t *testing.T) {
	zipPath := createArchive(t, []entry{
		{name: "doc10.odt"},
		{name: "doc2.odt"},
		{name: "doc1.odt"},
		{name: "chapter/part12.odt"},
		{name: "chapter/part3.odt"},
	})

	want := []string{"chapter/part3.odt", "chapter/part12.odt", "doc1.odt", "doc2.odt", "doc10.odt"}
	if got := collect(t, zipPath, ""); !slices.Equal(got, want) {
		t.Errorf("visited %v, want %v", got, want)
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		err := Walk("/nonexistent/file.zip", "", func(string, *zip.File) error { return nil })
		if err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		invalidZip := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalidZip, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		err := Walk(invalidZip, "", func(string, *zip.File) error { return nil })
		if err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})
}

func TestWalk_UnsafePaths(t *testing.T) {
	for _, name := range []string{"../escape.odt", "dir/../../escape.odt", "/abs.odt"} {
		t.Run(name, func(t *testing.T) {
			zipPath := createArchive(t, []entry{{name: "ok.odt"}, {name: name}})
			called := false
			err := Walk(zipPath, "", func(string, *zip.File) error {
				called = true
				return nil
			})
			if err == nil {
				t.Fatal("Expected error for unsafe entry")
			}
			if called {
				t.Error("no entry must be visited in unsafe archive")
			}
		})
	}
}

func TestWalk_WithDirectories(t *testing.T) {
	zipPath := createArchive(t, []entry{
		{name: "mydir/", dir: true},
		{name: "mydir/file.odt", content: "content"},
	})

	want := []string{"mydir/file.odt"}
	if got := collect(t, zipPath, "mydir/"); !slices.Equal(got, want) {
		t.Errorf("visited %v, want %v (file only, not directory)", got, want)
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := createArchive(t, []entry{
		{name: "files/file1.odt"},
		{name: "files/file2.odt"},
		{name: "files/file3.odt"},
	})

	var visited []string
	stopErr := errors.New("stop walking")
	err := Walk(zipPath, "files/", func(archive string, file *zip.File) error {
		visited = append(visited, file.Name)
		if len(visited) == 2 {
			return stopErr
		}
		return nil
	})

	if err != stopErr {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}
	if want := []string{"files/file1.odt", "files/file2.odt"}; !slices.Equal(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
}

func TestWalk_FileContent(t *testing.T) {
	content := []byte("test content")
	zipPath := createArchive(t, []entry{{name: "test.odt", content: string(content)}})

	err := Walk(zipPath, "", func(archive string, file *zip.File) error {
		rc, err := file.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(rc); err != nil {
			return err
		}
		if !bytes.Equal(buf.Bytes(), content) {
			t.Errorf("content = %s, want %s", buf.Bytes(), content)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"doc.odt", true},
		{"a/b/doc.odt", true},
		{"a/..b/doc.odt", true},
		{"../doc.odt", false},
		{"a/../../doc.odt", false},
		{"/doc.odt", false},
		{`\doc.odt`, false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
