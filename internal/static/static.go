package static

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

//go:embed web/index.html
var defaultIndex []byte

// DirHandler serves dir under prefix with directory listing enabled.
func DirHandler(prefix, dir string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
}

// Index is the document returned by a successful ingest.
type Index struct {
	// path is "" when serving the embedded default page.
	path    string
	started time.Time
}

// NewIndex returns an Index serving the file at path, or the embedded
// default page when path is empty. A non-empty path must name a regular
// file when NewIndex is called; it is re-read on every request.
func NewIndex(path string) (*Index, error) {
	ix := &Index{started: time.Now()}
	if path == "" {
		return ix, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("index file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("index file %s is a directory", path)
	}

	ix.path = filepath.Clean(path)
	return ix, nil
}

// Path returns the served file, or "" for the embedded page.
func (ix *Index) Path() string {
	return ix.path
}

// Serve writes the index document. Conditional requests are answered with
// 304 when the document is unchanged. An error is returned, and nothing
// written, if the file can no longer be opened.
func (ix *Index) Serve(w http.ResponseWriter, r *http.Request) error {
	if ix.path == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, "index.html", ix.started, bytes.NewReader(defaultIndex))
		return nil
	}

	f, err := os.Open(ix.path)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat index: %w", err)
	}
	if info.IsDir() {
		return errors.New("index path became a directory")
	}

	http.ServeContent(w, r, filepath.Base(ix.path), info.ModTime(), f)
	return nil
}
