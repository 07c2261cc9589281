package server

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

var compressMu sync.Mutex

func fileExists(path string) bool {
	st, err := os.Lstat(path)
	return err == nil && st.Mode().IsRegular()
}

var mimeTypes = map[string]string{
	// not present in mime.TypeByExtension()
	".txt": "text/plain",
}

func mimeTypeFromFileName(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	ct := mimeTypes[ext]
	if ct == "" {
		ct = mime.TypeByExtension(ext)
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.WWWDir == "" {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/static/")
	// stop path traversal
	name = path.Clean("/" + name)
	fpath := filepath.Join(s.WWWDir, filepath.FromSlash(name))
	if !fileExists(fpath) {
		http.NotFound(w, r)
		return
	}
	if canServeCompressed(fpath) && serveFileMaybeBr(w, r, fpath) {
		return
	}
	w.Header().Set("Content-Type", mimeTypeFromFileName(fpath))
	http.ServeFile(w, r, fpath)
}

func canServeCompressed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".html", ".txt", ".css", ".js", ".xml":
		return true
	}
	return false
}

// serveFileMaybeBr serves a pre-compressed .br variant of path if the
// client accepts brotli, creating the variant on first use
func serveFileMaybeBr(w http.ResponseWriter, r *http.Request, path string) bool {
	enc := r.Header.Get("Accept-Encoding")
	if !strings.Contains(enc, "br") {
		return false
	}
	pathBr := path + ".br"
	if !fileExists(pathBr) {
		compressMu.Lock()
		err := compressBr(path, pathBr)
		compressMu.Unlock()
		if err != nil {
			return false
		}
	}
	f, err := os.Open(pathBr)
	if err != nil {
		return false
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return false
	}
	w.Header().Set("Content-Type", mimeTypeFromFileName(path))
	// prevent caches from serving the compressed variant to clients
	// that didn't ask for it
	w.Header().Add("Vary", "Accept-Encoding")
	w.Header().Set("Content-Encoding", "br")
	http.ServeContent(w, r, path, st.ModTime(), f)
	return true
}

func compressBr(path string, pathBr string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dst, err := os.Create(pathBr)
	if err != nil {
		return err
	}
	w := brotli.NewWriterLevel(dst, brotli.BestCompression)
	_, err = io.Copy(w, f)
	err2 := w.Close()
	err3 := dst.Close()
	if err == nil {
		err = err2
	}
	if err == nil {
		err = err3
	}
	if err != nil {
		os.Remove(pathBr)
	}
	return err
}
