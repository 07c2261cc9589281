package board

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Post is the sole domain entity: a title and free-form content.
// Content can contain newlines and arbitrary Unicode, both round-trip
// exactly through the store.
type Post struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Store is the persistence boundary of the board. FileStore is the real
// implementation; tests substitute an in-memory one.
type Store interface {
	// Load returns all posts in file order. A missing file is an empty
	// board, not an error.
	Load() ([]Post, error)
	// AppendOne appends a single post without touching existing lines.
	AppendOne(p Post) error
	// RewriteAll replaces the whole file with the given posts.
	RewriteAll(posts []Post) error
}

// legacySep is the delimiter of the pre-JSON line format. It breaks if
// a title contains the delimiter, which is why writers no longer emit it.
const legacySep = "|||"

// FileStore persists posts in a single flat file, one post per line.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// parseLine decodes one non-blank line. Returns false if the line is in
// neither format; the caller drops such lines.
func parseLine(line string) (Post, bool) {
	var rec struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	err := json.Unmarshal([]byte(line), &rec)
	if err == nil && rec.Title != nil && rec.Content != nil {
		return Post{Title: *rec.Title, Content: *rec.Content}, true
	}
	title, content, found := strings.Cut(line, legacySep)
	if found {
		return Post{Title: title, Content: content}, true
	}
	return Post{}, false
}

// marshalLine encodes a post as a single newline-terminated JSON line.
// HTML escaping is off so non-ASCII and <>& are stored literally.
func marshalLine(p Post, buf *bytes.Buffer) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encode appends the newline
	return enc.Encode(p)
}

func (s *FileStore) Load() ([]Post, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// a post with long content is a single long JSON line
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var posts []Post
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		if p, ok := parseLine(line); ok {
			posts = append(posts, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *FileStore) AppendOne(p Post) error {
	var buf bytes.Buffer
	if err := marshalLine(p, &buf); err != nil {
		return err
	}
	return appendToFile(s.Path, buf.Bytes())
}

func (s *FileStore) RewriteAll(posts []Post) error {
	var buf bytes.Buffer
	for _, p := range posts {
		if err := marshalLine(p, &buf); err != nil {
			return err
		}
	}
	return writeFileAtomic(s.Path, buf.Bytes())
}

// appendToFile appends data to a file, creating it if absent, and makes
// sure it hits the disk before returning.
func appendToFile(path string, d []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	_, err = f.Write(d)
	if err != nil {
		f.Close()
		return err
	}
	err = f.Sync()
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeFileAtomic replaces the content of path by writing a temp file in
// the same directory and renaming it over the destination, so a crash
// mid-write never leaves a truncated file.
func writeFileAtomic(path string, d []byte) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, name)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	didRename := false
	defer func() {
		if !didRename {
			_ = os.Remove(tmpPath)
		}
	}()

	_, err = tmp.Write(d)
	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errSync := tmp.Sync()
	errClose := tmp.Close()
	if err == nil {
		err = errSync
	}
	if err == nil {
		err = errClose
	}
	if err != nil {
		return err
	}
	err = os.Rename(tmpPath, path)
	didRename = err == nil
	return err
}
