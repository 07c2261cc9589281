package board

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

func testStore(t *testing.T) *FileStore {
	return NewFileStore(filepath.Join(t.TempDir(), "posts.txt"))
}

func TestLoadMissingFile(t *testing.T) {
	s := testStore(t)
	posts, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(posts))
}

func TestLoadMixedFormats(t *testing.T) {
	s := testStore(t)
	content := strings.Join([]string{
		"Hello|||World",
		`{"title":"A","content":"B"}`,
		"",
		"this line is in neither format",
		`{"title":"C","content":"D","extra":42}`,
		"a|||b|||c",
		"   ",
	}, "\n") + "\n"
	err := os.WriteFile(s.Path, []byte(content), 0644)
	assert.NoError(t, err)

	posts, err := s.Load()
	assert.NoError(t, err)
	exp := []Post{
		{Title: "Hello", Content: "World"},
		{Title: "A", Content: "B"},
		{Title: "C", Content: "D"},
		// only the first "|||" splits, the rest stays in content
		{Title: "a", Content: "b|||c"},
	}
	assert.Equal(t, exp, posts)
}

func TestLoadSkipsMalformedJSON(t *testing.T) {
	s := testStore(t)
	content := strings.Join([]string{
		`{"title":"no content field"}`,
		`{"title":5,"content":"bad type"}`,
		`{"title":"ok","content":"ok"}`,
	}, "\n")
	err := os.WriteFile(s.Path, []byte(content), 0644)
	assert.NoError(t, err)

	posts, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, []Post{{Title: "ok", Content: "ok"}}, posts)
}

func TestAppendRoundTrip(t *testing.T) {
	s := testStore(t)
	exp := []Post{
		{Title: "plain", Content: "text"},
		{Title: "multi-line", Content: "first\nsecond\n\nlast\n"},
		{Title: "delimiter", Content: "a|||b"},
		{Title: "unicode", Content: "나의 게시판 ✏️ żółć"},
		{Title: "html-ish", Content: "<b>&amp;</b>"},
		{Title: "", Content: ""},
	}
	for _, p := range exp {
		err := s.AppendOne(p)
		assert.NoError(t, err)
	}
	posts, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, exp, posts)

	// non-ASCII must be stored literally, not \u-escaped
	d, err := os.ReadFile(s.Path)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(d), "나의 게시판"))
	assert.True(t, strings.Contains(string(d), "<b>&amp;</b>"))
}

func TestAppendKeepsLegacyLines(t *testing.T) {
	s := testStore(t)
	err := os.WriteFile(s.Path, []byte("old|||post\n"), 0644)
	assert.NoError(t, err)

	err = s.AppendOne(Post{Title: "new", Content: "post"})
	assert.NoError(t, err)

	d, err := os.ReadFile(s.Path)
	assert.NoError(t, err)
	// existing lines are untouched, the new one is JSON
	assert.True(t, strings.HasPrefix(string(d), "old|||post\n"))
	assert.True(t, strings.Contains(string(d), `{"title":"new","content":"post"}`))

	posts, err := s.Load()
	assert.NoError(t, err)
	exp := []Post{
		{Title: "old", Content: "post"},
		{Title: "new", Content: "post"},
	}
	assert.Equal(t, exp, posts)
}

func TestRewriteAll(t *testing.T) {
	s := testStore(t)
	err := os.WriteFile(s.Path, []byte("a|||1\nb|||2\nc|||3\n"), 0644)
	assert.NoError(t, err)

	exp := []Post{
		{Title: "b", Content: "2"},
		{Title: "d", Content: "4\n5"},
	}
	err = s.RewriteAll(exp)
	assert.NoError(t, err)

	posts, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, exp, posts)

	// after a rewrite everything is in the JSON format
	d, err := os.ReadFile(s.Path)
	assert.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(string(d)), "\n") {
		assert.True(t, strings.HasPrefix(line, "{"))
	}
}

func TestRewriteAllEmpty(t *testing.T) {
	s := testStore(t)
	err := s.AppendOne(Post{Title: "t", Content: "c"})
	assert.NoError(t, err)
	err = s.RewriteAll(nil)
	assert.NoError(t, err)
	posts, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(posts))
}

func TestRewriteLeavesNoTempFiles(t *testing.T) {
	s := testStore(t)
	err := s.RewriteAll([]Post{{Title: "a", Content: "b"}})
	assert.NoError(t, err)
	entries, err := os.ReadDir(filepath.Dir(s.Path))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "posts.txt", entries[0].Name())
}
