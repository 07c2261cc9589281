package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get and Update when the index doesn't refer
// to an existing post. Check with errors.Is.
var ErrNotFound = errors.New("no such post")

// Board exposes index-addressed CRUD operations over a Store. It owns the
// bounds-checking contract the web handlers rely on.
//
// Every operation loads the list fresh from the store; there is no cache
// and no locking. Two concurrent mutations race read-modify-write at file
// granularity and the later rewrite wins.
type Board struct {
	store Store
}

func New(store Store) *Board {
	return &Board{store: store}
}

func (b *Board) List() ([]Post, error) {
	return b.store.Load()
}

// Create appends a new post. The title is trimmed of surrounding
// whitespace; content is kept verbatim (including leading/trailing
// whitespace and newlines) to preserve authored formatting. Empty values
// are accepted, required-field validation belongs to the form boundary.
func (b *Board) Create(title, content string) error {
	p := Post{
		Title:   strings.TrimSpace(title),
		Content: content,
	}
	return b.store.AppendOne(p)
}

func (b *Board) Get(index int) (Post, error) {
	posts, err := b.store.Load()
	if err != nil {
		return Post{}, err
	}
	if index < 0 || index >= len(posts) {
		return Post{}, fmt.Errorf("post %d: %w", index, ErrNotFound)
	}
	return posts[index], nil
}

func (b *Board) Update(index int, title, content string) error {
	posts, err := b.store.Load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(posts) {
		return fmt.Errorf("post %d: %w", index, ErrNotFound)
	}
	posts[index] = Post{Title: title, Content: content}
	return b.store.RewriteAll(posts)
}

// Delete removes the post at index. An out-of-range index is a no-op, not
// an error: delete comes from a detail page that may be stale and the end
// state ("post is gone") is already satisfied.
func (b *Board) Delete(index int) error {
	posts, err := b.store.Load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(posts) {
		return nil
	}
	posts = append(posts[:index], posts[index+1:]...)
	return b.store.RewriteAll(posts)
}
