// Package server is the web layer of the board: thin handlers that
// translate HTTP requests into board calls and render HTML.
package server

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/kjk/board/board"
	"github.com/kjk/board/log"
)

//go:embed tmpl/*.html
var tmplFS embed.FS

var templates = template.Must(template.ParseFS(tmplFS, "tmpl/*.html"))

type Server struct {
	Board *board.Board
	// WWWDir is a directory with static files served under /static/.
	// Empty means no static files.
	WWWDir string
}

func New(b *board.Board, wwwDir string) *Server {
	return &Server{
		Board:  b,
		WWWDir: wwwDir,
	}
}

// Handler returns the http.Handler for the whole app, with request
// logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /board", s.handleBoard)
	mux.HandleFunc("GET /create", s.handleCreateForm)
	mux.HandleFunc("POST /create", s.handleCreate)
	mux.HandleFunc("GET /detail/{index}", s.handleDetail)
	mux.HandleFunc("GET /edit/{index}", s.handleEditForm)
	mux.HandleFunc("POST /edit/{index}", s.handleEdit)
	mux.HandleFunc("POST /delete/{index}", s.handleDelete)
	mux.HandleFunc("GET /static/", s.handleStatic)
	return logRequests(mux)
}

// serveError translates board errors: ErrNotFound becomes a plain 404,
// anything else is a storage failure and becomes a 500.
func serveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, board.ErrNotFound) {
		http.Error(w, "no such post", http.StatusNotFound)
		return
	}
	log.Errorf("%s %s: %s\n", r.Method, r.URL.Path, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func serveTemplate(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.ExecuteTemplate(w, name, data)
	log.IfErrf(err, "rendering %s failed: %s", name, err)
}

// indexFromRequest parses the positional index from the URL. ok is false
// if it's not an integer; the caller responds 404 (a non-numeric index
// can't refer to any post).
func indexFromRequest(r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	return idx, err == nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/board", http.StatusFound)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Board.List()
	if err != nil {
		serveError(w, r, err)
		return
	}
	serveTemplate(w, "board.html", map[string]any{
		"Posts": posts,
	})
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	serveTemplate(w, "create.html", nil)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	title := r.FormValue("title")
	content := r.FormValue("content")
	err := s.Board.Create(title, content)
	if err != nil {
		serveError(w, r, err)
		return
	}
	log.Event("post-created", "title", title)
	http.Redirect(w, r, "/board", http.StatusFound)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexFromRequest(r)
	if !ok {
		http.Error(w, "no such post", http.StatusNotFound)
		return
	}
	post, err := s.Board.Get(idx)
	if err != nil {
		serveError(w, r, err)
		return
	}
	serveTemplate(w, "detail.html", map[string]any{
		"Post":  post,
		"Index": idx,
	})
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexFromRequest(r)
	if !ok {
		http.Error(w, "no such post", http.StatusNotFound)
		return
	}
	post, err := s.Board.Get(idx)
	if err != nil {
		serveError(w, r, err)
		return
	}
	serveTemplate(w, "edit.html", map[string]any{
		"Post":  post,
		"Index": idx,
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexFromRequest(r)
	if !ok {
		http.Error(w, "no such post", http.StatusNotFound)
		return
	}
	err := s.Board.Update(idx, r.FormValue("title"), r.FormValue("content"))
	if err != nil {
		serveError(w, r, err)
		return
	}
	log.Event("post-updated", "index", idx)
	http.Redirect(w, r, "/detail/"+strconv.Itoa(idx), http.StatusFound)
}

// delete always redirects to the list: the detail page it was clicked on
// may be stale and "post is gone" is already true
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexFromRequest(r)
	if ok {
		if err := s.Board.Delete(idx); err != nil {
			serveError(w, r, err)
			return
		}
		log.Event("post-deleted", "index", idx)
	}
	http.Redirect(w, r, "/board", http.StatusFound)
}
