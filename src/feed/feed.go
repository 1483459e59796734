// Package feed is the minimal HTTP surface the repository engine is
// reached through. spec.md explicitly places OData/routing/auth out of
// scope for the core; feed exists so the module is runnable end to end
// without inventing a protocol layer the retrieved examples never show.
package feed

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/feedkeeper/feedkeeper/src/ferrors"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
	"github.com/feedkeeper/feedkeeper/src/query"
	"github.com/feedkeeper/feedkeeper/src/repository"
)

// Middleware wraps an http.Handler; New substitutes a no-op middleware
// when given nil, and callers may supply their own auth/logging layer.
type Middleware func(http.Handler) http.Handler

func passthrough(h http.Handler) http.Handler { return h }

// Server exposes the repository engine over HTTP: GET /packages
// (list/search), GET /packages/{id} (find-by-id), PUT /packages (push,
// multipart body), DELETE /packages/{id}/{version} (delete).
type Server struct {
	engine     *repository.Engine
	middleware Middleware
}

// New constructs a Server over engine. mw may be nil, in which case
// requests pass through unmodified.
func New(engine *repository.Engine, mw Middleware) *Server {
	if mw == nil {
		mw = passthrough
	}
	return &Server{engine: engine, middleware: mw}
}

// Handler returns the composed http.Handler for mounting on a server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /packages", s.handleList)
	mux.HandleFunc("GET /packages/{id}", s.handleFindByID)
	mux.HandleFunc("PUT /packages", s.handlePush)
	mux.HandleFunc("DELETE /packages/{id}/{version}", s.handleDelete)
	return s.middleware(mux)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("q")
	allowPrerelease := q.Get("prerelease") == "true"
	allowUnlisted := q.Get("unlisted") == "true"
	compat := query.Default
	if q.Get("semVerLevel") == "2.0.0" {
		compat = query.Max
	}
	var frameworks []string
	if tfm := q.Get("targetFramework"); tfm != "" {
		frameworks = strings.Split(tfm, ",")
	}

	packages, err := s.engine.Search(r.Context(), term, frameworks, allowPrerelease, allowUnlisted, compat)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (s *Server) handleFindByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	compat := query.Max
	if r.URL.Query().Get("semVerLevel") != "2.0.0" {
		compat = query.Default
	}
	packages, err := s.engine.FindPackagesById(r.Context(), id, compat)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "feed: malformed multipart push body", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("package")
	if err != nil {
		http.Error(w, "feed: missing \"package\" form field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "feed: reading upload body", http.StatusInternalServerError)
		return
	}

	id := r.FormValue("id")
	v, err := pkgver.Parse(r.FormValue("version"))
	if err != nil {
		http.Error(w, "feed: invalid version", http.StatusBadRequest)
		return
	}

	reader := &sliceReaderAt{data: data}
	pkg, err := s.engine.AddPackage(r.Context(), id, v, reader, int64(len(data)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pkg)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v, err := pkgver.Parse(r.PathValue("version"))
	if err != nil {
		http.Error(w, "feed: invalid version", http.StatusBadRequest)
		return
	}
	if err := s.engine.RemovePackage(r.Context(), id, v); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind, ok := ferrors.KindOf(err)
	if !ok {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	status := http.StatusInternalServerError
	switch kind {
	case ferrors.InvalidArgument, ferrors.InvalidConfiguration:
		status = http.StatusBadRequest
	case ferrors.NotFound:
		status = http.StatusNotFound
	case ferrors.AlreadyExists:
		status = http.StatusConflict
	case ferrors.SymbolsRejected:
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}

// sliceReaderAt adapts an in-memory byte slice to io.ReaderAt, since the
// push handler already has the full upload buffered.
type sliceReaderAt struct {
	data []byte
}

func (s *sliceReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(s.data)) {
		return 0, strconv.ErrRange
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
